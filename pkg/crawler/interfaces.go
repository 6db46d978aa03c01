package crawler

import (
	"context"

	"xhsclient/pkg/xhs"
)

// NoteClient defines the API operations the crawler needs. Implemented by
// xhs.Client.
type NoteClient interface {
	FetchHomefeed(ctx context.Context, cursorScore string, num, noteIndex int) (*xhs.HomefeedData, error)
	FetchSearchPage(ctx context.Context, keyword, searchID, sort string, page int) (*xhs.SearchData, error)
	FetchUserPosted(ctx context.Context, userID, cursor string, num int) (*xhs.UserPostedData, error)
	GetComments(ctx context.Context, noteID string, count int) ([]xhs.Comment, error)
}

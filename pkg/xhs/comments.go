package xhs

import (
	"context"

	errs "xhsclient/pkg/errors"
)

// FetchCommentsPage performs a single comments request. An empty cursor
// fetches the first page.
func (c *Client) FetchCommentsPage(ctx context.Context, noteID, cursor string) (*CommentsData, error) {
	if noteID == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "note ID is required")
	}

	req := CommentsRequest{
		NoteID:       noteID,
		Cursor:       cursor,
		TopCommentID: "",
		ImageFormats: imageFormats,
	}

	var data CommentsData
	if err := c.post(ctx, "comments", CommentsEndpoint, req, &data); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched comments page", map[string]interface{}{
		"note_id":  noteID,
		"comments": len(data.Comments),
		"has_more": data.HasMore,
	})

	return &data, nil
}

// GetComments fetches up to count comments on a note, paging with the
// cursor. count <= 0 fetches every comment the API will return.
func (c *Client) GetComments(ctx context.Context, noteID string, count int) ([]Comment, error) {
	var comments []Comment
	cursor := ""

	for {
		data, err := c.FetchCommentsPage(ctx, noteID, cursor)
		if err != nil {
			if len(comments) > 0 {
				c.logger.WithError(err).Warn("comments pagination stopped early")
				return comments, nil
			}
			return nil, err
		}

		comments = append(comments, data.Comments...)

		if !data.HasMore || data.Cursor == "" || len(data.Comments) == 0 {
			break
		}
		if count > 0 && len(comments) >= count {
			break
		}
		cursor = data.Cursor
	}

	if count > 0 && len(comments) > count {
		comments = comments[:count]
	}

	return comments, nil
}

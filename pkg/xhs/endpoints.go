package xhs

import (
	"strings"

	"github.com/google/uuid"
)

const (
	// BaseURL is the base URL of the XiaoHongShu web API
	BaseURL = "https://edith.xiaohongshu.com"

	// Origin and Referer mimic the browser frontend
	Origin  = "https://www.xiaohongshu.com"
	Referer = "https://www.xiaohongshu.com/"

	// HomefeedEndpoint serves the recommendation feed
	HomefeedEndpoint = "/api/sns/web/v1/homefeed"

	// SearchEndpoint serves keyword search over notes
	SearchEndpoint = "/api/sns/web/v1/search/notes"

	// CommentsEndpoint serves paginated comments for a note
	CommentsEndpoint = "/api/sns/web/v2/comment/page"

	// FeedEndpoint serves related/recommended posts for a note
	FeedEndpoint = "/api/sns/web/v1/feed"

	// UserPostedEndpoint serves a user's published notes
	UserPostedEndpoint = "/api/sns/web/v1/user_posted"

	// UserInfoEndpoint serves another user's profile
	UserInfoEndpoint = "/api/sns/web/v1/user/otherinfo"
)

const (
	// MaxHomefeedNum is the most posts the homefeed returns per request
	MaxHomefeedNum = 20

	// SearchPageSize is fixed; the search endpoint rejects other sizes
	SearchPageSize = 20

	// MaxUserPostsNum is the most notes user_posted returns per request
	MaxUserPostsNum = 30

	// MaxFeedNum is the most related posts the feed endpoint returns
	MaxFeedNum = 30
)

// Refresh types for the homefeed endpoint
const (
	RefreshTypeInitial  = 1
	RefreshTypeLoadMore = 3
)

// Sort orders accepted by the search endpoint
const (
	SortGeneral              = "general"
	SortTimeDescending       = "time_descending"
	SortPopularityDescending = "popularity_descending"
)

// Image scene/format constants sent with payloads, as the web frontend does
var (
	homefeedImageScenes = []string{"CRD_PRV_WEBP", "CRD_WM_WEBP"}
	searchImageScenes   = "FD_PRV_WEBP,FD_WM_WEBP"
	imageFormats        = []string{"jpg", "webp", "avif"}
)

// feedXsecSource tags feed requests as coming from the PC feed page
const feedXsecSource = "pc_feed"

// IsValidSort reports whether sort is an accepted search sort order
func IsValidSort(sort string) bool {
	switch sort {
	case SortGeneral, SortTimeDescending, SortPopularityDescending:
		return true
	default:
		return false
	}
}

// NewSearchID generates a search session ID. Reusing it across pages keeps
// result ordering consistent.
func NewSearchID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// HomefeedRequest is the payload for the homefeed endpoint
type HomefeedRequest struct {
	CursorScore string   `json:"cursor_score"`
	Num         int      `json:"num"`
	RefreshType int      `json:"refresh_type"`
	NoteIndex   int      `json:"note_index"`
	ImageScenes []string `json:"image_scenes"`
}

// SearchRequest is the payload for the search endpoint
type SearchRequest struct {
	Keyword     string   `json:"keyword"`
	Page        int      `json:"page"`
	PageSize    int      `json:"page_size"`
	SearchID    string   `json:"search_id"`
	Sort        string   `json:"sort"`
	NoteType    int      `json:"note_type"`
	ExtFlags    []string `json:"ext_flags"`
	ImageScenes string   `json:"image_scenes"`
}

// CommentsRequest is the payload for the comments endpoint
type CommentsRequest struct {
	NoteID       string   `json:"note_id"`
	Cursor       string   `json:"cursor"`
	TopCommentID string   `json:"top_comment_id"`
	ImageFormats []string `json:"image_formats"`
}

// FeedRequest is the payload for the feed (related posts) endpoint
type FeedRequest struct {
	SourceNoteID string   `json:"source_note_id"`
	ImageScenes  []string `json:"image_scenes"`
	Num          int      `json:"num"`
	AdsPerFlow   int      `json:"ads_per_flow"`
	XsecSource   string   `json:"xsec_source"`
	XsecToken    string   `json:"xsec_token"`
	TagInfo      *TagInfo `json:"tag_info,omitempty"`
}

// UserPostedRequest is the payload for the user_posted endpoint
type UserPostedRequest struct {
	UserID       string   `json:"user_id"`
	Cursor       string   `json:"cursor"`
	Num          int      `json:"num"`
	ImageFormats []string `json:"image_formats"`
}

// UserInfoRequest is the payload for the user info endpoint
type UserInfoRequest struct {
	UserID       string `json:"user_id"`
	TargetUserID string `json:"target_user_id,omitempty"`
}

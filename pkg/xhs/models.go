package xhs

import "encoding/json"

// envelope is the top-level response shape of every web API endpoint
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Msg     string          `json:"msg"`
	Data    json.RawMessage `json:"data"`
}

// NoteItem represents a single note item from homefeed, search or feed
type NoteItem struct {
	ID        string   `json:"id"`
	ModelType string   `json:"model_type"`
	XsecToken string   `json:"xsec_token"`
	NoteCard  NoteCard `json:"note_card"`
}

// NoteCard carries the note content shown on a feed card
type NoteCard struct {
	Type         string       `json:"type"`
	DisplayTitle string       `json:"display_title"`
	Desc         string       `json:"desc"`
	User         UserBrief    `json:"user"`
	InteractInfo InteractInfo `json:"interact_info"`
	TagList      []Tag        `json:"tag_list"`
}

// UserBrief identifies a note or comment author
type UserBrief struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
	Avatar   string `json:"avatar"`
}

// InteractInfo carries engagement counters. The API returns them as strings.
type InteractInfo struct {
	LikedCount     string `json:"liked_count"`
	CommentCount   string `json:"comment_count"`
	CollectedCount string `json:"collected_count"`
	ShareCount     string `json:"share_count"`
}

// Tag is a topic tag attached to a note
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// TagInfo is sent with feed requests to improve recommendations
type TagInfo struct {
	Tags []Tag  `json:"tags"`
	Type string `json:"type"`
}

// Comment represents a single comment on a note
type Comment struct {
	ID              string           `json:"id"`
	Content         string           `json:"content"`
	UserInfo        UserBrief        `json:"user_info"`
	LikeCount       string           `json:"like_count"`
	SubCommentCount string           `json:"sub_comment_count"`
	CreateTime      int64            `json:"create_time"`
	IPLocation      string           `json:"ip_location"`
	Pictures        []CommentPicture `json:"pictures"`
}

// CommentPicture is an image attached to a comment
type CommentPicture struct {
	URLDefault string `json:"url_default"`
}

// HomefeedData is the data section of a homefeed response
type HomefeedData struct {
	CursorScore string     `json:"cursor_score"`
	Items       []NoteItem `json:"items"`
}

// SearchData is the data section of a search response
type SearchData struct {
	HasMore bool       `json:"has_more"`
	Items   []NoteItem `json:"items"`
}

// CommentsData is the data section of a comments response
type CommentsData struct {
	HasMore  bool      `json:"has_more"`
	Cursor   string    `json:"cursor"`
	Comments []Comment `json:"comments"`
	UserID   string    `json:"user_id"`
}

// FeedData is the data section of a feed (related posts) response
type FeedData struct {
	CurrentTime int64      `json:"current_time"`
	Items       []NoteItem `json:"items"`
}

// UserPostedData is the data section of a user_posted response
type UserPostedData struct {
	Notes   []NoteItem `json:"notes"`
	Cursor  string     `json:"cursor"`
	HasMore bool       `json:"has_more"`
}

// UserInfoData is the data section of a user info response
type UserInfoData struct {
	UserID      string `json:"user_id"`
	Nickname    string `json:"nickname"`
	Desc        string `json:"desc"`
	Gender      int    `json:"gender"`
	Follows     int    `json:"follows"`
	Fans        int    `json:"fans"`
	Interaction int    `json:"interaction"`
	Notes       int    `json:"notes"`
	Collected   int    `json:"collected"`
	Image       string `json:"image"`
	Location    string `json:"location"`
	Level       struct {
		Name string `json:"name"`
	} `json:"level"`
	College struct {
		Name string `json:"name"`
	} `json:"college"`
}

// NoteInfo is a flattened summary of a note item
type NoteInfo struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Desc           string `json:"desc"`
	Type           string `json:"type"`
	AuthorNickname string `json:"author_nickname"`
	AuthorUserID   string `json:"author_user_id"`
	Likes          string `json:"likes"`
	Comments       string `json:"comments"`
	Collects       string `json:"collects"`
	Shares         string `json:"shares"`
	HasToken       bool   `json:"has_token"`
}

// Info extracts the key information from a note item
func (n *NoteItem) Info() NoteInfo {
	return NoteInfo{
		ID:             n.ID,
		Title:          n.NoteCard.DisplayTitle,
		Desc:           n.NoteCard.Desc,
		Type:           n.NoteCard.Type,
		AuthorNickname: n.NoteCard.User.Nickname,
		AuthorUserID:   n.NoteCard.User.UserID,
		Likes:          n.NoteCard.InteractInfo.LikedCount,
		Comments:       n.NoteCard.InteractInfo.CommentCount,
		Collects:       n.NoteCard.InteractInfo.CollectedCount,
		Shares:         n.NoteCard.InteractInfo.ShareCount,
		HasToken:       n.XsecToken != "",
	}
}

// TagInfo extracts tag information for feed recommendations
func (n *NoteItem) TagInfo() *TagInfo {
	noteType := n.NoteCard.Type
	if noteType == "" {
		noteType = "normal"
	}
	return &TagInfo{
		Tags: n.NoteCard.TagList,
		Type: noteType,
	}
}

// CommentSummary is a flattened view of a comment
type CommentSummary struct {
	ID              string   `json:"id"`
	Content         string   `json:"content"`
	UserNickname    string   `json:"user_nickname"`
	UserID          string   `json:"user_id"`
	LikeCount       string   `json:"like_count"`
	SubCommentCount string   `json:"sub_comment_count"`
	CreateTime      int64    `json:"create_time"`
	IPLocation      string   `json:"ip_location"`
	Pictures        []string `json:"pictures"`
}

// Summary flattens a comment into a simpler shape
func (c *Comment) Summary() CommentSummary {
	nickname := c.UserInfo.Nickname
	if nickname == "" {
		nickname = "Anonymous"
	}

	pictures := make([]string, 0, len(c.Pictures))
	for _, pic := range c.Pictures {
		pictures = append(pictures, pic.URLDefault)
	}

	return CommentSummary{
		ID:              c.ID,
		Content:         c.Content,
		UserNickname:    nickname,
		UserID:          c.UserInfo.UserID,
		LikeCount:       c.LikeCount,
		SubCommentCount: c.SubCommentCount,
		CreateTime:      c.CreateTime,
		IPLocation:      c.IPLocation,
		Pictures:        pictures,
	}
}

// UserProfile is a flattened view of a user info response
type UserProfile struct {
	UserID         string `json:"user_id"`
	Nickname       string `json:"nickname"`
	Desc           string `json:"desc"`
	Gender         int    `json:"gender"`
	Follows        int    `json:"follows"`
	Fans           int    `json:"fans"`
	Interaction    int    `json:"interaction"`
	NoteCount      int    `json:"note_count"`
	CollectedCount int    `json:"collected_count"`
	Avatar         string `json:"avatar"`
	Level          string `json:"level"`
	Location       string `json:"location"`
	College        string `json:"college"`
}

// Profile flattens a user info response
func (u *UserInfoData) Profile() UserProfile {
	return UserProfile{
		UserID:         u.UserID,
		Nickname:       u.Nickname,
		Desc:           u.Desc,
		Gender:         u.Gender,
		Follows:        u.Follows,
		Fans:           u.Fans,
		Interaction:    u.Interaction,
		NoteCount:      u.Notes,
		CollectedCount: u.Collected,
		Avatar:         u.Image,
		Level:          u.Level.Name,
		Location:       u.Location,
		College:        u.College.Name,
	}
}

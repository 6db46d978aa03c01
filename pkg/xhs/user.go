package xhs

import (
	"context"

	errs "xhsclient/pkg/errors"
)

// FetchUserPosted performs a single user_posted request. An empty cursor
// fetches the newest notes.
func (c *Client) FetchUserPosted(ctx context.Context, userID, cursor string, num int) (*UserPostedData, error) {
	if userID == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "user ID is required")
	}
	if num <= 0 || num > MaxUserPostsNum {
		num = MaxUserPostsNum
	}

	req := UserPostedRequest{
		UserID:       userID,
		Cursor:       cursor,
		Num:          num,
		ImageFormats: imageFormats,
	}

	var data UserPostedData
	if err := c.post(ctx, "user_posted", UserPostedEndpoint, req, &data); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched user posts page", map[string]interface{}{
		"user_id":  userID,
		"notes":    len(data.Notes),
		"has_more": data.HasMore,
	})

	return &data, nil
}

// GetUserPosts fetches up to count notes published by a user, paging with
// the cursor. count <= 0 fetches everything.
func (c *Client) GetUserPosts(ctx context.Context, userID string, count int) ([]NoteItem, error) {
	var notes []NoteItem
	cursor := ""

	for {
		data, err := c.FetchUserPosted(ctx, userID, cursor, MaxUserPostsNum)
		if err != nil {
			if len(notes) > 0 {
				c.logger.WithError(err).Warn("user posts pagination stopped early")
				return notes, nil
			}
			return nil, err
		}

		notes = append(notes, data.Notes...)

		if !data.HasMore || data.Cursor == "" || len(data.Notes) == 0 {
			break
		}
		if count > 0 && len(notes) >= count {
			break
		}
		cursor = data.Cursor
	}

	if count > 0 && len(notes) > count {
		notes = notes[:count]
	}

	return notes, nil
}

// GetUserProfile fetches another user's public profile. targetUserID is
// optional; when set the response includes relationship info relative to
// that user, and the field is omitted from the payload otherwise.
func (c *Client) GetUserProfile(ctx context.Context, userID, targetUserID string) (*UserInfoData, error) {
	if userID == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "user ID is required")
	}

	req := UserInfoRequest{
		UserID:       userID,
		TargetUserID: targetUserID,
	}

	var data UserInfoData
	if err := c.post(ctx, "user_info", UserInfoEndpoint, req, &data); err != nil {
		return nil, err
	}

	return &data, nil
}

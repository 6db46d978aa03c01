package xhs

import (
	"context"

	errs "xhsclient/pkg/errors"
)

// FetchFeed performs a single feed request for posts related to a source
// note. The xsecToken must be the one returned alongside the source note;
// tokens are not transferable between notes. tagInfo is optional and steers
// the recommendations toward the source note's topics.
func (c *Client) FetchFeed(ctx context.Context, sourceNoteID, xsecToken string, num int, tagInfo *TagInfo) (*FeedData, error) {
	if sourceNoteID == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "source note ID is required")
	}
	if xsecToken == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "xsec_token is required; use the token returned with the source note")
	}
	if num <= 0 || num > MaxFeedNum {
		num = MaxFeedNum
	}

	req := FeedRequest{
		SourceNoteID: sourceNoteID,
		ImageScenes:  homefeedImageScenes,
		Num:          num,
		AdsPerFlow:   0,
		XsecSource:   feedXsecSource,
		XsecToken:    xsecToken,
		TagInfo:      tagInfo,
	}

	var data FeedData
	if err := c.post(ctx, "feed", FeedEndpoint, req, &data); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched related posts", map[string]interface{}{
		"source_note_id": sourceNoteID,
		"items":          len(data.Items),
	})

	return &data, nil
}

// GetRelatedPosts fetches posts related to a note. The feed endpoint echoes
// the source note as its first item, which is filtered out here.
func (c *Client) GetRelatedPosts(ctx context.Context, source *NoteItem, num int) ([]NoteItem, error) {
	if source == nil {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "source note is required")
	}

	data, err := c.FetchFeed(ctx, source.ID, source.XsecToken, num, source.TagInfo())
	if err != nil {
		return nil, err
	}

	related := make([]NoteItem, 0, len(data.Items))
	for _, item := range data.Items {
		if item.ID == source.ID {
			continue
		}
		related = append(related, item)
	}

	return related, nil
}

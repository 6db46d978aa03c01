package xhs

import "context"

// FetchHomefeed performs a single homefeed request. An empty cursorScore
// with noteIndex 0 fetches the initial page; subsequent pages pass the
// cursor from the previous response and a running note index.
func (c *Client) FetchHomefeed(ctx context.Context, cursorScore string, num, noteIndex int) (*HomefeedData, error) {
	if num <= 0 || num > MaxHomefeedNum {
		num = MaxHomefeedNum
	}

	refreshType := RefreshTypeLoadMore
	if cursorScore == "" && noteIndex == 0 {
		refreshType = RefreshTypeInitial
	}

	req := HomefeedRequest{
		CursorScore: cursorScore,
		Num:         num,
		RefreshType: refreshType,
		NoteIndex:   noteIndex,
		ImageScenes: homefeedImageScenes,
	}

	var data HomefeedData
	if err := c.post(ctx, "homefeed", HomefeedEndpoint, req, &data); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched homefeed page", map[string]interface{}{
		"items":        len(data.Items),
		"cursor_score": data.CursorScore,
	})

	return &data, nil
}

// GetHomefeedPosts fetches up to count posts from the recommendation feed,
// paging with the cursor until count is reached or the feed runs dry.
func (c *Client) GetHomefeedPosts(ctx context.Context, count int) ([]NoteItem, error) {
	if count <= 0 {
		count = MaxHomefeedNum
	}

	var posts []NoteItem
	cursor := ""
	noteIndex := 0

	for len(posts) < count {
		num := count - len(posts)
		if num > MaxHomefeedNum {
			num = MaxHomefeedNum
		}

		data, err := c.FetchHomefeed(ctx, cursor, num, noteIndex)
		if err != nil {
			if len(posts) > 0 {
				c.logger.WithError(err).Warn("homefeed pagination stopped early")
				return posts, nil
			}
			return nil, err
		}

		if len(data.Items) == 0 {
			break
		}

		posts = append(posts, data.Items...)
		noteIndex += len(data.Items)
		cursor = data.CursorScore

		if cursor == "" {
			break
		}
	}

	if len(posts) > count {
		posts = posts[:count]
	}

	return posts, nil
}

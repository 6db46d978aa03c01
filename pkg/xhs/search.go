package xhs

import (
	"context"

	errs "xhsclient/pkg/errors"
)

// FetchSearchPage performs a single search request. Pages are 1-based and
// the same searchID must be reused across pages of one search session.
func (c *Client) FetchSearchPage(ctx context.Context, keyword, searchID, sort string, page int) (*SearchData, error) {
	if keyword == "" {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "search keyword is required")
	}
	if page < 1 {
		page = 1
	}
	if sort == "" {
		sort = SortGeneral
	}
	if !IsValidSort(sort) {
		return nil, errs.New(errs.ErrorTypeUnknown, 0, "invalid sort order: %s", sort)
	}
	if searchID == "" {
		searchID = NewSearchID()
	}

	req := SearchRequest{
		Keyword:     keyword,
		Page:        page,
		PageSize:    SearchPageSize,
		SearchID:    searchID,
		Sort:        sort,
		NoteType:    0,
		ExtFlags:    []string{},
		ImageScenes: searchImageScenes,
	}

	var data SearchData
	if err := c.post(ctx, "search", SearchEndpoint, req, &data); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("fetched search page", map[string]interface{}{
		"keyword":  keyword,
		"page":     page,
		"items":    len(data.Items),
		"has_more": data.HasMore,
	})

	return &data, nil
}

// Search fetches up to count notes matching keyword, paging until count is
// reached or the API reports no more results.
func (c *Client) Search(ctx context.Context, keyword, sort string, count int) ([]NoteItem, error) {
	if count <= 0 {
		count = SearchPageSize
	}

	searchID := NewSearchID()
	var notes []NoteItem

	for page := 1; len(notes) < count; page++ {
		data, err := c.FetchSearchPage(ctx, keyword, searchID, sort, page)
		if err != nil {
			if len(notes) > 0 {
				c.logger.WithError(err).Warn("search pagination stopped early")
				return notes, nil
			}
			return nil, err
		}

		// Search result pages mix notes with other card types
		for _, item := range data.Items {
			if item.ModelType == "note" || item.ModelType == "" {
				notes = append(notes, item)
			}
		}

		if !data.HasMore || len(data.Items) == 0 {
			break
		}
	}

	if len(notes) > count {
		notes = notes[:count]
	}

	return notes, nil
}

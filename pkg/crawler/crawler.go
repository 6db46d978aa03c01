package crawler

import (
	"context"
	"fmt"
	"sync"

	"xhsclient/internal/fetcher"
	"xhsclient/pkg/checkpoint"
	"xhsclient/pkg/config"
	"xhsclient/pkg/logger"
	"xhsclient/pkg/xhs"
)

// Options controls a crawl run
type Options struct {
	Pages             int
	PageSize          int
	WithComments      bool
	MaxComments       int
	ConcurrentFetches int
	Resume            bool
	ForceRestart      bool
	Sort              string
}

// Result is the outcome of a crawl run
type Result struct {
	Notes        []xhs.NoteItem
	Comments     map[string][]xhs.Comment // note ID -> comments
	PagesFetched int
	Skipped      int
}

// Crawler runs multi-page crawls with checkpoint support and optional
// concurrent comment fetching
type Crawler struct {
	client NoteClient
	cfg    *config.Config
	logger logger.Logger
}

// New creates a crawler
func New(client NoteClient, cfg *config.Config, log logger.Logger) *Crawler {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Crawler{
		client: client,
		cfg:    cfg,
		logger: log,
	}
}

// optionsWithDefaults fills unset options from the configuration
func (c *Crawler) optionsWithDefaults(opts Options) Options {
	if opts.Pages <= 0 {
		opts.Pages = c.cfg.Crawl.Pages
	}
	if opts.PageSize <= 0 {
		opts.PageSize = c.cfg.Crawl.PageSize
	}
	if opts.ConcurrentFetches <= 0 {
		opts.ConcurrentFetches = c.cfg.Crawl.ConcurrentFetches
	}
	if opts.Sort == "" {
		opts.Sort = xhs.SortGeneral
	}
	return opts
}

// CrawlHomefeed crawls the recommendation feed for opts.Pages pages
func (c *Crawler) CrawlHomefeed(ctx context.Context, opts Options) (*Result, error) {
	opts = c.optionsWithDefaults(opts)

	mgr, cp, err := c.prepareCheckpoint(checkpoint.KindHomefeed, "", "", opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Comments: make(map[string][]xhs.Comment)}
	cursor := cp.Cursor
	noteIndex := cp.NoteIndex

	for page := cp.Page; page < opts.Pages; page++ {
		data, err := c.client.FetchHomefeed(ctx, cursor, opts.PageSize, noteIndex)
		if err != nil {
			return c.finish(result, cp, mgr, err)
		}

		if len(data.Items) == 0 {
			break
		}

		c.collectNotes(result, cp, mgr, data.Items)
		noteIndex += len(data.Items)
		cursor = data.CursorScore
		result.PagesFetched++

		logger.LogCrawlProgress("homefeed", len(result.Notes), page+1)

		if err := mgr.UpdateProgress(cp, cursor, page+1, noteIndex); err != nil {
			c.logger.WithError(err).Warn("Failed to update checkpoint")
		}

		if cursor == "" {
			break
		}
	}

	return c.finish(result, cp, mgr, c.fetchComments(ctx, result, cp, mgr, opts))
}

// CrawlSearch crawls search results for a keyword. The search session ID is
// checkpointed so a resumed crawl keeps its result ordering.
func (c *Crawler) CrawlSearch(ctx context.Context, keyword string, opts Options) (*Result, error) {
	if keyword == "" {
		return nil, fmt.Errorf("search keyword is required")
	}
	opts = c.optionsWithDefaults(opts)

	mgr, cp, err := c.prepareCheckpoint(checkpoint.KindSearch, keyword, "", opts)
	if err != nil {
		return nil, err
	}

	if cp.SearchID == "" {
		cp.SearchID = xhs.NewSearchID()
	}

	result := &Result{Comments: make(map[string][]xhs.Comment)}

	for page := cp.Page + 1; page <= opts.Pages; page++ {
		data, err := c.client.FetchSearchPage(ctx, keyword, cp.SearchID, opts.Sort, page)
		if err != nil {
			return c.finish(result, cp, mgr, err)
		}

		c.collectNotes(result, cp, mgr, data.Items)
		result.PagesFetched++

		logger.LogCrawlProgress("search", len(result.Notes), page)

		if err := mgr.UpdateProgress(cp, "", page, 0); err != nil {
			c.logger.WithError(err).Warn("Failed to update checkpoint")
		}

		if !data.HasMore || len(data.Items) == 0 {
			break
		}
	}

	return c.finish(result, cp, mgr, c.fetchComments(ctx, result, cp, mgr, opts))
}

// CrawlUser crawls the notes published by one user
func (c *Crawler) CrawlUser(ctx context.Context, userID string, opts Options) (*Result, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	opts = c.optionsWithDefaults(opts)

	mgr, cp, err := c.prepareCheckpoint(checkpoint.KindUser, "", userID, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Comments: make(map[string][]xhs.Comment)}
	cursor := cp.Cursor

	for page := cp.Page; page < opts.Pages; page++ {
		data, err := c.client.FetchUserPosted(ctx, userID, cursor, xhs.MaxUserPostsNum)
		if err != nil {
			return c.finish(result, cp, mgr, err)
		}

		c.collectNotes(result, cp, mgr, data.Notes)
		cursor = data.Cursor
		result.PagesFetched++

		logger.LogCrawlProgress("user", len(result.Notes), page+1)

		if err := mgr.UpdateProgress(cp, cursor, page+1, 0); err != nil {
			c.logger.WithError(err).Warn("Failed to update checkpoint")
		}

		if !data.HasMore || cursor == "" || len(data.Notes) == 0 {
			break
		}
	}

	return c.finish(result, cp, mgr, c.fetchComments(ctx, result, cp, mgr, opts))
}

// prepareCheckpoint creates or loads the checkpoint for a crawl, honoring
// the resume and force-restart options
func (c *Crawler) prepareCheckpoint(kind, keyword, userID string, opts Options) (*checkpoint.Manager, *checkpoint.Checkpoint, error) {
	name := keyword
	if name == "" {
		name = userID
	}

	mgr, err := checkpoint.NewManager(kind, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	if opts.ForceRestart && mgr.Exists() {
		if err := mgr.Delete(); err != nil {
			c.logger.WithError(err).Warn("Failed to delete existing checkpoint")
		}
	}

	if opts.Resume && mgr.Exists() {
		cp, err := mgr.Load()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp != nil {
			c.logger.InfoWithFields("Resuming crawl from checkpoint", map[string]interface{}{
				"kind":          kind,
				"total_fetched": cp.TotalFetched,
				"page":          cp.Page,
			})
			return mgr, cp, nil
		}
	}

	cp, err := mgr.Create(kind, keyword, userID)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to create checkpoint, continuing without persistence")
		cp = &checkpoint.Checkpoint{
			Kind:         kind,
			Keyword:      keyword,
			UserID:       userID,
			FetchedNotes: make(map[string]bool),
		}
	}

	return mgr, cp, nil
}

// collectNotes appends unseen notes to the result and records them in the
// checkpoint
func (c *Crawler) collectNotes(result *Result, cp *checkpoint.Checkpoint, mgr *checkpoint.Manager, items []xhs.NoteItem) {
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if cp.IsNoteFetched(item.ID) {
			result.Skipped++
			continue
		}
		result.Notes = append(result.Notes, item)
		if err := mgr.RecordNote(cp, item.ID); err != nil {
			c.logger.WithError(err).Warn("Failed to record note in checkpoint")
		}
	}
}

// fetchComments fetches comments for every collected note through the
// worker pool. Returns nil when comments are not requested.
func (c *Crawler) fetchComments(ctx context.Context, result *Result, cp *checkpoint.Checkpoint, mgr *checkpoint.Manager, opts Options) error {
	if !opts.WithComments || len(result.Notes) == 0 {
		return nil
	}

	pool := fetcher.NewWorkerPool(ctx, opts.ConcurrentFetches, opts.MaxComments, c.client, nil, c.logger)
	pool.Start()

	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for res := range pool.Results() {
			if !res.Success {
				c.logger.WithError(res.Error).WarnWithFields("Comment fetch failed", map[string]interface{}{
					"note_id": res.Job.NoteID,
				})
				continue
			}
			mu.Lock()
			result.Comments[res.Job.NoteID] = res.Comments
			mu.Unlock()
		}
	}()

	var submitErr error
	for _, note := range result.Notes {
		if err := pool.Submit(fetcher.CommentJob{NoteID: note.ID, Title: note.NoteCard.DisplayTitle}); err != nil {
			submitErr = err
			break
		}
	}

	pool.Stop()
	wg.Wait()

	return submitErr
}

// finish saves the final checkpoint state and returns the result. A partial
// result is returned alongside the error that stopped the crawl.
func (c *Crawler) finish(result *Result, cp *checkpoint.Checkpoint, mgr *checkpoint.Manager, err error) (*Result, error) {
	if saveErr := mgr.Save(cp); saveErr != nil {
		c.logger.WithError(saveErr).Warn("Failed to save final checkpoint")
	}

	c.logger.InfoWithFields("Crawl finished", map[string]interface{}{
		"notes":   len(result.Notes),
		"pages":   result.PagesFetched,
		"skipped": result.Skipped,
	})

	if err != nil {
		if len(result.Notes) > 0 {
			c.logger.WithError(err).Warn("Crawl stopped early, returning partial result")
			return result, nil
		}
		return nil, err
	}

	return result, nil
}

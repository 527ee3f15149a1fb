// Package story turns one story into a terminal report: news page first,
// then every page linked from the story's comment thread.
package story

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hncrawl/hncrawl/internal/batch"
	"github.com/hncrawl/hncrawl/internal/fetch"
	"github.com/hncrawl/hncrawl/internal/metrics"
	"github.com/hncrawl/hncrawl/internal/report"
	"github.com/hncrawl/hncrawl/internal/storage"
)

// Story identifies one front-page item to process.
type Story struct {
	ID          string
	Title       string
	URL         string
	CommentsURL string
}

// LinkExtractor pulls outbound link URLs from a comment-thread page. The
// base URL resolves relative hrefs.
type LinkExtractor func(body []byte, baseURL string) ([]string, error)

// Processor drives one story through its lifecycle. Only a failure of the
// story page itself fails the story; every other failure is recorded and
// processing continues.
type Processor struct {
	downloader *batch.Downloader
	fetcher    *fetch.Fetcher
	store      storage.Store
	extract    LinkExtractor
	logger     *zap.Logger
}

// NewProcessor wires a Processor.
func NewProcessor(
	downloader *batch.Downloader,
	fetcher *fetch.Fetcher,
	store storage.Store,
	extract LinkExtractor,
	logger *zap.Logger,
) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		downloader: downloader,
		fetcher:    fetcher,
		store:      store,
		extract:    extract,
		logger:     logger,
	}
}

// Process downloads the story page and its comment links, returning the
// story's terminal report. It never returns an error; all failure is
// recorded in the report.
func (p *Processor) Process(ctx context.Context, st Story) report.Story {
	rep := report.Story{
		StoryID:      st.ID,
		Title:        st.Title,
		URL:          st.URL,
		Status:       report.StatusInProcess,
		Directory:    st.ID,
		CommentFiles: []string{},
		Errors:       []string{},
	}
	defer func() {
		metrics.ObserveStory(string(rep.Status))
	}()

	if err := p.store.EnsureDir(st.ID); err != nil {
		rep.Status = report.StatusFailed
		rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %s", st.ID, err.Error()))
		return rep
	}

	results, agg := p.downloader.DownloadAll(
		ctx,
		[]batch.Item{{ID: st.ID, URL: st.URL}},
		st.ID,
		"news",
		p.fetcher.Timeout(),
	)
	mergeAggregate(&rep, agg)

	news := results[0]
	if !news.Outcome.OK() {
		rep.Status = report.StatusFailed
		rep.Errors = append(rep.Errors, outcomeError(st.URL, news.Outcome))
		p.logger.Warn("story page fetch failed",
			zap.String("story_id", st.ID),
			zap.String("url", st.URL),
			zap.String("status", string(news.Outcome.Status)),
		)
		return rep
	}
	rep.NewsFile = news.Path
	rep.Status = report.StatusNewsSaved
	p.logger.Info("story page saved",
		zap.String("story_id", st.ID),
		zap.String("path", news.Path),
	)

	links := p.commentLinks(ctx, st, &rep)
	if len(links) > 0 {
		p.downloadComments(ctx, st, links, &rep)
	}

	rep.Status = report.StatusOK
	return rep
}

// commentLinks fetches the thread page and extracts outbound links. Any
// failure here degrades to zero links; the story still completes.
func (p *Processor) commentLinks(ctx context.Context, st Story, rep *report.Story) []string {
	out := p.fetcher.Fetch(ctx, st.CommentsURL)
	if !out.OK() {
		rep.Errors = append(rep.Errors, outcomeError(st.CommentsURL, out))
		p.logger.Warn("comment thread fetch failed",
			zap.String("story_id", st.ID),
			zap.String("url", st.CommentsURL),
			zap.String("status", string(out.Status)),
		)
		return nil
	}

	links, err := p.safeExtract(out.Body, st.CommentsURL)
	if err != nil {
		p.logger.Warn("comment link extraction degraded to zero links",
			zap.String("story_id", st.ID),
			zap.Error(err),
		)
		return nil
	}
	return links
}

// safeExtract shields the processor from a panicking extractor: malformed
// HTML yields zero links, not a failed story.
func (p *Processor) safeExtract(body []byte, baseURL string) (links []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			links = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return p.extract(body, baseURL)
}

func (p *Processor) downloadComments(ctx context.Context, st Story, links []string, rep *report.Story) {
	items := make([]batch.Item, len(links))
	for i, link := range links {
		items[i] = batch.Item{ID: link, URL: link}
	}

	results, agg := p.downloader.DownloadAll(ctx, items, st.ID, "comm", p.fetcher.Timeout())
	mergeAggregate(rep, agg)

	for _, res := range results {
		if res.Outcome.OK() {
			rep.CommentFiles = append(rep.CommentFiles, res.Path)
			continue
		}
		rep.Errors = append(rep.Errors, outcomeError(res.ID, res.Outcome))
	}
	p.logger.Info("comment links processed",
		zap.String("story_id", st.ID),
		zap.Int("total", agg.Count),
		zap.Int("saved", agg.OKCount),
	)
}

func mergeAggregate(rep *report.Story, agg batch.Aggregate) {
	rep.FetchTotalCount += agg.Count
	rep.FetchOKCount += agg.OKCount
	rep.FetchTotalTime += agg.TotalTime.Seconds()
	rep.FetchTotalSize += agg.TotalSize
}

func outcomeError(id string, out fetch.Outcome) string {
	if out.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", id, out.Status, out.Detail)
	}
	return fmt.Sprintf("%s: %s", id, out.Status)
}

// Package runner drives the poll loop: discover top stories, process the
// previously-unseen ones, report, sleep, repeat.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hncrawl/hncrawl/internal/fetch"
	"github.com/hncrawl/hncrawl/internal/hn"
	"github.com/hncrawl/hncrawl/internal/metrics"
	"github.com/hncrawl/hncrawl/internal/report"
	"github.com/hncrawl/hncrawl/internal/storage"
	"github.com/hncrawl/hncrawl/internal/story"
)

// Config controls the poll loop.
type Config struct {
	StartPage    string
	TopStories   int
	PollInterval time.Duration
}

// StoryProcessor is the per-story pipeline the runner fans out over.
type StoryProcessor interface {
	Process(ctx context.Context, st story.Story) report.Story
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}

// DiscoverFunc parses a front page into top stories.
type DiscoverFunc func(body []byte, baseURL string, limit int) ([]hn.Story, error)

// Runner owns the cross-cycle visited set and the latest run report.
// Stories are marked visited only once they finish OK, so transient
// failures retry on the next cycle.
type Runner struct {
	cfg       Config
	fetcher   *fetch.Fetcher
	processor StoryProcessor
	store     storage.Store
	discover  DiscoverFunc
	clock     Clock
	idGen     IDGenerator
	logger    *zap.Logger

	visited map[string]struct{}

	mu     sync.RWMutex
	latest *report.Run
}

// New wires a Runner. A nil discover falls back to hn.ParseFrontPage.
func New(
	cfg Config,
	fetcher *fetch.Fetcher,
	processor StoryProcessor,
	store storage.Store,
	discover DiscoverFunc,
	clock Clock,
	idGen IDGenerator,
	logger *zap.Logger,
) *Runner {
	if discover == nil {
		discover = hn.ParseFrontPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		cfg:       cfg,
		fetcher:   fetcher,
		processor: processor,
		store:     store,
		discover:  discover,
		clock:     clock,
		idGen:     idGen,
		logger:    logger,
		visited:   make(map[string]struct{}),
	}
	return r
}

// Run loops poll cycles until the context is cancelled. A failed cycle is
// logged and retried at the next interval rather than stopping the daemon.
func (r *Runner) Run(ctx context.Context) error {
	for cycle := 0; ; cycle++ {
		r.logger.Info("starting crawl cycle", zap.Int("cycle", cycle))
		run, err := r.RunCycle(ctx, cycle)
		switch {
		case ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			r.logger.Error("crawl cycle failed", zap.Int("cycle", cycle), zap.Error(err))
		default:
			r.logger.Info("crawl cycle finished",
				zap.Int("cycle", cycle),
				zap.Int("stories", len(run.Stories)),
			)
		}

		timer := time.NewTimer(r.cfg.PollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// RunCycle executes one poll cycle and returns its report. New stories are
// processed concurrently; the results log preserves submission order.
func (r *Runner) RunCycle(ctx context.Context, cycle int) (*report.Run, error) {
	runID, err := r.idGen.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate run id: %w", err)
	}
	run := report.NewRun(runID, cycle, r.clock.Now())

	front := r.fetcher.Fetch(ctx, r.cfg.StartPage)
	if !front.OK() {
		return nil, fmt.Errorf("fetch front page: %s: %s", front.Status, front.Detail)
	}

	stories, err := r.discover(front.Body, r.cfg.StartPage, r.cfg.TopStories)
	if err != nil {
		return nil, fmt.Errorf("discover top stories: %w", err)
	}

	fresh := r.selectNew(stories)
	r.logger.Info("top stories discovered",
		zap.Int("total", len(stories)),
		zap.Int("new", len(fresh)),
	)

	reports := make([]report.Story, len(fresh))
	var g errgroup.Group
	for i, st := range fresh {
		i, st := i, st
		g.Go(func() error {
			reports[i] = r.processor.Process(ctx, story.Story{
				ID:          st.ID,
				Title:       st.Title,
				URL:         st.URL,
				CommentsURL: hn.CommentsURL(r.cfg.StartPage, st.ID),
			})
			return nil
		})
	}
	_ = g.Wait()

	for _, rep := range reports {
		run.Add(rep)
		if rep.Status == report.StatusOK {
			r.visited[rep.StoryID] = struct{}{}
		}
	}
	run.FinishedAt = r.clock.Now()

	if err := r.writeReport(run); err != nil {
		r.logger.Error("write run report failed", zap.Error(err))
	}
	r.publishLatest(run)
	metrics.ObserveCycle()
	return run, nil
}

// Latest returns the most recently completed run report, or nil before the
// first cycle finishes.
func (r *Runner) Latest() *report.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

func (r *Runner) publishLatest(run *report.Run) {
	r.mu.Lock()
	r.latest = run
	r.mu.Unlock()
}

func (r *Runner) selectNew(stories []hn.Story) []hn.Story {
	fresh := make([]hn.Story, 0, len(stories))
	for _, st := range stories {
		if _, seen := r.visited[st.ID]; seen {
			continue
		}
		fresh = append(fresh, st)
	}
	return fresh
}

func (r *Runner) writeReport(run *report.Run) error {
	payload, err := run.JSON()
	if err != nil {
		return err
	}
	name := fmt.Sprintf("report_%d.json", run.Cycle)
	if err := r.store.WriteFile(name, payload); err != nil {
		return fmt.Errorf("persist run report: %w", err)
	}
	return nil
}

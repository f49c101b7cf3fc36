package onboarding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultFetchConcurrency bounds parallel book fetches when unset.
const DefaultFetchConcurrency = 4

// ControllerConfig configures a Controller.
type ControllerConfig struct {
	SessionID        string
	Limits           Limits
	// AnalysisDelay is how long Analyzing is shown before submitting.
	// Zero or negative submits immediately.
	AnalysisDelay    time.Duration
	FetchConcurrency int
	Logger           *slog.Logger

	// OnChange is called with the lock held after every adopted transition.
	// It must not call back into the Controller.
	OnChange func(State)
	// OnComplete is called once, after OnChange, when the submission succeeds.
	OnComplete func(Outcome)
}

// Controller runs one wizard session. It serializes events, executes the
// effects Reduce asks for, and feeds their completions back.
type Controller struct {
	mu    sync.Mutex
	state State

	catalog     CatalogSource
	coordinator *SubmissionCoordinator
	cfg         ControllerConfig
	logger      *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	exited bool
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup

	outcome *Outcome
}

// NewController creates a controller at Welcome.
func NewController(catalog CatalogSource, coordinator *SubmissionCoordinator, cfg ControllerConfig) *Controller {
	if cfg.AnalysisDelay < 0 {
		cfg.AnalysisDelay = 0
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = DefaultFetchConcurrency
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		state:       NewState(cfg.Limits),
		catalog:     catalog,
		coordinator: coordinator,
		cfg:         cfg,
		logger:      logger.With("session_id", cfg.SessionID),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
}

// ID returns the session id.
func (c *Controller) ID() string {
	return c.cfg.SessionID
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Outcome returns the submission result once the wizard completed.
func (c *Controller) Outcome() (Outcome, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome == nil {
		return Outcome{}, false
	}
	return *c.outcome, true
}

// Done is closed when the wizard completes, exits or is closed.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Exited reports whether the user left the wizard with Back.
func (c *Controller) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exited
}

// Dispatch applies a user event. Fetches requested by the event run before
// Dispatch returns; the analysis delay and submission run in the background.
func (c *Controller) Dispatch(ctx context.Context, ev Event) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return c.state.Clone(), ErrClosed
	}

	next, eff, err := Reduce(c.state, ev)
	if err != nil {
		return c.state.Clone(), err
	}
	c.adopt(next)

	switch eff := eff.(type) {
	case FetchGenres:
		return c.fetchGenres(ctx)
	case FetchBooks:
		return c.fetchBooks(ctx, eff)
	case StartAnalysis:
		c.wg.Add(1)
		go c.analyze()
	case Exit:
		c.logger.Info("wizard exited")
		c.exited = true
		c.shutdownLocked()
	case nil:
	default:
		return c.state.Clone(), fmt.Errorf("onboarding: unexpected effect %T", eff)
	}
	return c.state.Clone(), nil
}

// Close tears the session down. In-flight requests are cancelled and their
// results discarded. Close waits for background work to stop.
func (c *Controller) Close() {
	c.mu.Lock()
	c.shutdownLocked()
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) shutdownLocked() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.once.Do(func() { close(c.done) })
}

// adopt must be called with the lock held.
func (c *Controller) adopt(next State) {
	c.state = next
	if c.cfg.OnChange != nil {
		c.cfg.OnChange(next.Clone())
	}
}

// complete feeds a completion event and adopts whatever Reduce returns,
// including on error.
func (c *Controller) complete(ev Event) (Effect, error) {
	next, eff, err := Reduce(c.state, ev)
	c.adopt(next)
	return eff, err
}

// unlocked runs fn without the lock, with a context cancelled by either the
// caller or Close. It reports false when the session closed meanwhile.
func (c *Controller) unlocked(ctx context.Context, fn func(context.Context)) bool {
	callCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)
	c.mu.Unlock()
	fn(callCtx)
	stop()
	cancel()
	c.mu.Lock()
	return !c.closed
}

func (c *Controller) fetchGenres(ctx context.Context) (State, error) {
	var (
		genres []Genre
		err    error
	)
	if !c.unlocked(ctx, func(ctx context.Context) {
		genres, err = c.catalog.FetchGenreCatalog(ctx)
	}) {
		return c.state.Clone(), ErrClosed
	}

	if err != nil {
		c.logger.Warn("failed to fetch genre catalog", "error", err)
		_, err = c.complete(genresFailed{err: err})
		return c.state.Clone(), err
	}
	_, err = c.complete(genresLoaded{genres: genres})
	return c.state.Clone(), err
}

func (c *Controller) fetchBooks(ctx context.Context, eff FetchBooks) (State, error) {
	results := make([][]BookSummary, len(eff.GenreIDs))
	var err error
	if !c.unlocked(ctx, func(ctx context.Context) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.cfg.FetchConcurrency)
		for i, genreID := range eff.GenreIDs {
			g.Go(func() error {
				books, err := c.catalog.FetchBooksForGenre(gctx, genreID, eff.Limit)
				if err != nil {
					return fmt.Errorf("genre %s: %w", genreID, err)
				}
				results[i] = books
				return nil
			})
		}
		err = g.Wait()
	}) {
		return c.state.Clone(), ErrClosed
	}

	if err != nil {
		c.logger.Warn("failed to fetch books", "genres", eff.GenreIDs, "error", err)
		_, err = c.complete(booksFailed{err: err})
		return c.state.Clone(), err
	}

	byGenre := make(map[string][]BookSummary, len(results))
	for i, genreID := range eff.GenreIDs {
		if results[i] == nil {
			results[i] = []BookSummary{}
		}
		byGenre[genreID] = results[i]
	}
	_, err = c.complete(booksLoaded{books: byGenre})
	return c.state.Clone(), err
}

// analyze waits out the analysis delay and then submits.
func (c *Controller) analyze() {
	defer c.wg.Done()

	timer := time.NewTimer(c.cfg.AnalysisDelay)
	defer timer.Stop()
	select {
	case <-c.ctx.Done():
		return
	case <-timer.C:
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	eff, _ := c.complete(analysisElapsed{})
	sub, ok := eff.(Submit)
	c.mu.Unlock()
	if !ok {
		return
	}

	sub.Snapshot.SessionID = c.cfg.SessionID
	out, err := c.coordinator.Submit(c.ctx, sub.Payload, sub.Snapshot)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		_, _ = c.complete(submitFailed{err: err})
		return
	}
	_, _ = c.complete(submitSucceeded{})
	c.outcome = &out
	c.logger.Info("wizard completed", "report", out.Report != nil)
	if c.cfg.OnComplete != nil {
		c.cfg.OnComplete(out)
	}
	c.once.Do(func() { close(c.done) })
	c.cancel()
}

package onboarding

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu        sync.Mutex
	steps     []Step
	completed []Outcome
}

func (r *recorder) onChange(s State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, s.Step())
}

func (r *recorder) onComplete(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, o)
}

func (r *recorder) completions() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.completed)
}

func newTestController(t *testing.T, f *fakeBackend, j *memJournal) (*Controller, *recorder) {
	t.Helper()
	coord := NewSubmissionCoordinator(f, f, nil)
	if j != nil {
		coord.WithJournal(j, "user-1")
	}
	rec := &recorder{}
	c := NewController(f, coord, ControllerConfig{
		SessionID:     "session-1",
		Limits:        DefaultLimits(),
		AnalysisDelay: time.Millisecond,
		OnChange:      rec.onChange,
		OnComplete:    rec.onComplete,
	})
	t.Cleanup(c.Close)
	return c, rec
}

func dispatchAll(t *testing.T, c *Controller, events ...Event) State {
	t.Helper()
	var (
		s   State
		err error
	)
	for _, ev := range events {
		s, err = c.Dispatch(context.Background(), ev)
		require.NoError(t, err, "dispatch %T", ev)
	}
	return s
}

// toTheme drives a controller from Welcome to Theme with a few selections.
func toTheme(t *testing.T, c *Controller) State {
	t.Helper()
	return dispatchAll(t, c,
		Next{},
		Toggle{Category: CategoryGenre, ID: "fantasy"},
		Toggle{Category: CategoryGenre, ID: "mystery"},
		Next{},
		Toggle{Category: CategoryBook, ID: "fantasy-3"},
		Next{},
		Next{},
		Toggle{Category: CategoryPurpose, ID: "learning"},
		Next{},
		Pick{Field: FieldLength, Value: "medium"},
		Next{},
		Toggle{Category: CategoryEmotion, ID: "wonder"},
		Next{},
		Toggle{Category: CategoryTheme, ID: "identity"},
	)
}

func waitDone(t *testing.T, c *Controller) {
	t.Helper()
	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("controller did not finish")
	}
}

func TestController_HappyPath(t *testing.T) {
	f := newFakeBackend()
	j := &memJournal{}
	c, rec := newTestController(t, f, j)

	s := toTheme(t, c)
	require.Equal(t, StepTheme, s.Step())

	s = dispatchAll(t, c, Next{})
	assert.Equal(t, StepAnalyzing, s.Step())
	waitDone(t, c)

	final := c.State()
	assert.True(t, final.Completed())
	assert.Equal(t, StepSubmitting, final.Step())

	out, ok := c.Outcome()
	require.True(t, ok)
	require.NotNil(t, out.Report)
	assert.Equal(t, "report-1", out.Report.ID)
	assert.Equal(t, []string{"fantasy", "mystery"}, out.Payload.Genres)
	assert.Equal(t, []string{"fantasy-3"}, out.Payload.SelectedBooks)

	assert.Equal(t, 1, f.savedCount())
	require.Equal(t, 1, f.reportCount())
	assert.Equal(t, "session-1", f.reports[0].SessionID)
	assert.False(t, f.reports[0].CompletedAt.IsZero())
	assert.Equal(t, 1, rec.completions(), "exactly one success event")

	require.Len(t, j.subs, 1)
	assert.Equal(t, "user-1", j.subs[0].UserID)
	assert.Equal(t, "report-1", j.reports["sub-1"].ID)

	_, err := c.Dispatch(context.Background(), Next{})
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestController_ReportFailureStillSucceeds(t *testing.T) {
	f := newFakeBackend()
	f.reportErr = errBackendDown
	c, rec := newTestController(t, f, nil)

	toTheme(t, c)
	dispatchAll(t, c, Next{})
	waitDone(t, c)

	assert.True(t, c.State().Completed())
	out, ok := c.Outcome()
	require.True(t, ok)
	assert.Nil(t, out.Report)
	var rge *ReportGenerationError
	assert.ErrorAs(t, out.ReportErr, &rge)
	assert.Equal(t, 1, f.savedCount())
	assert.Equal(t, 1, rec.completions())
}

func TestController_SaveFailureReturnsToTheme(t *testing.T) {
	f := newFakeBackend()
	f.saveErr = errBackendDown
	c, rec := newTestController(t, f, nil)

	before := toTheme(t, c)
	dispatchAll(t, c, Next{})

	require.Eventually(t, func() bool {
		s := c.State()
		return s.Step() == StepTheme && !s.Busy()
	}, 5*time.Second, 5*time.Millisecond)

	s := c.State()
	assert.False(t, s.Completed())
	assert.Contains(t, s.LastError(), "backend down")
	assert.Equal(t, before.Selections(), s.Selections())
	assert.Equal(t, 0, f.reportCount(), "no report without a saved payload")
	assert.Equal(t, 0, rec.completions())

	// Retrying after the backend recovers completes normally.
	f.set(func(f *fakeBackend) { f.saveErr = nil })
	dispatchAll(t, c, Next{})
	waitDone(t, c)
	assert.True(t, c.State().Completed())
}

func TestController_GenreFetchFailureThenReload(t *testing.T) {
	f := newFakeBackend()
	f.genresErr = errBackendDown
	c, _ := newTestController(t, f, nil)

	s, err := c.Dispatch(context.Background(), Next{})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StepGenre, s.Step())
	assert.False(t, s.CatalogLoaded())

	f.set(func(f *fakeBackend) { f.genresErr = nil })
	s = dispatchAll(t, c, Reload{})
	assert.True(t, s.CatalogLoaded())
	assert.Len(t, s.Catalog(), 3)
}

func TestController_IndexedGenresNotRefetched(t *testing.T) {
	f := newFakeBackend()
	f.booksErr["mystery"] = errBackendDown
	c, _ := newTestController(t, f, nil)

	dispatchAll(t, c, Next{}, Toggle{Category: CategoryGenre, ID: "fantasy"}, Toggle{Category: CategoryGenre, ID: "mystery"})
	s, err := c.Dispatch(context.Background(), Next{})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StepGenre, s.Step(), "a single failure aborts the transition")

	f.set(func(f *fakeBackend) { delete(f.booksErr, "mystery") })
	s = dispatchAll(t, c, Next{})
	assert.Equal(t, StepBooks, s.Step())

	s = dispatchAll(t, c, Back{}, Next{})
	assert.Equal(t, StepBooks, s.Step())

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, 2, f.bookCalls["fantasy"])
	assert.Equal(t, 2, f.bookCalls["mystery"])
}

func TestController_BusyWhileFetching(t *testing.T) {
	f := newFakeBackend()
	f.block = make(chan struct{})
	c, _ := newTestController(t, f, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Dispatch(context.Background(), Next{})
		errc <- err
	}()

	require.Eventually(t, func() bool { return c.State().Busy() }, time.Second, time.Millisecond)
	_, err := c.Dispatch(context.Background(), Toggle{Category: CategoryGenre, ID: "fantasy"})
	assert.ErrorIs(t, err, ErrBusy)

	close(f.block)
	require.NoError(t, <-errc)
	assert.True(t, c.State().CatalogLoaded())
}

func TestController_CloseMidFetchDiscardsResult(t *testing.T) {
	f := newFakeBackend()
	f.block = make(chan struct{})
	c, rec := newTestController(t, f, nil)

	errc := make(chan error, 1)
	go func() {
		_, err := c.Dispatch(context.Background(), Next{})
		errc <- err
	}()
	require.Eventually(t, func() bool { return c.State().Busy() }, time.Second, time.Millisecond)

	c.Close()
	assert.ErrorIs(t, <-errc, ErrClosed)

	s := c.State()
	assert.False(t, s.CatalogLoaded(), "completion after close must not mutate state")
	assert.Equal(t, PendingGenres, s.Pending())

	_, err := c.Dispatch(context.Background(), Back{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, rec.completions())
	close(f.block)
}

func TestController_CloseDuringAnalysis(t *testing.T) {
	f := newFakeBackend()
	coord := NewSubmissionCoordinator(f, f, nil)
	c := NewController(f, coord, ControllerConfig{AnalysisDelay: time.Hour})

	toTheme(t, c)
	dispatchAll(t, c, Next{})
	c.Close()

	waitDone(t, c)
	assert.Equal(t, 0, f.savedCount())
	_, ok := c.Outcome()
	assert.False(t, ok)
}

func TestController_ZeroDelaySubmitsImmediately(t *testing.T) {
	f := newFakeBackend()
	coord := NewSubmissionCoordinator(f, f, nil)
	c := NewController(f, coord, ControllerConfig{SessionID: "session-0"})
	t.Cleanup(c.Close)

	toTheme(t, c)
	dispatchAll(t, c, Next{})
	waitDone(t, c)

	assert.Equal(t, 1, f.savedCount())
	_, ok := c.Outcome()
	assert.True(t, ok)
}

func TestController_BackFromGenreExits(t *testing.T) {
	f := newFakeBackend()
	c, rec := newTestController(t, f, nil)

	dispatchAll(t, c, Next{}, Back{})
	waitDone(t, c)

	assert.True(t, c.Exited())
	assert.Equal(t, 0, f.savedCount())
	assert.Equal(t, 0, rec.completions(), "nothing is emitted on abandonment")
}

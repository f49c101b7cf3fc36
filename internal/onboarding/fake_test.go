package onboarding

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var errBackendDown = errors.New("backend down")

// fakeBackend is an in-memory collaborator with failure switches.
type fakeBackend struct {
	mu sync.Mutex

	genres []Genre
	books  map[string][]BookSummary

	genresErr error
	booksErr  map[string]error
	saveErr   error
	reportErr error

	// block, when set, parks every fetch until it is closed or the call is cancelled.
	block chan struct{}

	genreCalls int
	bookCalls  map[string]int
	saved      []PreferencePayload
	reports    []ReportSnapshot
}

func newFakeBackend() *fakeBackend {
	f := &fakeBackend{
		genres: []Genre{
			{ID: "fantasy", Name: "Fantasy"},
			{ID: "mystery", Name: "Mystery"},
			{ID: "sci-fi", Name: "Science Fiction"},
		},
		books:     make(map[string][]BookSummary),
		booksErr:  make(map[string]error),
		bookCalls: make(map[string]int),
	}
	for _, g := range f.genres {
		for i := 1; i <= 3; i++ {
			f.books[g.ID] = append(f.books[g.ID], BookSummary{
				ID:     fmt.Sprintf("%s-%d", g.ID, i),
				Title:  fmt.Sprintf("%s book %d", g.Name, i),
				Author: "Author",
			})
		}
	}
	// A book shared across genres.
	f.books["mystery"] = append(f.books["mystery"], BookSummary{ID: "fantasy-1", Title: "Crossover"})
	return f
}

func (f *fakeBackend) wait(ctx context.Context) error {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block == nil {
		return nil
	}
	select {
	case <-block:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeBackend) FetchGenreCatalog(ctx context.Context) ([]Genre, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.genreCalls++
	if f.genresErr != nil {
		return nil, f.genresErr
	}
	out := make([]Genre, len(f.genres))
	copy(out, f.genres)
	return out, nil
}

func (f *fakeBackend) FetchBooksForGenre(ctx context.Context, genreID string, limit int) ([]BookSummary, error) {
	if err := f.wait(ctx); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls[genreID]++
	if err := f.booksErr[genreID]; err != nil {
		return nil, err
	}
	books := f.books[genreID]
	if limit > 0 && len(books) > limit {
		books = books[:limit]
	}
	out := make([]BookSummary, len(books))
	copy(out, books)
	return out, nil
}

func (f *fakeBackend) SavePreferences(_ context.Context, payload PreferencePayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, payload)
	return nil
}

func (f *fakeBackend) GenerateReport(_ context.Context, snapshot ReportSnapshot) (ReportHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return ReportHandle{}, f.reportErr
	}
	f.reports = append(f.reports, snapshot)
	return ReportHandle{ID: fmt.Sprintf("report-%d", len(f.reports)), Status: "ready"}, nil
}

func (f *fakeBackend) set(fn func(f *fakeBackend)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeBackend) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}

func (f *fakeBackend) reportCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reports)
}

// memJournal is an in-memory Journal.
type memJournal struct {
	mu      sync.Mutex
	subs    []Submission
	reports map[string]ReportHandle
}

func (j *memJournal) RecordSubmission(_ context.Context, sub Submission) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.subs = append(j.subs, sub)
	return fmt.Sprintf("sub-%d", len(j.subs)), nil
}

func (j *memJournal) MarkReport(_ context.Context, id string, report ReportHandle) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.reports == nil {
		j.reports = make(map[string]ReportHandle)
	}
	j.reports[id] = report
	return nil
}

// reduceAll applies events in order and fails on the first error.
func reduceAll(t *testing.T, s State, events ...Event) State {
	t.Helper()
	for _, ev := range events {
		next, _, err := Reduce(s, ev)
		if err != nil {
			t.Fatalf("reduce %T: %v", ev, err)
		}
		s = next
	}
	return s
}

// atGenre returns a state on Genre with the fake catalog loaded.
func atGenre(t *testing.T, f *fakeBackend) State {
	t.Helper()
	return reduceAll(t, NewState(DefaultLimits()), Next{}, genresLoaded{genres: f.genres})
}

// atBooks returns a state on Books with the given genres selected and fetched.
func atBooks(t *testing.T, f *fakeBackend, genres ...string) State {
	t.Helper()
	s := atGenre(t, f)
	for _, g := range genres {
		s = reduceAll(t, s, Toggle{Category: CategoryGenre, ID: g})
	}
	s = reduceAll(t, s, Next{})
	books := make(map[string][]BookSummary, len(genres))
	for _, g := range genres {
		books[g] = f.books[g]
	}
	return reduceAll(t, s, booksLoaded{books: books})
}

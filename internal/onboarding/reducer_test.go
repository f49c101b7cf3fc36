package onboarding

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReduce_DoesNotMutateInput(t *testing.T) {
	f := newFakeBackend()
	s := atBooks(t, f, "fantasy", "mystery")
	before := s.Clone()

	_, _, err := Reduce(s, Toggle{Category: CategoryBook, ID: "fantasy-1"})
	require.NoError(t, err)
	_, _, err = Reduce(s, Next{})
	require.NoError(t, err)
	_, _, err = Reduce(s, Back{})
	require.NoError(t, err)

	assert.Equal(t, before.Step(), s.Step())
	assert.Equal(t, before.SelectedBooksFor("fantasy"), s.SelectedBooksFor("fantasy"))
	idx, _, _ := s.Cursor()
	assert.Equal(t, 0, idx)
}

func TestReduce_WelcomeEntersGenreAndFetchesCatalog(t *testing.T) {
	s, eff, err := Reduce(NewState(DefaultLimits()), Next{})
	require.NoError(t, err)

	assert.Equal(t, StepGenre, s.Step())
	assert.Equal(t, FetchGenres{}, eff)
	assert.True(t, s.Busy())

	_, _, err = Reduce(s, Next{})
	assert.ErrorIs(t, err, ErrBusy, "forward navigation is disabled while the catalog loads")
}

func TestReduce_GenreFetchFailureStaysAndReloads(t *testing.T) {
	s := reduceAll(t, NewState(DefaultLimits()), Next{})

	s, _, err := Reduce(s, genresFailed{err: errBackendDown})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, errBackendDown)
	assert.Equal(t, StepGenre, s.Step())
	assert.False(t, s.Busy())
	assert.NotEmpty(t, s.LastError())

	s, eff, err := Reduce(s, Reload{})
	require.NoError(t, err)
	assert.Equal(t, FetchGenres{}, eff)
	assert.Empty(t, s.LastError())
}

func TestReduce_MinGenreGuard(t *testing.T) {
	s := atGenre(t, newFakeBackend())

	next, eff, err := Reduce(s, Next{})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ReasonMinGenre, ve.Reason)
	assert.Nil(t, eff)
	assert.Equal(t, StepGenre, next.Step())
}

func TestReduce_GenreToBooksFetchesMissingOnly(t *testing.T) {
	f := newFakeBackend()
	s := atBooks(t, f, "fantasy")

	// Back to Genre, add a second genre, go forward again.
	s = reduceAll(t, s, Back{}, Toggle{Category: CategoryGenre, ID: "sci-fi"})
	require.Equal(t, StepGenre, s.Step())

	s, eff, err := Reduce(s, Next{})
	require.NoError(t, err)
	assert.Equal(t, FetchBooks{GenreIDs: []string{"sci-fi"}, Limit: DefaultLimits().BooksPerGenre}, eff)
	assert.Equal(t, StepGenre, s.Step(), "Books commits only after fetches resolve")

	s = reduceAll(t, s, booksLoaded{books: map[string][]BookSummary{"sci-fi": f.books["sci-fi"]}})
	assert.Equal(t, StepBooks, s.Step())
	assert.Equal(t, []string{"fantasy", "sci-fi"}, s.IndexedGenres())

	// With everything indexed the transition commits directly.
	s = reduceAll(t, s, Back{})
	s, eff, err = Reduce(s, Next{})
	require.NoError(t, err)
	assert.Nil(t, eff)
	assert.Equal(t, StepBooks, s.Step())
}

func TestReduce_BooksFetchFailureAbortsTransition(t *testing.T) {
	s := atGenre(t, newFakeBackend())
	s = reduceAll(t, s, Toggle{Category: CategoryGenre, ID: "fantasy"}, Next{})

	s, _, err := Reduce(s, booksFailed{err: errBackendDown})
	var fe *FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, StepGenre, s.Step())
	assert.Empty(t, s.IndexedGenres())

	_, eff, err := Reduce(s, Next{})
	require.NoError(t, err)
	assert.IsType(t, FetchBooks{}, eff, "the same transition may be retried")
}

func TestReduce_BooksCursorWalk(t *testing.T) {
	s := atBooks(t, newFakeBackend(), "sci-fi", "fantasy", "mystery")

	// Cursor order follows the catalog.
	g, ok := s.CurrentGenre()
	require.True(t, ok)
	assert.Equal(t, "fantasy", g)

	s = reduceAll(t, s, Next{}, Next{})
	g, _ = s.CurrentGenre()
	assert.Equal(t, "sci-fi", g)
	assert.Equal(t, StepBooks, s.Step())

	s = reduceAll(t, s, Next{})
	assert.Equal(t, StepPurpose, s.Step())

	// Back from Purpose lands on the last genre.
	s = reduceAll(t, s, Back{})
	idx, n, ok := s.Cursor()
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, 3, n)

	s = reduceAll(t, s, Back{}, Back{}, Back{})
	assert.Equal(t, StepGenre, s.Step())
}

func TestReduce_BackEdgesPreserveSelections(t *testing.T) {
	s := atBooks(t, newFakeBackend(), "fantasy")
	s = reduceAll(t, s,
		Toggle{Category: CategoryBook, ID: "fantasy-2"},
		Next{},
		Toggle{Category: CategoryPurpose, ID: "leisure"},
		Next{},
		Pick{Field: FieldPace, Value: "slow"},
		Toggle{Category: CategoryNarrativeStyle, ID: "literary"},
		Next{},
		Toggle{Category: CategoryMood, ID: "cozy"},
		Next{},
		Toggle{Category: CategoryTheme, ID: "love"},
	)
	require.Equal(t, StepTheme, s.Step())
	want := s.Selections()

	s = reduceAll(t, s, Back{}, Back{}, Back{}, Back{}, Back{})
	require.Equal(t, StepGenre, s.Step())

	if diff := cmp.Diff(want, s.Selections()); diff != "" {
		t.Errorf("selections changed walking back (-want +got):\n%s", diff)
	}
}

func TestReduce_ProgressIgnoresCursor(t *testing.T) {
	tests := []struct {
		step Step
		want float64
	}{
		{StepWelcome, 0},
		{StepGenre, 100.0 / 7},
		{StepTheme, 600.0 / 7},
		{StepAnalyzing, 100},
		{StepSubmitting, 100},
	}
	for _, tt := range tests {
		t.Run(tt.step.String(), func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.step.Progress(), 1e-9)
		})
	}

	s := atBooks(t, newFakeBackend(), "fantasy", "mystery")
	before := s.Progress()
	s = reduceAll(t, s, Next{})
	assert.Equal(t, StepBooks, s.Step())
	assert.InDelta(t, before, s.Progress(), 1e-9)
}

func TestReduce_DeselectPrunesIndexAndBooks(t *testing.T) {
	s := atBooks(t, newFakeBackend(), "fantasy", "mystery")
	s = reduceAll(t, s, Toggle{Category: CategoryBook, ID: "fantasy-1"}, Back{})
	require.Equal(t, StepGenre, s.Step())

	s = reduceAll(t, s, Toggle{Category: CategoryGenre, ID: "fantasy"})

	assert.Equal(t, []string{"mystery"}, s.IndexedGenres())
	assert.Empty(t, s.SelectedBooksFor("fantasy"))
	assert.Empty(t, s.Selected(CategoryBook))
}

func TestReduce_ReloadPrunesVanishedGenres(t *testing.T) {
	f := newFakeBackend()
	s := atGenre(t, f)
	s = reduceAll(t, s,
		Toggle{Category: CategoryGenre, ID: "fantasy"},
		Toggle{Category: CategoryGenre, ID: "mystery"},
		Reload{},
		genresLoaded{genres: []Genre{{ID: "mystery", Name: "Mystery"}}},
	)

	assert.Equal(t, []string{"mystery"}, s.Selected(CategoryGenre))
	assert.Len(t, s.Catalog(), 1)
}

func TestReduce_UnknownOptionsRejected(t *testing.T) {
	f := newFakeBackend()

	tests := []struct {
		name  string
		state State
		ev    Event
	}{
		{"genre outside catalog", atGenre(t, f), Toggle{Category: CategoryGenre, ID: "poetry"}},
		{"book outside current genre", atBooks(t, f, "fantasy"), Toggle{Category: CategoryBook, ID: "mystery-1"}},
		{"purpose outside catalog", reduceAll(t, atBooks(t, f, "fantasy"), Next{}), Toggle{Category: CategoryPurpose, ID: "fame"}},
		{"length outside catalog", reduceAll(t, atBooks(t, f, "fantasy"), Next{}, Next{}), Pick{Field: FieldLength, Value: "epic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Reduce(tt.state, tt.ev)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, ReasonUnknownOption, ve.Reason)
		})
	}
}

func TestReduce_ToggleOnWrongStep(t *testing.T) {
	s := atGenre(t, newFakeBackend())

	_, _, err := Reduce(s, Toggle{Category: CategoryMood, ID: "cozy"})
	assert.ErrorIs(t, err, ErrEventNotAllowed)

	_, _, err = Reduce(s, Pick{Field: FieldPace, Value: "slow"})
	assert.ErrorIs(t, err, ErrEventNotAllowed)
}

func TestReduce_PurposeCap(t *testing.T) {
	s := reduceAll(t, atBooks(t, newFakeBackend(), "fantasy"), Next{})
	for _, id := range []string{"leisure", "learning", "career", "escape"} {
		s = reduceAll(t, s, Toggle{Category: CategoryPurpose, ID: id})
	}
	assert.Equal(t, []string{"career", "learning", "leisure"}, s.Selected(CategoryPurpose))
}

func TestReduce_FourthPurposeIsNoOp(t *testing.T) {
	s := reduceAll(t, atBooks(t, newFakeBackend(), "fantasy"), Next{},
		Toggle{Category: CategoryPurpose, ID: "leisure"},
		Toggle{Category: CategoryPurpose, ID: "learning"},
		Toggle{Category: CategoryPurpose, ID: "self-development"},
	)
	require.Equal(t, []string{"learning", "leisure", "self-development"}, s.Selected(CategoryPurpose))

	next, eff, err := Reduce(s, Toggle{Category: CategoryPurpose, ID: "career"})
	require.NoError(t, err)
	assert.Nil(t, eff)
	assert.Equal(t, []string{"learning", "leisure", "self-development"}, next.Selected(CategoryPurpose))
	assert.Equal(t, StepPurpose, next.Step())
}

func TestReduce_PickReplacesAndClears(t *testing.T) {
	s := reduceAll(t, atBooks(t, newFakeBackend(), "fantasy"), Next{}, Next{})
	require.Equal(t, StepStyle, s.Step())

	s = reduceAll(t, s, Pick{Field: FieldDifficulty, Value: "easy"}, Pick{Field: FieldDifficulty, Value: "challenging"})
	assert.Equal(t, "challenging", s.Choice(FieldDifficulty).String())

	s = reduceAll(t, s, Pick{Field: FieldDifficulty})
	assert.False(t, s.Choice(FieldDifficulty).IsSet())
}

func TestReduce_BackFromGenreRequestsExit(t *testing.T) {
	for _, s := range []State{NewState(DefaultLimits()), atGenre(t, newFakeBackend())} {
		next, eff, err := Reduce(s, Back{})
		require.NoError(t, err)
		assert.Equal(t, Exit{}, eff)
		assert.Equal(t, s.Step(), next.Step())
	}
}

func TestReduce_SubmissionFlow(t *testing.T) {
	s := atBooks(t, newFakeBackend(), "fantasy", "mystery")
	s = reduceAll(t, s,
		Toggle{Category: CategoryBook, ID: "fantasy-1"},
		Next{},
		Toggle{Category: CategoryBook, ID: "fantasy-1"},
		Toggle{Category: CategoryBook, ID: "mystery-2"},
		Next{}, Next{}, Next{}, Next{},
	)
	require.Equal(t, StepTheme, s.Step())

	s, eff, err := Reduce(s, Next{})
	require.NoError(t, err)
	assert.Equal(t, StartAnalysis{}, eff)
	assert.Equal(t, StepAnalyzing, s.Step())

	_, _, err = Reduce(s, Back{})
	assert.ErrorIs(t, err, ErrBusy)

	s, eff, err = Reduce(s, analysisElapsed{})
	require.NoError(t, err)
	assert.Equal(t, StepSubmitting, s.Step())
	sub, ok := eff.(Submit)
	require.True(t, ok)
	assert.Equal(t, []string{"fantasy-1", "mystery-2"}, sub.Payload.SelectedBooks)
	assert.Equal(t, map[string][]string{"fantasy": {"fantasy-1"}, "mystery": {"fantasy-1", "mystery-2"}}, sub.Snapshot.BooksByGenre)
	assert.Equal(t, "Fantasy", sub.Snapshot.GenreNames["fantasy"])

	done := reduceAll(t, s, submitSucceeded{})
	assert.True(t, done.Completed())
	_, _, err = Reduce(done, Next{})
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestReduce_SaveFailureReturnsToTheme(t *testing.T) {
	s := atBooks(t, newFakeBackend(), "fantasy")
	s = reduceAll(t, s, Next{}, Toggle{Category: CategoryPurpose, ID: "habit"}, Next{}, Next{}, Next{}, Next{}, analysisElapsed{})
	require.Equal(t, StepSubmitting, s.Step())
	want := s.Selections()

	saveErr := &SaveError{Err: errBackendDown}
	s, _, err := Reduce(s, submitFailed{err: saveErr})

	assert.True(t, errors.Is(err, errBackendDown))
	assert.Equal(t, StepTheme, s.Step())
	assert.False(t, s.Busy())
	assert.Contains(t, s.LastError(), "backend down")
	if diff := cmp.Diff(want, s.Selections()); diff != "" {
		t.Errorf("selections lost on save failure (-want +got):\n%s", diff)
	}
}

func TestReduce_StaleCompletionsIgnored(t *testing.T) {
	s := atGenre(t, newFakeBackend())

	next, eff, err := Reduce(s, booksLoaded{books: map[string][]BookSummary{"fantasy": nil}})
	require.NoError(t, err)
	assert.Nil(t, eff)
	assert.Empty(t, next.IndexedGenres())
}

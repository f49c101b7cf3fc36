package onboarding

import (
	"fmt"
	"slices"
)

// Reduce applies ev to state and returns the state to adopt, the effect the
// caller must run (nil for none), and the error to surface. state itself is
// never modified. On a rejected user event the returned state equals the
// input.
func Reduce(state State, ev Event) (State, Effect, error) {
	s := state.Clone()

	switch ev.(type) {
	case Next, Back, Reload, Toggle, Pick:
		if s.done {
			return s, nil, ErrCompleted
		}
		if s.Busy() {
			return s, nil, ErrBusy
		}
	}

	switch ev := ev.(type) {
	case Next:
		return s.next()
	case Back:
		return s.back()
	case Reload:
		if s.step != StepGenre {
			return s, nil, ErrEventNotAllowed
		}
		s.pending = PendingGenres
		s.lastErr = ""
		return s, FetchGenres{}, nil
	case Toggle:
		return s.toggle(ev)
	case Pick:
		return s.pick(ev)

	case genresLoaded:
		if s.pending != PendingGenres {
			return s, nil, nil
		}
		s.pending = PendingNone
		s.catalog = slices.Clone(ev.genres)
		s.catalogLoaded = true
		for _, id := range s.genres.Values() {
			if !s.inCatalog(id) {
				s.dropGenre(id)
			}
		}
		return s, nil, nil
	case genresFailed:
		if s.pending != PendingGenres {
			return s, nil, nil
		}
		s.pending = PendingNone
		s.lastErr = ev.err.Error()
		return s, nil, &FetchError{Op: "genres", Err: ev.err}

	case booksLoaded:
		if s.pending != PendingBooks {
			return s, nil, nil
		}
		s.pending = PendingNone
		for g, list := range ev.books {
			if s.genres.Contains(g) {
				s.index[g] = slices.Clone(list)
			}
		}
		return s.enterBooks()
	case booksFailed:
		if s.pending != PendingBooks {
			return s, nil, nil
		}
		s.pending = PendingNone
		s.lastErr = ev.err.Error()
		return s, nil, &FetchError{Op: "books", Err: ev.err}

	case analysisElapsed:
		if s.step != StepAnalyzing || s.pending != PendingAnalysis {
			return s, nil, nil
		}
		s.step = StepSubmitting
		s.pending = PendingSubmit
		payload := Aggregate(s.Selections())
		return s, Submit{
			Payload: payload,
			Snapshot: ReportSnapshot{
				PreferencePayload: payload,
				BooksByGenre:      s.selectedBooks(),
				GenreNames:        s.genreNames(),
			},
		}, nil
	case submitSucceeded:
		if s.pending != PendingSubmit {
			return s, nil, nil
		}
		s.pending = PendingNone
		s.done = true
		s.lastErr = ""
		return s, nil, nil
	case submitFailed:
		if s.pending != PendingSubmit {
			return s, nil, nil
		}
		s.pending = PendingNone
		s.step = StepTheme
		s.lastErr = ev.err.Error()
		return s, nil, ev.err
	}

	return s, nil, fmt.Errorf("onboarding: unknown event %T", ev)
}

func (s State) next() (State, Effect, error) {
	switch s.step {
	case StepWelcome:
		s.step = StepGenre
		s.lastErr = ""
		if s.catalogLoaded {
			return s, nil, nil
		}
		s.pending = PendingGenres
		return s, FetchGenres{}, nil

	case StepGenre:
		if s.genres.Len() == 0 {
			return s, nil, validationErr(ReasonMinGenre, "select at least one genre")
		}
		s.lastErr = ""
		var missing []string
		for _, g := range s.orderedGenres() {
			if _, ok := s.index[g]; !ok {
				missing = append(missing, g)
			}
		}
		if len(missing) == 0 {
			return s.enterBooks()
		}
		s.pending = PendingBooks
		return s, FetchBooks{GenreIDs: missing, Limit: s.limits.BooksPerGenre}, nil

	case StepBooks:
		if s.cursor.Advance() {
			s.step = StepPurpose
		}
		return s, nil, nil

	case StepPurpose, StepStyle, StepMood:
		s.step++
		return s, nil, nil

	case StepTheme:
		s.step = StepAnalyzing
		s.pending = PendingAnalysis
		s.lastErr = ""
		return s, StartAnalysis{}, nil
	}
	return s, nil, ErrEventNotAllowed
}

func (s State) back() (State, Effect, error) {
	switch s.step {
	case StepWelcome, StepGenre:
		return s, Exit{}, nil

	case StepBooks:
		if s.cursor.Retreat() {
			s.step = StepGenre
		}
		return s, nil, nil

	case StepPurpose:
		ordered := s.orderedGenres()
		if s.cursor == nil {
			c, err := NewGenreBookCursor(ordered)
			if err != nil {
				return s, nil, err
			}
			s.cursor = c
		}
		s.cursor.Clamp(ordered)
		s.cursor.Last()
		s.step = StepBooks
		return s, nil, nil

	case StepStyle, StepMood, StepTheme:
		s.step--
		return s, nil, nil
	}
	return s, nil, ErrEventNotAllowed
}

func (s State) enterBooks() (State, Effect, error) {
	c, err := NewGenreBookCursor(s.orderedGenres())
	if err != nil {
		return s, nil, err
	}
	s.cursor = c
	s.step = StepBooks
	return s, nil, nil
}

func (s State) toggle(t Toggle) (State, Effect, error) {
	if t.Category.Step() != s.step {
		return s, nil, fmt.Errorf("%w: %s on %s", ErrEventNotAllowed, t.Category, s.step)
	}

	switch t.Category {
	case CategoryGenre:
		if !s.catalogLoaded {
			return s, nil, validationErr(ReasonCatalogLoad, "genre catalog is not loaded")
		}
		if !s.inCatalog(t.ID) {
			return s, nil, validationErr(ReasonUnknownOption, "unknown genre %q", t.ID)
		}
		if s.genres.Contains(t.ID) {
			s.dropGenre(t.ID)
			return s, nil, nil
		}
		s.genres.Toggle(t.ID)
		return s, nil, nil

	case CategoryBook:
		genre, err := s.cursor.Current()
		if err != nil {
			return s, nil, err
		}
		if !slices.ContainsFunc(s.index[genre], func(b BookSummary) bool { return b.ID == t.ID }) {
			return s, nil, validationErr(ReasonUnknownOption, "unknown book %q for genre %q", t.ID, genre)
		}
		set, ok := s.books[genre]
		if !ok {
			set = NewSelectionSet(0)
			s.books[genre] = set
		}
		set.Toggle(t.ID)
		return s, nil, nil
	}

	if !hasOption(StaticOptions(t.Category), t.ID) {
		return s, nil, validationErr(ReasonUnknownOption, "unknown %s option %q", t.Category, t.ID)
	}
	s.set(t.Category).Toggle(t.ID)
	return s, nil, nil
}

func (s State) pick(p Pick) (State, Effect, error) {
	if s.step != StepStyle {
		return s, nil, fmt.Errorf("%w: %s on %s", ErrEventNotAllowed, p.Field, s.step)
	}
	opts := FieldOptions(p.Field)
	if opts == nil {
		return s, nil, validationErr(ReasonUnknownOption, "unknown field %q", p.Field)
	}
	if p.Value != "" && !hasOption(opts, p.Value) {
		return s, nil, validationErr(ReasonUnknownOption, "unknown %s option %q", p.Field, p.Value)
	}
	switch p.Field {
	case FieldLength:
		s.length = Choose(p.Value)
	case FieldPace:
		s.pace = Choose(p.Value)
	case FieldDifficulty:
		s.difficulty = Choose(p.Value)
	}
	return s, nil, nil
}

// dropGenre deselects a genre along with its fetched books and book choices.
func (s *State) dropGenre(id string) {
	s.genres.Remove(id)
	delete(s.index, id)
	delete(s.books, id)
	if s.cursor != nil {
		s.cursor.Clamp(s.orderedGenres())
	}
}

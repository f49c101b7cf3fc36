package onboarding

import (
	"encoding/json"
	"maps"
	"slices"
)

// ScalarChoice is a single-valued preference. The zero value is unset.
type ScalarChoice struct {
	value string
	set   bool
}

// Choose returns a choice holding v; the empty string yields unset.
func Choose(v string) ScalarChoice {
	if v == "" {
		return ScalarChoice{}
	}
	return ScalarChoice{value: v, set: true}
}

// Value returns the chosen value and whether one is set.
func (c ScalarChoice) Value() (string, bool) {
	return c.value, c.set
}

// IsSet reports whether a value was chosen.
func (c ScalarChoice) IsSet() bool {
	return c.set
}

// String returns the value, or "" when unset.
func (c ScalarChoice) String() string {
	return c.value
}

// Ptr returns the value as a pointer, nil when unset.
func (c ScalarChoice) Ptr() *string {
	if !c.set {
		return nil
	}
	v := c.value
	return &v
}

// Equal reports whether both choices hold the same value.
func (c ScalarChoice) Equal(other ScalarChoice) bool {
	return c == other
}

// MarshalJSON encodes unset as null.
func (c ScalarChoice) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	return json.Marshal(c.value)
}

// UnmarshalJSON decodes null or a string.
func (c *ScalarChoice) UnmarshalJSON(data []byte) error {
	var v *string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v == nil {
		*c = ScalarChoice{}
		return nil
	}
	*c = Choose(*v)
	return nil
}

// Pending names the request a wizard is waiting on.
type Pending int

// Outstanding request kinds.
const (
	PendingNone Pending = iota
	PendingGenres
	PendingBooks
	PendingAnalysis
	PendingSubmit
)

func (p Pending) String() string {
	switch p {
	case PendingGenres:
		return "genres"
	case PendingBooks:
		return "books"
	case PendingAnalysis:
		return "analysis"
	case PendingSubmit:
		return "submit"
	}
	return ""
}

// Limits bounds a wizard session.
type Limits struct {
	MaxPurposes   int
	BooksPerGenre int
}

// DefaultLimits returns the production limits.
func DefaultLimits() Limits {
	return Limits{MaxPurposes: DefaultMaxPurposes, BooksPerGenre: 12}
}

// State is the complete wizard session state. It is changed only through
// Reduce, which works on a copy.
type State struct {
	step    Step
	limits  Limits
	pending Pending
	lastErr string
	done    bool

	catalog       []Genre
	catalogLoaded bool

	genres *SelectionSet
	index  map[string][]BookSummary
	books  map[string]*SelectionSet
	cursor *GenreBookCursor

	purposes        *SelectionSet
	narrativeStyles *SelectionSet
	moods           *SelectionSet
	emotions        *SelectionSet
	themes          *SelectionSet

	length     ScalarChoice
	pace       ScalarChoice
	difficulty ScalarChoice
}

// NewState returns a wizard at Welcome with every selection empty.
func NewState(limits Limits) State {
	if limits.MaxPurposes <= 0 {
		limits.MaxPurposes = DefaultMaxPurposes
	}
	if limits.BooksPerGenre <= 0 {
		limits.BooksPerGenre = DefaultLimits().BooksPerGenre
	}
	return State{
		step:            StepWelcome,
		limits:          limits,
		genres:          NewSelectionSet(0),
		index:           make(map[string][]BookSummary),
		books:           make(map[string]*SelectionSet),
		purposes:        NewSelectionSet(limits.MaxPurposes),
		narrativeStyles: NewSelectionSet(0),
		moods:           NewSelectionSet(0),
		emotions:        NewSelectionSet(0),
		themes:          NewSelectionSet(0),
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.catalog = slices.Clone(s.catalog)
	c.genres = s.genres.Clone()
	c.index = make(map[string][]BookSummary, len(s.index))
	for k, v := range s.index {
		c.index[k] = slices.Clone(v)
	}
	c.books = make(map[string]*SelectionSet, len(s.books))
	for k, v := range s.books {
		c.books[k] = v.Clone()
	}
	c.cursor = s.cursor.clone()
	c.purposes = s.purposes.Clone()
	c.narrativeStyles = s.narrativeStyles.Clone()
	c.moods = s.moods.Clone()
	c.emotions = s.emotions.Clone()
	c.themes = s.themes.Clone()
	return c
}

// Step returns the current step.
func (s State) Step() Step { return s.step }

// Progress returns the completion percentage of the current step.
func (s State) Progress() float64 { return s.step.Progress() }

// Pending returns the outstanding request, if any.
func (s State) Pending() Pending { return s.pending }

// Busy reports whether user events are currently refused.
func (s State) Busy() bool { return s.pending != PendingNone }

// Completed reports whether the submission succeeded.
func (s State) Completed() bool { return s.done }

// LastError returns the message of the last recoverable failure.
func (s State) LastError() string { return s.lastErr }

// Limits returns the session limits.
func (s State) Limits() Limits { return s.limits }

// CatalogLoaded reports whether the genre catalog was fetched.
func (s State) CatalogLoaded() bool { return s.catalogLoaded }

// Catalog returns the fetched genre catalog in backend order.
func (s State) Catalog() []Genre { return slices.Clone(s.catalog) }

// Selected returns the sorted ids selected in a category. For books it is
// the union across genres.
func (s State) Selected(c Category) []string {
	if c == CategoryBook {
		return unionBooks(s.selectedBooks())
	}
	if set := s.set(c); set != nil {
		return set.Values()
	}
	return nil
}

// Choice returns a scalar preference.
func (s State) Choice(f Field) ScalarChoice {
	switch f {
	case FieldLength:
		return s.length
	case FieldPace:
		return s.pace
	case FieldDifficulty:
		return s.difficulty
	}
	return ScalarChoice{}
}

// BooksFor returns the fetched candidates of a genre.
func (s State) BooksFor(genreID string) []BookSummary {
	return slices.Clone(s.index[genreID])
}

// IndexedGenres returns the genres with fetched books, sorted.
func (s State) IndexedGenres() []string {
	return slices.Sorted(maps.Keys(s.index))
}

// SelectedBooksFor returns the chosen books of a genre, sorted.
func (s State) SelectedBooksFor(genreID string) []string {
	if set, ok := s.books[genreID]; ok {
		return set.Values()
	}
	return []string{}
}

// CurrentGenre returns the genre being browsed on the Books step.
func (s State) CurrentGenre() (string, bool) {
	if s.step != StepBooks || s.cursor == nil {
		return "", false
	}
	g, err := s.cursor.Current()
	return g, err == nil
}

// Cursor returns the cursor position and length on the Books step.
func (s State) Cursor() (index, length int, ok bool) {
	if s.step != StepBooks || s.cursor == nil {
		return 0, 0, false
	}
	return s.cursor.Index(), s.cursor.Len(), true
}

// Selections extracts the aggregator input.
func (s State) Selections() Selections {
	return Selections{
		Genres:          s.genres.Values(),
		SelectedBooks:   s.selectedBooks(),
		Purposes:        s.purposes.Values(),
		Length:          s.length,
		Pace:            s.pace,
		Difficulty:      s.difficulty,
		Moods:           s.moods.Values(),
		Emotions:        s.emotions.Values(),
		NarrativeStyles: s.narrativeStyles.Values(),
		Themes:          s.themes.Values(),
	}
}

func (s State) selectedBooks() map[string][]string {
	out := make(map[string][]string, len(s.books))
	for g, set := range s.books {
		if s.genres.Contains(g) && set.Len() > 0 {
			out[g] = set.Values()
		}
	}
	return out
}

func (s State) set(c Category) *SelectionSet {
	switch c {
	case CategoryGenre:
		return s.genres
	case CategoryPurpose:
		return s.purposes
	case CategoryNarrativeStyle:
		return s.narrativeStyles
	case CategoryMood:
		return s.moods
	case CategoryEmotion:
		return s.emotions
	case CategoryTheme:
		return s.themes
	}
	return nil
}

// orderedGenres returns the selected genres in catalog order.
func (s State) orderedGenres() []string {
	out := make([]string, 0, s.genres.Len())
	seen := make(map[string]bool, s.genres.Len())
	for _, g := range s.catalog {
		if s.genres.Contains(g.ID) && !seen[g.ID] {
			out = append(out, g.ID)
			seen[g.ID] = true
		}
	}
	for _, id := range s.genres.Values() {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}

func (s State) genreNames() map[string]string {
	names := make(map[string]string, s.genres.Len())
	for _, g := range s.catalog {
		if s.genres.Contains(g.ID) {
			names[g.ID] = g.Name
		}
	}
	return names
}

func (s State) inCatalog(id string) bool {
	return slices.ContainsFunc(s.catalog, func(g Genre) bool { return g.ID == id })
}

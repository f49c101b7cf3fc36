package onboarding

// View is the wire projection of a State.
type View struct {
	Step          Step      `json:"step"`
	Ordinal       int       `json:"ordinal"`
	TotalSteps    int       `json:"total_steps"`
	Progress      float64   `json:"progress"`
	Pending       string    `json:"pending,omitempty"`
	Completed     bool      `json:"completed"`
	LastError     string    `json:"last_error,omitempty"`
	MaxPurposes   int       `json:"max_purposes"`
	CatalogLoaded bool      `json:"catalog_loaded"`
	Catalog       []Genre   `json:"catalog"`
	Books         *BookPage `json:"books,omitempty"`

	Selected map[Category][]string   `json:"selected"`
	Choices  map[Field]ScalarChoice `json:"choices"`
}

// BookPage is the genre currently browsed on the Books step.
type BookPage struct {
	GenreID    string        `json:"genre_id"`
	GenreName  string        `json:"genre_name"`
	Index      int           `json:"index"`
	Count      int           `json:"count"`
	Candidates []BookSummary `json:"candidates"`
	Selected   []string      `json:"selected"`
}

// View projects the state for clients.
func (s State) View() View {
	v := View{
		Step:          s.step,
		Ordinal:       s.step.Ordinal(),
		TotalSteps:    TotalSteps,
		Progress:      s.Progress(),
		Pending:       s.pending.String(),
		Completed:     s.done,
		LastError:     s.lastErr,
		MaxPurposes:   s.limits.MaxPurposes,
		CatalogLoaded: s.catalogLoaded,
		Catalog:       s.Catalog(),
		Selected:      make(map[Category][]string, len(Categories)),
		Choices:       make(map[Field]ScalarChoice, len(Fields)),
	}
	if v.Catalog == nil {
		v.Catalog = []Genre{}
	}
	for _, c := range Categories {
		v.Selected[c] = s.Selected(c)
	}
	for _, f := range Fields {
		v.Choices[f] = s.Choice(f)
	}

	if genreID, ok := s.CurrentGenre(); ok {
		index, count, _ := s.Cursor()
		candidates := s.BooksFor(genreID)
		if candidates == nil {
			candidates = []BookSummary{}
		}
		v.Books = &BookPage{
			GenreID:    genreID,
			GenreName:  s.genreNames()[genreID],
			Index:      index,
			Count:      count,
			Candidates: candidates,
			Selected:   s.SelectedBooksFor(genreID),
		}
	}
	return v
}

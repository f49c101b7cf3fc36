package onboarding

// Event is an input to Reduce. User events are exported; completion events
// are produced only by the Controller.
type Event interface{ isEvent() }

// Next asks for the forward transition of the current step.
type Next struct{}

// Back asks for the backward transition of the current step.
type Back struct{}

// Reload refetches the genre catalog on the Genre step.
type Reload struct{}

// Toggle flips one id of a multi-select category.
type Toggle struct {
	Category Category
	ID       string
}

// Pick sets a scalar preference. An empty Value clears it.
type Pick struct {
	Field Field
	Value string
}

type genresLoaded struct{ genres []Genre }

type genresFailed struct{ err error }

type booksLoaded struct{ books map[string][]BookSummary }

type booksFailed struct{ err error }

type analysisElapsed struct{}

type submitSucceeded struct{}

type submitFailed struct{ err error }

func (Next) isEvent()            {}
func (Back) isEvent()            {}
func (Reload) isEvent()          {}
func (Toggle) isEvent()          {}
func (Pick) isEvent()            {}
func (genresLoaded) isEvent()    {}
func (genresFailed) isEvent()    {}
func (booksLoaded) isEvent()     {}
func (booksFailed) isEvent()     {}
func (analysisElapsed) isEvent() {}
func (submitSucceeded) isEvent() {}
func (submitFailed) isEvent()    {}

// Effect is side work Reduce asks the Controller to perform.
type Effect interface{ isEffect() }

// FetchGenres loads the genre catalog.
type FetchGenres struct{}

// FetchBooks loads candidates for each listed genre.
type FetchBooks struct {
	GenreIDs []string
	Limit    int
}

// StartAnalysis begins the cosmetic analysis delay.
type StartAnalysis struct{}

// Submit runs the two-phase submission.
type Submit struct {
	Payload  PreferencePayload
	Snapshot ReportSnapshot
}

// Exit leaves the wizard without submitting.
type Exit struct{}

func (FetchGenres) isEffect()   {}
func (FetchBooks) isEffect()    {}
func (StartAnalysis) isEffect() {}
func (Submit) isEffect()        {}
func (Exit) isEffect()          {}

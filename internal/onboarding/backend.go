package onboarding

import (
	"context"
	"time"
)

// Genre is a catalog genre offered on the Genre step.
type Genre struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon,omitempty"`
	Description string `json:"description,omitempty"`
}

// BookSummary is a candidate book offered for a genre on the Books step.
type BookSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
}

// ReportHandle identifies a generated taste report.
type ReportHandle struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
}

// ReportSnapshot is the report-generation input: the payload plus the raw
// per-category data the server analyses.
type ReportSnapshot struct {
	PreferencePayload
	SessionID    string              `json:"session_id"`
	BooksByGenre map[string][]string `json:"books_by_genre"`
	GenreNames   map[string]string   `json:"genre_names"`
	CompletedAt  time.Time           `json:"completed_at"`
}

// CatalogSource provides the data the wizard loads lazily.
type CatalogSource interface {
	FetchGenreCatalog(ctx context.Context) ([]Genre, error)
	FetchBooksForGenre(ctx context.Context, genreID string, limit int) ([]BookSummary, error)
}

// PreferenceSaver durably stores a finished payload.
type PreferenceSaver interface {
	SavePreferences(ctx context.Context, payload PreferencePayload) error
}

// ReportGenerator requests the taste report.
type ReportGenerator interface {
	GenerateReport(ctx context.Context, snapshot ReportSnapshot) (ReportHandle, error)
}

// Backend is everything the wizard consumes from the REST collaborator.
type Backend interface {
	CatalogSource
	PreferenceSaver
	ReportGenerator
}

package onboarding

import "slices"

// Category names a multi-select facet of the wizard.
type Category string

// Multi-select categories and the step that owns each.
const (
	CategoryGenre          Category = "genres"
	CategoryBook           Category = "books"
	CategoryPurpose        Category = "purposes"
	CategoryNarrativeStyle Category = "narrative_styles"
	CategoryMood           Category = "moods"
	CategoryEmotion        Category = "emotions"
	CategoryTheme          Category = "themes"
)

// Categories lists every multi-select category.
var Categories = []Category{
	CategoryGenre, CategoryBook, CategoryPurpose, CategoryNarrativeStyle,
	CategoryMood, CategoryEmotion, CategoryTheme,
}

// Step returns the step on which the category is edited.
func (c Category) Step() Step {
	switch c {
	case CategoryGenre:
		return StepGenre
	case CategoryBook:
		return StepBooks
	case CategoryPurpose:
		return StepPurpose
	case CategoryNarrativeStyle:
		return StepStyle
	case CategoryMood, CategoryEmotion:
		return StepMood
	case CategoryTheme:
		return StepTheme
	}
	return StepWelcome
}

// Field names a single-valued preference.
type Field string

// Scalar fields, all edited on the Style step.
const (
	FieldLength     Field = "preferred_length"
	FieldPace       Field = "reading_pace"
	FieldDifficulty Field = "preferred_difficulty"
)

// Fields lists every scalar field.
var Fields = []Field{FieldLength, FieldPace, FieldDifficulty}

// Option is one selectable catalog entry.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// DefaultMaxPurposes caps the purpose selection.
const DefaultMaxPurposes = 3

// Static catalogs. Genres and books come from the backend.
var (
	PurposeOptions = []Option{
		{ID: "leisure", Label: "Leisure", Description: "Reading to unwind"},
		{ID: "learning", Label: "Learning", Description: "Picking up new knowledge"},
		{ID: "self-development", Label: "Self-development", Description: "Becoming a better version of yourself"},
		{ID: "career", Label: "Career", Description: "Growing professionally"},
		{ID: "escape", Label: "Escape", Description: "Disappearing into another world"},
		{ID: "inspiration", Label: "Inspiration", Description: "Finding new ideas and motivation"},
		{ID: "social", Label: "Social", Description: "Book clubs and shared reads"},
		{ID: "habit", Label: "Habit", Description: "Building a steady reading routine"},
	}

	LengthOptions = []Option{
		{ID: "short", Label: "Short", Description: "Under 250 pages"},
		{ID: "medium", Label: "Medium", Description: "250 to 450 pages"},
		{ID: "long", Label: "Long", Description: "More than 450 pages"},
	}

	PaceOptions = []Option{
		{ID: "slow", Label: "Slow", Description: "A few pages when I can"},
		{ID: "moderate", Label: "Moderate", Description: "A book every few weeks"},
		{ID: "fast", Label: "Fast", Description: "A book a week or more"},
	}

	DifficultyOptions = []Option{
		{ID: "easy", Label: "Easy"},
		{ID: "moderate", Label: "Moderate"},
		{ID: "challenging", Label: "Challenging"},
	}

	NarrativeStyleOptions = []Option{
		{ID: "character-driven", Label: "Character-driven"},
		{ID: "plot-driven", Label: "Plot-driven"},
		{ID: "literary", Label: "Literary"},
		{ID: "fast-paced", Label: "Fast-paced"},
		{ID: "descriptive", Label: "Descriptive"},
		{ID: "dialogue-heavy", Label: "Dialogue-heavy"},
		{ID: "first-person", Label: "First person"},
		{ID: "multiple-pov", Label: "Multiple points of view"},
	}

	MoodOptions = []Option{
		{ID: "uplifting", Label: "Uplifting"},
		{ID: "dark", Label: "Dark"},
		{ID: "cozy", Label: "Cozy"},
		{ID: "tense", Label: "Tense"},
		{ID: "reflective", Label: "Reflective"},
		{ID: "humorous", Label: "Humorous"},
		{ID: "romantic", Label: "Romantic"},
		{ID: "adventurous", Label: "Adventurous"},
	}

	EmotionOptions = []Option{
		{ID: "hope", Label: "Hope"},
		{ID: "nostalgia", Label: "Nostalgia"},
		{ID: "wonder", Label: "Wonder"},
		{ID: "comfort", Label: "Comfort"},
		{ID: "catharsis", Label: "Catharsis"},
		{ID: "thrill", Label: "Thrill"},
		{ID: "melancholy", Label: "Melancholy"},
		{ID: "joy", Label: "Joy"},
	}

	ThemeOptions = []Option{
		{ID: "growth", Label: "Personal growth"},
		{ID: "family", Label: "Family"},
		{ID: "love", Label: "Love"},
		{ID: "identity", Label: "Identity"},
		{ID: "justice", Label: "Justice"},
		{ID: "survival", Label: "Survival"},
		{ID: "friendship", Label: "Friendship"},
		{ID: "power", Label: "Power"},
		{ID: "nature", Label: "Nature"},
		{ID: "redemption", Label: "Redemption"},
	}
)

// StaticOptions returns the fixed catalog for a category; nil for the
// fetched ones.
func StaticOptions(c Category) []Option {
	switch c {
	case CategoryPurpose:
		return PurposeOptions
	case CategoryNarrativeStyle:
		return NarrativeStyleOptions
	case CategoryMood:
		return MoodOptions
	case CategoryEmotion:
		return EmotionOptions
	case CategoryTheme:
		return ThemeOptions
	}
	return nil
}

// FieldOptions returns the catalog for a scalar field.
func FieldOptions(f Field) []Option {
	switch f {
	case FieldLength:
		return LengthOptions
	case FieldPace:
		return PaceOptions
	case FieldDifficulty:
		return DifficultyOptions
	}
	return nil
}

func hasOption(opts []Option, id string) bool {
	return slices.ContainsFunc(opts, func(o Option) bool { return o.ID == id })
}

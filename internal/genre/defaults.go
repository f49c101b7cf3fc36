package genre

// Seed defines one top-level onboarding genre. The id is the slug of Name
// unless Slug is set.
type Seed struct {
	Name        string
	Slug        string
	Icon        string
	Description string
	// Subgenres flavour the generated candidate books.
	Subgenres []string
}

// ID returns the catalog id of the seed.
func (s Seed) ID() string {
	if s.Slug != "" {
		return s.Slug
	}
	return Slugify(s.Name)
}

// DefaultCatalog is the genre list offered on the Genre step, in display order.
var DefaultCatalog = []Seed{
	{
		Name: "Fantasy", Icon: "🐉",
		Description: "Magic, myth and other worlds",
		Subgenres:   []string{"Epic Fantasy", "Urban Fantasy", "Grimdark", "Sword & Sorcery", "Romantasy"},
	},
	{
		Name: "Science Fiction", Icon: "🚀",
		Description: "Futures, starships and big ideas",
		Subgenres:   []string{"Space Opera", "Cyberpunk", "Hard Sci-Fi", "Time Travel", "Dystopian"},
	},
	{
		Name: "Mystery & Thriller", Slug: "mystery-thriller", Icon: "🔍",
		Description: "Puzzles, crimes and suspense",
		Subgenres:   []string{"Cozy Mystery", "Police Procedural", "Psychological Thriller", "Espionage", "Noir"},
	},
	{
		Name: "Romance", Icon: "💞",
		Description: "Love stories of every kind",
		Subgenres:   []string{"Contemporary Romance", "Historical Romance", "Romantic Comedy", "Romantic Suspense"},
	},
	{
		Name: "Horror", Icon: "🕯️",
		Description: "Dread, the uncanny and the supernatural",
		Subgenres:   []string{"Supernatural Horror", "Cosmic Horror", "Gothic Horror"},
	},
	{
		Name: "Literary Fiction", Icon: "🖋️",
		Description: "Character-rich, language-forward fiction",
		Subgenres:   []string{"Contemporary", "Family Saga", "Coming of Age"},
	},
	{
		Name: "Historical Fiction", Icon: "🏰",
		Description: "Stories set in the past",
		Subgenres:   []string{"Ancient World", "Medieval", "Victorian", "World War"},
	},
	{
		Name: "Adventure", Icon: "🧭",
		Description: "Quests, journeys and daring escapes",
		Subgenres:   []string{"Survival", "Treasure Hunt", "Sea Adventure"},
	},
	{
		Name: "Humor", Icon: "😄",
		Description: "Books that make you laugh",
		Subgenres:   []string{"Satire", "Comic Fiction", "Essays"},
	},
	{
		Name: "Biography & Memoir", Slug: "biography-memoir", Icon: "👤",
		Description: "Real lives, told closely",
		Subgenres:   []string{"Memoir", "Biography", "Autobiography"},
	},
	{
		Name: "Self-Help", Icon: "🌱",
		Description: "Habits, mindset and growth",
		Subgenres:   []string{"Productivity", "Mindfulness", "Relationships", "Mental Health"},
	},
	{
		Name: "Business & Finance", Slug: "business-finance", Icon: "📈",
		Description: "Work, money and leadership",
		Subgenres:   []string{"Entrepreneurship", "Investing", "Leadership", "Marketing"},
	},
	{
		Name: "History", Icon: "📜",
		Description: "How we got here",
		Subgenres:   []string{"Ancient History", "Modern History", "Military History"},
	},
	{
		Name: "Science & Nature", Slug: "science-nature", Icon: "🔭",
		Description: "The universe and everything in it",
		Subgenres:   []string{"Physics", "Biology", "Astronomy", "Environment"},
	},
	{
		Name: "True Crime", Icon: "🗂️",
		Description: "Real cases and investigations",
		Subgenres:   []string{"Cold Cases", "Courtroom", "Investigative Journalism"},
	},
	{
		Name: "Young Adult", Icon: "🎒",
		Description: "Teen protagonists, big feelings",
		Subgenres:   []string{"YA Fantasy", "YA Sci-Fi", "YA Romance", "YA Contemporary"},
	},
}

// Lookup returns the seed with the given catalog id.
func Lookup(id string) (Seed, bool) {
	for _, s := range DefaultCatalog {
		if s.ID() == id {
			return s, true
		}
	}
	return Seed{}, false
}

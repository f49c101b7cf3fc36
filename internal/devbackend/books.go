package devbackend

import (
	"fmt"
	"hash/fnv"

	"github.com/listenupapp/listenup-onboarding/internal/genre"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
)

// MaxBooks caps the generated candidate list for one genre.
const MaxBooks = 24

var (
	adjectives = []string{
		"Silent", "Crimson", "Hidden", "Last", "Broken", "Golden", "Hollow",
		"Distant", "Burning", "Forgotten", "Quiet", "Wild",
	}
	nouns = []string{
		"Kingdom", "Orbit", "Harbor", "Witness", "Garden", "Signal", "Crown",
		"River", "Archive", "Lantern", "Frontier", "Compass",
	}
	firstNames = []string{
		"Ada", "Bram", "Clara", "Dev", "Elena", "Felix", "Greta", "Hiro",
		"Isla", "Jonah", "Kira", "Leo",
	}
	lastNames = []string{
		"Ashford", "Brightwater", "Castell", "Drummond", "Everly", "Fairchild",
		"Grey", "Holloway", "Ivers", "Juniper", "Kestrel", "Lowell",
	}
)

// catalog converts the genre taxonomy into the wire genre list.
func catalog() []onboarding.Genre {
	out := make([]onboarding.Genre, 0, len(genre.DefaultCatalog))
	for _, s := range genre.DefaultCatalog {
		out = append(out, onboarding.Genre{
			ID:          s.ID(),
			Name:        s.Name,
			Icon:        s.Icon,
			Description: s.Description,
		})
	}
	return out
}

// booksFor generates the candidate books of a genre. The same genre and
// limit always produce the same list. Every fourth book is borrowed from
// the next genre in the catalog so cross-genre overlap is exercised.
func booksFor(seed genre.Seed, limit int) []onboarding.BookSummary {
	if limit <= 0 || limit > MaxBooks {
		limit = MaxBooks
	}

	next := neighbour(seed.ID())
	books := make([]onboarding.BookSummary, 0, limit)
	for i := range limit {
		owner := seed
		n := i
		if i%4 == 3 && next.ID() != seed.ID() {
			owner = next
			n = i / 4
		}
		books = append(books, book(owner, n))
	}
	return books
}

func book(owner genre.Seed, n int) onboarding.BookSummary {
	id := fmt.Sprintf("%s-%d", owner.ID(), n+1)
	h := hash(id)
	sub := owner.Subgenres[n%len(owner.Subgenres)]
	return onboarding.BookSummary{
		ID:     id,
		Title:  fmt.Sprintf("The %s %s", pick(adjectives, h), pick(nouns, h>>8)),
		Author: pick(firstNames, h>>16) + " " + pick(lastNames, h>>24),
		CoverImageURL: fmt.Sprintf("https://covers.example.invalid/%s/%s.jpg",
			genre.Slugify(sub), id),
	}
}

func neighbour(id string) genre.Seed {
	for i, s := range genre.DefaultCatalog {
		if s.ID() == id {
			return genre.DefaultCatalog[(i+1)%len(genre.DefaultCatalog)]
		}
	}
	return genre.Seed{}
}

func hash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}

func pick(words []string, h uint32) string {
	return words[int(h&0xff)%len(words)]
}

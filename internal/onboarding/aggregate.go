package onboarding

import (
	"maps"
	"slices"
)

// Selections is everything the wizard collected, as plain values.
type Selections struct {
	Genres          []string
	SelectedBooks   map[string][]string
	Purposes        []string
	Length          ScalarChoice
	Pace            ScalarChoice
	Difficulty      ScalarChoice
	Moods           []string
	Emotions        []string
	NarrativeStyles []string
	Themes          []string
}

// PreferencePayload is the normalized submission body. Sequences are sorted,
// deduplicated and never nil.
type PreferencePayload struct {
	Genres              []string     `json:"genres"`
	SelectedBooks       []string     `json:"selected_books"`
	Purposes            []string     `json:"purposes"`
	PreferredLength     ScalarChoice `json:"preferred_length"`
	ReadingPace         ScalarChoice `json:"reading_pace"`
	PreferredDifficulty ScalarChoice `json:"preferred_difficulty"`
	PreferredMoods      []string     `json:"preferred_moods"`
	PreferredEmotions   []string     `json:"preferred_emotions"`
	NarrativeStyles     []string     `json:"narrative_styles"`
	PreferredThemes     []string     `json:"preferred_themes"`
}

// Aggregate builds the payload. It is deterministic and accepts empty input.
func Aggregate(sel Selections) PreferencePayload {
	return PreferencePayload{
		Genres:              normalize(sel.Genres),
		SelectedBooks:       unionBooks(sel.SelectedBooks),
		Purposes:            normalize(sel.Purposes),
		PreferredLength:     sel.Length,
		ReadingPace:         sel.Pace,
		PreferredDifficulty: sel.Difficulty,
		PreferredMoods:      normalize(sel.Moods),
		PreferredEmotions:   normalize(sel.Emotions),
		NarrativeStyles:     normalize(sel.NarrativeStyles),
		PreferredThemes:     normalize(sel.Themes),
	}
}

// unionBooks flattens per-genre book choices. A book chosen under two genres
// appears once.
func unionBooks(byGenre map[string][]string) []string {
	var all []string
	for _, g := range slices.Sorted(maps.Keys(byGenre)) {
		all = append(all, byGenre[g]...)
	}
	return normalize(all)
}

func normalize(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

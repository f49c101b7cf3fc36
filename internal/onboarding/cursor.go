package onboarding

import "slices"

// GenreBookCursor tracks which selected genre is being browsed on the Books
// step. It only exists paired with the non-empty ordered genre list captured
// when Books was entered.
type GenreBookCursor struct {
	genres []string
	index  int
}

// NewGenreBookCursor positions a cursor on the first of genres.
func NewGenreBookCursor(genres []string) (*GenreBookCursor, error) {
	if len(genres) == 0 {
		return nil, &OutOfRangeError{Index: 0, Len: 0}
	}
	return &GenreBookCursor{genres: slices.Clone(genres)}, nil
}

// Advance moves to the next genre. It reports exhausted when already on the
// last one, leaving the index unchanged.
func (c *GenreBookCursor) Advance() (exhausted bool) {
	if c.index < len(c.genres)-1 {
		c.index++
		return false
	}
	return true
}

// Retreat moves to the previous genre. It reports atStart when already on the
// first one; the index never goes negative.
func (c *GenreBookCursor) Retreat() (atStart bool) {
	if c.index > 0 {
		c.index--
		return false
	}
	return true
}

// Last moves to the final genre.
func (c *GenreBookCursor) Last() {
	if len(c.genres) > 0 {
		c.index = len(c.genres) - 1
	}
}

// Current returns the genre under the cursor.
func (c *GenreBookCursor) Current() (string, error) {
	if c == nil || len(c.genres) == 0 {
		return "", &OutOfRangeError{Index: 0, Len: 0}
	}
	if c.index < 0 || c.index >= len(c.genres) {
		return "", &OutOfRangeError{Index: c.index, Len: len(c.genres)}
	}
	return c.genres[c.index], nil
}

// Index returns the zero-based cursor position.
func (c *GenreBookCursor) Index() int {
	return c.index
}

// Len returns the number of genres being browsed.
func (c *GenreBookCursor) Len() int {
	return len(c.genres)
}

// Genres returns a copy of the ordered genre list.
func (c *GenreBookCursor) Genres() []string {
	return slices.Clone(c.genres)
}

// Clamp replaces the genre list and pulls the index back into range.
func (c *GenreBookCursor) Clamp(genres []string) {
	c.genres = slices.Clone(genres)
	switch {
	case len(c.genres) == 0:
		c.index = 0
	case c.index >= len(c.genres):
		c.index = len(c.genres) - 1
	}
}

func (c *GenreBookCursor) clone() *GenreBookCursor {
	if c == nil {
		return nil
	}
	return &GenreBookCursor{genres: slices.Clone(c.genres), index: c.index}
}

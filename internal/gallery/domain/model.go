package domain

import "time"

// Entry represents a single hosted web project in the gallery.
// It is intentionally storage-agnostic and used across store and HTTP layers.
type Entry struct {
	ID          string    `json:"id" firestore:"-"`
	Title       string    `json:"title" firestore:"title"`
	Description string    `json:"description" firestore:"description"`
	Code        string    `json:"code" firestore:"code"`
	AccentColor string    `json:"accentColor" firestore:"accentColor"`
	OrderIndex  *int      `json:"orderIndex,omitempty" firestore:"orderIndex"`
	AuthorRef   string    `json:"authorRef" firestore:"authorRef"`
	CreatedAt   time.Time `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" firestore:"updatedAt"`
}

// HasOrder reports whether the entry carries an explicit order index.
// Legacy entries written before ordering shipped do not.
func (e Entry) HasOrder() bool {
	return e.OrderIndex != nil
}

// Order returns the entry's order index; only meaningful when HasOrder is true.
func (e Entry) Order() int {
	if e.OrderIndex == nil {
		return 0
	}
	return *e.OrderIndex
}

// Draft carries the author-provided fields for a new entry. The store assigns
// id, createdAt and updatedAt.
type Draft struct {
	Title       string
	Description string
	Code        string
	AccentColor string
	AuthorRef   string
	OrderIndex  int
}

// Patch carries an in-place update to an existing entry. Nil fields are left
// untouched. OrderIndex is deliberately absent: order only changes through
// the ordering engine's bulk commit.
type Patch struct {
	Title       *string
	Description *string
	Code        *string
	AccentColor *string
}

// AccentPalette is the fixed set of accent color keys an entry may carry.
// Unknown or missing values fall back to the first key.
var AccentPalette = []string{"indigo", "teal", "amber", "rose", "slate"}

// DefaultAccent is the palette key applied when none is given.
func DefaultAccent() string {
	return AccentPalette[0]
}

// NormalizeAccent maps an arbitrary value onto the palette.
func NormalizeAccent(v string) string {
	for _, k := range AccentPalette {
		if v == k {
			return k
		}
	}
	return DefaultAccent()
}

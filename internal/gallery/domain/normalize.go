package domain

import (
	"fmt"
	"strings"
	"time"
)

// FromDocument builds an Entry from a raw store document. The store returns
// whatever shape was historically written, so every field is validated or
// defaulted here before it enters the core. Entries without an id or title
// are rejected.
func FromDocument(id string, data map[string]interface{}) (Entry, error) {
	if strings.TrimSpace(id) == "" {
		return Entry{}, fmt.Errorf("%w: missing id", ErrInvalidEntry)
	}

	title := asString(data["title"])
	if strings.TrimSpace(title) == "" {
		return Entry{}, fmt.Errorf("%w: entry %s has no title", ErrInvalidEntry, id)
	}

	e := Entry{
		ID:          id,
		Title:       title,
		Description: asString(data["description"]),
		Code:        asString(data["code"]),
		AccentColor: NormalizeAccent(asString(data["accentColor"])),
		AuthorRef:   asString(data["authorRef"]),
		CreatedAt:   asTime(data["createdAt"]),
		UpdatedAt:   asTime(data["updatedAt"]),
	}

	if idx, ok := asInt(data["orderIndex"]); ok {
		e.OrderIndex = &idx
	}

	return e, nil
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asTime(v interface{}) time.Time {
	t, _ := v.(time.Time)
	return t
}

// asInt tolerates the numeric types different backends deserialize into.
func asInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

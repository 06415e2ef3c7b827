package schema

import (
	"fmt"
	"path"
	"strings"
)

// Category selects the family a schema document belongs to
type Category int

const (
	// CategoryMandate covers business-transaction payloads (common/mandates)
	CategoryMandate Category = iota + 1
	// CategoryEvent covers CloudEvent envelopes (common/events/v1)
	CategoryEvent
)

const (
	schemaSuffix = ".schema.json"

	mandatesDir = "common/mandates"
	eventsDir   = "common/events/v1"
)

// ParseCategory maps a category name to its Category. Both singular and
// plural spellings are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mandate", "mandates":
		return CategoryMandate, nil
	case "event", "events":
		return CategoryEvent, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidSchemaCategory, s)
	}
}

// Valid reports whether c is one of the declared categories
func (c Category) Valid() bool {
	switch c {
	case CategoryMandate, CategoryEvent:
		return true
	}
	return false
}

// String returns the plural category name used in cache keys and logs
func (c Category) String() string {
	switch c {
	case CategoryMandate:
		return "mandates"
	case CategoryEvent:
		return "events"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Dir returns the slash-separated directory, relative to the base path,
// holding schemas of this category.
func (c Category) Dir() (string, error) {
	switch c {
	case CategoryMandate:
		return mandatesDir, nil
	case CategoryEvent:
		return eventsDir, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidSchemaCategory, c)
	}
}

// Identifier uniquely selects one schema document
type Identifier struct {
	Category Category
	Name     string
}

// Mandate returns the identifier of a mandate schema
func Mandate(name string) Identifier {
	return Identifier{Category: CategoryMandate, Name: name}
}

// Event returns the identifier of a CloudEvent schema
func Event(name string) Identifier {
	return Identifier{Category: CategoryEvent, Name: name}
}

func (id Identifier) String() string {
	return id.Category.String() + "/" + id.Name
}

// Location returns the slash-separated path of the schema file relative to
// the base path. No I/O is performed.
func (id Identifier) Location() (string, error) {
	dir, err := id.Category.Dir()
	if err != nil {
		return "", err
	}
	if id.Name == "" || strings.ContainsAny(id.Name, `/\`) || id.Name == "." || id.Name == ".." {
		return "", fmt.Errorf("%w: invalid schema name %q", ErrSchemaNotFound, id.Name)
	}
	return path.Join(dir, id.Name+schemaSuffix), nil
}

// identifierForLocation is the inverse of Location
func identifierForLocation(loc string) (Identifier, bool) {
	dir, file := path.Split(loc)
	dir = strings.TrimSuffix(dir, "/")
	name, ok := strings.CutSuffix(file, schemaSuffix)
	if !ok || name == "" {
		return Identifier{}, false
	}
	switch dir {
	case mandatesDir:
		return Mandate(name), true
	case eventsDir:
		return Event(name), true
	}
	return Identifier{}, false
}

package frontmatter

import (
	"regexp"
	"unicode/utf8"
)

const (
	maxNameLength        = 64
	maxDescriptionLength = 1024
)

var nameRegexp = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// validate checks the parsed header against the frontmatter schema. Each
// persisted or embedded document type gets an explicit validation function
// like this one, returning a typed failure rather than throwing.
func validate(fields map[string]string, metadata map[string]string) (*Frontmatter, error) {
	fm := &Frontmatter{Metadata: metadata}

	for key, value := range fields {
		switch key {
		case "name":
			fm.Name = value
		case "description":
			fm.Description = value
		case "license":
			fm.License = value
		case "compatibility":
			fm.Compatibility = value
		default:
			return nil, newError(KindInvalidFrontmatter, "unknown field: %s", key)
		}
	}

	if fm.Name == "" {
		return nil, newError(KindInvalidFrontmatter, "name is required")
	}
	if len(fm.Name) > maxNameLength || !nameRegexp.MatchString(fm.Name) {
		return nil, newError(KindInvalidFrontmatter,
			"name must be 1-%d lowercase alphanumeric characters with internal hyphens, got %q", maxNameLength, fm.Name)
	}

	if fm.Description == "" {
		return nil, newError(KindInvalidFrontmatter, "description is required")
	}
	if utf8.RuneCountInString(fm.Description) > maxDescriptionLength {
		return nil, newError(KindInvalidFrontmatter,
			"description must be at most %d characters", maxDescriptionLength)
	}

	return fm, nil
}

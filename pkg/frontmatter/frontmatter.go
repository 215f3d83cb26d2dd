// Package frontmatter extracts and validates the structured header embedded
// at the start of a skill document. The parser is deliberately narrow: it
// accepts a delimiter-bounded block of `key: value` pairs, with a single
// nested block for free-form string metadata, and rejects everything else
// rather than guessing. It is not a general YAML parser.
package frontmatter

import "fmt"

// Frontmatter is the validated header of a skill document.
type Frontmatter struct {
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	License       string            `json:"license,omitempty"`
	Compatibility string            `json:"compatibility,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ErrorKind classifies frontmatter failures.
type ErrorKind string

const (
	// KindMissingFrontmatter means the document does not start with a
	// frontmatter delimiter.
	KindMissingFrontmatter ErrorKind = "missing_frontmatter"
	// KindInvalidYAML means the header block is present but does not match
	// the supported key-value grammar.
	KindInvalidYAML ErrorKind = "invalid_yaml"
	// KindInvalidFrontmatter means the header parsed but failed schema
	// validation.
	KindInvalidFrontmatter ErrorKind = "invalid_frontmatter"
)

// Error is a typed frontmatter failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

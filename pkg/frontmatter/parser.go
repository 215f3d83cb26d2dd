package frontmatter

import (
	"regexp"
	"strings"
)

const delimiter = "---"

var keyValueRegexp = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):(.*)$`)

// Parse extracts and validates the frontmatter from a skill document. The
// document must begin with a delimiter line; anything before it is an error.
func Parse(content string) (*Frontmatter, error) {
	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return nil, newError(KindMissingFrontmatter, "document must start with a %q delimiter line", delimiter)
	}

	fields := make(map[string]string)
	var metadata map[string]string
	inMetadata := false
	closed := false

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == delimiter {
			closed = true
			break
		}
		if strings.TrimSpace(line) == "" {
			inMetadata = false
			continue
		}

		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if indented {
			if !inMetadata {
				return nil, newError(KindInvalidYAML, "unexpected indented line: %q", line)
			}
			key, value, err := parsePair(strings.TrimSpace(line))
			if err != nil {
				return nil, err
			}
			if _, exists := metadata[key]; exists {
				return nil, newError(KindInvalidYAML, "duplicate metadata key: %s", key)
			}
			metadata[key] = value
			continue
		}

		inMetadata = false
		key, value, err := parsePair(line)
		if err != nil {
			return nil, err
		}

		if key == "metadata" {
			if value != "" {
				return nil, newError(KindInvalidYAML, "metadata must be a nested block, got scalar value %q", value)
			}
			if metadata != nil {
				return nil, newError(KindInvalidYAML, "duplicate key: metadata")
			}
			metadata = make(map[string]string)
			inMetadata = true
			continue
		}

		if _, exists := fields[key]; exists {
			return nil, newError(KindInvalidYAML, "duplicate key: %s", key)
		}
		fields[key] = value
	}

	if !closed {
		return nil, newError(KindInvalidYAML, "missing closing %q delimiter", delimiter)
	}

	return validate(fields, metadata)
}

// parsePair splits a `key: value` line, stripping matching surrounding
// quotes from the value.
func parsePair(line string) (string, string, error) {
	match := keyValueRegexp.FindStringSubmatch(line)
	if match == nil {
		return "", "", newError(KindInvalidYAML, "line does not match key-value grammar: %q", line)
	}

	key := match[1]
	value := strings.TrimSpace(match[2])
	return key, unquote(value), nil
}

func unquote(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if first == last && (first == '"' || first == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// Package registry implements the skill registry engine: a stateless façade
// over an abstract key-value store that owns the skill data model and
// enforces its integrity invariants. Skills are immutable markdown documents
// published under a @namespace/name identity and versioned by semantic
// version. The engine never talks to HTTP, UI, search or analytics; those
// consume its return values.
package registry

import (
	"regexp"
	"time"
)

const (
	maxNamespaceLength = 40
	maxNameLength      = 64

	// DefaultMaxContentSize is the default ceiling on skill content, in bytes.
	DefaultMaxContentSize = 262144
)

var identRegexp = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidNamespace reports whether ns is a well-formed namespace identifier.
func ValidNamespace(ns string) bool {
	return len(ns) >= 1 && len(ns) <= maxNamespaceLength && identRegexp.MatchString(ns)
}

// ValidSkillName reports whether name is a well-formed skill name.
func ValidSkillName(name string) bool {
	return len(name) >= 1 && len(name) <= maxNameLength && identRegexp.MatchString(name)
}

// Identity is the caller identity supplied by the authentication
// collaborator. The engine treats it as trusted input; its only use is the
// namespace equality check on mutating operations.
type Identity struct {
	Namespace string `json:"namespace"`
	Email     string `json:"email,omitempty"`
}

// VersionInfo describes one immutable published version of a skill.
type VersionInfo struct {
	Created  time.Time `json:"created"`
	Size     int64     `json:"size"`
	Checksum string    `json:"checksum"`
}

// SkillMetadata is the per-skill document tracking all published versions
// and the resolved latest pointer. The versions map only ever grows; ID and
// NamespaceID are assigned at first creation and never change.
type SkillMetadata struct {
	ID          string                 `json:"id"`
	NamespaceID string                 `json:"namespaceId"`
	Namespace   string                 `json:"namespace"`
	Name        string                 `json:"name"`
	Created     time.Time              `json:"created"`
	Updated     time.Time              `json:"updated"`
	Versions    map[string]VersionInfo `json:"versions"`
	// Latest is nil when no version parses as a semantic version; it
	// serializes as an explicit null rather than an omitted field.
	Latest *string `json:"latest"`
}

// UserProfile is the per-namespace document. ID is generated on first touch
// (first publish or first profile update) and is the opaque identifier
// surfaced to external consumers for this namespace.
type UserProfile struct {
	ID          string    `json:"id"`
	Namespace   string    `json:"namespace"`
	DisplayName string    `json:"displayName,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Website     string    `json:"website,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated"`
}

// ProfileUpdate is a partial profile update; nil fields keep their previous
// value.
type ProfileUpdate struct {
	DisplayName *string `json:"displayName,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Website     *string `json:"website,omitempty"`
}

// validateSkillMetadata checks a decoded metadata document against its
// schema. Documents that fail are reported as corrupt storage data, distinct
// from not-found.
func validateSkillMetadata(meta *SkillMetadata) error {
	switch {
	case meta.ID == "":
		return corruptf("skill metadata missing id")
	case meta.NamespaceID == "":
		return corruptf("skill metadata missing namespaceId")
	case !ValidNamespace(meta.Namespace):
		return corruptf("skill metadata has invalid namespace %q", meta.Namespace)
	case !ValidSkillName(meta.Name):
		return corruptf("skill metadata has invalid name %q", meta.Name)
	case meta.Versions == nil:
		return corruptf("skill metadata missing versions map")
	}

	if meta.Latest != nil {
		if _, ok := meta.Versions[*meta.Latest]; !ok {
			return corruptf("skill metadata latest %q not present in versions", *meta.Latest)
		}
	}
	return nil
}

// validateUserProfile checks a decoded profile document against its schema.
func validateUserProfile(profile *UserProfile) error {
	switch {
	case profile.ID == "":
		return corruptf("user profile missing id")
	case !ValidNamespace(profile.Namespace):
		return corruptf("user profile has invalid namespace %q", profile.Namespace)
	}
	return nil
}

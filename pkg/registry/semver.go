package registry

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// parseSemver parses a strict MAJOR.MINOR.PATCH version, optionally with
// pre-release and build metadata. Partial versions and a leading "v" are
// rejected.
func parseSemver(s string) (*semver.Version, bool) {
	v, err := semver.StrictNewVersion(s)
	if err != nil {
		return nil, false
	}
	return v, true
}

func isStable(v *semver.Version) bool {
	return v.Prerelease() == ""
}

// compareTriple orders by the numeric MAJOR.MINOR.PATCH triple only;
// pre-release suffixes are never compared.
func compareTriple(a, b *semver.Version) int {
	switch {
	case a.Major() != b.Major():
		if a.Major() > b.Major() {
			return 1
		}
		return -1
	case a.Minor() != b.Minor():
		if a.Minor() > b.Minor() {
			return 1
		}
		return -1
	case a.Patch() != b.Patch():
		if a.Patch() > b.Patch() {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// resolveLatest picks the latest version from the full set of a skill's
// version strings. Stable versions win over pre-releases: only when no
// stable version exists is the latest resolved among pre-releases. Equal
// numeric triples tie-break lexicographically descending on the full
// version string, which keeps the result deterministic.
func resolveLatest(versions []string) string {
	candidates := make([]string, 0, len(versions))
	parsed := make(map[string]*semver.Version, len(versions))

	for _, raw := range versions {
		v, ok := parseSemver(raw)
		if !ok {
			continue
		}
		parsed[raw] = v
		if isStable(v) {
			candidates = append(candidates, raw)
		}
	}

	if len(candidates) == 0 {
		for raw := range parsed {
			candidates = append(candidates, raw)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	best := candidates[0]
	for _, raw := range candidates[1:] {
		if cmp := compareTriple(parsed[raw], parsed[best]); cmp > 0 {
			best = raw
		} else if cmp == 0 && strings.Compare(raw, best) > 0 {
			best = raw
		}
	}
	return best
}

// sortVersions orders version strings newest first, which is the order
// listVersions surfaces to callers.
func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		a, aok := parseSemver(versions[i])
		b, bok := parseSemver(versions[j])
		if aok && bok {
			if cmp := compareTriple(a, b); cmp != 0 {
				return cmp > 0
			}
		}
		return versions[i] > versions[j]
	})
}

package main

import (
	"strings"

	"github.com/pkg/errors"
)

// parseSkillRef parses a "@namespace/name" or "namespace/name@version"
// reference. The leading "@" on the namespace is optional; the version is
// optional and returned empty when absent.
func parseSkillRef(ref string) (namespace, name, version string, err error) {
	ref = strings.TrimPrefix(ref, "@")

	if at := strings.LastIndex(ref, "@"); at >= 0 {
		version = ref[at+1:]
		ref = ref[:at]
		if version == "" {
			return "", "", "", errors.Errorf("empty version in skill reference %q", ref)
		}
	}

	parts := strings.Split(ref, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", errors.Errorf("skill reference must look like namespace/name[@version], got %q", ref)
	}
	return parts[0], parts[1], version, nil
}

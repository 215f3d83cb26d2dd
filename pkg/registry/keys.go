package registry

import "strings"

// Storage key shapes owned by the engine:
//
//	skills/{namespace}/{name}/metadata           skill metadata document
//	skills/{namespace}/{name}/versions/{version} immutable version content
//	skills/{namespace}/user                      user profile document
const skillsPrefix = "skills/"

func metadataKey(namespace, name string) string {
	return skillsPrefix + namespace + "/" + name + "/metadata"
}

func versionKey(namespace, name, version string) string {
	return skillsPrefix + namespace + "/" + name + "/versions/" + version
}

func profileKey(namespace string) string {
	return skillsPrefix + namespace + "/user"
}

// parseMetadataKey extracts the (namespace, name) pair from a metadata key,
// reporting false for any other key shape.
func parseMetadataKey(key string) (namespace, name string, ok bool) {
	if !strings.HasPrefix(key, skillsPrefix) {
		return "", "", false
	}

	parts := strings.Split(strings.TrimPrefix(key, skillsPrefix), "/")
	if len(parts) != 3 || parts[2] != "metadata" {
		return "", "", false
	}
	return parts[0], parts[1], true
}

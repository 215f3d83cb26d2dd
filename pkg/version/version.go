// Package version exposes build-time version information for the skillhub
// binary.
package version

import "fmt"

var (
	// Version is the current skillhub version, set at build time.
	Version = "dev"

	// GitCommit is the git commit SHA that was built, set at build time.
	GitCommit = "unknown"
)

// Info represents version information.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
}

// Get returns the version information.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
	}
}

// String returns the human-readable representation of the version info.
func (i Info) String() string {
	return fmt.Sprintf("skillhub %s (%s)", i.Version, i.GitCommit)
}

// Package version carries build metadata stamped in with -ldflags, e.g.
//
//	go build -ldflags "-X github.com/connorhough/timestable/internal/version.Version=v1.2.0"
package version

import "fmt"

// These variables are set at build time using ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// String returns a formatted version string including version, git commit, and build date
func String() string {
	return fmt.Sprintf("%s (commit: %s, date: %s)", Version, GitCommit, BuildDate)
}

// UserAgent identifies timestable to remote services such as the GitHub API.
func UserAgent() string {
	return "timestable/" + Version
}

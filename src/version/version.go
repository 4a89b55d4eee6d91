package version

import "fmt"

var (
	// Release is the current release of the application
	Release = "1.2.0"
	// Version is the current version of the application, set with -ldflags
	Version string
	// GitHash is the git hash of the commit that was used to build the application
	GitHash string
)

// String renders the release with whatever build metadata was linked in.
func String() string {
	s := Release
	if Version != "" {
		s += " (" + Version + ")"
	}
	if GitHash != "" {
		s += fmt.Sprintf(" git %.7s", GitHash)
	}
	return s
}

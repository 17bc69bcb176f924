package lexicache

// Version information for lexicache.
// These values can be overridden at build time using ldflags:
//
//	go build -ldflags "-X github.com/ZaguanLabs/lexicache.GitCommit=abc1234"
const (
	// Name is the application name.
	Name = "lexicache"

	// Description is a short description of the application.
	Description = "Lookup-or-fetch translation cache with searchable history"

	// Version is the semantic version of the application.
	Version = "0.1.0"

	// Repository is the source code repository URL.
	Repository = "https://github.com/ZaguanLabs/lexicache"

	// License is the software license.
	License = "MIT"
)

// BuildInfo contains build-time information.
// These are typically set via ldflags during build.
var (
	// GitCommit is the git commit hash.
	GitCommit = "unknown"

	// BuildDate is the build timestamp.
	BuildDate = "unknown"
)

// FullVersion returns the version string with optional build info.
func FullVersion() string {
	v := Version
	if GitCommit != "unknown" && GitCommit != "" {
		short := GitCommit
		if len(short) > 7 {
			short = short[:7]
		}
		v += "+" + short
	}
	return v
}

// UserAgent returns the identifying header value sent with provider requests.
func UserAgent() string {
	return Name + "/" + Version
}

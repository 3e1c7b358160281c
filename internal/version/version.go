package version

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion returns the version string populated via -ldflags.
func GetVersion() string { return version }

// GetCommit returns the build commit hash.
func GetCommit() string { return commit }

// GetDate returns the build date.
func GetDate() string { return date }

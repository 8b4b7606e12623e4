package version

// These are set by the linker at build time.
var (
	Version   = "v0.0.0-dev"
	GitCommit = "unknown"
)

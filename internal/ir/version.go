package ir

const (
	// IRVersion is the call record schema version.
	IRVersion = "1"

	// Version is the hoc release.
	Version = "0.1.0"
)

package ir

// Version constants for the canonical form and the compiler.
const (
	// IRVersion is the canonical statement schema version.
	IRVersion = "1"

	// CompilerVersion is the cpql compiler version.
	CompilerVersion = "0.1.0"
)

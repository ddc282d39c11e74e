package core

// Logger interface for renderer and kernel diagnostics
type Logger interface {
	Printf(format string, args ...interface{})
}

package wsendpoint

import (
	"log"
	"os"
)

// stdDiagnostics is the default Diagnostics sink, backed by the standard
// library logger.
type stdDiagnostics struct {
	l *log.Logger
}

// NewStdDiagnostics returns a Diagnostics sink that writes to stderr via
// the standard library's log package.
func NewStdDiagnostics() Diagnostics {
	return &stdDiagnostics{l: log.New(os.Stderr, "wsendpoint: ", log.LstdFlags)}
}

func (d *stdDiagnostics) Logf(format string, args ...interface{}) {
	d.l.Printf(format, args...)
}

// noopDiagnostics discards everything; used when Configuration.Diagnostics
// is left nil.
type noopDiagnostics struct{}

func (noopDiagnostics) Logf(format string, args ...interface{}) {}

package logging

import (
	"io"

	"go.uber.org/multierr"
)

// teeWriter writes each log line to all writers. A failing writer does not stop the others.
type teeWriter struct {
	writers []io.Writer
}

func newTeeWriter(writers ...io.Writer) *teeWriter {
	return &teeWriter{
		writers: writers,
	}
}

// Write reports len(p) if at least one writer took the whole line, so logrus
// does not treat a broken stdout as a lost entry while the file still has it.
func (t *teeWriter) Write(p []byte) (int, error) {
	var errs error
	delivered := false
	for _, w := range t.writers {
		n, err := w.Write(p)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if n == len(p) {
			delivered = true
		}
	}
	if delivered {
		return len(p), errs
	}
	return 0, errs
}

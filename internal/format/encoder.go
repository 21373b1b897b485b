package format

import (
	"log/slog"

	"github.com/roach88/marqant/internal/clock"
	"github.com/roach88/marqant/internal/dict"
)

// Encoder frames documents. The zero value is usable: it stamps the wall
// clock, resolves -std names against the builtin registry and logs to
// slog.Default().
type Encoder struct {
	// Clock supplies the header timestamp.
	Clock clock.Clock

	// Standards resolves -std:<name> baselines.
	Standards *dict.Registry

	// Logger receives debug events.
	Logger *slog.Logger
}

func (e *Encoder) clock() clock.Clock {
	return clock.OrSystem(e.Clock)
}

func (e *Encoder) standards() *dict.Registry {
	if e.Standards == nil {
		return dict.Standard()
	}
	return e.Standards
}

func (e *Encoder) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Decoder reverses native documents. The zero value uses the builtin registry.
type Decoder struct {
	// Standards resolves -std:<name> baselines named in headers.
	Standards *dict.Registry
}

func (d *Decoder) standards() *dict.Registry {
	if d.Standards == nil {
		return dict.Standard()
	}
	return d.Standards
}

package asyncmu

import (
	"log/slog"

	"github.com/neilotoole/sq/libsq/core/lg"
)

func (m *Mutex) getLog() *slog.Logger {
	if m.log == nil {
		return lg.Discard()
	}
	return m.log
}

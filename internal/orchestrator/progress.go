package orchestrator

import (
	"time"

	"github.com/newthinker/folio/internal/core"
)

// ProgressFunc observes waterfall events. It is notified only; its return
// and behaviour never affect the waterfall. A nil ProgressFunc is valid.
type ProgressFunc func(core.ProgressUpdate)

func (fn ProgressFunc) emit(u core.ProgressUpdate) {
	if fn == nil {
		return
	}
	if u.Time.IsZero() {
		u.Time = time.Now()
	}
	fn(u)
}

// ChannelProgress forwards events to ch without blocking. Events are
// dropped while ch is full.
func ChannelProgress(ch chan<- core.ProgressUpdate) ProgressFunc {
	return func(u core.ProgressUpdate) {
		select {
		case ch <- u:
		default:
		}
	}
}

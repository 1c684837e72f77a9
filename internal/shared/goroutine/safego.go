// Package goroutine launches fire-and-forget work that must never take the
// process down.
package goroutine

import (
	"fmt"
	"runtime/debug"

	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

// SafeGo runs fn on a new goroutine and logs a panic with its stack instead
// of crashing. onPanic, when non-nil, runs after the panic is logged so
// callers can release per-key state.
func SafeGo(log logger.Interface, name string, fn func(), onPanic ...func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Errorw("goroutine panicked",
					"goroutine", name,
					"panic", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
				for _, f := range onPanic {
					f()
				}
			}
		}()
		fn()
	}()
}

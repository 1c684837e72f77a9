package goroutine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gymdesk/accessbridge/internal/shared/logger"
)

func TestSafeGo_RecoversPanic(t *testing.T) {
	released := make(chan struct{})

	SafeGo(logger.NewNop(), "token-refresh", func() {
		panic("vendor exploded")
	}, func() { close(released) })

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("onPanic hook was not called")
	}
}

func TestSafeGo_RunsFunction(t *testing.T) {
	done := make(chan int, 1)
	SafeGo(logger.NewNop(), "noop", func() { done <- 42 })

	select {
	case v := <-done:
		assert.Equal(t, 42, v)
	case <-time.After(time.Second):
		t.Fatal("function did not run")
	}
}

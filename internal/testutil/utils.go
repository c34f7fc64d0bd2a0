package testutil

import (
	"io"
	"log"
	"os"
	"testing"
)

// TestLogger returns a logger prefixed with the test name. Output is
// discarded once the test and its cleanups have finished.
func TestLogger(t testing.TB) *log.Logger {
	logger := log.New(os.Stdout, "["+t.Name()+"] ", log.LstdFlags|log.Lmicroseconds)
	t.Cleanup(func() {
		logger.SetOutput(io.Discard)
	})
	return logger
}

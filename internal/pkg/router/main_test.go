package router

import (
	"os"
	"testing"

	"midideck/internal/pkg/logger"
	"midideck/internal/pkg/prefs"
)

func TestMain(m *testing.M) {
	// the log channel is unbuffered beyond its small capacity; drain it so
	// chatty code paths cannot block the tests
	go func() {
		for range logger.Messages {
		}
	}()
	os.Exit(m.Run())
}

func testStore(t *testing.T) *prefs.Store {
	t.Helper()
	s, err := prefs.Open(t.TempDir())
	if err != nil {
		t.Fatalf("cannot open store: %v", err)
	}
	return s
}

func intp(n int) *int {
	return &n
}

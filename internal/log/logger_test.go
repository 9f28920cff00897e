package log

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestInitialize(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	if Verbosity() != LevelInfo {
		t.Errorf("expected verbosity %d, got %d", LevelInfo, Verbosity())
	}
}

func TestLevelGating(t *testing.T) {
	tests := []struct {
		name    string
		level   int
		log     func()
		visible bool
	}{
		{"warn at quiet", LevelQuiet, func() { Warn("repo fetch failed", "repo", "a/b") }, true},
		{"info at quiet", LevelQuiet, func() { Info("cycle done") }, false},
		{"info at info", LevelInfo, func() { Info("cycle done") }, true},
		{"debug at info", LevelInfo, func() { Debug("GET /user") }, false},
		{"debug at debug", LevelDebug, func() { Debug("GET /user") }, true},
		{"trace at debug", LevelDebug, func() { Trace("query") }, false},
		{"trace at trace", LevelTrace, func() { Trace("query") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Initialize(tt.level, &buf)
			tt.log()
			if got := buf.Len() > 0; got != tt.visible {
				t.Errorf("visible = %v, want %v (output %q)", got, tt.visible, buf.String())
			}
		})
	}
}

func TestProgressIsPreservedBeforeLogLine(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	Progress("Fetching batch %d/%d", 1, 3)
	Warn("repo fetch failed")

	out := buf.String()
	if !strings.Contains(out, "Fetching batch 1/3\n") {
		t.Errorf("expected progress line to be terminated before the warning, got %q", out)
	}
}

func TestProgressClear(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelInfo, &buf)

	Progress("Loading")
	ProgressClear()

	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Errorf("expected clear sequence, got %q", buf.String())
	}
}

func TestConcurrentLogging(t *testing.T) {
	var buf bytes.Buffer
	Initialize(LevelDebug, &buf)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			Debug("fetch", "n", n)
		}(i)
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "msg=fetch"); got != 8 {
		t.Errorf("expected 8 log lines, got %d", got)
	}
}

func TestDiscard(t *testing.T) {
	Discard()
	if IsDebug() {
		t.Error("expected quiet verbosity after Discard")
	}
	Warn("dropped")
}

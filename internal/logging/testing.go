package logging

import (
	"fmt"
	"regexp"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger records every entry, down to TraceLevel, for assertions.
type TestLogger struct {
	*Logger
	logs *observer.ObservedLogs
}

func NewTestLogger() *TestLogger {
	core, logs := observer.New(TraceLevel)
	return &TestLogger{Logger: Wrap(zap.New(core)), logs: logs}
}

// Entries returns what was logged so far.
func (t *TestLogger) Entries() []observer.LoggedEntry { return t.logs.All() }

// ForReload keeps the entries tagged with one reload id.
func (t *TestLogger) ForReload(id string) []observer.LoggedEntry {
	return t.logs.FilterField(zap.String(reloadIDKey, id)).All()
}

func (t *TestLogger) find(level zapcore.Level, msg string) []observer.LoggedEntry {
	var out []observer.LoggedEntry
	for _, e := range t.logs.All() {
		if e.Level == level && strings.Contains(e.Message, msg) {
			out = append(out, e)
		}
	}
	return out
}

func (t *TestLogger) AssertLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if len(t.find(level, msg)) == 0 {
		tb.Errorf("no %v entry containing %q; got %s", level, msg, t.summary())
	}
}

func (t *TestLogger) AssertNotLogged(tb testing.TB, level zapcore.Level, msg string) {
	tb.Helper()
	if n := len(t.find(level, msg)); n > 0 {
		tb.Errorf("%d unexpected %v entries containing %q", n, level, msg)
	}
}

// AssertField checks that some entry with message msg carries key=want.
// Values are compared in their printed form, so ints, strings and
// durations can be passed as they were logged.
func (t *TestLogger) AssertField(tb testing.TB, msg, key string, want any) {
	tb.Helper()
	for _, e := range t.logs.FilterMessage(msg).All() {
		if got, ok := e.ContextMap()[key]; ok && fmt.Sprint(got) == fmt.Sprint(want) {
			return
		}
	}
	tb.Errorf("no %q entry with %s=%v; got %s", msg, key, want, t.summary())
}

var leakPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)bearer\s+\S+`),
	// credentials embedded in a clone url
	regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9]{20,}`),
}

// AssertNoSecrets fails on credential-looking values in messages or string
// fields, and on credential-named fields that were not redacted.
func (t *TestLogger) AssertNoSecrets(tb testing.TB) {
	tb.Helper()
	for _, e := range t.logs.All() {
		for _, re := range leakPatterns {
			if re.MatchString(e.Message) {
				tb.Errorf("credential in message %q", e.Message)
			}
		}
		for _, f := range e.Context {
			if f.Type != zapcore.StringType || f.String == "" {
				continue
			}
			if sensitiveKey(f.Key) && f.String != redactedValue {
				tb.Errorf("field %q not redacted: %q", f.Key, f.String)
			}
			for _, re := range leakPatterns {
				if re.MatchString(f.String) {
					tb.Errorf("credential in field %q: %q", f.Key, f.String)
				}
			}
		}
	}
}

func sensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "authorization", "credential"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func (t *TestLogger) summary() string {
	var b strings.Builder
	for _, e := range t.logs.All() {
		fmt.Fprintf(&b, "\n  %v %s %v", e.Level, e.Message, e.ContextMap())
	}
	return b.String()
}

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Mode selects how the report file is opened.
type Mode string

const (
	ModeAppend   Mode = "append"
	ModeTruncate Mode = "truncate"
)

// Writer persists reports to a fixed path.
type Writer struct {
	path     string
	mode     Mode
	redactor *Redactor

	mu sync.Mutex
}

// NewWriter returns a writer for path. redactor may be nil.
func NewWriter(path string, mode Mode, redactor *Redactor) *Writer {
	if mode != ModeTruncate {
		mode = ModeAppend
	}
	return &Writer{path: path, mode: mode, redactor: redactor}
}

func (w *Writer) Path() string { return w.path }

// Write renders r with redaction and writes it to the report file.
func (w *Writer) Write(r *Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}

	flags := os.O_CREATE | os.O_WRONLY
	if w.mode == ModeTruncate {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(w.path, flags, 0o600)
	if err != nil {
		return fmt.Errorf("opening report %s: %w", w.path, err)
	}
	if _, err := io.WriteString(f, r.Render(w.redactor.Redact)); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing report %s: %w", w.path, err)
	}
	return f.Close()
}

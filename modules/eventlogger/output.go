package eventlogger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Entry is one recorded event.
type Entry struct {
	Time   time.Time       `json:"time"`
	Type   string          `json:"type"`
	Source string          `json:"source"`
	ID     string          `json:"id"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Target receives entries from the writer goroutine.
type Target interface {
	Write(e Entry) error
	Close() error
}

type writerTarget struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	format string
}

func openTarget(cfg TargetConfig, console io.Writer) (Target, error) {
	switch cfg.Type {
	case TargetConsole:
		return &writerTarget{w: console, format: cfg.Format}, nil
	case TargetFile:
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", cfg.Path, err)
		}
		return &writerTarget{w: f, closer: f, format: cfg.Format}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, cfg.Type)
	}
}

func (t *writerTarget) Write(e Entry) error {
	var line []byte
	if t.format == FormatText {
		line = fmt.Appendf(nil, "%s %s %s", e.Time.Format(time.RFC3339Nano), e.Type, e.Source)
		if len(e.Data) > 0 {
			line = fmt.Appendf(line, " %s", e.Data)
		}
	} else {
		b, err := json.Marshal(e)
		if err != nil {
			return err
		}
		line = b
	}
	line = append(line, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := t.w.Write(line)
	return err
}

func (t *writerTarget) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

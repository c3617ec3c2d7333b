package nameserver

import (
	"fmt"
	"io"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/quillfs/quillfs/pkg/wire"
)

// AuditConfig controls rotation of the audit trail.
//
// Default values (applied by NewAudit if zero):
//   - MaxSizeMB: 10
//   - MaxBackups: 3
//   - MaxAgeDays: 28
type AuditConfig struct {
	// MaxSizeMB is the maximum size of the log file before rotation.
	MaxSizeMB int `mapstructure:"max_size_mb" validate:"min=0"`

	// MaxBackups is the number of rotated files to retain.
	MaxBackups int `mapstructure:"max_backups" validate:"min=0"`

	// MaxAgeDays is the maximum age of a rotated file in days.
	MaxAgeDays int `mapstructure:"max_age_days" validate:"min=0"`
}

func (c *AuditConfig) applyDefaults() {
	if c.MaxSizeMB == 0 {
		c.MaxSizeMB = 10
	}
	if c.MaxBackups == 0 {
		c.MaxBackups = 3
	}
	if c.MaxAgeDays == 0 {
		c.MaxAgeDays = 28
	}
}

// Audit is the operator-facing trail written to <root>/nameserver.log:
// one line per event in the fixed format
//
//	[YYYY-MM-DD HH:MM:SS] [LEVEL] message
//
// Every authentication attempt, registration, eviction, ACL change, and
// routed command lands here. A nil *Audit discards everything, so
// components hold it unconditionally.
type Audit struct {
	mu sync.Mutex
	w  io.WriteCloser
}

// NewAudit opens the audit log at path behind a size/age rotating writer.
func NewAudit(path string, cfg AuditConfig) *Audit {
	cfg.applyDefaults()
	return &Audit{
		w: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
	}
}

// Infof records a routine event.
func (a *Audit) Infof(format string, args ...any) {
	a.logf("INFO", format, args...)
}

// Warnf records a refusal: failed auth, eviction, rejected registration.
func (a *Audit) Warnf(format string, args ...any) {
	a.logf("WARN", format, args...)
}

// Errorf records an internal failure visible to operators.
func (a *Audit) Errorf(format string, args ...any) {
	a.logf("ERROR", format, args...)
}

func (a *Audit) logf(level, format string, args ...any) {
	if a == nil {
		return
	}
	line := fmt.Sprintf("[%s] [%s] %s\n",
		time.Now().Format(wire.TimeLayout), level, fmt.Sprintf(format, args...))

	a.mu.Lock()
	defer a.mu.Unlock()
	_, _ = io.WriteString(a.w, line)
}

// Close flushes and closes the underlying writer.
func (a *Audit) Close() error {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Close()
}

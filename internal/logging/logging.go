// Package logging provides the leveled logger shared by every wstrim package.
package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level is the severity of a log line.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a -log-level value to a Level. Matching ignores case and
// "warning" is accepted for LevelWarn.
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(s)
	if name == "WARNING" {
		return LevelWarn, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i), nil
		}
	}
	return LevelInfo, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", s)
}

// field is one key=value pair attached to every line of a Logger.
type field struct {
	key   string
	value any
}

// Logger writes leveled lines of the form
//
//	<time> [LEVEL] <prefix>: <message> {k=v, ...}
//
// Loggers derived with WithField share the parent's writer and lock. A nil
// *Logger is valid and discards everything.
type Logger struct {
	mu     *sync.Mutex
	out    io.Writer
	level  Level
	prefix string
	fields []field // sorted by key
	now    func() time.Time
}

// Config configures a Logger.
type Config struct {
	Level  Level
	Output io.Writer // os.Stderr when nil
	Prefix string
}

// New creates a logger from cfg.
func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}
	return &Logger{
		mu:     &sync.Mutex{},
		out:    cfg.Output,
		level:  cfg.Level,
		prefix: cfg.Prefix,
		now:    time.Now,
	}
}

// Null returns a logger that discards all output.
func Null() *Logger {
	return &Logger{mu: &sync.Mutex{}, now: time.Now}
}

// WithField returns a child logger that adds key=value to every line. An
// existing key is replaced.
func (l *Logger) WithField(key string, value any) *Logger {
	if l == nil {
		return Null()
	}
	i := sort.Search(len(l.fields), func(i int) bool { return l.fields[i].key >= key })

	fields := make([]field, 0, len(l.fields)+1)
	fields = append(fields, l.fields[:i]...)
	fields = append(fields, field{key, value})
	if i < len(l.fields) && l.fields[i].key == key {
		i++
	}
	fields = append(fields, l.fields[i:]...)

	child := *l
	child.fields = fields
	return &child
}

// WithComponent tags lines with the emitting package.
func (l *Logger) WithComponent(component string) *Logger {
	return l.WithField("component", component)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }

func (l *Logger) log(level Level, msg string, args []any) {
	if l == nil || l.out == nil || level < l.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] ", l.now().Format("2006-01-02T15:04:05.000"), level)
	if l.prefix != "" {
		sb.WriteString(l.prefix)
		sb.WriteString(": ")
	}
	sb.WriteString(msg)
	for i, f := range l.fields {
		if i == 0 {
			sb.WriteString(" {")
		} else {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s=%v", f.key, f.value)
	}
	if len(l.fields) > 0 {
		sb.WriteByte('}')
	}
	sb.WriteByte('\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, sb.String())
}

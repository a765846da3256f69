// Package logger is the leveled logger shared by the API server and the CLI.
// Lines look like "2024-05-01T10:30:00Z [WARN] component=gateway msg".
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelFatal {
		return "info"
	}
	return levelNames[l]
}

var (
	mu     sync.RWMutex
	logger = log.New(os.Stdout, "", 0)
	level  = LevelInfo
)

// Init sets the global level from LOG_LEVEL style text. Unknown values mean info.
func Init(l string) {
	mu.Lock()
	defer mu.Unlock()
	level = parseLevel(l)
}

// SetOutput redirects every logger, e.g. to stderr for interactive tools.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	logger = log.New(w, "", 0)
}

func parseLevel(l string) Level {
	s := strings.ToLower(strings.TrimSpace(l))
	if s == "warning" {
		return LevelWarn
	}
	for i, name := range levelNames {
		if s == name {
			return Level(i)
		}
	}
	return LevelInfo
}

// LevelString returns the current level as text.
func LevelString() string {
	mu.RLock()
	defer mu.RUnlock()
	return level.String()
}

func output(l Level, component, format string, v ...any) {
	mu.RLock()
	lg, threshold := logger, level
	mu.RUnlock()
	if l < threshold && l != LevelFatal {
		return
	}
	var b strings.Builder
	b.WriteString(time.Now().UTC().Format(time.RFC3339))
	b.WriteString(" [")
	b.WriteString(strings.ToUpper(l.String()))
	b.WriteString("] ")
	if component != "" {
		b.WriteString("component=")
		b.WriteString(component)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, format, v...)
	lg.Print(b.String())
}

func Debugf(format string, v ...any) { output(LevelDebug, "", format, v...) }
func Infof(format string, v ...any)  { output(LevelInfo, "", format, v...) }
func Warnf(format string, v ...any)  { output(LevelWarn, "", format, v...) }
func Errorf(format string, v ...any) { output(LevelError, "", format, v...) }

// Fatalf logs regardless of level and exits with status 1.
func Fatalf(format string, v ...any) {
	output(LevelFatal, "", format, v...)
	os.Exit(1)
}

// Component is a logger bound to a component name.
type Component struct {
	name string
}

// Named returns a logger whose lines carry component=<name>.
func Named(name string) Component {
	return Component{name: name}
}

func (c Component) Debugf(format string, v ...any) { output(LevelDebug, c.name, format, v...) }
func (c Component) Infof(format string, v ...any)  { output(LevelInfo, c.name, format, v...) }
func (c Component) Warnf(format string, v ...any)  { output(LevelWarn, c.name, format, v...) }
func (c Component) Errorf(format string, v ...any) { output(LevelError, c.name, format, v...) }

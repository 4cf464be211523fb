// Package notify delivers severity-tagged user notifications.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"
)

// Severity of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// Notifier shows a message to the user.
type Notifier interface {
	Notify(sev Severity, msg string)
}

// Func adapts a function to Notifier.
type Func func(sev Severity, msg string)

func (f Func) Notify(sev Severity, msg string) { f(sev, msg) }

// Nop drops every notification.
var Nop Notifier = Func(func(Severity, string) {})

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
)

// Console renders notifications as styled terminal lines. Errors and warnings go to Err,
// the rest to Out.
type Console struct {
	Out io.Writer
	Err io.Writer

	mu sync.Mutex
}

// NewConsole writes to out and errOut.
func NewConsole(out, errOut io.Writer) *Console {
	return &Console{Out: out, Err: errOut}
}

// Notify implements Notifier.
func (c *Console) Notify(sev Severity, msg string) {
	line, w := Render(sev, msg), c.Out
	if sev == Error || sev == Warning {
		w = c.Err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(w, line)
}

// Render styles msg with the icon and color of sev.
func Render(sev Severity, msg string) string {
	switch sev {
	case Success:
		return successStyle.Render("✔ " + msg)
	case Error:
		return errorStyle.Render("✖ " + msg)
	case Warning:
		return warningStyle.Render("! " + msg)
	default:
		return infoStyle.Render("• " + msg)
	}
}

// Log writes notifications to a zap logger.
type Log struct{ L *zap.Logger }

// Notify implements Notifier.
func (l Log) Notify(sev Severity, msg string) {
	switch sev {
	case Error:
		l.L.Error(msg)
	case Warning:
		l.L.Warn(msg)
	default:
		l.L.Info(msg, zap.String("severity", string(sev)))
	}
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu    sync.Mutex
	items []Entry
}

// Entry is one recorded notification.
type Entry struct {
	Severity Severity
	Message  string
}

// Notify implements Notifier.
func (r *Recorder) Notify(sev Severity, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, Entry{Severity: sev, Message: msg})
}

// Entries returns a copy of what was recorded.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Entry(nil), r.items...)
}

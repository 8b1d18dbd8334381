// Package report is the engine's single reporting path: structured events, coded errors and the
// validation-layer channel, printed through slog.
package report

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/slog"

	"github.com/andewx/avixel/gpu"
)

const (
	colorReset  = "\x1b[0m"
	colorGray   = "\x1b[90m"
	colorGreen  = "\x1b[32m"
	colorYellow = "\x1b[33m"
	colorRed    = "\x1b[31m"
	colorPurple = "\x1b[35m"
)

var severityColors = [...]string{colorGray, colorGreen, colorYellow, colorRed, colorPurple}

// Reporter formats and writes events. It holds no global state; every component that reports
// receives one at construction.
type Reporter struct {
	cfg     Config
	project string
	logger  *slog.Logger
	exit    func(code int)
}

type Option func(r *Reporter)

// WithWriter sends output to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(r *Reporter) {
		r.logger = newLogger(r.cfg, w)
	}
}

// WithProject tags every record with the project name and version.
func WithProject(name string, version string) Option {
	return func(r *Reporter) {
		r.project = fmt.Sprintf("%s v%s", name, version)
	}
}

// WithExit replaces the process exit used by Fatal and Assert.
func WithExit(exit func(code int)) Option {
	return func(r *Reporter) {
		r.exit = exit
	}
}

func New(cfg Config, opts ...Option) *Reporter {
	r := &Reporter{
		cfg:  cfg,
		exit: os.Exit,
	}
	r.logger = newLogger(cfg, os.Stderr)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Discard returns a Reporter that prints nothing and never exits.
func Discard() *Reporter {
	return New(Config{Level: SeverityFatal, ValidationLevel: gpu.DebugError},
		WithWriter(io.Discard), WithExit(func(int) {}))
}

func newLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := slog.HandlerOptions{Level: slog.LevelDebug}
	if !cfg.PrintTime {
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		}
	}
	if cfg.Colors {
		return slog.New(newColorHandler(opts, w))
	}
	return slog.New(opts.NewTextHandler(w))
}

func (r *Reporter) Config() Config {
	return r.cfg
}

// Report prints ev if the configuration allows it.
func (r *Reporter) Report(ev Event) {
	if !r.cfg.Allows(ev) {
		return
	}
	r.write(ev)
}

// Log reports a message under code with the caller's location.
func (r *Reporter) Log(code Code, category string, message string) {
	ev := NewEvent(code, category, message)
	ev.Location = caller(2)
	r.Report(ev)
}

func (r *Reporter) Logf(code Code, category string, format string, args ...any) {
	ev := NewEvent(code, category, fmt.Sprintf(format, args...))
	ev.Location = caller(2)
	r.Report(ev)
}

// Error reports err under its attached code and returns it unchanged.
func (r *Reporter) Error(err error) error {
	if err != nil {
		r.Report(EventOf(err))
	}
	return err
}

// Fatal prints err as a fatal record, runs finalizers and exits with status 1.
func (r *Reporter) Fatal(err error, finalizers ...func()) {
	if err == nil {
		return
	}
	ev := EventOf(err)
	ev.Severity = SeverityFatal
	r.write(ev)
	for _, fn := range finalizers {
		fn()
	}
	r.exit(1)
}

// Assert reports the event when cond is false and exits if its severity reaches AssertLevel.
// The return value is cond.
func (r *Reporter) Assert(cond bool, code Code, category string, message string) bool {
	if cond {
		return true
	}
	ev := NewEvent(code, category, message)
	ev.Location = caller(2)
	r.Report(ev)
	if ev.Severity >= r.cfg.AssertLevel {
		r.exit(1)
	}
	return false
}

// Validation is the sink for the validation layer. Messages below ValidationLevel are dropped
// before formatting.
func (r *Reporter) Validation(msg gpu.DebugMessage) {
	if !r.cfg.AllowsValidation(msg) {
		return
	}
	text := fmt.Sprintf("[renderer][%s] -> %s", msg.Category, msg.Message)
	attrs := r.tags(validationSeverity(msg.Severity))
	switch msg.Severity {
	case gpu.DebugError:
		r.logger.Error(text, attrs...)
	case gpu.DebugWarning:
		r.logger.Warn(text, attrs...)
	case gpu.DebugInfo:
		r.logger.Info(text, attrs...)
	default:
		r.logger.Debug(text, attrs...)
	}
}

func validationSeverity(s gpu.DebugSeverity) Severity {
	switch s {
	case gpu.DebugError:
		return SeverityError
	case gpu.DebugWarning:
		return SeverityWarning
	case gpu.DebugInfo:
		return SeverityInfo
	}
	return SeverityDebug
}

func (r *Reporter) tags(sev Severity) []any {
	attrs := []any{slog.String(severityKey, sev.String())}
	if r.cfg.PrintProject && r.project != "" {
		attrs = append(attrs, slog.String("project", r.project))
	}
	return attrs
}

func (r *Reporter) write(ev Event) {
	attrs := r.tags(ev.Severity)
	if r.cfg.PrintCode {
		attrs = append(attrs, slog.String("code", ev.Code.String()))
	}
	if r.cfg.PrintCategory && ev.Category != "" {
		attrs = append(attrs, slog.String("category", ev.Category))
	}
	if r.cfg.PrintLocation && ev.Location != "" {
		attrs = append(attrs, slog.String("location", ev.Location))
	}

	switch {
	case ev.Severity >= SeverityError:
		r.logger.Error(ev.Message, attrs...)
	case ev.Severity == SeverityWarning:
		r.logger.Warn(ev.Message, attrs...)
	case ev.Severity == SeverityInfo:
		r.logger.Info(ev.Message, attrs...)
	default:
		r.logger.Debug(ev.Message, attrs...)
	}
}

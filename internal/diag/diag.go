// Package diag collects and renders diagnostics for design files.
package diag

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"hwflat/internal/flat"
)

// Severity classifies a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is one reported problem. Subject is the printed operation or
// object the message is about and may be empty.
type Diagnostic struct {
	File     string
	Severity Severity
	Subject  string
	Message  string
}

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	subjectColor = color.New(color.Faint)
)

// Reporter renders diagnostics as they arrive and counts them. Format is
// "text" or "json". A Reporter and every view returned by WithFile share one
// output and one count, and are safe for concurrent use.
type Reporter struct {
	*sink
	file string
}

type sink struct {
	mu       sync.Mutex
	w        io.Writer
	colored  bool
	log      *logrus.Logger
	errors   int
	warnings int
}

// NewReporter builds a reporter writing to w. Text output is colored when w
// is a terminal.
func NewReporter(w io.Writer, format string) *Reporter {
	s := &sink{w: w}
	if f, ok := w.(*os.File); ok {
		s.colored = term.IsTerminal(int(f.Fd()))
	}
	if format == "json" {
		s.log = logrus.New()
		s.log.SetOutput(w)
		s.log.SetFormatter(&logrus.JSONFormatter{DisableTimestamp: true})
	}
	return &Reporter{sink: s}
}

// WithFile returns a view of r that attributes diagnostics to name.
func (r *Reporter) WithFile(name string) *Reporter {
	return &Reporter{sink: r.sink, file: name}
}

// Error reports an error about subject.
func (r *Reporter) Error(subject, msg string) {
	r.report(Diagnostic{Severity: SeverityError, Subject: subject, Message: msg})
}

// Errorf reports an error without a subject.
func (r *Reporter) Errorf(format string, args ...any) {
	r.report(Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// Warning reports a warning about subject.
func (r *Reporter) Warning(subject, msg string) {
	r.report(Diagnostic{Severity: SeverityWarning, Subject: subject, Message: msg})
}

// Err reports err as an error. Structural violations keep their kind and
// operation context.
func (r *Reporter) Err(err error) {
	if err == nil {
		return
	}
	var v *flat.Violation
	if errors.As(err, &v) {
		r.Error(v.Op, fmt.Sprintf("%s: %s", v.Kind, v.Detail))
		return
	}
	r.Errorf("%v", err)
}

// HasErrors reports whether any error was reported.
func (r *Reporter) HasErrors() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors > 0
}

// Count returns the number of errors and warnings reported so far.
func (r *Reporter) Count() (errs, warnings int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors, r.warnings
}

func (r *Reporter) report(d Diagnostic) {
	if d.File == "" {
		d.File = r.file
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	switch d.Severity {
	case SeverityWarning:
		r.warnings++
	default:
		r.errors++
	}
	if r.log != nil {
		r.emitJSON(d)
		return
	}
	r.emitText(d)
}

func (r *sink) emitJSON(d Diagnostic) {
	fields := logrus.Fields{}
	if d.File != "" {
		fields["file"] = d.File
	}
	if d.Subject != "" {
		fields["op"] = d.Subject
	}
	entry := r.log.WithFields(fields)
	if d.Severity == SeverityWarning {
		entry.Warn(d.Message)
		return
	}
	entry.Error(d.Message)
}

func (r *sink) emitText(d Diagnostic) {
	label := d.Severity.String()
	if r.colored {
		c := errorColor
		if d.Severity == SeverityWarning {
			c = warningColor
		}
		label = c.Sprint(label)
	}
	prefix := ""
	if d.File != "" {
		prefix = d.File + ": "
	}
	fmt.Fprintf(r.w, "%s%s: %s\n", prefix, label, d.Message)
	if d.Subject == "" {
		return
	}
	subject := d.Subject
	if r.colored {
		subject = subjectColor.Sprint(subject)
	}
	fmt.Fprintf(r.w, "\tin: %s\n", subject)
}

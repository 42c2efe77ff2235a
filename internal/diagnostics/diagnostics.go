// Package diagnostics implements the pipeline-wide, append-only error
// reporting list described by the export pipeline's failure semantics.
//
// No stage returns early on the first problem it finds the way a typical
// validator does; instead every stage appends structured Diagnostic values
// to a List passed down by reference, and the pipeline checks List.HasErrors
// at well-defined gates between stages.
package diagnostics

import "fmt"

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single structured error or warning produced during export.
// Code is a stable string such as "export/keys/duplicate".
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	TableID  string
	ColumnID string
}

func (d Diagnostic) String() string {
	loc := ""
	switch {
	case d.TableID != "" && d.ColumnID != "":
		loc = fmt.Sprintf(" [table=%s column=%s]", d.TableID, d.ColumnID)
	case d.TableID != "":
		loc = fmt.Sprintf(" [table=%s]", d.TableID)
	}
	return fmt.Sprintf("%s: %s: %s%s", d.Severity, d.Code, d.Message, loc)
}

// List is an append-only diagnostics sink. The zero value is ready to use.
// A List is never aliased outside the pipeline invocation that owns it.
type List struct {
	items []Diagnostic
}

// Errorf appends an Error-severity diagnostic with a formatted message.
func (l *List) Errorf(code, tableID, columnID, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Severity: SeverityError,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		TableID:  tableID,
		ColumnID: columnID,
	})
}

// Warnf appends a Warning-severity diagnostic with a formatted message.
func (l *List) Warnf(code, tableID, columnID, format string, args ...any) {
	l.items = append(l.items, Diagnostic{
		Severity: SeverityWarning,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		TableID:  tableID,
		ColumnID: columnID,
	})
}

// Add appends a pre-built Diagnostic.
func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

// HasErrors reports whether any appended Diagnostic is Error severity. This
// is the only control-flow coupling between pipeline stages: every gate
// checks HasErrors and short-circuits the remaining stages when it is true.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Items returns the diagnostics collected so far, in append order.
func (l *List) Items() []Diagnostic {
	return l.items
}

// Len returns the number of diagnostics collected so far.
func (l *List) Len() int {
	return len(l.items)
}

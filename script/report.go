package script

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Status is the verdict of one command.
type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
	StatusSkip Status = "skip"
)

// Result is the verdict of one script command.
type Result struct {
	Name   string
	Line   int
	Status Status
	Detail string
}

// Report collects the verdicts of one script file.
type Report struct {
	ID      uuid.UUID
	File    string
	Results []Result
}

// NewReport creates an empty report with a fresh run ID.
func NewReport(file string) *Report {
	return &Report{ID: uuid.New(), File: file}
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
}

// Counts tallies the verdicts.
func (r *Report) Counts() (pass, fail, skip int) {
	for _, res := range r.Results {
		switch res.Status {
		case StatusPass:
			pass++
		case StatusFail:
			fail++
		case StatusSkip:
			skip++
		}
	}
	return pass, fail, skip
}

// Failed reports whether any command failed.
func (r *Report) Failed() bool {
	_, fail, _ := r.Counts()
	return fail > 0
}

// Render formats the report as text, one line per command plus totals. The
// run ID is deliberately left out so renderings are reproducible.
func (r *Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", r.File)
	for _, res := range r.Results {
		fmt.Fprintf(&b, "  %s %s (line %d)", res.Status, res.Name, res.Line)
		if res.Detail != "" {
			fmt.Fprintf(&b, ": %s", res.Detail)
		}
		b.WriteByte('\n')
	}

	pass, fail, skip := r.Counts()
	fmt.Fprintf(&b, "%d passed, %d failed, %d skipped\n", pass, fail, skip)
	return b.String()
}

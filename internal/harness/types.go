package harness

// StatementTrace records one executed step.
type StatementTrace struct {
	Seq   int      `json:"seq"`
	SQL   string   `json:"sql"`
	Rows  []string `json:"rows"`
	Error string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every step met its expectation.
	Pass bool `json:"pass"`

	// Trace holds the executed steps in order, with SQL as written in the
	// scenario (before variable expansion) so traces are stable across runs.
	Trace []StatementTrace `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []StatementTrace{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStatement appends a step to the trace.
func (r *Result) AddStatement(sql string, rows []string, errLabel string) {
	if rows == nil {
		rows = []string{}
	}
	r.Trace = append(r.Trace, StatementTrace{
		Seq:   len(r.Trace) + 1,
		SQL:   sql,
		Rows:  rows,
		Error: errLabel,
	})
}

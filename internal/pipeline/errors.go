package pipeline

import "fmt"

// ErrorKind classifies where and why a run stopped early.
type ErrorKind string

const (
	KindSchemaFetch   ErrorKind = "SCHEMA_FETCH_FAILED"
	KindIntent        ErrorKind = "INTENT_FAILED"
	KindSQLGeneration ErrorKind = "GENERATION_FAILED"
	KindBlocked       ErrorKind = "QUERY_BLOCKED"
	KindExecution     ErrorKind = "EXECUTION_FAILED"
	KindAnswer        ErrorKind = "ANSWER_FAILED"
	KindTimeout       ErrorKind = "TIMEOUT"
)

// StageError is the terminal error of one pipeline run. Reason carries the
// firewall verdict code for blocked queries and is empty otherwise.
type StageError struct {
	Stage   string
	Kind    ErrorKind
	Reason  string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.Kind, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }

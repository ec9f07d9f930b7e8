package harvest

import (
	"fmt"
	"time"
)

// Status tags which variant of Record is populated.
type Status string

// Record status values as they appear in the output artifact.
const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ErrorKind classifies a failed lookup.
type ErrorKind string

// Failure kinds. KindSearchFailure never appears on a Record; it is reserved
// for the fatal search error surfaced by the dispatcher.
const (
	KindNone           ErrorKind = ""
	KindNotFound       ErrorKind = "not_found"
	KindDisambiguation ErrorKind = "disambiguation"
	KindUnknown        ErrorKind = "unknown"
	KindSearchFailure  ErrorKind = "search_failure"
)

// Mode selects which runners execute.
type Mode string

// Supported execution modes.
const (
	ModeSequential Mode = "sequential"
	ModeConcurrent Mode = "concurrent"
	ModeBoth       Mode = "both"
)

// ParseMode validates a user supplied mode string.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(raw); m {
	case ModeSequential, ModeConcurrent, ModeBoth:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want sequential, concurrent or both)", raw)
	}
}

// Includes reports whether running in m executes the runner named by other.
func (m Mode) Includes(other Mode) bool {
	return m == other || m == ModeBoth
}

// Page is what the collaborator returns for an unambiguous lookup.
type Page struct {
	Title      string
	References []string
}

// Record is the per-topic outcome. Exactly one of the success payload
// (PageTitle, References) or the failure payload (Kind, Error) is meaningful,
// selected by Status.
type Record struct {
	Topic      string
	Status     Status
	PageTitle  string
	References []string
	Kind       ErrorKind
	Error      string
}

// Success builds a success record. A nil reference list is normalised to an
// empty one so the artifact always carries an array.
func Success(topic, title string, references []string) Record {
	if references == nil {
		references = []string{}
	}
	return Record{
		Topic:      topic,
		Status:     StatusSuccess,
		PageTitle:  title,
		References: references,
	}
}

// Failure builds a failure record.
func Failure(topic string, kind ErrorKind, message string) Record {
	return Record{
		Topic:  topic,
		Status: StatusError,
		Kind:   kind,
		Error:  message,
	}
}

// OK reports whether r is a success record.
func (r Record) OK() bool {
	return r.Status == StatusSuccess
}

// Report is the output of one runner.
type Report struct {
	Mode    Mode
	Records []Record
	Elapsed time.Duration
}

// Counts returns the number of success and failure records in the report.
func (r Report) Counts() (successes, failures int) {
	for _, rec := range r.Records {
		if rec.OK() {
			successes++
		} else {
			failures++
		}
	}
	return successes, failures
}

package harvest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPageNotFound is returned by a PageFetcher when no page matches the topic.
var ErrPageNotFound = errors.New("page not found")

// DisambiguationError is returned by a PageFetcher when the topic resolves to
// a disambiguation page.
type DisambiguationError struct {
	Title   string
	Options []string
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("%q may refer to: %s", e.Title, strings.Join(e.Options, ", "))
}

// SearchError wraps the remote failure of the initial search. It is the only
// collaborator error that aborts a run.
type SearchError struct {
	Query string
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %q: %v", e.Query, e.Err)
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Kind always reports KindSearchFailure.
func (e *SearchError) Kind() ErrorKind {
	return KindSearchFailure
}

// Failure messages written to the artifact.
const (
	notFoundMessage       = "PageError: Could not find page."
	disambiguationPrefix  = "DisambiguationError: "
	unexpectedErrorPrefix = "An unexpected error occurred: "
)

// FailureFromError converts a collaborator error into a failure record.
func FailureFromError(topic string, err error) Record {
	var dis *DisambiguationError
	switch {
	case errors.Is(err, ErrPageNotFound):
		return Failure(topic, KindNotFound, notFoundMessage)
	case errors.As(err, &dis):
		return Failure(topic, KindDisambiguation, disambiguationMessage(dis.Options))
	default:
		return Failure(topic, KindUnknown, unexpectedErrorPrefix+err.Error())
	}
}

func disambiguationMessage(options []string) string {
	quoted := make([]string, len(options))
	for i, opt := range options {
		quoted[i] = quoteOption(opt)
	}
	return disambiguationPrefix + "Options are: [" + strings.Join(quoted, ", ") + "]"
}

// quoteOption renders opt the way a list literal shows a string: single
// quotes unless opt holds a single quote and no double quote.
func quoteOption(opt string) string {
	q := "'"
	if strings.Contains(opt, "'") && !strings.Contains(opt, `"`) {
		q = `"`
	}
	var b strings.Builder
	b.WriteString(q)
	for _, r := range opt {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case string(r) == q:
			b.WriteString(`\` + q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(q)
	return b.String()
}

// kindFromMessage recovers the failure kind of a decoded record.
func kindFromMessage(message string) ErrorKind {
	switch {
	case strings.HasPrefix(message, "PageError:"):
		return KindNotFound
	case strings.HasPrefix(message, disambiguationPrefix):
		return KindDisambiguation
	default:
		return KindUnknown
	}
}

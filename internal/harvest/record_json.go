package harvest

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type successJSON struct {
	Topic      string   `json:"topic"`
	PageTitle  string   `json:"page_title"`
	References []string `json:"references"`
	Status     Status   `json:"status"`
}

type failureJSON struct {
	Topic  string `json:"topic"`
	Error  string `json:"error"`
	Status Status `json:"status"`
}

type recordJSON struct {
	Topic      string   `json:"topic"`
	PageTitle  string   `json:"page_title"`
	References []string `json:"references"`
	Error      string   `json:"error"`
	Status     Status   `json:"status"`
}

// MarshalJSON emits only the fields of the populated variant.
func (r Record) MarshalJSON() ([]byte, error) {
	var v any
	switch r.Status {
	case StatusSuccess:
		refs := r.References
		if refs == nil {
			refs = []string{}
		}
		v = successJSON{Topic: r.Topic, PageTitle: r.PageTitle, References: refs, Status: StatusSuccess}
	case StatusError:
		v = failureJSON{Topic: r.Topic, Error: r.Error, Status: StatusError}
	default:
		return nil, fmt.Errorf("record %q has unknown status %q", r.Topic, r.Status)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode record %q: %w", r.Topic, err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// UnmarshalJSON decodes either variant.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	switch raw.Status {
	case StatusSuccess:
		*r = Success(raw.Topic, raw.PageTitle, raw.References)
	case StatusError:
		*r = Failure(raw.Topic, kindFromMessage(raw.Error), raw.Error)
	default:
		return fmt.Errorf("record %q has unknown status %q", raw.Topic, raw.Status)
	}
	return nil
}

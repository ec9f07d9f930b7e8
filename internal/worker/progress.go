package worker

import (
	"fmt"
	"io"
	"time"

	"github.com/JakeFAU/wikirefs/internal/harvest"
)

// section describes the banners printed around a run.
type section struct {
	label string
	verb  string
	// leadingBlank separates this section from any output printed before it.
	leadingBlank bool
}

var (
	sequentialSection = section{label: "A", verb: "Sequentially"}
	concurrentSection = section{label: "B", verb: "Concurrently", leadingBlank: true}
)

// progress writes the human-readable run transcript.
type progress struct {
	out io.Writer
	sec section
}

func newProgress(out io.Writer, sec section) *progress {
	if out == nil {
		out = io.Discard
	}
	return &progress{out: out, sec: sec}
}

func (p *progress) start() {
	prefix := ""
	if p.sec.leadingBlank {
		prefix = "\n"
	}
	fmt.Fprintf(p.out, "%s--- Starting Section %s: %s download wikipedia content ---\n", prefix, p.sec.label, p.sec.verb)
}

func (p *progress) record(rec harvest.Record) {
	if rec.OK() {
		fmt.Fprintf(p.out, "Successfully processed: %s\n", rec.Topic)
		return
	}
	fmt.Fprintf(p.out, "Failed to process %s: %s\n", rec.Topic, rec.Error)
}

func (p *progress) panicked(topic string, cause any) {
	fmt.Fprintf(p.out, "%s generated an exception: %v\n", topic, cause)
}

func (p *progress) finish(elapsed time.Duration) {
	fmt.Fprintf(p.out, "Section %s execution time: %.2f seconds\n", p.sec.label, elapsed.Seconds())
	fmt.Fprintf(p.out, "--- Finished Section %s ---\n", p.sec.label)
}

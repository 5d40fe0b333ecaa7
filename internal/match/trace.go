// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package match

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdiddy/doi-enricher/pkg/types"
)

// WriterTrace returns a TraceFunc that prints each candidate and its checks
// to w. Each candidate is written with a single Write, so lines stay whole
// when w is a locking writer shared with other goroutines.
func WriterTrace(w io.Writer) TraceFunc {
	return func(rec types.SourceRecord, t CandidateTrace) {
		var b bytes.Buffer
		fmt.Fprintf(&b, "    [%s] cand %s %q (type=%s, sim=%.3f) -> %s",
			rec.ID, t.Identifier, t.Title, t.Type, t.Similarity, t.Verdict)
		if t.Reason != "" {
			fmt.Fprintf(&b, " (%s)", t.Reason)
		}
		b.WriteByte('\n')
		for _, c := range t.Checks {
			fmt.Fprintf(&b, "        %s %s: source=%q candidate=%q", checkMark(c.Result), c.Field, c.Source, c.Candidate)
			if c.Partial {
				b.WriteString(" (partial)")
			}
			b.WriteByte('\n')
		}
		w.Write(b.Bytes())
	}
}

func checkMark(r CheckResult) string {
	switch r {
	case Match:
		return "✓"
	case Mismatch:
		return "✗"
	default:
		return "·"
	}
}

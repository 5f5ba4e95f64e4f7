// Package examine prints and browses generated question files.
package examine

import (
	"fmt"
	"io"
	"strings"

	"github.com/tensorplex-labs/clevr-action/internal/dataset"
	"github.com/tensorplex-labs/clevr-action/internal/program"
	"github.com/tensorplex-labs/clevr-action/internal/synth"
)

// Load reads a question file, compressed or not.
func Load(path string) (*synth.File, error) {
	var f synth.File
	if err := dataset.ReadJSON(path, &f); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return &f, nil
}

// Line formats one question as "image: answer question" with the answer
// padded to 15 columns.
func Line(q synth.Question) string {
	return fmt.Sprintf("%s: %-15s %s", q.ImageFilename, answer(q.Answer), q.Question)
}

// Print writes one Line per question.
func Print(w io.Writer, questions []synth.Question) error {
	for _, q := range questions {
		if _, err := fmt.Fprintln(w, Line(q)); err != nil {
			return err
		}
	}
	return nil
}

// answer formats a decoded answer; integers come back from JSON as float64.
func answer(a any) string {
	switch v := a.(type) {
	case string:
		return v
	case nil:
		return ""
	case float64, int, int64:
		return program.AnswerKey(v)
	}
	return fmt.Sprint(a)
}

// Trace renders a program one step per line.
func Trace(steps []program.Step) string {
	var sb strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&sb, "%2d  %-22s", i, s.Type)
		if len(s.Inputs) > 0 {
			fmt.Fprintf(&sb, " %v", s.Inputs)
		}
		if len(s.ValueInputs) > 0 {
			fmt.Fprintf(&sb, " %s", strings.Join(s.ValueInputs, ", "))
		}
		sb.WriteByte('\n')
	}
	return strings.TrimRight(sb.String(), "\n")
}

package models

import (
	"fmt"
	"strings"
	"time"
)

// Submission is the immutable record produced when a session completes.
// Responses keep the survey's item order and include only valid answers.
type Submission struct {
	Identifier     string
	SubmissionDate time.Time
	Responses      []Response
}

// Response returns the response for the given item identifier.
func (s Submission) Response(itemID string) (Response, bool) {
	for _, r := range s.Responses {
		if r.ItemID() == itemID {
			return r, true
		}
	}
	return nil, false
}

func (s Submission) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission(%s", s.SubmissionDate.Format(time.RFC3339))
	if s.Identifier != "" {
		fmt.Fprintf(&b, ", %s", s.Identifier)
	}
	b.WriteString(")")
	for _, r := range s.Responses {
		fmt.Fprintf(&b, "\n  %s [%s]: %s", r.ItemID(), r.Kind(), r.ValueDescription())
	}
	return b.String()
}

package main

import (
	"fmt"
)

// Event is published on the run publisher for every milestone of a
// pass. Events are informational only; nothing in the pipeline reads
// them back.
type Event struct {
	Msg      string   `json:"msg"`
	Category Category `json:"category"`
	Source   string   `json:"source,omitempty"`
	Domain   string   `json:"domain,omitempty"`
	Stats    *Stats   `json:"stats,omitempty"`
}

func (e *Event) String() string {
	src := ""
	if e.Source != "" {
		src = fmt.Sprintf(" | source: %s;", e.Source)
	}

	domain := ""
	if e.Domain != "" {
		domain = fmt.Sprintf(" | domain: %s;", e.Domain)
	}

	stats := ""
	if e.Stats != nil {
		stats = fmt.Sprintf(" | %s", e.Stats)
	}

	return fmt.Sprintf(
		"%s: %s%s%s%s",
		e.Category,
		e.Msg,
		src,
		domain,
		stats,
	)
}

func (e *Event) Event() string {
	return e.String()
}

package main

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDomain is returned for strings that are not syntactically
	// valid domain names. The offending line is skipped.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrAmbiguous is returned when the public suffix list cannot place
	// a registrable boundary in the domain. Treated like ErrInvalidDomain.
	ErrAmbiguous = errors.New("ambiguous classification")

	// ErrSourceUnavailable marks a source that could not be read. The
	// source contributes nothing to the run.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrUnknownGrammar is a configuration error and is always fatal.
	ErrUnknownGrammar = errors.New("unknown grammar")
)

// checkNil checks if any of the provided values are nil and returns
// an error if they are.
func checkNil(values ...any) error {
	for _, value := range values {
		if value == nil {
			return fmt.Errorf("nil value of type %T", value)
		}
	}

	return nil
}

type Category string

const (
	ALLOW    Category = "allow"
	BLOCK    Category = "block"
	TLDS     Category = "tld"
	SOURCE   Category = "source"
	COLLAPSE Category = "collapse"
	SINK     Category = "sink"
)

func (c Category) String() string {
	return string(c)
}

type Error struct {
	Msg      string   `json:"msg"`
	Inner    error    `json:"inner,omitempty"`
	Source   string   `json:"source,omitempty"`
	Domain   string   `json:"domain,omitempty"`
	Category Category `json:"category,omitempty"`
}

func (e Error) String() string {
	msg := e.Msg
	if e.Inner != nil {
		msg = fmt.Sprintf("%s: %s", e.Msg, e.Inner)
	}

	if e.Domain != "" {
		msg = fmt.Sprintf("%s | %s", e.Domain, msg)
	}

	if e.Source != "" {
		msg = fmt.Sprintf("%s | %s", e.Source, msg)
	}

	if e.Category != "" {
		msg = fmt.Sprintf("%s | %s", e.Category, msg)
	}

	return msg
}

func (e Error) Error() string {
	return e.String()
}

func (e Error) Unwrap() error {
	return e.Inner
}

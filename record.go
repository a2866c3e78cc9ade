package main

import (
	"encoding/json"
	"fmt"
)

// separator terminates every sort key so that example.com never shares
// a prefix with notexample.com.
const separator = "."

// Entry is a domain accepted into the blocklist. The Key is the domain
// reversed character by character plus a trailing separator, which turns
// "is a subdomain of" into "has as a prefix".
type Entry struct {
	Key     string
	Domain  string
	Comment string
	Source  string
}

// NewEntry builds the entry for domain with its sort key.
func NewEntry(domain, comment, source string) Entry {
	return Entry{
		Key:     SortKey(domain),
		Domain:  domain,
		Comment: comment,
		Source:  source,
	}
}

// SortKey returns the reversed domain with the boundary separator
// appended: ads.example.com -> moc.elpmaxe.sda.
func SortKey(domain string) string {
	r := []rune(domain)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}

	return string(r) + separator
}

func (e Entry) String() string {
	comment := ""
	if e.Comment != "" {
		comment = fmt.Sprintf(" | comment (%s)", e.Comment)
	}

	return fmt.Sprintf("src: %s | %s%s", e.Source, e.Domain, comment)
}

// MarshalJSON implements the json.Marshaler interface.
func (e Entry) MarshalJSON() ([]byte, error) {
	d := struct {
		Domain  string `json:"domain"`
		Source  string `json:"source,omitempty"`
		Comment string `json:"comment,omitempty"`
	}{
		Domain:  e.Domain,
		Source:  e.Source,
		Comment: e.Comment,
	}

	return json.Marshal(d)
}

// UnmarshalJSON implements the json.Unmarshaler interface. The sort key
// is derived again from the domain.
func (e *Entry) UnmarshalJSON(data []byte) error {
	d := struct {
		Domain  string `json:"domain"`
		Source  string `json:"source"`
		Comment string `json:"comment"`
	}{}

	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}

	*e = NewEntry(d.Domain, d.Comment, d.Source)

	return nil
}

// Entries is a slice of Entry ordered by sort key.
type Entries []Entry

func (e Entries) Len() int {
	return len(e)
}

func (e Entries) Less(i, j int) bool {
	return e[i].Key < e[j].Key
}

func (e Entries) Swap(i, j int) {
	e[i], e[j] = e[j], e[i]
}

// Domains returns the domain names in their current order.
func (e Entries) Domains() []string {
	out := make([]string, 0, len(e))
	for _, entry := range e {
		out = append(out, entry.Domain)
	}

	return out
}

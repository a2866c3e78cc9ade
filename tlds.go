package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

const (
	// TLDSOURCE is the source name of the synthetic TLD entries.
	TLDSOURCE = "bl_tld"

	// WHITELIST is the source name of user allow rows.
	WHITELIST = "whitelist"

	// USERBLACKLIST is the source name of the user block list.
	USERBLACKLIST = "bl_usersblacklist"
)

type Risk string

const (
	HIGH Risk = "high"
	LOW  Risk = "low"
)

// ParseRisk accepts the named levels and the numeric form of the bundled
// table where 1 is high risk. Everything else is low.
func ParseRisk(s string) Risk {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "high":
		return HIGH
	default:
		return LOW
	}
}

// TLDRow is one row of the TLD risk table.
type TLDRow struct {
	TLD         string `json:"tld"`
	Description string `json:"description"`
	Risk        Risk   `json:"risk"`
}

// TLDTable is the ordered TLD risk table. Each TLD appears once.
type TLDTable []TLDRow

// ReadTLDTable reads `tld,description,risk` rows. A repeated TLD replaces
// the earlier row in place. Rows which do not parse are skipped.
func ReadTLDTable(in io.Reader) (TLDTable, error) {
	r := csv.NewReader(in)
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	r.LazyQuotes = true

	table := TLDTable{}
	seen := map[string]int{}
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			continue
		}

		if err != nil {
			return nil, Error{
				Msg:      "invalid tld table",
				Inner:    err,
				Category: TLDS,
			}
		}

		if len(rec) < 3 {
			continue
		}

		tld := normalizeTLD(rec[0])
		if tld == "" {
			continue
		}

		row := TLDRow{
			TLD:         tld,
			Description: strings.TrimSpace(rec[1]),
			Risk:        ParseRisk(rec[2]),
		}

		if i, ok := seen[tld]; ok {
			table[i] = row
			continue
		}

		seen[tld] = len(table)
		table = append(table, row)
	}

	return table, nil
}

var tldLineReg = regexp.MustCompile(`^\.?([\p{L}\p{N}\-]{1,63}(?:\.[\p{L}\p{N}\-]{1,63})*)\s*(?:#.*)?$`)

// TLDSet is a user TLD override list.
type TLDSet map[string]struct{}

func (s TLDSet) Has(tld string) bool {
	_, ok := s[tld]
	return ok
}

// ReadTLDList reads a user TLD override list. Each line holds one TLD
// with an optional leading dot and trailing comment.
func ReadTLDList(in io.Reader) (TLDSet, error) {
	set := TLDSet{}

	_, err := eachLine(in, func(line string) {
		m := tldLineReg.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return
		}

		set[normalizeTLD(m[1])] = struct{}{}
	})
	if err != nil {
		return nil, Error{
			Msg:      "invalid tld list",
			Inner:    err,
			Category: TLDS,
		}
	}

	return set, nil
}

func normalizeTLD(tld string) string {
	tld = strings.Trim(strings.TrimSpace(tld), ".")
	if tld == "" {
		return ""
	}

	n, err := Normalize(tld)
	if err != nil {
		return ""
	}

	return n
}

// TLDPolicy is the input of the TLD pass.
type TLDPolicy struct {
	Table TLDTable

	// Deny blocks low risk TLDs, Allow keeps high risk TLDs open.
	Deny  TLDSet
	Allow TLDSet
}

// Blocked reports whether the row is blocked under the policy.
func (p TLDPolicy) Blocked(row TLDRow) bool {
	if row.Risk == HIGH {
		return !p.Allow.Has(row.TLD)
	}

	return p.Deny.Has(row.TLD)
}

// ProcessTLDs blocks every TLD the policy selects, then reconciles the
// allow-set against the blocked TLDs. It returns the number of TLDs
// blocked. The allow-set is empty afterwards.
func (r *IngestionRun) ProcessTLDs(p TLDPolicy) int {
	blocked := 0
	for _, row := range p.Table {
		if !p.Blocked(row) {
			continue
		}

		if r.blockTLD(row.TLD, row.Description) {
			blocked++
		}
	}

	r.publish(&Event{
		Msg:      fmt.Sprintf("blocked %d top level domains", blocked),
		Category: TLDS,
	})

	r.reconcile()

	return blocked
}

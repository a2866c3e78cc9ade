package main

import (
	"context"
	"fmt"
	"strings"
)

// Lookup finds the stored row for an exact site.
type Lookup func(ctx context.Context, site string) (Row, bool, error)

// Reason explains why a domain is blocked.
type Reason struct {
	Query   string `json:"query"`
	Site    string `json:"site"`
	Source  string `json:"source"`
	Comment string `json:"comment,omitempty"`
	Allowed bool   `json:"allowed"`
}

func (r Reason) String() string {
	verb := "blocked"
	if r.Allowed {
		verb = "allowed"
	}

	if r.Site == r.Query {
		return fmt.Sprintf("%s %s by %s", r.Query, verb, r.Source)
	}

	return fmt.Sprintf("%s %s by %s via %s", r.Query, verb, r.Source, r.Site)
}

// Search looks up domain itself, then each parent down to the registrable
// domain and finally its TLD. The first stored site wins.
func Search(
	ctx context.Context,
	lookup Lookup,
	classifier Classifier,
	domain string,
) (Reason, bool, error) {
	query, err := Normalize(domain)
	if err != nil {
		return Reason{}, false, err
	}

	candidates := []string{query}
	d, err := classifier.Classify(query)
	if err == nil {
		name := query
		for name != d.Registrable {
			_, parent, found := strings.Cut(name, separator)
			if !found {
				break
			}

			name = parent
			candidates = append(candidates, name)
		}

		for tld := d.TLD; tld != ""; _, tld, _ = strings.Cut(tld, separator) {
			candidates = append(candidates, tld)
		}
	}

	for _, site := range candidates {
		row, ok, err := lookup(ctx, site)
		if err != nil {
			return Reason{}, false, err
		}

		if !ok {
			continue
		}

		return Reason{
			Query:   query,
			Site:    row.Domain,
			Source:  row.Source,
			Comment: row.Comment,
			Allowed: row.Source == WHITELIST,
		}, true, nil
	}

	return Reason{}, false, nil
}

// ResultLookup serves lookups from the rows of a finished pass.
func ResultLookup(res Result) Lookup {
	rows := make(map[string]Row, len(res.Rows))
	for _, r := range res.Rows {
		if _, ok := rows[r.Domain]; !ok {
			rows[r.Domain] = r
		}
	}

	return func(_ context.Context, site string) (Row, bool, error) {
		r, ok := rows[site]
		return r, ok, nil
	}
}

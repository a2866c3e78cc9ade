package main

import (
	"strings"
	"sync"
)

// Verdict is the outcome of offering a candidate to the Index.
type Verdict uint8

const (
	ADMITTED Verdict = iota
	DUPLICATE
	TLDBLOCKED
	ALLOWED
	INVALID
)

var verdictStrings = map[Verdict]string{
	ADMITTED:   "admitted",
	DUPLICATE:  "duplicate",
	TLDBLOCKED: "tld-blocked",
	ALLOWED:    "allowed",
	INVALID:    "invalid",
}

func (v Verdict) String() string {
	return verdictStrings[v]
}

// Index holds the registrable domains and TLDs blocked so far in a run
// along with the domains the user has permitted. Every admit and query
// goes through it so the invariants live in one place.
//
// A registrable domain only enters the blocked set when it was admitted
// as itself. Admitting sub.example.com leaves example.com open so that a
// later other.example.com is still recorded and left to Collapse.
type Index struct {
	classifier Classifier

	mu        sync.RWMutex
	domains   map[string]struct{}
	tlds      map[string]struct{}
	permitted map[string]struct{}
}

// NewIndex returns an empty index which classifies candidates with c.
func NewIndex(c Classifier) *Index {
	if c == nil {
		c = PSL{}
	}

	return &Index{
		classifier: c,
		domains:    make(map[string]struct{}),
		tlds:       make(map[string]struct{}),
		permitted:  make(map[string]struct{}),
	}
}

// Admit classifies domain and decides whether it belongs in the blocklist.
// The returned Domain is only meaningful when the verdict is not INVALID.
func (i *Index) Admit(domain string) (Domain, Verdict) {
	d, err := i.classifier.Classify(domain)
	if err != nil {
		return Domain{}, INVALID
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.permittedLocked(d) {
		return d, ALLOWED
	}

	if _, ok := i.domains[d.Registrable]; ok {
		return d, DUPLICATE
	}

	if i.tldBlockedLocked(d.TLD) {
		return d, TLDBLOCKED
	}

	if d.IsRegistrable() {
		i.domains[d.Registrable] = struct{}{}
	}

	return d, ADMITTED
}

// permittedLocked reports whether the domain or any of its ancestors down
// to the registrable domain was permitted by the user.
func (i *Index) permittedLocked(d Domain) bool {
	if len(i.permitted) == 0 {
		return false
	}

	name := d.Name
	for {
		if _, ok := i.permitted[name]; ok {
			return true
		}

		if name == d.Registrable {
			return false
		}

		_, parent, found := strings.Cut(name, separator)
		if !found || len(parent) < len(d.Registrable) {
			return false
		}
		name = parent
	}
}

// Permit marks domain and its subdomains as never blocked for the rest of
// the run.
func (i *Index) Permit(domain string) {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.permitted[domain] = struct{}{}
}

// BlockTLD adds tld to the blocked TLDs. It reports false when the TLD
// was already blocked.
func (i *Index) BlockTLD(tld string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.tlds[tld]; ok {
		return false
	}

	i.tlds[tld] = struct{}{}
	return true
}

// TLDBlocked reports whether every domain under tld is blocked, either
// by tld itself or by one of its parents (co.uk under uk).
func (i *Index) TLDBlocked(tld string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.tldBlockedLocked(tld)
}

func (i *Index) tldBlockedLocked(tld string) bool {
	for tld != "" {
		if _, ok := i.tlds[tld]; ok {
			return true
		}

		_, tld, _ = strings.Cut(tld, separator)
	}

	return false
}

// Classify exposes the index classifier to the rest of the run.
func (i *Index) Classify(domain string) (Domain, error) {
	return i.classifier.Classify(domain)
}

// Len returns the number of blocked registrable domains and TLDs.
func (i *Index) Len() (domains, tlds int) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return len(i.domains), len(i.tlds)
}

package main

import (
	"regexp"
	"strings"
)

// domainToken is the loosest shape of a domain accepted from a list line:
// dotted letters, digits, '_' and '-' ending in a label of at least two
// characters. Finer validation is left to the classifier.
const domainToken = `[\p{L}\p{N}_.\-]{1,253}\.[\p{L}\p{N}_\-]{2,63}`

var (
	plainReg    = regexp.MustCompile(`^` + domainToken + `$`)
	adFilterReg = regexp.MustCompile(`^\|\|(` + domainToken + `)\^(?:\$(.*))?$`)
)

// Candidate is a domain extracted from one list line, before it is
// checked against the dedup index.
type Candidate struct {
	Domain  string
	Comment string
}

// Matcher recognizes one blocklist line grammar. Match never yields more
// than one candidate per line.
type Matcher interface {
	Match(line string) (Candidate, bool)
}

// MatchFunc adapts a function to the Matcher interface.
type MatchFunc func(line string) (Candidate, bool)

func (f MatchFunc) Match(line string) (Candidate, bool) {
	return f(line)
}

// candidate normalizes the extracted domain; a token that cannot be
// normalized is reported as no match.
func candidate(domain, comment string) (Candidate, bool) {
	d, err := Normalize(domain)
	if err != nil {
		return Candidate{}, false
	}

	return Candidate{Domain: d, Comment: comment}, true
}

// splitComment splits line at the first '#' returning the trimmed
// content and comment.
func splitComment(line string) (string, string) {
	content, comment, found := strings.Cut(line, "#")
	if !found {
		return strings.TrimSpace(line), ""
	}

	return strings.TrimSpace(content), strings.TrimSpace(comment)
}

// Plain matches `domain[ #comment]`. Blank lines and comment-only lines
// have an empty domain field and are ignored.
type Plain struct{}

func (Plain) Match(line string) (Candidate, bool) {
	domain, comment := splitComment(line)
	if domain == "" || !plainReg.MatchString(domain) {
		return Candidate{}, false
	}

	return candidate(domain, comment)
}

// adFilterOptions are the Adblock Plus options which still mean "block
// the whole domain". Any other option narrows the rule to something a
// DNS sink cannot express, so the line is skipped.
var adFilterOptions = map[string]struct{}{
	"third-party": {},
	"3p":          {},
	"popup":       {},
	"important":   {},
	"all":         {},
	"document":    {},
	"doc":         {},
}

// AdFilter matches Adblock Plus style domain anchors `||domain^` with an
// optional `$option[,option]` tail.
//
// https://adblockplus.org/filter-cheatsheet
type AdFilter struct{}

func (AdFilter) Match(line string) (Candidate, bool) {
	matches := adFilterReg.FindStringSubmatch(strings.TrimSpace(line))
	if matches == nil {
		return Candidate{}, false
	}

	if strings.HasSuffix(matches[0], "$") {
		return Candidate{}, false
	}

	if matches[2] != "" {
		for _, opt := range strings.Split(matches[2], ",") {
			if _, ok := adFilterOptions[strings.TrimSpace(opt)]; !ok {
				return Candidate{}, false
			}
		}
	}

	return candidate(matches[1], "")
}

// defangReplacer restores the literal dots of a defanged domain.
var defangReplacer = strings.NewReplacer(
	"[.]", ".",
	"(.)", ".",
	"{.}", ".",
	"[dot]", ".",
	"(dot)", ".",
)

var defangedSchemes = []string{
	"hxxps[:]//", "hxxp[:]//", "hxxps://", "hxxp://",
	"https[:]//", "http[:]//", "https://", "http://",
	"fxp[:]//", "fxp://", "ftp://",
}

// Defanged matches indicator-feed style domains whose dots are written
// as `[.]` (or a similar bracketed marker) so they do not render as
// links, e.g. `hxxps://evil[.]example[.]com/path`.
type Defanged struct{}

func (Defanged) Match(line string) (Candidate, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Candidate{}, false
	}

	token := strings.ToLower(fields[0])
	for _, scheme := range defangedSchemes {
		if strings.HasPrefix(token, scheme) {
			token = token[len(scheme):]
			break
		}
	}

	restored := defangReplacer.Replace(token)
	if restored == token {
		return Candidate{}, false
	}

	if i := strings.IndexAny(restored, "/:"); i != -1 {
		restored = restored[:i]
	}

	if !plainReg.MatchString(restored) {
		return Candidate{}, false
	}

	return candidate(restored, "")
}

// Custom is used for lists of unknown grammar. Each matcher is tried in
// order and the first match wins.
type Custom []Matcher

// AutoDetect is the fixed priority for lists of unknown grammar.
var AutoDetect = Custom{Plain{}, AdFilter{}, Hosts{}, Defanged{}}

func (c Custom) Match(line string) (Candidate, bool) {
	for _, m := range c {
		if cand, ok := m.Match(line); ok {
			return cand, true
		}
	}

	return Candidate{}, false
}

package main

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
)

type matchTest struct {
	line    string
	want    Candidate
	matched bool
}

func runMatchTests(t *testing.T, m Matcher, tests map[string]matchTest) {
	t.Helper()

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			got, ok := m.Match(test.line)
			if ok != test.matched {
				t.Fatalf("%q: expected matched %v; got %v (%s)",
					test.line, test.matched, ok, spew.Sdump(got))
			}

			if got != test.want {
				t.Fatalf("%q: expected %s; got %s",
					test.line, spew.Sdump(test.want), spew.Sdump(got))
			}
		})
	}
}

func Test_Plain_Match(t *testing.T) {
	runMatchTests(t, Plain{}, map[string]matchTest{
		"domain": {
			line:    "example.com",
			want:    Candidate{Domain: "example.com"},
			matched: true,
		},
		"comment": {
			line:    "ads.example.com #tracker",
			want:    Candidate{Domain: "ads.example.com", Comment: "tracker"},
			matched: true,
		},
		"uppercase": {
			line:    "  Ads.Example.COM  ",
			want:    Candidate{Domain: "ads.example.com"},
			matched: true,
		},
		"underscore": {
			line:    "_dmarc.example.com",
			want:    Candidate{Domain: "_dmarc.example.com"},
			matched: true,
		},
		"idn": {
			line:    "bücher.de",
			want:    Candidate{Domain: "xn--bcher-kva.de"},
			matched: true,
		},
		"blank":         {line: ""},
		"whitespace":    {line: "   \t"},
		"comment-only":  {line: "# a list of domains"},
		"empty-domain":  {line: "   # trailing"},
		"single-label":  {line: "localhost"},
		"hosts-line":    {line: "0.0.0.0 example.com"},
		"adfilter-line": {line: "||example.com^"},
		"url":           {line: "http://example.com/"},
		"defanged":      {line: "example[.]com"},
	})
}

func Test_AdFilter_Match(t *testing.T) {
	runMatchTests(t, AdFilter{}, map[string]matchTest{
		"anchor": {
			line:    "||ads.example.com^",
			want:    Candidate{Domain: "ads.example.com"},
			matched: true,
		},
		"third-party": {
			line:    "||ads.example.com^$third-party",
			want:    Candidate{Domain: "ads.example.com"},
			matched: true,
		},
		"multiple-options": {
			line:    "||track.example.net^$important,all",
			want:    Candidate{Domain: "track.example.net"},
			matched: true,
		},
		"narrowing-option": {line: "||ads.example.com^$script"},
		"mixed-options":    {line: "||ads.example.com^$third-party,image"},
		"empty-options":    {line: "||ads.example.com^$"},
		"exception":        {line: "@@||example.com^"},
		"path":             {line: "||example.com/ads^"},
		"no-anchor":        {line: "example.com^"},
		"cosmetic":         {line: "example.com##.banner"},
		"plain":            {line: "example.com"},
	})
}

func Test_Defanged_Match(t *testing.T) {
	runMatchTests(t, Defanged{}, map[string]matchTest{
		"brackets": {
			line:    "evil[.]example[.]com",
			want:    Candidate{Domain: "evil.example.com"},
			matched: true,
		},
		"scheme-path": {
			line:    "hxxps://evil[.]example[.]com/payload.exe",
			want:    Candidate{Domain: "evil.example.com"},
			matched: true,
		},
		"defanged-scheme-port": {
			line:    "hxxp[:]//bad(.)example(dot)org:8080/x",
			want:    Candidate{Domain: "bad.example.org"},
			matched: true,
		},
		"trailing-text": {
			line:    "phish{.}example[.]net seen 2020-01-01",
			want:    Candidate{Domain: "phish.example.net"},
			matched: true,
		},
		"uppercase": {
			line:    "EVIL[DOT]EXAMPLE[.]COM",
			want:    Candidate{Domain: "evil.example.com"},
			matched: true,
		},
		"not-defanged": {line: "evil.example.com"},
		"blank":        {line: ""},
		"garbage":      {line: "[.][.]"},
	})
}

func Test_Custom_Match(t *testing.T) {
	runMatchTests(t, AutoDetect, map[string]matchTest{
		"plain": {
			line:    "example.com #c",
			want:    Candidate{Domain: "example.com", Comment: "c"},
			matched: true,
		},
		"adfilter": {
			line:    "||ads.example.com^",
			want:    Candidate{Domain: "ads.example.com"},
			matched: true,
		},
		"hosts": {
			line:    "0.0.0.0 tracker.example.net",
			want:    Candidate{Domain: "tracker.example.net"},
			matched: true,
		},
		"defanged": {
			line:    "c2[.]example[.]org",
			want:    Candidate{Domain: "c2.example.org"},
			matched: true,
		},
		"hosts-defanged": {line: "0.0.0.0 evil[.]com"},
		"comment":        {line: "! Title: list"},
		"blank":          {line: ""},
	})
}

func Test_Custom_Priority(t *testing.T) {
	first := MatchFunc(func(line string) (Candidate, bool) {
		return Candidate{Domain: "first.example"}, true
	})

	second := MatchFunc(func(line string) (Candidate, bool) {
		t.Fatal("second matcher must not run after a match")
		return Candidate{}, false
	})

	got, ok := Custom{first, second}.Match("anything")
	if !ok || got.Domain != "first.example" {
		t.Fatalf("expected first matcher to win; got %v %v", got, ok)
	}
}

package main

import (
	"fmt"
	"strings"

	"go.structs.dev/gen"
)

// Grammar is the declared line format of a source.
type Grammar string

const (
	PLAIN    Grammar = "plain"
	ADFILTER Grammar = "adfilter"
	HOSTS    Grammar = "hosts"
	DEFANGED Grammar = "defanged"
	CUSTOM   Grammar = "custom"
)

var grammarMatchers = gen.FMap[Grammar, Matcher]{
	PLAIN:    Plain{},
	ADFILTER: AdFilter{},
	HOSTS:    Hosts{},
	DEFANGED: Defanged{},
	CUSTOM:   AutoDetect,
}

// grammarAliases maps the names used by other blocklist tools onto
// the supported grammars.
var grammarAliases = gen.FMap[string, Grammar]{
	"list":     PLAIN,
	"domains":  PLAIN,
	"easylist": ADFILTER,
	"adblock":  ADFILTER,
	"unix":     HOSTS,
	"hostfile": HOSTS,
	"ioc":      DEFANGED,
	"auto":     CUSTOM,
}

// ParseGrammar resolves a configured grammar name. An unknown name is
// a configuration error.
func ParseGrammar(name string) (Grammar, error) {
	g := Grammar(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := grammarMatchers[g]; ok {
		return g, nil
	}

	if alias, ok := grammarAliases[string(g)]; ok {
		return alias, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownGrammar, name)
}

// Matcher returns the line matcher for the grammar.
func (g Grammar) Matcher() (Matcher, error) {
	m, ok := grammarMatchers[g]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrammar, string(g))
	}

	return m, nil
}

type LocationType string

const (
	LOC LocationType = "local"
	REM LocationType = "remote"
)

// Location resolves the path of a source to local or remote.
func Location(path string) LocationType {
	p := strings.ToLower(path)
	if strings.HasPrefix(p, "http://") ||
		strings.HasPrefix(p, "https://") {
		return REM
	}

	return LOC
}

// Source is one configured blocklist.
type Source struct {
	Name    string  `mapstructure:"name" yaml:"name"`
	Path    string  `mapstructure:"path" yaml:"path"`
	Grammar Grammar `mapstructure:"grammar" yaml:"grammar"`
	Enabled bool    `mapstructure:"enabled" yaml:"enabled"`
	Comment string  `mapstructure:"comment" yaml:"comment,omitempty"`
}

func (s Source) String() string {
	return fmt.Sprintf("%s (%s) %s", s.Name, s.Grammar, s.Path)
}

// Sources is an ordered list of configured sources.
type Sources []Source

// Validate resolves every grammar and rejects duplicate names. It runs
// before any source is read so a misconfigured run never writes output.
func (s Sources) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for i := range s {
		if s[i].Name == "" {
			return fmt.Errorf("source %d has no name", i)
		}

		if _, ok := seen[s[i].Name]; ok {
			return fmt.Errorf("duplicate source name %q", s[i].Name)
		}
		seen[s[i].Name] = struct{}{}

		g, err := ParseGrammar(string(s[i].Grammar))
		if err != nil {
			return Error{
				Msg:      "invalid grammar",
				Inner:    err,
				Source:   s[i].Name,
				Category: SOURCE,
			}
		}
		s[i].Grammar = g
	}

	return nil
}

// Enabled returns the enabled sources in configured order.
func (s Sources) Enabled() Sources {
	out := make(Sources, 0, len(s))
	for _, src := range s {
		if src.Enabled {
			out = append(out, src)
		}
	}

	return out
}

// CustomSources turns bare paths into sources of unknown grammar named
// bl_custom1..N.
func CustomSources(paths ...string) Sources {
	out := make(Sources, 0, len(paths))
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		out = append(out, Source{
			Name:    fmt.Sprintf("bl_custom%d", len(out)+1),
			Path:    p,
			Grammar: CUSTOM,
			Enabled: true,
		})
	}

	return out
}

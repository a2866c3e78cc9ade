package main

import (
	"errors"
	"reflect"
	"testing"
)

func Test_ParseGrammar(t *testing.T) {
	tests := map[string]struct {
		name string
		want Grammar
		err  bool
	}{
		"plain":    {name: "plain", want: PLAIN},
		"case":     {name: " AdFilter ", want: ADFILTER},
		"alias":    {name: "easylist", want: ADFILTER},
		"hostfile": {name: "unix", want: HOSTS},
		"ioc":      {name: "ioc", want: DEFANGED},
		"auto":     {name: "auto", want: CUSTOM},
		"regex":    {name: "regex", err: true},
		"empty":    {name: "", err: true},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			got, err := ParseGrammar(test.name)
			if test.err {
				if !errors.Is(err, ErrUnknownGrammar) {
					t.Fatalf("expected unknown grammar; got %v", err)
				}

				return
			}

			if err != nil || got != test.want {
				t.Fatalf("expected %s; got %s (%v)", test.want, got, err)
			}

			m, err := got.Matcher()
			if err != nil || m == nil {
				t.Fatalf("expected matcher for %s; got %v", got, err)
			}
		})
	}
}

func Test_Location(t *testing.T) {
	tests := map[string]LocationType{
		"https://example.com/list.txt": REM,
		"HTTP://example.com/list.txt":  REM,
		"/etc/sieve/list.txt":          LOC,
		"lists/":                       LOC,
	}

	for path, want := range tests {
		if got := Location(path); got != want {
			t.Fatalf("%s: expected %s; got %s", path, want, got)
		}
	}
}

func Test_CustomSources(t *testing.T) {
	got := CustomSources("a.txt", " ", "https://example.com/b.txt")

	want := Sources{
		{Name: "bl_custom1", Path: "a.txt", Grammar: CUSTOM, Enabled: true},
		{Name: "bl_custom2", Path: "https://example.com/b.txt", Grammar: CUSTOM, Enabled: true},
	}

	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}
}

func Test_Config_Plan(t *testing.T) {
	cfg := &Config{
		Sources: Sources{
			{Name: "off", Path: "off.txt", Grammar: PLAIN},
			{Name: "on", Path: "on.txt", Grammar: HOSTS, Enabled: true},
		},
		Blacklist: "black.txt",
		Custom:    []string{"custom.txt"},
	}

	names := []string{}
	for _, src := range cfg.Plan() {
		names = append(names, src.Name)
	}

	want := []string{"on", USERBLACKLIST, "bl_custom1"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v; got %v", want, names)
	}
}

func Test_Config_Validate(t *testing.T) {
	tests := map[string]struct {
		cfg Config
		ok  bool
	}{
		"valid": {
			cfg: Config{Output: Output{BlockFile: "out.txt"}},
			ok:  true,
		},
		"no-output": {
			cfg: Config{},
		},
		"bad-format": {
			cfg: Config{Output: Output{BlockFile: "out.txt", Format: "bind"}},
		},
		"bad-grammar": {
			cfg: Config{
				Sources: Sources{{Name: "a", Grammar: "regex", Enabled: true}},
				Output:  Output{BlockFile: "out.txt"},
			},
		},
		"disabled-bad-grammar": {
			cfg: Config{
				Sources: Sources{{Name: "a", Grammar: "regex"}},
				Output:  Output{BlockFile: "out.txt"},
			},
			ok: true,
		},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			err := test.cfg.Validate()
			if (err == nil) != test.ok {
				t.Fatalf("expected ok %v; got %v", test.ok, err)
			}
		})
	}
}

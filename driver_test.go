package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	p := filepath.Join(dir, name)
	err := os.MkdirAll(filepath.Dir(p), 0o755)
	if err != nil {
		t.Fatal(err)
	}

	err = os.WriteFile(p, []byte(content), 0o644)
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func Test_Driver_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "! easylist\n||ads.example.org^\n||track.example.org^$script\n")
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := &Config{
		Sources: Sources{
			{
				Name:    "bl_plain",
				Path:    writeFile(t, dir, "plain.txt", "sub.example.com\nexample.com # root\nbad.xyz\n"),
				Grammar: PLAIN,
				Enabled: true,
			},
			{
				Name:    "bl_hosts",
				Path:    filepath.Join(dir, "hosts"),
				Grammar: HOSTS,
				Enabled: true,
			},
			{
				Name:    "bl_easylist",
				Path:    srv.URL + "/list.txt",
				Grammar: "easylist",
				Enabled: true,
			},
			{
				Name:    "bl_disabled",
				Path:    writeFile(t, dir, "disabled.txt", "disabled.example.net\n"),
				Grammar: PLAIN,
			},
		},
		Blacklist: writeFile(t, dir, "blacklist.txt", "mine.example.net\n"),
		Whitelist: writeFile(t, dir, "whitelist.txt", "shop.xyz # store\ngood.example.org\n"),
		Custom: []string{
			writeFile(t, dir, "custom.txt", "evil[.]example[.]info\n0.0.0.0 ads.example.com\n"),
		},
		TLD: TLDConfig{
			Table: writeFile(t, dir, "tld.csv", "xyz,Generic,1\ntop,Generic,2\n"),
		},
	}

	writeFile(t, dir, "hosts/a.hosts", "0.0.0.0 tracker.example.net\n")
	writeFile(t, dir, "hosts/nested/b.txt", "127.0.0.1 good.example.org\n")
	writeFile(t, dir, "hosts/ignored.md", "0.0.0.0 ignored.example.net\n")

	d := &Driver{Classifier: PSL{}, Logger: &NOOPLogger{}}

	res, err := d.Run(ctx, cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		"ads.example.org",
		"evil.example.info",
		"example.com",
		"mine.example.net",
		"tracker.example.net",
		"xyz",
	}

	if got := sortedDomains(res.Entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %s", want, spew.Sdump(got))
	}

	wantAllow := []AllowRecord{{Domain: "shop.xyz", Comment: "store"}}
	if !reflect.DeepEqual(res.Allow, wantAllow) {
		t.Fatalf("expected %v; got %v", wantAllow, res.Allow)
	}

	names := []string{}
	for _, s := range res.Sources {
		names = append(names, s.Source)
	}

	wantNames := []string{
		TLDSOURCE, "bl_plain", "bl_hosts", "bl_easylist",
		USERBLACKLIST, "bl_custom1",
	}
	if !reflect.DeepEqual(names, wantNames) {
		t.Fatalf("expected sources %v; got %v", wantNames, names)
	}

	stats := map[string]*Stats{}
	for _, s := range res.Sources {
		stats[s.Source] = s
	}

	if s := stats["bl_plain"]; s.TLDBlocked != 1 || s.Duplicates != 1 {
		t.Fatalf("unexpected plain stats %s", s)
	}

	if s := stats["bl_hosts"]; s.Allowed != 1 || s.Lines != 2 {
		t.Fatalf("unexpected hosts stats %s", s)
	}

	if s := stats["bl_custom1"]; s.Duplicates != 1 {
		t.Fatalf("unexpected custom stats %s", s)
	}
}

func Test_Driver_Run_Misconfigured(t *testing.T) {
	tests := map[string]*Config{
		"unknown-grammar": {
			Sources: Sources{{Name: "a", Path: "a.txt", Grammar: "regex", Enabled: true}},
		},
		"duplicate-name": {
			Sources: Sources{
				{Name: "a", Path: "a.txt", Grammar: PLAIN, Enabled: true},
				{Name: "a", Path: "b.txt", Grammar: PLAIN, Enabled: true},
			},
		},
		"unnamed": {
			Sources: Sources{{Path: "a.txt", Grammar: PLAIN, Enabled: true}},
		},
	}

	for name, cfg := range tests {
		cfg := cfg
		t.Run(name, func(t *testing.T) {
			d := &Driver{
				Provider: ProviderFunc(func(context.Context, Source) ([]byte, error) {
					t.Fatal("no source may be loaded for a misconfigured run")
					return nil, nil
				}),
			}

			_, err := d.Run(context.Background(), cfg)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := (&Driver{}).Run(context.Background(), &Config{
		Sources: Sources{{Name: "a", Grammar: "regex", Enabled: true}},
	})
	if !errors.Is(err, ErrUnknownGrammar) {
		t.Fatalf("expected unknown grammar; got %v", err)
	}
}

func Test_Driver_Run_Unavailable(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		Sources: Sources{
			{Name: "gone", Path: filepath.Join(dir, "missing.txt"), Grammar: PLAIN, Enabled: true},
			{Name: "empty", Path: writeFile(t, dir, "empty.txt", ""), Grammar: PLAIN, Enabled: true},
			{Name: "ok", Path: writeFile(t, dir, "ok.txt", "example.com\n"), Grammar: PLAIN, Enabled: true},
		},
		Whitelist: filepath.Join(dir, "no-whitelist.txt"),
	}

	res, err := (&Driver{}).Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if got := res.Entries.Domains(); !reflect.DeepEqual(got, []string{"example.com"}) {
		t.Fatalf("expected [example.com]; got %v", got)
	}

	for _, s := range res.Sources {
		if (s.Source == "gone" || s.Source == "empty") && s.Lines != 0 {
			t.Fatalf("expected no lines from %s; got %s", s.Source, s)
		}
	}
}

func Test_Driver_Run_Provider(t *testing.T) {
	loaded := map[string]string{
		"one": "a.example.com\nexample.net\n",
		"two": "example.com\n",
	}

	d := &Driver{
		Provider: ProviderFunc(func(_ context.Context, src Source) ([]byte, error) {
			data, ok := loaded[src.Name]
			if !ok {
				return nil, os.ErrNotExist
			}

			return []byte(data), nil
		}),
		Workers: 1,
	}

	cfg := &Config{
		Sources: Sources{
			{Name: "one", Path: "mem://one", Grammar: PLAIN, Enabled: true},
			{Name: "two", Path: "mem://two", Grammar: PLAIN, Enabled: true},
		},
	}

	res, err := d.Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"example.com", "example.net"}
	if got := sortedDomains(res.Entries); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v; got %v", want, got)
	}

	if res.Total.Duplicates != 1 || res.Total.Added != 3 {
		t.Fatalf("unexpected totals %s", &res.Total)
	}
}

func Test_Driver_Run_LongLines(t *testing.T) {
	dir := t.TempDir()

	cfg := &Config{
		Sources: Sources{{
			Name: "long",
			Path: writeFile(t, dir, "long.txt",
				strings.Repeat("x", maxLine+1)+"\nexample.com\nshop.example.org\n",
			),
			Grammar: PLAIN,
			Enabled: true,
		}},
		Whitelist: writeFile(t, dir, "whitelist.txt",
			"good.com\n"+strings.Repeat("y", 70<<10)+"\nshop.example.org\n",
		),
		TLD: TLDConfig{
			Blacklist: writeFile(t, dir, "tld_blacklist.txt",
				strings.Repeat("z", 70<<10)+"\n.top\n",
			),
		},
	}

	res, err := (&Driver{}).Run(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if got := res.Entries.Domains(); !reflect.DeepEqual(got, []string{"example.com"}) {
		t.Fatalf("expected [example.com]; got %v", got)
	}

	if res.Total.Allowed != 1 || res.Total.Invalid != 1 {
		t.Fatalf("unexpected totals %s", spew.Sdump(res.Total))
	}
}

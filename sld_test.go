package main

import (
	"errors"
	"testing"
)

func Test_PSL_Classify(t *testing.T) {
	tests := map[string]struct {
		domain string
		want   Domain
		err    error
	}{
		"registrable": {
			domain: "example.com",
			want:   Domain{"example.com", "example.com", "com"},
		},
		"subdomain": {
			domain: "ads.example.com",
			want:   Domain{"ads.example.com", "example.com", "com"},
		},
		"multi-label-suffix": {
			domain: "www.example.co.uk",
			want:   Domain{"www.example.co.uk", "example.co.uk", "co.uk"},
		},
		"new-gtld": {
			domain: "shop.xyz",
			want:   Domain{"shop.xyz", "shop.xyz", "xyz"},
		},
		"punycode": {
			domain: "xn--bcher-kva.de",
			want:   Domain{"xn--bcher-kva.de", "xn--bcher-kva.de", "de"},
		},
		"underscore": {
			domain: "_dmarc.example.com",
			want:   Domain{"_dmarc.example.com", "example.com", "com"},
		},
		"empty":        {domain: "", err: ErrInvalidDomain},
		"single-label": {domain: "localhost", err: ErrInvalidDomain},
		"ipv4":         {domain: "10.0.0.10", err: ErrInvalidDomain},
		"empty-label":  {domain: "a..example.com", err: ErrInvalidDomain},
		"uppercase":    {domain: "Example.com", err: ErrInvalidDomain},
		"space":        {domain: "exa mple.com", err: ErrInvalidDomain},
		"unknown-tld":  {domain: "host.notarealtld", err: ErrAmbiguous},
		"bare-suffix":  {domain: "co.uk", err: ErrAmbiguous},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			got, err := PSL{}.Classify(test.domain)
			if test.err != nil {
				if !errors.Is(err, test.err) {
					t.Fatalf("expected %v; got %v (%+v)", test.err, err, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != test.want {
				t.Fatalf("expected %+v; got %+v", test.want, got)
			}
		})
	}
}

func Test_Domain_IsRegistrable(t *testing.T) {
	if !(Domain{"example.com", "example.com", "com"}).IsRegistrable() {
		t.Fatal("expected example.com to be registrable")
	}

	if (Domain{"a.example.com", "example.com", "com"}).IsRegistrable() {
		t.Fatal("expected a.example.com not to be registrable")
	}
}

func Test_Normalize(t *testing.T) {
	tests := map[string]struct {
		raw  string
		want string
		err  bool
	}{
		"lower":      {raw: "Example.COM", want: "example.com"},
		"root-dot":   {raw: "example.com.", want: "example.com"},
		"trim":       {raw: "  example.com\t", want: "example.com"},
		"idn":        {raw: "Bücher.de", want: "xn--bcher-kva.de"},
		"empty":      {raw: "", err: true},
		"only-dot":   {raw: ".", err: true},
		"whitespace": {raw: "   ", err: true},
	}

	for name, test := range tests {
		test := test
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(test.raw)
			if test.err {
				if !errors.Is(err, ErrInvalidDomain) {
					t.Fatalf("expected invalid domain; got %q, %v", got, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if got != test.want {
				t.Fatalf("expected %q; got %q", test.want, got)
			}
		})
	}
}

package main

import (
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Domain is a classified domain name. Registrable is the shortest suffix
// of Name that is not itself a public suffix (eTLD+1) and TLD is the
// public suffix portion, e.g. www.example.co.uk -> example.co.uk, co.uk.
type Domain struct {
	Name        string
	Registrable string
	TLD         string
}

// IsRegistrable reports whether the domain is its own registrable domain
// rather than a subdomain of one.
func (d Domain) IsRegistrable() bool {
	return d.Name == d.Registrable
}

// Classifier splits a domain name at its public suffix boundary.
// Callers must treat any error as "skip this domain".
type Classifier interface {
	Classify(domain string) (Domain, error)
}

// PSL classifies domains against the public suffix list compiled into
// golang.org/x/net/publicsuffix.
type PSL struct{}

var _ Classifier = PSL{}

func (PSL) Classify(domain string) (Domain, error) {
	if !validDomain(domain) {
		return Domain{}, fmt.Errorf("%w: %q", ErrInvalidDomain, domain)
	}

	suffix, icann := publicsuffix.PublicSuffix(domain)

	// Only the implicit "*" rule matched, so the final label is not a
	// delegated TLD at all.
	if !icann && !strings.Contains(suffix, ".") {
		return Domain{}, fmt.Errorf("%w: unknown tld %q", ErrAmbiguous, suffix)
	}

	registrable, err := publicsuffix.EffectiveTLDPlusOne(domain)
	if err != nil {
		return Domain{}, fmt.Errorf("%w: %s", ErrAmbiguous, err)
	}

	return Domain{
		Name:        domain,
		Registrable: registrable,
		TLD:         suffix,
	}, nil
}

// validDomain rejects anything that is not at least two non-empty labels
// of a DNS name. IP addresses are not domains.
func validDomain(domain string) bool {
	if domain == "" || net.ParseIP(domain) != nil {
		return false
	}

	labels, ok := dns.IsDomainName(domain)
	if !ok || labels < 2 {
		return false
	}

	for _, label := range dns.SplitDomainName(domain) {
		if label == "" {
			return false
		}

		for _, c := range label {
			if !validLabelRune(c) {
				return false
			}
		}
	}

	return true
}

func validLabelRune(c rune) bool {
	return c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_'
}

// Normalize converts a raw domain token as found in a list into the
// canonical lowercase ASCII form used throughout the pipeline. The trailing
// root dot is dropped and IDNs are converted to punycode.
func Normalize(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDomain)
	}

	if isASCII(host) {
		return strings.ToLower(host), nil
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: idna: %s", ErrInvalidDomain, err)
	}

	return strings.ToLower(ascii), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

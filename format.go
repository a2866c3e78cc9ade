package main

import (
	"fmt"
	"strings"

	"go.structs.dev/gen"
)

const (
	PLAINFORMAT   = "plain"
	HOSTSFORMAT   = "hosts"
	DNSMASQFORMAT = "dnsmasq"
	UNBOUNDFORMAT = "unbound"
)

// Formatter renders one domain per output line. Both templates hold a
// single %s verb.
type Formatter struct {
	Block string
	Allow string
}

// presets use %[1]s for the domain and %[2]s for the sinkhole IP.
var presets = gen.FMap[string, Formatter]{
	PLAINFORMAT:   {Block: "%[1]s", Allow: "%[1]s"},
	HOSTSFORMAT:   {Block: "%[2]s %[1]s", Allow: ""},
	DNSMASQFORMAT: {Block: "address=/%[1]s/%[2]s", Allow: "server=/%[1]s/#"},
	UNBOUNDFORMAT: {
		Block: `local-zone: "%[1]s" always_nxdomain`,
		Allow: `local-zone: "%[1]s" transparent`,
	},
}

// Formatter resolves the configured preset with any template overrides.
func (o Output) Formatter() (Formatter, error) {
	name := strings.ToLower(o.Format)
	if name == "" {
		name = PLAINFORMAT
	}

	p, ok := presets[name]
	if !ok {
		return Formatter{}, fmt.Errorf("unknown output format %q", o.Format)
	}

	ip := o.IP
	if ip == "" {
		ip = "0.0.0.0"
	}

	f := Formatter{
		Block: bind(p.Block, ip),
		Allow: bind(p.Allow, ip),
	}

	if o.Block != "" {
		f.Block = o.Block
	}

	if o.Allow != "" {
		f.Allow = o.Allow
	}

	for _, tmpl := range []string{f.Block, f.Allow} {
		if tmpl != "" && strings.Count(tmpl, "%s") != 1 {
			return Formatter{}, fmt.Errorf("template %q must hold exactly one %%s", tmpl)
		}
	}

	return f, nil
}

// bind fixes the IP of a preset leaving a plain %s for the domain.
func bind(tmpl, ip string) string {
	if tmpl == "" {
		return ""
	}

	tmpl = strings.ReplaceAll(tmpl, "%[2]s", strings.ReplaceAll(ip, "%", "%%"))
	return strings.ReplaceAll(tmpl, "%[1]s", "%s")
}

// Blocklist renders the final entries in order.
func (f Formatter) Blocklist(entries Entries) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf(f.Block, e.Domain))
	}

	return out
}

// Allowlist renders the allow records. A format which cannot express an
// allow record renders none.
func (f Formatter) Allowlist(records []AllowRecord) []string {
	if f.Allow == "" {
		return nil
	}

	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, fmt.Sprintf(f.Allow, r.Domain))
	}

	return out
}

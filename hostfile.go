package main

import (
	"net"
	"strings"
)

// Host defines the structure of a host record
// from a hosts file similar to /etc/hosts
// Example: 0.0.0.0 example.com # comment
//
// https://www.ibm.com/docs/en/aix/7.2?topic=formats-hosts-file-format-tcpip
//
// NOTE: According to the link above multiple domains are allowed per IP
// as long as they're on the same line, space separated. Only the first
// one is used so that a line never yields more than one domain.
type Host struct {
	Domain  string `json:"domain"`
	IP      net.IP `json:"ip"`
	Comment string `json:"comment"`
}

// Candidate converts a host record to a blocklist candidate.
func (h *Host) Candidate() (Candidate, bool) {
	return candidate(h.Domain, h.Comment)
}

// sinkholes are the only addresses a blocking hosts file points at.
var sinkholes = []net.IP{
	net.IPv4zero,
	net.IPv4(127, 0, 0, 1),
}

const columns = 2

// ParseHost parses one line of a hosts file. Lines that do not point a
// domain at a sinkhole address are rejected.
func ParseHost(line string) (*Host, bool) {
	line, comment := splitComment(line)
	if line == "" {
		return nil, false
	}

	cols := strings.Fields(line)
	if len(cols) < columns {
		return nil, false
	}

	ip := net.ParseIP(cols[0])
	if ip == nil || !isSinkhole(ip) {
		return nil, false
	}

	if !plainReg.MatchString(cols[1]) {
		return nil, false
	}

	return &Host{
		IP:      ip,
		Domain:  cols[1],
		Comment: comment,
	}, true
}

func isSinkhole(ip net.IP) bool {
	for _, s := range sinkholes {
		if s.Equal(ip) {
			return true
		}
	}

	return false
}

// Hosts matches `0.0.0.0 domain` and `127.0.0.1 domain` lines with an
// optional trailing comment.
type Hosts struct{}

func (Hosts) Match(line string) (Candidate, bool) {
	h, ok := ParseHost(line)
	if !ok {
		return Candidate{}, false
	}

	return h.Candidate()
}

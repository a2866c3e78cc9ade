package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"go.devnw.com/event"
)

// Stats counts what happened to the lines of one source.
type Stats struct {
	Source     string `json:"source,omitempty"`
	Lines      int    `json:"lines"`
	Added      int    `json:"added"`
	Duplicates int    `json:"duplicates"`
	TLDBlocked int    `json:"tld_blocked"`
	Allowed    int    `json:"allowed"`
	Invalid    int    `json:"invalid"`
}

func (s *Stats) count(v Verdict) {
	switch v {
	case ADMITTED:
		s.Added++
	case DUPLICATE:
		s.Duplicates++
	case TLDBLOCKED:
		s.TLDBlocked++
	case ALLOWED:
		s.Allowed++
	case INVALID:
		s.Invalid++
	}
}

func (s *Stats) String() string {
	return fmt.Sprintf(
		"lines: %d; added: %d; duplicates: %d; tld: %d; allowed: %d; invalid: %d",
		s.Lines,
		s.Added,
		s.Duplicates,
		s.TLDBlocked,
		s.Allowed,
		s.Invalid,
	)
}

// AllowRecord is an explicit permit for a domain which a blocked TLD
// would otherwise shadow.
type AllowRecord struct {
	Domain  string `json:"domain"`
	Comment string `json:"comment,omitempty"`
}

// Row is the durable form of a block or allow decision.
type Row struct {
	Source  string `json:"source"`
	Domain  string `json:"domain"`
	Enabled bool   `json:"enabled"`
	Comment string `json:"comment,omitempty"`
}

// Result is everything a finished run hands to the sinks.
type Result struct {
	Entries   Entries       `json:"entries"`
	Allow     []AllowRecord `json:"allow"`
	Rows      []Row         `json:"-"`
	Sources   []*Stats      `json:"sources"`
	Total     Stats         `json:"total"`
	Collapsed int           `json:"collapsed"`
}

// IngestionRun owns every piece of state of a single pass: the dedup
// index, the accumulated entries, the allow-set and the counters.
// Nothing survives the run except the Result.
type IngestionRun struct {
	ctx    context.Context
	pub    *event.Publisher
	logger Logger

	index   *Index
	entries Entries

	// allowSet is only needed until the TLDs have been reconciled.
	allowSet   map[string]string
	allowOrder []string
	allow      []AllowRecord
	allowRows  []Row

	stats map[string]*Stats
	order []string
	total Stats
}

// NewRun starts an empty run. pub may be nil when nobody listens for
// run events.
func NewRun(
	ctx context.Context,
	pub *event.Publisher,
	logger Logger,
	classifier Classifier,
) *IngestionRun {
	if logger == nil {
		logger = &NOOPLogger{}
	}

	return &IngestionRun{
		ctx:      ctx,
		pub:      pub,
		logger:   logger,
		index:    NewIndex(classifier),
		allowSet: make(map[string]string),
		stats:    make(map[string]*Stats),
	}
}

func (r *IngestionRun) source(name string) *Stats {
	s, ok := r.stats[name]
	if !ok {
		s = &Stats{Source: name}
		r.stats[name] = s
		r.order = append(r.order, name)
	}

	return s
}

// Offer runs a candidate through the index and accumulates it when it is
// admitted.
func (r *IngestionRun) Offer(c Candidate, source string) Verdict {
	d, v := r.index.Admit(c.Domain)

	s := r.source(source)
	s.count(v)
	r.total.count(v)

	if v == ADMITTED {
		r.entries = append(r.entries, NewEntry(d.Name, c.Comment, source))
	}

	return v
}

// maxLine bounds a single list line. Longer lines are skipped whole.
const maxLine = 1 << 20

// eachLine calls fn for every line of in and returns the number of
// lines skipped for being longer than maxLine.
func eachLine(in io.Reader, fn func(line string)) (int, error) {
	r := bufio.NewReaderSize(in, maxLine)

	skipped := 0
	long := false
	for {
		line, prefix, err := r.ReadLine()
		if errors.Is(err, io.EOF) {
			return skipped, nil
		}

		if err != nil {
			return skipped, err
		}

		if prefix || long {
			if !long {
				skipped++
			}

			long = prefix
			continue
		}

		fn(string(line))
	}
}

// Feed reads every line of in, extracts at most one candidate per line
// with m and offers it. A read error ends the source early; what was
// already admitted stays.
func (r *IngestionRun) Feed(source string, m Matcher, in io.Reader) error {
	s := r.source(source)
	before := *s

	skipped, err := eachLine(in, func(line string) {
		if r.ctx.Err() != nil {
			return
		}

		s.Lines++
		r.total.Lines++

		c, ok := m.Match(line)
		if !ok {
			return
		}

		r.Offer(c, source)
	})

	s.Lines += skipped
	s.Invalid += skipped
	r.total.Lines += skipped
	r.total.Invalid += skipped

	if r.ctx.Err() != nil {
		return r.ctx.Err()
	}

	added := s.Added - before.Added
	snapshot := *s
	r.publish(&Event{
		Msg:      fmt.Sprintf("processed %d lines, added %d", s.Lines-before.Lines, added),
		Category: SOURCE,
		Source:   source,
		Stats:    &snapshot,
	})

	if skipped > 0 {
		r.error(Error{
			Msg:      fmt.Sprintf("skipped %d lines longer than %d bytes", skipped, maxLine),
			Source:   source,
			Category: SOURCE,
		})
	}

	if err != nil {
		return Error{
			Msg:      "read failed",
			Inner:    err,
			Source:   source,
			Category: SOURCE,
		}
	}

	return nil
}

// Allow seeds the allow-set. An allowed domain is never admitted and is
// reconciled against the blocked TLDs by ProcessTLDs.
func (r *IngestionRun) Allow(c Candidate) {
	if _, ok := r.allowSet[c.Domain]; ok {
		return
	}

	r.allowSet[c.Domain] = c.Comment
	r.allowOrder = append(r.allowOrder, c.Domain)
	r.index.Permit(c.Domain)

	r.allowRows = append(r.allowRows, Row{
		Source:  WHITELIST,
		Domain:  c.Domain,
		Enabled: true,
		Comment: c.Comment,
	})
}

// AllowFrom seeds the allow-set from a plain list. Overlong lines are
// skipped; a read error keeps what was read before it.
func (r *IngestionRun) AllowFrom(in io.Reader) error {
	_, err := eachLine(in, func(line string) {
		c, ok := Plain{}.Match(line)
		if !ok {
			return
		}

		r.Allow(c)
	})
	if err != nil {
		return Error{
			Msg:      "read failed",
			Inner:    err,
			Source:   WHITELIST,
			Category: ALLOW,
		}
	}

	return nil
}

// blockTLD admits the bare TLD as an entry of its own so it shows up in
// the final blocklist.
func (r *IngestionRun) blockTLD(tld, comment string) bool {
	tld = strings.Trim(strings.ToLower(tld), ".")
	if tld == "" || !r.index.BlockTLD(tld) {
		return false
	}

	s := r.source(TLDSOURCE)
	s.Added++
	r.total.Added++

	r.entries = append(r.entries, NewEntry(tld, comment, TLDSOURCE))
	return true
}

// reconcile emits an allow record for every allowed domain whose TLD is
// blocked, then drops the allow-set. Records are in allow list order.
func (r *IngestionRun) reconcile() {
	for _, domain := range r.allowOrder {
		d, err := r.index.Classify(domain)
		if err != nil {
			// A bare TLD on the allow list shadows nothing.
			continue
		}

		if !r.index.TLDBlocked(d.TLD) {
			continue
		}

		r.allow = append(r.allow, AllowRecord{
			Domain:  domain,
			Comment: r.allowSet[domain],
		})

		r.publish(&Event{
			Msg:      "allowed domain under blocked tld",
			Category: ALLOW,
			Domain:   domain,
		})
	}

	r.allowSet = make(map[string]string)
	r.allowOrder = nil
}

// Finish collapses the accumulated entries and returns the result. The
// run must not be used afterwards.
func (r *IngestionRun) Finish() Result {
	// A redundant entry counts as a duplicate of the source it came from.
	dropped := 0
	final := collapse(r.entries, func(e Entry) {
		dropped++
		r.source(e.Source).Duplicates++
		r.total.Duplicates++
	})
	r.entries = nil

	total := r.total
	r.publish(&Event{
		Msg: fmt.Sprintf(
			"collapsed %d redundant entries, %d remain",
			dropped,
			len(final),
		),
		Category: COLLAPSE,
		Stats:    &total,
	})

	rows := make([]Row, 0, len(r.allowRows)+len(final))
	rows = append(rows, r.allowRows...)
	for _, e := range final {
		rows = append(rows, Row{
			Source:  e.Source,
			Domain:  e.Domain,
			Enabled: true,
			Comment: e.Comment,
		})
	}

	sources := make([]*Stats, 0, len(r.order))
	for _, name := range r.order {
		sources = append(sources, r.stats[name])
	}

	return Result{
		Entries:   final,
		Allow:     r.allow,
		Rows:      rows,
		Sources:   sources,
		Total:     r.total,
		Collapsed: dropped,
	}
}

// Stats returns the counters of source, or nil when it was never fed.
func (r *IngestionRun) Stats(source string) *Stats {
	return r.stats[source]
}

func (r *IngestionRun) publish(e *Event) {
	r.logger.Debugw(e.Msg,
		"category", e.Category.String(),
		"source", e.Source,
		"domain", e.Domain,
	)

	if r.pub == nil {
		return
	}

	r.pub.EventFunc(r.ctx, func() event.Event {
		return e
	})
}

func (r *IngestionRun) error(err error) {
	r.logger.Warnw("run error", "error", err)

	if r.pub == nil {
		return
	}

	r.pub.ErrorFunc(r.ctx, func() error {
		return err
	})
}

// sortedStats orders counters by source name for stable reporting.
func sortedStats(stats []*Stats) []*Stats {
	out := append([]*Stats(nil), stats...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].Source < out[j].Source
	})

	return out
}

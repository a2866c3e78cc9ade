package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colinmarc/cdb"
	_ "github.com/mattn/go-sqlite3"
)

// Sink persists the result of a completed pass.
type Sink interface {
	Write(ctx context.Context, res Result) error
}

// Sinks writes to every sink in order and stops at the first failure.
// Each sink replaces its own output atomically but there is no commit
// across sinks: sinks before the failing one already hold the new pass
// and the ones after it still hold the previous pass. The next
// successful pass brings them back in line.
type Sinks []Sink

func (s Sinks) Write(ctx context.Context, res Result) error {
	for _, sink := range s {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := sink.Write(ctx, res)
		if err != nil {
			return Error{
				Msg:      fmt.Sprintf("%T", sink),
				Inner:    err,
				Category: SINK,
			}
		}
	}

	return nil
}

// FileSink writes the formatted blocklist and allow list.
type FileSink struct {
	BlockPath string
	AllowPath string
	Format    Formatter
}

func (f FileSink) Write(_ context.Context, res Result) error {
	err := writeLines(f.BlockPath, f.Format.Blocklist(res.Entries))
	if err != nil {
		return err
	}

	if f.AllowPath == "" {
		return nil
	}

	allow := f.Format.Allowlist(res.Allow)
	if len(allow) == 0 {
		err = os.Remove(f.AllowPath)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return nil
	}

	return writeLines(f.AllowPath, allow)
}

// writeLines replaces path so readers never see a partial file.
func writeLines(path string, lines []string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}

	defer os.Remove(tmp.Name())

	w := strings.Join(lines, "\n")
	if len(lines) > 0 {
		w += "\n"
	}

	_, err = tmp.WriteString(w)
	if err != nil {
		tmp.Close()
		return err
	}

	err = tmp.Chmod(0o644)
	if err != nil {
		tmp.Close()
		return err
	}

	err = tmp.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp.Name(), path)
}

// CDBSink writes a constant database of domain to source for resolvers
// such as dnsdist which read blocklists as key/value stores.
type CDBSink struct {
	Path string
}

func (c CDBSink) Write(_ context.Context, res Result) error {
	tmp := c.Path + ".tmp"
	writer, err := cdb.Create(tmp)
	if err != nil {
		return err
	}

	for _, e := range res.Entries {
		err = writer.Put([]byte(e.Domain), []byte(e.Source))
		if err != nil {
			writer.Close()
			os.Remove(tmp)
			return err
		}
	}

	err = writer.Close()
	if err != nil {
		os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, c.Path)
}

// LookupCDB returns the source which blocked domain in the database at
// path.
func LookupCDB(path, domain string) (string, bool, error) {
	db, err := cdb.Open(path)
	if err != nil {
		return "", false, err
	}
	defer db.Close()

	v, err := db.Get([]byte(domain))
	if err != nil {
		return "", false, err
	}

	if v == nil {
		return "", false, nil
	}

	return string(v), true, nil
}

// SQLiteSink stores every row of a pass in the blocklist table. The table
// is cleared and refilled in one transaction.
type SQLiteSink struct {
	db *sql.DB
}

const blocklistTable = `CREATE TABLE IF NOT EXISTS blocklist (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bl_source TEXT NOT NULL,
	site TEXT NOT NULL,
	site_status BOOLEAN NOT NULL DEFAULT 1,
	comment TEXT NOT NULL DEFAULT ''
)`

const blocklistIndex = `CREATE INDEX IF NOT EXISTS blocklist_site ON blocklist (site)`

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// sqlite allows a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{blocklistTable, blocklistIndex} {
		_, err = db.Exec(stmt)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("create table: %w", err)
		}
	}

	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func (s *SQLiteSink) Write(ctx context.Context, res Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `DELETE FROM blocklist`)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO blocklist (bl_source, site, site_status, comment) VALUES (?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range res.Rows {
		_, err = stmt.ExecContext(ctx, r.Source, r.Domain, r.Enabled, r.Comment)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Lookup returns the row stored for site.
func (s *SQLiteSink) Lookup(ctx context.Context, site string) (Row, bool, error) {
	r := Row{}
	err := s.db.QueryRowContext(ctx,
		`SELECT bl_source, site, site_status, comment FROM blocklist WHERE site = ? ORDER BY id LIMIT 1`,
		site,
	).Scan(&r.Source, &r.Domain, &r.Enabled, &r.Comment)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, false, nil
	}

	if err != nil {
		return Row{}, false, err
	}

	return r, true, nil
}

// Package store persists trigger responses and the playing subject in
// SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-overstim/internal/log"
	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

// Memory opens a private in-memory database.
const Memory = ":memory:"

const (
	keySubject = "subject"
	keyAuto    = "auto_detect"
)

// Override is one stored (subject, trigger) response.
type Override struct {
	Subject  subject.Kind
	Trigger  trigger.ID
	Envelope envelope.Envelope
	Enabled  bool
	Updated  time.Time
}

// Store manages settings persistence backed by SQLite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open initializes or connects to the database at path and applies
// migrations.
func Open(path string) (*Store, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Every pooled connection to :memory: would be a separate database.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path, logger: log.With("component", "store")}
	if err := s.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetResponse stores the envelope for (k, id). A disabled response keeps its
// envelope so re-enabling restores it.
func (s *Store) SetResponse(ctx context.Context, k subject.Kind, id trigger.ID, env envelope.Envelope, enabled bool) error {
	if err := env.Validate(); err != nil {
		return err
	}
	if !trigger.Supports(k, id) {
		return fmt.Errorf("%s has no %s trigger", k, id)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (subject, trigger, envelope, enabled, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(subject, trigger) DO UPDATE SET
            envelope = excluded.envelope,
            enabled = excluded.enabled,
            updated_at = excluded.updated_at`,
		k.String(), id.String(), env.String(), enabled, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save response %s/%s: %w", k, id, err)
	}
	return nil
}

// ResetResponse drops a stored response so the default applies again.
func (s *Store) ResetResponse(ctx context.Context, k subject.Kind, id trigger.ID) error {
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM responses WHERE subject = ? AND trigger = ?", k.String(), id.String()); err != nil {
		return fmt.Errorf("reset response %s/%s: %w", k, id, err)
	}
	return nil
}

// Overrides lists every stored response ordered by subject and trigger.
// Rows naming an unknown subject or trigger are skipped, as are enabled rows
// whose envelope no longer parses; those pairs keep their default response.
func (s *Store) Overrides(ctx context.Context) ([]Override, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT subject, trigger, envelope, enabled, updated_at FROM responses ORDER BY subject, trigger")
	if err != nil {
		return nil, fmt.Errorf("query responses: %w", err)
	}
	defer rows.Close()

	var out []Override
	for rows.Next() {
		var (
			subj, trig, text, updated string
			enabled                   bool
		)
		if err := rows.Scan(&subj, &trig, &text, &enabled, &updated); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		o := Override{Enabled: enabled}
		if o.Subject, err = subject.Parse(subj); err != nil {
			s.logger.Warn("skipping stored response", "subject", subj, "trigger", trig, "error", err)
			continue
		}
		if o.Trigger, err = trigger.Parse(trig); err != nil {
			s.logger.Warn("skipping stored response", "subject", subj, "trigger", trig, "error", err)
			continue
		}
		if o.Envelope, err = envelope.Parse(text); err != nil && enabled {
			s.logger.Warn("stored envelope is invalid, using default",
				"subject", subj, "trigger", trig, "envelope", text, "error", err)
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, updated); err == nil {
			o.Updated = ts
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// Responses returns the defaults with every stored override applied.
func (s *Store) Responses(ctx context.Context) (trigger.Responses, error) {
	overrides, err := s.Overrides(ctx)
	if err != nil {
		return nil, err
	}
	r := trigger.DefaultResponses()
	for _, o := range overrides {
		if o.Enabled {
			r.Set(o.Subject, o.Trigger, o.Envelope)
		} else {
			r.Disable(o.Subject, o.Trigger)
		}
	}
	return r, nil
}

// Subject returns the stored auto-detect flag and manually chosen subject.
// Without a stored choice it reports auto-detect with no subject.
func (s *Store) Subject(ctx context.Context) (bool, subject.Kind, error) {
	auto, err := s.setting(ctx, keyAuto)
	if err != nil {
		return false, subject.Other, err
	}
	name, err := s.setting(ctx, keySubject)
	if err != nil {
		return false, subject.Other, err
	}

	k := subject.Other
	if name != "" {
		if k, err = subject.Parse(name); err != nil {
			return false, subject.Other, err
		}
	}
	return auto != "false", k, nil
}

// SetSubject stores the subject selection.
func (s *Store) SetSubject(ctx context.Context, auto bool, k subject.Kind) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin subject tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for key, value := range map[string]string{keyAuto: fmt.Sprint(auto), keySubject: k.String()} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO settings (key, value) VALUES (?, ?)
             ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return tx.Commit()
}

func (s *Store) setting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load %s: %w", key, err)
	}
	return value, nil
}

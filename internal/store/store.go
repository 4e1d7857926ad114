// Package store persists run artifacts to SQLite: evaluation chains, session
// snapshots and run outcomes. The byte format of snapshots is owned here, not
// by the core pipeline, which only calls the serialize/restore entry points.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"ghostpatch/internal/compile"
	"ghostpatch/internal/meter"
)

// Store wraps the SQLite handle. All operations are mutex-serialized.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for tests.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration %d: %w", i, err)
		}
	}

	return &Store{db: db, logger: logger.Named("store")}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveChain persists an evaluation chain for a run. Idempotent per chain id.
func (s *Store) SaveChain(runID string, c *compile.Chain) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := json.Marshal(c.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT OR IGNORE INTO event_chains
		 (id, run_id, cascade_depth, total_stability, total_insight, events_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, runID, c.CascadeDepth, c.TotalEffects.Stability, c.TotalEffects.Insight, string(events),
	)
	if err != nil {
		s.logger.Error("Failed to save chain", zap.String("chain", c.ID), zap.Error(err))
		return err
	}
	return nil
}

// RecentChains loads up to limit chains for a run, newest first.
func (s *Store) RecentChains(runID string, limit int) ([]*compile.Chain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, cascade_depth, total_stability, total_insight, events_json
		 FROM event_chains WHERE run_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		runID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chains []*compile.Chain
	for rows.Next() {
		var c compile.Chain
		var eventsJSON string
		if err := rows.Scan(&c.ID, &c.CascadeDepth, &c.TotalEffects.Stability, &c.TotalEffects.Insight, &eventsJSON); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(eventsJSON), &c.Events); err != nil {
			return nil, fmt.Errorf("unmarshal events for chain %s: %w", c.ID, err)
		}
		chains = append(chains, &c)
	}
	return chains, rows.Err()
}

// PruneChains keeps only the newest keep chains for a run.
func (s *Store) PruneChains(runID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keep < 0 {
		keep = 0
	}
	_, err := s.db.Exec(
		`DELETE FROM event_chains WHERE run_id = ? AND id NOT IN (
			SELECT id FROM event_chains WHERE run_id = ?
			ORDER BY created_at DESC, rowid DESC LIMIT ?
		)`,
		runID, runID, keep,
	)
	return err
}

// Snapshot is the persisted view of an encounter session plus the run's gauge
// state at save time.
type Snapshot struct {
	SessionID string
	RunID     string
	AnomalyID string
	State     string
	Gauges    meter.State
	History   []meter.Record
}

// SaveSnapshot upserts a session snapshot.
func (s *Store) SaveSnapshot(snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := json.Marshal(snap.History)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO session_snapshots
		 (session_id, run_id, anomaly_id, state, stability, insight, history_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(session_id) DO UPDATE SET
		 state = excluded.state, stability = excluded.stability,
		 insight = excluded.insight, history_json = excluded.history_json,
		 updated_at = CURRENT_TIMESTAMP`,
		snap.SessionID, snap.RunID, snap.AnomalyID, snap.State,
		snap.Gauges.Stability, snap.Gauges.Insight, string(history),
	)
	if err != nil {
		s.logger.Error("Failed to save snapshot", zap.String("session", snap.SessionID), zap.Error(err))
	}
	return err
}

// LoadSnapshot restores a session snapshot by id.
func (s *Store) LoadSnapshot(sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	var historyJSON string
	err := s.db.QueryRow(
		`SELECT session_id, run_id, anomaly_id, state, stability, insight, history_json
		 FROM session_snapshots WHERE session_id = ?`,
		sessionID,
	).Scan(&snap.SessionID, &snap.RunID, &snap.AnomalyID, &snap.State,
		&snap.Gauges.Stability, &snap.Gauges.Insight, &historyJSON)
	if err != nil {
		return Snapshot{}, err
	}
	if err := json.Unmarshal([]byte(historyJSON), &snap.History); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal history: %w", err)
	}
	return snap, nil
}

// RecordOutcome stores a run's terminal result. First write wins; a run's
// outcome never changes once set.
func (s *Store) RecordOutcome(runID string, outcome meter.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO run_outcomes (run_id, outcome) VALUES (?, ?)`,
		runID, string(outcome),
	)
	return err
}

// Outcome loads a run's recorded terminal result, if any.
func (s *Store) Outcome(runID string) (meter.Outcome, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome string
	err := s.db.QueryRow(`SELECT outcome FROM run_outcomes WHERE run_id = ?`, runID).Scan(&outcome)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return meter.Outcome(outcome), true, nil
}

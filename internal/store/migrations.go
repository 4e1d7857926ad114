package store

// Schema migrations, applied in order at open time. Additive only; never
// rewrite an existing entry.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS event_chains (
		id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		cascade_depth INTEGER NOT NULL,
		total_stability INTEGER NOT NULL,
		total_insight INTEGER NOT NULL,
		events_json TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_event_chains_run ON event_chains(run_id, created_at)`,
	`CREATE TABLE IF NOT EXISTS session_snapshots (
		session_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		anomaly_id TEXT NOT NULL,
		state TEXT NOT NULL,
		stability INTEGER NOT NULL,
		insight INTEGER NOT NULL,
		history_json TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS run_outcomes (
		run_id TEXT PRIMARY KEY,
		outcome TEXT NOT NULL,
		ended_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
}

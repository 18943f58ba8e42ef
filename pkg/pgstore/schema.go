package pgstore

// Schema is the DDL a caller runs once against a fresh database before
// constructing a Store. Not applied automatically: the core never takes
// ownership of migrations (§1 keeps the persistence backend external).
const Schema = `
CREATE TABLE IF NOT EXISTS workflow_executions (
	id          TEXT PRIMARY KEY,
	workflow_id TEXT NOT NULL,
	data        JSONB NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS running_executions (
	id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS workflow_history (
	workflow_id TEXT NOT NULL,
	sequence    BIGINT NOT NULL,
	data        JSONB NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (workflow_id, sequence)
);

CREATE TABLE IF NOT EXISTS workflow_logs (
	log_date   TEXT NOT NULL,
	sequence   BIGINT GENERATED ALWAYS AS IDENTITY,
	data       JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (log_date, sequence)
);
`

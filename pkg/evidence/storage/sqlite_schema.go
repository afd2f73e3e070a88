package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the evidence database schema.
// Timestamps are stored as Unix nanoseconds (UTC) so that both drivers
// compare and sort them identically.
const Schema = `
-- Assessment evidence records
CREATE TABLE IF NOT EXISTS evidence (
    id TEXT PRIMARY KEY,
    operator_id TEXT NOT NULL DEFAULT '',

    -- Inputs
    operations REAL NOT NULL,
    error_rate REAL NOT NULL,

    -- Outcome
    score REAL NOT NULL,
    category TEXT NOT NULL,

    -- Inference breakdown (JSON arrays)
    memberships TEXT NOT NULL,
    activations TEXT NOT NULL,

    -- Rule set provenance
    ruleset TEXT NOT NULL,
    ruleset_version TEXT,
    ruleset_checksum TEXT,
    input_hash TEXT NOT NULL,

    -- Timestamps (Unix nanoseconds)
    evaluated_at INTEGER NOT NULL,
    recorded_at INTEGER NOT NULL,

    duration_us INTEGER NOT NULL DEFAULT 0
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_evidence_evaluated_at ON evidence(evaluated_at);
CREATE INDEX IF NOT EXISTS idx_evidence_operator_id ON evidence(operator_id);
CREATE INDEX IF NOT EXISTS idx_evidence_category ON evidence(category);
CREATE INDEX IF NOT EXISTS idx_evidence_score ON evidence(score);
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

// recordColumns lists the evidence columns in scan order.
const recordColumns = `id, operator_id, operations, error_rate, score, category,
    memberships, activations, ruleset, ruleset_version, ruleset_checksum, input_hash,
    evaluated_at, recorded_at, duration_us`

package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assessments (
		id UUID PRIMARY KEY,
		batch_id VARCHAR(64) NOT NULL,
		taxpayer_id VARCHAR(128) NOT NULL,
		email VARCHAR(255) NOT NULL DEFAULT '',
		gross_income NUMERIC(15,2) NOT NULL CHECK (gross_income >= 0),
		deduction_total NUMERIC(15,2) NOT NULL DEFAULT 0,
		old_total NUMERIC(15,2) NOT NULL,
		new_total NUMERIC(15,2) NOT NULL,
		recommended VARCHAR(3) NOT NULL CHECK (recommended IN ('old', 'new')),
		savings NUMERIC(15,2) NOT NULL CHECK (savings >= 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (batch_id, taxpayer_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_assessments_batch ON assessments(batch_id)`,
	`CREATE TABLE IF NOT EXISTS score_snapshots (
		id UUID PRIMARY KEY,
		user_ref VARCHAR(128) NOT NULL,
		score INTEGER NOT NULL CHECK (score BETWEEN 300 AND 900),
		grade VARCHAR(16) NOT NULL,
		source VARCHAR(32) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_score_snapshots_user ON score_snapshots(user_ref, created_at DESC)`,
}

package infra

// SchemaPostgres creates the images table used by the postgres job store.
const SchemaPostgres = `
CREATE TABLE IF NOT EXISTS images (
  id             BIGSERIAL PRIMARY KEY,
  original_url   TEXT NOT NULL,
  filtered_url   TEXT,
  filter_type    TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'processing',
  failure_reason TEXT,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  CONSTRAINT images_status_check CHECK (status IN ('processing', 'completed', 'failed')),
  CONSTRAINT images_result_check CHECK ((status = 'completed') = (filtered_url IS NOT NULL))
);
CREATE INDEX IF NOT EXISTS images_status_idx ON images (status) WHERE status = 'processing';
`

// SchemaSQLite mirrors SchemaPostgres for the sqlite job store.
const SchemaSQLite = `
CREATE TABLE IF NOT EXISTS images (
  id             INTEGER PRIMARY KEY AUTOINCREMENT,
  original_url   TEXT NOT NULL,
  filtered_url   TEXT,
  filter_type    TEXT NOT NULL,
  status         TEXT NOT NULL DEFAULT 'processing',
  failure_reason TEXT,
  created_at     INTEGER NOT NULL
);
`

package db

const (
	// SchemaV1 defines the SQL statements for version 1 of the catalog schema.
	// All statements are idempotent so schema setup is safe on every startup.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS stlcat_versions (
    component TEXT PRIMARY KEY,
    version INTEGER NOT NULL,
    created_at REAL DEFAULT (unixepoch())
);

CREATE TABLE IF NOT EXISTS entries (
    id UUID PRIMARY KEY,
    file_path TEXT NOT NULL UNIQUE,
    name VARCHAR(256) NOT NULL,
    date_added REAL DEFAULT (unixepoch()),
    is_multi_part BOOLEAN DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS tags (
    id UUID PRIMARY KEY,
    name VARCHAR(256) NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS entry_tags (
    entry_id UUID NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    tag_id UUID NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    created_at REAL DEFAULT (unixepoch()),
    PRIMARY KEY (entry_id, tag_id)
);

CREATE TABLE IF NOT EXISTS related_files (
    id UUID PRIMARY KEY,
    entry_id UUID NOT NULL REFERENCES entries(id) ON DELETE CASCADE,
    file_path TEXT NOT NULL
);
`
)

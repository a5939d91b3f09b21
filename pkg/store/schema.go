package store

// Schema contains the SQL statements to create the console database schema.
const Schema = `
-- Access point configuration: a single row with id 1
CREATE TABLE IF NOT EXISTS ap_config (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    essid      TEXT NOT NULL,
    channel    INTEGER NOT NULL,
    hidden     BOOLEAN NOT NULL DEFAULT FALSE,
    authmode   TEXT NOT NULL,
    mac        TEXT NOT NULL DEFAULT '',
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Todo items, listed in creation order
CREATE TABLE IF NOT EXISTS todos (
    seq        INTEGER PRIMARY KEY AUTOINCREMENT,
    id         TEXT UNIQUE NOT NULL,
    title      TEXT NOT NULL,
    completed  BOOLEAN NOT NULL DEFAULT FALSE,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_todos_id ON todos(id);
`

const (
	// essidMaxLength is the longest SSID 802.11 allows.
	essidMaxLength = 32
	minChannel     = 1
	maxChannel     = 14
	titleMaxLength = 200
)

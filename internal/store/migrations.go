package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS days (
	user_id    TEXT NOT NULL,
	date       TEXT NOT NULL,
	tasks      TEXT NOT NULL DEFAULT '[]',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, date)
);

CREATE TABLE IF NOT EXISTS projects (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS routines (
	user_id    TEXT NOT NULL,
	id         TEXT NOT NULL,
	doc        TEXT NOT NULL DEFAULT '{}',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS confirmations (
	user_id    TEXT PRIMARY KEY,
	awaiting   INTEGER NOT NULL DEFAULT 0 CHECK(awaiting IN (0, 1)),
	payload    TEXT NOT NULL DEFAULT '{}',
	message    TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 1,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_days_user_id ON days(user_id);
CREATE INDEX IF NOT EXISTS idx_days_date ON days(date);
CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
CREATE INDEX IF NOT EXISTS idx_routines_user_id ON routines(user_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

package store

type migration struct {
	version int
	sql     string
}

// migrations must stay ordered by version, starting at 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	uid           TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- app scoped settings
CREATE TABLE IF NOT EXISTS appconfig (
	appid       TEXT NOT NULL,
	configkey   TEXT NOT NULL,
	configvalue TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (appid, configkey)
);

-- user scoped settings
CREATE TABLE IF NOT EXISTS preferences (
	uid         TEXT NOT NULL,
	appid       TEXT NOT NULL,
	configkey   TEXT NOT NULL,
	configvalue TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (uid, appid, configkey)
);

CREATE TABLE IF NOT EXISTS filecache (
	fileid INTEGER PRIMARY KEY AUTOINCREMENT,
	uid    TEXT NOT NULL,
	path   TEXT NOT NULL,
	UNIQUE (uid, path)
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}

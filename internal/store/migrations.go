package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create turns",
		SQL: `
			CREATE TABLE turns (
				id           INTEGER PRIMARY KEY AUTOINCREMENT,
				user_id      TEXT NOT NULL,
				role         TEXT NOT NULL,
				content      TEXT NOT NULL,
				tool_call_id TEXT NOT NULL DEFAULT '',
				created_at   TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_turns_user ON turns (user_id, id);
		`,
	},
	{
		Version: 2,
		Name:    "create reference sets",
		SQL: `
			CREATE TABLE file_refs (
				user_id     TEXT NOT NULL,
				idx         INTEGER NOT NULL,
				resource_id TEXT NOT NULL,
				name        TEXT NOT NULL,
				mime_type   TEXT NOT NULL,
				PRIMARY KEY (user_id, idx)
			);

			CREATE TABLE board_refs (
				user_id  TEXT NOT NULL,
				board_id TEXT NOT NULL,
				name     TEXT NOT NULL,
				position INTEGER NOT NULL,
				PRIMARY KEY (user_id, board_id)
			);
		`,
	},
}

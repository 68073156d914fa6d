package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements executed together in a single transaction. The version
// number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: tenant domains and their connected HubSpot accounts.
	{
		`CREATE TABLE domains (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			api_key TEXT NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)`,

		`CREATE TABLE accounts (
			hub_id TEXT PRIMARY KEY,
			domain_id INTEGER NOT NULL REFERENCES domains(id) ON DELETE CASCADE,
			access_token TEXT NOT NULL DEFAULT '',
			refresh_token TEXT NOT NULL DEFAULT '',
			token_expires_at TEXT,
			last_pulled_companies TEXT,
			last_pulled_contacts TEXT,
			last_pulled_meetings TEXT
		)`,

		`CREATE INDEX idx_accounts_domain ON accounts(domain_id)`,
	},
}

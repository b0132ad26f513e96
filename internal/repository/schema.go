package repository

// Schema definitions for the Decoy database.
// Message IDs must be monotonically increasing per insert order, so the
// messages table uses the driver's native auto-increment column.

const schemaRooms = `
CREATE TABLE IF NOT EXISTS chat_rooms (
    id TEXT PRIMARY KEY,
    scenario_type TEXT NOT NULL,
    scenario_description TEXT,
    phishing_goal TEXT,
    created_at TIMESTAMP NOT NULL,
    ended_at TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chat_rooms_created ON chat_rooms(created_at);
`

const schemaMessagesSQLite = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_room_id TEXT NOT NULL,
    sender TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages(chat_room_id, id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_sender ON chat_messages(chat_room_id, sender);
`

const schemaMessagesPostgres = `
CREATE TABLE IF NOT EXISTS chat_messages (
    id BIGSERIAL PRIMARY KEY,
    chat_room_id TEXT NOT NULL,
    sender TEXT NOT NULL,
    content TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_messages_room ON chat_messages(chat_room_id, id);
CREATE INDEX IF NOT EXISTS idx_chat_messages_sender ON chat_messages(chat_room_id, sender);
`

const schemaSummaries = `
CREATE TABLE IF NOT EXISTS session_summaries (
    id TEXT PRIMARY KEY,
    chat_room_id TEXT NOT NULL,
    scenario_type TEXT NOT NULL,
    level TEXT NOT NULL,
    display_score INTEGER NOT NULL,
    total_score REAL NOT NULL,
    top_events TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_session_summaries_room ON session_summaries(chat_room_id);
CREATE INDEX IF NOT EXISTS idx_session_summaries_created ON session_summaries(created_at);
`

// Schemas returns all schema statements for a driver, in creation order.
func Schemas(driver string) []string {
	messages := schemaMessagesSQLite
	if driver == "postgres" {
		messages = schemaMessagesPostgres
	}
	return []string{
		schemaRooms,
		messages,
		schemaSummaries,
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/huddlehq/huddle-server/internal/store"
)

// DeletedMarker replaces message content on soft delete.
const DeletedMarker = "[Message deleted]"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	username       TEXT NOT NULL UNIQUE,
	display_name   TEXT NOT NULL DEFAULT '',
	password_hash  TEXT NOT NULL,
	status         TEXT NOT NULL DEFAULT 'offline',
	status_message TEXT NOT NULL DEFAULT '',
	is_online      BOOLEAN NOT NULL DEFAULT 0,
	last_seen      DATETIME,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS workspaces (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	owner_id   INTEGER NOT NULL REFERENCES users(id),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS workspace_members (
	workspace_id INTEGER NOT NULL REFERENCES workspaces(id),
	user_id      INTEGER NOT NULL REFERENCES users(id),
	joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (workspace_id, user_id)
);

CREATE TABLE IF NOT EXISTS channels (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	workspace_id INTEGER NOT NULL REFERENCES workspaces(id),
	name         TEXT NOT NULL,
	is_private   BOOLEAN NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS channel_members (
	channel_id   INTEGER NOT NULL REFERENCES channels(id),
	user_id      INTEGER NOT NULL REFERENCES users(id),
	last_read_at DATETIME,
	joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (channel_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	channel_id        INTEGER NOT NULL REFERENCES channels(id),
	user_id           INTEGER NOT NULL REFERENCES users(id),
	content           TEXT NOT NULL,
	message_type      TEXT NOT NULL DEFAULT 'text',
	parent_message_id INTEGER REFERENCES messages(id),
	is_edited         BOOLEAN NOT NULL DEFAULT 0,
	is_deleted        BOOLEAN NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	edited_at         DATETIME
);
CREATE INDEX IF NOT EXISTS idx_messages_channel ON messages(channel_id, created_at);

CREATE TABLE IF NOT EXISTS reactions (
	message_id INTEGER NOT NULL REFERENCES messages(id),
	user_id    INTEGER NOT NULL REFERENCES users(id),
	emoji      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (message_id, user_id, emoji)
);

CREATE TABLE IF NOT EXISTS mentions (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id        INTEGER NOT NULL REFERENCES messages(id),
	mentioned_user_id INTEGER NOT NULL REFERENCES users(id),
	created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS threads (
	message_id    INTEGER PRIMARY KEY REFERENCES messages(id),
	reply_count   INTEGER NOT NULL DEFAULT 0,
	last_reply_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS thread_participants (
	message_id INTEGER NOT NULL REFERENCES threads(message_id),
	user_id    INTEGER NOT NULL REFERENCES users(id),
	PRIMARY KEY (message_id, user_id)
);

CREATE TABLE IF NOT EXISTS calls (
	id           TEXT PRIMARY KEY,
	caller_id    INTEGER NOT NULL REFERENCES users(id),
	recipient_id INTEGER NOT NULL REFERENCES users(id),
	channel_id   INTEGER REFERENCES channels(id),
	workspace_id INTEGER REFERENCES workspaces(id),
	call_type    TEXT NOT NULL DEFAULT 'audio',
	status       TEXT NOT NULL DEFAULT 'ringing',
	started_at   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	connected_at DATETIME,
	ended_at     DATETIME,
	duration     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_calls_participants ON calls(caller_id, recipient_id, status);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

func (s *SQLiteStore) CreateUser(ctx context.Context, username, displayName, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, display_name, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, displayName, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE id = ?", id))
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, userSelect+" WHERE username = ?", username))
}

const userSelect = `
	SELECT id, username, display_name, password_hash, status, status_message,
	       is_online, last_seen, created_at
	FROM users`

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var u store.User
	var lastSeen sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash,
		&u.Status, &u.StatusMessage, &u.IsOnline, &lastSeen, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastSeen.Valid {
		u.LastSeen = &lastSeen.Time
	}
	return &u, nil
}

func (s *SQLiteStore) SetUserOnline(ctx context.Context, userID int64) error {
	query := `
		UPDATE users SET is_online = 1, status = 'online', last_seen = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("set user online: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetUserOffline(ctx context.Context, userID int64) error {
	query := `
		UPDATE users SET is_online = 0, status = 'offline', last_seen = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("set user offline: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateUserStatus(ctx context.Context, userID int64, status, statusMessage string) error {
	query := `
		UPDATE users SET status = ?, status_message = ? WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, status, statusMessage, userID); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// ==== WorkspaceStore implementation ====

func (s *SQLiteStore) CreateWorkspace(ctx context.Context, name string, ownerID int64) (*store.Workspace, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO workspaces (name, owner_id) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return nil, fmt.Errorf("insert workspace: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	if err := s.AddWorkspaceMember(ctx, id, ownerID); err != nil {
		return nil, err
	}

	var ws store.Workspace
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at FROM workspaces WHERE id = ?`, id)
	if err := row.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}
	return &ws, nil
}

func (s *SQLiteStore) AddWorkspaceMember(ctx context.Context, workspaceID, userID int64) error {
	query := `
		INSERT OR IGNORE INTO workspace_members (workspace_id, user_id) VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, workspaceID, userID); err != nil {
		return fmt.Errorf("add workspace member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsWorkspaceMember(ctx context.Context, workspaceID, userID int64) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check workspace member: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListWorkspaceIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT workspace_id FROM workspace_members WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan workspace id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ==== ChannelStore implementation ====

func (s *SQLiteStore) CreateChannel(ctx context.Context, workspaceID int64, name string, isPrivate bool) (*store.Channel, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (workspace_id, name, is_private) VALUES (?, ?, ?)`,
		workspaceID, name, isPrivate)
	if err != nil {
		return nil, fmt.Errorf("insert channel: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetChannelByID(ctx, id)
}

func (s *SQLiteStore) GetChannelByID(ctx context.Context, id int64) (*store.Channel, error) {
	var ch store.Channel
	row := s.db.QueryRowContext(ctx,
		`SELECT id, workspace_id, name, is_private, created_at FROM channels WHERE id = ?`, id)
	err := row.Scan(&ch.ID, &ch.WorkspaceID, &ch.Name, &ch.IsPrivate, &ch.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan channel: %w", err)
	}
	return &ch, nil
}

func (s *SQLiteStore) AddChannelMember(ctx context.Context, channelID, userID int64) error {
	query := `
		INSERT OR IGNORE INTO channel_members (channel_id, user_id) VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("add channel member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemoveChannelMember(ctx context.Context, channelID, userID int64) error {
	query := `
		DELETE FROM channel_members WHERE channel_id = ? AND user_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("remove channel member: %w", err)
	}
	return nil
}

func (s *SQLiteStore) IsChannelMember(ctx context.Context, channelID, userID int64) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM channel_members WHERE channel_id = ? AND user_id = ?`,
		channelID, userID)
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("check channel member: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) ListMemberChannelIDs(ctx context.Context, workspaceID, userID int64) ([]int64, error) {
	query := `
		SELECT c.id FROM channels c
		JOIN channel_members cm ON c.id = cm.channel_id
		WHERE c.workspace_id = ? AND cm.user_id = ?
	`
	rows, err := s.db.QueryContext(ctx, query, workspaceID, userID)
	if err != nil {
		return nil, fmt.Errorf("list member channels: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan channel id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) MarkChannelRead(ctx context.Context, channelID, userID int64) error {
	query := `
		UPDATE channel_members SET last_read_at = CURRENT_TIMESTAMP
		WHERE channel_id = ? AND user_id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, channelID, userID); err != nil {
		return fmt.Errorf("mark channel read: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

const messageSelect = `
	SELECT m.id, m.channel_id, m.user_id, m.content, m.message_type,
	       m.parent_message_id, m.is_edited, m.is_deleted, m.created_at, m.edited_at,
	       u.username, u.display_name
	FROM messages m
	JOIN users u ON m.user_id = u.id`

func (s *SQLiteStore) scanMessage(row *sql.Row) (*store.Message, error) {
	var m store.Message
	var parentID sql.NullInt64
	var editedAt sql.NullTime
	err := row.Scan(&m.ID, &m.ChannelID, &m.UserID, &m.Content, &m.MessageType,
		&parentID, &m.IsEdited, &m.IsDeleted, &m.CreatedAt, &editedAt,
		&m.Username, &m.DisplayName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan message: %w", err)
	}
	if parentID.Valid {
		m.ParentMessageID = &parentID.Int64
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	return &m, nil
}

func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	messageType := msg.MessageType
	if messageType == "" {
		messageType = "text"
	}

	query := `
		INSERT INTO messages (channel_id, user_id, content, message_type, parent_message_id)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query,
		msg.ChannelID, msg.UserID, msg.Content, messageType, msg.ParentMessageID)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return s.GetMessageByID(ctx, id)
}

func (s *SQLiteStore) GetMessageByID(ctx context.Context, id int64) (*store.Message, error) {
	return s.scanMessage(s.db.QueryRowContext(ctx, messageSelect+" WHERE m.id = ?", id))
}

func (s *SQLiteStore) UpdateMessageContent(ctx context.Context, id int64, content string) (*store.Message, error) {
	query := `
		UPDATE messages SET content = ?, is_edited = 1, edited_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, content, id); err != nil {
		return nil, fmt.Errorf("update message: %w", err)
	}
	return s.GetMessageByID(ctx, id)
}

func (s *SQLiteStore) SoftDeleteMessage(ctx context.Context, id int64) error {
	query := `
		UPDATE messages SET is_deleted = 1, content = ? WHERE id = ?
	`
	if _, err := s.db.ExecContext(ctx, query, DeletedMarker, id); err != nil {
		return fmt.Errorf("soft delete message: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	query := `
		INSERT OR IGNORE INTO reactions (message_id, user_id, emoji) VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, messageID, userID, emoji)
	if err != nil {
		return false, fmt.Errorf("insert reaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error) {
	query := `
		DELETE FROM reactions WHERE message_id = ? AND user_id = ? AND emoji = ?
	`
	result, err := s.db.ExecContext(ctx, query, messageID, userID, emoji)
	if err != nil {
		return false, fmt.Errorf("delete reaction: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) CreateMention(ctx context.Context, messageID, mentionedUserID int64) error {
	query := `
		INSERT INTO mentions (message_id, mentioned_user_id) VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, messageID, mentionedUserID); err != nil {
		return fmt.Errorf("insert mention: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpsertThread(ctx context.Context, parentMessageID, replierID int64) (*store.Thread, error) {
	query := `
		INSERT INTO threads (message_id, reply_count, last_reply_at)
		VALUES (?, 1, CURRENT_TIMESTAMP)
		ON CONFLICT (message_id) DO UPDATE SET
			reply_count = reply_count + 1,
			last_reply_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, parentMessageID); err != nil {
		return nil, fmt.Errorf("upsert thread: %w", err)
	}

	participant := `
		INSERT OR IGNORE INTO thread_participants (message_id, user_id) VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, participant, parentMessageID, replierID); err != nil {
		return nil, fmt.Errorf("insert thread participant: %w", err)
	}

	var t store.Thread
	row := s.db.QueryRowContext(ctx,
		`SELECT message_id, reply_count, last_reply_at FROM threads WHERE message_id = ?`,
		parentMessageID)
	if err := row.Scan(&t.MessageID, &t.ReplyCount, &t.LastReplyAt); err != nil {
		return nil, fmt.Errorf("scan thread: %w", err)
	}
	return &t, nil
}

// ==== CallStore implementation ====

func (s *SQLiteStore) CreateCall(ctx context.Context, call *store.Call) error {
	query := `
		INSERT INTO calls (id, caller_id, recipient_id, channel_id, workspace_id,
		                   call_type, status, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		call.ID, call.CallerID, call.RecipientID, call.ChannelID, call.WorkspaceID,
		call.CallType, call.Status, call.StartedAt)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateCall(ctx context.Context, call *store.Call) error {
	query := `
		UPDATE calls SET status = ?, connected_at = ?, ended_at = ?, duration = ?
		WHERE id = ?
	`
	_, err := s.db.ExecContext(ctx, query,
		call.Status, call.ConnectedAt, call.EndedAt, call.Duration, call.ID)
	if err != nil {
		return fmt.Errorf("update call: %w", err)
	}
	return nil
}

const callSelect = `
	SELECT id, caller_id, recipient_id, channel_id, workspace_id,
	       call_type, status, started_at, connected_at, ended_at, duration
	FROM calls`

func (s *SQLiteStore) GetCall(ctx context.Context, id string) (*store.Call, error) {
	row := s.db.QueryRowContext(ctx, callSelect+" WHERE id = ?", id)

	call, err := scanCall(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan call: %w", err)
	}
	return call, nil
}

func (s *SQLiteStore) ListActiveCalls(ctx context.Context, userID int64) ([]*store.Call, error) {
	query := callSelect + `
		WHERE (caller_id = ? OR recipient_id = ?)
		AND status IN ('ringing', 'connected')
		ORDER BY started_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list active calls: %w", err)
	}
	defer rows.Close()

	var calls []*store.Call
	for rows.Next() {
		call, err := scanCall(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		calls = append(calls, call)
	}
	return calls, rows.Err()
}

func scanCall(scan func(...any) error) (*store.Call, error) {
	var c store.Call
	var channelID, workspaceID sql.NullInt64
	var connectedAt, endedAt sql.NullTime
	err := scan(&c.ID, &c.CallerID, &c.RecipientID, &channelID, &workspaceID,
		&c.CallType, &c.Status, &c.StartedAt, &connectedAt, &endedAt, &c.Duration)
	if err != nil {
		return nil, err
	}
	if channelID.Valid {
		c.ChannelID = &channelID.Int64
	}
	if workspaceID.Valid {
		c.WorkspaceID = &workspaceID.Int64
	}
	if connectedAt.Valid {
		c.ConnectedAt = &connectedAt.Time
	}
	if endedAt.Valid {
		c.EndedAt = &endedAt.Time
	}
	return &c, nil
}

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// User represents a registered user.
type User struct {
	ID            int64
	Username      string
	DisplayName   string
	PasswordHash  string
	Status        string // online, away, dnd, offline
	StatusMessage string
	IsOnline      bool
	LastSeen      *time.Time
	CreatedAt     time.Time
}

// Workspace represents a team workspace.
type Workspace struct {
	ID        int64
	Name      string
	OwnerID   int64
	CreatedAt time.Time
}

// Channel represents a channel inside a workspace.
type Channel struct {
	ID          int64
	WorkspaceID int64
	Name        string
	IsPrivate   bool
	CreatedAt   time.Time
}

// Message represents a persisted chat message. Username and DisplayName
// are denormalized from the author row on read.
type Message struct {
	ID              int64
	ChannelID       int64
	UserID          int64
	Content         string
	MessageType     string
	ParentMessageID *int64
	IsEdited        bool
	IsDeleted       bool
	CreatedAt       time.Time
	EditedAt        *time.Time

	Username    string
	DisplayName string
}

// Thread aggregates replies under a parent message.
type Thread struct {
	MessageID   int64
	ReplyCount  int64
	LastReplyAt time.Time
}

// CallStatus defines call lifecycle states as stored.
type CallStatus string

const (
	CallStatusRinging   CallStatus = "ringing"
	CallStatusConnected CallStatus = "connected"
	CallStatusEnded     CallStatus = "ended"
	CallStatusMissed    CallStatus = "missed"
	CallStatusRejected  CallStatus = "rejected"
)

// Call represents a 1:1 audio call between two users.
type Call struct {
	ID          string // UUID
	CallerID    int64
	RecipientID int64
	ChannelID   *int64
	WorkspaceID *int64
	CallType    string
	Status      CallStatus
	StartedAt   time.Time
	ConnectedAt *time.Time
	EndedAt     *time.Time
	Duration    int64 // seconds, 0 if never connected
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a new user with hashed password.
	CreateUser(ctx context.Context, username, displayName, passwordHash string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// SetUserOnline marks the user online with status "online".
	SetUserOnline(ctx context.Context, userID int64) error

	// SetUserOffline marks the user offline and stamps last_seen.
	SetUserOffline(ctx context.Context, userID int64) error

	// UpdateUserStatus sets the explicit user status and optional message.
	UpdateUserStatus(ctx context.Context, userID int64, status, statusMessage string) error
}

// WorkspaceStore handles workspace persistence.
type WorkspaceStore interface {
	// CreateWorkspace creates a workspace and adds the owner as a member.
	CreateWorkspace(ctx context.Context, name string, ownerID int64) (*Workspace, error)

	// AddWorkspaceMember adds a user to a workspace.
	AddWorkspaceMember(ctx context.Context, workspaceID, userID int64) error

	// IsWorkspaceMember checks workspace membership.
	IsWorkspaceMember(ctx context.Context, workspaceID, userID int64) (bool, error)

	// ListWorkspaceIDs lists IDs of all workspaces the user belongs to.
	ListWorkspaceIDs(ctx context.Context, userID int64) ([]int64, error)
}

// ChannelStore handles channel persistence.
type ChannelStore interface {
	// CreateChannel creates a channel in a workspace.
	CreateChannel(ctx context.Context, workspaceID int64, name string, isPrivate bool) (*Channel, error)

	// GetChannelByID retrieves a channel by ID.
	GetChannelByID(ctx context.Context, id int64) (*Channel, error)

	// AddChannelMember adds a user to a channel.
	AddChannelMember(ctx context.Context, channelID, userID int64) error

	// RemoveChannelMember removes a user from a channel.
	RemoveChannelMember(ctx context.Context, channelID, userID int64) error

	// IsChannelMember checks channel membership.
	IsChannelMember(ctx context.Context, channelID, userID int64) (bool, error)

	// ListMemberChannelIDs lists channels of a workspace the user is a member of.
	ListMemberChannelIDs(ctx context.Context, workspaceID, userID int64) ([]int64, error)

	// MarkChannelRead stamps last_read_at for the member.
	MarkChannelRead(ctx context.Context, channelID, userID int64) error
}

// MessageStore handles message persistence.
type MessageStore interface {
	// CreateMessage persists a message and returns it with denormalized
	// author fields.
	CreateMessage(ctx context.Context, msg *Message) (*Message, error)

	// GetMessageByID retrieves a message by ID.
	GetMessageByID(ctx context.Context, id int64) (*Message, error)

	// UpdateMessageContent replaces the content, sets is_edited, and
	// returns the updated message.
	UpdateMessageContent(ctx context.Context, id int64, content string) (*Message, error)

	// SoftDeleteMessage marks the message deleted and replaces its content
	// with a deletion marker. The original content is not retrievable.
	SoftDeleteMessage(ctx context.Context, id int64) error

	// AddReaction stores a (message, user, emoji) reaction. Returns false
	// if the identical reaction already exists.
	AddReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error)

	// RemoveReaction deletes a reaction. Returns false if it did not exist.
	RemoveReaction(ctx context.Context, messageID, userID int64, emoji string) (bool, error)

	// CreateMention stores a mention record for a message.
	CreateMention(ctx context.Context, messageID, mentionedUserID int64) error

	// UpsertThread creates or updates the thread aggregate for a parent
	// message, bumping reply count and the participant set.
	UpsertThread(ctx context.Context, parentMessageID, replierID int64) (*Thread, error)
}

// CallStore handles call persistence.
type CallStore interface {
	// CreateCall creates a new call record.
	CreateCall(ctx context.Context, call *Call) error

	// UpdateCall updates an existing call record.
	UpdateCall(ctx context.Context, call *Call) error

	// GetCall retrieves a call by ID.
	GetCall(ctx context.Context, id string) (*Call, error)

	// ListActiveCalls lists ringing or connected calls involving the user.
	ListActiveCalls(ctx context.Context, userID int64) ([]*Call, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	WorkspaceStore
	ChannelStore
	MessageStore
	CallStore

	// Close closes the underlying database connection.
	Close() error
}

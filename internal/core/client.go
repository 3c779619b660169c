package core

import "sync"

// Client is the server-side session for one authenticated live connection.
type Client struct {
	// ConnID identifies this connection; a user reconnecting gets a new one.
	ConnID   string
	UserID   int64
	Username string

	Commands chan *Command
	Events   chan *Event

	// rooms is the set of room IDs this connection has joined.
	// Mutated only by the hub goroutine.
	rooms map[string]struct{}

	closeOnce sync.Once
}

// NewClient constructs a client session with initialized channels.
func NewClient(connID string, userID int64, username string) *Client {
	return &Client{
		ConnID:   connID,
		UserID:   userID,
		Username: username,
		Commands: make(chan *Command, 16),
		Events:   make(chan *Event, 32),
		rooms:    make(map[string]struct{}),
	}
}

// send queues an event for delivery, dropping it if the client is a slow
// consumer. Real-time events are loss-tolerant; clients resync over REST.
func (c *Client) send(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}

// InRoom reports whether this connection has joined the room.
func (c *Client) InRoom(roomID string) bool {
	_, ok := c.rooms[roomID]
	return ok
}

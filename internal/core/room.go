package core

import (
	"fmt"
	"sync"
)

// Room ID helpers. Rooms are namespaced by kind.

// WorkspaceRoom returns the room ID for a workspace.
func WorkspaceRoom(workspaceID int64) string {
	return fmt.Sprintf("workspace:%d", workspaceID)
}

// ChannelRoom returns the room ID for a channel.
func ChannelRoom(channelID int64) string {
	return fmt.Sprintf("channel:%d", channelID)
}

// CallRoom returns the room ID for a call.
func CallRoom(callID string) string {
	return "call:" + callID
}

// Room groups live connections subscribed to the same broadcast scope.
type Room struct {
	ID      string
	members map[*Client]struct{}
}

func newRoom(id string) *Room {
	return &Room{ID: id, members: make(map[*Client]struct{})}
}

// add inserts a client into the room. Returns true if newly added.
func (r *Room) add(c *Client) bool {
	if _, exists := r.members[c]; exists {
		return false
	}
	r.members[c] = struct{}{}
	return true
}

// remove deletes a client from the room. Returns true if removed.
func (r *Room) remove(c *Client) bool {
	if _, exists := r.members[c]; !exists {
		return false
	}
	delete(r.members, c)
	return true
}

func (r *Room) empty() bool {
	return len(r.members) == 0
}

// RoomSet tracks which connections are subscribed to which rooms. Rooms are
// created implicitly on first join and garbage-collected when empty.
// Membership is purely in-memory; clients re-join after reconnect.
type RoomSet struct {
	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewRoomSet constructs an empty room set.
func NewRoomSet() *RoomSet {
	return &RoomSet{rooms: make(map[string]*Room)}
}

// Join subscribes the client to the room. Joining twice is a no-op.
func (rs *RoomSet) Join(c *Client, roomID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	room, ok := rs.rooms[roomID]
	if !ok {
		room = newRoom(roomID)
		rs.rooms[roomID] = room
	}
	room.add(c)
	c.rooms[roomID] = struct{}{}
}

// Leave unsubscribes the client from the room. Returns false if the client
// was not a member.
func (rs *RoomSet) Leave(c *Client, roomID string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.leaveLocked(c, roomID)
}

func (rs *RoomSet) leaveLocked(c *Client, roomID string) bool {
	room, ok := rs.rooms[roomID]
	if !ok {
		return false
	}
	removed := room.remove(c)
	if room.empty() {
		delete(rs.rooms, roomID)
	}
	delete(c.rooms, roomID)
	return removed
}

// LeaveAll unsubscribes the client from every room it has joined.
func (rs *RoomSet) LeaveAll(c *Client) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	for roomID := range c.rooms {
		rs.leaveLocked(c, roomID)
	}
}

// Broadcast delivers the event to every member of the room except the
// optional excluded sender. Each member receives the event at most once;
// delivery order across members is unspecified.
func (rs *RoomSet) Broadcast(roomID string, ev *Event, exclude *Client) {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	room, ok := rs.rooms[roomID]
	if !ok {
		return
	}
	for member := range room.members {
		if member == exclude {
			continue
		}
		member.send(ev)
	}
}

// Members returns the current member count of a room.
func (rs *RoomSet) Members(roomID string) int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()
	if room, ok := rs.rooms[roomID]; ok {
		return len(room.members)
	}
	return 0
}

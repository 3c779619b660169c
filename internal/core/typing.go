package core

import (
	"github.com/huddlehq/huddle-server/internal/proto"
)

// handleTyping relays typing start/stop to everyone else in the channel
// room. Indicators are ephemeral and never touch the store; a client that
// disconnects mid-typing simply stops sending and the others time the
// indicator out locally.
func (h *Hub) handleTyping(c *Client, cmd *Command, start bool) {
	roomID := ChannelRoom(cmd.ChannelID)
	if !c.InRoom(roomID) {
		return
	}

	ev := proto.TypingEvent{
		UserID:    c.UserID,
		ChannelID: cmd.ChannelID,
	}
	name := proto.EventUserStoppedTyping
	if start {
		name = proto.EventUserTyping
		ev.Username = c.Username
	}
	h.rooms.Broadcast(roomID, event(name, ev), c)
}

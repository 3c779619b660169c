package core

import (
	"github.com/huddlehq/huddle-server/internal/proto"
)

var validStatuses = map[string]struct{}{
	"online":  {},
	"away":    {},
	"dnd":     {},
	"offline": {},
}

// handleUpdateStatus persists an explicit status change and fans it out to
// all of the user's workspace rooms. This channel is distinct from the
// connect/disconnect online/offline signal; the two may momentarily
// disagree.
func (h *Hub) handleUpdateStatus(c *Client, cmd *Command) {
	if _, ok := validStatuses[cmd.Status]; !ok {
		c.send(errorEvent(ErrCodeBadRequest, "Unknown status"))
		return
	}

	if err := h.store.UpdateUserStatus(h.ctx, c.UserID, cmd.Status, cmd.StatusMessage); err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("update user status")
		c.send(errorEvent(ErrCodePersistence, "Failed to update status"))
		return
	}

	workspaceIDs, err := h.store.ListWorkspaceIDs(h.ctx, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("list workspaces for status change")
		return
	}

	ev := event(proto.EventUserStatusChanged, proto.StatusChange{
		UserID:        c.UserID,
		Status:        cmd.Status,
		StatusMessage: cmd.StatusMessage,
	})
	for _, wsID := range workspaceIDs {
		h.rooms.Broadcast(WorkspaceRoom(wsID), ev, nil)
	}
}

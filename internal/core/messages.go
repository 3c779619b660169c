package core

import (
	"regexp"

	"github.com/huddlehq/huddle-server/internal/proto"
	"github.com/huddlehq/huddle-server/internal/store"
)

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// extractMentions returns the unique usernames referenced as @username in
// the content, in order of first appearance.
func extractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var names []string
	for _, m := range matches {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	return names
}

func messageEvent(m *store.Message) *proto.MessageEvent {
	ev := &proto.MessageEvent{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		UserID:          m.UserID,
		Content:         m.Content,
		MessageType:     m.MessageType,
		ParentMessageID: m.ParentMessageID,
		IsEdited:        m.IsEdited,
		IsDeleted:       m.IsDeleted,
		CreatedAt:       m.CreatedAt.Unix(),
		Username:        m.Username,
		DisplayName:     m.DisplayName,
	}
	return ev
}

func (h *Hub) handleSendMessage(c *Client, cmd *Command) {
	channel, err := h.store.GetChannelByID(h.ctx, cmd.ChannelID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Channel not found"))
		return
	}

	isMember, err := h.store.IsChannelMember(h.ctx, cmd.ChannelID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", cmd.ChannelID).Msg("check channel membership")
		c.send(errorEvent(ErrCodePersistence, "Failed to send message"))
		return
	}
	if !isMember && channel.IsPrivate {
		c.send(errorEvent(ErrCodeForbidden, "No access to this channel"))
		return
	}

	// Persistence must complete before the broadcast so every member sees
	// the canonical snapshot.
	msg, err := h.store.CreateMessage(h.ctx, &store.Message{
		ChannelID:       cmd.ChannelID,
		UserID:          c.UserID,
		Content:         cmd.Content,
		MessageType:     cmd.MessageType,
		ParentMessageID: cmd.ParentMessageID,
	})
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", cmd.ChannelID).Msg("persist message")
		c.send(errorEvent(ErrCodePersistence, "Failed to send message"))
		return
	}

	// Sender included: every UI orders on the same broadcast.
	h.rooms.Broadcast(ChannelRoom(cmd.ChannelID), event(proto.EventNewMessage, messageEvent(msg)), nil)

	h.notifyMentions(msg, channel)

	if cmd.ParentMessageID != nil {
		h.updateThread(c, msg, *cmd.ParentMessageID)
	}
}

// notifyMentions persists mention records and delivers targeted `mentioned`
// notifications. Best-effort: failures are logged and never roll back the
// message itself.
func (h *Hub) notifyMentions(msg *store.Message, channel *store.Channel) {
	for _, username := range extractMentions(msg.Content) {
		user, err := h.store.GetUserByUsername(h.ctx, username)
		if err != nil {
			continue // unresolvable mention, not an error
		}

		if err := h.store.CreateMention(h.ctx, msg.ID, user.ID); err != nil {
			h.log.Warn().Err(err).Int64("message_id", msg.ID).Int64("user_id", user.ID).Msg("persist mention")
		}

		// Targeted delivery, bypassing room membership.
		if target, ok := h.registry.Lookup(user.ID); ok {
			target.send(event(proto.EventMentioned, proto.Mentioned{
				Message:     *messageEvent(msg),
				ChannelID:   msg.ChannelID,
				WorkspaceID: channel.WorkspaceID,
			}))
		}
	}
}

func (h *Hub) updateThread(c *Client, reply *store.Message, parentID int64) {
	thread, err := h.store.UpsertThread(h.ctx, parentID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("parent_message_id", parentID).Msg("upsert thread")
		return
	}
	h.rooms.Broadcast(ChannelRoom(reply.ChannelID), event(proto.EventThreadUpdated, proto.ThreadUpdated{
		MessageID:   thread.MessageID,
		ReplyCount:  thread.ReplyCount,
		LastReplyAt: thread.LastReplyAt.Unix(),
		NewReply:    messageEvent(reply),
	}), nil)
}

func (h *Hub) handleEditMessage(c *Client, cmd *Command) {
	msg, err := h.store.GetMessageByID(h.ctx, cmd.MessageID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Message not found"))
		return
	}
	if msg.UserID != c.UserID {
		c.send(errorEvent(ErrCodeForbidden, "Cannot edit this message"))
		return
	}

	updated, err := h.store.UpdateMessageContent(h.ctx, cmd.MessageID, cmd.Content)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", cmd.MessageID).Msg("update message")
		c.send(errorEvent(ErrCodePersistence, "Failed to edit message"))
		return
	}

	h.rooms.Broadcast(ChannelRoom(msg.ChannelID), event(proto.EventMessageEdited, messageEvent(updated)), nil)
}

func (h *Hub) handleDeleteMessage(c *Client, cmd *Command) {
	msg, err := h.store.GetMessageByID(h.ctx, cmd.MessageID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Message not found"))
		return
	}
	if msg.UserID != c.UserID {
		c.send(errorEvent(ErrCodeForbidden, "Cannot delete this message"))
		return
	}

	if err := h.store.SoftDeleteMessage(h.ctx, cmd.MessageID); err != nil {
		h.log.Error().Err(err).Int64("message_id", cmd.MessageID).Msg("delete message")
		c.send(errorEvent(ErrCodePersistence, "Failed to delete message"))
		return
	}

	h.rooms.Broadcast(ChannelRoom(msg.ChannelID), event(proto.EventMessageDeleted, proto.MessageDeleted{
		MessageID: cmd.MessageID,
		ChannelID: msg.ChannelID,
	}), nil)
}

func (h *Hub) handleAddReaction(c *Client, cmd *Command) {
	msg, err := h.store.GetMessageByID(h.ctx, cmd.MessageID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Message not found"))
		return
	}

	added, err := h.store.AddReaction(h.ctx, cmd.MessageID, c.UserID, cmd.Emoji)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", cmd.MessageID).Msg("add reaction")
		c.send(errorEvent(ErrCodePersistence, "Failed to add reaction"))
		return
	}
	if !added {
		// Duplicate reaction is a no-op, and no duplicate broadcast.
		return
	}

	h.rooms.Broadcast(ChannelRoom(msg.ChannelID), event(proto.EventReactionAdded, proto.ReactionEvent{
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		Emoji:     cmd.Emoji,
	}), nil)
}

func (h *Hub) handleRemoveReaction(c *Client, cmd *Command) {
	msg, err := h.store.GetMessageByID(h.ctx, cmd.MessageID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Message not found"))
		return
	}

	removed, err := h.store.RemoveReaction(h.ctx, cmd.MessageID, c.UserID, cmd.Emoji)
	if err != nil {
		h.log.Error().Err(err).Int64("message_id", cmd.MessageID).Msg("remove reaction")
		c.send(errorEvent(ErrCodePersistence, "Failed to remove reaction"))
		return
	}
	if !removed {
		return
	}

	h.rooms.Broadcast(ChannelRoom(msg.ChannelID), event(proto.EventReactionRemoved, proto.ReactionEvent{
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		Emoji:     cmd.Emoji,
	}), nil)
}

package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/huddlehq/huddle-server/internal/proto"
	"github.com/huddlehq/huddle-server/internal/store"
)

type envelope struct {
	client *Client
	cmd    *Command
}

// Hub owns all realtime state: the connection registry, room membership,
// and in-flight call sessions. Every mutation happens on the single Run
// goroutine, which gives handlers the same effective atomicity a
// single-threaded event loop would; registry and rooms carry their own
// locks so reads from other goroutines stay safe.
type Hub struct {
	store       store.Store
	log         zerolog.Logger
	registry    *Registry
	rooms       *RoomSet
	calls       map[string]*CallSession
	ringTimeout time.Duration

	commands   chan envelope
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	sessions map[*Client]struct{}
	ctx      context.Context
}

// NewHub constructs a hub. ringTimeout of zero disables the ringing-call
// expiry timer. logger may be nil.
func NewHub(st store.Store, logger *zerolog.Logger, ringTimeout time.Duration) *Hub {
	lg := zerolog.Nop()
	if logger != nil {
		lg = *logger
	}
	return &Hub{
		store:       st,
		log:         lg,
		registry:    NewRegistry(),
		rooms:       NewRoomSet(),
		calls:       make(map[string]*CallSession),
		ringTimeout: ringTimeout,
		commands:    make(chan envelope, 64),
		register:    make(chan *Client, 8),
		unregister:  make(chan *Client, 8),
		done:        make(chan struct{}),
		sessions:    make(map[*Client]struct{}),
	}
}

// Run processes commands until the context is cancelled. It must be
// started exactly once.
func (h *Hub) Run(ctx context.Context) {
	h.ctx = ctx
	defer close(h.done)

	for {
		select {
		case c := <-h.register:
			h.handleRegister(c)
		case c := <-h.unregister:
			h.handleUnregister(c)
		case env := <-h.commands:
			h.dispatch(env.client, env.cmd)
		case <-ctx.Done():
			return
		}
	}
}

// RegisterClient hands a freshly authenticated session to the hub.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient tears the session down. Safe to call more than once.
func (h *Hub) UnregisterClient(c *Client) {
	c.closeOnce.Do(func() { close(c.Commands) })
}

// pump forwards one client's commands into the hub queue, preserving
// per-client FIFO. Exits when the transport closes the Commands channel.
func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		select {
		case h.commands <- envelope{client: c, cmd: cmd}:
		case <-h.done:
			return
		}
	}
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.sessions[c] = struct{}{}
	h.registry.Register(c)
	go h.pump(c)

	if err := h.store.SetUserOnline(h.ctx, c.UserID); err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("mark user online")
	}

	workspaceIDs, err := h.store.ListWorkspaceIDs(h.ctx, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("list workspaces on connect")
		return
	}
	ev := event(proto.EventUserOnline, proto.PresenceChange{UserID: c.UserID, Status: "online"})
	for _, wsID := range workspaceIDs {
		h.rooms.Broadcast(WorkspaceRoom(wsID), ev, c)
	}
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.sessions[c]; !ok {
		return
	}
	delete(h.sessions, c)

	if err := h.store.SetUserOffline(h.ctx, c.UserID); err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("mark user offline")
	}

	workspaceIDs, err := h.store.ListWorkspaceIDs(h.ctx, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("list workspaces on disconnect")
	} else {
		ev := event(proto.EventUserOffline, proto.PresenceChange{UserID: c.UserID})
		for _, wsID := range workspaceIDs {
			h.rooms.Broadcast(WorkspaceRoom(wsID), ev, c)
		}
	}

	h.rooms.LeaveAll(c)
	h.registry.Unregister(c)
	close(c.Events)
}

// dispatch runs one command to completion. A failure in one handler is
// converted to a scoped error event and never affects other sessions.
func (h *Hub) dispatch(c *Client, cmd *Command) {
	if cmd.Kind == commandRingTimeout {
		h.handleRingTimeout(cmd.CallID)
		return
	}
	if c == nil {
		return
	}
	if _, ok := h.sessions[c]; !ok {
		return
	}

	switch cmd.Kind {
	case CommandJoinWorkspace:
		h.handleJoinWorkspace(c, cmd)
	case CommandJoinChannel:
		h.handleJoinChannel(c, cmd)
	case CommandLeaveChannel:
		h.handleLeaveChannel(c, cmd)
	case CommandSendMessage:
		h.handleSendMessage(c, cmd)
	case CommandEditMessage:
		h.handleEditMessage(c, cmd)
	case CommandDeleteMessage:
		h.handleDeleteMessage(c, cmd)
	case CommandTypingStart:
		h.handleTyping(c, cmd, true)
	case CommandTypingStop:
		h.handleTyping(c, cmd, false)
	case CommandAddReaction:
		h.handleAddReaction(c, cmd)
	case CommandRemoveReaction:
		h.handleRemoveReaction(c, cmd)
	case CommandUpdateStatus:
		h.handleUpdateStatus(c, cmd)
	case CommandMarkRead:
		h.handleMarkRead(c, cmd)
	case CommandCallInitiate:
		h.handleCallInitiate(c, cmd)
	case CommandCallAccept:
		h.handleCallAccept(c, cmd)
	case CommandCallReject:
		h.handleCallReject(c, cmd)
	case CommandCallEnd:
		h.handleCallEnd(c, cmd)
	case CommandCallToggleMute:
		h.handleCallToggleMute(c, cmd)
	case CommandCallGetActive:
		h.handleCallGetActive(c)
	case CommandWebRTCOffer:
		h.relaySignal(c, cmd, proto.EventWebRTCOffer)
	case CommandWebRTCAnswer:
		h.relaySignal(c, cmd, proto.EventWebRTCAnswer)
	case CommandWebRTCCandidate:
		h.relaySignal(c, cmd, proto.EventWebRTCCandidate)
	default:
		c.send(errorEvent(ErrCodeBadRequest, "unknown command"))
	}
}

func (h *Hub) handleJoinWorkspace(c *Client, cmd *Command) {
	isMember, err := h.store.IsWorkspaceMember(h.ctx, cmd.WorkspaceID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("workspace_id", cmd.WorkspaceID).Msg("check workspace membership")
		c.send(errorEvent(ErrCodePersistence, "Failed to join workspace"))
		return
	}
	if !isMember {
		c.send(errorEvent(ErrCodeForbidden, "Not a member of this workspace"))
		return
	}

	h.rooms.Join(c, WorkspaceRoom(cmd.WorkspaceID))

	// Re-establish membership in every channel the user belongs to, so a
	// reconnecting client keeps receiving channel traffic.
	channelIDs, err := h.store.ListMemberChannelIDs(h.ctx, cmd.WorkspaceID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("workspace_id", cmd.WorkspaceID).Msg("list member channels")
	} else {
		for _, chID := range channelIDs {
			h.rooms.Join(c, ChannelRoom(chID))
		}
	}

	c.send(event(proto.EventJoinedWorkspace, proto.JoinedWorkspace{WorkspaceID: cmd.WorkspaceID}))
}

func (h *Hub) handleJoinChannel(c *Client, cmd *Command) {
	channel, err := h.store.GetChannelByID(h.ctx, cmd.ChannelID)
	if err != nil {
		c.send(errorEvent(ErrCodeNotFound, "Channel not found"))
		return
	}

	isMember, err := h.store.IsChannelMember(h.ctx, cmd.ChannelID, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("channel_id", cmd.ChannelID).Msg("check channel membership")
		c.send(errorEvent(ErrCodePersistence, "Failed to join channel"))
		return
	}
	if !isMember && channel.IsPrivate {
		c.send(errorEvent(ErrCodeForbidden, "No access to this channel"))
		return
	}

	roomID := ChannelRoom(cmd.ChannelID)
	h.rooms.Join(c, roomID)
	c.send(event(proto.EventJoinedChannel, proto.JoinedChannel{ChannelID: cmd.ChannelID}))
	h.rooms.Broadcast(roomID, event(proto.EventUserJoinedChannel, proto.ChannelPresence{ChannelID: cmd.ChannelID, UserID: c.UserID}), c)
}

func (h *Hub) handleLeaveChannel(c *Client, cmd *Command) {
	roomID := ChannelRoom(cmd.ChannelID)
	h.rooms.Leave(c, roomID)
	h.rooms.Broadcast(roomID, event(proto.EventUserLeftChannel, proto.ChannelPresence{ChannelID: cmd.ChannelID, UserID: c.UserID}), c)
}

func (h *Hub) handleMarkRead(c *Client, cmd *Command) {
	if err := h.store.MarkChannelRead(h.ctx, cmd.ChannelID, c.UserID); err != nil {
		h.log.Error().Err(err).Int64("channel_id", cmd.ChannelID).Msg("mark channel read")
		return
	}
	c.send(event(proto.EventChannelMarkedRead, proto.ChannelMarkedRead{ChannelID: cmd.ChannelID}))
}

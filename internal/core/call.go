package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/huddlehq/huddle-server/internal/proto"
	"github.com/huddlehq/huddle-server/internal/store"
)

// CallState is the lifecycle state of a call session.
type CallState int

const (
	// CallRinging means the recipient has been notified and not yet answered.
	CallRinging CallState = iota
	// CallConnected means both parties are in the call.
	CallConnected
	// CallEnded means a connected call was hung up.
	CallEnded
	// CallMissed means the call rang out or the recipient was unreachable.
	CallMissed
	// CallRejected means the recipient declined while ringing.
	CallRejected
)

func (s CallState) String() string {
	switch s {
	case CallRinging:
		return "ringing"
	case CallConnected:
		return "connected"
	case CallEnded:
		return "ended"
	case CallMissed:
		return "missed"
	case CallRejected:
		return "rejected"
	}
	return "unknown"
}

// Terminal reports whether the state admits no further transitions.
func (s CallState) Terminal() bool {
	return s != CallRinging && s != CallConnected
}

// callTransitions is the full transition table. Anything absent is an
// invalid transition and must be refused.
var callTransitions = map[CallState][]CallState{
	CallRinging:   {CallConnected, CallMissed, CallRejected, CallEnded},
	CallConnected: {CallEnded},
}

func (s CallState) canTransition(to CallState) bool {
	for _, next := range callTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// CallSession is the hub-owned in-memory state of one call. The store row
// trails it: the session is authoritative while the call is live.
type CallSession struct {
	ID          string
	CallerID    int64
	RecipientID int64
	ChannelID   *int64
	WorkspaceID *int64
	CallType    string
	State       CallState
	StartedAt   time.Time
	ConnectedAt time.Time

	ring *time.Timer
}

func (s *CallSession) involves(userID int64) bool {
	return s.CallerID == userID || s.RecipientID == userID
}

func (s *CallSession) stopRing() {
	if s.ring != nil {
		s.ring.Stop()
		s.ring = nil
	}
}

// liveCallBetween finds a non-terminal session for the ordered caller →
// recipient pair. Sessions in terminal states never linger in h.calls, so
// presence in the map is enough.
func (h *Hub) liveCallBetween(callerID, recipientID int64) *CallSession {
	for _, sess := range h.calls {
		if sess.CallerID == callerID && sess.RecipientID == recipientID {
			return sess
		}
	}
	return nil
}

// finishCall moves the session to a terminal state, persists the outcome
// best-effort, and drops the session. Callers have already validated the
// transition.
func (h *Hub) finishCall(sess *CallSession, to CallState) {
	sess.stopRing()
	sess.State = to
	delete(h.calls, sess.ID)

	now := time.Now()
	call := &store.Call{
		ID:          sess.ID,
		CallerID:    sess.CallerID,
		RecipientID: sess.RecipientID,
		ChannelID:   sess.ChannelID,
		WorkspaceID: sess.WorkspaceID,
		CallType:    sess.CallType,
		Status:      store.CallStatus(to.String()),
		StartedAt:   sess.StartedAt,
		EndedAt:     &now,
	}
	if !sess.ConnectedAt.IsZero() {
		connectedAt := sess.ConnectedAt
		call.ConnectedAt = &connectedAt
		call.Duration = int64(now.Sub(connectedAt) / time.Second)
	}
	if err := h.store.UpdateCall(h.ctx, call); err != nil {
		h.log.Error().Err(err).Str("call_id", sess.ID).Str("status", to.String()).Msg("persist call outcome")
	}
}

func (h *Hub) handleCallInitiate(c *Client, cmd *Command) {
	if cmd.TargetUserID == c.UserID {
		c.send(callErrorEvent(ErrCodeInvalidCall, "Cannot call yourself"))
		return
	}
	if sess := h.liveCallBetween(c.UserID, cmd.TargetUserID); sess != nil {
		c.send(callErrorEvent(ErrCodeInvalidCall, "Call already in progress"))
		return
	}

	callType := cmd.CallType
	if callType == "" {
		callType = "audio"
	}

	sess := &CallSession{
		ID:          uuid.New().String(),
		CallerID:    c.UserID,
		RecipientID: cmd.TargetUserID,
		ChannelID:   cmd.CallChannelID,
		WorkspaceID: cmd.CallWorkspace,
		CallType:    callType,
		State:       CallRinging,
		StartedAt:   time.Now(),
	}

	if err := h.store.CreateCall(h.ctx, &store.Call{
		ID:          sess.ID,
		CallerID:    sess.CallerID,
		RecipientID: sess.RecipientID,
		ChannelID:   sess.ChannelID,
		WorkspaceID: sess.WorkspaceID,
		CallType:    sess.CallType,
		Status:      store.CallStatusRinging,
		StartedAt:   sess.StartedAt,
	}); err != nil {
		h.log.Error().Err(err).Int64("caller_id", c.UserID).Msg("create call")
		c.send(callErrorEvent(ErrCodePersistence, "Failed to initiate call"))
		return
	}

	recipient, online := h.registry.Lookup(cmd.TargetUserID)
	if !online {
		// No live connection: record the miss immediately rather than
		// letting the call ring into the void.
		h.calls[sess.ID] = sess
		h.finishCall(sess, CallMissed)
		c.send(event(proto.EventCallUnavailable, proto.CallUnavailable{
			RecipientID: cmd.TargetUserID,
			Reason:      "offline",
		}))
		return
	}

	h.calls[sess.ID] = sess

	caller := proto.CallerProfile{ID: c.UserID, Username: c.Username}
	if u, err := h.store.GetUserByID(h.ctx, c.UserID); err == nil {
		caller.DisplayName = u.DisplayName
	}
	recipient.send(event(proto.EventCallIncoming, proto.CallIncoming{
		CallID:      sess.ID,
		Caller:      caller,
		ChannelID:   sess.ChannelID,
		WorkspaceID: sess.WorkspaceID,
		CallType:    sess.CallType,
	}))
	c.send(event(proto.EventCallInitiated, proto.CallInitiated{
		CallID:      sess.ID,
		RecipientID: sess.RecipientID,
		Status:      CallRinging.String(),
	}))

	if h.ringTimeout > 0 {
		callID := sess.ID
		sess.ring = time.AfterFunc(h.ringTimeout, func() {
			select {
			case h.commands <- envelope{cmd: &Command{Kind: commandRingTimeout, CallID: callID}}:
			case <-h.done:
			}
		})
	}
}

func (h *Hub) handleCallAccept(c *Client, cmd *Command) {
	sess, ok := h.calls[cmd.CallID]
	if !ok || sess.RecipientID != c.UserID || !sess.State.canTransition(CallConnected) {
		c.send(callErrorEvent(ErrCodeInvalidCall, "Invalid call"))
		return
	}

	sess.stopRing()
	sess.State = CallConnected
	sess.ConnectedAt = time.Now()

	connectedAt := sess.ConnectedAt
	if err := h.store.UpdateCall(h.ctx, &store.Call{
		ID:          sess.ID,
		CallerID:    sess.CallerID,
		RecipientID: sess.RecipientID,
		ChannelID:   sess.ChannelID,
		WorkspaceID: sess.WorkspaceID,
		CallType:    sess.CallType,
		Status:      store.CallStatusConnected,
		StartedAt:   sess.StartedAt,
		ConnectedAt: &connectedAt,
	}); err != nil {
		// The live call proceeds; only the record is stale.
		h.log.Error().Err(err).Str("call_id", sess.ID).Msg("persist call accept")
		c.send(callErrorEvent(ErrCodePersistence, "Failed to update call"))
	}

	roomID := CallRoom(sess.ID)
	h.rooms.Join(c, roomID)
	if caller, ok := h.registry.Lookup(sess.CallerID); ok {
		h.rooms.Join(caller, roomID)
		caller.send(event(proto.EventCallAccepted, proto.CallAccepted{
			CallID:     sess.ID,
			AcceptedBy: c.UserID,
		}))
	}
}

func (h *Hub) handleCallReject(c *Client, cmd *Command) {
	sess, ok := h.calls[cmd.CallID]
	if !ok || sess.RecipientID != c.UserID || !sess.State.canTransition(CallRejected) {
		c.send(callErrorEvent(ErrCodeInvalidCall, "Invalid call"))
		return
	}

	reason := cmd.Reason
	if reason == "" {
		reason = "rejected"
	}

	h.finishCall(sess, CallRejected)
	if caller, ok := h.registry.Lookup(sess.CallerID); ok {
		caller.send(event(proto.EventCallRejected, proto.CallRejected{
			CallID:     sess.ID,
			Reason:     reason,
			RejectedBy: c.UserID,
		}))
	}
}

func (h *Hub) handleCallEnd(c *Client, cmd *Command) {
	sess, ok := h.calls[cmd.CallID]
	if !ok || !sess.involves(c.UserID) || !sess.State.canTransition(CallEnded) {
		c.send(callErrorEvent(ErrCodeInvalidCall, "Invalid call"))
		return
	}

	h.finishCall(sess, CallEnded)

	otherID := sess.CallerID
	if c.UserID == sess.CallerID {
		otherID = sess.RecipientID
	}
	if other, ok := h.registry.Lookup(otherID); ok {
		other.send(event(proto.EventCallEnded, proto.CallEnded{
			CallID:  sess.ID,
			EndedBy: c.UserID,
		}))
		h.rooms.Leave(other, CallRoom(sess.ID))
	}
	h.rooms.Leave(c, CallRoom(sess.ID))
}

// handleRingTimeout expires a call still ringing past the deadline. Both
// parties learn the call is over; the record becomes a missed call.
func (h *Hub) handleRingTimeout(callID string) {
	sess, ok := h.calls[callID]
	if !ok || sess.State != CallRinging {
		return
	}

	h.finishCall(sess, CallMissed)

	ev := event(proto.EventCallEnded, proto.CallEnded{CallID: sess.ID, Reason: "missed"})
	if caller, ok := h.registry.Lookup(sess.CallerID); ok {
		caller.send(ev)
	}
	if recipient, ok := h.registry.Lookup(sess.RecipientID); ok {
		recipient.send(ev)
	}
}

func (h *Hub) handleCallToggleMute(c *Client, cmd *Command) {
	sess, ok := h.calls[cmd.CallID]
	if !ok || !sess.involves(c.UserID) {
		return
	}
	h.rooms.Broadcast(CallRoom(sess.ID), event(proto.EventCallUserMuted, proto.CallUserMuted{
		UserID:  c.UserID,
		IsMuted: cmd.IsMuted,
	}), c)
}

func (h *Hub) handleCallGetActive(c *Client) {
	calls, err := h.store.ListActiveCalls(h.ctx, c.UserID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", c.UserID).Msg("list active calls")
		c.send(callErrorEvent(ErrCodePersistence, "Failed to list calls"))
		return
	}

	infos := make([]proto.CallInfo, 0, len(calls))
	for _, call := range calls {
		infos = append(infos, proto.CallInfo{
			CallID:      call.ID,
			CallerID:    call.CallerID,
			RecipientID: call.RecipientID,
			Status:      string(call.Status),
			StartedAt:   call.StartedAt.Unix(),
		})
	}
	c.send(event(proto.EventCallActiveCalls, infos))
}

// relaySignal forwards an SDP offer/answer or ICE candidate to the target
// user verbatim. An offline target is a silent drop: ICE exchange is
// redundant and the call-level timeout handles a vanished peer.
func (h *Hub) relaySignal(c *Client, cmd *Command, eventName string) {
	target, ok := h.registry.Lookup(cmd.TargetUserID)
	if !ok {
		return
	}

	sig := proto.WebRTCSignal{
		CallID:     cmd.CallID,
		FromUserID: c.UserID,
	}
	switch eventName {
	case proto.EventWebRTCOffer:
		sig.Offer = cmd.Signal
	case proto.EventWebRTCAnswer:
		sig.Answer = cmd.Signal
	case proto.EventWebRTCCandidate:
		sig.Candidate = cmd.Signal
	}
	target.send(event(eventName, sig))
}

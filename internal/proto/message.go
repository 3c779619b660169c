package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

const (
	ProtocolVersion = 1

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Inbound message types. Chat events use snake_case payload keys, call
// events use camelCase; both follow the original client wire format.
const (
	InboundJoinWorkspace   = "join_workspace"
	InboundJoinChannel     = "join_channel"
	InboundLeaveChannel    = "leave_channel"
	InboundSendMessage     = "send_message"
	InboundEditMessage     = "edit_message"
	InboundDeleteMessage   = "delete_message"
	InboundTypingStart     = "typing_start"
	InboundTypingStop      = "typing_stop"
	InboundAddReaction     = "add_reaction"
	InboundRemoveReaction  = "remove_reaction"
	InboundUpdateStatus    = "update_status"
	InboundMarkRead        = "mark_read"
	InboundCallInitiate    = "call:initiate"
	InboundCallAccept      = "call:accept"
	InboundCallReject      = "call:reject"
	InboundCallEnd         = "call:end"
	InboundCallToggleMute  = "call:toggle-mute"
	InboundCallGetActive   = "call:get-active"
	InboundWebRTCOffer     = "webrtc:offer"
	InboundWebRTCAnswer    = "webrtc:answer"
	InboundWebRTCCandidate = "webrtc:ice-candidate"
)

// Outbound event names.
const (
	EventJoinedWorkspace   = "joined_workspace"
	EventJoinedChannel     = "joined_channel"
	EventUserOnline        = "user_online"
	EventUserOffline       = "user_offline"
	EventUserStatusChanged = "user_status_changed"
	EventUserJoinedChannel = "user_joined_channel"
	EventUserLeftChannel   = "user_left_channel"
	EventNewMessage        = "new_message"
	EventMessageEdited     = "message_edited"
	EventMessageDeleted    = "message_deleted"
	EventReactionAdded     = "reaction_added"
	EventReactionRemoved   = "reaction_removed"
	EventThreadUpdated     = "thread_updated"
	EventMentioned         = "mentioned"
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventChannelMarkedRead = "channel_marked_read"
	EventCallIncoming      = "call:incoming"
	EventCallInitiated     = "call:initiated"
	EventCallAccepted      = "call:accepted"
	EventCallRejected      = "call:rejected"
	EventCallEnded         = "call:ended"
	EventCallUnavailable   = "call:recipient_unavailable"
	EventCallActiveCalls   = "call:active-calls"
	EventCallUserMuted     = "call:user-muted"
	EventCallError         = "call:error"
	EventError             = "error"
	EventWebRTCOffer       = "webrtc:offer"
	EventWebRTCAnswer      = "webrtc:answer"
	EventWebRTCCandidate   = "webrtc:ice-candidate"
)

// ==== Inbound payloads ====

// JoinWorkspaceData requests to join a workspace room.
type JoinWorkspaceData struct {
	WorkspaceID int64 `json:"workspace_id"`
}

// JoinChannelData requests to join or leave a channel room.
type JoinChannelData struct {
	ChannelID int64 `json:"channel_id"`
}

// SendMessageData is a chat message from the client.
type SendMessageData struct {
	ChannelID       int64  `json:"channel_id"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type,omitempty"`
	ParentMessageID *int64 `json:"parent_message_id,omitempty"`
}

// EditMessageData requests an edit of an existing message.
type EditMessageData struct {
	MessageID int64  `json:"message_id"`
	Content   string `json:"content"`
}

// DeleteMessageData requests a soft delete of a message.
type DeleteMessageData struct {
	MessageID int64 `json:"message_id"`
}

// TypingData marks typing start/stop in a channel.
type TypingData struct {
	ChannelID int64 `json:"channel_id"`
}

// ReactionData adds or removes an emoji reaction.
type ReactionData struct {
	MessageID int64  `json:"message_id"`
	Emoji     string `json:"emoji"`
}

// UpdateStatusData sets the user's explicit presence status.
type UpdateStatusData struct {
	Status        string `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
}

// MarkReadData marks a channel as read.
type MarkReadData struct {
	ChannelID int64 `json:"channel_id"`
}

// CallInitiateData starts a call to another user.
type CallInitiateData struct {
	TargetUserID int64  `json:"targetUserId"`
	ChannelID    *int64 `json:"channelId,omitempty"`
	WorkspaceID  *int64 `json:"workspaceId,omitempty"`
	CallType     string `json:"callType,omitempty"`
}

// CallAcceptData accepts a ringing call.
type CallAcceptData struct {
	CallID string `json:"callId"`
}

// CallRejectData declines a ringing call.
type CallRejectData struct {
	CallID string `json:"callId"`
	Reason string `json:"reason,omitempty"`
}

// CallEndData hangs up a call.
type CallEndData struct {
	CallID string `json:"callId"`
}

// CallToggleMuteData signals the sender's mute state to the call room.
type CallToggleMuteData struct {
	CallID  string `json:"callId"`
	IsMuted bool   `json:"isMuted"`
}

// WebRTCSignalData carries an SDP offer/answer or ICE candidate to relay.
// The payload is forwarded verbatim; the server never inspects it.
type WebRTCSignalData struct {
	TargetUserID int64           `json:"targetUserId"`
	CallID       string          `json:"callId"`
	Offer        json.RawMessage `json:"offer,omitempty"`
	Answer       json.RawMessage `json:"answer,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

// ==== Outbound payloads ====

// JoinedWorkspace acknowledges a workspace join.
type JoinedWorkspace struct {
	WorkspaceID int64 `json:"workspace_id"`
}

// JoinedChannel acknowledges a channel join.
type JoinedChannel struct {
	ChannelID int64 `json:"channel_id"`
}

// PresenceChange notifies about a user coming online or going offline.
type PresenceChange struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status,omitempty"`
}

// StatusChange notifies about an explicit status update.
type StatusChange struct {
	UserID        int64  `json:"user_id"`
	Status        string `json:"status"`
	StatusMessage string `json:"status_message,omitempty"`
}

// ChannelPresence notifies that a user joined or left a channel.
type ChannelPresence struct {
	ChannelID int64 `json:"channel_id"`
	UserID    int64 `json:"user_id"`
}

// MessageEvent is the canonical post-persistence message snapshot.
type MessageEvent struct {
	ID              int64  `json:"id"`
	ChannelID       int64  `json:"channel_id"`
	UserID          int64  `json:"user_id"`
	Content         string `json:"content"`
	MessageType     string `json:"message_type"`
	ParentMessageID *int64 `json:"parent_message_id,omitempty"`
	IsEdited        bool   `json:"is_edited"`
	IsDeleted       bool   `json:"is_deleted"`
	CreatedAt       int64  `json:"created_at"`
	Username        string `json:"username"`
	DisplayName     string `json:"display_name,omitempty"`
}

// MessageDeleted notifies that a message was soft-deleted.
type MessageDeleted struct {
	MessageID int64 `json:"message_id"`
	ChannelID int64 `json:"channel_id"`
}

// ReactionEvent notifies about an added or removed reaction.
type ReactionEvent struct {
	MessageID int64  `json:"message_id"`
	UserID    int64  `json:"user_id"`
	Emoji     string `json:"emoji"`
}

// ThreadUpdated notifies that a thread received a new reply.
type ThreadUpdated struct {
	MessageID   int64         `json:"message_id"`
	ReplyCount  int64         `json:"reply_count"`
	LastReplyAt int64         `json:"last_reply_at"`
	NewReply    *MessageEvent `json:"new_reply,omitempty"`
}

// Mentioned is delivered directly to a mentioned user's connection.
type Mentioned struct {
	Message     MessageEvent `json:"message"`
	ChannelID   int64        `json:"channel_id"`
	WorkspaceID int64        `json:"workspace_id"`
}

// TypingEvent notifies that a user is typing in a channel.
type TypingEvent struct {
	ChannelID int64  `json:"channel_id"`
	UserID    int64  `json:"user_id"`
	Username  string `json:"username,omitempty"`
}

// ChannelMarkedRead acknowledges a mark_read request.
type ChannelMarkedRead struct {
	ChannelID int64 `json:"channel_id"`
}

// CallerProfile identifies the caller in an incoming-call notification.
type CallerProfile struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// CallIncoming notifies the recipient about an incoming call.
type CallIncoming struct {
	CallID      string        `json:"callId"`
	Caller      CallerProfile `json:"caller"`
	ChannelID   *int64        `json:"channelId,omitempty"`
	WorkspaceID *int64        `json:"workspaceId,omitempty"`
	CallType    string        `json:"callType"`
}

// CallInitiated acknowledges call initiation to the caller.
type CallInitiated struct {
	CallID      string `json:"callId"`
	RecipientID int64  `json:"recipientId"`
	Status      string `json:"status"`
}

// CallAccepted notifies the caller that the call was accepted.
type CallAccepted struct {
	CallID     string `json:"callId"`
	AcceptedBy int64  `json:"acceptedBy"`
}

// CallRejected notifies the caller that the call was declined.
type CallRejected struct {
	CallID     string `json:"callId"`
	Reason     string `json:"reason"`
	RejectedBy int64  `json:"rejectedBy"`
}

// CallEnded notifies a party that the call is over.
type CallEnded struct {
	CallID  string `json:"callId"`
	EndedBy int64  `json:"endedBy,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// CallUnavailable notifies the caller that the recipient has no live
// connection.
type CallUnavailable struct {
	RecipientID int64  `json:"recipientId"`
	Reason      string `json:"reason"`
}

// CallUserMuted signals a mute toggle inside a call room.
type CallUserMuted struct {
	UserID  int64 `json:"userId"`
	IsMuted bool  `json:"isMuted"`
}

// CallInfo describes one active call in a call:active-calls response.
type CallInfo struct {
	CallID      string `json:"callId"`
	CallerID    int64  `json:"callerId"`
	RecipientID int64  `json:"recipientId"`
	Status      string `json:"status"`
	StartedAt   int64  `json:"startedAt"`
}

// WebRTCSignal is a relayed offer/answer/candidate with the sender attached.
type WebRTCSignal struct {
	CallID     string          `json:"callId"`
	FromUserID int64           `json:"fromUserId"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
}

// ErrorEvent is the generic failure envelope for error and call:error.
type ErrorEvent struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

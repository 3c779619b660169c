package core

import "encoding/json"

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinWorkspace subscribes the session to a workspace room and
	// all of its member channels.
	CommandJoinWorkspace CommandKind = iota
	// CommandJoinChannel subscribes the session to a channel room.
	CommandJoinChannel
	// CommandLeaveChannel unsubscribes the session from a channel room.
	CommandLeaveChannel
	// CommandSendMessage persists and fans out a chat message.
	CommandSendMessage
	// CommandEditMessage edits an owned message.
	CommandEditMessage
	// CommandDeleteMessage soft-deletes an owned message.
	CommandDeleteMessage
	// CommandTypingStart broadcasts a typing indicator.
	CommandTypingStart
	// CommandTypingStop clears a typing indicator.
	CommandTypingStop
	// CommandAddReaction adds an emoji reaction to a message.
	CommandAddReaction
	// CommandRemoveReaction removes an emoji reaction from a message.
	CommandRemoveReaction
	// CommandUpdateStatus sets the user's explicit presence status.
	CommandUpdateStatus
	// CommandMarkRead stamps the channel read cursor.
	CommandMarkRead
	// CommandCallInitiate starts ringing another user.
	CommandCallInitiate
	// CommandCallAccept answers a ringing call.
	CommandCallAccept
	// CommandCallReject declines a ringing call.
	CommandCallReject
	// CommandCallEnd hangs up a call.
	CommandCallEnd
	// CommandCallToggleMute signals mute state to the call room.
	CommandCallToggleMute
	// CommandCallGetActive lists the requester's active calls.
	CommandCallGetActive
	// CommandWebRTCOffer relays an SDP offer to the target user.
	CommandWebRTCOffer
	// CommandWebRTCAnswer relays an SDP answer to the target user.
	CommandWebRTCAnswer
	// CommandWebRTCCandidate relays an ICE candidate to the target user.
	CommandWebRTCCandidate

	// commandRingTimeout is posted by the ring timer when a call stays in
	// Ringing past the configured deadline. Never produced by clients.
	commandRingTimeout
)

// Command represents an action requested by a client. Only the fields
// relevant to the Kind are populated.
type Command struct {
	Kind CommandKind

	WorkspaceID int64
	ChannelID   int64
	MessageID   int64

	Content         string
	MessageType     string
	ParentMessageID *int64
	Emoji           string

	Status        string
	StatusMessage string

	TargetUserID  int64
	CallID        string
	CallType      string
	Reason        string
	IsMuted       bool
	CallChannelID *int64
	CallWorkspace *int64

	// Signal is the opaque WebRTC payload relayed verbatim.
	Signal json.RawMessage
}

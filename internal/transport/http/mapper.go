package http

import (
	"encoding/json"

	"github.com/huddlehq/huddle-server/internal/core"
	"github.com/huddlehq/huddle-server/internal/proto"
)

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// inboundToCommand translates a wire message into a core command. Any
// malformed or invalid payload becomes a protocol error for the sender;
// mapping never terminates the connection.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundJoinWorkspace:
		var d proto.JoinWorkspaceData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.WorkspaceID == 0 {
			return nil, badRequest("workspace_id is required")
		}
		return &core.Command{Kind: core.CommandJoinWorkspace, WorkspaceID: d.WorkspaceID}, nil

	case proto.InboundJoinChannel, proto.InboundLeaveChannel:
		var d proto.JoinChannelData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.ChannelID == 0 {
			return nil, badRequest("channel_id is required")
		}
		kind := core.CommandJoinChannel
		if inbound.Type == proto.InboundLeaveChannel {
			kind = core.CommandLeaveChannel
		}
		return &core.Command{Kind: kind, ChannelID: d.ChannelID}, nil

	case proto.InboundSendMessage:
		var d proto.SendMessageData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.ChannelID == 0 {
			return nil, badRequest("channel_id is required")
		}
		if d.Content == "" {
			return nil, badRequest("content is required")
		}
		return &core.Command{
			Kind:            core.CommandSendMessage,
			ChannelID:       d.ChannelID,
			Content:         d.Content,
			MessageType:     d.MessageType,
			ParentMessageID: d.ParentMessageID,
		}, nil

	case proto.InboundEditMessage:
		var d proto.EditMessageData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.MessageID == 0 || d.Content == "" {
			return nil, badRequest("message_id and content are required")
		}
		return &core.Command{Kind: core.CommandEditMessage, MessageID: d.MessageID, Content: d.Content}, nil

	case proto.InboundDeleteMessage:
		var d proto.DeleteMessageData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.MessageID == 0 {
			return nil, badRequest("message_id is required")
		}
		return &core.Command{Kind: core.CommandDeleteMessage, MessageID: d.MessageID}, nil

	case proto.InboundTypingStart, proto.InboundTypingStop:
		var d proto.TypingData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.ChannelID == 0 {
			return nil, badRequest("channel_id is required")
		}
		kind := core.CommandTypingStart
		if inbound.Type == proto.InboundTypingStop {
			kind = core.CommandTypingStop
		}
		return &core.Command{Kind: kind, ChannelID: d.ChannelID}, nil

	case proto.InboundAddReaction, proto.InboundRemoveReaction:
		var d proto.ReactionData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.MessageID == 0 || d.Emoji == "" {
			return nil, badRequest("message_id and emoji are required")
		}
		kind := core.CommandAddReaction
		if inbound.Type == proto.InboundRemoveReaction {
			kind = core.CommandRemoveReaction
		}
		return &core.Command{Kind: kind, MessageID: d.MessageID, Emoji: d.Emoji}, nil

	case proto.InboundUpdateStatus:
		var d proto.UpdateStatusData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.Status == "" {
			return nil, badRequest("status is required")
		}
		return &core.Command{Kind: core.CommandUpdateStatus, Status: d.Status, StatusMessage: d.StatusMessage}, nil

	case proto.InboundMarkRead:
		var d proto.MarkReadData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.ChannelID == 0 {
			return nil, badRequest("channel_id is required")
		}
		return &core.Command{Kind: core.CommandMarkRead, ChannelID: d.ChannelID}, nil

	case proto.InboundCallInitiate:
		var d proto.CallInitiateData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.TargetUserID == 0 {
			return nil, badRequest("targetUserId is required")
		}
		return &core.Command{
			Kind:          core.CommandCallInitiate,
			TargetUserID:  d.TargetUserID,
			CallType:      d.CallType,
			CallChannelID: d.ChannelID,
			CallWorkspace: d.WorkspaceID,
		}, nil

	case proto.InboundCallAccept:
		var d proto.CallAcceptData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.CallID == "" {
			return nil, badRequest("callId is required")
		}
		return &core.Command{Kind: core.CommandCallAccept, CallID: d.CallID}, nil

	case proto.InboundCallReject:
		var d proto.CallRejectData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.CallID == "" {
			return nil, badRequest("callId is required")
		}
		return &core.Command{Kind: core.CommandCallReject, CallID: d.CallID, Reason: d.Reason}, nil

	case proto.InboundCallEnd:
		var d proto.CallEndData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.CallID == "" {
			return nil, badRequest("callId is required")
		}
		return &core.Command{Kind: core.CommandCallEnd, CallID: d.CallID}, nil

	case proto.InboundCallToggleMute:
		var d proto.CallToggleMuteData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.CallID == "" {
			return nil, badRequest("callId is required")
		}
		return &core.Command{Kind: core.CommandCallToggleMute, CallID: d.CallID, IsMuted: d.IsMuted}, nil

	case proto.InboundCallGetActive:
		return &core.Command{Kind: core.CommandCallGetActive}, nil

	case proto.InboundWebRTCOffer, proto.InboundWebRTCAnswer, proto.InboundWebRTCCandidate:
		var d proto.WebRTCSignalData
		if err := json.Unmarshal(inbound.Data, &d); err != nil {
			return nil, badRequest("malformed payload")
		}
		if d.TargetUserID == 0 {
			return nil, badRequest("targetUserId is required")
		}
		cmd := &core.Command{TargetUserID: d.TargetUserID, CallID: d.CallID}
		switch inbound.Type {
		case proto.InboundWebRTCOffer:
			cmd.Kind, cmd.Signal = core.CommandWebRTCOffer, d.Offer
		case proto.InboundWebRTCAnswer:
			cmd.Kind, cmd.Signal = core.CommandWebRTCAnswer, d.Answer
		default:
			cmd.Kind, cmd.Signal = core.CommandWebRTCCandidate, d.Candidate
		}
		if len(cmd.Signal) == 0 {
			return nil, badRequest("signal payload is required")
		}
		return cmd, nil

	default:
		return nil, &proto.Error{Code: "invalid_message", Msg: "unknown message type"}
	}
}

// outboundFromEvent wraps a core event into the outbound envelope. Error
// events keep their payload so older clients that only look at data still
// see a message.
func outboundFromEvent(event *core.Event) proto.Outbound {
	if event.Err != nil {
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Event: event.Name,
			Data:  event.Data,
			Error: &proto.Error{Code: event.Err.Code, Msg: event.Err.Message},
		}
	}
	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Name,
		Data:  event.Data,
	}
}

package core

import (
	"reflect"
	"testing"

	"github.com/huddlehq/huddle-server/internal/proto"
)

func TestExtractMentions(t *testing.T) {
	cases := []struct {
		content string
		want    []string
	}{
		{"hello world", nil},
		{"hey @alice", []string{"alice"}},
		{"@alice ping @bob, also @alice again", []string{"alice", "bob"}},
		{"mail me at user@example.com", []string{"example"}},
	}
	for _, tc := range cases {
		if got := extractMentions(tc.content); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("extractMentions(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestSendMessageFansOutToSenderToo(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	ch := st.addChannel(1, false, alice.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	joinChannel(t, a, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "hello"}

	ev := mustEvent(t, a.Events, proto.EventNewMessage)
	msg := ev.Data.(*proto.MessageEvent)
	if msg.ID == 0 {
		t.Fatalf("expected persisted message ID, got %+v", msg)
	}
	if msg.Username != "alice" || msg.Content != "hello" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestSendMessagePrivateChannelForbidden(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	mallory := st.addUser("mallory")
	ch := st.addChannel(1, true, alice.ID)
	hub := startHub(t, st, 0)

	m := connect(hub, "m1", mallory.ID, mallory.Username)
	m.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "let me in"}

	ev := mustEvent(t, m.Events, proto.EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodeForbidden {
		t.Fatalf("expected forbidden, got %+v", ev)
	}
	if st.messageCount() != 0 {
		t.Fatalf("rejected message must not be persisted")
	}
}

func TestMentionDeliveredAcrossChannels(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	ch := st.addChannel(1, false, alice.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	joinChannel(t, a, ch.ID)

	// Bob is connected but nowhere near the channel.
	b := connect(hub, "b1", bob.ID, bob.Username)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "ping @bob"}

	ev := mustEvent(t, b.Events, proto.EventMentioned)
	mention := ev.Data.(proto.Mentioned)
	if mention.ChannelID != ch.ID || mention.Message.Content != "ping @bob" {
		t.Fatalf("unexpected mention: %+v", mention)
	}
	mentions := st.mentionedUsers()
	if len(mentions) != 1 || mentions[0] != bob.ID {
		t.Fatalf("expected persisted mention for bob, got %v", mentions)
	}
}

func TestThreadReplyBroadcastsThreadUpdate(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	ch := st.addChannel(1, false, alice.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	joinChannel(t, a, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "root"}
	root := mustEvent(t, a.Events, proto.EventNewMessage).Data.(*proto.MessageEvent)

	parentID := root.ID
	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "reply", ParentMessageID: &parentID}

	ev := mustEvent(t, a.Events, proto.EventThreadUpdated)
	thread := ev.Data.(proto.ThreadUpdated)
	if thread.MessageID != parentID || thread.ReplyCount != 1 {
		t.Fatalf("unexpected thread update: %+v", thread)
	}
	if thread.NewReply == nil || thread.NewReply.Content != "reply" {
		t.Fatalf("thread update should carry the reply: %+v", thread)
	}
}

func TestEditMessageRequiresOwnership(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	ch := st.addChannel(1, false, alice.ID, bob.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	b := connect(hub, "b1", bob.ID, bob.Username)
	joinChannel(t, a, ch.ID)
	joinChannel(t, b, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "original"}
	msg := mustEvent(t, a.Events, proto.EventNewMessage).Data.(*proto.MessageEvent)

	b.Commands <- &Command{Kind: CommandEditMessage, MessageID: msg.ID, Content: "hijacked"}
	ev := mustEvent(t, b.Events, proto.EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodeForbidden {
		t.Fatalf("expected forbidden, got %+v", ev)
	}

	a.Commands <- &Command{Kind: CommandEditMessage, MessageID: msg.ID, Content: "fixed"}
	editEv := mustEvent(t, b.Events, proto.EventMessageEdited)
	edited := editEv.Data.(*proto.MessageEvent)
	if edited.Content != "fixed" || !edited.IsEdited {
		t.Fatalf("unexpected edited message: %+v", edited)
	}
}

func TestDeleteMessageRequiresOwnership(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	bob := st.addUser("bob")
	ch := st.addChannel(1, false, alice.ID, bob.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	b := connect(hub, "b1", bob.ID, bob.Username)
	joinChannel(t, a, ch.ID)
	joinChannel(t, b, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "keep me"}
	msg := mustEvent(t, a.Events, proto.EventNewMessage).Data.(*proto.MessageEvent)

	b.Commands <- &Command{Kind: CommandDeleteMessage, MessageID: msg.ID}
	ev := mustEvent(t, b.Events, proto.EventError)
	if ev.Err == nil || ev.Err.Code != ErrCodeForbidden {
		t.Fatalf("expected forbidden, got %+v", ev)
	}
	mustNoEvent(t, a.Events, proto.EventMessageDeleted)

	stored := st.message(msg.ID)
	if stored.IsDeleted || stored.Content != "keep me" {
		t.Fatalf("message should be untouched, got %+v", stored)
	}
}

func TestDeleteMessageSoftDeletes(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	ch := st.addChannel(1, false, alice.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	joinChannel(t, a, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "oops"}
	msg := mustEvent(t, a.Events, proto.EventNewMessage).Data.(*proto.MessageEvent)

	a.Commands <- &Command{Kind: CommandDeleteMessage, MessageID: msg.ID}
	ev := mustEvent(t, a.Events, proto.EventMessageDeleted)
	deleted := ev.Data.(proto.MessageDeleted)
	if deleted.MessageID != msg.ID || deleted.ChannelID != ch.ID {
		t.Fatalf("unexpected delete event: %+v", deleted)
	}

	// The row survives with the marker content.
	stored := st.message(msg.ID)
	if !stored.IsDeleted || stored.Content != "[Message deleted]" {
		t.Fatalf("expected soft delete, got %+v", stored)
	}
}

func TestReactionAddIsIdempotent(t *testing.T) {
	st := newFakeStore()
	alice := st.addUser("alice")
	ch := st.addChannel(1, false, alice.ID)
	hub := startHub(t, st, 0)

	a := connect(hub, "a1", alice.ID, alice.Username)
	joinChannel(t, a, ch.ID)

	a.Commands <- &Command{Kind: CommandSendMessage, ChannelID: ch.ID, Content: "react to me"}
	msg := mustEvent(t, a.Events, proto.EventNewMessage).Data.(*proto.MessageEvent)

	a.Commands <- &Command{Kind: CommandAddReaction, MessageID: msg.ID, Emoji: "👍"}
	ev := mustEvent(t, a.Events, proto.EventReactionAdded)
	reaction := ev.Data.(proto.ReactionEvent)
	if reaction.Emoji != "👍" || reaction.UserID != alice.ID {
		t.Fatalf("unexpected reaction: %+v", reaction)
	}

	// Same emoji again: no second broadcast.
	a.Commands <- &Command{Kind: CommandAddReaction, MessageID: msg.ID, Emoji: "👍"}
	mustNoEvent(t, a.Events, proto.EventReactionAdded)

	// Removing a reaction that is not there: also silent.
	a.Commands <- &Command{Kind: CommandRemoveReaction, MessageID: msg.ID, Emoji: "🎉"}
	mustNoEvent(t, a.Events, proto.EventReactionRemoved)

	a.Commands <- &Command{Kind: CommandRemoveReaction, MessageID: msg.ID, Emoji: "👍"}
	mustEvent(t, a.Events, proto.EventReactionRemoved)
}

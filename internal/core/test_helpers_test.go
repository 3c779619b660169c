package core

import (
	"context"
	"testing"
	"time"
)

// mustEvent waits for the next event with the given name, skipping others.
func mustEvent(t *testing.T, ch <-chan *Event, name string) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Name == name {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event %q not received", name)
	return nil
}

// mustNoEvent asserts that no event with the given name arrives within the
// window. Other events are consumed and ignored.
func mustNoEvent(t *testing.T, ch <-chan *Event, name string) {
	t.Helper()

	deadline := time.Now().Add(200 * time.Millisecond)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev != nil && ev.Name == name {
				t.Fatalf("unexpected event %q received: %+v", name, ev)
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
}

// startHub runs a hub with the fake store for the duration of the test.
func startHub(t *testing.T, st *fakeStore, ringTimeout time.Duration) *Hub {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(st, nil, ringTimeout)
	go hub.Run(ctx)
	return hub
}

// connect registers a client for the user and waits for registration to
// land by pushing a no-op through the command queue.
func connect(hub *Hub, connID string, userID int64, username string) *Client {
	c := NewClient(connID, userID, username)
	hub.RegisterClient(c)
	return c
}

// join drives a workspace join and waits for the ack.
func joinWorkspace(t *testing.T, c *Client, workspaceID int64) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandJoinWorkspace, WorkspaceID: workspaceID}
	mustEvent(t, c.Events, "joined_workspace")
}

func joinChannel(t *testing.T, c *Client, channelID int64) {
	t.Helper()
	c.Commands <- &Command{Kind: CommandJoinChannel, ChannelID: channelID}
	mustEvent(t, c.Events, "joined_channel")
}

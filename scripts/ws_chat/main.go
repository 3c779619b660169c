package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/huddlehq/huddle-server/internal/proto"
	"github.com/huddlehq/huddle-server/internal/typing"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_chat: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login")
	workspace := flag.Int64("workspace", 1, "workspace to join")
	channel := flag.Int64("channel", 1, "channel to join")
	flag.Parse()

	if *token == "" {
		return errors.New("-token is required (get one from POST /api/login)")
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + *token}},
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) {
		data, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			log.Printf("marshal %s: %v", msgType, marshalErr)
			return
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); writeErr != nil {
			cancel()
			log.Printf("send: %v", writeErr)
		}
	}

	send(proto.InboundJoinWorkspace, proto.JoinWorkspaceData{WorkspaceID: *workspace})
	send(proto.InboundJoinChannel, proto.JoinChannelData{ChannelID: *channel})

	// Keystrokes feed the tracker; it decides when to tell the server we
	// started and stopped typing.
	tracker := typing.NewTracker(typing.NotifierFuncs{
		OnStart: func(channelID int64) {
			send(proto.InboundTypingStart, proto.TypingData{ChannelID: channelID})
		},
		OnStop: func(channelID int64) {
			send(proto.InboundTypingStop, proto.TypingData{ChannelID: channelID})
		},
	}, 0)
	defer tracker.StopAll()

	fmt.Printf("Connected to %s, workspace %d, channel %d\n", *addr, *workspace, *channel)
	fmt.Println("Type messages and press Enter to send. Ctrl+C to exit.")

	go func() {
		defer cancel()
		readLoop(ctx, conn)
	}()

	writeLoop(ctx, conn, *channel, tracker, send)

	stop()
	cancel()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
	return nil
}

func readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			log.Printf("read error: %v", err)
			return
		}

		if outbound.Error != nil {
			fmt.Printf("!! %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventNewMessage, proto.EventMessageEdited:
			var evt proto.MessageEvent
			if decode(outbound.Data, &evt) {
				fmt.Printf("[#%d] %s: %s\n", evt.ChannelID, evt.Username, evt.Content)
			}
		case proto.EventUserTyping:
			var evt proto.TypingEvent
			if decode(outbound.Data, &evt) {
				fmt.Printf("[#%d] %s is typing...\n", evt.ChannelID, evt.Username)
			}
		case proto.EventUserStoppedTyping:
			// Quiet; the typing line scrolling away is enough.
		case proto.EventUserOnline:
			var evt proto.PresenceChange
			if decode(outbound.Data, &evt) {
				fmt.Printf("* user %d is online\n", evt.UserID)
			}
		case proto.EventUserOffline:
			var evt proto.PresenceChange
			if decode(outbound.Data, &evt) {
				fmt.Printf("* user %d went offline\n", evt.UserID)
			}
		default:
			fmt.Printf("event=%s data=%v\n", outbound.Event, outbound.Data)
		}
	}
}

func decode(data any, out any) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("marshal outbound data: %v", err)
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("unmarshal event: %v", err)
		return false
	}
	return true
}

func writeLoop(ctx context.Context, conn *websocket.Conn, channel int64, tracker *typing.Tracker, send func(string, any)) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			text := strings.TrimSpace(line)
			if text == "" {
				tracker.Touch(channel)
				continue
			}

			tracker.Stop(channel)
			send(proto.InboundSendMessage, proto.SendMessageData{ChannelID: channel, Content: text})
		}
	}
}

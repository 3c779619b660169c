package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/huddlehq/huddle-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "JWT from /api/login")
	workspace := flag.Int64("workspace", 1, "workspace to join")
	channel := flag.Int64("channel", 1, "channel to join")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		return errors.New("-token is required (get one from POST /api/login)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": {"Bearer " + *token}},
	})
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	send := func(msgType string, payload any) error {
		data, marshalErr := json.Marshal(payload)
		if marshalErr != nil {
			return fmt.Errorf("marshal %s: %w", msgType, marshalErr)
		}
		if writeErr := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); writeErr != nil {
			return fmt.Errorf("send %s: %w", msgType, writeErr)
		}
		return nil
	}

	if err := send(proto.InboundJoinWorkspace, proto.JoinWorkspaceData{WorkspaceID: *workspace}); err != nil {
		return err
	}
	if err := send(proto.InboundJoinChannel, proto.JoinChannelData{ChannelID: *channel}); err != nil {
		return err
	}
	if err := send(proto.InboundSendMessage, proto.SendMessageData{ChannelID: *channel, Content: *text}); err != nil {
		return err
	}

	// Read until we see our own message echoed back or the timeout fires.
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", outbound.Type)
		if outbound.Event != "" {
			fmt.Printf(" event=%s", outbound.Event)
		}
		if outbound.Error != nil {
			fmt.Printf(" error=%s(%s)", outbound.Error.Code, outbound.Error.Msg)
		}
		fmt.Println()

		if outbound.Event == proto.EventNewMessage {
			fmt.Println("Smoke test OK: message round-tripped")
			return nil
		}
	}
}

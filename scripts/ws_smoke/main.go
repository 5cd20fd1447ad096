package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/presence-server/internal/auth"
	"github.com/vovakirdan/presence-server/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", "", "signed token; minted from -secret when empty")
	secret := flag.String("secret", os.Getenv("JWT_SECRET"), "HMAC secret used to mint a token")
	user := flag.String("user", "tester", "username claim")
	room := flag.String("room", "general", "room id")
	text := flag.String("text", "hello from smoke test", "chat text to send")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	if *token == "" {
		if *secret == "" {
			return errors.New("either -token or -secret is required")
		}
		minted, err := auth.GenerateToken(&auth.JWTConfig{Secret: []byte(*secret), TTL: time.Minute}, *user, "")
		if err != nil {
			return fmt.Errorf("mint token: %w", err)
		}
		*token = minted
	}

	u, err := url.Parse(*addr)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	q := u.Query()
	q.Set("token", *token)
	u.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, resp, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("dial: %w (status %d)", err, resp.StatusCode)
		}
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	frames := []proto.Outbound{
		proto.Encode(proto.InboundTypeJoinRoom, proto.JoinRoom{RoomID: *room}),
		proto.Encode(proto.InboundTypeMovement, proto.Movement{Position: &proto.Position{X: 400, Y: 300}}),
		proto.Encode(proto.InboundTypeChat, proto.Chat{Message: *text}),
	}
	for _, f := range frames {
		if err := wsjson.Write(ctx, conn, f); err != nil {
			return fmt.Errorf("send %s: %w", f.Type, err)
		}
	}

	for {
		var env proto.Envelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("received type=%s payload=%s\n", env.Type, env.Payload)
	}
}

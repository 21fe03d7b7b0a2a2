// Command planecli is a terminal client for the plane battle server. With
// -watch it prints the redis match event feed instead.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"

	"plane-battle/internal/feed"
	"plane-battle/internal/shared"
)

func main() {
	host := flag.String("host", "localhost:3000", "server host")
	watch := flag.Bool("watch", false, "print the match event feed from redis")
	redisAddr := flag.String("redis", "localhost:6379", "redis address for -watch")
	channel := flag.String("channel", "planebattle:events", "redis channel for -watch")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if *watch {
		err = watchFeed(ctx, *redisAddr, *channel)
	} else {
		err = play(ctx, *host)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func watchFeed(ctx context.Context, addr, channel string) error {
	rdb, err := feed.Connect(ctx, addr)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	err = feed.Subscribe(ctx, rdb, channel, func(ev shared.MatchEvent) {
		fmt.Printf("%s %-12s room=%s players=%v winner=%s %s\n",
			ev.At.Format("15:04:05"), ev.Type, ev.RoomID, ev.Players, ev.Winner, ev.Reason)
	})
	if err != nil {
		return err
	}
	fmt.Printf("watching %s\n", channel)
	<-ctx.Done()
	return nil
}

func play(ctx context.Context, host string) error {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.String(), err)
	}
	defer func() { _ = conn.Close() }()

	go printIncoming(conn)

	fmt.Println(usage)
	lines := make(chan string)
	go func() {
		reader := bufio.NewScanner(os.Stdin)
		for reader.Scan() {
			lines <- reader.Text()
		}
		close(lines)
	}()

	seq := 0
	for {
		fmt.Print("> ")
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		seq++
		f, err := parseCommand(line, seq)
		if errors.Is(err, errQuit) {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
		if err != nil {
			fmt.Println(err)
			continue
		}
		if f == nil {
			continue
		}
		if err := conn.WriteJSON(f); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
}

func printIncoming(conn *websocket.Conn) {
	for {
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			fmt.Println("\nconnection closed:", err)
			os.Exit(0)
		}
		fmt.Printf("\n< %s %s\n> ", msg.Event, string(msg.Data))
	}
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/aurachat/aurasync/internal/api"
	"github.com/aurachat/aurasync/internal/config"
	"github.com/aurachat/aurasync/internal/domain"
	"github.com/aurachat/aurasync/internal/log"
	"github.com/aurachat/aurasync/internal/notify"
	"github.com/aurachat/aurasync/internal/session"
)

func main() {
	_ = godotenv.Load()

	tokenFlag := flag.String("token", "", "access token (defaults to AURASYNC_TOKEN)")
	flag.Parse()

	token := *tokenFlag
	if token == "" {
		token = os.Getenv("AURASYNC_TOKEN")
	}
	if token == "" {
		stdlog.Fatal("no access token: pass -token or set AURASYNC_TOKEN")
	}

	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatalf("failed to load configuration: %v", err)
	}
	log.Init(cfg.Log)

	notifier := notify.New(64)
	sess, err := session.New(cfg, token, notifier)
	if err != nil {
		stdlog.Fatalf("failed to create session: %v", err)
	}
	defer sess.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sess.Start(ctx); err != nil {
		stdlog.Fatalf("failed to start session: %v", err)
	}
	fmt.Printf("connected as %s (#%d)\n", sess.Identity.Username, sess.Identity.UserID)

	notes, unsubscribe := notifier.Subscribe()
	defer unsubscribe()
	go func() {
		for note := range notes {
			if note.Err != nil {
				fmt.Printf("[%s] %s: %v\n", note.Source, note.Message, note.Err)
			} else {
				fmt.Printf("[%s] %s\n", note.Source, note.Message)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
		sess.Stop()
		os.Exit(0)
	}()

	repl(ctx, sess)
}

func repl(ctx context.Context, sess *session.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("commands: rooms, open <room>, close, send <text>, edit <id> <text>, del <id>, react <id> <emoji>, read <id>, typing <on|off>, translate <lang>, summary, forward <id> <room>, search <q>, quit")

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "quit", "exit":
			return

		case "rooms":
			for _, r := range sess.Rooms.Rooms() {
				name := r.Name
				if name == "" && r.Peer != nil {
					name = r.Peer.Username
				}
				fmt.Printf("  #%d %-20s unread=%d last=%q\n", r.ID, name, r.Unread, r.LastMessage)
			}

		case "open":
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				fmt.Println("usage: open <room>")
				continue
			}
			if err := sess.OpenRoom(ctx, id); err != nil {
				continue
			}
			for _, m := range sess.Store.Messages() {
				printMessage(sess, &m)
			}

		case "close":
			sess.CloseRoom()

		case "send":
			if rest == "" {
				fmt.Println("usage: send <text>")
				continue
			}
			sess.SendMessage(rest, api.SendOptions{})

		case "edit":
			idStr, text, _ := strings.Cut(rest, " ")
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil || text == "" {
				fmt.Println("usage: edit <id> <text>")
				continue
			}
			sess.Edit(ctx, id, text)

		case "del":
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				fmt.Println("usage: del <id>")
				continue
			}
			sess.Delete(ctx, id)

		case "react":
			idStr, emoji, _ := strings.Cut(rest, " ")
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil || emoji == "" {
				fmt.Println("usage: react <id> <emoji>")
				continue
			}
			sess.React(id, emoji)

		case "read":
			id, err := strconv.ParseInt(rest, 10, 64)
			if err != nil {
				fmt.Println("usage: read <id>")
				continue
			}
			sess.MarkRead(id)

		case "typing":
			sess.SendTyping(rest == "on")

		case "translate":
			if rest == "" {
				fmt.Println("usage: translate <lang>")
				continue
			}
			if err := sess.TranslateRoom(ctx, rest); err != nil {
				continue
			}
			for _, m := range sess.Store.Messages() {
				if m.ID != 0 {
					fmt.Printf("  #%d %s\n", m.ID, sess.DisplayContent(&m, rest))
				}
			}

		case "summary":
			sess.RequestSummary()

		case "forward":
			idStr, roomStr, _ := strings.Cut(rest, " ")
			id, err1 := strconv.ParseInt(idStr, 10, 64)
			room, err2 := strconv.ParseInt(roomStr, 10, 64)
			if err1 != nil || err2 != nil {
				fmt.Println("usage: forward <id> <room>")
				continue
			}
			sess.Forward(ctx, id, room)

		case "search":
			if rest == "" {
				fmt.Println("usage: search <q>")
				continue
			}
			msgs, err := sess.Search(ctx, rest)
			if err != nil {
				continue
			}
			for _, m := range msgs {
				printMessage(sess, &m)
			}

		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func printMessage(sess *session.Session, m *domain.Message) {
	id := fmt.Sprintf("#%d", m.ID)
	if m.Pending() {
		id = fmt.Sprintf("~%d", m.TempID)
	}
	flags := ""
	if m.Edited {
		flags += " (edited)"
	}
	text := m.Text()
	if m.Deleted {
		text = "(deleted)"
	}
	fmt.Printf("  %s %s: %s%s\n", id, m.Sender.Username, text, flags)
}

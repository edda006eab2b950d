package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"confmatch/pkg/api"
	"confmatch/pkg/banner"
	"confmatch/pkg/logger"
	"confmatch/pkg/models"
	"confmatch/pkg/refresher"
	"confmatch/pkg/shutdown"
	"confmatch/pkg/socket"
	"confmatch/pkg/store"
	csync "confmatch/pkg/sync"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the interactive chat session",
	RunE:  runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := resumeSession()
	if err != nil {
		return err
	}
	self := sess.Identity()
	banner.Print(*cfg, version)

	ctx, cancel := shutdown.SetupSignalHandler(cmd.Context())
	defer cancel()
	stack := shutdown.NewStack()
	defer stack.Close()

	// local cache: warm start from disk, write-through afterwards
	cache, err := store.Open(cfg.Cache.Path)
	if err != nil {
		logger.Warn("cache_unavailable", "path", cfg.Cache.Path, "error", err)
		cache = nil
	} else {
		stack.Defer("cache", func() { _ = cache.Close() })
	}

	// this command owns the connection: it alone calls Close
	conn := socket.New(cfg.Socket, self.ID)
	engine := csync.NewEngine(client, conn, self,
		csync.WithDebounce(cfg.Refresh.Debounce.Or(500*time.Millisecond)))
	if cache != nil {
		engine.SetCache(cache)
		if cached, err := cache.LoadConversations(); err == nil && len(cached) > 0 {
			engine.Store().Seed(cached)
		}
	}
	engine.Attach()
	stack.Defer("engine", engine.Detach)
	stack.Defer("socket", func() { _ = conn.Close() })
	// events may have been missed while disconnected; resync after every
	// reconnect
	conn.SetOnConnect(func() {
		go func() { _ = engine.Store().Refresh(ctx, "reconnect") }()
	})
	go conn.Run(ctx)

	// contacts feed the provisional conversation entries
	if me, err := client.QuestionnaireMe(ctx); err == nil {
		engine.Store().SetContacts(me.MutualRecommendations)
	} else {
		logger.Warn("contacts_load_failed", "error", err)
	}
	if err := engine.Store().Refresh(ctx, "start"); err != nil {
		if errors.Is(err, api.ErrAuthExpired) {
			return fmt.Errorf("session expired, run `confmatch login` again")
		}
		logger.Warn("initial_refresh_failed", "error", err)
	}

	stopLoops, err := refresher.Start(ctx, *cfg, engine.Store(), cache)
	if err != nil {
		return err
	}
	stack.Defer("refresher", stopLoops)

	return chatLoop(ctx, cmd.OutOrStdout(), cmd.InOrStdin(), engine)
}

// chatLoop is a plain line-oriented REPL: bare lines send to the open
// conversation, slash commands navigate.
func chatLoop(ctx context.Context, out io.Writer, in io.Reader, engine *csync.Engine) error {
	printConversations(out, engine)
	fmt.Fprintln(out, `Commands: /list, /open <n>, /messages, /who, /quit`)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			engine.InputActivity()
			if err := engine.Send(line); err != nil {
				fmt.Fprintf(out, "send failed: %v\n", err)
			}
			if n := awaitNotice(engine, 300*time.Millisecond); n != nil {
				fmt.Fprintf(out, "blocked: %s\n", n.Reason)
				engine.DismissNotice()
			}
			continue
		}

		fields := strings.Fields(line)
		switch fields[0] {
		case "/quit", "/q":
			return nil
		case "/list":
			printConversations(out, engine)
		case "/open":
			if len(fields) < 2 {
				fmt.Fprintln(out, "usage: /open <n>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			convs := engine.Conversations()
			if err != nil || n < 1 || n > len(convs) {
				fmt.Fprintln(out, "no such conversation")
				continue
			}
			conv := convs[n-1]
			if err := engine.SelectConversation(ctx, conv); err != nil {
				fmt.Fprintf(out, "open failed: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "-- %s --\n", conv.OtherParty.Name)
			printMessages(out, engine)
		case "/messages":
			printMessages(out, engine)
		case "/who":
			for _, id := range engine.TypingParties() {
				fmt.Fprintf(out, "%s is typing...\n", id)
			}
		default:
			fmt.Fprintf(out, "unknown command %s\n", fields[0])
		}
	}
}

// awaitNotice polls briefly for a moderation rejection. The blocked
// event arrives asynchronously, shortly after the send intent, so an
// immediate check would miss it until the next prompt.
func awaitNotice(engine *csync.Engine, wait time.Duration) *csync.Notice {
	deadline := time.Now().Add(wait)
	for {
		if n := engine.Notice(); n != nil {
			return n
		}
		if time.Now().After(deadline) {
			return nil
		}
		time.Sleep(25 * time.Millisecond)
	}
}

func printConversations(out io.Writer, engine *csync.Engine) {
	convs := engine.Conversations()
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations yet.")
		return
	}
	for i, c := range convs {
		preview := ""
		if c.LastMessage != nil {
			preview = c.LastMessage.Text
			if c.LastMessage.FromSelf {
				preview = "You: " + preview
			}
		}
		if c.Provisional {
			preview = "(no messages yet)"
		}
		fmt.Fprintf(out, "%s %2d. %-24s %-10s %s\n",
			unreadBadge(c.UnreadCount), i+1, c.OtherParty.Name,
			relativeTime(c.LastActivityAt), preview)
	}
}

// unreadBadge clamps large counts the way the web client does.
func unreadBadge(n int) string {
	switch {
	case n <= 0:
		return "   "
	case n > 99:
		return "99+"
	default:
		return fmt.Sprintf("%2d ", n)
	}
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Local().Format("Jan 2")
	}
}

func printMessages(out io.Writer, engine *csync.Engine) {
	for _, m := range engine.Messages() {
		who := "them"
		if m.FromSelf {
			who = "you"
		}
		fmt.Fprintf(out, "[%s] %-4s %s%s\n",
			m.CreatedAt.Local().Format("15:04"), who, m.Text, statusSuffix(m))
	}
}

func statusSuffix(m models.Message) string {
	if !m.FromSelf {
		return ""
	}
	switch m.Status {
	case models.StateRead:
		return " ✓✓"
	case models.StateDelivered:
		return " ✓"
	default:
		return ""
	}
}

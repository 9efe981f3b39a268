package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thomasari/quest-bingo/internal/api"
	"github.com/thomasari/quest-bingo/internal/game"
	"github.com/thomasari/quest-bingo/internal/realtime"
	"github.com/thomasari/quest-bingo/internal/session"
	"github.com/thomasari/quest-bingo/internal/state"
)

// errQuit signals a user-requested exit through the errgroup.
var errQuit = errors.New("quit")

func newJoinCmd(cfg *config) *cobra.Command {
	var showQR bool

	cmd := &cobra.Command{
		Use:   "join CODE",
		Short: "Join a room and play from the terminal.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runJoin(cmd.Context(), cfg, args[0], showQR)
		},
	}

	cmd.Flags().BoolVar(&showQR, "qr", false, "print a QR code linking to the room")

	return cmd
}

func runJoin(ctx context.Context, cfg *config, rawCode string, showQR bool) error {
	code, err := game.NormalizeRoomCode(rawCode)
	if err != nil {
		return err
	}

	logger := cfg.logger()

	store, err := state.Open(ctx, cfg.stateDir)
	if err != nil {
		return fmt.Errorf("open state: %w", err)
	}
	defer store.Close()

	theme, err := store.Theme(ctx)
	if err != nil {
		return fmt.Errorf("read theme: %w", err)
	}

	if showQR {
		qr, err := qrcode.New(cfg.roomURL(code), qrcode.Medium)
		if err != nil {
			return fmt.Errorf("generate qr: %w", err)
		}
		fmt.Println(qr.ToSmallString(false))
		fmt.Printf("room link: %s\n\n", cfg.roomURL(code))
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s := session.New(code, api.New(cfg.backendURL), realtime.NewWSChannel(cfg.hubURL(code), logger), store, logger)
	updates, unsubscribe := s.Updates()
	defer unsubscribe()
	s.Start(ctx)
	defer s.Close()

	r := &renderer{out: os.Stdout, theme: theme}

	// Stdin is read on its own goroutine because Scan cannot be
	// interrupted; the process exits while it may still be blocked.
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		touched := false
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-updates:
			}
			v := s.View()
			if v.State == session.Errored {
				return errors.New(v.Err)
			}
			if v.State == session.Joined && !touched {
				touched = true
				if err := store.TouchRoom(gctx, code); err != nil {
					logger.Warn("recording recent room failed", "error", err)
				}
			}
			r.render(v)
		}
	})

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := handleLine(gctx, s, store, r, line); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

func handleLine(ctx context.Context, s *session.Session, store *state.Store, r *renderer, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		if err := s.SendChat(ctx, line); err != nil {
			r.status("chat failed: %v", err)
		}
		return nil
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit":
		return errQuit
	case "/name":
		if err := s.Rename(ctx, arg); err != nil {
			r.status("rename failed: %v", err)
		}
	case "/start":
		if err := s.StartGame(ctx); err != nil {
			r.status("cannot start: %v", err)
		}
	case "/end":
		if err := s.EndGame(ctx); err != nil {
			r.status("cannot end: %v", err)
		}
	case "/toggle":
		n, err := strconv.Atoi(arg)
		if err != nil {
			r.status("usage: /toggle NUMBER")
			return nil
		}
		q := questByNumber(s.Room(), n)
		if q == nil {
			r.status("no quest #%d", n)
			return nil
		}
		if err := s.ToggleQuest(ctx, q.ID); err != nil {
			r.status("toggle failed: %v", err)
		}
	case "/theme":
		if err := store.SetTheme(ctx, arg); err != nil {
			r.status("theme: %v", err)
			return nil
		}
		r.theme = arg
		r.render(s.View())
	case "/rooms":
		rooms, err := store.RecentRooms(ctx, 10)
		if err != nil {
			r.status("rooms: %v", err)
			return nil
		}
		for _, room := range rooms {
			r.status("%s  %s", room.ID, room.LastJoinedAt.Local().Format("2006-01-02 15:04"))
		}
	case "/help":
		r.status("commands: /name NAME, /start, /end, /toggle N, /theme light|dark, /rooms, /quit; anything else is chat")
	default:
		r.status("unknown command %s (try /help)", cmd)
	}
	return nil
}

// questByNumber maps the 1-based number shown on the rendered board back
// to the quest, row by row.
func questByNumber(room *game.Room, n int) *game.Quest {
	if room == nil {
		return nil
	}
	i := 1
	for ri := range room.Board.Quests {
		for ci := range room.Board.Quests[ri] {
			if i == n {
				return &room.Board.Quests[ri][ci]
			}
			i++
		}
	}
	return nil
}

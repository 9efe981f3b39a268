package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/thomasari/quest-bingo/internal/game"
	"github.com/thomasari/quest-bingo/internal/session"
)

// renderer draws the room as a full-screen redraw on every view change.
// The light theme skips ANSI colors entirely, which also makes it the
// right choice for terminals without truecolor support.
type renderer struct {
	out   io.Writer
	theme string
}

const chatTail = 8

func (r *renderer) colored() bool { return r.theme != "light" }

func (r *renderer) render(v session.View) {
	var b strings.Builder

	b.WriteString("\x1b[H\x1b[2J")
	if v.Room == nil {
		fmt.Fprintf(&b, "%s...\n", v.State)
		io.WriteString(r.out, b.String())
		return
	}

	fmt.Fprintf(&b, "room %s  %s", v.Room.ID, v.State)
	if v.Room.GameStarted != nil && !v.Room.GameEnded {
		fmt.Fprintf(&b, "  %s", v.Elapsed)
	}
	if v.Room.GameEnded {
		fmt.Fprintf(&b, "  finished after %s", v.Elapsed)
	}
	b.WriteString("\n\n")

	host := v.Room.Host()
	for _, p := range v.Room.Players {
		marker := " "
		if host != nil && p.ID == host.ID {
			marker = "*"
		}
		you := ""
		if v.Player != nil && p.ID == v.Player.ID {
			you = " (you)"
		}
		fmt.Fprintf(&b, "%s %s%s  %d\n", marker, r.paint(p.Name, p.Color), you, v.Room.Score(p.ID))
	}
	b.WriteString("\n")

	r.board(&b, v.Room)

	if len(v.Messages) > 0 {
		b.WriteString("\n")
		msgs := v.Messages
		if len(msgs) > chatTail {
			msgs = msgs[len(msgs)-chatTail:]
		}
		for _, m := range msgs {
			fmt.Fprintf(&b, "%s: %s\n", r.paint(m.Sender.Name, m.Sender.Color), m.Message)
		}
	}

	b.WriteString("\n> ")
	io.WriteString(r.out, b.String())
}

func (r *renderer) board(b *strings.Builder, room *game.Room) {
	n := 1
	for _, row := range room.Board.Quests {
		for _, q := range row {
			cell := strconv.Itoa(n) + ". " + q.Text
			if q.CompletedBy != "" {
				if p := room.FindPlayer(q.CompletedBy); p != nil {
					cell += " [" + r.paint(p.Name, p.Color) + "]"
				} else {
					cell += " [claimed]"
				}
			}
			fmt.Fprintf(b, "  %s\n", cell)
			n++
		}
	}
}

// status prints a one-off line below the prompt without a full redraw.
func (r *renderer) status(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// paint wraps s in a truecolor escape built from a #rrggbb value.
func (r *renderer) paint(s, hex string) string {
	if !r.colored() {
		return s
	}
	rgb, ok := parseHexColor(hex)
	if !ok {
		return s
	}
	return fmt.Sprintf("\x1b[38;2;%d;%d;%dm%s\x1b[0m", rgb[0], rgb[1], rgb[2], s)
}

func parseHexColor(hex string) ([3]uint8, bool) {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return [3]uint8{}, false
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
		if err != nil {
			return [3]uint8{}, false
		}
		rgb[i] = uint8(v)
	}
	return rgb, true
}

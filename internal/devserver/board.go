package devserver

import (
	"crypto/rand"
	"fmt"
	"math/big"
	mrand "math/rand/v2"

	"github.com/thomasari/quest-bingo/internal/game"
)

// Room codes skip ambiguous characters so they can be read out loud.
const codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 5

var colorPalette = []string{
	"#e06c75", "#61afef", "#98c379", "#e5c07b",
	"#c678dd", "#56b6c2", "#d19a66", "#abb2bf",
}

var questPool = []string{
	"Sing the chorus of a song",
	"High five a stranger",
	"Find a red car",
	"Do ten pushups",
	"Speak in rhymes for one minute",
	"Balance something on your head",
	"Take a photo with a dog",
	"Order food in a made-up accent",
	"Learn someone's middle name",
	"Draw a self portrait in 30 seconds",
	"Hum a song until someone names it",
	"Walk backwards across the room",
	"Tell a joke that gets a laugh",
	"Find something older than you",
	"Swap an item of clothing",
	"Compliment three people in a row",
	"Hold a plank for 30 seconds",
	"Find a four-leaf clover or any clover",
	"Make someone say the word banana",
	"Recite the alphabet backwards",
	"Take a selfie with a statue",
	"Get someone to teach you a dance move",
	"Find a coin from before 2010",
	"Speak only in questions for two minutes",
	"Stack five things on top of each other",
	"Name ten animals in fifteen seconds",
	"Get a stranger to wave back at you",
	"Whistle an entire verse of any song",
	"Find something that smells like summer",
	"Do your best celebrity impression",
	"Touch grass, literally",
	"Count to twenty in another language",
	"Trade a handshake for a fist bump",
	"Find the oldest book in the room",
	"Make a paper airplane that flies",
	"Spot a bird and name it, confidently",
}

// newRoomCode draws a short unambiguous code, crypto-random so parallel
// creates cannot be guessed.
func newRoomCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", fmt.Errorf("generating room code: %w", err)
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

func newPlayerID() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating player id: %w", err)
	}
	return fmt.Sprintf("p-%x", b), nil
}

// newBoard deals rows*cols quests out of the pool, reshuffled per room.
// Quest ids are stable within the room for the PATCH toggle route.
func newBoard(rows, cols int) game.Board {
	order := mrand.Perm(len(questPool))

	quests := make([][]game.Quest, rows)
	n := 0
	for i := range rows {
		quests[i] = make([]game.Quest, cols)
		for j := range cols {
			text := questPool[order[n%len(order)]%len(questPool)]
			quests[i][j] = game.Quest{
				ID:   fmt.Sprintf("q%d", n+1),
				Text: text,
			}
			n++
		}
	}
	return game.Board{Quests: quests}
}

func playerColor(idx int) string {
	return colorPalette[idx%len(colorPalette)]
}

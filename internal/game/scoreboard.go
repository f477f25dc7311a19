package game

import (
	"fmt"
	"io"
)

// Scoreboard prints goal and game-over notices as plain text.
type Scoreboard struct {
	out io.Writer
}

func NewScoreboard(out io.Writer) *Scoreboard {
	return &Scoreboard{out: out}
}

func (b *Scoreboard) Goal(scorer Player, scores [2]uint) {
	fmt.Fprintln(b.out)
	fmt.Fprintf(b.out, "Player %d scored a goal!\n", scorer)
	fmt.Fprintf(b.out, "Score: %d - %d\n", scores[0], scores[1])
}

func (b *Scoreboard) GameOver(scores [2]uint) {
	fmt.Fprintln(b.out)
	fmt.Fprintln(b.out, "The game is over")
	fmt.Fprintf(b.out, "Score: %d - %d\n", scores[0], scores[1])
}

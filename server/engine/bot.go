package engine

import (
	"math/rand"
	"time"
)

// RandSource is the randomness a Bot needs. *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
	Intn(n int) int
}

// DefaultBombChance is the per-round probability the bot spends its bomb.
const DefaultBombChance = 0.12

type Bot struct {
	rng        RandSource
	bombChance float64
}

func NewBot(rng RandSource, bombChance float64) *Bot {
	return &Bot{rng: rng, bombChance: bombChance}
}

// NewSeededBot seeds a math/rand source; seed 0 means the wall clock.
func NewSeededBot(seed int64, bombChance float64) *Bot {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewBot(rand.New(rand.NewSource(seed)), bombChance)
}

// Pick chooses the bot's move. Choosing the bomb marks it used on s.
func (b *Bot) Pick(s *State) Move {
	if !s.BotBombUsed && b.rng.Float64() < b.bombChance {
		s.BotBombUsed = true
		return Bomb
	}
	return StandardMoves[b.rng.Intn(len(StandardMoves))]
}

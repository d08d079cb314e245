package engine

import "math"

// State is the mutable record of one game. It has a single owner and no locking.
type State struct {
	Round        int
	UserScore    int
	BotScore     int
	UserBombUsed bool
	BotBombUsed  bool
}

// NextRound advances the round counter and returns the new round number.
func (s *State) NextRound() int {
	s.Round++
	return s.Round
}

// Settle applies a finalized judgment. Call it exactly once per round.
//
// The user's bomb is consumed only when the judge confirms a valid bomb; the bot's
// bomb is consumed by Bot.Pick when it is chosen.
func (s *State) Settle(o Outcome) {
	if o.UserMove == Bomb && o.Status == Valid {
		s.UserBombUsed = true
	}
	switch o.Winner {
	case UserWins:
		s.UserScore++
	case BotWins:
		s.BotScore++
	}
}

type Verdict string

const (
	VerdictUser Verdict = "USER"
	VerdictBot  Verdict = "BOT"
	VerdictDraw Verdict = "DRAW"
)

// Summary is a read-only view over a State.
type Summary struct {
	GameID       string  `json:"game_id,omitempty"`
	Rounds       int     `json:"rounds"`
	UserScore    int     `json:"user_score"`
	BotScore     int     `json:"bot_score"`
	Verdict      Verdict `json:"verdict"`
	UserBombUsed bool    `json:"user_bomb_used"`
	BotBombUsed  bool    `json:"bot_bomb_used"`
	WinRate      float64 `json:"win_rate"`
}

func (s State) Summary() Summary {
	v := VerdictDraw
	switch {
	case s.UserScore > s.BotScore:
		v = VerdictUser
	case s.BotScore > s.UserScore:
		v = VerdictBot
	}
	return Summary{
		Rounds:       s.Round,
		UserScore:    s.UserScore,
		BotScore:     s.BotScore,
		Verdict:      v,
		UserBombUsed: s.UserBombUsed,
		BotBombUsed:  s.BotBombUsed,
		WinRate:      float64(s.UserScore) / math.Max(float64(s.Round), 1),
	}
}

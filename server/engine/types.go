package engine

import "strings"

type Move string

const (
	Rock     Move = "rock"
	Paper    Move = "paper"
	Scissors Move = "scissors"
	Bomb     Move = "bomb"
	Unknown  Move = "unknown"
)

// StandardMoves are the moves available every round; bomb is once per game.
var StandardMoves = []Move{Rock, Paper, Scissors}

type MoveStatus string

const (
	Valid   MoveStatus = "VALID"
	Invalid MoveStatus = "INVALID"
	Unclear MoveStatus = "UNCLEAR"
)

type Winner string

const (
	UserWins Winner = "USER"
	BotWins  Winner = "BOT"
	Draw     Winner = "DRAW"
)

// Outcome is the part of a judgment the state machine consumes.
type Outcome struct {
	Status   MoveStatus
	UserMove Move
	Winner   Winner
}

// ParseMove maps a label to a Move. ok is false for anything that is not one of the five labels.
func ParseMove(s string) (Move, bool) {
	switch m := Move(strings.ToLower(strings.TrimSpace(s))); m {
	case Rock, Paper, Scissors, Bomb, Unknown:
		return m, true
	}
	return Unknown, false
}

func ParseMoveStatus(s string) (MoveStatus, bool) {
	switch st := MoveStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case Valid, Invalid, Unclear:
		return st, true
	}
	return Unclear, false
}

func ParseWinner(s string) (Winner, bool) {
	switch w := Winner(strings.ToUpper(strings.TrimSpace(s))); w {
	case UserWins, BotWins, Draw:
		return w, true
	}
	return BotWins, false
}

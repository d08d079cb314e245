package agent

import (
	"rps-judge/server/engine"
	"rps-judge/server/llm"
)

// RoundRequest is what the judge sees for one round. It is built from a State
// snapshot and dropped once the round resolves.
type RoundRequest struct {
	Round        int         `json:"round_number"`
	UserBombUsed bool        `json:"user_bomb_used"`
	BotBombUsed  bool        `json:"bot_bomb_used"`
	UserInput    string      `json:"user_input"`
	BotMove      engine.Move `json:"bot_move"`
}

// NewRoundRequest snapshots s for the round in progress.
func NewRoundRequest(s engine.State, input string, botMove engine.Move) RoundRequest {
	return RoundRequest{
		Round:        s.Round,
		UserBombUsed: s.UserBombUsed,
		BotBombUsed:  s.BotBombUsed,
		UserInput:    input,
		BotMove:      botMove,
	}
}

// DecisionRecord is the normalized judgment of one round. Every field is always set.
type DecisionRecord struct {
	MoveStatus  engine.MoveStatus `json:"move_status"`
	UserMove    engine.Move       `json:"user_move"`
	Reason      string            `json:"reason"`
	RoundWinner engine.Winner     `json:"round_winner"`
	Explanation string            `json:"explanation"`
	Feedback    string            `json:"feedback"`
}

func (d DecisionRecord) Outcome() engine.Outcome {
	return engine.Outcome{Status: d.MoveStatus, UserMove: d.UserMove, Winner: d.RoundWinner}
}

const (
	defaultReason      = "Unknown"
	defaultExplanation = "No explanation"

	fallbackReason      = "System error"
	fallbackExplanation = "Technical issue - bot wins by default"
	apiErrorReason      = "API error"
	maxErrorDetail      = 100
)

// Fallback is the record used when the judge's reply cannot be read. It always
// awards the round to the bot.
func Fallback() DecisionRecord {
	return DecisionRecord{
		MoveStatus:  engine.Unclear,
		UserMove:    engine.Unknown,
		Reason:      fallbackReason,
		RoundWinner: engine.BotWins,
		Explanation: fallbackExplanation,
	}
}

// CallFailure is the record used when the judge could not be reached at all.
func CallFailure(err error) DecisionRecord {
	d := Fallback()
	d.Reason = apiErrorReason
	d.Explanation = "Error: " + llm.Truncate(err.Error(), maxErrorDetail)
	return d
}

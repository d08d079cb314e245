package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"rps-judge/server/engine"
)

// ErrMalformedJudgment means the judge's reply held no readable JSON object.
var ErrMalformedJudgment = errors.New("malformed judgment")

// moveAliases are the misspellings the judge is asked to tolerate; some models
// echo them back verbatim instead of the canonical label.
var moveAliases = map[string]engine.Move{
	"rok": engine.Rock, "rocc": engine.Rock, "r": engine.Rock,
	"papper": engine.Paper, "papre": engine.Paper, "p": engine.Paper,
	"scissor": engine.Scissors, "scizzors": engine.Scissors, "s": engine.Scissors,
	"bom": engine.Bomb, "bombb": engine.Bomb, "b": engine.Bomb,
}

// Normalize turns an arbitrary reply into a DecisionRecord. It never fails:
// unreadable replies become Fallback().
func Normalize(text string) DecisionRecord {
	d, err := Parse(text)
	if err != nil {
		return Fallback()
	}
	return d
}

// Parse extracts the JSON object from text and defaults any missing or
// unrecognized field.
func Parse(text string) (DecisionRecord, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return DecisionRecord{}, fmt.Errorf("%w: no JSON object in %d bytes", ErrMalformedJudgment, len(text))
	}
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return DecisionRecord{}, fmt.Errorf("%w: %v", ErrMalformedJudgment, err)
	}
	return coerceDecision(fields), nil
}

// extractJSONObject prefers a fenced block that looks like JSON, then slices
// from the first '{' to the last '}'.
func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	if strings.Contains(s, "```") {
		for _, part := range strings.Split(s, "```") {
			part = strings.TrimSpace(part)
			if strings.HasPrefix(part, "json") {
				part = strings.TrimSpace(part[len("json"):])
			}
			if strings.HasPrefix(part, "{") && strings.HasSuffix(part, "}") {
				s = part
				break
			}
		}
	}
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(s, '}')
	if end <= start {
		return ""
	}
	return s[start : end+1]
}

func coerceDecision(fields map[string]any) DecisionRecord {
	d := DecisionRecord{
		MoveStatus:  engine.Unclear,
		UserMove:    engine.Unknown,
		Reason:      defaultReason,
		RoundWinner: engine.BotWins,
		Explanation: defaultExplanation,
	}
	if v, ok := stringField(fields, "move_status"); ok {
		d.MoveStatus, _ = engine.ParseMoveStatus(v)
	}
	if v, ok := stringField(fields, "user_move"); ok {
		d.UserMove = coerceMove(v)
	}
	if v, ok := stringField(fields, "round_winner"); ok {
		d.RoundWinner, _ = engine.ParseWinner(v)
	}
	if v, ok := stringField(fields, "reason"); ok {
		d.Reason = v
	}
	if v, ok := stringField(fields, "explanation"); ok {
		d.Explanation = v
	}
	if v, ok := stringField(fields, "feedback"); ok {
		d.Feedback = v
	}
	return d
}

func coerceMove(v string) engine.Move {
	if m, ok := engine.ParseMove(v); ok {
		return m
	}
	if m, ok := moveAliases[strings.ToLower(strings.TrimSpace(v))]; ok {
		return m
	}
	return engine.Unknown
}

// stringField reports a non-empty string value only; nulls and other JSON
// types count as missing.
func stringField(fields map[string]any, key string) (string, bool) {
	s, ok := fields[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

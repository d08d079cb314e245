package agent

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rps-judge/server/engine"
)

const minimalDecision = `{"move_status":"VALID","user_move":"rock","reason":"clear","round_winner":"DRAW","explanation":"rock vs rock","feedback":""}`

func TestNormalizeIsIdempotent(t *testing.T) {
	first := Normalize(minimalDecision)
	second := Normalize(minimalDecision)
	assert.Equal(t, first, second)
	assert.Equal(t, engine.Valid, first.MoveStatus)
	assert.Equal(t, engine.Rock, first.UserMove)
	assert.Equal(t, engine.Draw, first.RoundWinner)
}

func TestNormalizeFencedBlockWithProse(t *testing.T) {
	text := "Sure! Here is my ruling.\n\n```json\n" +
		`{"move_status":"VALID","user_move":"paper","reason":"typo of paper","round_winner":"USER","explanation":"paper covers rock","feedback":"nice"}` +
		"\n```\nLet me know if you need anything else."

	d, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, DecisionRecord{
		MoveStatus:  engine.Valid,
		UserMove:    engine.Paper,
		Reason:      "typo of paper",
		RoundWinner: engine.UserWins,
		Explanation: "paper covers rock",
		Feedback:    "nice",
	}, d)
}

func TestNormalizeBareFenceAndTrailingCommentary(t *testing.T) {
	text := "```\n{\"move_status\":\"INVALID\",\"user_move\":\"unknown\",\"round_winner\":\"BOT\"}\n```"
	d := Normalize(text)
	assert.Equal(t, engine.Invalid, d.MoveStatus)
	assert.Equal(t, engine.BotWins, d.RoundWinner)

	d = Normalize(`Result: {"move_status":"VALID","user_move":"scissors","round_winner":"BOT"} -- end`)
	assert.Equal(t, engine.Scissors, d.UserMove)
}

func TestNormalizeFallbackTotality(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"sorry, I cannot help with that",
		"[1,2,3]",
		"{not json at all}",
		"} backwards {",
		"```json\n{\"move_status\": \n```",
		`"just a string"`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, Fallback(), Normalize(in))
			_, err := Parse(in)
			assert.True(t, errors.Is(err, ErrMalformedJudgment))
		})
	}
}

func TestFallbackFavorsBot(t *testing.T) {
	f := Fallback()
	assert.Equal(t, engine.Unclear, f.MoveStatus)
	assert.Equal(t, engine.Unknown, f.UserMove)
	assert.Equal(t, engine.BotWins, f.RoundWinner)
	assert.Equal(t, "System error", f.Reason)
	assert.Contains(t, f.Explanation, "Technical issue")
	assert.Empty(t, f.Feedback)
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	d := Normalize(`{"user_move":"bomb"}`)
	assert.Equal(t, DecisionRecord{
		MoveStatus:  engine.Unclear,
		UserMove:    engine.Bomb,
		Reason:      "Unknown",
		RoundWinner: engine.BotWins,
		Explanation: "No explanation",
	}, d)
}

func TestNormalizeCoercesOddValues(t *testing.T) {
	d := Normalize(`{"move_status":"valid","user_move":"Rocc","round_winner":"user","reason":42,"feedback":null}`)
	assert.Equal(t, engine.Valid, d.MoveStatus)
	assert.Equal(t, engine.Rock, d.UserMove)
	assert.Equal(t, engine.UserWins, d.RoundWinner)
	assert.Equal(t, "Unknown", d.Reason)
	assert.Empty(t, d.Feedback)

	d = Normalize(`{"move_status":"MAYBE","user_move":"gun","round_winner":"nobody"}`)
	assert.Equal(t, engine.Unclear, d.MoveStatus)
	assert.Equal(t, engine.Unknown, d.UserMove)
	assert.Equal(t, engine.BotWins, d.RoundWinner)
}

func TestCallFailureTruncatesDetail(t *testing.T) {
	long := errors.New(string(make([]byte, 500)))
	d := CallFailure(long)
	assert.Equal(t, "API error", d.Reason)
	assert.Equal(t, engine.BotWins, d.RoundWinner)
	assert.LessOrEqual(t, len(d.Explanation), len("Error: ")+maxErrorDetail)

	d = CallFailure(errors.New("boom"))
	assert.Equal(t, "Error: boom", d.Explanation)
}

func TestCallFailureKeepsRunesWhole(t *testing.T) {
	d := CallFailure(errors.New(strings.Repeat("é", 100)))
	assert.True(t, utf8.ValidString(d.Explanation))
	assert.NotContains(t, d.Explanation, "\uFFFD")
	assert.LessOrEqual(t, len(d.Explanation), len("Error: ")+maxErrorDetail)
	assert.True(t, strings.HasSuffix(d.Explanation, "..."))
}

package judge

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rps-judge/server/agent"
	"rps-judge/server/engine"
	"rps-judge/server/llm"
)

// fakeJudge answers from a queue and keeps the prompts it was given.
type fakeJudge struct {
	replies []string
	err     error
	prompts []string
}

func (f *fakeJudge) Judge(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	r := f.replies[0]
	f.replies = f.replies[1:]
	return r, nil
}

type fixedRand struct {
	float float64
	index int
}

func (r fixedRand) Float64() float64 { return r.float }
func (r fixedRand) Intn(int) int     { return r.index }

type memRecorder struct {
	results   []RoundResult
	summaries []engine.Summary
}

func (m *memRecorder) Record(r RoundResult, s engine.Summary) {
	m.results = append(m.results, r)
	m.summaries = append(m.summaries, s)
}

func rockBot() *engine.Bot { return engine.NewBot(fixedRand{float: 0.9, index: 0}, engine.DefaultBombChance) }

func TestPlayRoundUserWins(t *testing.T) {
	j := &fakeJudge{replies: []string{
		"Here you go:\n```json\n{\"move_status\":\"VALID\",\"user_move\":\"paper\",\"reason\":\"clear\",\"round_winner\":\"USER\",\"explanation\":\"paper covers rock\"}\n```",
	}}
	rec := &memRecorder{}
	o := New(j, rockBot(), WithRecorder(rec))

	res := o.PlayRound(context.Background(), "papre")
	assert.Equal(t, 1, res.Round)
	assert.Equal(t, engine.Rock, res.BotMove)
	assert.Equal(t, engine.Paper, res.Decision.UserMove)
	assert.Equal(t, engine.UserWins, res.Decision.RoundWinner)
	assert.Equal(t, 1, res.UserScore)
	assert.Equal(t, 0, res.BotScore)
	assert.Equal(t, CauseNone, res.Fallback)

	require.Len(t, j.prompts, 1)
	assert.Contains(t, j.prompts[0], "Round: 1")
	assert.Contains(t, j.prompts[0], `"papre"`)
	assert.Contains(t, j.prompts[0], "Bot move: rock")

	require.Len(t, rec.results, 1)
	assert.Equal(t, res, rec.results[0])
	assert.Equal(t, o.GameID(), rec.summaries[0].GameID)
	assert.Equal(t, 1, rec.summaries[0].UserScore)
}

func TestPlayRoundTypoIsCanonicalized(t *testing.T) {
	j := &fakeJudge{replies: []string{
		`{"move_status":"VALID","user_move":"rocc","reason":"typo","round_winner":"DRAW","explanation":"rock vs rock"}`,
	}}
	o := New(j, rockBot())

	res := o.PlayRound(context.Background(), "I'll go with rocc this time")
	assert.Equal(t, engine.Rock, res.Decision.UserMove)
	assert.Equal(t, engine.Draw, res.Decision.RoundWinner)
	assert.Equal(t, engine.State{Round: 1}, o.State())
}

func TestPlayRoundFailsClosedOnOutage(t *testing.T) {
	j := &fakeJudge{err: errors.Join(llm.ErrRemoteCallFailed, errors.New("dial tcp: connection refused"))}
	o := New(j, rockBot())

	for i := 1; i <= 10; i++ {
		res := o.PlayRound(context.Background(), "bomb")
		assert.Equal(t, engine.BotWins, res.Decision.RoundWinner)
		assert.Equal(t, "API error", res.Decision.Reason)
		assert.Contains(t, res.Decision.Explanation, "Error: ")
		assert.Equal(t, CauseAPIError, res.Fallback)
		assert.Equal(t, i, res.BotScore)
	}
	s := o.State()
	assert.Zero(t, s.UserScore)
	assert.False(t, s.UserBombUsed)
}

func TestPlayRoundOutageKeepsKeyOutOfRecord(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL + "/j"
	srv.Close()

	const key = "SECRETKEY123"
	tr := llm.NewRESTTransport(llm.RESTConfig{APIKey: key, KeyParam: "key"}, nil)
	client := llm.NewBound(tr, endpoint, llm.WithRetryPolicy(llm.RetryPolicy{MaxAttempts: 1}))
	rec := &memRecorder{}
	o := New(client, rockBot(), WithRecorder(rec))

	res := o.PlayRound(context.Background(), "rock")
	assert.Equal(t, CauseAPIError, res.Fallback)
	assert.Equal(t, "API error", res.Decision.Reason)
	assert.NotContains(t, res.Decision.Explanation, key)
	require.Len(t, rec.results, 1)
	assert.NotContains(t, rec.results[0].Decision.Explanation, key)

	_, err := client.Judge(context.Background(), "rock")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), key)
	assert.NotContains(t, agent.CallFailure(err).Explanation, key)
}

func TestPlayRoundMalformedReply(t *testing.T) {
	j := &fakeJudge{replies: []string{"sorry, I cannot help with that"}}
	o := New(j, rockBot())

	res := o.PlayRound(context.Background(), "rock")
	assert.Equal(t, agent.Fallback(), res.Decision)
	assert.Equal(t, CauseMalformed, res.Fallback)
	assert.Equal(t, 1, o.State().BotScore)
}

func TestPlayRoundConfirmedBombConsumesUserResource(t *testing.T) {
	j := &fakeJudge{replies: []string{
		`{"move_status":"VALID","user_move":"bomb","round_winner":"USER"}`,
		`{"move_status":"INVALID","user_move":"bomb","round_winner":"BOT","feedback":"bomb already used"}`,
	}}
	o := New(j, rockBot())

	o.PlayRound(context.Background(), "bom")
	assert.True(t, o.State().UserBombUsed)

	res := o.PlayRound(context.Background(), "bomb again")
	assert.Equal(t, "bomb already used", res.Decision.Feedback)
	assert.True(t, o.State().UserBombUsed)
	assert.Contains(t, j.prompts[1], "User bomb used: true")
	assert.Equal(t, engine.State{Round: 2, UserScore: 1, BotScore: 1, UserBombUsed: true}, o.State())
}

func TestPlayRoundBotBombIsInPrompt(t *testing.T) {
	j := &fakeJudge{replies: []string{`{"move_status":"VALID","user_move":"rock","round_winner":"BOT"}`}}
	bot := engine.NewBot(fixedRand{float: 0.0}, engine.DefaultBombChance)
	o := New(j, bot)

	res := o.PlayRound(context.Background(), "rock")
	assert.Equal(t, engine.Bomb, res.BotMove)
	assert.True(t, o.State().BotBombUsed)
	assert.Contains(t, j.prompts[0], "Bot bomb used: true")
	assert.Contains(t, j.prompts[0], "Bot move: bomb")
}

func TestRoundLogIsDebugOnly(t *testing.T) {
	reply := `{"move_status":"VALID","user_move":"rock","round_winner":"DRAW"}`

	core, logs := observer.New(zap.InfoLevel)
	o := New(&fakeJudge{replies: []string{reply}}, rockBot(), WithLogger(zap.New(core)))
	o.PlayRound(context.Background(), "rock")
	assert.Zero(t, logs.FilterMessage("Round settled").Len())

	core, logs = observer.New(zap.DebugLevel)
	o = New(&fakeJudge{replies: []string{reply}}, rockBot(), WithLogger(zap.New(core)))
	o.PlayRound(context.Background(), "rock")
	entries := logs.FilterMessage("Round settled").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "DRAW", entries[0].ContextMap()["winner"])
}

func TestScoreConservation(t *testing.T) {
	replies := []string{
		`{"round_winner":"USER","move_status":"VALID","user_move":"rock"}`,
		`{"round_winner":"DRAW","move_status":"VALID","user_move":"rock"}`,
		`garbage`,
		`{"round_winner":"DRAW","move_status":"VALID","user_move":"paper"}`,
		`{"round_winner":"BOT","move_status":"UNCLEAR","user_move":"unknown"}`,
	}
	j := &fakeJudge{replies: replies}
	o := New(j, engine.NewSeededBot(3, engine.DefaultBombChance))

	for i := range replies {
		o.PlayRound(context.Background(), "rock")
		s := o.State()
		require.LessOrEqual(t, s.UserScore+s.BotScore, i+1)
	}
	sum := o.Summary()
	assert.Equal(t, 5, sum.Rounds)
	assert.Equal(t, 1, sum.UserScore)
	assert.Equal(t, 2, sum.BotScore)
	assert.Equal(t, engine.VerdictBot, sum.Verdict)
	assert.InDelta(t, 0.2, sum.WinRate, 1e-9)
}

package judge

import (
	"context"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"rps-judge/server/agent"
	"rps-judge/server/engine"
)

// Judge returns the raw reply of the remote referee for one prompt.
// *llm.Client satisfies it.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// Recorder receives every settled round; store.History satisfies it.
type Recorder interface {
	Record(r RoundResult, s engine.Summary)
}

// Why a round was resolved by a fallback record instead of the judge's reply.
const (
	CauseNone      = ""
	CauseAPIError  = "api_error"
	CauseMalformed = "malformed"
)

var (
	roundsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_rounds_total",
			Help: "Settled rounds by winner.",
		},
		[]string{"winner"},
	)
	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rps_round_fallbacks_total",
			Help: "Rounds resolved by the fail-closed fallback, by cause.",
		},
		[]string{"cause"},
	)
)

type RoundResult struct {
	Round     int                  `json:"round"`
	Input     string               `json:"input"`
	BotMove   engine.Move          `json:"bot_move"`
	Decision  agent.DecisionRecord `json:"decision"`
	UserScore int                  `json:"user_score"`
	BotScore  int                  `json:"bot_score"`
	Fallback  string               `json:"fallback,omitempty"`
}

// Orchestrator plays rounds for one game. It is the only writer of the game
// state and is not safe for concurrent use.
type Orchestrator struct {
	id       uuid.UUID
	state    engine.State
	bot      *engine.Bot
	judge    Judge
	prompter *agent.Prompter
	recorder Recorder
	log      *zap.Logger
}

type Option func(*Orchestrator)

func WithPrompter(p *agent.Prompter) Option { return func(o *Orchestrator) { o.prompter = p } }
func WithRecorder(r Recorder) Option        { return func(o *Orchestrator) { o.recorder = r } }
func WithLogger(l *zap.Logger) Option       { return func(o *Orchestrator) { o.log = l } }

func New(j Judge, bot *engine.Bot, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		id:       uuid.New(),
		bot:      bot,
		judge:    j,
		prompter: agent.NewPrompter(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With(zap.String("game_id", o.id.String()))
	return o
}

func (o *Orchestrator) GameID() string { return o.id.String() }

// State returns a copy of the current game state.
func (o *Orchestrator) State() engine.State { return o.state }

func (o *Orchestrator) Summary() engine.Summary {
	s := o.state.Summary()
	s.GameID = o.GameID()
	return s
}

// PlayRound resolves one round for the human's raw input. It always returns a
// fully populated result; judge failures award the round to the bot.
func (o *Orchestrator) PlayRound(ctx context.Context, input string) RoundResult {
	round := o.state.NextRound()
	botMove := o.bot.Pick(&o.state)
	req := agent.NewRoundRequest(o.state, input, botMove)

	decision, cause := o.decide(ctx, req)
	o.state.Settle(decision.Outcome())

	roundsTotal.WithLabelValues(string(decision.RoundWinner)).Inc()
	if cause != CauseNone {
		fallbacksTotal.WithLabelValues(cause).Inc()
	}
	o.log.Debug("Round settled",
		zap.Int("round", round),
		zap.String("bot_move", string(botMove)),
		zap.String("user_move", string(decision.UserMove)),
		zap.String("status", string(decision.MoveStatus)),
		zap.String("winner", string(decision.RoundWinner)),
		zap.String("fallback", cause))

	res := RoundResult{
		Round:     round,
		Input:     input,
		BotMove:   botMove,
		Decision:  decision,
		UserScore: o.state.UserScore,
		BotScore:  o.state.BotScore,
		Fallback:  cause,
	}
	if o.recorder != nil {
		o.recorder.Record(res, o.Summary())
	}
	return res
}

func (o *Orchestrator) decide(ctx context.Context, req agent.RoundRequest) (agent.DecisionRecord, string) {
	prompt, err := o.prompter.Render(req)
	if err != nil {
		o.log.Error("Prompt rendering failed", zap.Error(err))
		return agent.CallFailure(err), CauseAPIError
	}
	text, err := o.judge.Judge(ctx, prompt)
	if err != nil {
		o.log.Warn("Judge unavailable, bot wins by default", zap.Error(err))
		return agent.CallFailure(err), CauseAPIError
	}
	d, err := agent.Parse(text)
	if err != nil {
		o.log.Warn("Unreadable judgment, bot wins by default",
			zap.Error(err), zap.Int("reply_bytes", len(text)))
		return agent.Fallback(), CauseMalformed
	}
	return d, CauseNone
}

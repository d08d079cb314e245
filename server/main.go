package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"rps-judge/server/agent"
	"rps-judge/server/config"
	"rps-judge/server/engine"
	"rps-judge/server/judge"
	"rps-judge/server/llm"
	"rps-judge/server/logger"
	"rps-judge/server/store"
)

// historyLimit caps the rounds kept for the ops view.
const historyLimit = 500

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error:\n%v\n", err)
		return 2
	}
	useColor = cfg.Color()

	lg, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: cfg.LogEncoding})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	defer func() { _ = lg.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watchSignals(cancel)

	printBanner(os.Stdout)

	prompter, err := agent.LoadPrompter(cfg.PromptTemplateFile)
	if err != nil {
		lg.Error("Prompt template unusable", zap.Error(err))
		return 2
	}

	fmt.Println("\nFinding a working judge model...")
	client, err := llm.Discover(ctx, cfg.Transport(), cfg.Candidates(),
		llm.WithRetryPolicy(cfg.RetryPolicy()),
		llm.WithTimeouts(cfg.ProbeTimeout, cfg.CallTimeout),
		llm.WithLogger(lg.Named("llm")),
	)
	if err != nil {
		if errors.Is(err, llm.ErrNoServiceAvailable) {
			fmt.Println(bad("No available judge model found. Check JUDGE_API_KEY and JUDGE_ENDPOINTS."))
		} else {
			fmt.Println(bad("Judge discovery aborted: " + err.Error()))
		}
		return 1
	}
	fmt.Printf("%s %s\n", good("Using:"), bold(client.Endpoint().Name))

	history := store.New(historyLimit)
	game := judge.New(client, engine.NewSeededBot(cfg.BotSeed, cfg.BombChance),
		judge.WithPrompter(prompter),
		judge.WithRecorder(history),
		judge.WithLogger(lg.Named("judge")),
	)
	history.SetSummary(game.Summary())
	lg.Info("Game started",
		zap.String("game_id", game.GameID()),
		zap.String("endpoint", client.Endpoint().Name),
		zap.Float64("bomb_chance", cfg.BombChance))

	if cfg.OpsAddr != "" {
		srv := &http.Server{Addr: cfg.OpsAddr, Handler: Router(history), ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second}
		go func() {
			lg.Info("Ops server listening", zap.String("addr", cfg.OpsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("Ops server stopped", zap.Error(err))
			}
		}()
		defer func() {
			sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer scancel()
			_ = srv.Shutdown(sctx)
		}()
	}

	playConsole(ctx, os.Stdin, os.Stdout, game)
	return 0
}

func watchSignals(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	<-c
	cancel()
}

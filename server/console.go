package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"rps-judge/server/engine"
	"rps-judge/server/judge"
)

//
// ===== pretty printing =====
//

var useColor bool

const (
	colReset  = "\033[0m"
	colBold   = "\033[1m"
	colDim    = "\033[2m"
	colGreen  = "\033[32m"
	colRed    = "\033[31m"
	colYellow = "\033[33m"
	colCyan   = "\033[36m"
)

func c(code, s string) string {
	if !useColor {
		return s
	}
	return code + s + colReset
}
func bold(s string) string { return c(colBold, s) }
func dim(s string) string  { return c(colDim, s) }
func good(s string) string { return c(colGreen, s) }
func warn(s string) string { return c(colYellow, s) }
func bad(s string) string  { return c(colRed, s) }
func cyan(s string) string { return c(colCyan, s) }

var rule = strings.Repeat("=", 60)

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\n%s\n%s\n", rule, bold(title), rule)
}

func winnerTag(w engine.Winner) string {
	switch w {
	case engine.UserWins:
		return good(string(w))
	case engine.BotWins:
		return bad(string(w))
	default:
		return warn(string(w))
	}
}

func bombTag(used bool) string {
	if used {
		return dim("Used")
	}
	return good("Available")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func printBanner(w io.Writer) {
	section(w, "ROCK-PAPER-SCISSORS PLUS - AI Judge")
	fmt.Fprintln(w, "\nRules:")
	fmt.Fprintln(w, "  • Valid moves: rock, paper, scissors, bomb")
	fmt.Fprintln(w, "  • Bomb beats everything (use wisely - only once!)")
	fmt.Fprintln(w, "  • Unclear/invalid moves waste your turn")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  • Type your move (typos are OK!)")
	fmt.Fprintln(w, "  • 'quit' to end game")
	fmt.Fprintln(w, "  • 'stats' for current score")
	fmt.Fprintln(w, rule)
}

func printRound(w io.Writer, r judge.RoundResult) {
	d := r.Decision
	fmt.Fprintln(w, "\n"+rule)
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "MOVE_STATUS: %s\n", d.MoveStatus)
	fmt.Fprintf(w, "USER_MOVE: %s\n", d.UserMove)
	fmt.Fprintf(w, "REASON: %s\n", d.Reason)
	fmt.Fprintf(w, "BOT_MOVE: %s\n", cyan(string(r.BotMove)))
	fmt.Fprintf(w, "ROUND_WINNER: %s\n", winnerTag(d.RoundWinner))
	fmt.Fprintf(w, "EXPLANATION: %s\n", d.Explanation)
	if d.Feedback != "" {
		fmt.Fprintf(w, "FEEDBACK: %s\n", warn(d.Feedback))
	}
	fmt.Fprintln(w, "---")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "\nScore: User %d - %d Bot\n", r.UserScore, r.BotScore)
}

func printStats(w io.Writer, s engine.State) {
	fmt.Fprintf(w, "\nScore: %d - %d\n", s.UserScore, s.BotScore)
	fmt.Fprintf(w, "   Bomb: %s\n", bombTag(s.UserBombUsed))
}

func printSummary(w io.Writer, s engine.Summary) {
	var verdict string
	switch s.Verdict {
	case engine.VerdictUser:
		verdict = good("USER WINS THE GAME!")
	case engine.VerdictBot:
		verdict = bad("BOT WINS THE GAME!")
	default:
		verdict = warn("GAME IS A DRAW!")
	}
	fmt.Fprintln(w)
	section(w, "GAME SUMMARY")
	fmt.Fprintf(w, "Total Rounds: %d\n", s.Rounds)
	fmt.Fprintf(w, "User Score: %d\n", s.UserScore)
	fmt.Fprintf(w, "Bot Score: %d\n\n", s.BotScore)
	fmt.Fprintf(w, "%s\n\n", bold(verdict))
	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "- User bomb used: %s\n", yesNo(s.UserBombUsed))
	fmt.Fprintf(w, "- Bot bomb used: %s\n", yesNo(s.BotBombUsed))
	fmt.Fprintf(w, "- Win rate: %.1f%%\n", s.WinRate*100)
	fmt.Fprintln(w, rule)
}

//
// ===== game loop =====
//

// playConsole reads moves from in until quit, EOF or ctx is done, then prints
// the game summary.
func playConsole(ctx context.Context, in io.Reader, out io.Writer, o *judge.Orchestrator) {
	defer func() { printSummary(out, o.Summary()) }()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		fmt.Fprintf(out, "\n[Round %d] Your move: ", o.State().Round+1)
		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted.")
			return
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return
			}
			line = strings.TrimSpace(l)
		}

		switch strings.ToLower(line) {
		case "quit", "exit", "q":
			fmt.Fprintln(out, "\nThanks for playing!")
			return
		case "stats":
			printStats(out, o.State())
			continue
		case "":
			fmt.Fprintln(out, warn("Please enter a move!"))
			continue
		}

		printRound(out, o.PlayRound(ctx, line))
	}
}

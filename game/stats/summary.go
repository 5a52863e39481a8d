package stats

import (
	"math"

	"github.com/wricardo/reserve-solitaire/game/engine"
)

// Summary holds the aggregate figures derived from the outcome history
type Summary struct {
	TotalGames     int     `json:"total_games"`
	Wins           int     `json:"wins"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"` // percent
	CurrentStreak  int     `json:"current_streak"`
	BestStreak     int     `json:"best_streak"`
	AvgMovesOnWins int     `json:"avg_moves_on_wins"`
	AvgTimeOnWins  int64   `json:"avg_time_on_wins_ms"`
}

// Compute derives the summary from a history ordered oldest first
func Compute(history []engine.Outcome) Summary {
	var s Summary
	s.TotalGames = len(history)

	var moves int
	var elapsed int64
	running := 0
	for _, o := range history {
		if o.Outcome != engine.OutcomeWin {
			s.Losses++
			running = 0
			continue
		}
		s.Wins++
		moves += o.MoveCount
		elapsed += o.ElapsedMs
		running++
		if running > s.BestStreak {
			s.BestStreak = running
		}
	}

	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Outcome != engine.OutcomeWin {
			break
		}
		s.CurrentStreak++
	}

	if s.TotalGames > 0 {
		s.WinRate = float64(s.Wins) / float64(s.TotalGames) * 100
	}
	if s.Wins > 0 {
		s.AvgMovesOnWins = int(math.Round(float64(moves) / float64(s.Wins)))
		s.AvgTimeOnWins = int64(math.Round(float64(elapsed) / float64(s.Wins)))
	}
	return s
}

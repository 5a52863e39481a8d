// Command analyze deals a range of seeds and plays each one greedily by
// following the hint engine. It reports how many fresh deals are dead on
// arrival, how many greedy runs win, and how much work auto-play does.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/reserve-solitaire/game/engine"
)

// DealReport describes one seeded deal
type DealReport struct {
	Seed        int64         `json:"seed"`
	FreshLoss   bool          `json:"fresh_loss"`
	Status      engine.Status `json:"status"`
	Moves       int           `json:"moves"`
	AutoPlayed  int           `json:"auto_played"`
	Foundations int           `json:"foundation_cards"`
	Looped      bool          `json:"looped"`
}

// Summary aggregates a batch of deal reports
type Summary struct {
	Deals         int     `json:"deals"`
	FreshLosses   int     `json:"fresh_losses"`
	GreedyWins    int     `json:"greedy_wins"`
	Looped        int     `json:"looped"`
	AvgAutoPlayed float64 `json:"avg_auto_played"`
	AvgFoundation float64 `json:"avg_foundation_cards"`
}

// fingerprint identifies a table layout ignoring counters
func fingerprint(gs *engine.GameState) string {
	data, _ := json.Marshal([]any{gs.Tableau, gs.Foundations, gs.Reserve})
	return string(data)
}

// analyzeSeed deals seed and follows hints until the run ends, repeats a
// position, or maxSteps moves have been made
func analyzeSeed(profile *engine.Profile, seed int64, maxSteps int) (DealReport, error) {
	eng, err := engine.NewEngineWithSeed(profile, seed)
	if err != nil {
		return DealReport{}, err
	}

	report := DealReport{Seed: seed}
	if eng.CheckState() == engine.StatusLoss {
		report.FreshLoss = true
		report.Status = engine.StatusLoss
		return report, nil
	}

	seen := make(map[string]bool)
	for report.Moves < maxSteps {
		report.AutoPlayed += eng.AutoPlay()
		if eng.Status() != engine.StatusPlaying {
			break
		}

		key := fingerprint(eng.GetState())
		if seen[key] {
			report.Looped = true
			break
		}
		seen[key] = true

		m := eng.Hint()
		if m == nil {
			break
		}
		if err := eng.Apply(*m); err != nil {
			return report, fmt.Errorf("seed %d: hinted move rejected: %w", seed, err)
		}
		report.Moves++
	}

	report.Status = eng.Status()
	for _, f := range eng.GetState().Foundations {
		report.Foundations += len(f)
	}
	return report, nil
}

// summarize folds reports into batch figures
func summarize(reports []DealReport) Summary {
	s := Summary{Deals: len(reports)}
	if len(reports) == 0 {
		return s
	}

	var auto, found int
	for _, r := range reports {
		if r.FreshLoss {
			s.FreshLosses++
		}
		if r.Status == engine.StatusWin {
			s.GreedyWins++
		}
		if r.Looped {
			s.Looped++
		}
		auto += r.AutoPlayed
		found += r.Foundations
	}
	s.AvgAutoPlayed = float64(auto) / float64(len(reports))
	s.AvgFoundation = float64(found) / float64(len(reports))
	return s
}

func loadProfile(path string) (*engine.Profile, error) {
	if path == "" {
		return engine.DefaultProfile(), nil
	}
	return engine.LoadProfile(path)
}

func printText(w io.Writer, reports []DealReport, s Summary, verbose bool) {
	if verbose {
		for _, r := range reports {
			marker := " "
			switch {
			case r.FreshLoss:
				marker = "✗"
			case r.Status == engine.StatusWin:
				marker = "✓"
			case r.Looped:
				marker = "↻"
			}
			fmt.Fprintf(w, "%s seed=%-8d status=%-7s moves=%-4d auto=%-3d foundations=%d\n",
				marker, r.Seed, r.Status, r.Moves, r.AutoPlayed, r.Foundations)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Deals:                %d\n", s.Deals)
	fmt.Fprintf(w, "Dead on arrival:      %d\n", s.FreshLosses)
	fmt.Fprintf(w, "Greedy wins:          %d\n", s.GreedyWins)
	fmt.Fprintf(w, "Stopped on a repeat:  %d\n", s.Looped)
	fmt.Fprintf(w, "Avg auto-played:      %.1f\n", s.AvgAutoPlayed)
	fmt.Fprintf(w, "Avg foundation cards: %.1f\n", s.AvgFoundation)
}

func newCommand(w io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Deal seeds and play them greedily with the hint engine",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "seeds", Aliases: []string{"n"}, Value: 100, Usage: "number of deals"},
			&cli.IntFlag{Name: "start", Value: 1, Usage: "first seed"},
			&cli.IntFlag{Name: "max-steps", Value: 1000, Usage: "move cap per deal"},
			&cli.StringFlag{Name: "profile", Usage: "table profile JSON file (built-in when empty)"},
			&cli.BoolFlag{Name: "json", Usage: "print JSON instead of text"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "print one line per deal"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			profile, err := loadProfile(cmd.String("profile"))
			if err != nil {
				return err
			}

			n := int(cmd.Int("seeds"))
			start := int64(cmd.Int("start"))
			maxSteps := int(cmd.Int("max-steps"))

			reports := make([]DealReport, 0, n)
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r, err := analyzeSeed(profile, start+int64(i), maxSteps)
				if err != nil {
					return err
				}
				reports = append(reports, r)
			}
			logrus.WithField("deals", n).Debug("analysis finished")

			summary := summarize(reports)
			if cmd.Bool("json") {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"summary": summary, "deals": reports})
			}
			printText(w, reports, summary, cmd.Bool("verbose"))
			return nil
		},
	}
}

func main() {
	if err := newCommand(os.Stdout).Run(context.Background(), os.Args); err != nil {
		logrus.Fatal(err)
	}
}

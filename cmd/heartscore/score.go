package main

import (
	"errors"
	"fmt"
	"sort"

	"heartscore/internal/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	scoreUser int64
	scoreDate string
	scoreAll  bool
	scoreDays int
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Compute HeartScores",
	Long: `Compute and store the HeartScore for one user or for every user.

EXAMPLES:

  heartscore score --user 1                   # Today's score for user 1
  heartscore score --user 1 --date 2026-06-14 # A past day
  heartscore score --user 1 --history 7       # Stored scores for the last week
  heartscore score --all                      # Every user, as the scheduler would`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !scoreAll && scoreUser <= 0 {
			return errors.New("pass --user or --all")
		}
		return withServices(cmd.Context(), func(svc *services) error {
			day := scoreDate
			if day == "" {
				day = svc.scores.Today()
			}

			if scoreAll {
				summary, err := svc.job.Run(cmd.Context(), day)
				if err != nil {
					return err
				}
				color.Green("✓ Scored %s", summary.Day)
				fmt.Printf("  users %d  computed %d  skipped %d  failed %d\n",
					summary.Users, summary.Computed, summary.Skipped, summary.Failed)
				return nil
			}

			if scoreDays > 0 {
				points, err := svc.history.GetDaily(cmd.Context(), scoreUser, scoreDays)
				if err != nil {
					return err
				}
				faint := color.New(color.Faint)
				for _, p := range points {
					if p.HeartScore == nil {
						fmt.Printf("%s  %s\n", p.Day, faint.Sprint("-"))
						continue
					}
					fmt.Printf("%s  %3d\n", p.Day, *p.HeartScore)
				}
				return nil
			}

			rec, err := svc.scores.ComputeDailyScore(cmd.Context(), scoreUser, day)
			if errors.Is(err, domain.ErrInsufficientData) {
				color.Yellow("No readings for %s", day)
				return nil
			}
			if err != nil {
				return err
			}
			printScore(rec)
			return nil
		})
	},
}

func printScore(rec *domain.HeartScoreRecord) {
	c := color.New(color.FgGreen, color.Bold)
	switch {
	case rec.HeartScore < 50:
		c = color.New(color.FgRed, color.Bold)
	case rec.HeartScore < 75:
		c = color.New(color.FgYellow, color.Bold)
	}
	fmt.Printf("HeartScore %s  %s\n", rec.ScoreDate, c.Sprint(rec.HeartScore))

	cats := make([]string, 0, len(rec.Breakdown))
	for k := range rec.Breakdown {
		cats = append(cats, string(k))
	}
	sort.Strings(cats)
	faint := color.New(color.Faint)
	for _, k := range cats {
		fmt.Printf("  %-12s %3d\n", faint.Sprint(k), rec.Breakdown[domain.Category(k)])
	}
}

func init() {
	scoreCmd.Flags().Int64VarP(&scoreUser, "user", "u", 0, "user id")
	scoreCmd.Flags().StringVarP(&scoreDate, "date", "d", "", "day as YYYY-MM-DD (default today)")
	scoreCmd.Flags().BoolVar(&scoreAll, "all", false, "score every user")
	scoreCmd.Flags().IntVar(&scoreDays, "history", 0, "show stored scores for the last N days instead")
	rootCmd.AddCommand(scoreCmd)
}

package main

import (
	"errors"
	"fmt"
	"time"

	"heartscore/internal/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	streakUser   int64
	streakType   string
	streakRecord bool
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show or advance a user's streaks",
	Long: `List a user's streaks, or record activity for today with --record.

EXAMPLES:

  heartscore streak --user 1                       # List streaks
  heartscore streak --user 1 --record              # Advance daily_checkin
  heartscore streak --user 1 --record -t hydration # Advance a custom streak`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if streakUser <= 0 {
			return errors.New("--user is required")
		}
		return withServices(cmd.Context(), func(svc *services) error {
			if streakRecord {
				st, err := svc.streaks.RecordActivity(cmd.Context(), streakUser, streakType, time.Now())
				if err != nil {
					return err
				}
				color.Green("✓ %s: %d day(s)", st.StreakType, st.Count)
				return nil
			}

			list, err := svc.streaks.List(cmd.Context(), streakUser)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No streaks yet.")
				return nil
			}
			faint := color.New(color.Faint)
			for _, st := range list {
				fmt.Printf("%-20s %4d  %s\n", st.StreakType, st.Count, faint.Sprint("last "+st.LastLoggedDay))
			}
			return nil
		})
	},
}

func init() {
	streakCmd.Flags().Int64VarP(&streakUser, "user", "u", 0, "user id")
	streakCmd.Flags().StringVarP(&streakType, "type", "t", domain.StreakDailyCheckin, "streak type")
	streakCmd.Flags().BoolVar(&streakRecord, "record", false, "record activity for today")
	rootCmd.AddCommand(streakCmd)
}

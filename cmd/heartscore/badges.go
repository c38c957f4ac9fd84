package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	badgesUser     int64
	badgesEvaluate bool
)

var badgesCmd = &cobra.Command{
	Use:     "badges",
	Aliases: []string{"achievements"},
	Short:   "List or evaluate a user's badges",
	RunE: func(cmd *cobra.Command, args []string) error {
		if badgesUser <= 0 {
			return errors.New("--user is required")
		}
		return withServices(cmd.Context(), func(svc *services) error {
			if badgesEvaluate {
				awarded, err := svc.achievements.EvaluateAndAward(cmd.Context(), badgesUser)
				if err != nil {
					return err
				}
				if len(awarded) == 0 {
					fmt.Println("No new badges.")
				}
				for _, b := range awarded {
					color.Green("✓ Earned %s", b)
				}
				return nil
			}

			list, err := svc.achievements.List(cmd.Context(), badgesUser)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No badges yet.")
				return nil
			}
			faint := color.New(color.Faint)
			for _, a := range list {
				fmt.Printf("%-22s %s\n", a.BadgeType, faint.Sprint(a.EarnedAt.Format("2006-01-02")))
			}
			return nil
		})
	},
}

func init() {
	badgesCmd.Flags().Int64VarP(&badgesUser, "user", "u", 0, "user id")
	badgesCmd.Flags().BoolVar(&badgesEvaluate, "evaluate", false, "award newly earned badges")
	rootCmd.AddCommand(badgesCmd)
}

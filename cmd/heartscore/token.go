package main

import (
	"errors"
	"fmt"

	"heartscore/internal/auth"
	"heartscore/internal/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	tokenUser      int64
	tokenScheduler bool
	keygenPrivate  string
	keygenPublic   string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for the API",
	Long: `Mint a signed bearer token with the configured Ed25519 private key
(HEARTSCORE_JWT_PRIVATE_KEY).

A scheduler token may act on any user and is the only principal allowed to
run the daily job. A user token acts on that user only.

EXAMPLES:

  heartscore token keygen --private jwt.key --public jwt.pub
  heartscore token --scheduler
  heartscore token --user 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.JWTPrivateKeyPath == "" {
			return errors.New("HEARTSCORE_JWT_PRIVATE_KEY is required to mint tokens")
		}
		var p domain.Principal
		switch {
		case tokenScheduler && tokenUser > 0:
			return errors.New("pass either --scheduler or --user, not both")
		case tokenScheduler:
			p = domain.Principal{Role: domain.RoleScheduler}
		case tokenUser > 0:
			p = domain.Principal{UserID: tokenUser, Role: domain.RoleUser}
		default:
			return errors.New("pass --scheduler or --user")
		}

		mgr, err := auth.NewJWTManager(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath, cfg.JWTExpiration, logger)
		if err != nil {
			return err
		}
		token, expiresAt, err := mgr.IssueToken(p)
		if err != nil {
			return err
		}
		fmt.Println(token)
		color.New(color.Faint).Printf("expires %s\n", expiresAt.Format("2006-01-02 15:04 MST"))
		return nil
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Write a new Ed25519 key pair as PEM files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.WriteKeyPair(keygenPrivate, keygenPublic); err != nil {
			return err
		}
		color.Green("✓ Wrote %s and %s", keygenPrivate, keygenPublic)
		return nil
	},
}

func init() {
	tokenCmd.Flags().Int64VarP(&tokenUser, "user", "u", 0, "user id for a user token")
	tokenCmd.Flags().BoolVar(&tokenScheduler, "scheduler", false, "mint a scheduler token")

	keygenCmd.Flags().StringVar(&keygenPrivate, "private", "jwt_private.pem", "private key path")
	keygenCmd.Flags().StringVar(&keygenPublic, "public", "jwt_public.pem", "public key path")

	tokenCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(tokenCmd)
}

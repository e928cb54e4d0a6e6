package main

import (
	"errors"
	"fmt"
	"time"

	svc "github.com/krshsl/sensai/backend/services"
	"github.com/spf13/cobra"
)

var (
	tokenSubject string
	tokenEmail   string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for local development",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenSubject == "" {
			return errors.New("--subject is required")
		}
		config := svc.LoadConfig()
		if config.Auth.JWTSecret == "" {
			return errors.New("AUTH_JWT_SECRET environment variable is required")
		}

		auth := svc.NewAuthService(config.Auth.JWTSecret, config.Auth.Issuer)
		token, err := auth.IssueToken(svc.Identity{ExternalID: tokenSubject, Email: tokenEmail}, tokenTTL)
		if err != nil {
			return fmt.Errorf("failed to issue token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "External user ID to put in the sub claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "Email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
	rootCmd.AddCommand(tokenCmd)
}

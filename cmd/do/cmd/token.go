package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gritto/gritto/internal/model"
	"github.com/gritto/gritto/internal/service"
	"github.com/gritto/gritto/internal/validation"
)

func TokenCmd() *cobra.Command {
	var expiry time.Duration

	cmd := &cobra.Command{
		Use:   "token <user-id> <email>",
		Short: "Mint a bearer token for local API calls",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			secret := os.Getenv("JWT_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_SECRET is not set")
			}
			if err := validation.ValidateEmail(args[1]); err != nil {
				return err
			}

			auth := service.NewAuthService(secret, expiry)
			token, err := auth.GenerateJWT(&model.User{ID: args[0], Email: args[1]})
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&expiry, "expiry", 24*time.Hour, "token lifetime")
	return cmd
}

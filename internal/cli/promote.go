package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/database"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

var revoke bool

var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant (or with --revoke, remove) staff access for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		pool, err := database.Connect(cmd.Context(), cfg.DB)
		if err != nil {
			return err
		}
		defer pool.Close()

		return setStaff(cmd.Context(), repository.NewUserRepository(pool), args[0], !revoke, cmd)
	},
}

func init() {
	promoteCmd.Flags().BoolVar(&revoke, "revoke", false, "remove staff access instead of granting it")
	rootCmd.AddCommand(promoteCmd)
}

func setStaff(ctx context.Context, users repository.UserRepository, email string, isStaff bool, cmd *cobra.Command) error {
	if err := users.SetStaff(ctx, email, isStaff); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("no user with email %q", email)
		}
		return err
	}
	verb := "granted"
	if !isStaff {
		verb = "revoked"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "staff access %s for %s\n", verb, email)
	return nil
}

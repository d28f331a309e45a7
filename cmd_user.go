package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg/i18n"
	"github.com/akinalp/pricelist/ws"
)

// cliActor, komut satırından yapılan işlemlerde loglara yazılan kullanıcı.
const cliActor = "cli"

// cliEnv, komut satırı alt komutlarının paylaştığı bağımlılıklar.
// Hub çalıştırılmaz; sunucu ayrı process olduğu için yayınlar kimseye ulaşmaz,
// oturumlar ise depodan silindiği için sunucu tarafında da geçersizleşir.
type cliEnv struct {
	repos    *Repositories
	services *Services
	limiters *RateLimiters
	logger   *zap.Logger
}

func openCLI(ctx context.Context) (*cliEnv, error) {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return nil, err
	}
	if err := i18n.LoadEmbedded(); err != nil {
		return nil, fmt.Errorf("load translations: %w", err)
	}

	repos, err := initRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	svcs, limiters := initServices(repos, ws.NewHub(logger), cfg, logger)
	return &cliEnv{repos: repos, services: svcs, limiters: limiters, logger: logger}, nil
}

func (e *cliEnv) Close() {
	e.services.Close(e.limiters)
	_ = e.repos.Close()
	_ = e.logger.Sync()
}

// withCLI, env'i açıp fn bitince kapatan RunE yardımcısı.
func withCLI(fn func(cmd *cobra.Command, args []string, env *cliEnv) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := openCLI(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()
		return fn(cmd, args, env)
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage dashboard users directly in storage",
	}
	cmd.AddCommand(userCreateCmd(), userListCmd(), userPasswdCmd(), userDeleteCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var password, role string

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create a user",
		Args:  cobra.ExactArgs(1),
		RunE: withCLI(func(cmd *cobra.Command, args []string, env *cliEnv) error {
			user, err := env.services.User.Create(cmd.Context(), &models.CreateUserRequest{
				Username: args[0],
				Password: password,
				Role:     models.Role(role),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Username, user.Role)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "initial password")
	cmd.Flags().StringVarP(&role, "role", "r", string(models.DefaultRole), "role ("+models.RoleNames()+")")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: withCLI(func(cmd *cobra.Command, _ []string, env *cliEnv) error {
			users, err := env.services.User.List(cmd.Context())
			if err != nil {
				return err
			}
			return printUsers(cmd.OutOrStdout(), users)
		}),
	}
}

func printUsers(w io.Writer, users []models.User) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USERNAME\tROLE\tCREATED\tLAST LOGIN")
	for _, u := range users {
		lastLogin := "-"
		if u.LastLogin != nil {
			lastLogin = u.LastLogin.UTC().Format(time.DateTime)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", u.Username, u.Role, u.CreatedAt.UTC().Format(time.DateTime), lastLogin)
	}
	return tw.Flush()
}

func userPasswdCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "passwd <username>",
		Short: "Reset a user's password and close their sessions",
		Args:  cobra.ExactArgs(1),
		RunE: withCLI(func(cmd *cobra.Command, args []string, env *cliEnv) error {
			if err := env.services.User.ResetPassword(cmd.Context(), cliActor, args[0], password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password reset for %s\n", args[0])
			return nil
		}),
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "new password")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <username>",
		Short: "Delete a user and close their sessions",
		Args:  cobra.ExactArgs(1),
		RunE: withCLI(func(cmd *cobra.Command, args []string, env *cliEnv) error {
			if err := env.services.User.Delete(cmd.Context(), cliActor, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		}),
	}
}

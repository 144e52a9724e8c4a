// Package main provides the register binary, which creates a user account
// from the command line.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"user-registration-service/cmd/api/infrastructure"
	"user-registration-service/internal/adapter/client"
	"user-registration-service/internal/adapter/db/postgres"
	"user-registration-service/internal/config"
	"user-registration-service/internal/usecase/auth"
	pkgerrors "user-registration-service/pkg/errors"
	"user-registration-service/pkg/logger"
	"user-registration-service/pkg/security"
)

const usage = "Usage: register <email> <password> [name]"

var errUsage = errors.New(usage)

// Opener builds a registrar and returns a func releasing what it holds.
type Opener func(ctx context.Context) (auth.Usecase, func() error, error)

type userOutput struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr, openFromConfig)
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer, open Opener) int {
	if args == nil {
		args = []string{}
	}

	cmd := newRootCmd(stdout, stderr, open)
	cmd.SetIn(stdin)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errUsage) {
			_, _ = fmt.Fprintln(stdout, usage)
		} else {
			_, _ = fmt.Fprintln(stderr, err)
		}
		return 1
	}
	return 0
}

func newRootCmd(stdout, stderr io.Writer, open Opener) *cobra.Command {
	var (
		serverURL  string
		formChecks bool
	)

	cmd := &cobra.Command{
		Use:   "register <email> <password> [name]",
		Short: "Register a user account",
		Long: `Register creates a user account, hashing the password and recording
a REGISTER activity entry.

A password of "-" is read from standard input, without echo on a terminal.

By default it writes to the configured database directly. With --server it
posts to a running service instead.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 2 || len(args) > 3 || args[0] == "" || args[1] == "" {
				return errUsage
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			email, password := args[0], args[1]
			if password == passwordFromInput {
				var err error
				if password, err = readPasswordInput(cmd.InOrStdin(), stderr); err != nil {
					return err
				}
			}
			var name *string
			if len(args) == 3 && args[2] != "" {
				name = &args[2]
			}

			var (
				out userOutput
				err error
			)
			if serverURL != "" {
				out, err = viaServer(cmd.Context(), serverURL, formChecks, email, password, name)
			} else {
				out, err = direct(cmd.Context(), open, email, password, name)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(stdout, "User registered successfully:")
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.Flags().StringVar(&serverURL, "server", "", "Base URL of a running service, e.g. http://localhost:3000")
	cmd.Flags().BoolVar(&formChecks, "form-checks", false, "With --server, apply the sign-up form password rules first")

	return cmd
}

func direct(ctx context.Context, open Opener, email, password string, name *string) (userOutput, error) {
	uc, release, err := open(ctx)
	if err != nil {
		return userOutput{}, fmt.Errorf("registration error: %w", err)
	}
	defer func() { _ = release() }()

	resp, err := uc.Register(ctx, auth.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Source:   auth.SourceScript,
	})
	if err != nil {
		var internal *pkgerrors.InternalError
		if errors.As(err, &internal) {
			return userOutput{}, fmt.Errorf("registration error: %w", err)
		}
		return userOutput{}, errors.New(pkgerrors.PublicMessage(err))
	}

	return userOutput{
		ID:        resp.User.ID,
		Email:     resp.User.Email,
		Name:      resp.User.Name,
		Role:      resp.User.Role,
		CreatedAt: resp.User.CreatedAt,
		UpdatedAt: resp.User.UpdatedAt,
	}, nil
}

func viaServer(ctx context.Context, baseURL string, formChecks bool, email, password string, name *string) (userOutput, error) {
	var rules security.RuleSet
	if formChecks {
		rules = security.FormRules
	}

	u, err := client.NewRegisterClient(baseURL, nil, rules).Register(ctx, client.Input{
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
		Name:            name,
	})
	if err != nil {
		return userOutput{}, err
	}

	return userOutput{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}

// openFromConfig connects to the database named by app.env and the environment.
func openFromConfig(_ context.Context) (auth.Usecase, func() error, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "."
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}

	// stdout carries the result, so logs go to stderr and stay quiet by default
	l, err := logger.NewWithConfig(logger.Config{
		Level:          "warn",
		Format:         "console",
		OutputPath:     "stderr",
		ServiceName:    "register",
		ServiceVersion: cfg.Logger.ServiceVersion,
		Environment:    cfg.App.Env,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	cfg.Logger.Level = "warn"

	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, nil, err
	}

	uc := auth.New(
		postgres.NewUserRepoPG(db, l),
		postgres.NewActivityLogRepoPG(db, l),
		security.NewBcryptHasher(cfg.Security.BcryptCost),
		security.ParsePolicy(cfg.Security.PasswordPolicy),
		l,
	)

	release := func() error {
		_ = l.Sync()
		return infrastructure.CloseDatabase(db)
	}
	l.Debug("register using database", zap.String("driver", cfg.DB.Driver))
	return uc, release, nil
}

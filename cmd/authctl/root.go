package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"atrium/config"
	"atrium/internal/domain/service"
	"atrium/internal/infra/auth"
	"atrium/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// errMismatch makes verify exit non-zero without printing a usage error.
var errMismatch = errors.New("password does not match")

type configLoader func() (*config.Config, error)

func loadConfig() (*config.Config, error) {
	return config.New()
}

// cli holds what the subcommands share once the configuration is loaded.
type cli struct {
	load   configLoader
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd(load configLoader) *cobra.Command {
	c := &cli{load: load}

	cmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Password hashing and token tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return errors.Wrap(err, "load config")
			}
			c.cfg = cfg
			c.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelWarn}))

			return nil
		},
	}

	cmd.AddCommand(
		c.hashCmd(),
		c.verifyCmd(),
		c.issueCmd(),
		c.inspectCmd(),
	)

	return cmd
}

func (c *cli) tokenService() (service.TokenService, error) {
	tokenCfg, err := auth.NewTokenConfig(c.cfg, c.logger)
	if err != nil {
		return nil, err
	}

	return auth.NewJWTService(tokenCfg, c.logger)
}

func (c *cli) hashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Hash the password read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			hashed, err := auth.NewArgon2Hasher(c.cfg).Hash(password)
			if err != nil {
				return errors.Wrap(err, "hash password")
			}

			fmt.Fprintln(cmd.OutOrStdout(), hashed)

			return nil
		},
	}
}

func (c *cli) verifyCmd() *cobra.Command {
	var storedHash string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the password read from stdin against a stored hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			password, err := readSecret(cmd.InOrStdin())
			if err != nil {
				return err
			}

			hasher := auth.NewArgon2Hasher(c.cfg)
			ok, err := hasher.Verify(password, storedHash)
			if err != nil {
				return errors.Wrap(err, "verify password")
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "mismatch")

				return errMismatch
			}

			fmt.Fprintln(cmd.OutOrStdout(), "match")
			if stale, err := hasher.NeedsRehash(storedHash); err == nil && stale {
				fmt.Fprintln(cmd.ErrOrStderr(), "note: hash parameters are weaker than the configured cost")
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&storedHash, "hash", "", "Stored PHC hash")
	_ = cmd.MarkFlagRequired("hash")

	return cmd
}

func (c *cli) issueCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access and refresh token pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return errors.Wrap(err, "--user-id")
			}

			tokens, err := c.tokenService()
			if err != nil {
				return err
			}

			pair, err := tokens.IssuePair(id, email, role)
			if err != nil {
				return errors.Wrap(err, "issue tokens")
			}

			return writeJSON(cmd.OutOrStdout(), pair)
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "Subject user ID")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&role, "role", "user", "Role claim")
	_ = cmd.MarkFlagRequired("user-id")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (c *cli) inspectCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Validate a token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tokens, err := c.tokenService()
			if err != nil {
				return err
			}

			var (
				claims     any
				registered jwt.RegisteredClaims
			)
			if refresh {
				refreshClaims, err := tokens.ValidateRefresh(args[0])
				if err != nil {
					return errors.Wrap(err, "invalid refresh token")
				}
				claims, registered = refreshClaims, refreshClaims.RegisteredClaims
			} else {
				accessClaims, err := tokens.ValidateAccess(args[0])
				if err != nil {
					return errors.Wrap(err, "invalid access token")
				}
				claims, registered = accessClaims, accessClaims.RegisteredClaims
			}

			if registered.ExpiresAt != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "expires in %s\n", util.FormatTTL(time.Until(registered.ExpiresAt.Time)))
			}

			return writeJSON(cmd.OutOrStdout(), claims)
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "Validate as a refresh token")

	return cmd
}

// readSecret reads the first line of r without its line ending.
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read stdin")
	}

	return strings.TrimRight(line, "\r\n"), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return errors.WithStack(enc.Encode(v))
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mediamorph/internal/api"
	"mediamorph/internal/session"
)

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Create an account on the conversion service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}
			user, err := client.Register(cmd.Context(), args[0], pw)
			if err != nil {
				return errors.New(api.Message(err, "registration failed"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (user #%d)\n", user.Email, user.ID)
			fmt.Fprintln(cmd.OutOrStdout(), "Log in with `mediamorph login` to start uploading.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Authenticate and persist the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}
			pair, err := client.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return errors.New(api.Message(err, "login failed"))
			}
			if err := store.SetPair(pair); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when omitted)")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			if !store.Authenticated() {
				fmt.Fprintln(cmd.OutOrStdout(), "No active session")
				return nil
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Verify the session and show the current account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			user, err := store.Bootstrap(cmd.Context(), client)
			if err != nil {
				if errors.Is(err, session.ErrNotAuthenticated) {
					return errors.New("not logged in; run `mediamorph login` first")
				}
				return errors.New(api.Message(err, "session check failed"))
			}
			if asJSON {
				return writeJSON(cmd, user)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (user #%d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

// newRefreshCommand exchanges the stored refresh token for a new pair. This
// is never done automatically; an expired access token always surfaces to
// the user first.
func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, store, err := ctx.ensureClient()
			if err != nil {
				return err
			}
			refresh := store.RefreshToken()
			if refresh == "" {
				return errors.New("no refresh token stored; run `mediamorph login`")
			}
			pair, err := client.Refresh(cmd.Context(), refresh)
			if err != nil {
				return errors.New(api.Message(err, "refresh failed"))
			}
			if err := store.SetPair(pair); err != nil {
				return fmt.Errorf("persist session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session refreshed")
			return nil
		},
	}
}

func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.OutOrStdout(), "Password: ")
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password required")
	}
	return password, nil
}

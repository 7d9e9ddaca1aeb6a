package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/Yousuf-Basir/sso-server/internal/sso/app"
	"github.com/Yousuf-Basir/sso-server/internal/sso/registry"
	"github.com/Yousuf-Basir/sso-server/pkg/cryptox"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sso",
		Short: "Single sign-on broker for first-party applications",
		Long: `sso holds the primary browser session for a family of applications
and hands each registered client a short-lived grant on request.

Running it without a subcommand starts the server. Configuration is read
from the environment.`,
		Version:       app.BuildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.SetVersionTemplate(`{{printf "sso version %s\n" .Version}}`)

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newClientsCmd(),
		newKeysCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number of sso",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "sso version %s\n", app.BuildVersion)
			},
		},
	)
	return root
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}

func newClientsCmd() *cobra.Command {
	clients := &cobra.Command{
		Use:   "clients",
		Short: "Inspect the client registry",
	}

	var file string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate a clients file and list its entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				file = os.Getenv("SSO_CLIENTS_FILE")
			}
			if file == "" {
				file = "clients.json"
			}

			snap, err := registry.LoadFile(file)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CLIENT ID\tNAME\tREDIRECTS\tORIGINS")
			for _, c := range snap.Clients() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", c.ID, c.Name, len(c.RedirectURLs), len(c.AllowedOrigins))
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d clients OK\n", file, snap.Len())
			return nil
		},
	}
	check.Flags().StringVarP(&file, "file", "f", "", "clients file (default $SSO_CLIENTS_FILE or clients.json)")

	clients.AddCommand(check)
	return clients
}

func newKeysCmd() *cobra.Command {
	keys := &cobra.Command{
		Use:   "keys",
		Short: "Manage signing secrets",
	}
	keys.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Print a random secret suitable for JWT_SECRET_KEY",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := cryptox.GenerateToken(cryptox.TokenSize512)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), secret)
			return nil
		},
	})
	return keys
}

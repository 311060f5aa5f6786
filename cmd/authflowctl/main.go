// Command authflowctl runs the reference identity backend and drives the
// authentication flow controller against it from a terminal.
//
//	authflowctl serve --addr :8080
//	authflowctl signup --name Ada --email ada@example.com --password secret1
//	authflowctl reset request --email ada@example.com
//	authflowctl reset confirm --email ada@example.com --otp 123456 --password n3wpass
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type globalOptions struct {
	server  string
	lang    string
	verbose bool
	metrics bool
}

func (g *globalOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelInfo
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}
	root := &cobra.Command{
		Use:           "authflowctl",
		Short:         "Run and exercise the authflow identity backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.server, "server", "http://127.0.0.1:8080", "identity backend base URL")
	root.PersistentFlags().StringVar(&g.lang, "lang", "", "message language (overrides AUTHFLOW_LANGUAGE)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&g.metrics, "metrics", false, "print controller metrics after the command")

	root.AddCommand(
		newServeCmd(g),
		newSignInCmd(g),
		newSignUpCmd(g),
		newSignOutCmd(g),
		newResetCmd(g),
		newLoadTestCmd(g),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

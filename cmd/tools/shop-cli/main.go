// cmd/tools/shop-cli/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	sessionID string
	noColor   bool
	timeout   time.Duration
	keep      bool
)

var rootCmd = &cobra.Command{
	Use:   "shop-cli",
	Short: "Interactive console for the shopping assistant",
	Long: `shop-cli opens a session on a running shopping assistant and lets you
search, refine, compare and research products from the terminal.`,
	SilenceUsage: true,
	RunE:         runChat,
}

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one message to a new or existing session and print the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&serverURL, "server", "s", "http://localhost:8080", "assistant base URL")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "resume or name a session")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "per-message timeout")
	rootCmd.Flags().BoolVar(&keep, "keep", false, "keep the session on exit")
	rootCmd.AddCommand(askCmd)
}

func openSession(ctx context.Context, client *sessionClient) (string, error) {
	if sessionID != "" {
		if view, err := client.Get(ctx, sessionID); err == nil {
			return view.SessionID, nil
		}
	}
	view, err := client.Create(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return view.SessionID, nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	client := newSessionClient(serverURL, timeout)
	p := newPrinter(cmd.OutOrStdout(), noColor)

	id, err := openSession(ctx, client)
	if err != nil {
		return err
	}
	if !keep && sessionID == "" {
		defer func() { _ = client.Delete(context.Background(), id) }()
	}
	return chat(ctx, client, id, cmd.InOrStdin(), p, timeout)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newSessionClient(serverURL, timeout)
	p := newPrinter(cmd.OutOrStdout(), noColor)

	id, err := openSession(ctx, client)
	if err != nil {
		return err
	}
	resp, err := client.Send(ctx, id, strings.Join(args, " "))
	if err != nil {
		return err
	}
	p.Reply(resp)
	p.Info("session: %s", id)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

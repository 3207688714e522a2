// cmd/tools/shop-cli/chat.go
package main

import (
	"bufio"
	"context"
	"io"
	"strings"
	"time"
)

// chat runs the read-send-print loop until exit or end of input.
func chat(ctx context.Context, client *sessionClient, sessionID string, in io.Reader, p *printer, perMessage time.Duration) error {
	p.Banner(sessionID)

	scanner := bufio.NewScanner(in)
	for {
		p.Prompt()
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			p.Info("Goodbye!")
			return nil
		case "help":
			p.Help()
			continue
		case "reset":
			if _, err := client.Reset(ctx, sessionID); err != nil {
				p.Error("%v", err)
				continue
			}
			p.Info("Conversation reset.")
			continue
		case "history":
			view, err := client.Get(ctx, sessionID)
			if err != nil {
				p.Error("%v", err)
				continue
			}
			p.History(view.History)
			continue
		}

		msgCtx, cancel := context.WithTimeout(ctx, perMessage)
		resp, err := client.Send(msgCtx, sessionID, line)
		cancel()
		if err != nil {
			p.Error("%v", err)
			continue
		}
		p.Reply(resp)
	}
}

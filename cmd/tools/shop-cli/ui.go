// cmd/tools/shop-cli/ui.go
package main

import (
	"fmt"
	"io"
	"strings"

	"shopping-assistant/internal/models"

	"github.com/fatih/color"
)

// printer writes console output, coloured unless disabled.
type printer struct {
	out       io.Writer
	user      *color.Color
	assistant *color.Color
	info      *color.Color
	errColor  *color.Color
}

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:       out,
		user:      color.New(color.FgCyan, color.Bold),
		assistant: color.New(color.FgGreen),
		info:      color.New(color.FgYellow),
		errColor:  color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.user, p.assistant, p.info, p.errColor} {
			c.DisableColor()
		}
	}
	return p
}

func (p *printer) Banner(sessionID string) {
	p.info.Fprintln(p.out, "Shopping assistant")
	p.info.Fprintf(p.out, "Session %s. Type 'help' for commands.\n\n", sessionID)
}

func (p *printer) Prompt() {
	p.user.Fprint(p.out, "You: ")
}

func (p *printer) Reply(resp *models.Response) {
	p.assistant.Fprintf(p.out, "Assistant: %s\n\n", resp.Message)
}

func (p *printer) Info(format string, args ...interface{}) {
	p.info.Fprintf(p.out, format+"\n", args...)
}

func (p *printer) Error(format string, args ...interface{}) {
	p.errColor.Fprintf(p.out, "Error: "+format+"\n", args...)
}

func (p *printer) Help() {
	p.info.Fprintln(p.out, strings.Join([]string{
		"Commands:",
		"  help     show this message",
		"  reset    start the conversation over",
		"  history  show the conversation so far",
		"  exit     leave (also: quit)",
		"Anything else is sent to the assistant, e.g. \"wireless headphones under $200 with prime\".",
	}, "\n"))
}

func (p *printer) History(history []models.Message) {
	if len(history) == 0 {
		p.Info("No messages yet.")
		return
	}
	for _, m := range history {
		switch m.Role {
		case models.RoleUser:
			p.user.Fprintf(p.out, "You: %s\n", m.Content)
		default:
			p.assistant.Fprintf(p.out, "Assistant: %s\n", m.Content)
		}
	}
	fmt.Fprintln(p.out)
}

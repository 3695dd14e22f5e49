package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/promptveil/promptveil/internal/mediator"
)

var (
	replyTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
	replyDimStyle   = lipgloss.NewStyle().Faint(true)
)

// termReply shows captured assistant replies on the terminal and lets
// the user pull one back into the input surface.
type termReply struct {
	in  *bufio.Reader
	out io.Writer
}

func newTermReply(in io.Reader, out io.Writer) *termReply {
	return &termReply{in: bufio.NewReader(in), out: out}
}

func (t *termReply) Show(ctx context.Context, rc mediator.ReplyContext) (mediator.ReplyAction, error) {
	fmt.Fprintln(t.out, replyTitleStyle.Render("promptveil — reply captured"))
	fmt.Fprintln(t.out, rc.Answer)
	if len(rc.Types) > 0 {
		fmt.Fprintln(t.out, replyDimStyle.Render("prompt redactions: "+strings.Join(rc.Types, ", ")))
	}
	for {
		if err := ctx.Err(); err != nil {
			return mediator.ActionClose, err
		}
		fmt.Fprint(t.out, "[i]nsert into input / [enter] close > ")
		line, err := t.in.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return mediator.ActionClose, nil
			}
			return mediator.ActionClose, err
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "i", "insert":
			return mediator.ActionInsert, nil
		case "":
			return mediator.ActionClose, nil
		}
	}
}

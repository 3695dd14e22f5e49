package fakepage

import "strings"

// NewChat builds a document shaped like the chat hosts the selector
// cascade targets: a form with a prompt textarea, a send button, a file
// input, and a conversation container for turns.
func NewChat() *Doc {
	d := New()
	form := d.Append(d.root, d.NewNode("form"))
	input := d.NewNode("textarea",
		"data-testid", "prompt-textarea",
		"aria-label", "Message input",
	)
	d.Append(form, input)
	send := d.NewNode("button",
		"data-testid", "send-button",
		"aria-label", "Send prompt",
	)
	d.Append(form, send)
	file := d.NewNode("input", "type", "file")
	d.Append(form, file)
	conv := d.NewNode("div", "data-testid", "conversation")
	d.Append(d.root, conv)
	d.Focus(input)
	return d
}

// PromptInput returns the chat document's textarea.
func (d *Doc) PromptInput() *Node {
	el := d.Find("textarea[data-testid='prompt-textarea']")
	if el == nil {
		return nil
	}
	return el.(*Node)
}

// SendButton returns the chat document's send control.
func (d *Doc) SendButton() *Node {
	el := d.Find("button[data-testid='send-button']")
	if el == nil {
		return nil
	}
	return el.(*Node)
}

// FileInput returns the chat document's attachment input.
func (d *Doc) FileInput() *Node {
	el := d.Find("input[type='file']")
	if el == nil {
		return nil
	}
	return el.(*Node)
}

// BeginAssistantTurn appends an empty assistant turn and returns its
// body node. The insertion is observable as a child-list mutation.
func (d *Doc) BeginAssistantTurn() *Node {
	conv := d.Find("[data-testid='conversation']")
	parent := d.root
	if conv != nil {
		parent = conv.(*Node)
	}
	turn := d.NewNode("div",
		"data-testid", "conversation-turn",
		"data-message-author-role", "assistant",
	)
	body := d.NewNode("div", "class", "markdown prose")
	turn.children = append(turn.children, body)
	body.parent = turn
	d.Append(parent, turn)
	return body
}

// StreamAssistant grows the assistant body chunk by chunk, emitting a
// character-data mutation per chunk, the way a streamed reply renders.
func (d *Doc) StreamAssistant(body *Node, text string, chunks int) {
	if chunks < 1 {
		chunks = 1
	}
	runes := []rune(text)
	per := (len(runes) + chunks - 1) / chunks
	var b strings.Builder
	for i := 0; i < len(runes); i += per {
		end := i + per
		if end > len(runes) {
			end = len(runes)
		}
		b.WriteString(string(runes[i:end]))
		d.SetText(body, b.String())
	}
}

package locator

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Selectors holds the prioritized selector lists for every surface the
// mediation layer has to find. Host-specific markup knowledge lives
// here, not in code, so a host redesign is a config edit.
type Selectors struct {
	Input           []string `yaml:"input"`
	SendControl     []string `yaml:"send_control"`
	AttachmentInput []string `yaml:"attachment_input"`
	AttachmentChip  []string `yaml:"attachment_chip"`
	AssistantTurn   []string `yaml:"assistant_turn"`
	AssistantBody   []string `yaml:"assistant_body"`
	UserTurn        []string `yaml:"user_turn"`
}

// DefaultSelectors returns the builtin cascade for the supported chat
// hosts.
func DefaultSelectors() *Selectors {
	return &Selectors{
		Input: []string{
			`textarea[aria-label][data-testid="prompt-textarea"]`,
			`form textarea`,
			`textarea:not([style*='display: none'])`,
			`[role="textbox"][contenteditable="true"]`,
			`div[contenteditable="true"]`,
		},
		SendControl: []string{
			`button[data-testid="send-button"]`,
			`[data-testid="send-button"] button`,
			`button[aria-label="Send prompt"]`,
			`button[aria-label="Send"]`,
			`form button[type="submit"]`,
		},
		AttachmentInput: []string{
			`input[type="file"]`,
		},
		AttachmentChip: []string{
			`[data-testid="attachment-chip"]`,
			`[data-testid="file-chip"]`,
		},
		AssistantTurn: []string{
			`[data-testid="conversation-turn"][data-message-author-role="assistant"]`,
			`[data-message-author-role="assistant"]`,
		},
		AssistantBody: []string{
			`.markdown.prose`,
			`.prose`,
			`[data-testid="assistant-turn"]`,
		},
		UserTurn: []string{
			`[data-testid="conversation-turn"][data-message-author-role="user"]`,
			`[data-message-author-role="user"]`,
		},
	}
}

// DefaultPath returns the default selectors config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".promptveil", "selectors.yaml")
}

// Load reads a selectors file. If path is empty the default location is
// tried; a missing file yields the builtin cascade, not an error. Lists
// present in the file replace the builtin list for that surface; absent
// lists keep the builtin.
func Load(path string) (*Selectors, error) {
	if path == "" {
		path = DefaultPath()
	}
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sel, nil
		}
		return nil, fmt.Errorf("failed to read selectors config: %w", err)
	}

	var file Selectors
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse selectors config: %w", err)
	}

	merge := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	merge(&sel.Input, file.Input)
	merge(&sel.SendControl, file.SendControl)
	merge(&sel.AttachmentInput, file.AttachmentInput)
	merge(&sel.AttachmentChip, file.AttachmentChip)
	merge(&sel.AssistantTurn, file.AssistantTurn)
	merge(&sel.AssistantBody, file.AssistantBody)
	merge(&sel.UserTurn, file.UserTurn)
	return sel, nil
}

package locator

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileYieldsBuiltins(t *testing.T) {
	sel, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultSelectors()
	if len(sel.Input) != len(def.Input) || sel.Input[0] != def.Input[0] {
		t.Fatal("missing file should load the builtin cascade")
	}
}

func TestLoadMergesPerSurface(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	content := `
input:
  - "div#my-editor"
send_control:
  - "button.my-send"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	sel, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(sel.Input) != 1 || sel.Input[0] != "div#my-editor" {
		t.Fatalf("Input = %v", sel.Input)
	}
	if len(sel.SendControl) != 1 || sel.SendControl[0] != "button.my-send" {
		t.Fatalf("SendControl = %v", sel.SendControl)
	}
	// Surfaces absent from the file keep their builtin lists.
	def := DefaultSelectors()
	if len(sel.AssistantTurn) != len(def.AssistantTurn) {
		t.Fatalf("AssistantTurn should stay builtin, got %v", sel.AssistantTurn)
	}
	if len(sel.AttachmentInput) != len(def.AttachmentInput) {
		t.Fatalf("AttachmentInput should stay builtin, got %v", sel.AttachmentInput)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	if err := os.WriteFile(path, []byte("input: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("invalid YAML should be an error, not a silent fallback")
	}
}

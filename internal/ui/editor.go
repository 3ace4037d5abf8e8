package ui

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/jroimartin/gocui"
)

// singleLineEditor is an editor that doesn't consume Enter (lets keybinding handle it)
type singleLineEditor struct{}

func (e singleLineEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	switch {
	case key == gocui.KeyBackspace || key == gocui.KeyBackspace2:
		v.EditDelete(true)
	case key == gocui.KeyDelete:
		v.EditDelete(false)
	case key == gocui.KeyArrowLeft:
		v.MoveCursor(-1, 0, false)
	case key == gocui.KeyArrowRight:
		v.MoveCursor(1, 0, false)
	case key == gocui.KeyHome || key == gocui.KeyCtrlA:
		v.SetCursor(0, 0)
	case key == gocui.KeyEnd || key == gocui.KeyCtrlE:
		line := v.Buffer()
		v.SetCursor(len(line)-1, 0)
	case key == gocui.KeyEnter:
		// don't handle - let keybinding process it
	case key == gocui.KeySpace:
		v.EditWrite(' ')
	case ch != 0 && mod == 0:
		v.EditWrite(ch)
	}
}

// bodyEditor is the multi-line request body editor. Every keystroke is
// copied into the explorer so a send always sees what is on screen.
type bodyEditor struct {
	a *App
}

func (e bodyEditor) Edit(v *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) {
	gocui.DefaultEditor.Edit(v, key, ch, mod)
	e.a.ex.SetBody(viewText(v))
}

func (a *App) runExternalEditor(file string) error {
	editor := strings.TrimSpace(a.editor)
	if editor == "" {
		editor = strings.TrimSpace(os.Getenv("EDITOR"))
	}
	if editor == "" {
		editor = "vi"
	}

	args := splitCommand(editor)
	cmd := exec.Command(args[0], append(args[1:], file)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		_ = os.Remove(file)
		return fmt.Errorf("editor %s: %w", args[0], err)
	}

	b, err := os.ReadFile(file)
	_ = os.Remove(file)
	if err != nil {
		return err
	}

	// The body goes out verbatim; only the newline editors append is dropped.
	a.ex.SetBody(trimEditorNewline(string(b)))
	a.bodyDirty = true
	return nil
}

func trimEditorNewline(s string) string {
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r")
}

func splitCommand(s string) []string {
	// Minimal shell-like splitting: whitespace, no quotes/escapes.
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return []string{"vi"}
	}
	return fields
}

func viewText(v *gocui.View) string {
	b := v.Buffer()
	// gocui includes a trailing newline
	return strings.TrimSuffix(b, "\n")
}

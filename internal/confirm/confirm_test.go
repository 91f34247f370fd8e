package confirm

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModelUpdateYesAnswers(t *testing.T) {
	m := model{prompt: "remove empty dir?"}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	nm := next.(model)
	if !nm.answered || !nm.yes {
		t.Errorf("Update('y') = %+v, want answered=true yes=true", nm)
	}
	if cmd == nil {
		t.Error("Update('y') cmd = nil, want tea.Quit")
	}
}

func TestModelUpdateNoAnswers(t *testing.T) {
	m := model{prompt: "remove empty dir?"}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("n")})
	nm := next.(model)
	if !nm.answered || nm.yes {
		t.Errorf("Update('n') = %+v, want answered=true yes=false", nm)
	}
}

func TestModelUpdateEnterDefaultsYes(t *testing.T) {
	m := model{prompt: "remove empty dir?"}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	nm := next.(model)
	if !nm.answered || !nm.yes {
		t.Errorf("Update(enter) = %+v, want answered=true yes=true", nm)
	}
}

func TestModelUpdateIgnoresUnrelatedKeys(t *testing.T) {
	m := model{prompt: "remove empty dir?"}
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	nm := next.(model)
	if nm.answered {
		t.Error("Update('x') answered a prompt, want it to be ignored")
	}
	if cmd != nil {
		t.Error("Update('x') cmd != nil, want no command for an unrelated key")
	}
}

func TestConfirmAutoShortCircuitsWithoutRenderingUI(t *testing.T) {
	yes := true
	p := &Prompter{Auto: &yes}
	if !p.Confirm("anything") {
		t.Error("Confirm() = false, want true when Auto is set to true")
	}

	no := false
	p = &Prompter{Auto: &no}
	if p.Confirm("anything") {
		t.Error("Confirm() = true, want false when Auto is set to false")
	}
}

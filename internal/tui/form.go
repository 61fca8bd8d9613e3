package tui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mobil-koeln/tickets/internal/models"
)

const (
	fieldNames = iota
	fieldLocation
	fieldIssue
	fieldCount
)

var fieldLabels = [fieldCount]string{"Names", "Location", "Issue"}

// form is the create/edit form: one text input per ticket field.
type form struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newForm(initial models.Fields) form {
	var f form
	values := [fieldCount]string{initial.Names, initial.Location, initial.Issue}
	placeholders := [fieldCount]string{"Who reported it", "Building / room", "What is wrong"}

	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 200
		ti.Width = 48
		ti.SetValue(values[i])
		f.inputs[i] = ti
	}
	f.inputs[fieldNames].Focus()
	return f
}

// fields returns the current input values.
func (f form) fields() models.Fields {
	return models.Fields{
		Names:    f.inputs[fieldNames].Value(),
		Location: f.inputs[fieldLocation].Value(),
		Issue:    f.inputs[fieldIssue].Value(),
	}
}

func (f form) onLastField() bool {
	return f.focus == fieldCount-1
}

// move shifts focus by delta, wrapping around.
func (f form) move(delta int) form {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
	return f
}

// update forwards msg to the focused input.
func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f form) view(pending bool) string {
	var b strings.Builder
	for i, in := range f.inputs {
		label := styleLabel.Render(padRight(fieldLabels[i]+":", 10))
		if i == f.focus {
			label = styleLabelFocused.Render(padRight(fieldLabels[i]+":", 10))
		}
		b.WriteString(" " + label + in.View() + "\n")
	}
	b.WriteString("\n")

	switch {
	case pending:
		b.WriteString(styleLoading.Render(" Saving..."))
	case f.err != "":
		b.WriteString(styleError.Render(" " + f.err))
	}
	return b.String()
}

func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

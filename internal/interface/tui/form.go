package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/neilberkman/leadrider/internal/core/models"
)

// formField is one input. key is the wire name so validation messages line up.
type formField struct {
	key     string
	label   string
	input   textinput.Model
	options []string // cycled with ←/→ instead of typed
}

// form is a vertical stack of inputs with per-field errors.
type form struct {
	title      string
	fields     []formField
	focus      int
	fieldErrs  *models.ValidationError
	err        string
	submitting bool
}

func textField(key, label, placeholder, value string) formField {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = 40
	ti.SetValue(value)
	return formField{key: key, label: label, input: ti}
}

func passwordField(key, label string) formField {
	f := textField(key, label, "", "")
	f.input.EchoMode = textinput.EchoPassword
	f.input.EchoCharacter = '•'
	return f
}

func choiceField(key, label string, options []string, value string) formField {
	f := textField(key, label, "", value)
	if value == "" && len(options) > 0 {
		f.input.SetValue(options[0])
	}
	f.options = options
	return f
}

func newForm(title string, fields ...formField) form {
	f := form{title: title, fields: fields}
	if len(f.fields) > 0 {
		f.fields[0].input.Focus()
	}
	return f
}

func (f form) value(key string) string {
	return strings.TrimSpace(f.raw(key))
}

// raw is the untrimmed input, for passwords.
func (f form) raw(key string) string {
	for _, fld := range f.fields {
		if fld.key == key {
			return fld.input.Value()
		}
	}
	return ""
}

func (f *form) setFocus(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.fields[f.focus].input.Blur()
	f.focus = i
	return f.fields[i].input.Focus()
}

// setError records a failed submit: field rules go next to their inputs,
// anything else is shown under the form.
func (f *form) setError(err error, fallback func(error) string) {
	f.submitting = false
	f.fieldErrs = nil
	f.err = ""
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		f.fieldErrs = verr
		return
	}
	f.err = fallback(err)
}

func (f *form) clearErrors() {
	f.fieldErrs = nil
	f.err = ""
}

// update handles one key. submit is true when the user asked to submit.
func (f form) update(msg tea.KeyMsg) (form, tea.Cmd, bool) {
	if f.submitting {
		return f, nil, false
	}

	switch msg.String() {
	case "tab", "down":
		return f, f.setFocus(f.focus + 1), false
	case "shift+tab", "up":
		return f, f.setFocus(f.focus - 1), false
	case "ctrl+s":
		return f, nil, true
	case "enter":
		if f.focus == len(f.fields)-1 {
			return f, nil, true
		}
		return f, f.setFocus(f.focus + 1), false
	}

	cur := &f.fields[f.focus]
	if len(cur.options) > 0 {
		switch msg.String() {
		case "left", "right", " ":
			cur.input.SetValue(cycle(cur.options, cur.input.Value(), msg.String() == "left"))
		}
		return f, nil, false
	}

	var cmd tea.Cmd
	cur.input, cmd = cur.input.Update(msg)
	return f, cmd, false
}

func cycle(options []string, current string, back bool) string {
	idx := 0
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	if back {
		idx--
	} else {
		idx++
	}
	idx = (idx + len(options)) % len(options)
	return options[idx]
}

func (f form) view() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(f.title) + "\n\n")

	for i, fld := range f.fields {
		label := labelStyle.Render(fld.label)
		if i == f.focus {
			label = focusedLabelStyle.Render(fld.label)
		}
		input := fld.input.View()
		if len(fld.options) > 0 {
			input = "‹ " + fld.input.Value() + " ›"
		}
		b.WriteString(label + input + "\n")
		if f.fieldErrs != nil {
			if msg := f.fieldErrs.For(fld.key); msg != "" {
				b.WriteString(labelStyle.Render("") + errorStyle.Render(msg) + "\n")
			}
		}
	}

	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(subtitleStyle.Render("Working...") + "\n")
	case f.err != "":
		b.WriteString(errorStyle.Render(f.err) + "\n")
	}
	return b.String()
}

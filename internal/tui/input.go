package tui

import "strings"

// field is a minimal single-line text input. Cursor is always at the
// end; the credential fields never need mid-string editing.
type field struct {
	label       string
	value       string
	masked      bool
	placeholder string
}

func (f *field) insert(runes []rune) {
	if len(runes) == 0 {
		f.value += " "
		return
	}
	f.value += string(runes)
}

func (f *field) backspace() {
	if f.value == "" {
		return
	}
	r := []rune(f.value)
	f.value = string(r[:len(r)-1])
}

func (f field) display(focused bool) string {
	text := f.value
	if f.masked && text != "" {
		text = strings.Repeat("•", len([]rune(text)))
	}
	if text == "" && f.placeholder != "" {
		text = dimStyle.Render(f.placeholder)
	} else {
		text = valueStyle.Render(text)
	}
	if focused {
		text += selectedStyle.Render("▌")
	}
	return text
}

package maillist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/webmail/internal/model"
	"github.com/nhle/webmail/internal/theme"
)

// fromWidth is the fixed column width for the sender address.
const fromWidth = 28

// EmailItem wraps a model.Email so it can be used in a bubbles/list.
type EmailItem struct {
	Email model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (i EmailItem) FilterValue() string {
	return i.Email.Subject + " " + i.Email.From
}

// Title returns the email subject for the list.
func (i EmailItem) Title() string { return i.Email.Subject }

// Description returns the sender line for the list.
func (i EmailItem) Description() string { return i.Email.From }

// ItemDelegate implements list.ItemDelegate for rendering email rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single email row: star marker, sender, subject.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ei, ok := item.(EmailItem)
	if !ok {
		return
	}

	star := " "
	if ei.Email.Starred {
		star = theme.StarStyle.Render("★")
	}

	from := padRight(ei.Email.From, fromWidth)

	subject := ei.Email.Subject
	if subject == "" {
		subject = "(no subject)"
	}

	line := fmt.Sprintf("%s %s  %s", star, from, subject)

	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// padRight truncates or pads s to exactly width runes.
func padRight(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width-1]) + "…"
	}
	return s + strings.Repeat(" ", width-len(runes))
}

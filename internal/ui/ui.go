// Package ui holds the terminal rendering helpers shared by the CLI
// commands: status glyphs, accent styling, and the snippet tree view.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/snipvault/snipvault/internal/record"
	"github.com/snipvault/snipvault/internal/tree"
)

var (
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	folderStyle = lipgloss.NewStyle().Bold(true)
)

// colorEnabled reports whether the terminal supports color output.
func colorEnabled() bool {
	return termenv.DefaultOutput().Profile != termenv.Ascii
}

func render(style lipgloss.Style, glyph, msg string) string {
	if !colorEnabled() {
		return glyph + " " + msg
	}
	return style.Render(glyph) + " " + msg
}

// Pass formats a success line.
func Pass(format string, args ...any) string {
	return render(passStyle, "✓", fmt.Sprintf(format, args...))
}

// Warn formats a warning line.
func Warn(format string, args ...any) string {
	return render(warnStyle, "!", fmt.Sprintf(format, args...))
}

// Fail formats a failure line.
func Fail(format string, args ...any) string {
	return render(failStyle, "✗", fmt.Sprintf(format, args...))
}

// Accent highlights an identifier or path inside normal output.
func Accent(s string) string {
	if !colorEnabled() {
		return s
	}
	return accentStyle.Render(s)
}

// Dim de-emphasizes secondary detail like ids and timestamps.
func Dim(s string) string {
	if !colorEnabled() {
		return s
	}
	return dimStyle.Render(s)
}

// RenderTree writes the folder hierarchy with nested snippets, rooted
// at the tree's top-level folders.
func RenderTree(t *tree.Tree) string {
	var b strings.Builder
	for _, f := range t.Roots() {
		renderFolder(&b, t, f, 0)
	}
	if b.Len() == 0 {
		return "(no folders)\n"
	}
	return b.String()
}

func renderFolder(b *strings.Builder, t *tree.Tree, f record.Folder, depth int) {
	indent := strings.Repeat("  ", depth)
	name := f.Name
	if colorEnabled() {
		name = folderStyle.Render(name)
	}
	fmt.Fprintf(b, "%s%s/  %s\n", indent, name, Dim(ShortID(f.ID)))

	for _, s := range t.ChildSnippets(f.ID) {
		fmt.Fprintf(b, "%s  %s  %s\n", indent, s.Name, Dim(ShortID(s.ID)+" "+s.Language))
	}
	for _, child := range t.ChildFolders(f.ID) {
		renderFolder(b, t, child, depth+1)
	}
}

// ShortID abbreviates a uuid for display.
func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

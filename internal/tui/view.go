package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"sciv/internal/analysis"
	"sciv/internal/viewer"
)

// View implements tea.Model
func (m *Model) View() string {
	st := m.viewer.Status()

	var sb strings.Builder
	if st.ShowHelp {
		sb.WriteString(m.renderHelp())
		sb.WriteString("\n")
	}
	if st.ShowInfo {
		sb.WriteString(m.renderInfo(st))
		sb.WriteString("\n")
	}
	sb.WriteString(m.renderStatus(st))
	sb.WriteString("\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

// renderStatus draws "index/count  name  size  age  order  pending".
func (m *Model) renderStatus(st viewer.Status) string {
	if !st.HasCurrent {
		msg := "No images in " + m.viewer.Collection().Directory()
		return m.styles.Bar.Render(m.styles.Warning.Render(msg))
	}

	parts := []string{
		m.styles.Index.Render(fmt.Sprintf("%d/%d", st.Index, st.Count)),
		m.styles.Name.Render(st.Current.Name()),
	}
	if m.info != nil && m.infoKey == st.Current.Key() {
		parts = append(parts, m.styles.Detail.Render(humanize.Bytes(uint64(m.info.Size))))
	}
	parts = append(parts,
		m.styles.Detail.Render(humanize.Time(st.Current.ModTime)),
		m.styles.Order.Render(st.Order.String()),
	)
	if st.Slideshow {
		parts = append(parts, m.styles.Order.Render(m.spinner.View()+"slideshow"))
	}
	if st.Watching {
		parts = append(parts, m.styles.Detail.Render("watching"))
	}
	if st.Pending != "" {
		parts = append(parts, m.styles.Pending.Render("["+st.Pending+"]"))
	}
	return m.styles.Bar.Render(strings.Join(parts, "  "))
}

// renderInfo draws the details of the current image.
func (m *Model) renderInfo(st viewer.Status) string {
	if !st.HasCurrent {
		return ""
	}
	if m.infoErr != nil && m.infoKey == st.Current.Key() {
		return m.styles.Info.Render(m.styles.Error.Render(m.infoErr.Error()))
	}
	if m.info == nil || m.infoKey != st.Current.Key() {
		return m.styles.Info.Render("reading " + st.Current.Name() + "...")
	}
	return m.styles.Info.Render(describe(m.info))
}

func describe(info *analysis.Info) string {
	parts := []string{info.Path, info.ContentType}
	if info.HasDimensions() {
		parts = append(parts, fmt.Sprintf("%dx%d", info.Width, info.Height))
	}
	parts = append(parts, humanize.Comma(info.Size)+" bytes")
	if v := info.Metadata[analysis.CameraModel]; v != "" {
		parts = append(parts, v)
	}
	if v := info.Metadata[analysis.DateTimeOriginal]; v != "" {
		parts = append(parts, "taken "+v)
	}
	return strings.Join(parts, "  ")
}

// renderHelp lists every binding next to the host keys.
func (m *Model) renderHelp() string {
	bindings := m.viewer.Bindings()
	width := 0
	for _, b := range bindings {
		width = max(width, lipgloss.Width(b.Keys))
	}

	var sb strings.Builder
	for i, b := range bindings {
		if i > 0 {
			sb.WriteString("\n")
		}
		keys := m.styles.HelpKey.Render(b.Keys + strings.Repeat(" ", width-lipgloss.Width(b.Keys)))
		sb.WriteString(keys + "  " + m.styles.Help.Render(b.Action))
	}
	sb.WriteString("\n\n")
	sb.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	return m.styles.Frame.Render(sb.String())
}

package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
	"github.com/goutamreddy/fractal/pkg/render"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listErrorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// Editor rows.
const (
	rowCopies = iota
	rowScale
	rowInternalRotation
	rowTranslation
	rowExternalRotation
	rowRecursive
	rowComponents
	rowCount
)

// maxEditorCopies bounds the copy count reachable with the arrow keys.
const maxEditorCopies = 100

// =============================================================================
// SpecEditor - Interactive pattern configuration
// =============================================================================

// SpecEditor is the bubbletea model for editing a spec before planning.
// It mirrors a pattern dialog: stage toggles, modes, copy count and
// per-stage reset. Base transforms come from the configuration file.
type SpecEditor struct {
	Spec      planner.Spec
	Cursor    int
	Done      bool
	Cancelled bool
	Err       string
}

// NewSpecEditor creates an editor for spec.
func NewSpecEditor(spec planner.Spec) SpecEditor {
	return SpecEditor{Spec: spec}
}

func (m SpecEditor) Init() tea.Cmd {
	return nil
}

func (m SpecEditor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.Err = ""
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < rowCount-1 {
			m.Cursor++
		}
	case " ", "x":
		m.toggle()
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(1)
	case "r":
		m.reset()
	case "enter":
		if err := m.Spec.Validate(); err != nil {
			m.Err = errors.UserMessage(err)
			return m, nil
		}
		m.Done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *SpecEditor) toggle() {
	s := &m.Spec
	switch m.Cursor {
	case rowScale:
		s.Scale.Enabled = !s.Scale.Enabled
	case rowInternalRotation:
		s.InternalRotation.Enabled = !s.InternalRotation.Enabled
	case rowTranslation:
		s.Translation.Enabled = !s.Translation.Enabled
	case rowExternalRotation:
		s.ExternalRotation.Enabled = !s.ExternalRotation.Enabled
	case rowRecursive:
		s.ApplyRecursively = !s.ApplyRecursively
	case rowComponents:
		s.CreateComponents = !s.CreateComponents
	}
}

// adjust changes the copy count or cycles the mode of a stage row.
func (m *SpecEditor) adjust(delta int) {
	s := &m.Spec
	switch m.Cursor {
	case rowCopies:
		s.NumCopies = min(max(s.NumCopies+delta, 0), maxEditorCopies)
	case rowScale:
		s.Scale.Mode = cycleMode(s.Scale.Mode, delta, false)
	case rowInternalRotation:
		s.InternalRotation.Mode = cycleMode(s.InternalRotation.Mode, delta, false)
	case rowTranslation:
		s.Translation.Mode = cycleMode(s.Translation.Mode, delta, true)
	case rowExternalRotation:
		s.ExternalRotation.Mode = cycleMode(s.ExternalRotation.Mode, delta, false)
	}
}

func cycleMode(mode planner.Mode, delta int, withScale bool) planner.Mode {
	modes := []planner.Mode{planner.ModeConstant, planner.ModeCompound}
	if withScale {
		modes = append(modes, planner.ModeCompoundWithScale)
	}
	idx := 0
	for i, m := range modes {
		if m == mode {
			idx = i
		}
	}
	idx = (idx + delta + len(modes)) % len(modes)
	return modes[idx]
}

func (m *SpecEditor) reset() {
	stage, ok := rowStage(m.Cursor)
	if !ok {
		return
	}
	session, err := planner.Configure(m.Spec)
	if err != nil {
		m.Err = errors.UserMessage(err)
		return
	}
	if err := session.Reset(stage); err != nil {
		m.Err = errors.UserMessage(err)
		return
	}
	m.Spec = session.Spec()
}

func rowStage(row int) (planner.Stage, bool) {
	switch row {
	case rowScale:
		return planner.StageScale, true
	case rowInternalRotation:
		return planner.StageInternalRotation, true
	case rowTranslation:
		return planner.StageTranslation, true
	case rowExternalRotation:
		return planner.StageExternalRotation, true
	}
	return "", false
}

func (m SpecEditor) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Pattern"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ←/→ change  r reset  ⏎ plan  q quit"))
	b.WriteString("\n\n")

	for row := 0; row < rowCount; row++ {
		label, value := m.row(row)
		line := fmt.Sprintf("%-20s %s", label, value)
		if row == m.Cursor {
			b.WriteString(listSelectedStyle.Render("▸ " + line))
		} else {
			b.WriteString(listNormalStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}

	if m.Err != "" {
		b.WriteString("\n")
		b.WriteString(listErrorStyle.Render(iconError + " " + m.Err))
		b.WriteString("\n")
	}
	return b.String()
}

func (m SpecEditor) row(row int) (label, value string) {
	s := m.Spec
	switch row {
	case rowCopies:
		return "copies", StyleHighlight.Render(strconv.Itoa(s.NumCopies))
	case rowScale:
		f := s.Scale.Scale.Factors()
		return "scale", stageValue(s.Scale.Enabled, s.Scale.Mode,
			fmt.Sprintf("x(%g, %g, %g)", f.X, f.Y, f.Z))
	case rowInternalRotation:
		return "internal rotation", stageValue(s.InternalRotation.Enabled, s.InternalRotation.Mode,
			baseSummary(planner.StageInternalRotation, s.InternalRotation.Base))
	case rowTranslation:
		return "translation", stageValue(s.Translation.Enabled, s.Translation.Mode,
			baseSummary(planner.StageTranslation, s.Translation.Base))
	case rowExternalRotation:
		return "external rotation", stageValue(s.ExternalRotation.Enabled, s.ExternalRotation.Mode,
			baseSummary(planner.StageExternalRotation, s.ExternalRotation.Base))
	case rowRecursive:
		return "apply recursively", checkbox(s.ApplyRecursively)
	case rowComponents:
		return "create components", checkbox(s.CreateComponents)
	}
	return "", ""
}

func baseSummary(stage planner.Stage, base affine.Transform) string {
	return render.Summary(planner.Step{Stage: stage, Transform: base})
}

func stageValue(enabled bool, mode planner.Mode, summary string) string {
	if mode == "" {
		mode = planner.ModeConstant
	}
	return checkbox(enabled) + " " + listDimStyle.Render(fmt.Sprintf("%-20s", mode)) + " " + summary
}

func checkbox(on bool) string {
	if on {
		return styleIconSuccess.Render("[" + iconSuccess + "]")
	}
	return listDimStyle.Render("[ ]")
}

// editSpec runs the editor and returns the edited spec. ok is false when
// the user quit without accepting.
func editSpec(spec planner.Spec) (planner.Spec, bool, error) {
	final, err := tea.NewProgram(NewSpecEditor(spec)).Run()
	if err != nil {
		return spec, false, fmt.Errorf("run editor: %w", err)
	}
	m := final.(SpecEditor)
	if m.Cancelled || !m.Done {
		return spec, false, nil
	}
	return m.Spec, true, nil
}

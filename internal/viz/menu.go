package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/chainsim/internal/config"
)

type entry struct {
	system, variant string
}

// Menu lists the presets and launches a live Model for the chosen one.
type Menu struct {
	entries []entry
	cursor  int
	live    *Model
	theme   Theme
	err     error
}

func NewMenu() Menu {
	var entries []entry
	for _, sys := range config.ListSystems() {
		for _, v := range config.ListPresets(sys) {
			entries = append(entries, entry{sys, v})
		}
	}
	return Menu{entries: entries, theme: Themes[0]}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.live != nil {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.live = nil
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		live := next.(Model)
		m.live = &live
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.entries)-1)
	case "t":
		m.theme = nextTheme(m.theme)
	case "enter":
		if len(m.entries) == 0 {
			return m, nil
		}
		live, err := launch(m.entries[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		live.theme = m.theme
		m.err = nil
		m.live = &live
		return m, live.Init()
	}
	return m, nil
}

func launch(e entry) (Model, error) {
	cfg := config.GetPreset(e.system, e.variant)
	if cfg == nil {
		return Model{}, fmt.Errorf("preset %s/%s not found", e.system, e.variant)
	}
	sys, err := cfg.BuildSystem()
	if err != nil {
		return Model{}, err
	}
	st, err := cfg.InitState(sys)
	if err != nil {
		return Model{}, err
	}
	return NewModel(sys, st), nil
}

func (m Menu) View() string {
	if m.live != nil {
		return m.live.View() + "\n" + stylesFor(m.theme).muted.Render("Esc: back to menu")
	}
	st := stylesFor(m.theme)
	var s strings.Builder
	s.WriteString(st.header.Render("CHAINSIM") + "\n")
	for i, e := range m.entries {
		line := fmt.Sprintf("%-16s %s", e.system, e.variant)
		if i == m.cursor {
			s.WriteString(st.active.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}
	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	}
	s.WriteString(st.muted.Render("\n↑↓: Select  Enter: Run  T: Theme  Q: Quit"))
	return s.String()
}

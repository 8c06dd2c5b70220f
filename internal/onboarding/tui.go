package onboarding

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"frieddie/internal/middleware"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Styles ---

var (
	focusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle   = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			Bold(true)

	docStyle = lipgloss.NewStyle().Padding(1, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1)

	windowStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)
)

// --- Types ---

type state int

const (
	stateProvider state = iota
	stateAPIKey
	stateModel
	stateBackendURL
	stateBackendKey
	stateMiddlewares
	stateDone
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

var providerChoices = []item{
	{title: "openai", desc: "OpenAI chat models through the tools API"},
	{title: "openai-functions", desc: "OpenAI legacy function_call API"},
	{title: "ollama", desc: "Local execution via Ollama"},
	{title: "anthropic", desc: "Claude models (requires API Key)"},
	{title: "gemini", desc: "Google Gemini models (requires API Key)"},
}

func needsAPIKey(provider string) bool {
	return provider != "ollama"
}

func defaultModels(provider string) []item {
	switch provider {
	case "openai", "openai-functions":
		return []item{
			{title: "gpt-3.5-turbo-0613", desc: "Function calling model"},
			{title: "gpt-4o-mini", desc: "Fast OpenAI model"},
			{title: "gpt-4o", desc: "Best OpenAI model"},
		}
	case "anthropic":
		return []item{{title: "claude-3-5-sonnet-latest", desc: "Best Anthropic model"}}
	case "gemini":
		return []item{{title: "gemini-2.5-flash", desc: "Fast Google model"}, {title: "gemini-2.5-pro", desc: "Powerful Google model"}}
	default:
		return []item{{title: "llama3.2", desc: "Default local model"}}
	}
}

// TUIModel is the bubbletea setup wizard. It writes the result to path when
// the user confirms the middleware page.
type TUIModel struct {
	state         state
	provider      string
	model         string
	apiKey        string
	baseURL       string
	backendURL    string
	backendAPIKey string
	middlewares   []MiddlewareSetting

	path           string
	discoverModels func() []item

	list     list.Model
	input    textinput.Model
	err      error
	quitting bool
	width    int
	height   int

	cursor int // for middleware list
}

type savedMsg struct{ err error }

// --- Ollama Discovery ---

type ollamaModel struct {
	Name string `json:"name"`
}

type ollamaResponse struct {
	Models []ollamaModel `json:"models"`
}

func fetchOllamaModels() []item {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://localhost:11434/api/tags")
	if err != nil {
		return []item{{title: "llama3.2", desc: "Default fallback (Ollama not responding)"}}
	}
	defer resp.Body.Close()

	var data ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil || len(data.Models) == 0 {
		return []item{{title: "llama3.2", desc: "Error parsing models"}}
	}

	items := make([]item, len(data.Models))
	for i, m := range data.Models {
		items[i] = item{title: m.Name, desc: "Local Ollama model"}
	}
	return items
}

// --- Initial Model ---

func NewTUIModel(path string) TUIModel {
	providers := make([]list.Item, len(providerChoices))
	for i, p := range providerChoices {
		providers[i] = p
	}

	l := list.New(providers, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Provider"
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Focus()

	mwList := middleware.Registered()
	settings := make([]MiddlewareSetting, len(mwList))
	for i, mw := range mwList {
		settings[i] = MiddlewareSetting{ID: mw.ID(), Enabled: true}
	}

	return TUIModel{
		state:          stateProvider,
		list:           l,
		input:          ti,
		middlewares:    settings,
		path:           path,
		discoverModels: fetchOllamaModels,
	}
}

func (m TUIModel) Init() tea.Cmd {
	return textinput.Blink
}

// Config returns what has been gathered so far.
func (m TUIModel) Config() Config {
	return Config{
		Provider:      m.provider,
		Model:         m.model,
		BaseURL:       m.baseURL,
		ModelAPIKey:   m.apiKey,
		BackendURL:    m.backendURL,
		BackendAPIKey: m.backendAPIKey,
		Middlewares:   m.middlewares,
	}
}

// Err reports a failed save once the program has exited.
func (m TUIModel) Err() error { return m.err }

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.state == stateProvider || m.state == stateModel || m.state == stateMiddlewares {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-10, msg.Height-15)

	case savedMsg:
		m.err = msg.err
		m.state = stateDone
		return m, nil
	}

	var cmd tea.Cmd
	enter := isEnter(msg)

	switch m.state {
	case stateProvider:
		m.list, cmd = m.list.Update(msg)
		if enter {
			if i, ok := m.list.SelectedItem().(item); ok {
				m.provider = i.title
				if needsAPIKey(m.provider) {
					m.promptFor(stateAPIKey, fmt.Sprintf("%s API Key: ", m.provider))
				} else {
					m.baseURL = "http://localhost:11434"
					m.showModels(m.discoverModels(), "Select Local Model")
				}
			}
		}

	case stateAPIKey:
		m.input, cmd = m.input.Update(msg)
		if enter {
			m.apiKey = strings.TrimSpace(m.input.Value())
			m.showModels(defaultModels(m.provider), "Select Cloud Model")
		}

	case stateModel:
		m.list, cmd = m.list.Update(msg)
		if enter {
			if i, ok := m.list.SelectedItem().(item); ok {
				m.model = i.title
				m.promptFor(stateBackendURL, "Frieddie GraphQL URL: ")
			}
		}

	case stateBackendURL:
		m.input, cmd = m.input.Update(msg)
		if enter {
			m.backendURL = strings.TrimSpace(m.input.Value())
			m.promptFor(stateBackendKey, "Frieddie API Key: ")
		}

	case stateBackendKey:
		m.input, cmd = m.input.Update(msg)
		if enter {
			m.backendAPIKey = strings.TrimSpace(m.input.Value())
			m.state = stateMiddlewares
		}

	case stateMiddlewares:
		if keyMsg, ok := msg.(tea.KeyMsg); ok {
			switch keyMsg.String() {
			case "up", "k":
				if m.cursor > 0 {
					m.cursor--
				}
			case "down", "j":
				if m.cursor < len(m.middlewares)-1 {
					m.cursor++
				}
			case " ":
				if len(m.middlewares) > 0 {
					m.middlewares[m.cursor].Enabled = !m.middlewares[m.cursor].Enabled
				}
			case "enter":
				return m, m.saveConfig()
			}
		}

	case stateDone:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, cmd
}

func isEnter(msg tea.Msg) bool {
	k, ok := msg.(tea.KeyMsg)
	return ok && k.String() == "enter"
}

func (m *TUIModel) promptFor(next state, prompt string) {
	m.state = next
	m.input.Prompt = prompt
	m.input.SetValue("")
}

func (m *TUIModel) showModels(models []item, title string) {
	items := make([]list.Item, len(models))
	for i, it := range models {
		items[i] = it
	}
	m.list.SetItems(items)
	m.list.Select(0)
	m.list.Title = title
	m.state = stateModel
}

func (m TUIModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(" Frieddie Setup "))
	s.WriteString("\n\n")

	tabs := []string{"Provider", "Model", "Backend", "Middlewares", "Finish"}
	var renderedTabs []string
	for i, t := range tabs {
		if i == m.tab() {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(t))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(t))
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...))
	s.WriteString("\n\n")

	var content string
	switch m.state {
	case stateProvider, stateModel:
		content = m.list.View()
	case stateAPIKey, stateBackendURL, stateBackendKey:
		content = "\n" + m.input.View() + "\n\n" + helpStyle.Render("Press enter to continue")
	case stateMiddlewares:
		var mwView strings.Builder
		mwView.WriteString("Toggle middlewares with [SPACE], Press [ENTER] to finish.\n\n")
		for i, mw := range m.middlewares {
			cursor := " "
			if m.cursor == i {
				cursor = ">"
			}
			checked := " "
			if mw.Enabled {
				checked = "x"
			}
			line := fmt.Sprintf("%s [%s] %s", cursor, checked, mw.ID)
			if m.cursor == i {
				mwView.WriteString(focusedStyle.Render(line) + "\n")
			} else {
				mwView.WriteString(line + "\n")
			}
		}
		content = mwView.String()
	case stateDone:
		if m.err != nil {
			content = fmt.Sprintf("\nCould not save configuration: %v\nPress any key to exit.", m.err)
		} else {
			content = fmt.Sprintf("\nConfiguration saved to %s.\nPress any key to exit.", m.path)
		}
	}

	s.WriteString(windowStyle.Width(max(m.width-10, 0)).Height(max(m.height-15, 0)).Render(content))

	if m.state != stateDone {
		s.WriteString("\n\n" + helpStyle.Render("ctrl+c: quit • ↑/↓: navigate • enter: select"))
	}

	return docStyle.Render(s.String())
}

func (m TUIModel) tab() int {
	switch m.state {
	case stateProvider, stateAPIKey:
		return 0
	case stateModel:
		return 1
	case stateBackendURL, stateBackendKey:
		return 2
	case stateMiddlewares:
		return 3
	default:
		return 4
	}
}

func (m TUIModel) saveConfig() tea.Cmd {
	cfg := m.Config()
	path := m.path
	return func() tea.Msg {
		return savedMsg{err: cfg.SaveToFile(path)}
	}
}

// --- Runner ---

func RunTUI(path string) error {
	p := tea.NewProgram(NewTUIModel(path), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(TUIModel); ok && m.Err() != nil {
		return m.Err()
	}
	return nil
}

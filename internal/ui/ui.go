package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchInputView ViewState = iota
	ResultListView
	DownloadView
	ResultView
)

// Model represents the TUI application state.
type Model struct {
	ctx           context.Context
	view          ViewState
	search        *tasks.SearchEngine
	downloads     *tasks.DownloadEngine
	limit         int
	width         int
	height        int
	input         textinput.Model
	resultList    list.Model
	response      *models.SearchResponse
	selectedTrack *models.Track
	result        *models.DownloadResponse
	err           error
	help          help.Model
	keys          keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, search *tasks.SearchEngine, downloads *tasks.DownloadEngine, limit int) *Model {
	input := textinput.New()
	input.Placeholder = "artist or track name"
	input.Focus()
	input.CharLimit = 200
	input.Width = 50

	return &Model{
		ctx:       ctx,
		view:      SearchInputView,
		search:    search,
		downloads: downloads,
		limit:     limit,
		input:     input,
		help:      help.New(),
		keys:      newKeyMap(),
	}
}

// Init starts the text input cursor blink.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.resultList.Width() == 0 {
			m.resultList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SearchInputView:
			return m.handleSearchInputKeys(msg)
		case ResultListView:
			return m.handleResultListKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case searchDoneMsg:
		m.response = msg.response
		items := make([]list.Item, len(msg.response.Results))
		for i, track := range msg.response.Results {
			items[i] = trackItem{track: track}
		}
		m.resultList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.resultList.Title = fmt.Sprintf("Results for '%s'", msg.response.Query)
		m.resultList.SetSize(m.width-4, m.height-8)
		m.view = ResultListView
		return m, nil

	case downloadDoneMsg:
		m.result = msg.response
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateChildren(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SearchInputView:
		return m.renderSearchInput()
	case ResultListView:
		return m.renderResultList()
	case DownloadView:
		return m.renderDownload()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "enter":
		query := m.input.Value()
		if query != "" {
			return m, m.runSearch(query)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleResultListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = SearchInputView
		m.input.Focus()
		return m, textinput.Blink
	case "enter":
		selected := m.resultList.SelectedItem()
		if selected != nil {
			if item, ok := selected.(trackItem); ok {
				track := item.track
				m.selectedTrack = &track
				m.view = DownloadView
				return m, m.runDownload(&track)
			}
		}
	}

	var cmd tea.Cmd
	m.resultList, cmd = m.resultList.Update(msg)
	return m, cmd
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = ResultListView
		m.result = nil
		m.err = nil
		return m, nil
	case "r":
		m.view = SearchInputView
		m.response = nil
		m.selectedTrack = nil
		m.result = nil
		m.err = nil
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) updateChildren(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case SearchInputView:
		m.input, cmd = m.input.Update(msg)
	case ResultListView:
		m.resultList, cmd = m.resultList.Update(msg)
	}
	return m, cmd
}

func (m *Model) runSearch(query string) tea.Cmd {
	return func() tea.Msg {
		response := m.search.SearchAll(m.ctx, query, m.limit)
		return searchDoneMsg{response: response}
	}
}

func (m *Model) runDownload(track *models.Track) tea.Cmd {
	return func() tea.Msg {
		response, err := m.downloads.DownloadTrack(m.ctx, track.Source, track.ID)
		return downloadDoneMsg{response: response, err: err}
	}
}

func (m *Model) renderSearchInput() string {
	title := styles.title.Render("Search for tracks")
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, m.input.View(), helpView)
}

func (m *Model) renderResultList() string {
	downloadKey := key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "download"),
	)
	helpKeys := []key.Binding{downloadKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.resultList.View(), helpView)
}

func (m *Model) renderDownload() string {
	title := styles.title.Render("Downloading")
	info := ""
	if m.selectedTrack != nil {
		info = fmt.Sprintf("%s - %s (%s)", m.selectedTrack.Artist, m.selectedTrack.Title, m.selectedTrack.Source)
	}
	return fmt.Sprintf("%s\n\n%s\n", title, info)
}

func (m *Model) renderResult() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	if m.err != nil || m.result == nil || m.result.Status != models.StatusReady {
		message := "download failed"
		if m.err != nil {
			message = m.err.Error()
		} else if m.result != nil && m.result.Error != "" {
			message = m.result.Error
		}
		return fmt.Sprintf("%s\n\n%s", styles.err.Render(fmt.Sprintf("✗ %s", message)), helpView)
	}

	title := styles.ok.Render("✓ Download complete")
	info := fmt.Sprintf("\nTrack: %s - %s\nFile: %s\n", m.result.Track.Artist, m.result.Track.Title, m.result.Filepath)
	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

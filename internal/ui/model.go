package ui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nconklindev/warrantor/internal/auth"
	"github.com/nconklindev/warrantor/internal/converter"
	"github.com/nconklindev/warrantor/internal/dashboard"
	"github.com/nconklindev/warrantor/internal/store"
	"github.com/nconklindev/warrantor/internal/types"
	"github.com/nconklindev/warrantor/internal/upload"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

type state int

const (
	stateLogin state = iota
	stateMenu
	stateFilePicker
	stateUploading
	stateComplete
	stateError
)

type menuItem int

const (
	itemUpload menuItem = iota
	itemDownloadWarranty
	itemDownloadClaims
	itemRefresh
	itemDebug
	itemLogout
	itemQuit
)

var menuLabels = []string{
	itemUpload:           "Upload customer data",
	itemDownloadWarranty: "Download warranty data",
	itemDownloadClaims:   "Download claims data",
	itemRefresh:          "Refresh system data",
	itemDebug:            "Debug system data",
	itemLogout:           "Logout",
	itemQuit:             "Quit",
}

// Deps are the services the dashboard view drives.
type Deps struct {
	Session   *auth.Session
	Store     *store.Store
	Dashboard *dashboard.Dashboard
	Expected  []string
	LogPath   string
	Logger    *zap.Logger
}

type Model struct {
	deps       Deps
	controller *upload.Controller

	state      state
	password   textinput.Model
	loginErr   string
	filepicker filepicker.Model
	spinner    spinner.Model
	cursor     int

	selectedFile string
	result       *types.UploadResult
	err          error
	counts       types.Counts
	notice       string
	noticeErr    bool

	events  chan store.Event
	cancels []func()

	width  int
	height int
}

type countsMsg struct {
	counts types.Counts
	err    error
}

type uploadCompleteMsg struct {
	result *types.UploadResult
	err    error
}

type exportCompleteMsg struct {
	kind   types.Kind
	result *types.ExportResult
	err    error
}

type debugCompleteMsg struct {
	snapshot map[types.Collection][]types.Record
	err      error
}

type storeEventMsg store.Event

type refreshedMsg types.Counts

func InitialModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "Enter admin password"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.Prompt = "🔒 "
	ti.Focus()

	fp := filepicker.New()
	fp.AllowedTypes = converter.AllowedTypes
	fp.CurrentDirectory, _ = os.Getwd()

	// Set filepicker colors to match theme
	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(lipgloss.Color(colorAccent))
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary)).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(lipgloss.Color(colorMuted))

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(colorPrimary))

	m := Model{
		deps:       deps,
		state:      stateLogin,
		password:   ti,
		filepicker: fp,
		spinner:    sp,
		events:     make(chan store.Event, 16),
	}

	m.controller = upload.NewController(deps.Store, types.CollectionCustomer, deps.Expected,
		upload.WithLogger(deps.Logger))

	// Other handles and processes report through the store; our own writes
	// come back as uploadCompleteMsg.
	events := m.events
	for _, c := range types.Collections {
		m.cancels = append(m.cancels, deps.Store.Subscribe(c, func(ev store.Event) {
			select {
			case events <- ev:
			default:
			}
		}))
	}

	if deps.Session.Authenticated() {
		m.state = stateMenu
	}

	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEvent(m.events)}
	if m.state == stateLogin {
		cmds = append(cmds, textinput.Blink)
	} else {
		cmds = append(cmds, m.loadCounts())
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// Set filepicker height based on available space
		// Subtract space for title, subtitle, help text, and padding
		height := msg.Height - 14
		if height < 5 {
			height = 5 // Minimum height
		}

		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		switch m.state {
		case stateLogin:
			return m.updateLogin(msg)

		case stateMenu:
			return m.updateMenu(msg)

		case stateFilePicker:
			switch msg.String() {
			case "q":
				m.state = stateMenu
				return m, nil
			}

		case stateComplete:
			switch msg.String() {
			case "q":
				return m.quit()
			case "enter", "esc":
				m.controller.Reset()
				m.state = stateMenu
				return m, nil
			}

		case stateError:
			switch msg.String() {
			case "q":
				return m.quit()
			case "r":
				// pick another file
				m.controller.Reset()
				m.state = stateFilePicker
				return m, m.filepicker.Init()
			case "enter", "esc":
				m.controller.Reset()
				m.state = stateMenu
				return m, nil
			}
		}

	case countsMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
			return m, nil
		}
		m.counts = msg.counts
		return m, nil

	case refreshedMsg:
		m.counts = types.Counts(msg)
		m.setNotice(fmt.Sprintf("System refreshed! Customer Records: %d • Warranties: %d • Claims: %d",
			m.counts.Customers, m.counts.Warranties, m.counts.Claims), false)
		return m, nil

	case storeEventMsg:
		m.deps.Logger.Debug("Store changed elsewhere",
			zap.String("key", msg.Key),
			zap.String("origin", msg.Origin))
		return m, tea.Batch(m.loadCounts(), waitForEvent(m.events))

	case uploadCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = msg.result
		// The store does not notify its own writer, so update our view here.
		m.counts.Customers = len(msg.result.Records)
		m.state = stateComplete
		return m, nil

	case exportCompleteMsg:
		switch {
		case errors.Is(msg.err, dashboard.ErrNothingToDownload):
			m.setNotice(capitalize(msg.err.Error()), true)
		case msg.err != nil:
			m.setNotice(fmt.Sprintf("Export failed: %v", msg.err), true)
		default:
			m.setNotice(fmt.Sprintf("Saved %s (%d records, %s)",
				msg.result.OutputFile, msg.result.Records, humanize.Bytes(uint64(msg.result.Bytes))), false)
		}
		return m, nil

	case debugCompleteMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
			return m, nil
		}
		m.setNotice(fmt.Sprintf("Customer data: %d • Warranty data: %d • Claims data: %d (details logged at debug level to %s)",
			len(msg.snapshot[types.CollectionCustomer]), len(msg.snapshot[types.CollectionWarranty]),
			len(msg.snapshot[types.CollectionClaim]), m.deps.LogPath), false)
		return m, nil

	case spinner.TickMsg:
		if m.state != stateUploading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.state == stateLogin {
		var cmd tea.Cmd
		m.password, cmd = m.password.Update(msg)
		return m, cmd
	}

	// Handle filepicker updates
	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			m.selectedFile = path
			m.state = stateUploading
			return m, tea.Batch(m.uploadFile(path), m.spinner.Tick)
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.quit()
	case "enter":
		if err := m.deps.Session.Login(m.password.Value()); err != nil {
			m.loginErr = capitalize(err.Error())
			m.password.Reset()
			return m, nil
		}
		m.deps.Logger.Info("Admin signed in")
		m.loginErr = ""
		m.password.Reset()
		m.state = stateMenu
		return m, m.loadCounts()
	}

	var cmd tea.Cmd
	m.password, cmd = m.password.Update(msg)
	return m, cmd
}

func (m Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menuLabels)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.activate(menuItem(m.cursor))
	}
	return m, nil
}

func (m Model) activate(item menuItem) (tea.Model, tea.Cmd) {
	m.notice = ""

	switch item {
	case itemUpload:
		m.state = stateFilePicker
		return m, m.filepicker.Init()

	case itemDownloadWarranty:
		return m, m.export(types.KindWarranty)

	case itemDownloadClaims:
		return m, m.export(types.KindClaims)

	case itemRefresh:
		d := m.deps.Dashboard
		return m, func() tea.Msg {
			counts, err := d.Counts()
			if err != nil {
				return countsMsg{err: err}
			}
			return refreshedMsg(counts)
		}

	case itemDebug:
		d := m.deps.Dashboard
		return m, func() tea.Msg {
			snap, err := d.Snapshot()
			return debugCompleteMsg{snapshot: snap, err: err}
		}

	case itemLogout:
		m.deps.Session.Logout()
		m.deps.Logger.Info("Admin signed out")
		m.state = stateLogin
		m.cursor = 0
		return m, tea.Batch(m.password.Focus(), textinput.Blink)

	case itemQuit:
		return m.quit()
	}
	return m, nil
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	for _, cancel := range m.cancels {
		cancel()
	}
	return m, tea.Quit
}

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeErr = isErr
}

func (m Model) loadCounts() tea.Cmd {
	d := m.deps.Dashboard
	return func() tea.Msg {
		counts, err := d.Counts()
		return countsMsg{counts: counts, err: err}
	}
}

func (m Model) uploadFile(path string) tea.Cmd {
	c := m.controller
	return func() tea.Msg {
		result, err := c.UploadFile(path)
		return uploadCompleteMsg{result: result, err: err}
	}
}

func (m Model) export(kind types.Kind) tea.Cmd {
	d := m.deps.Dashboard
	return func() tea.Msg {
		result, err := d.Export(kind)
		return exportCompleteMsg{kind: kind, result: result, err: err}
	}
}

func waitForEvent(events <-chan store.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return storeEventMsg(ev)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (m Model) View() string {
	switch m.state {
	case stateLogin:
		return m.viewLogin()
	case stateMenu:
		return m.viewMenu()
	case stateFilePicker:
		return m.viewFilePicker()
	case stateUploading:
		return m.viewUploading()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewLogin() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🛡  Admin Access"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Enter your password to access the admin dashboard"))
	s.WriteString("\n\n")
	s.WriteString(m.password.View())
	s.WriteString("\n")

	if m.loginErr != "" {
		s.WriteString("\n")
		s.WriteString(ErrorStyle.Render(m.loginErr))
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("enter: login • esc: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewMenu() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("🛡  Warranty Admin Dashboard"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Upload customer data and manage the warranty system"))
	s.WriteString("\n\n")

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		StatStyle.Render(fmt.Sprintf("%d\nCustomer Records", m.counts.Customers)),
		StatStyle.Render(fmt.Sprintf("%d\nWarranties Activated", m.counts.Warranties)),
		StatStyle.Render(fmt.Sprintf("%d\nClaims Submitted", m.counts.Claims)),
	)
	s.WriteString(stats)
	s.WriteString("\n\n")

	for i, label := range menuLabels {
		if m.cursor == i {
			s.WriteString(SelectedStyle.Render("> " + label))
		} else {
			s.WriteString(UnselectedStyle.Render("  " + label))
		}
		s.WriteString("\n")
	}

	if m.notice != "" {
		s.WriteString("\n")
		if m.noticeErr {
			s.WriteString(ErrorStyle.Render(m.notice))
		} else {
			s.WriteString(SuccessStyle.Render(m.notice))
		}
		s.WriteString("\n")
	}

	s.WriteString(HelpStyle.Render("↑/↓: navigate • enter: select • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📄 Upload Customer Data"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select an Excel file (.xlsx, .xls) with customer order information"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Expected columns: " + strings.Join(m.controller.Expected(), ", ")))
	s.WriteString("\n\n")
	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("Press q to go back"))

	return s.String()
}

func (m Model) viewUploading() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("📄 Processing file..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Reading %s", m.spinner.View(), filepath.Base(m.selectedFile)))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("✓ Upload Complete!"))
	s.WriteString("\n\n")

	// Truncate paths if they're too long
	maxPathLen := m.width - 20 // Leave room for padding and borders
	if maxPathLen < 30 {
		maxPathLen = 30
	}

	inputPath := m.result.InputFile
	if len(inputPath) > maxPathLen {
		inputPath = "..." + inputPath[len(inputPath)-maxPathLen+3:]
	}

	s.WriteString(fmt.Sprintf("File: %s\n", inputPath))
	s.WriteString(SuccessStyle.Render(fmt.Sprintf("Successfully uploaded %d customer records!", len(m.result.Records))))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Columns: %s\n", strings.Join(m.result.ColumnsFound, ", ")))
	s.WriteString(HelpStyle.Render("enter: back to dashboard • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Upload Failed"))
	s.WriteString("\n\n")
	s.WriteString(capitalize(m.err.Error()))
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("r: choose another file • enter: back to dashboard • q: quit"))

	return BoxStyle.Render(s.String())
}

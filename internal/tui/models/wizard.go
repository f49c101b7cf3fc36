// Package models holds the bubbletea models of the terminal client.
package models

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/listenupapp/listenup-onboarding/internal/color"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/tui/styles"
)

const pollInterval = 150 * time.Millisecond

// Driver runs the wizard session the model renders. *onboarding.Controller
// satisfies it.
type Driver interface {
	State() onboarding.State
	Dispatch(ctx context.Context, ev onboarding.Event) (onboarding.State, error)
	Done() <-chan struct{}
	Outcome() (onboarding.Outcome, bool)
	Exited() bool
	Close()
}

var _ Driver = (*onboarding.Controller)(nil)

// Result is how the wizard ended.
type Result int

// Wizard results.
const (
	ResultNone Result = iota
	ResultCompleted
	ResultExited
	ResultAbandoned
)

// ---------------------------------------------------------------------------
// Tea messages
// ---------------------------------------------------------------------------

type dispatchedMsg struct {
	state onboarding.State
	err   error
}

type pollMsg struct{}

type finishedMsg struct{}

// row is one selectable line of a multi-select step.
type row struct {
	category onboarding.Category
	id       string
	label    string
	detail   string
}

var fieldLabels = map[onboarding.Field]string{
	onboarding.FieldLength:     "Length",
	onboarding.FieldPace:       "Pace",
	onboarding.FieldDifficulty: "Difficulty",
}

var categoryTitles = map[onboarding.Category]string{
	onboarding.CategoryMood:    "Moods",
	onboarding.CategoryEmotion: "Emotions",
}

// ---------------------------------------------------------------------------
// WizardModel
// ---------------------------------------------------------------------------

// WizardModel implements tea.Model for the onboarding wizard. It never
// changes wizard state itself: keys become events for the Driver and the
// model renders whatever state comes back.
type WizardModel struct {
	driver Driver
	state  onboarding.State

	cursor   int
	field    int    // focused scalar on the Style step
	position string // step and browsed genre the cursor belongs to

	inflight bool
	notice   string
	result   Result
	outcome  *onboarding.Outcome

	keys wizardKeyMap
	help help.Model
	spin spinner.Model
	bar  progress.Model

	width  int
	height int
}

// NewWizardModel creates a model over driver.
func NewWizardModel(driver Driver) WizardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.AccentPrimary)

	bar := progress.New(progress.WithGradient(string(styles.AccentSecondary), string(styles.AccentPrimary)), progress.WithWidth(40))

	m := WizardModel{
		driver: driver,
		state:  driver.State(),
		keys:   defaultWizardKeyMap(),
		help:   help.New(),
		spin:   s,
		bar:    bar,
		width:  80,
		height: 32,
	}
	m.position = positionOf(m.state)
	return m
}

// Result reports how the wizard ended.
func (m WizardModel) Result() Result {
	return m.result
}

// Outcome returns the submission result after completion.
func (m WizardModel) Outcome() (onboarding.Outcome, bool) {
	if m.outcome == nil {
		return onboarding.Outcome{}, false
	}
	return *m.outcome, true
}

// Init starts the spinner and watches for the session to end.
func (m WizardModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, waitDone(m.driver))
}

// Update processes messages and key events.
func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 60)
		m.height = msg.Height
		m.help.Width = m.width - 4
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case dispatchedMsg:
		m.inflight = false
		m.adopt(msg.state)
		m.notice = describeError(msg.err)
		if m.driver.Exited() {
			m.result = ResultExited
			return m, tea.Quit
		}
		if waiting(m.state) {
			return m, poll()
		}
		return m, nil

	case pollMsg:
		if m.result != ResultNone {
			return m, nil
		}
		m.adopt(m.driver.State())
		if waiting(m.state) {
			return m, poll()
		}
		return m, nil

	case finishedMsg:
		return m.finish()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m WizardModel) finish() (tea.Model, tea.Cmd) {
	if m.result == ResultAbandoned {
		return m, nil
	}
	m.adopt(m.driver.State())
	if out, ok := m.driver.Outcome(); ok {
		m.outcome = &out
		m.result = ResultCompleted
		return m, nil
	}
	if m.driver.Exited() {
		m.result = ResultExited
		return m, tea.Quit
	}
	return m, nil
}

// adopt takes a new state and resets the cursor when the screen changed.
func (m *WizardModel) adopt(st onboarding.State) {
	m.state = st
	if pos := positionOf(st); pos != m.position {
		m.position = pos
		m.cursor = 0
	}
	if n := len(rowsFor(st)); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
}

// ---------------------------------------------------------------------------
// Key handling
// ---------------------------------------------------------------------------

func (m WizardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := m.keys.forStep(m.state.Step(), m.result == ResultCompleted)

	if m.result == ResultCompleted {
		if key.Matches(msg, keys.Next, keys.Back, keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		m.result = ResultAbandoned
		m.driver.Close()
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.inflight {
		return m, nil
	}

	rows := rowsFor(m.state)
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Toggle):
		if m.cursor < len(rows) {
			r := rows[m.cursor]
			return m.dispatch(onboarding.Toggle{Category: r.category, ID: r.id})
		}
	case key.Matches(msg, keys.Next):
		return m.dispatch(onboarding.Next{})
	case key.Matches(msg, keys.Back):
		return m.dispatch(onboarding.Back{})
	case key.Matches(msg, keys.Reload):
		return m.dispatch(onboarding.Reload{})
	case key.Matches(msg, keys.Field):
		m.field = (m.field + 1) % len(onboarding.Fields)
	case key.Matches(msg, keys.Choose):
		return m.pick(int(msg.String()[0] - '1'))
	}
	return m, nil
}

// pick chooses option n of the focused scalar; choosing the current value
// clears it.
func (m WizardModel) pick(n int) (tea.Model, tea.Cmd) {
	field := onboarding.Fields[m.field]
	opts := onboarding.FieldOptions(field)
	if n < 0 || n >= len(opts) {
		return m, nil
	}
	value := opts[n].ID
	if current, ok := m.state.Choice(field).Value(); ok && current == value {
		value = ""
	}
	return m.dispatch(onboarding.Pick{Field: field, Value: value})
}

func (m WizardModel) dispatch(ev onboarding.Event) (tea.Model, tea.Cmd) {
	m.inflight = true
	m.notice = ""
	driver := m.driver
	return m, func() tea.Msg {
		st, err := driver.Dispatch(context.Background(), ev)
		return dispatchedMsg{state: st, err: err}
	}
}

func waitDone(driver Driver) tea.Cmd {
	return func() tea.Msg {
		<-driver.Done()
		return finishedMsg{}
	}
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func waiting(st onboarding.State) bool {
	switch st.Pending() {
	case onboarding.PendingAnalysis, onboarding.PendingSubmit:
		return true
	}
	return false
}

func describeError(err error) string {
	if err == nil {
		return ""
	}
	var (
		verr *onboarding.ValidationError
		ferr *onboarding.FetchError
		serr *onboarding.SaveError
	)
	switch {
	case errors.As(err, &verr):
		if verr.Reason == onboarding.ReasonMinGenre {
			return "Pick at least one genre to continue."
		}
		if verr.Message != "" {
			return verr.Message
		}
		return verr.Error()
	case errors.As(err, &ferr):
		return fmt.Sprintf("Could not load %s. Check your connection and try again.", ferr.Op)
	case errors.As(err, &serr):
		return "Saving your preferences failed. Your answers are kept; press enter to retry."
	case errors.Is(err, onboarding.ErrBusy):
		return "Still working, one moment."
	case errors.Is(err, onboarding.ErrEventNotAllowed):
		return ""
	}
	return err.Error()
}

// ---------------------------------------------------------------------------
// Rows
// ---------------------------------------------------------------------------

func positionOf(st onboarding.State) string {
	if genreID, ok := st.CurrentGenre(); ok {
		return st.Step().String() + "/" + genreID
	}
	return st.Step().String()
}

func rowsFor(st onboarding.State) []row {
	switch st.Step() {
	case onboarding.StepGenre:
		var rows []row
		for _, g := range st.Catalog() {
			rows = append(rows, row{category: onboarding.CategoryGenre, id: g.ID, label: g.Name, detail: g.Description})
		}
		return rows
	case onboarding.StepBooks:
		genreID, ok := st.CurrentGenre()
		if !ok {
			return nil
		}
		var rows []row
		for _, b := range st.BooksFor(genreID) {
			rows = append(rows, row{category: onboarding.CategoryBook, id: b.ID, label: b.Title, detail: b.Author})
		}
		return rows
	case onboarding.StepPurpose:
		return optionRows(onboarding.CategoryPurpose)
	case onboarding.StepStyle:
		return optionRows(onboarding.CategoryNarrativeStyle)
	case onboarding.StepMood:
		return append(optionRows(onboarding.CategoryMood), optionRows(onboarding.CategoryEmotion)...)
	case onboarding.StepTheme:
		return optionRows(onboarding.CategoryTheme)
	}
	return nil
}

func optionRows(c onboarding.Category) []row {
	opts := onboarding.StaticOptions(c)
	rows := make([]row, 0, len(opts))
	for _, o := range opts {
		rows = append(rows, row{category: c, id: o.ID, label: o.Label, detail: o.Description})
	}
	return rows
}

func checked(st onboarding.State, r row) bool {
	if r.category == onboarding.CategoryBook {
		genreID, _ := st.CurrentGenre()
		return slices.Contains(st.SelectedBooksFor(genreID), r.id)
	}
	return slices.Contains(st.Selected(r.category), r.id)
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

var stepLabels = []string{"Welcome", "Genres", "Books", "Purpose", "Style", "Mood", "Themes", "Analysis"}

// View renders the current wizard step.
func (m WizardModel) View() string {
	if m.result == ResultAbandoned || m.result == ResultExited {
		return ""
	}

	width := min(m.width-4, 76)
	sections := []string{
		"",
		"  " + m.renderSteps(),
		"  " + m.bar.ViewAs(m.state.Progress()/100) + " " + styles.Dim(fmt.Sprintf("%3.0f%%", m.state.Progress())),
		"  " + styles.Divider(width),
		"",
	}

	if m.result == ResultCompleted {
		sections = append(sections, m.viewCompleted())
	} else {
		sections = append(sections, m.viewStep())
	}

	if notice := m.currentNotice(); notice != "" {
		sections = append(sections, "", "  "+styles.Notice.Width(width-2).Render(notice))
	}

	sections = append(sections, "", "  "+styles.Divider(width), "  "+m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m WizardModel) currentNotice() string {
	if m.notice != "" {
		return m.notice
	}
	if last := m.state.LastError(); last != "" && !m.state.Busy() {
		switch {
		case m.state.Step() == onboarding.StepGenre && !m.state.CatalogLoaded():
			return "Could not load the genre catalog. Press r to retry."
		case m.state.Step() == onboarding.StepTheme:
			return "Saving your preferences failed. Your answers are kept; press enter to retry."
		}
		return "Something went wrong: " + last
	}
	return ""
}

func (m WizardModel) renderSteps() string {
	current := m.state.Step().Ordinal()
	parts := make([]string, 0, len(stepLabels))
	for i, label := range stepLabels {
		switch {
		case i < current || m.result == ResultCompleted:
			parts = append(parts, styles.Green("● "+label))
		case i == current:
			parts = append(parts, styles.Cursor.Render("● "+label))
		default:
			parts = append(parts, styles.Dim("○ "+label))
		}
	}
	return strings.Join(parts, " ")
}

func (m WizardModel) viewStep() string {
	st := m.state
	switch st.Step() {
	case onboarding.StepWelcome:
		return strings.Join([]string{
			"  " + styles.Bold("Welcome to ListenUp"),
			"",
			"  " + styles.Secondary("Tell us what you like to read and we will tailor your recommendations."),
			"  " + styles.Secondary("It takes about two minutes."),
			"",
			"  " + styles.Cyan("Press enter to begin"),
		}, "\n")

	case onboarding.StepGenre:
		if st.Pending() == onboarding.PendingGenres {
			return "  " + m.spin.View() + " Loading genres..."
		}
		if st.Pending() == onboarding.PendingBooks {
			return "  " + m.spin.View() + " Finding books for your genres..."
		}
		return m.viewRows("Which genres do you enjoy?", fmt.Sprintf("%d selected", len(st.Selected(onboarding.CategoryGenre))))

	case onboarding.StepBooks:
		page := st.View().Books
		if page == nil {
			return "  " + m.spin.View() + " Finding books..."
		}
		title := fmt.Sprintf("Books you enjoyed in %s", page.GenreName)
		return m.viewRows(title, fmt.Sprintf("genre %d of %d", page.Index+1, page.Count))

	case onboarding.StepPurpose:
		return m.viewRows("Why do you read?",
			fmt.Sprintf("%d of %d", len(st.Selected(onboarding.CategoryPurpose)), st.Limits().MaxPurposes))

	case onboarding.StepStyle:
		return m.viewRows("What kind of storytelling do you like?", "") + "\n\n" + m.viewScalars()

	case onboarding.StepMood:
		return m.viewRows("How do you want a book to make you feel?", "")

	case onboarding.StepTheme:
		return m.viewRows("Which themes draw you in?", "")

	case onboarding.StepAnalyzing:
		return "  " + m.spin.View() + " Analyzing your reading taste..."

	case onboarding.StepSubmitting:
		return "  " + m.spin.View() + " Saving your preferences..."
	}
	return ""
}

// viewRows renders the step's rows in a window around the cursor.
func (m WizardModel) viewRows(title, hint string) string {
	rows := rowsFor(m.state)
	lines := []string{"  " + styles.Bold(title)}
	if hint != "" {
		lines[0] += "  " + styles.Dim(hint)
	}
	lines = append(lines, "")

	if len(rows) == 0 {
		lines = append(lines, "  "+styles.Dim("Nothing to choose here. Press enter to continue."))
		return strings.Join(lines, "\n")
	}

	visible := max(m.height-16, 5)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(rows))

	var lastCategory onboarding.Category
	for i := start; i < end; i++ {
		r := rows[i]
		if heading, ok := categoryTitles[r.category]; ok && r.category != lastCategory {
			lines = append(lines, "  "+styles.Teal(heading))
		}
		lastCategory = r.category

		pointer := "  "
		label := r.label
		if i == m.cursor {
			pointer = styles.Cursor.Render("> ")
			label = styles.Cursor.Render(label)
		}
		line := "  " + pointer + styles.Checkbox(checked(m.state, r)) + " "
		if r.category == onboarding.CategoryGenre {
			line += lipgloss.NewStyle().Foreground(lipgloss.Color(color.For(r.id))).Render("●") + " "
		}
		line += label
		if r.detail != "" {
			line += "  " + styles.Dim(styles.Truncate(r.detail, 48))
		}
		lines = append(lines, line)
	}
	if end < len(rows) || start > 0 {
		lines = append(lines, "  "+styles.Dim(fmt.Sprintf("  %d-%d of %d", start+1, end, len(rows))))
	}
	return strings.Join(lines, "\n")
}

func (m WizardModel) viewScalars() string {
	lines := []string{"  " + styles.Bold("Reading habits") + "  " + styles.Dim("tab to switch, 1-3 to choose")}
	for i, f := range onboarding.Fields {
		label := fmt.Sprintf("%-11s", fieldLabels[f])
		if i == m.field {
			label = styles.Cursor.Render("> " + label)
		} else {
			label = "  " + styles.Secondary(label)
		}
		chosen, _ := m.state.Choice(f).Value()
		opts := onboarding.FieldOptions(f)
		parts := make([]string, 0, len(opts))
		for n, o := range opts {
			parts = append(parts, fmt.Sprintf("%d %s %s", n+1, styles.Radio(o.ID == chosen), o.Label))
		}
		lines = append(lines, "  "+label+" "+strings.Join(parts, "  "))
	}
	return strings.Join(lines, "\n")
}

func (m WizardModel) viewCompleted() string {
	out := m.outcome
	p := out.Payload
	lines := []string{
		styles.Green("All set!") + " Your preferences are saved.",
		"",
		fmt.Sprintf("%-16s %d", "Genres", len(p.Genres)),
		fmt.Sprintf("%-16s %d", "Books", len(p.SelectedBooks)),
		fmt.Sprintf("%-16s %d", "Purposes", len(p.Purposes)),
		fmt.Sprintf("%-16s %d", "Styles", len(p.NarrativeStyles)),
		fmt.Sprintf("%-16s %d", "Moods", len(p.PreferredMoods)+len(p.PreferredEmotions)),
		fmt.Sprintf("%-16s %d", "Themes", len(p.PreferredThemes)),
		"",
	}
	switch {
	case out.Report != nil:
		lines = append(lines, "Your taste report is on its way "+styles.Dim("("+out.Report.ID+")"))
	default:
		lines = append(lines, styles.Gold("Your taste report is not ready yet. We will build it later."))
	}
	return "  " + styles.Summary.Render(strings.Join(lines, "\n"))
}

func (m WizardModel) renderFooter() string {
	return m.help.View(m.keys.forStep(m.state.Step(), m.result == ResultCompleted))
}

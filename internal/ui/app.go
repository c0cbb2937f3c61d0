// Package ui provides the Bubble Tea form for CadSocial.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/SantanaDZ/cad-social/internal/form"
	"github.com/SantanaDZ/cad-social/internal/intake"
	"github.com/SantanaDZ/cad-social/internal/prefs"
	"github.com/SantanaDZ/cad-social/internal/reconcile"
	"github.com/SantanaDZ/cad-social/internal/state"
)

// Options configures the UI.
type Options struct {
	Context   context.Context
	Form      *form.Controller
	Submitter form.Submitter
	Store     *state.Store
	// Sync runs one manual drain. Nil disables the binding.
	Sync      func(ctx context.Context) reconcile.Result
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	form      *form.Controller
	submitter form.Submitter
	store     *state.Store
	sync      func(ctx context.Context) reconcile.Result
	pollTick  time.Duration
	prefs     prefs.Prefs
	prefsPath string

	theme  Theme
	keys   keyMap
	width  int
	height int
	ready  bool

	// Inputs of the current step, parallel to names.
	inputs []textinput.Model
	names  []string
	focus  int

	snapshot   state.Snapshot
	submitting bool
	showHelp   bool
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	controller := opts.Form
	if controller == nil {
		controller = form.New(nil, opts.Prefs.FormDefaults())
	}
	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	m := Model{
		ctx:       ctx,
		form:      controller,
		submitter: opts.Submitter,
		store:     store,
		sync:      opts.Sync,
		pollTick:  pollTick,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		theme:     GetTheme(opts.Prefs.Theme),
		keys:      DefaultKeyMap(),
		snapshot:  store.Snapshot(),
	}
	m.loadStep()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(m.pollTick),
		fetchSnapshotCmd(m.store),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeInputs()
		return m, nil

	case tickMsg:
		return m, tea.Batch(fetchSnapshotCmd(m.store), tickCmd(m.pollTick))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		return m, nil

	case submitResultMsg:
		return m.handleSubmitResult(msg)

	case syncResultMsg:
		if msg.Skipped {
			m.store.SetSyncing(false)
		}
		if text := reconcile.Result(msg).SkipMessage(); text != "" {
			m.store.Notify(reconcile.Notice{Text: text})
		}
		return m, fetchSnapshotCmd(m.store)
	}

	return m.updateFocusedInput(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Carregando..."
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, m.prefs)
		}
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.store.DismissNotices()
		return m, fetchSnapshotCmd(m.store)

	case key.Matches(msg, m.keys.NextField):
		return m, m.moveFocus(1)

	case key.Matches(msg, m.keys.PrevField):
		return m, m.moveFocus(-1)

	case key.Matches(msg, m.keys.Confirm):
		if m.focus < len(m.inputs)-1 {
			return m, m.moveFocus(1)
		}
		if m.form.IsLastStep() {
			return m.submit()
		}
		return m, m.advance()

	case key.Matches(msg, m.keys.NextStep):
		return m, m.advance()

	case key.Matches(msg, m.keys.PrevStep):
		m.commitInputs()
		m.form.Retreat()
		return m, m.loadStep()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Sync):
		if m.sync == nil {
			return m, nil
		}
		m.store.SetSyncing(true)
		return m, tea.Batch(syncCmd(m.ctx, m.sync), fetchSnapshotCmd(m.store))
	}

	return m.updateFocusedInput(msg)
}

func (m Model) updateFocusedInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.focus < 0 || m.focus >= len(m.inputs) {
		return m, nil
	}
	var cmd tea.Cmd
	before := m.inputs[m.focus].Value()
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		_ = m.form.Set(m.names[m.focus], after)
	}
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.submitting || m.submitter == nil {
		return m, nil
	}
	m.commitInputs()
	m.submitting = true
	return m, submitCmd(m.ctx, m.form, m.submitter)
}

func (m Model) handleSubmitResult(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.submitting = false

	var verr *form.ValidationError
	switch {
	case errors.As(msg.err, &verr):
		m.form.FocusFirstError()
		cmd := m.loadStep()
		return m, tea.Batch(cmd, m.focusFirstInvalid())
	case errors.Is(msg.err, form.ErrSubmitting):
		return m, nil
	case msg.err != nil:
		m.store.Notify(reconcile.Notice{Error: true, Text: intake.Describe(msg.err)})
		return m, fetchSnapshotCmd(m.store)
	}

	m.store.Notify(reconcile.Notice{Text: msg.outcome.Message})
	m.form.Reset()
	cmd := m.loadStep()
	return m, tea.Batch(cmd, fetchSnapshotCmd(m.store))
}

// advance validates the current step and moves on, or focuses the first
// invalid field of the step.
func (m *Model) advance() tea.Cmd {
	m.commitInputs()
	if m.form.Advance() {
		return m.loadStep()
	}
	return m.focusFirstInvalid()
}

// loadStep rebuilds the inputs for the controller's current step.
func (m *Model) loadStep() tea.Cmd {
	step := m.form.CurrentStep()
	m.names = append(m.names[:0:0], step.Fields...)
	m.inputs = make([]textinput.Model, len(step.Fields))
	for i, name := range step.Fields {
		field, _ := m.form.Schema().Field(name)
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 200
		ti.Placeholder = placeholder(field)
		ti.SetValue(displayValue(m.form.Value(name)))
		m.inputs[i] = ti
	}
	m.resizeInputs()
	m.focus = 0
	if len(m.inputs) == 0 {
		return nil
	}
	return m.inputs[0].Focus()
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if len(m.inputs) == 0 {
		return nil
	}
	next := (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.setFocus(next)
}

func (m *Model) setFocus(idx int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = idx
	return m.inputs[idx].Focus()
}

func (m *Model) focusFirstInvalid() tea.Cmd {
	errs := m.form.Errors()
	for i, name := range m.names {
		if _, ok := errs[name]; ok {
			return m.setFocus(i)
		}
	}
	return nil
}

// commitInputs copies every input of the current step into the controller.
func (m *Model) commitInputs() {
	for i, name := range m.names {
		_ = m.form.Set(name, m.inputs[i].Value())
	}
}

func (m *Model) resizeInputs() {
	width := m.width - 8
	if width < 20 {
		width = 20
	}
	for i := range m.inputs {
		m.inputs[i].Width = width
	}
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type submitResultMsg struct {
	outcome intake.Outcome
	err     error
}

type syncResultMsg reconcile.Result

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func submitCmd(ctx context.Context, c *form.Controller, sub form.Submitter) tea.Cmd {
	return func() tea.Msg {
		outcome, err := c.Submit(ctx, sub)
		return submitResultMsg{outcome: outcome, err: err}
	}
}

func syncCmd(ctx context.Context, sync func(context.Context) reconcile.Result) tea.Cmd {
	return func() tea.Msg {
		return syncResultMsg(sync(ctx))
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
		opts.Context = ctx
	}
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

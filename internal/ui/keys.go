package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the keyboard bindings of the form. Letter keys are left to
// the text inputs, so every command uses a modifier or a function key.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding

	NextField key.Binding
	PrevField key.Binding
	Confirm   key.Binding

	NextStep key.Binding
	PrevStep key.Binding
	Submit   key.Binding
	Sync     key.Binding
	Dismiss  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Sair"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "Ajuda"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Trocar tema"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
			key.WithHelp("tab/↓", "Próximo campo"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
			key.WithHelp("shift+tab/↑", "Campo anterior"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Avançar"),
		),
		NextStep: key.NewBinding(
			key.WithKeys("ctrl+n", "pgdown"),
			key.WithHelp("ctrl+n", "Próxima etapa"),
		),
		PrevStep: key.NewBinding(
			key.WithKeys("ctrl+p", "pgup"),
			key.WithHelp("ctrl+p", "Etapa anterior"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Enviar inscrição"),
		),
		Sync: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "Sincronizar agora"),
		),
		Dismiss: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Fechar avisos"),
		),
	}
}

// footer lists the bindings shown in the status bar.
func (k keyMap) footer() []key.Binding {
	return []key.Binding{k.PrevStep, k.NextStep, k.Submit, k.Sync, k.Help, k.Quit}
}

// sections groups bindings for the help overlay.
func (k keyMap) sections() []helpSection {
	return []helpSection{
		{title: "Campos", bindings: []key.Binding{k.NextField, k.PrevField, k.Confirm}},
		{title: "Etapas", bindings: []key.Binding{k.NextStep, k.PrevStep, k.Submit}},
		{title: "Fila", bindings: []key.Binding{k.Sync, k.Dismiss}},
		{title: "Geral", bindings: []key.Binding{k.CycleTheme, k.Help, k.Quit}},
	}
}

package models

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
)

type wizardKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Next   key.Binding
	Back   key.Binding
	Reload key.Binding
	Field  key.Binding
	Choose key.Binding
	Help   key.Binding
	Quit   key.Binding
}

func (k wizardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Next, k.Back, k.Reload, k.Field, k.Choose, k.Help, k.Quit}
}

func (k wizardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Toggle, k.Next, k.Back},
		{k.Reload, k.Field, k.Choose, k.Help, k.Quit},
	}
}

func defaultWizardKeyMap() wizardKeyMap {
	return wizardKeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle"),
		),
		Next: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload genres"),
		),
		Field: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next habit"),
		),
		Choose: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "choose"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "abandon"),
		),
	}
}

// forStep enables the bindings that mean something on step.
func (k wizardKeyMap) forStep(step onboarding.Step, completed bool) wizardKeyMap {
	lists := step == onboarding.StepGenre || step == onboarding.StepBooks || step.IsCategory()
	moving := step < onboarding.StepAnalyzing && !completed

	k.Up.SetEnabled(lists && !completed)
	k.Down.SetEnabled(lists && !completed)
	k.Toggle.SetEnabled(lists && !completed)
	k.Next.SetEnabled(moving || completed)
	k.Back.SetEnabled(moving)
	k.Reload.SetEnabled(step == onboarding.StepGenre && !completed)
	k.Field.SetEnabled(step == onboarding.StepStyle && !completed)
	k.Choose.SetEnabled(step == onboarding.StepStyle && !completed)
	k.Help.SetEnabled(!completed)

	switch {
	case completed:
		k.Next.SetHelp("enter", "quit")
		k.Quit.SetHelp("q", "quit")
	case step == onboarding.StepWelcome:
		k.Next.SetHelp("enter", "begin")
		k.Quit.SetHelp("q", "quit")
	}
	return k
}

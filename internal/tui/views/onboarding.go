// Package views launches the terminal client's bubbletea programs.
package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/listenupapp/listenup-onboarding/internal/tui/models"
)

// RunOnboarding runs the wizard over driver until the user completes,
// leaves or abandons it. The driver is closed on return.
func RunOnboarding(driver models.Driver, opts ...tea.ProgramOption) (models.WizardModel, error) {
	defer driver.Close()

	p := tea.NewProgram(models.NewWizardModel(driver), opts...)
	final, err := p.Run()
	if err != nil {
		return models.WizardModel{}, fmt.Errorf("onboarding wizard failed: %w", err)
	}

	m, ok := final.(models.WizardModel)
	if !ok {
		return models.WizardModel{}, fmt.Errorf("onboarding wizard returned %T", final)
	}
	return m, nil
}

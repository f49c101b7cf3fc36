// Package main is the terminal client of the onboarding wizard. It runs the
// wizard in-process against the ListenUp backend.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/listenupapp/listenup-onboarding/internal/backend"
	"github.com/listenupapp/listenup-onboarding/internal/config"
	"github.com/listenupapp/listenup-onboarding/internal/id"
	"github.com/listenupapp/listenup-onboarding/internal/logger"
	"github.com/listenupapp/listenup-onboarding/internal/onboarding"
	"github.com/listenupapp/listenup-onboarding/internal/service"
	"github.com/listenupapp/listenup-onboarding/internal/store/sqlite"
	"github.com/listenupapp/listenup-onboarding/internal/tui/models"
	"github.com/listenupapp/listenup-onboarding/internal/tui/views"
)

var (
	envFile       string
	backendURL    string
	token         string
	analysisDelay time.Duration
	booksPerGenre int
	maxPurposes   int
	journal       bool
	logFile       string
	noAltScreen   bool
)

var rootCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Set up your ListenUp reading preferences",
	Long: `Walk through the ListenUp preference wizard in the terminal.

The wizard asks for:
  1. Genres      -- pick from the server's catalog
  2. Books       -- books you enjoyed in each chosen genre
  3. Purpose     -- why you read
  4. Style       -- storytelling, length, pace and difficulty
  5. Mood        -- moods and emotions you look for
  6. Themes      -- themes that draw you in

Your answers are saved to your account and used to build a taste report.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadEnv(envFile, func(c *config.Config) {
			flags := cmd.Flags()
			if flags.Changed("backend-url") {
				c.Backend.URL = backendURL
			}
			if flags.Changed("analysis-delay") {
				c.Wizard.AnalysisDelay = analysisDelay
			}
			if flags.Changed("books-per-genre") {
				c.Wizard.BooksPerGenre = booksPerGenre
			}
			if flags.Changed("max-purposes") {
				c.Wizard.MaxPurposes = maxPurposes
			}
		})
		if err != nil {
			return err
		}
		if token == "" {
			token = os.Getenv("LISTENUP_TOKEN")
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "path to .env file")
	rootCmd.Flags().StringVar(&backendURL, "backend-url", "", "base URL of the ListenUp backend (default: $BACKEND_URL)")
	rootCmd.Flags().StringVar(&token, "token", "", "bearer token for your account (default: $LISTENUP_TOKEN)")
	rootCmd.Flags().DurationVar(&analysisDelay, "analysis-delay", 0, "delay shown before submission (default: $WIZARD_ANALYSIS_DELAY or 2s)")
	rootCmd.Flags().IntVar(&booksPerGenre, "books-per-genre", 0, "candidate books per genre (default: 12)")
	rootCmd.Flags().IntVar(&maxPurposes, "max-purposes", 0, "maximum reading purposes (default: 3)")
	rootCmd.Flags().BoolVar(&journal, "journal", false, "also record the submission in the local journal under DATA_PATH")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	rootCmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "render inline instead of in the alternate screen")
}

func run(cfg *config.Config) error {
	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	client := backend.New(backend.Config{
		BaseURL: cfg.Backend.URL,
		Timeout: cfg.Backend.Timeout,
		RPS:     float64(cfg.Backend.RPS),
		Burst:   cfg.Backend.Burst,
	}, log.ForComponent("backend")).WithToken(token)
	defer client.Close()

	coord := onboarding.NewSubmissionCoordinator(client, client, log.ForComponent("submission"))
	if journal {
		if err := os.MkdirAll(cfg.Store.DataPath, 0o755); err != nil {
			return fmt.Errorf("create data path: %w", err)
		}
		store, err := sqlite.Open(cfg.Store.DatabasePath(), log.ForComponent("journal"))
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		coord = coord.WithJournal(store, service.UserID(token))
	}

	sessionID, err := id.NewSession()
	if err != nil {
		return err
	}
	ctrl := onboarding.NewController(client, coord, onboarding.ControllerConfig{
		SessionID: sessionID,
		Limits: onboarding.Limits{
			MaxPurposes:   cfg.Wizard.MaxPurposes,
			BooksPerGenre: cfg.Wizard.BooksPerGenre,
		},
		AnalysisDelay:    cfg.Wizard.AnalysisDelay,
		FetchConcurrency: cfg.Wizard.FetchConcurrency,
		Logger:           log.ForComponent("onboarding"),
	})

	var opts []tea.ProgramOption
	if !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	final, err := views.RunOnboarding(ctrl, opts...)
	if err != nil {
		return err
	}

	switch final.Result() {
	case models.ResultCompleted:
		out, _ := final.Outcome()
		fmt.Printf("Preferences saved for %d genres and %d books.\n", len(out.Payload.Genres), len(out.Payload.SelectedBooks))
		if out.Report != nil {
			fmt.Printf("Taste report requested: %s\n", out.Report.ID)
		}
	case models.ResultExited:
		fmt.Println("Left the wizard. Nothing was saved.")
	case models.ResultAbandoned:
		fmt.Println("Wizard abandoned.")
	}
	return nil
}

// openLogger keeps logs off the terminal the wizard draws on.
func openLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	if logFile == "" {
		return logger.Discard(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log := logger.New(logger.Config{
		Writer:      f,
		Format:      "json",
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	})
	return log, func() { _ = f.Close() }, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

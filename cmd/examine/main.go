package main

import (
	"flag"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/tensorplex-labs/clevr-action/internal/config"
	"github.com/tensorplex-labs/clevr-action/internal/examine"
	"github.com/tensorplex-labs/clevr-action/internal/utils/logger"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load environment configuration")
	}

	questionFile := flag.String("question_file", cfg.OutputQuestionsFile, "question file to examine")
	interactive := flag.Bool("interactive", false, "browse questions in the terminal")
	flag.Parse()

	logger.Init(cfg.Environment)
	defer logger.Sync()

	f, err := examine.Load(*questionFile)
	if err != nil {
		logger.Sync()
		log.Fatal().Err(err).Msg("failed to read question file")
	}

	if !*interactive {
		if err := examine.Print(os.Stdout, f.Questions); err != nil {
			logger.Sync()
			log.Fatal().Err(err).Msg("failed to print questions")
		}
		return
	}

	if _, err := tea.NewProgram(examine.NewBrowser(f), tea.WithAltScreen()).Run(); err != nil {
		logger.Sync()
		log.Fatal().Err(err).Msg("browser exited with error")
	}
}

package commands

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mokshasoul/bank2ynab/internal/bank"
	"github.com/mokshasoul/bank2ynab/internal/config"
	"github.com/mokshasoul/bank2ynab/internal/mapping"
	"github.com/mokshasoul/bank2ynab/internal/plugins"
	"github.com/mokshasoul/bank2ynab/internal/prompt"
	"github.com/mokshasoul/bank2ynab/internal/ynab"
)

func newRunCommand() *cobra.Command {
	var (
		confPath     string
		userConfPath string
		mappingsPath string
		noUpload     bool
		verbose      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process configured bank exports and upload to YNAB",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(verbose)
			return runAll(confPath, userConfPath, mappingsPath, noUpload, log)
		},
	}

	cmd.Flags().StringVar(&confPath, "conf", "bank2ynab.conf", "base configuration file")
	cmd.Flags().StringVar(&userConfPath, "user-conf", "user_configuration.conf", "user override configuration file")
	cmd.Flags().StringVar(&mappingsPath, "mappings", "ynab_account_mappings.yaml", "saved bank-to-account mapping file")
	cmd.Flags().BoolVar(&noUpload, "no-upload", false, "process files without uploading to YNAB")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// runAll processes every configured bank format sequentially, then hands
// the aggregated transactions to the upload phase. Only a missing
// configuration file aborts the run.
func runAll(confPath, userConfPath, mappingsPath string, noUpload bool, log zerolog.Logger) error {
	handler, err := config.Load(confPath, userConfPath, log)
	if err != nil {
		return err
	}

	registry := plugins.DefaultRegistry()

	filesProcessed := 0
	txns := make(map[string][]ynab.Transaction)
	saveToggles := make(map[string]bool)

	for _, name := range handler.SectionNames() {
		cfg, err := handler.BankFormat(name)
		if err != nil {
			log.Error().Err(err).Str("bank", name).Msg("bad configuration, skipping format")
			continue
		}
		saveToggles[name] = cfg.SaveAccount

		h, err := bank.New(cfg, registry, log)
		if err != nil {
			log.Error().Err(err).Str("bank", name).Msg("skipping format")
			continue
		}
		if err := h.Run(); err != nil {
			log.Error().Err(err).Str("bank", name).Msg("format run failed")
			continue
		}
		filesProcessed += h.FilesProcessed
		if len(h.Transactions) > 0 {
			txns[name] = h.Transactions
		}
	}

	log.Info().Int("files", filesProcessed).Msg("file processing complete")

	if noUpload || len(txns) == 0 {
		return nil
	}

	token := handler.APIToken()
	if token == "" {
		log.Info().Msg("no API token given, not uploading transaction data")
		return nil
	}

	store, err := mapping.Load(mappingsPath)
	if err != nil {
		log.Error().Err(err).Msg("could not load account mappings, skipping upload")
		return nil
	}

	client := ynab.NewClient(token, log)
	picker := prompt.New(os.Stdin, os.Stdout)
	uploader := ynab.NewUploader(client, store, picker, func(bank string) bool {
		return saveToggles[bank]
	}, log)

	if err := uploader.Run(txns); err != nil {
		log.Error().Err(err).Msg("upload failed")
	}
	return nil
}

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mokshasoul/bank2ynab/internal/config"
)

func newListCommand() *cobra.Command {
	var confPath string
	var userConfPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configured bank formats",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(false)
			handler, err := config.Load(confPath, userConfPath, log)
			if err != nil {
				return err
			}
			for _, name := range handler.SectionNames() {
				cfg, err := handler.BankFormat(name)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t(invalid: %v)\n", name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tpattern=%s%s\tcolumns=%s\n",
					name, cfg.FilePattern, cfg.Ext, strings.Join(cfg.InputColumns, ","))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&confPath, "conf", "bank2ynab.conf", "base configuration file")
	cmd.Flags().StringVar(&userConfPath, "user-conf", "user_configuration.conf", "user override configuration file")

	return cmd
}

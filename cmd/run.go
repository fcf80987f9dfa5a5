package cmd

import (
	"log"

	"github.com/latom-bot/latom/latom"
	"github.com/spf13/cobra"
)

var (
	runCmd = &cobra.Command{
		Use:   "run [flags]",
		Short: "Starts the Latom Discord bot",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx := cmd.Context()
			bot, err := latom.New(cfg)
			if err != nil {
				log.Fatalf("error creating latom: %s", err.Error())
			}

			if err = bot.Run(ctx); err != nil {
				log.Fatalf("error running latom: %s", err.Error())
			}
		},
	}
)

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(runCmd)
}

package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "menuscope",
		Short:         "Harvest restaurant menus and estimate dish nutrition",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Write machine-readable JSON instead of tables")

	rootCmd.AddCommand(newFetchCommand(ctx))
	for _, cmd := range newHarvestCommands(ctx) {
		rootCmd.AddCommand(cmd)
	}
	rootCmd.AddCommand(newEstimateCommand(ctx))
	rootCmd.AddCommand(newNutritionCommand(ctx))
	rootCmd.AddCommand(newQueryCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

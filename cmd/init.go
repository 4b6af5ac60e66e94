package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kipesa/kipesa-api/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize kipesa configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure kipesa and generates a kipesa.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

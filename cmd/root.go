// Package cmd implements the kipesa CLI.
package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "kipesa",
	Short: "AI financial assistant backend for Tanzanian users",
	Long: `Kipesa is the backend for an AI-powered personal finance chatbot.
It serves a bilingual (English/Swahili) conversation API backed by an
LLM, a curated financial knowledge base, user accounts and personal
finance tracking.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; real deployments set environment variables
	// directly.
	godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "kipesa.yml", "config file path")
}

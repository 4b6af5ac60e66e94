package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to the given path.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to kipesa! Let's configure your server.")
	fmt.Println()

	cfg := DefaultConfig()

	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("port must be a number between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Port, _ = strconv.Atoi(portStr)

	dataPrompt := promptui.Prompt{
		Label:   "Data directory (SQLite database lives here)",
		Default: cfg.DataDir,
	}
	if cfg.DataDir, err = dataPrompt.Run(); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	modelPrompt := promptui.Select{
		Label: "Select chat model",
		Items: []string{"gpt-3.5-turbo", "gpt-4o-mini", "gpt-4o"},
	}
	if _, cfg.Model, err = modelPrompt.Run(); err != nil {
		return nil, fmt.Errorf("model selection: %w", err)
	}

	semanticPrompt := promptui.Select{
		Label: "Enable semantic knowledge search (requires embedding API calls)",
		Items: []string{"no", "yes"},
	}
	idx, _, err := semanticPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("semantic search: %w", err)
	}
	cfg.SemanticSearch = idx == 1

	secret, err := randomSecret()
	if err != nil {
		return nil, fmt.Errorf("generating jwt secret: %w", err)
	}
	cfg.JWTSecret = secret

	if err := cfg.Save(path); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Printf("Configuration written to %s\n", path)
	fmt.Printf("Set %s before starting the server.\n", APIKeyEnvVar(cfg.Provider))
	return cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

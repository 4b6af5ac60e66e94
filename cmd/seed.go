package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kipesa/kipesa-api/internal/config"
	"github.com/kipesa/kipesa-api/internal/db"
	"github.com/kipesa/kipesa-api/internal/knowledge"
)

// seedFile is the YAML shape of a knowledge seed file.
type seedFile struct {
	Items []struct {
		Title    string `yaml:"title"`
		Content  string `yaml:"content"`
		Language string `yaml:"language"`
		Category string `yaml:"category"`
	} `yaml:"items"`
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yml>",
	Short: "Load knowledge base items from a YAML file",
	Long: `Reads financial knowledge items from a YAML file and inserts them into
the knowledge base. Items are stored active and become available to the
chatbot immediately after the knowledge cache expires.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading seed file: %w", err)
		}

		var seed seedFile
		if err := yaml.Unmarshal(data, &seed); err != nil {
			return fmt.Errorf("parsing seed file: %w", err)
		}
		if len(seed.Items) == 0 {
			return fmt.Errorf("seed file contains no items")
		}

		database, err := db.Open(filepath.Join(cfg.DataDir, "kipesa.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := knowledge.NewStore(database)
		bar := progressbar.NewOptions(len(seed.Items),
			progressbar.OptionSetDescription("Seeding knowledge"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)

		for _, it := range seed.Items {
			if it.Title == "" || it.Content == "" {
				return fmt.Errorf("item %q: title and content are required", it.Title)
			}
			_, err := store.Insert(cmd.Context(), knowledge.Item{
				Title:    it.Title,
				Content:  it.Content,
				Language: it.Language,
				Category: it.Category,
				IsActive: true,
			})
			if err != nil {
				return fmt.Errorf("inserting %q: %w", it.Title, err)
			}
			bar.Add(1)
		}
		bar.Finish()

		total, err := store.Count(cmd.Context())
		if err != nil {
			return fmt.Errorf("counting items: %w", err)
		}
		fmt.Printf("Seeded %d items (%d total in knowledge base)\n", len(seed.Items), total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

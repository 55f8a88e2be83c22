package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/logger"
	"github.com/abhisek/prepwise/internal/store"
)

// log is built in PersistentPreRunE from PREPWISE_LOG.
var log = logger.Nop()

var rootCmd = &cobra.Command{
	Use:   "prepwise",
	Short: "Turn study material into quizzes",
	Long:  "PrepWise generates multiple-choice, single-word and short-answer questions from study material and grades your answers.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; real environment variables always win.
		_ = godotenv.Load()

		l, err := logger.New(os.Getenv("PREPWISE_LOG"))
		if err != nil {
			return err
		}
		log = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		log.Sync()
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PREPWISE_DB env var)")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(materialsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(regenerateCmd)
	rootCmd.AddCommand(quizCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(keyCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PREPWISE_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/llm"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the model API key",
}

var keyValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that an API key is accepted by the configured provider",
	Long: `Check that an API key is accepted by the configured provider with one tiny
request. The key comes from --key, then from the environment, then from stdin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadLLMConfig()

		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			key = cfg.Credential()
		}
		if key == "" && cfg.Provider != llm.ProviderMock {
			fmt.Fprint(os.Stderr, "API key: ")
			line, err := bufio.NewReader(os.Stdin).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read API key: %w", err)
			}
			key = strings.TrimSpace(line)
		}

		if err := llm.ValidateCredential(cmd.Context(), cfg, key); err != nil {
			return err
		}
		fmt.Printf("API key accepted by the %s provider.\n", cfg.Provider)
		return nil
	},
}

func init() {
	keyValidateCmd.Flags().String("key", "", "API key to check (default: from the environment)")

	keyCmd.AddCommand(keyValidateCmd)
}

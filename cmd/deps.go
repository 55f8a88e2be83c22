package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepwise/internal/llm"
	"github.com/abhisek/prepwise/internal/store"
)

// openStore opens the database selected by --db or the environment.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// loadLLMConfig reads the PREPWISE_* variables. When no provider is chosen
// explicitly and no PrepWise key is set, the standard vendor key variables
// are probed instead.
func loadLLMConfig() llm.Config {
	cfg := llm.ConfigFromEnv()
	if os.Getenv("PREPWISE_LLM_PROVIDER") != "" || cfg.Credential() != "" {
		return cfg
	}
	if found, ok := llm.DiscoverConfig(); ok {
		found.Timeout = cfg.Timeout
		found.Retry = cfg.Retry
		log.Debug("using discovered LLM credentials", "provider", found.Provider)
		return found
	}
	return cfg
}

// newGateway builds the model gateway, recording every request in events.
func newGateway(ctx context.Context, events store.EventRepo) (*llm.Gateway, error) {
	cfg := loadLLMConfig()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("LLM provider not configured: %w", err)
	}
	return llm.NewGatewayFromConfig(ctx, cfg, events, log)
}

// loadMaterial fetches a material, turning a miss into a readable error.
func loadMaterial(ctx context.Context, s *store.Store, id string) (*store.Material, error) {
	m, err := s.MaterialRepo().Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("material %q not found (see 'prepwise materials list')", id)
	}
	return m, err
}

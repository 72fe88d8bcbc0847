package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tramite-io/tramite/pkg/persistence"
	"github.com/tramite-io/tramite/pkg/persistence/memory"
	"github.com/tramite-io/tramite/pkg/persistence/postgresql"
)

// NewPersistence creates the store for the given URL. "postgres://" connects
// and runs migrations; "memory://" keeps everything in-process.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create postgres persistence: %w", err))
		}

		return p
	case "memory", "":
		return memory.NewPersistence()
	default:
		panic("Unsupported persistence provider in URL: " + databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return ""
	}

	return provider
}

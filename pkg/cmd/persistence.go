package cmd

import (
	"fmt"
	"strings"

	"github.com/merchflow/merchflow/pkg/persistence"
	"github.com/merchflow/merchflow/pkg/persistence/file"
	"github.com/merchflow/merchflow/pkg/persistence/redis"
)

// NewPersistence selects a storage backend from the database URL
// scheme. Anything that is not redis falls back to file storage.
func NewPersistence(databaseURL string) persistence.Persistence {
	switch parsePersistenceProvider(databaseURL) {
	case "redis", "rediss":
		store, err := redis.NewPersistence(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create redis persistence: %w", err))
		}

		return store
	default:
		store, err := file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
		if err != nil {
			panic(fmt.Errorf("failed to create file persistence: %w", err))
		}

		return store
	}
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	return parts[0]
}

package settings

import (
	"context"
	"fmt"
	"time"
)

// saveTimeout bounds a single autosave write.
const saveTimeout = 5 * time.Second

// Logger defines the logging interface used by Bind.
type Logger interface {
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Bind hydrates store from the repository and installs a change handler
// that saves the full snapshot after every effective change.
//
// Hydration goes through Import, so persisted values that differ from the
// store's defaults notify the store's handlers like any other change.
// Persisted values are conformed to the types the store declares; a value
// of an incompatible type is skipped with a warning.
//
// A failed Load leaves autosave off, so the unread persisted values are
// not overwritten. A failed Import still installs autosave. Autosave
// failures are logged, not returned: the in-memory value stays
// authoritative until the next successful save.
func Bind(ctx context.Context, store *Store, repo Repository, logger Logger) error {
	if logger == nil {
		logger = noopLogger{}
	}

	snap, err := repo.Load(ctx, store.Name())
	if err != nil {
		logger.Warn("settings autosave disabled", "store", store.Name(), "error", err)
		return fmt.Errorf("loading settings %q: %w", store.Name(), err)
	}
	snap, err = store.Conform(snap)
	if err != nil {
		logger.Warn("skipping persisted settings of the wrong type", "store", store.Name(), "error", err)
	}
	importErr := store.Import(snap)

	store.OnChange(func(c Change) {
		saveCtx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := repo.Save(saveCtx, store.Name(), store.Export()); err != nil {
			logger.Warn("saving settings failed", "store", store.Name(), "key", c.Key, "error", err)
		}
	})

	if importErr != nil {
		return fmt.Errorf("applying settings %q: %w", store.Name(), importErr)
	}
	return nil
}

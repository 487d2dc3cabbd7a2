// Package settings provides the typed key/value store every controller
// entity keeps its user-adjustable settings in.
//
// A Store holds a flat set of keys, each with exactly one value of one of
// five types (string, integer, boolean, duration, float). Changing a value
// notifies registered handlers exactly once; writing an equal value is
// silent. Snapshots produced by Export can be re-applied with Import and
// serialised to a flat JSON object for persistence.
//
// # Persistence
//
// Stores are persisted through a Repository. SQLiteRepository keeps one row
// per store in the controller database; Bind hydrates a store on startup and
// saves it on every change:
//
//	store := settings.NewStore("actuator/kitchen-socket")
//	store.Default("IsEnabled", settings.Boolean(true))
//	if err := settings.Bind(ctx, store, repo, logger); err != nil {
//	    return err
//	}
package settings

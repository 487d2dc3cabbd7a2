package api

import (
	"io"
	"net/http"

	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

// ExposeSettings registers GET and POST {base}/settings for an entity's
// settings store.
//
// GET returns the store as a flat JSON object. POST merges a flat JSON
// object into the store. Values are conformed to the types of existing
// keys, so "7:30" stays a caption and 20 sets a float; a caption cannot be
// replaced by a number.
func ExposeSettings(router entity.Router, base string, store *settings.Store) {
	router.Get(base+"/settings", func(w http.ResponseWriter, _ *http.Request) {
		data, err := store.Export().MarshalJSON()
		if err != nil {
			WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Best-effort write to response; connection may be closed
		w.Write(data)
	})

	router.Post(base+"/settings", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			WriteError(w, err)
			return
		}
		snap, err := settings.ParseSnapshot(body)
		if err != nil {
			WriteError(w, err)
			return
		}
		snap, err = store.Conform(snap)
		if err != nil {
			WriteError(w, err)
			return
		}
		if err := store.Import(snap); err != nil {
			WriteError(w, err)
			return
		}
		data, err := store.Export().MarshalJSON()
		if err != nil {
			WriteError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		//nolint:errcheck // Best-effort write to response; connection may be closed
		w.Write(data)
	})
}

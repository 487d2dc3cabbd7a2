package audit

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/apperr"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
)

// ExposeToAPI registers GET /audit on router.
//
// Query parameters: action, entity_id, since (RFC 3339), limit, offset.
func ExposeToAPI(router entity.Router, repo Repository) {
	router.Get("/audit", func(w http.ResponseWriter, r *http.Request) {
		f, err := parseFilter(r)
		if err != nil {
			api.WriteError(w, err)
			return
		}
		page, err := repo.List(r.Context(), f)
		if err != nil {
			api.WriteError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, page)
	})
}

func parseFilter(r *http.Request) (Filter, error) {
	q := r.URL.Query()
	f := Filter{
		Action:   q.Get("action"),
		EntityID: q.Get("entity_id"),
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"limit", &f.Limit},
		{"offset", &f.Offset},
	}
	for _, p := range ints {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: %s must be a non-negative integer", apperr.ErrInvalidArgument, p.name)
		}
		*p.dst = n
	}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%w: since must be RFC 3339", apperr.ErrInvalidArgument)
		}
		f.Since = t
	}
	return f, nil
}

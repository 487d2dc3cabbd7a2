package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-controller/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-controller/migrations"
)

func testRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewSQLiteRepository(db.DB)
}

func seed(t *testing.T, repo *SQLiteRepository, base time.Time) {
	t.Helper()
	events := []Event{
		{Action: ActionCommand, EntityKind: "Socket", EntityID: "lamp", Source: "api", Details: map[string]any{"state": "on"}, CreatedAt: base},
		{Action: ActionCommand, EntityKind: "Socket", EntityID: "fan", Source: "mqtt", CreatedAt: base.Add(time.Minute)},
		{Action: ActionAutomation, EntityKind: "TimeWindow", EntityID: "evening", Source: "automation", CreatedAt: base.Add(2 * time.Minute)},
		{Action: ActionCommand, EntityKind: "Socket", EntityID: "lamp", Source: "automation", CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range events {
		if err := repo.Append(context.Background(), &events[i]); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if events[i].ID == "" {
			t.Fatal("Append() should assign an id")
		}
	}
}

func TestSQLiteRepository_List(t *testing.T) {
	repo := testRepo(t)
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	seed(t, repo, base)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  Filter
		total   int
		firstID string
	}{
		{"all newest first", Filter{}, 4, "lamp"},
		{"by action", Filter{Action: ActionAutomation}, 1, "evening"},
		{"by entity", Filter{EntityID: "lamp"}, 2, "lamp"},
		{"since", Filter{Since: base.Add(30 * time.Second)}, 3, "lamp"},
		{"offset", Filter{Offset: 3}, 4, "lamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if page.Total != tt.total {
				t.Errorf("Total = %d, want %d", page.Total, tt.total)
			}
			if len(page.Events) == 0 || page.Events[0].EntityID != tt.firstID {
				t.Errorf("first event = %+v, want %s", page.Events, tt.firstID)
			}
		})
	}

	page, err := repo.List(ctx, Filter{EntityID: "lamp"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	oldest := page.Events[len(page.Events)-1]
	if oldest.Details["state"] != "on" || !oldest.CreatedAt.Equal(base) {
		t.Errorf("oldest lamp event = %+v", oldest)
	}
	if page.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", page.Limit, DefaultLimit)
	}
}

func TestSQLiteRepository_Prune(t *testing.T) {
	repo := testRepo(t)
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	seed(t, repo, base)

	n, err := repo.Prune(context.Background(), base.Add(90*time.Second))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Prune() = %d, want 2", n)
	}
	page, err := repo.List(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 2 {
		t.Errorf("Total after prune = %d, want 2", page.Total)
	}
}

type mapRouter map[string]http.HandlerFunc

func (m mapRouter) Get(pattern string, h http.HandlerFunc)  { m["GET "+pattern] = h }
func (m mapRouter) Post(pattern string, h http.HandlerFunc) { m["POST "+pattern] = h }

func TestExposeToAPI(t *testing.T) {
	repo := testRepo(t)
	seed(t, repo, time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC))
	router := mapRouter{}
	ExposeToAPI(router, repo)

	handler := router["GET /audit"]
	if handler == nil {
		t.Fatal("GET /audit not registered")
	}

	tests := []struct {
		query  string
		status int
		events int
	}{
		{"", http.StatusOK, 4},
		{"?entity_id=lamp&limit=1", http.StatusOK, 1},
		{"?since=2026-03-01T18:01:30Z", http.StatusOK, 2},
		{"?limit=-1", http.StatusBadRequest, 0},
		{"?since=yesterday", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler(rec, httptest.NewRequest(http.MethodGet, "/audit"+tt.query, nil))
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			var page Page
			if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(page.Events) != tt.events {
				t.Errorf("events = %d, want %d", len(page.Events), tt.events)
			}
		})
	}
}

package area

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nerrad567/gray-logic-controller/internal/apperr"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/settings"
)

type mapRouter map[string]http.HandlerFunc

func (m mapRouter) Get(pattern string, h http.HandlerFunc)  { m["GET "+pattern] = h }
func (m mapRouter) Post(pattern string, h http.HandlerFunc) { m["POST "+pattern] = h }

func TestArea_WithActuator(t *testing.T) {
	a, err := New("kitchen")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var _ entity.Area = a

	for _, id := range []entity.ActuatorID{"kettle", "radio"} {
		if err := a.WithActuator(id); err != nil {
			t.Fatalf("WithActuator(%s): %v", id, err)
		}
	}
	err = a.WithActuator("kettle")
	if !errors.Is(err, ErrDuplicateActuator) || !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("duplicate WithActuator error = %v", err)
	}
	if err := a.WithActuator(""); !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Errorf("empty WithActuator error = %v", err)
	}

	got := a.Actuators()
	if len(got) != 2 || got[0] != "kettle" || got[1] != "radio" {
		t.Errorf("Actuators() = %v", got)
	}
	got[0] = "mutated"
	if a.Actuators()[0] != "kettle" {
		t.Error("Actuators() returned internal slice")
	}
}

func TestArea_Settings(t *testing.T) {
	ctx := context.Background()
	repo := settings.NewMemoryRepository()
	if err := repo.Save(ctx, "area/kitchen", settings.Snapshot{
		{Key: SettingSortValue, Value: settings.Integer(3)},
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	a, err := New("kitchen", WithCaption("Kitchen"), WithSortValue(9), WithSettingsRepository(repo))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.SortValue() != 9 {
		t.Errorf("default SortValue() = %d, want 9", a.SortValue())
	}
	if err := a.LoadSettings(ctx); err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if a.Caption() != "Kitchen" || a.SortValue() != 3 {
		t.Errorf("after load caption=%q sort=%d", a.Caption(), a.SortValue())
	}
}

func TestArea_API(t *testing.T) {
	a, err := New("hall", WithCaption("Hallway"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.WithActuator("lamp"); err != nil {
		t.Fatalf("WithActuator: %v", err)
	}

	router := mapRouter{}
	a.ExposeToAPI(router)

	h, ok := router["GET /areas/hall"]
	if !ok {
		t.Fatalf("routes = %v", router)
	}
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/areas/hall", nil))

	var status Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if status.Caption != "Hallway" || len(status.Actuators) != 1 || status.Actuators[0] != "lamp" {
		t.Errorf("status = %+v", status)
	}
	if _, ok := router["POST /areas/hall/settings"]; !ok {
		t.Error("settings endpoint not registered")
	}
}

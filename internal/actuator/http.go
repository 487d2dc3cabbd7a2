package actuator

import (
	"net/http"

	"github.com/nerrad567/gray-logic-controller/internal/api"
	"github.com/nerrad567/gray-logic-controller/internal/entity"
	"github.com/nerrad567/gray-logic-controller/internal/rfsocket"
)

// Status is the API representation of a socket.
type Status struct {
	ID      entity.ActuatorID `json:"id"`
	Kind    entity.Kind       `json:"kind"`
	Caption string            `json:"caption"`
	Enabled bool              `json:"enabled"`
	State   string            `json:"state"`
}

type commandRequest struct {
	State string `json:"state"`
}

// Status returns the socket's current API representation.
func (s *Socket) Status() (Status, error) {
	st, err := s.State()
	if err != nil {
		return Status{}, err
	}
	return Status{
		ID:      s.id,
		Kind:    SocketKind,
		Caption: s.Caption(),
		Enabled: s.Enabled(),
		State:   stateText(st),
	}, nil
}

// ExposeToAPI registers the socket's endpoints.
func (s *Socket) ExposeToAPI(router entity.Router) {
	base := "/actuators/" + string(s.id)
	router.Get(base, s.handleStatus)
	router.Post(base, s.handleCommand)
	api.ExposeSettings(router, base, s.store)
}

func (s *Socket) handleStatus(w http.ResponseWriter, _ *http.Request) {
	status, err := s.Status()
	if err != nil {
		api.WriteError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, status)
}

func (s *Socket) handleCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := api.DecodeJSON(r, &req); err != nil {
		api.WriteError(w, err)
		return
	}
	if err := s.Apply(req.State, SourceAPI); err != nil {
		api.WriteError(w, err)
		return
	}
	s.handleStatus(w, r)
}

// stateText renders a binary state as the API's "on" or "off".
func stateText(st rfsocket.BinaryState) string {
	if st == rfsocket.High {
		return "on"
	}
	return "off"
}

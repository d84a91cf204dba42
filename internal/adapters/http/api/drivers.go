package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okian/momentum/internal/domain/model"
)

// DriversHandler serves driver profiles and championship positions.
type DriversHandler struct {
	deps Dependencies
}

// NewDriversHandler creates a new drivers handler.
func NewDriversHandler(deps Dependencies) *DriversHandler {
	return &DriversHandler{deps: deps}
}

type driverResponse struct {
	Driver   model.Driver `json:"driver"`
	Standing *Entry       `json:"standing,omitempty"`
}

// HandleGetDriver handles GET /drivers/{id} requests. The standing is
// omitted for drivers that have not scored yet.
func (h *DriversHandler) HandleGetDriver(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/drivers/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_driver_id", errors.New("driver id must be a positive integer"))
		return
	}

	driver, err := h.deps.Driver(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "unknown_driver", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "driver_failed", err)
		return
	}

	resp := driverResponse{Driver: driver}
	if entry, err := h.deps.DriverStanding(r.Context(), id); err == nil {
		resp.Standing = &entry
	}
	writeJSON(w, http.StatusOK, resp)
}

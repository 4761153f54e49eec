// Package api is the thin HTTP surface of spec §6: every handler only
// decodes the request, calls into internal/session, internal/registry, or
// internal/planner, and encodes the result. No business logic lives here.
//
// Routing uses gorilla/mux for the path-parameterized artwork routes,
// rather than hand-rolled string splitting — the pack's only real router
// dependency, already pulled in alongside gorilla/websocket.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/canvas"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/hidtransport"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/paintcore"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/planner"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/registry"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/session"
	"github.com/ystk-kai/splatoon3-ghost-drawer/internal/tunables"
)

type Server struct {
	reg       *registry.Registry
	sup       *session.Supervisor
	hidDevice string
}

func New(reg *registry.Registry, sup *session.Supervisor, hidDevice string) *Server {
	return &Server{reg: reg, sup: sup, hidDevice: hidDevice}
}

// Router builds the mux.Router with every route in spec §6's table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/artworks", s.handleCreateArtwork).Methods(http.MethodPost)
	r.HandleFunc("/api/artworks/{id}/path", s.handlePath).Methods(http.MethodGet)
	r.HandleFunc("/api/artworks/{id}/strategies", s.handleStrategies).Methods(http.MethodGet)
	r.HandleFunc("/api/artworks/{id}/paint", s.handlePaint).Methods(http.MethodPost)
	r.HandleFunc("/api/painting/pause", s.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/api/painting/stop", s.handleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/painting/timing", s.handleTiming).Methods(http.MethodPost)
	r.HandleFunc("/api/painting/repeats", s.handleRepeats).Methods(http.MethodPost)
	r.HandleFunc("/api/calibration/start", s.handleCalibrationStart).Methods(http.MethodPost)
	r.HandleFunc("/api/hardware/status", s.handleHardwareStatus).Methods(http.MethodGet)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps a paintcore error Kind to an HTTP status per spec §7's
// propagation table: 409 for Busy, 400 for Invalid Input; anything else
// that reaches here synchronously (Fatal, unexpected) is a 500 — Transport
// and Disconnected are recovered inside C4 and never surface here since
// paint() already returned {started:true} by the time they could occur.
func writeErr(w http.ResponseWriter, err error) {
	kind, ok := paintcore.KindOf(err)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	status := http.StatusInternalServerError
	switch kind {
	case paintcore.KindBusy:
		status = http.StatusConflict
	case paintcore.KindInvalidInput:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type createArtworkRequest struct {
	Name   string       `json:"name"`
	Width  int          `json:"width"`
	Height int          `json:"height"`
	Dots   []canvas.Dot `json:"dots"`
}

func (s *Server) handleCreateArtwork(w http.ResponseWriter, r *http.Request) {
	var req createArtworkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.CreateArtwork", err))
		return
	}
	c, err := canvas.Decode(req.Width, req.Height, req.Dots)
	if err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.CreateArtwork", err))
		return
	}
	id := s.reg.Insert(req.Name, c)
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

// artworkOr404 resolves the {id} path variable. An unknown id is reported
// as Invalid Input, so the response status is 400, not 404.
func (s *Server) artworkOr404(w http.ResponseWriter, r *http.Request) (registry.Artwork, bool) {
	id := mux.Vars(r)["id"]
	a, ok := s.reg.Get(id)
	if !ok {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api", paintcore.ErrUnknownArtwork))
		return registry.Artwork{}, false
	}
	return a, true
}

func strategyOrDefault(r *http.Request) (planner.Strategy, error) {
	name := r.URL.Query().Get("strategy")
	if name == "" {
		name = planner.NameRasterScan
	}
	strat, ok := planner.ByName(name)
	if !ok {
		return nil, paintcore.Wrap(paintcore.KindInvalidInput, "api", paintcore.ErrUnknownStrategy)
	}
	return strat, nil
}

func (s *Server) handlePath(w http.ResponseWriter, r *http.Request) {
	a, ok := s.artworkOr404(w, r)
	if !ok {
		return
	}
	strat, err := strategyOrDefault(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	path := strat.Plan(a.Canvas)
	est := planner.EstimateFor(path, 100, 60, 40, 1)

	type dotDTO struct{ X, Y int }
	dots := make([]dotDTO, len(path))
	for i, c := range path {
		dots[i] = dotDTO{X: c.X, Y: c.Y}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":               dots,
		"estimated_time_sec": est.DurationSec,
	})
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	a, ok := s.artworkOr404(w, r)
	if !ok {
		return
	}
	type row struct {
		Strategy       string `json:"strategy"`
		DPadOperations int    `json:"dpad_operations"`
		AButtonPresses int    `json:"a_button_presses"`
	}
	out := make([]row, 0, 4)
	for _, strat := range planner.All() {
		path := strat.Plan(a.Canvas)
		out = append(out, row{
			Strategy:       strat.Name(),
			DPadOperations: planner.TotalManhattanLength(path),
			AButtonPresses: len(path),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type paintRequest struct {
	PressMs            int    `json:"press_ms"`
	ReleaseMs          int    `json:"release_ms"`
	WaitMs             int    `json:"wait_ms"`
	Strategy           string `json:"strategy"`
	Repeats            int    `json:"repeats"`
	Preview            bool   `json:"preview,omitempty"`
	SkipInitialization bool   `json:"skip_initialization,omitempty"`
}

func (req paintRequest) triple() tunables.Triple {
	return tunables.Triple{PressMs: req.PressMs, ReleaseMs: req.ReleaseMs, WaitMs: req.WaitMs}
}

func validateTiming(t tunables.Triple) error {
	for _, v := range []int{t.PressMs, t.ReleaseMs, t.WaitMs} {
		if v < 1 || v > 10000 {
			return paintcore.Wrap(paintcore.KindInvalidInput, "api", paintcore.ErrTimingOutOfRange)
		}
	}
	return nil
}

func (s *Server) handlePaint(w http.ResponseWriter, r *http.Request) {
	a, ok := s.artworkOr404(w, r)
	if !ok {
		return
	}
	var req paintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Paint", err))
		return
	}
	if err := validateTiming(req.triple()); err != nil {
		writeErr(w, err)
		return
	}
	strat, ok2 := planner.ByName(req.Strategy)
	if !ok2 {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Paint", paintcore.ErrUnknownStrategy))
		return
	}
	if req.Repeats < 1 {
		req.Repeats = 1
	}

	_, err := s.sup.Start(session.StartParams{
		Artwork:            a,
		Strategy:           strat,
		Timing:             req.triple(),
		Repeats:            req.Repeats,
		SkipInitialization: req.SkipInitialization,
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	_ = s.sup.Pause()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	_ = s.sup.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type timingRequest struct {
	PressMs   int `json:"press_ms"`
	ReleaseMs int `json:"release_ms"`
	WaitMs    int `json:"wait_ms"`
}

func (s *Server) handleTiming(w http.ResponseWriter, r *http.Request) {
	var req timingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Timing", err))
		return
	}
	t := tunables.Triple{PressMs: req.PressMs, ReleaseMs: req.ReleaseMs, WaitMs: req.WaitMs}
	if err := validateTiming(t); err != nil {
		writeErr(w, err)
		return
	}
	if err := s.sup.UpdateTiming(t); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type repeatsRequest struct {
	Repeats int `json:"repeats"`
}

func (s *Server) handleRepeats(w http.ResponseWriter, r *http.Request) {
	var req repeatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Repeats", err))
		return
	}
	if req.Repeats < 1 {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Repeats", paintcore.ErrTimingOutOfRange))
		return
	}
	if err := s.sup.UpdateRepeats(req.Repeats); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type calibrationRequest struct {
	PressMs            int  `json:"press_ms"`
	ReleaseMs          int  `json:"release_ms"`
	WaitMs             int  `json:"wait_ms"`
	SkipInitialization bool `json:"skip_initialization"`
}

func (s *Server) handleCalibrationStart(w http.ResponseWriter, r *http.Request) {
	var req calibrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, paintcore.Wrap(paintcore.KindInvalidInput, "api.Calibration", err))
		return
	}
	t := tunables.Triple{PressMs: req.PressMs, ReleaseMs: req.ReleaseMs, WaitMs: req.WaitMs}
	if err := validateTiming(t); err != nil {
		writeErr(w, err)
		return
	}
	if _, err := s.sup.StartCalibration(t, req.SkipInitialization); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"started": true})
}

func (s *Server) handleHardwareStatus(w http.ResponseWriter, r *http.Request) {
	status := hidtransport.ProbeHardware(s.hidDevice)
	writeJSON(w, http.StatusOK, map[string]any{
		"console_connected":    status.ConsoleConnected,
		"gadget_available":     status.GadgetAvailable,
		"hid_device_available": status.HIDDeviceAvailable,
		"details":              status.Details,
	})
}

package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gps-navigator/internal/common/contextx"
	"gps-navigator/internal/common/log"
	"gps-navigator/internal/general/contracts"
	"gps-navigator/internal/general/jwt"
	"gps-navigator/internal/navigation/app"
	navws "gps-navigator/internal/navigation/adapters/ws"
)

type Handler struct {
	appService *app.AppService
	wsHandler  *navws.WSHandler
	jwt        *jwt.Manager
	logger     *slog.Logger
}

// NewHandler constructs the API handler
func NewHandler(appService *app.AppService, wsHandler *navws.WSHandler, mgr *jwt.Manager, lg *slog.Logger) *Handler {
	return &Handler{
		appService: appService,
		wsHandler:  wsHandler,
		jwt:        mgr,
		logger:     lg,
	}
}

func (h *Handler) Router() http.Handler {
	requireAuth := jwt.AuthMiddlewareFunc(h.jwt)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/gps/position", requireAuth(h.handleIngestPosition))
	mux.HandleFunc("GET /api/gps/current", h.handleCurrentPosition)
	mux.HandleFunc("GET /api/gps/poll", h.handlePollPosition)
	mux.HandleFunc("POST /api/route/calculate", h.handleCalculateRoute)
	mux.HandleFunc("POST /api/navigation/cancel", h.handleCancelNavigation)
	mux.HandleFunc("GET /api/navigation/session", h.handleSessionSnapshot)
	mux.HandleFunc("GET /api/navigation/history", h.handleNavigationHistory)
	mux.HandleFunc("GET /api/favorites", h.handleListFavorites)
	mux.HandleFunc("POST /api/favorites", h.handleAddFavorite)
	mux.HandleFunc("DELETE /api/favorites/{id}", h.handleDeleteFavorite)
	mux.HandleFunc("/api/ws", h.wsHandler.HandleWS)
	return mux
}

// -------------------- GPS --------------------

type ingestPositionResponse struct {
	Accepted bool                   `json:"accepted"`
	Position contracts.PositionWire `json:"position"`
}

func (h *Handler) handleIngestPosition(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	start := time.Now()

	var wire contracts.PositionWire
	if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
		log.Error(ctx, h.logger, "invalid_body", "Unable to decode position body", err)
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	accepted, err := h.appService.IngestPosition(ctx, wire)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, ingestPositionResponse{Accepted: accepted, Position: wire})
	log.Info(ctx, h.logger, "position_ingested",
		fmt.Sprintf("accepted=%t duration_ms=%d", accepted, time.Since(start).Milliseconds()))
}

func (h *Handler) handleCurrentPosition(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	position, ok, err := h.appService.CurrentPosition(ctx)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}
	if !ok {
		writeJSONError(ctx, w, http.StatusNotFound, "no position available")
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, contracts.PositionToWire(position))
}

func (h *Handler) handlePollPosition(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	position, err := h.appService.PollDevicePosition(ctx)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, contracts.PositionToWire(position))
}

// -------------------- NAVIGATION --------------------

type calculateRouteRequest struct {
	DestinationLat float64 `json:"destination_lat"`
	DestinationLng float64 `json:"destination_lng"`
	VehicleType    string  `json:"vehicle_type"`
}

func (h *Handler) handleCalculateRoute(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())
	start := time.Now()

	var req calculateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error(ctx, h.logger, "invalid_body", "Unable to decode route request body", err)
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.VehicleType) == "" {
		req.VehicleType = "CAR"
	}

	snapshot, err := h.appService.StartNavigation(ctx, req.DestinationLat, req.DestinationLng, req.VehicleType)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusAccepted, snapshotToWire(snapshot))
	log.Info(ctx, h.logger, "route_requested",
		fmt.Sprintf("session=%s duration_ms=%d", snapshot.SessionID, time.Since(start).Milliseconds()))
}

func (h *Handler) handleCancelNavigation(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	if err := h.appService.CancelNavigation(ctx); err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, map[string]string{"status": "CANCELLED"})
}

func (h *Handler) handleSessionSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	snapshot, ok := h.appService.SessionSnapshot()
	if !ok {
		writeJSONError(ctx, w, http.StatusNotFound, "no navigation session")
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, snapshotToWire(snapshot))
}

func (h *Handler) handleNavigationHistory(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	sessions, err := h.appService.NavigationHistory(ctx)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	out := make([]sessionWire, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionToWire(&sessions[i]))
	}
	writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"sessions": out})
}

// -------------------- FAVORITES --------------------

type favoriteRequest struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Category  string  `json:"category"`
}

func (h *Handler) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	favorites, err := h.appService.ListFavorites(ctx)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	out := make([]favoriteWire, 0, len(favorites))
	for i := range favorites {
		out = append(out, favoriteToWire(&favorites[i]))
	}
	writeJSONInfo(ctx, w, http.StatusOK, map[string]any{"favorites": out})
}

func (h *Handler) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error(ctx, h.logger, "invalid_body", "Unable to decode favorite body", err)
		writeJSONError(ctx, w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	favorite, err := h.appService.AddFavorite(ctx, req.Name, req.Address, req.Latitude, req.Longitude, req.Category)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}

	writeJSONInfo(ctx, w, http.StatusCreated, favoriteToWire(favorite))
}

func (h *Handler) handleDeleteFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := contextx.WithNewRequestID(r.Context())

	id := r.PathValue("id")
	if id == "" {
		writeJSONError(ctx, w, http.StatusBadRequest, "missing favorite id")
		return
	}

	deleted, err := h.appService.DeleteFavorite(ctx, id)
	if err != nil {
		h.handleAppError(ctx, w, err)
		return
	}
	if !deleted {
		writeJSONError(ctx, w, http.StatusNotFound, "favorite not found")
		return
	}

	writeJSONInfo(ctx, w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

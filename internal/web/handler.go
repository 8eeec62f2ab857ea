package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/glimpse/glimpse/internal/config"
	"github.com/glimpse/glimpse/internal/control"
	"github.com/glimpse/glimpse/internal/database"
	"github.com/glimpse/glimpse/internal/search"
)

// Bounds on caller-supplied query parameters.
const (
	defaultListLimit = 50
	maxListLimit     = 500
	defaultHitLimit  = 20
	maxHitLimit      = 200
	defaultEraseMins = 5
	maxEraseMins     = 240
)

type Handler struct {
	config *config.Config
	repo   *database.Repository
	index  *search.Index
	plane  *control.Plane
}

func NewHandler(cfg *config.Config, repo *database.Repository, index *search.Index, plane *control.Plane) *Handler {
	return &Handler{
		config: cfg,
		repo:   repo,
		index:  index,
		plane:  plane,
	}
}

func (h *Handler) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/captures", h.handleListCaptures)
	mux.HandleFunc("GET /api/captures/{id}", h.handleGetCapture)
	mux.HandleFunc("GET /api/captures/{id}/image", h.handleGetImage)
	mux.HandleFunc("GET /api/search", h.handleSearch)
	mux.HandleFunc("GET /api/status", h.handleStatus)

	mux.HandleFunc("POST /api/control/pause", h.handlePause)
	mux.HandleFunc("POST /api/control/resume", h.handleResume)
	mux.HandleFunc("POST /api/control/erase", h.handleErase)

	mux.HandleFunc("GET /health", h.handleHealth)

	mux.HandleFunc("GET /{$}", h.handleIndex)
}

func (h *Handler) handleListCaptures(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit, 1, maxListLimit)

	records, err := h.repo.ListRecent(limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list captures: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, records)
}

func (h *Handler) handleGetCapture(w http.ResponseWriter, r *http.Request) {
	record, err := h.repo.GetByID(r.PathValue("id"))
	if err != nil {
		if err == database.ErrNotFound {
			http.Error(w, "Capture not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to fetch capture: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, record)
}

func (h *Handler) handleGetImage(w http.ResponseWriter, r *http.Request) {
	record, err := h.repo.GetByID(r.PathValue("id"))
	if err != nil {
		if err == database.ErrNotFound {
			http.Error(w, "Capture not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Failed to fetch capture: %v", err), http.StatusInternalServerError)
		return
	}

	data, err := os.ReadFile(record.ImagePath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to read image: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.config.Search.Enabled {
		http.Error(w, "Search is disabled", http.StatusNotFound)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		http.Error(w, "Missing query parameter q", http.StatusBadRequest)
		return
	}

	limit := queryInt(r, "limit", defaultHitLimit, 1, maxHitLimit)

	records, err := h.index.Search(query, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("Search failed: %v", err), http.StatusInternalServerError)
		return
	}

	respondJSON(w, records)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.repo.CountActive()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to count captures: %v", err), http.StatusInternalServerError)
		return
	}

	latest, err := h.repo.Latest()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch latest capture: %v", err), http.StatusInternalServerError)
		return
	}

	status := map[string]interface{}{
		"paused":      h.plane.IsPaused(),
		"captures":    count,
		"capture_dir": h.config.Capture.Dir,
		"time":        time.Now().Format(time.RFC3339),
	}
	if latest != nil {
		status["latest"] = latest
	}

	respondJSON(w, status)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.plane.SetPaused(true)
	log.Println("Capturing paused via API")
	respondJSON(w, map[string]bool{"paused": true})
}

func (h *Handler) handleResume(w http.ResponseWriter, r *http.Request) {
	h.plane.SetPaused(false)
	log.Println("Capturing resumed via API")
	respondJSON(w, map[string]bool{"paused": false})
}

func (h *Handler) handleErase(w http.ResponseWriter, r *http.Request) {
	minutes := queryInt(r, "minutes", defaultEraseMins, 1, maxEraseMins)

	deleted, err := h.repo.DeleteRecent(time.Duration(minutes) * time.Minute)
	if err != nil {
		http.Error(w, fmt.Sprintf("Erase failed: %v", err), http.StatusInternalServerError)
		return
	}

	log.Printf("Erased %d captures from the last %d minutes", deleted, minutes)
	respondJSON(w, map[string]int64{"deleted": deleted})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// queryInt parses an integer query parameter and clamps it to a sane
// range.
func queryInt(r *http.Request, name string, def, min, max int) int {
	value := def
	if raw := r.URL.Query().Get(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			value = n
		}
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

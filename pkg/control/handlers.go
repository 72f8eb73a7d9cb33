// Package control provides the HTTP control surface of the crawler
// @title TransferCrawler Control API
// @version 1.0
// @description Health, identity and control endpoints of the token transfer crawler
// @host localhost:8080
// @basePath /
// @schemes http
package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/control"
	"github.com/goran-ethernal/TransferCrawler/internal/crawler"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
)

const notFoundText = "Looks like no page here"

// CrawlerStatus exposes the loop state to the health endpoint.
type CrawlerStatus interface {
	State() crawler.State
	Height() uint64
}

// WatchSet exposes the size of the watch list to the health endpoint.
type WatchSet interface {
	Len() int
}

// Handler handles HTTP requests for the control API.
type Handler struct {
	identity IdentityResponse
	status   CrawlerStatus
	watched  WatchSet
	flags    *control.Flags
	log      *logger.Logger
}

// NewHandler creates a new control handler.
func NewHandler(identity IdentityResponse, status CrawlerStatus, watched WatchSet, flags *control.Flags, log *logger.Logger) *Handler {
	return &Handler{
		identity: identity,
		status:   status,
		watched:  watched,
		flags:    flags,
		log:      log,
	}
}

// Health returns the state of the crawler loop.
// @Summary Health check
// @Description Report the crawler loop state, cursor height and watch list size. Answers while the loop is stopped.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Crawler status"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		Timestamp:     time.Now(),
		Crawler:       h.status.State().String(),
		Height:        h.status.Height(),
		Watched:       h.watched.Len(),
		ReloadPending: h.flags.ReloadPending(),
	})
}

// Identity describes the running service.
// @Summary Service identity
// @Description Name, version and active network of the crawler
// @Tags Control
// @Produce json
// @Success 200 {object} IdentityResponse "Service identity"
// @Router /api/me [post]
func (h *Handler) Identity(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.identity)
}

// ReloadWatchedAddresses schedules a watch list reload.
// @Summary Reload the watch list
// @Description Ask the crawler to reload watched addresses from the database before its next fetch
// @Tags Control
// @Produce json
// @Success 202 {object} ActionResponse "Reload scheduled"
// @Router /api/reload_watched_addresses [post]
func (h *Handler) ReloadWatchedAddresses(w http.ResponseWriter, r *http.Request) {
	h.flags.RequestReload()
	h.log.Infow("watch list reload requested", "remote", r.RemoteAddr)
	respondJSON(w, http.StatusAccepted, ActionResponse{Status: "reload scheduled"})
}

// Stop asks the crawler loop to stop.
// @Summary Stop the crawler
// @Description Ask the crawler loop to stop before its next fetch. Blocks already dispatched are finished. The control server keeps running.
// @Tags Control
// @Produce json
// @Success 202 {object} ActionResponse "Stop scheduled"
// @Router /api/stop [post]
func (h *Handler) Stop(w http.ResponseWriter, r *http.Request) {
	h.flags.RequestStop()
	h.log.Infow("crawler stop requested", "remote", r.RemoteAddr)
	respondJSON(w, http.StatusAccepted, ActionResponse{Status: "stop scheduled"})
}

// NotFound answers every unknown path.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(notFoundText))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// Encode first so a failure can still produce a proper status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

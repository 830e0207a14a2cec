package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/database"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
)

const keepAliveInterval = 15 * time.Second

type eventsHandler struct {
	responder   Responder
	logger      zerolog.Logger
	bus         *realtime.Broadcaster
	projectRepo *database.ProjectRepo
}

func newEventsHandler(bus *realtime.Broadcaster, projectRepo *database.ProjectRepo) eventsHandler {
	logger := log.With().Str("handlerName", "eventsHandler").Logger()

	return eventsHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		bus:         bus,
		projectRepo: projectRepo,
	}
}

// stream pushes live portfolio updates over Server-Sent Events: an initial
// snapshot, then every projectsUpdated / adminLogin / adminLogout broadcast,
// with periodic keep-alive pings.
func (h eventsHandler) stream() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			h.responder.WriteError(w, fmt.Errorf("streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // nginx: disable buffering

		clientID := uuid.New().String()
		events, unsubscribe := h.bus.Subscribe(
			realtime.EventProjectsUpdated,
			realtime.EventAdminLogin,
			realtime.EventAdminLogout,
		)
		defer unsubscribe()

		h.logger.Info().Str("clientID", clientID).Msg("SSE client connected")
		defer h.logger.Info().Str("clientID", clientID).Msg("SSE client disconnected")

		// Send initial snapshot
		initialData, _ := json.Marshal(map[string]any{"projects": h.projectRepo.FindAll()})
		fmt.Fprintf(w, "event: initial\ndata: %s\n\n", initialData)
		flusher.Flush()

		ctx := r.Context()

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				// Client disconnected
				return

			case <-ticker.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()

			case event, ok := <-events:
				if !ok {
					return
				}
				eventData, err := json.Marshal(event)
				if err != nil {
					h.logger.Error().Err(err).Msg("failed to marshal event for stream")
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, eventData)
				flusher.Flush()
			}
		}
	}
}

package api

import (
	"github.com/valentinmtg/video-portfolio-backend/auth"
	"github.com/valentinmtg/video-portfolio-backend/database"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	projectHandler projectHandler
	authHandler    authHandler
	eventsHandler  eventsHandler
}

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, gate *auth.Gate, bus *realtime.Broadcaster) *routeHandlers {
	return &routeHandlers{
		projectHandler: newProjectHandler(db.ProjectRepo()),
		authHandler:    newAuthHandler(gate),
		eventsHandler:  newEventsHandler(bus, db.ProjectRepo()),
	}
}

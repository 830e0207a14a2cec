package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/database"
	"github.com/valentinmtg/video-portfolio-backend/errs"
	"github.com/valentinmtg/video-portfolio-backend/models"
)

type projectHandler struct {
	responder   Responder
	logger      zerolog.Logger
	projectRepo *database.ProjectRepo
}

func newProjectHandler(projectRepo *database.ProjectRepo) projectHandler {
	logger := log.With().Str("handlerName", "projectHandler").Logger()

	return projectHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		projectRepo: projectRepo,
	}
}

// ProjectCollection represents the full portfolio list
type ProjectCollection struct {
	Projects []models.Project `json:"projects"`
	Total    int              `json:"total"`
}

// getAllProjects retrieves the current project list, newest first
func (h projectHandler) getAllProjects() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projects := h.projectRepo.FindAll()

		h.responder.WriteJSON(w, ProjectCollection{
			Projects: projects,
			Total:    len(projects),
		})
	}
}

// getProject retrieves a specific project by ID
func (h projectHandler) getProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		if projectID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing projectID"))
			return
		}

		project := h.projectRepo.FindByID(projectID)
		if project == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("project not found"))
			return
		}

		h.responder.WriteJSON(w, project)
	}
}

// createProject validates the form fields, derives the video id and thumbnail
// from the YouTube URL and creates the project.
func (h projectHandler) createProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input models.ProjectInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode project request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if strings.TrimSpace(input.Title) == "" {
			h.responder.WriteError(w, errs.NewInvalidFieldError("title", "title is required"))
			return
		}
		if strings.TrimSpace(input.YoutubeURL) == "" {
			h.responder.WriteError(w, errs.NewInvalidFieldError("youtubeUrl", "YouTube URL is required"))
			return
		}

		videoID := models.ExtractVideoID(input.YoutubeURL)
		if videoID == "" {
			h.responder.WriteError(w, errs.NewInvalidFieldError("youtubeUrl", "invalid YouTube URL"))
			return
		}
		input.VideoID = videoID
		input.Thumbnail = models.ThumbnailURL(videoID)

		project, err := h.projectRepo.Add(r.Context(), input)
		if err != nil {
			h.responder.WriteError(w, wrapStoreError("create", "project", err))
			return
		}

		h.logger.Info().
			Str("username", ctxUsername(r.Context())).
			Str("projectID", project.ID).
			Msg("project created")

		w.WriteHeader(http.StatusCreated)
		h.responder.WriteJSON(w, project)
	}
}

// updateProject merges the provided fields into an existing project. When the
// YouTube URL changes the video id and thumbnail are re-derived.
func (h projectHandler) updateProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		if projectID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing projectID"))
			return
		}

		if h.projectRepo.FindByID(projectID) == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("project not found"))
			return
		}

		var update models.ProjectUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			h.logger.Error().Err(err).Msg("Failed to decode project request body")
			h.responder.WriteError(w, errs.NewBadRequestError("malformed request body"))
			return
		}

		if update.YoutubeURL != nil {
			videoID := models.ExtractVideoID(*update.YoutubeURL)
			if videoID == "" {
				h.responder.WriteError(w, errs.NewInvalidFieldError("youtubeUrl", "invalid YouTube URL"))
				return
			}
			thumbnail := models.ThumbnailURL(videoID)
			update.VideoID = &videoID
			update.Thumbnail = &thumbnail
		}

		if err := h.projectRepo.Update(r.Context(), projectID, update); err != nil {
			h.responder.WriteError(w, wrapStoreError("update", "project", err))
			return
		}

		h.responder.WriteJSON(w, h.projectRepo.FindByID(projectID))
	}
}

// deleteProject deletes a project by ID
func (h projectHandler) deleteProject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := chi.URLParam(r, "projectID")
		if projectID == "" {
			h.responder.WriteError(w, errs.NewBadRequestError("missing projectID"))
			return
		}

		if h.projectRepo.FindByID(projectID) == nil {
			h.responder.WriteError(w, errs.NewNotFoundError("project not found"))
			return
		}

		if err := h.projectRepo.Delete(r.Context(), projectID); err != nil {
			h.responder.WriteError(w, wrapStoreError("delete", "project", err))
			return
		}

		h.logger.Info().
			Str("username", ctxUsername(r.Context())).
			Str("projectID", projectID).
			Msg("project deleted")

		h.responder.WriteJSON(w, map[string]string{
			"status":  "success",
			"message": "project deleted successfully",
		})
	}
}

package database

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/valentinmtg/video-portfolio-backend/models"
	"github.com/valentinmtg/video-portfolio-backend/realtime"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

// ProjectRepo owns the authoritative in-memory project list for this instance
// and mirrors it to the shared store. List order is insertion order with
// newest-first on create. Every mutation persists the full list, stamps the
// sync marker and broadcasts both a projectsUpdated event and a manual
// storageChanged event (the shared store only notifies other instances, so
// same-process consumers would otherwise miss the write).
type ProjectRepo struct {
	kv     store.KV
	sync   *realtime.SyncService
	bus    *realtime.Broadcaster
	logger zerolog.Logger

	mu       sync.RWMutex
	projects []models.Project
}

func NewProjectRepo(kv store.KV, syncService *realtime.SyncService, bus *realtime.Broadcaster) *ProjectRepo {
	return &ProjectRepo{
		kv:     kv,
		sync:   syncService,
		bus:    bus,
		logger: log.With().Str("component", "projectRepo").Logger(),
	}
}

// Load reads the stored list into memory. A missing or malformed value seeds
// the default portfolio and persists it, matching the original first-run
// behavior.
func (r *ProjectRepo) Load(ctx context.Context) error {
	var projects []models.Project
	err := store.GetJSON(ctx, r.kv, store.KeyProjects, &projects)
	if err != nil {
		if err != store.ErrKeyNotFound {
			r.logger.Error().Err(err).Msg("stored project list unreadable, seeding defaults")
		}
		projects = models.DefaultProjects()
		r.mu.Lock()
		r.projects = projects
		r.mu.Unlock()
		return r.persist(ctx)
	}

	if projects == nil {
		projects = []models.Project{}
	}
	r.mu.Lock()
	r.projects = projects
	r.mu.Unlock()
	return nil
}

// FindAll returns a copy of the current list.
func (r *ProjectRepo) FindAll() []models.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	projects := make([]models.Project, len(r.projects))
	copy(projects, r.projects)
	return projects
}

// FindByID returns the matching project, or nil when no project has that id.
func (r *ProjectRepo) FindByID(id string) *models.Project {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.projects {
		if r.projects[i].ID == id {
			project := r.projects[i]
			return &project
		}
	}
	return nil
}

// Add assigns an id and timestamps, prepends the project and persists. The
// input is stored as-is; validation is the caller's concern.
func (r *ProjectRepo) Add(ctx context.Context, input models.ProjectInput) (models.Project, error) {
	now := time.Now()
	project := models.Project{
		ID:         models.NewProjectID(now),
		Title:      input.Title,
		Thumbnail:  input.Thumbnail,
		Duration:   input.Duration,
		Views:      input.Views,
		YoutubeURL: input.YoutubeURL,
		VideoID:    input.VideoID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	r.mu.Lock()
	for r.idExistsLocked(project.ID) {
		project.ID = bumpID(project.ID)
	}
	r.projects = append([]models.Project{project}, r.projects...)
	r.mu.Unlock()

	return project, r.persist(ctx)
}

// Update merges the non-nil fields into the matching project and refreshes
// updatedAt. An unknown id is a silent no-op.
func (r *ProjectRepo) Update(ctx context.Context, id string, update models.ProjectUpdate) error {
	r.mu.Lock()
	for i := range r.projects {
		if r.projects[i].ID != id {
			continue
		}
		applyUpdate(&r.projects[i], update)
		r.projects[i].UpdatedAt = time.Now()
		break
	}
	r.mu.Unlock()

	return r.persist(ctx)
}

// Delete removes the matching project if present and persists either way.
func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	kept := r.projects[:0]
	for _, project := range r.projects {
		if project.ID != id {
			kept = append(kept, project)
		}
	}
	r.projects = kept
	r.mu.Unlock()

	return r.persist(ctx)
}

// Replace swaps the in-memory list wholesale without persisting or
// broadcasting. Used by the cross-tab listener to apply writes observed from
// elsewhere; re-persisting here would echo the write back forever.
func (r *ProjectRepo) Replace(projects []models.Project) {
	replacement := make([]models.Project, len(projects))
	copy(replacement, projects)

	r.mu.Lock()
	r.projects = replacement
	r.mu.Unlock()
}

func (r *ProjectRepo) persist(ctx context.Context) error {
	r.mu.RLock()
	projects := make([]models.Project, len(r.projects))
	copy(projects, r.projects)
	r.mu.RUnlock()

	if err := store.SetJSON(ctx, r.kv, store.KeyProjects, projects); err != nil {
		return err
	}

	timestamp := r.sync.StampUpdate(ctx)

	serialized, err := serializeProjects(projects)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to serialize project list for broadcast")
		return nil
	}

	r.bus.Publish(realtime.Event{
		Type:      realtime.EventProjectsUpdated,
		Timestamp: timestamp,
		Projects:  projects,
		Source:    "admin",
	})
	r.bus.Publish(realtime.Event{
		Type:     realtime.EventStorageChanged,
		Key:      store.KeyProjects,
		NewValue: serialized,
	})
	return nil
}

func (r *ProjectRepo) idExistsLocked(id string) bool {
	for i := range r.projects {
		if r.projects[i].ID == id {
			return true
		}
	}
	return false
}

func serializeProjects(projects []models.Project) (string, error) {
	raw, err := json.Marshal(projects)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// bumpID increments a millisecond-derived id to keep ids unique when two
// creates land in the same millisecond.
func bumpID(id string) string {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return id + "0"
	}
	return strconv.FormatInt(n+1, 10)
}

func applyUpdate(project *models.Project, update models.ProjectUpdate) {
	if update.Title != nil {
		project.Title = *update.Title
	}
	if update.Thumbnail != nil {
		project.Thumbnail = *update.Thumbnail
	}
	if update.Duration != nil {
		project.Duration = *update.Duration
	}
	if update.Views != nil {
		project.Views = *update.Views
	}
	if update.YoutubeURL != nil {
		project.YoutubeURL = *update.YoutubeURL
	}
	if update.VideoID != nil {
		project.VideoID = *update.VideoID
	}
}

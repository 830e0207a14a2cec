package database

import (
	"context"

	"github.com/valentinmtg/video-portfolio-backend/realtime"
	"github.com/valentinmtg/video-portfolio-backend/store"
)

// Database bundles the repositories over the shared key-value store.
type Database struct {
	projectRepo *ProjectRepo
}

// New initializes a Database with each repository wired to the shared store,
// sync service and broadcaster.
func New(kv store.KV, syncService *realtime.SyncService, bus *realtime.Broadcaster) Database {
	return Database{
		projectRepo: NewProjectRepo(kv, syncService, bus),
	}
}

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

// Load hydrates every repository from the store.
func (d Database) Load(ctx context.Context) error {
	return d.projectRepo.Load(ctx)
}

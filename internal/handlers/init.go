package handlers

import (
	"github.com/markolybrx/Celi-AI/internal/pipeline"
	"github.com/markolybrx/Celi-AI/internal/services"
	"github.com/markolybrx/Celi-AI/internal/store"
	"github.com/markolybrx/Celi-AI/internal/tasks"
)

var (
	usersStore        *store.Users
	historyStore      *store.History
	mediaStore        *store.Media
	pipe              *pipeline.Pipeline
	taskQueue         tasks.Enqueuer
	cacheService      *services.CacheService
	cloudinaryService *services.CloudinaryService
)

// Deps is everything the handler layer needs. Cloudinary and the queue
// may be nil; the relevant endpoints degrade instead of crashing.
type Deps struct {
	Users      *store.Users
	History    *store.History
	Media      *store.Media
	Pipeline   *pipeline.Pipeline
	Queue      tasks.Enqueuer
	Cache      *services.CacheService
	Cloudinary *services.CloudinaryService
}

func Init(d Deps) {
	usersStore = d.Users
	historyStore = d.History
	mediaStore = d.Media
	pipe = d.Pipeline
	taskQueue = d.Queue
	cacheService = d.Cache
	cloudinaryService = d.Cloudinary
}

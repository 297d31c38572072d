package handlers

import (
	"gorm.io/gorm"

	"substack-digest-go/internal/ingest"
	"substack-digest-go/internal/repository"
	"substack-digest-go/internal/scheduler"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	db        *gorm.DB
	repo      *repository.Repository
	pipeline  *ingest.Pipeline
	scheduler *scheduler.Scheduler
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *gorm.DB, repo *repository.Repository, pipeline *ingest.Pipeline, s *scheduler.Scheduler) *Handlers {
	return &Handlers{db: db, repo: repo, pipeline: pipeline, scheduler: s}
}

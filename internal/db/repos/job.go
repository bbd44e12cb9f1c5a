// Package repos provides database repositories for jobs and tasks
package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

// ErrRecordNotFound is returned when a lookup matches no rows
var ErrRecordNotFound = gorm.ErrRecordNotFound

// JobRepository provides access to job-related database operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository instance
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create creates a new job in the database
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// Update updates an existing job in the database
func (r *JobRepository) Update(ctx context.Context, job *models.Job) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// UpdateStatus updates the status of a job in the database
func (r *JobRepository) UpdateStatus(ctx context.Context, jobID string, status models.JobStatus) error {
	return r.db.WithContext(ctx).Model(&models.Job{}).
		Where(&models.Job{JobID: jobID}).
		Update("status", status).Error
}

// GetByJobID retrieves a job by its external identifier
func (r *JobRepository) GetByJobID(ctx context.Context, jobID string) (*models.Job, error) {
	var job models.Job
	err := r.db.WithContext(ctx).Where(&models.Job{JobID: jobID}).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("job %s: %w", jobID, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return &job, nil
}

// List returns a list of jobs, optionally filtered by status
func (r *JobRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.Job, error) {
	var jobs []models.Job
	qry := &models.Job{}

	if opts != nil && opts.Status != nil {
		qry.Status = *opts.Status
	}

	db := r.db.WithContext(ctx).Model(&models.Job{}).Where(qry)
	if opts != nil {
		limit := opts.Limit
		if limit <= 0 {
			limit = models.DefaultLimit
		}
		db = db.Limit(limit).Offset(opts.Offset)
	}

	err := db.Order(models.JobCreatedAtField + " DESC").Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

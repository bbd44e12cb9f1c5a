package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vidlearn/genai-relay/internal/db/models"
)

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new instance of TaskRepository
func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

// Create creates a new task in the database
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetByTaskID retrieves a task by its pipeline-assigned identifier within a job
func (r *TaskRepository) GetByTaskID(ctx context.Context, jobRef uint, taskID string) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Where(models.Task{
		JobRef: jobRef,
		TaskID: taskID,
	}).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrRecordNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// GetOrCreate atomically resolves the task referenced by taskID, creating it
// in pending state on first sighting. The (job_ref, task_id) unique index
// guarantees two concurrent first sightings resolve to a single row.
func (r *TaskRepository) GetOrCreate(ctx context.Context, jobRef uint, taskID string) (*models.Task, error) {
	task := models.Task{
		JobRef: jobRef,
		TaskID: taskID,
		Status: models.TaskStatusPending,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&task).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	// Re-read so the conflict path also returns the stored row
	return r.GetByTaskID(ctx, jobRef, taskID)
}

// ListByJob retrieves all tasks for a specific job
func (r *TaskRepository) ListByJob(ctx context.Context, jobRef uint) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Where(models.Task{JobRef: jobRef}).
		Order("id ASC").Find(&tasks).Error
	return tasks, err
}

// Update updates an existing task in the database
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// UpdateStatus updates the status of a task in the database
func (r *TaskRepository) UpdateStatus(ctx context.Context, id uint, status models.TaskStatus) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where(&models.Task{Model: gorm.Model{ID: id}}).
		Update(models.TaskStatusField, status).Error
}

// MarkWebhookSent records whether the upstream delivery for the task's
// latest transition went through
func (r *TaskRepository) MarkWebhookSent(ctx context.Context, id uint, sent bool) error {
	return r.db.WithContext(ctx).Model(&models.Task{}).
		Where(&models.Task{Model: gorm.Model{ID: id}}).
		Update("webhook_sent", sent).Error
}

// AbortNonTerminal moves every non-terminal task of a job to aborted and
// returns the affected tasks as they were before the update
func (r *TaskRepository) AbortNonTerminal(ctx context.Context, jobRef uint) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Task{JobRef: jobRef}).
			Where(models.TaskStatusField+" NOT IN ?", []models.TaskStatus{
				models.TaskStatusCompleted,
				models.TaskStatusFailed,
				models.TaskStatusAborted,
			}).Find(&tasks).Error; err != nil {
			return err
		}
		if len(tasks) == 0 {
			return nil
		}
		ids := make([]uint, len(tasks))
		for i, task := range tasks {
			ids[i] = task.ID
		}
		return tx.Model(&models.Task{}).Where("id IN ?", ids).
			Update(models.TaskStatusField, models.TaskStatusAborted).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to abort tasks: %w", err)
	}
	return tasks, nil
}

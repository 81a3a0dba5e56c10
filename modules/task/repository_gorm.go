package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"gorm.io/gorm"
)

// taskRecord is the GORM model for the tasks table. Timestamps are written
// explicitly by the store, so GORM's auto-tracking is off.
type taskRecord struct {
	ID          string    `gorm:"primarykey;size:36"`
	UserID      string    `gorm:"size:64;not null;index"`
	Title       string    `gorm:"size:200;not null"`
	Description *string   `gorm:"size:2000"`
	Priority    string    `gorm:"size:16;not null;default:medium"`
	DueDate     time.Time `gorm:"not null;index"`
	Status      string    `gorm:"size:16;not null;default:pending;index"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

// TableName returns the table name for taskRecord.
func (taskRecord) TableName() string {
	return "tasks"
}

func toRecord(t *domain.Task) *taskRecord {
	return &taskRecord{
		ID:          t.ID,
		UserID:      t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *taskRecord) toDomain() *domain.Task {
	return &domain.Task{
		ID:          r.ID,
		OwnerID:     r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    domain.Priority(r.Priority),
		DueDate:     r.DueDate.UTC(),
		Status:      domain.Status(r.Status),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// GormRepository stores tasks through GORM (SQLite by default).
type GormRepository struct {
	db *gorm.DB
}

var _ domain.Backend = (*GormRepository)(nil)

// NewGormRepository creates a repository and migrates the tasks table.
func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &GormRepository{db: db}, nil
}

// Insert saves a new task to the database.
func (r *GormRepository) Insert(ctx context.Context, t *domain.Task) error {
	if err := r.db.WithContext(ctx).Create(toRecord(t)).Error; err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// FindOwned retrieves a task by ID and owner.
func (r *GormRepository) FindOwned(ctx context.Context, id, ownerID string) (*domain.Task, error) {
	var rec taskRecord
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return rec.toDomain(), nil
}

// ListOwned retrieves every task of an owner, newest first.
func (r *GormRepository) ListOwned(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	var recs []taskRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks: %w", err)
	}

	tasks := make([]*domain.Task, 0, len(recs))
	for i := range recs {
		tasks = append(tasks, recs[i].toDomain())
	}
	return tasks, nil
}

// ReplaceOwned writes the mutable columns of a task. A map is used so that
// a cleared description is written as NULL instead of being skipped.
func (r *GormRepository) ReplaceOwned(ctx context.Context, t *domain.Task) error {
	result := r.db.WithContext(ctx).
		Model(&taskRecord{}).
		Where("id = ? AND user_id = ?", t.ID, t.OwnerID).
		Updates(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"priority":    string(t.Priority),
			"due_date":    t.DueDate,
			"status":      string(t.Status),
			"updated_at":  t.UpdatedAt,
		})
	if err := result.Error; err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteOwned removes a task by ID and owner.
func (r *GormRepository) DeleteOwned(ctx context.Context, id, ownerID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, ownerID).
		Delete(&taskRecord{})
	if err := result.Error; err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}
	return result.RowsAffected > 0, nil
}

// Ping verifies the database connection.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection.
func (r *GormRepository) Close(_ context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

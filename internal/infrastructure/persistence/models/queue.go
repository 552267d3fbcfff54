package models

import (
	"time"

	"github.com/dropship/backend/internal/domain/queue"
	"github.com/dropship/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QueueJobModel is the persistence model for a marketplace refresh job
type QueueJobModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SubjectKey  string          `gorm:"type:varchar(128);not null;index"`
	Status      queue.JobStatus `gorm:"type:varchar(20);not null;default:pending;index:idx_queue_jobs_pending,priority:1"`
	Priority    int             `gorm:"not null;default:0;index:idx_queue_jobs_pending,priority:2"`
	RetryCount  int             `gorm:"not null;default:0"`
	LastError   string          `gorm:"type:text"`
	CreatedAt   time.Time       `gorm:"not null;index:idx_queue_jobs_pending,priority:3"`
	UpdatedAt   time.Time       `gorm:"not null"`
	CompletedAt *time.Time
}

// TableName returns the table name for GORM
func (QueueJobModel) TableName() string {
	return "queue_jobs"
}

// ToDomain converts the persistence model to a domain QueueJob
func (m *QueueJobModel) ToDomain() *queue.QueueJob {
	return &queue.QueueJob{
		ID:          m.ID,
		SubjectKey:  m.SubjectKey,
		Status:      m.Status,
		Priority:    m.Priority,
		RetryCount:  m.RetryCount,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CompletedAt: m.CompletedAt,
	}
}

// FromDomain populates the persistence model from a domain QueueJob
func (m *QueueJobModel) FromDomain(j *queue.QueueJob) {
	m.ID = j.ID
	m.SubjectKey = j.SubjectKey
	m.Status = j.Status
	m.Priority = j.Priority
	m.RetryCount = j.RetryCount
	m.LastError = j.LastError
	m.CreatedAt = j.CreatedAt
	m.UpdatedAt = j.UpdatedAt
	m.CompletedAt = j.CompletedAt
}

// ProductSnapshotModel is the last refreshed marketplace record of one subject
type ProductSnapshotModel struct {
	SubjectKey  string          `gorm:"type:varchar(128);primaryKey"`
	Title       string          `gorm:"type:varchar(500)"`
	Price       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	Quantity    int             `gorm:"not null;default:0"`
	SoldCount   int             `gorm:"not null;default:0"`
	WatchCount  int             `gorm:"not null;default:0"`
	RefreshedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductSnapshotModel) TableName() string {
	return "product_snapshots"
}

// ToDomain converts the persistence model to a domain ProductSnapshot
func (m *ProductSnapshotModel) ToDomain() *queue.ProductSnapshot {
	return &queue.ProductSnapshot{
		SubjectKey:  m.SubjectKey,
		Title:       m.Title,
		Price:       m.Price,
		Currency:    valueobject.Currency(m.Currency),
		Quantity:    m.Quantity,
		SoldCount:   m.SoldCount,
		WatchCount:  m.WatchCount,
		RefreshedAt: m.RefreshedAt,
	}
}

// FromDomain populates the persistence model from a domain ProductSnapshot
func (m *ProductSnapshotModel) FromDomain(s *queue.ProductSnapshot) {
	m.SubjectKey = s.SubjectKey
	m.Title = s.Title
	m.Price = s.Price
	m.Currency = string(s.Currency)
	m.Quantity = s.Quantity
	m.SoldCount = s.SoldCount
	m.WatchCount = s.WatchCount
	m.RefreshedAt = s.RefreshedAt
}

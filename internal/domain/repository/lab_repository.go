package repository

import (
	"context"

	"github.com/evolvia/student-lab-backend/internal/domain/entity"
)

// LabRepository defines the interface for lab record data access
type LabRepository interface {
	// Get retrieves a lab record by username
	Get(ctx context.Context, username string) (*entity.LabRecord, error)

	// Save persists a lab record, overwriting any existing record for
	// the same username
	Save(ctx context.Context, record *entity.LabRecord) error

	// Delete removes a lab record by username
	Delete(ctx context.Context, username string) error

	// ListAll enumerates every stored record with its remaining TTL
	ListAll(ctx context.Context) ([]*entity.LabWithTTL, error)
}

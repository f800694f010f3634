package db

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/evolvia/student-lab-backend/internal/domain/entity"
	"github.com/evolvia/student-lab-backend/internal/domain/repository"
	"github.com/evolvia/student-lab-backend/pkg/errors"
)

// keyPrefix namespaces lab records in the store
const keyPrefix = "lab:"

// LabRepository is the Redis implementation of the lab repository.
// Records are stored as JSON under "lab:<username>" without expiry; the
// store's TTL support is read out for display but never applied.
type LabRepository struct {
	client *redis.Client
}

// NewLabRepository creates a new lab repository backed by Redis
func NewLabRepository(client *redis.Client) repository.LabRepository {
	return &LabRepository{
		client: client,
	}
}

func labKey(username string) string {
	return keyPrefix + username
}

// Get implements repository.LabRepository
func (r *LabRepository) Get(ctx context.Context, username string) (*entity.LabRecord, error) {
	raw, err := r.client.Get(ctx, labKey(username)).Bytes()
	if err == redis.Nil {
		return nil, errors.NewNotFound("Lab")
	}
	if err != nil {
		return nil, errors.NewStoreError("Failed to load lab record").WithError(err)
	}

	var record entity.LabRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, errors.NewStoreError("Failed to decode lab record").WithError(err)
	}

	// The username is encoded in the key; make sure the record agrees
	// even for entries written by older deployments.
	if record.Username == "" {
		record.Username = username
	}

	return &record, nil
}

// Save implements repository.LabRepository. The record is written with
// no expiry; eviction is an explicit delete, never a timeout.
func (r *LabRepository) Save(ctx context.Context, record *entity.LabRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return errors.NewStoreError("Failed to encode lab record").WithError(err)
	}

	if err := r.client.Set(ctx, labKey(record.Username), raw, 0).Err(); err != nil {
		return errors.NewStoreError("Failed to store lab record").WithError(err)
	}

	return nil
}

// Delete implements repository.LabRepository
func (r *LabRepository) Delete(ctx context.Context, username string) error {
	deleted, err := r.client.Del(ctx, labKey(username)).Result()
	if err != nil {
		return errors.NewStoreError("Failed to delete lab record").WithError(err)
	}
	if deleted == 0 {
		return errors.NewNotFound("Lab")
	}
	return nil
}

// ListAll implements repository.LabRepository. Each record is returned
// with the store's remaining TTL in seconds (-1 when the key never
// expires, which is the normal case).
func (r *LabRepository) ListAll(ctx context.Context) ([]*entity.LabWithTTL, error) {
	keys, err := r.client.Keys(ctx, keyPrefix+"*").Result()
	if err != nil {
		return nil, errors.NewStoreError("Failed to enumerate lab records").WithError(err)
	}

	labs := make([]*entity.LabWithTTL, 0, len(keys))
	for _, key := range keys {
		username := strings.TrimPrefix(key, keyPrefix)

		record, err := r.Get(ctx, username)
		if err != nil {
			if errors.IsNotFound(err) {
				// Deleted between KEYS and GET; skip.
				continue
			}
			return nil, err
		}

		ttl, err := r.client.TTL(ctx, key).Result()
		if err != nil {
			return nil, errors.NewStoreError("Failed to read lab TTL").WithError(err)
		}

		labs = append(labs, &entity.LabWithTTL{
			LabRecord: *record,
			TTL:       ttlSeconds(ttl),
		})
	}

	return labs, nil
}

func ttlSeconds(d time.Duration) int64 {
	if d < 0 {
		return -1
	}
	return int64(d.Seconds())
}

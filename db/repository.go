package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const putBatchSize = 200

var errNotInitialized = errors.New("repository not initialized")

// ComputerRepository stores the local computer inventory.
type ComputerRepository interface {
	Put(ctx context.Context, c Computer) error
	PutMany(ctx context.Context, cs []Computer) error
	GetByID(ctx context.Context, id int) (*Computer, error)
	List(ctx context.Context) ([]Computer, error)
	ListByClient(ctx context.Context, clientID int) ([]Computer, error)
	SearchByName(ctx context.Context, nameSubstr string) ([]Computer, error)
	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}

// SyncRepository stores the single SyncState row.
type SyncRepository interface {
	Get(ctx context.Context) (*SyncState, error)
	Upsert(ctx context.Context, s *SyncState) error
}

type gormComputerRepo struct{ db *gorm.DB }

type gormSyncRepo struct{ db *gorm.DB }

// NewComputerRepository creates a ComputerRepository over db.
func NewComputerRepository(db *gorm.DB) ComputerRepository { return &gormComputerRepo{db: db} }

// NewSyncRepository creates a SyncRepository over db.
func NewSyncRepository(db *gorm.DB) SyncRepository { return &gormSyncRepo{db: db} }

func (r *gormComputerRepo) Put(ctx context.Context, c Computer) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&c).Error
}

// PutMany upserts cs in one transaction.
func (r *gormComputerRepo) PutMany(ctx context.Context, cs []Computer) error {
	if r.db == nil {
		return errNotInitialized
	}
	if len(cs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(cs, putBatchSize).Error; err != nil {
			return fmt.Errorf("failed to store %d computers: %w", len(cs), err)
		}
		return nil
	})
}

// GetByID returns nil, nil when no computer has id.
func (r *gormComputerRepo) GetByID(ctx context.Context, id int) (*Computer, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var c Computer
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *gormComputerRepo) List(ctx context.Context) ([]Computer, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var cs []Computer
	if err := r.db.WithContext(ctx).Order("name, id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *gormComputerRepo) ListByClient(ctx context.Context, clientID int) ([]Computer, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var cs []Computer
	if err := r.db.WithContext(ctx).Where("client_id = ?", clientID).Order("name, id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

// SearchByName matches nameSubstr anywhere in the name, ignoring ASCII case.
func (r *gormComputerRepo) SearchByName(ctx context.Context, nameSubstr string) ([]Computer, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var cs []Computer
	if err := r.db.WithContext(ctx).Where("name LIKE ?", "%"+nameSubstr+"%").Order("name, id").Find(&cs).Error; err != nil {
		return nil, err
	}
	return cs, nil
}

func (r *gormComputerRepo) Count(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, errNotInitialized
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&Computer{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *gormComputerRepo) Clear(ctx context.Context) error {
	if r.db == nil {
		return errNotInitialized
	}
	return r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(&Computer{}).Error
}

// Get returns nil, nil before the first refresh.
func (r *gormSyncRepo) Get(ctx context.Context) (*SyncState, error) {
	if r.db == nil {
		return nil, errNotInitialized
	}
	var s SyncState
	err := r.db.WithContext(ctx).First(&s, "id = ?", 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *gormSyncRepo) Upsert(ctx context.Context, s *SyncState) error {
	if r.db == nil {
		return errNotInitialized
	}
	s.ID = 1
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"server_url", "computers", "failed", "synced_at"}),
	}).Create(s).Error
}

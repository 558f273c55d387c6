package cms

import (
	"context"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultStoreID is the store every page lookup falls back to.
const DefaultStoreID uint = 0

const defaultStoreCode = "admin"

// Store is a site or sales-channel scope pages can be assigned to.
type Store struct {
	ID       uint   `gorm:"column:store_id;primaryKey;autoIncrement:false"`
	Code     string `gorm:"column:code;size:32;not null;uniqueIndex:idx_cms_store_code"`
	Name     string `gorm:"column:name;size:255;not null"`
	IsActive bool   `gorm:"column:is_active;not null"`
}

// TableName defines the table name for the Store model.
func (Store) TableName() string {
	return "cms_store"
}

// StoreRegistry resolves store identifiers for the page repository.
type StoreRegistry interface {
	DefaultStoreID() uint
	Resolve(ctx context.Context, id uint) (*Store, error)
	// Missing returns the subset of ids that do not name a known store.
	Missing(ctx context.Context, ids []uint) ([]uint, error)
	// WithTx returns a registry that reads through tx.
	WithTx(tx *gorm.DB) StoreRegistry
}

// Registry is the Gorm-backed StoreRegistry.
type Registry struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewRegistry constructs a Gorm-backed store registry.
func NewRegistry(db *gorm.DB, logger *logrus.Logger) (*Registry, error) {
	if db == nil {
		return nil, eris.New("gorm DB is required")
	}

	return &Registry{db: db, logger: logger}, nil
}

var _ StoreRegistry = (*Registry)(nil)

// WithTx returns a copy of the registry bound to tx.
func (r *Registry) WithTx(tx *gorm.DB) StoreRegistry {
	return &Registry{db: tx, logger: r.logger}
}

// DefaultStoreID returns the fallback store id.
func (r *Registry) DefaultStoreID() uint {
	return DefaultStoreID
}

// EnsureDefault creates the default store row if it does not exist yet.
func (r *Registry) EnsureDefault(ctx context.Context) error {
	store := Store{ID: DefaultStoreID, Code: defaultStoreCode, Name: "Admin", IsActive: true}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&store).Error
	if err != nil {
		r.logError(logrus.Fields{"store_id": DefaultStoreID}, err, "ensuring default store")
		return eris.Wrap(err, "ensuring default store")
	}

	return nil
}

// Register inserts a new store. The code must be unique.
func (r *Registry) Register(ctx context.Context, store *Store) error {
	if store == nil {
		return eris.New("store is nil")
	}

	store.Code = strings.TrimSpace(store.Code)
	if store.Code == "" {
		return eris.New("store code is required")
	}

	if store.ID == DefaultStoreID {
		return eris.Errorf("store id %d is reserved for the default store", DefaultStoreID)
	}

	if err := r.db.WithContext(ctx).Create(store).Error; err != nil {
		if isConstraintViolation(err) {
			return &IntegrityError{Reason: "store already exists: " + store.Code, Err: err}
		}
		r.logError(logrus.Fields{"store_id": store.ID, "code": store.Code}, err, "registering store")
		return eris.Wrapf(err, "registering store: %s", store.Code)
	}

	return nil
}

// Resolve returns the store with the given id or ErrNotFound.
func (r *Registry) Resolve(ctx context.Context, id uint) (*Store, error) {
	var store Store
	err := r.db.WithContext(ctx).Where("store_id = ?", id).Take(&store).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "store %d", id)
		}
		r.logError(logrus.Fields{"store_id": id}, err, "resolving store")
		return nil, eris.Wrapf(err, "resolving store: %d", id)
	}

	return &store, nil
}

// ResolveCode returns the store with the given code or ErrNotFound.
func (r *Registry) ResolveCode(ctx context.Context, code string) (*Store, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return nil, eris.New("store code is required")
	}

	var store Store
	err := r.db.WithContext(ctx).Where("code = ?", trimmed).Take(&store).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "store %s", trimmed)
		}
		r.logError(logrus.Fields{"code": trimmed}, err, "resolving store by code")
		return nil, eris.Wrapf(err, "resolving store by code: %s", trimmed)
	}

	return &store, nil
}

// Missing reports which of ids have no store row.
func (r *Registry) Missing(ctx context.Context, ids []uint) ([]uint, error) {
	missing, err := missingStores(r.db.WithContext(ctx), ids)
	if err != nil {
		r.logError(logrus.Fields{"store_ids": ids}, err, "checking store ids")
		return nil, err
	}

	return missing, nil
}

func missingStores(tx *gorm.DB, ids []uint) ([]uint, error) {
	wanted := normalizeStoreIDs(ids)
	if len(wanted) == 0 {
		return nil, nil
	}

	var found []uint
	if err := tx.Model(&Store{}).Where("store_id IN ?", wanted).Pluck("store_id", &found).Error; err != nil {
		return nil, eris.Wrap(err, "checking store ids")
	}

	var missing []uint
	for _, id := range wanted {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}

	return missing, nil
}

func (r *Registry) logError(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	entry := r.logger.WithField("error", err.Error())
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Error(message)
}

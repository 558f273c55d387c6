package cms

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storepages/app/internal/cache"
)

const defaultCacheTTL = 10 * time.Minute

// Repository defines persistence operations for store-scoped CMS pages.
type Repository interface {
	Save(ctx context.Context, page *Page) error
	Delete(ctx context.Context, page *Page) error
	Load(ctx context.Context, id uint) (*Page, error)
	LoadByIdentifier(ctx context.Context, identifier string, storeID uint) (*Page, error)
	List(ctx context.Context, storeID *uint) ([]Page, error)
	CheckIdentifier(ctx context.Context, identifier string, storeID uint) (uint, bool, error)
	TitleByIdentifier(ctx context.Context, identifier string, storeID uint) (string, bool, error)
	TitleByID(ctx context.Context, id uint) (string, bool, error)
	IdentifierByID(ctx context.Context, id uint) (string, bool, error)
	LookupStoreIDs(ctx context.Context, pageID uint) ([]uint, error)
}

// RepositoryOptions configures a GormRepository.
type RepositoryOptions struct {
	DB        *gorm.DB
	Stores    StoreRegistry
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
	// Cache is optional; when set, CheckIdentifier results are cached for CacheTTL.
	Cache    cache.Cache
	CacheTTL time.Duration
}

// GormRepository persists pages using a Gorm database connection.
type GormRepository struct {
	db        *gorm.DB
	stores    StoreRegistry
	logger    *logrus.Logger
	sentryHub *sentry.Hub
	cache     cache.Cache
	cacheTTL  time.Duration

	generationMu sync.Mutex
	generations  map[string]uint64
}

// NewRepository constructs a Gorm-backed repository implementation.
func NewRepository(opts RepositoryOptions) (*GormRepository, error) {
	if opts.DB == nil {
		return nil, eris.New("gorm DB is required")
	}
	if opts.Stores == nil {
		return nil, eris.New("store registry is required")
	}

	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	return &GormRepository{
		db:          opts.DB,
		stores:      opts.Stores,
		logger:      opts.Logger,
		sentryHub:   opts.SentryHub,
		cache:       opts.Cache,
		cacheTTL:    ttl,
		generations: make(map[string]uint64),
	}, nil
}

var _ Repository = (*GormRepository)(nil)

// savedState is restored onto the page when a save transaction rolls back.
type savedState struct {
	id           uint
	revision     uint64
	creationTime time.Time
	updateTime   time.Time
}

// Save writes the page and its store assignments in a single transaction.
// Pages flagged with MarkDeleted are deleted instead.
func (r *GormRepository) Save(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}

	if page.IsDeleted() {
		return r.Delete(ctx, page)
	}

	fields := logrus.Fields{"save_id": uuid.NewString(), "page_id": page.ID}
	before := savedState{id: page.ID, revision: page.Revision, creationTime: page.CreationTime, updateTime: page.UpdateTime}

	var previousIdentifier string
	if page.snapshot != nil {
		previousIdentifier = page.snapshot.identifier
	}

	var afterCommit []func()
	touched := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !page.HasChanges() {
			touched = true
			return nil
		}

		page.PrepareForSave()
		NormalizeThemeWindow(page)
		fields["identifier"] = page.Identifier

		if err := ValidateIdentifier(page.Identifier); err != nil {
			return err
		}

		desired := page.desiredStores()

		if err := checkUnique(tx, page, desired); err != nil {
			return err
		}

		missing, err := r.stores.WithTx(tx).Missing(ctx, desired)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return &IntegrityError{Reason: "unknown store ids", Err: eris.Errorf("stores %v do not exist", missing)}
		}

		if err := persistRow(tx, page); err != nil {
			return err
		}

		diff, err := syncStores(tx, page.ID, desired)
		if err != nil {
			return err
		}
		fields["stores_added"] = diff.Insert
		fields["stores_removed"] = diff.Delete

		identifier := page.Identifier
		afterCommit = append(afterCommit, func() {
			r.invalidateIdentifiers(ctx, previousIdentifier, identifier)
		})

		return nil
	})
	if err != nil {
		page.ID = before.id
		page.Revision = before.revision
		page.CreationTime = before.creationTime
		page.UpdateTime = before.updateTime
		page.markDirty()

		if !IsValidationError(err) {
			r.recordError(fields, err, "saving page")
		}
		if IsValidationError(err) || IsIntegrityError(err) {
			return err
		}
		return eris.Wrapf(err, "saving page: %s", page.Identifier)
	}

	for _, callback := range afterCommit {
		callback()
	}

	page.StoreIDs = page.desiredStores()
	page.markClean()

	if touched {
		r.logDebug(fields, "page unchanged, nothing written")
	} else {
		fields["page_id"] = page.ID
		fields["revision"] = page.Revision
		r.logDebug(fields, "page saved")
	}

	return nil
}

// checkUnique rejects a second page with the same identifier in any of the target stores.
func checkUnique(tx *gorm.DB, page *Page, storeIDs []uint) error {
	var count int64
	query := tx.Table("cms_page AS cp").
		Joins("JOIN cms_page_store AS cps ON cp.page_id = cps.page_id").
		Where("cp.identifier = ?", page.Identifier).
		Where("cps.store_id IN ?", storeIDs)
	if page.ID != 0 {
		query = query.Where("cp.page_id <> ?", page.ID)
	}

	if err := query.Count(&count).Error; err != nil {
		return eris.Wrapf(err, "checking identifier uniqueness: %s", page.Identifier)
	}

	if count > 0 {
		return &IntegrityError{Reason: "A page URL key for specified store already exists."}
	}

	return nil
}

// persistRow inserts a new page at revision 1 or updates an existing one, guarded by its revision.
func persistRow(tx *gorm.DB, page *Page) error {
	if page.ID == 0 {
		page.Revision = 1
		if err := tx.Omit(clause.Associations).Create(page).Error; err != nil {
			if isConstraintViolation(err) {
				return &IntegrityError{Reason: "inserting page", Err: err}
			}
			return eris.Wrapf(err, "inserting page: %s", page.Identifier)
		}
		return nil
	}

	now := time.Now().UTC()
	result := tx.Model(&Page{}).
		Where("page_id = ? AND revision = ?", page.ID, page.Revision).
		Updates(map[string]any{
			"identifier":           page.Identifier,
			"title":                page.Title,
			"page_layout":          page.PageLayout,
			"meta_keywords":        page.MetaKeywords,
			"meta_description":     page.MetaDescription,
			"content_heading":      page.ContentHeading,
			"content":              page.Content,
			"is_active":            page.IsActive,
			"sort_order":           page.SortOrder,
			"custom_theme":         page.CustomTheme,
			"custom_root_template": page.CustomRootTemplate,
			"custom_theme_from":    page.CustomThemeFrom,
			"custom_theme_to":      page.CustomThemeTo,
			"update_time":          now,
			"revision":             page.Revision + 1,
		})
	if result.Error != nil {
		if isConstraintViolation(result.Error) {
			return &IntegrityError{Reason: "updating page", Err: result.Error}
		}
		return eris.Wrapf(result.Error, "updating page %d", page.ID)
	}

	if result.RowsAffected == 0 {
		var exists int64
		if err := tx.Model(&Page{}).Where("page_id = ?", page.ID).Count(&exists).Error; err != nil {
			return eris.Wrapf(err, "checking page %d", page.ID)
		}
		if exists == 0 {
			return eris.Wrapf(ErrNotFound, "page %d", page.ID)
		}
		return &IntegrityError{Reason: "stale page revision", Err: ErrConflict}
	}

	page.Revision++
	page.UpdateTime = now
	return nil
}

// Delete removes the page and its store assignments.
func (r *GormRepository) Delete(ctx context.Context, page *Page) error {
	if page == nil {
		return eris.New("page is nil")
	}
	if page.ID == 0 {
		return eris.New("page id is required")
	}

	fields := logrus.Fields{"page_id": page.ID, "identifier": page.Identifier}

	var identifier string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record Page
		if err := tx.Where("page_id = ?", page.ID).Take(&record).Error; err != nil {
			if eris.Is(err, gorm.ErrRecordNotFound) {
				return eris.Wrapf(ErrNotFound, "page %d", page.ID)
			}
			return eris.Wrapf(err, "fetching page %d", page.ID)
		}
		identifier = record.Identifier

		if err := tx.Where("page_id = ?", page.ID).Delete(&PageStore{}).Error; err != nil {
			return eris.Wrapf(err, "removing store assignments for page %d", page.ID)
		}

		if err := tx.Where("page_id = ?", page.ID).Delete(&Page{}).Error; err != nil {
			return eris.Wrapf(err, "deleting page %d", page.ID)
		}

		return nil
	})
	if err != nil {
		if !eris.Is(err, ErrNotFound) {
			r.recordError(fields, err, "deleting page")
		}
		return err
	}

	r.invalidateIdentifiers(ctx, identifier, page.Identifier)

	page.deleted = false
	page.snapshot = nil
	page.StoreIDs = nil
	r.logDebug(fields, "page deleted")

	return nil
}

// Load returns the page with the given primary key along with its store assignments.
func (r *GormRepository) Load(ctx context.Context, id uint) (*Page, error) {
	var page Page
	err := r.db.WithContext(ctx).Where("page_id = ?", id).Take(&page).Error
	if err != nil {
		if eris.Is(err, gorm.ErrRecordNotFound) {
			return nil, eris.Wrapf(ErrNotFound, "page %d", id)
		}
		r.recordError(logrus.Fields{"page_id": id}, err, "loading page")
		return nil, eris.Wrapf(err, "loading page: %d", id)
	}

	if err := r.afterLoad(ctx, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// LoadByIdentifier returns the active page visible under identifier in storeID,
// preferring a store-specific page over the default-store one.
func (r *GormRepository) LoadByIdentifier(ctx context.Context, identifier string, storeID uint) (*Page, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil, eris.New("identifier is required")
	}

	active := true
	var pages []Page
	err := scopedQuery(r.db.WithContext(ctx), trimmed, r.candidateStores(storeID), &active).
		Select("cp.*").
		Find(&pages).Error
	if err != nil {
		r.recordError(logrus.Fields{"identifier": trimmed, "store_id": storeID}, err, "loading page by identifier")
		return nil, eris.Wrapf(err, "loading page by identifier: %s", trimmed)
	}

	if len(pages) == 0 {
		return nil, eris.Wrapf(ErrNotFound, "page %s in store %d", trimmed, storeID)
	}

	page := pages[0]
	if err := r.afterLoad(ctx, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

// List returns pages ordered by identifier. A non-nil storeID limits the result to pages
// visible in that store, default-store pages included.
func (r *GormRepository) List(ctx context.Context, storeID *uint) ([]Page, error) {
	query := r.db.WithContext(ctx).Model(&Page{})
	if storeID != nil {
		visible := r.db.Model(&PageStore{}).Select("page_id").Where("store_id IN ?", r.candidateStores(*storeID))
		query = query.Where("page_id IN (?)", visible)
	}

	var pages []Page
	if err := query.Order("identifier ASC").Order("page_id ASC").Find(&pages).Error; err != nil {
		r.recordError(nil, err, "listing pages")
		return nil, eris.Wrap(err, "listing pages")
	}

	if len(pages) == 0 {
		return pages, nil
	}

	ids := make([]uint, 0, len(pages))
	for _, page := range pages {
		ids = append(ids, page.ID)
	}

	var assignments []PageStore
	err := r.db.WithContext(ctx).
		Where("page_id IN ?", ids).
		Order("store_id ASC").
		Find(&assignments).Error
	if err != nil {
		r.recordError(nil, err, "listing page stores")
		return nil, eris.Wrap(err, "listing page stores")
	}

	byPage := make(map[uint][]uint, len(pages))
	for _, assignment := range assignments {
		byPage[assignment.PageID] = append(byPage[assignment.PageID], assignment.StoreID)
	}

	for i := range pages {
		pages[i].StoreIDs = byPage[pages[i].ID]
		pages[i].markClean()
	}

	return pages, nil
}

func (r *GormRepository) afterLoad(ctx context.Context, page *Page) error {
	storeIDs, err := r.LookupStoreIDs(ctx, page.ID)
	if err != nil {
		return err
	}

	page.StoreIDs = storeIDs
	page.markClean()
	return nil
}

func (r *GormRepository) recordError(fields logrus.Fields, err error, message string) {
	if err == nil {
		return
	}

	if r.logger != nil {
		entry := r.logger.WithField("error", err.Error())
		if len(fields) > 0 {
			entry = entry.WithFields(fields)
		}
		entry.Error(message)
	}

	if r.sentryHub != nil {
		r.sentryHub.CaptureException(err)
	}
}

func (r *GormRepository) logWarn(fields logrus.Fields, err error, message string) {
	if r.logger == nil || err == nil {
		return
	}

	r.logger.WithFields(fields).WithField("error", err.Error()).Warn(message)
}

func (r *GormRepository) logDebug(fields logrus.Fields, message string) {
	if r.logger == nil {
		return
	}

	r.logger.WithFields(fields).Debug(message)
}

package cms

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const checkCachePrefix = "check:"

// scopedQuery selects the page rows visible for identifier in any of storeIDs.
// The highest store id wins, so a store-specific page beats the default-store fallback.
func scopedQuery(tx *gorm.DB, identifier string, storeIDs []uint, isActive *bool) *gorm.DB {
	query := tx.Table("cms_page AS cp").
		Joins("JOIN cms_page_store AS cps ON cp.page_id = cps.page_id").
		Where("cp.identifier = ?", identifier).
		Where("cps.store_id IN ?", storeIDs)

	if isActive != nil {
		query = query.Where("cp.is_active = ?", *isActive)
	}

	return query.Order("cps.store_id DESC").Limit(1)
}

// candidateStores always includes the default store.
func (r *GormRepository) candidateStores(storeID uint) []uint {
	return normalizeStoreIDs([]uint{r.stores.DefaultStoreID(), storeID})
}

// CheckIdentifier returns the id of the active page visible under identifier in storeID.
func (r *GormRepository) CheckIdentifier(ctx context.Context, identifier string, storeID uint) (uint, bool, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return 0, false, eris.New("identifier is required")
	}

	key := checkCacheKey(trimmed, storeID)
	if pageID, found, ok := r.cachedCheck(ctx, key); ok {
		return pageID, found, nil
	}

	generation := r.cacheGeneration(trimmed)

	active := true
	var ids []uint
	err := scopedQuery(r.db.WithContext(ctx), trimmed, r.candidateStores(storeID), &active).
		Pluck("cp.page_id", &ids).Error
	if err != nil {
		r.recordError(logrus.Fields{"identifier": trimmed, "store_id": storeID}, err, "checking page identifier")
		return 0, false, eris.Wrapf(err, "checking page identifier: %s", trimmed)
	}

	var pageID uint
	if len(ids) > 0 {
		pageID = ids[0]
	}
	if ValidateIdentifier(trimmed) == nil {
		r.storeCheck(ctx, trimmed, key, pageID, generation)
	}

	return pageID, pageID != 0, nil
}

// TitleByIdentifier returns the title of the page visible under identifier in storeID,
// regardless of its active flag.
func (r *GormRepository) TitleByIdentifier(ctx context.Context, identifier string, storeID uint) (string, bool, error) {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return "", false, eris.New("identifier is required")
	}

	var titles []string
	err := scopedQuery(r.db.WithContext(ctx), trimmed, r.candidateStores(storeID), nil).
		Pluck("cp.title", &titles).Error
	if err != nil {
		r.recordError(logrus.Fields{"identifier": trimmed, "store_id": storeID}, err, "fetching page title by identifier")
		return "", false, eris.Wrapf(err, "fetching page title by identifier: %s", trimmed)
	}

	if len(titles) == 0 {
		return "", false, nil
	}
	return titles[0], true, nil
}

// TitleByID returns the title of the page with the given primary key.
func (r *GormRepository) TitleByID(ctx context.Context, id uint) (string, bool, error) {
	return r.columnByID(ctx, id, "title")
}

// IdentifierByID returns the identifier of the page with the given primary key.
func (r *GormRepository) IdentifierByID(ctx context.Context, id uint) (string, bool, error) {
	return r.columnByID(ctx, id, "identifier")
}

func (r *GormRepository) columnByID(ctx context.Context, id uint, column string) (string, bool, error) {
	var values []string
	err := r.db.WithContext(ctx).Model(&Page{}).Where("page_id = ?", id).Limit(1).Pluck(column, &values).Error
	if err != nil {
		r.recordError(logrus.Fields{"page_id": id, "column": column}, err, "fetching page column by id")
		return "", false, eris.Wrapf(err, "fetching page %s by id: %d", column, id)
	}

	if len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// LookupStoreIDs returns the stores pageID is assigned to in ascending order.
func (r *GormRepository) LookupStoreIDs(ctx context.Context, pageID uint) ([]uint, error) {
	storeIDs, err := lookupStoreIDs(r.db.WithContext(ctx), pageID)
	if err != nil {
		r.recordError(logrus.Fields{"page_id": pageID}, err, "looking up page stores")
		return nil, err
	}
	return storeIDs, nil
}

func lookupStoreIDs(tx *gorm.DB, pageID uint) ([]uint, error) {
	var storeIDs []uint
	err := tx.Model(&PageStore{}).Where("page_id = ?", pageID).Order("store_id ASC").Pluck("store_id", &storeIDs).Error
	if err != nil {
		return nil, eris.Wrapf(err, "looking up stores for page %d", pageID)
	}
	return storeIDs, nil
}

func checkCacheKey(identifier string, storeID uint) string {
	return checkCachePrefix + identifier + ":" + strconv.FormatUint(uint64(storeID), 10)
}

// cachedCheck reports ok=false on a miss or when caching is disabled.
func (r *GormRepository) cachedCheck(ctx context.Context, key string) (pageID uint, found bool, ok bool) {
	if r.cache == nil {
		return 0, false, false
	}

	raw, err := r.cache.Get(ctx, key)
	if err != nil {
		return 0, false, false
	}

	parsed, err := strconv.ParseUint(string(raw), 10, 64)
	if err != nil {
		_ = r.cache.Delete(ctx, key)
		return 0, false, false
	}

	return uint(parsed), parsed != 0, true
}

// cacheGeneration returns the invalidation counter for identifier.
func (r *GormRepository) cacheGeneration(identifier string) uint64 {
	r.generationMu.Lock()
	defer r.generationMu.Unlock()
	return r.generations[identifier]
}

// storeCheck caches a lookup result unless identifier was invalidated after generation was read.
func (r *GormRepository) storeCheck(ctx context.Context, identifier, key string, pageID uint, generation uint64) {
	if r.cache == nil {
		return
	}

	r.generationMu.Lock()
	defer r.generationMu.Unlock()

	if r.generations[identifier] != generation {
		return
	}

	value := []byte(strconv.FormatUint(uint64(pageID), 10))
	if err := r.cache.Set(ctx, key, value, r.cacheTTL); err != nil {
		r.logWarn(logrus.Fields{"key": key}, err, "caching page identifier lookup")
	}
}

func (r *GormRepository) invalidateIdentifiers(ctx context.Context, identifiers ...string) {
	if r.cache == nil {
		return
	}

	r.generationMu.Lock()
	defer r.generationMu.Unlock()

	for _, identifier := range identifiers {
		if identifier == "" {
			continue
		}
		r.generations[identifier]++

		if err := r.cache.DeletePrefix(ctx, checkCachePrefix+identifier+":"); err != nil {
			r.logWarn(logrus.Fields{"identifier": identifier}, err, "invalidating page identifier cache")
		}
	}
}

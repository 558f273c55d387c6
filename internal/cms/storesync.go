package cms

import (
	"slices"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoreDiff is the set of join rows a save has to add and remove.
type StoreDiff struct {
	Insert []uint
	Delete []uint
}

// Empty reports whether the diff requires no writes.
func (d StoreDiff) Empty() bool {
	return len(d.Insert) == 0 && len(d.Delete) == 0
}

// DiffStores returns desired minus previous as Insert and previous minus desired as Delete.
// Both slices are deduplicated and sorted.
func DiffStores(previous, desired []uint) StoreDiff {
	prev := normalizeStoreIDs(previous)
	want := normalizeStoreIDs(desired)

	var diff StoreDiff
	for _, id := range want {
		if _, found := slices.BinarySearch(prev, id); !found {
			diff.Insert = append(diff.Insert, id)
		}
	}
	for _, id := range prev {
		if _, found := slices.BinarySearch(want, id); !found {
			diff.Delete = append(diff.Delete, id)
		}
	}

	return diff
}

// syncStores makes the join rows for pageID equal desired inside tx.
func syncStores(tx *gorm.DB, pageID uint, desired []uint) (StoreDiff, error) {
	var previous []uint
	if err := tx.Model(&PageStore{}).Where("page_id = ?", pageID).Pluck("store_id", &previous).Error; err != nil {
		return StoreDiff{}, eris.Wrapf(err, "reading store assignments for page %d", pageID)
	}

	diff := DiffStores(previous, desired)

	if len(diff.Delete) > 0 {
		err := tx.Where("page_id = ? AND store_id IN ?", pageID, diff.Delete).Delete(&PageStore{}).Error
		if err != nil {
			return diff, eris.Wrapf(err, "removing store assignments for page %d", pageID)
		}
	}

	if len(diff.Insert) > 0 {
		rows := make([]PageStore, 0, len(diff.Insert))
		for _, storeID := range diff.Insert {
			rows = append(rows, PageStore{PageID: pageID, StoreID: storeID})
		}

		if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
			if isConstraintViolation(err) {
				return diff, &IntegrityError{Reason: "assigning page to stores", Err: err}
			}
			return diff, eris.Wrapf(err, "adding store assignments for page %d", pageID)
		}
	}

	return diff, nil
}

func normalizeStoreIDs(ids []uint) []uint {
	if len(ids) == 0 {
		return nil
	}

	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

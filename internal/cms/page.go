package cms

import (
	"slices"
	"strings"
	"time"
)

// Page is a CMS page persisted in cms_page.
type Page struct {
	ID                 uint       `gorm:"column:page_id;primaryKey"`
	Identifier         string     `gorm:"column:identifier;size:100;not null;index:idx_cms_page_identifier"`
	Title              string     `gorm:"column:title;size:255"`
	PageLayout         string     `gorm:"column:page_layout;size:255"`
	MetaKeywords       string     `gorm:"column:meta_keywords;type:text"`
	MetaDescription    string     `gorm:"column:meta_description;type:text"`
	ContentHeading     string     `gorm:"column:content_heading;size:255"`
	Content            string     `gorm:"column:content;type:text"`
	CreationTime       time.Time  `gorm:"column:creation_time;autoCreateTime"`
	UpdateTime         time.Time  `gorm:"column:update_time;autoUpdateTime"`
	IsActive           bool       `gorm:"column:is_active;not null"`
	SortOrder          int        `gorm:"column:sort_order;not null"`
	CustomTheme        string     `gorm:"column:custom_theme;size:100"`
	CustomRootTemplate string     `gorm:"column:custom_root_template;size:255"`
	CustomThemeFrom    *time.Time `gorm:"column:custom_theme_from;type:date"`
	CustomThemeTo      *time.Time `gorm:"column:custom_theme_to;type:date"`
	Revision           uint64     `gorm:"column:revision;not null"`

	// StoreIDs is the full set of stores the page is assigned to.
	StoreIDs []uint `gorm:"-"`
	// StoreID is used as the single target store when StoreIDs is empty.
	StoreID uint `gorm:"-"`

	deleted     bool
	forcedDirty bool
	snapshot    *pageSnapshot
}

// TableName defines the table name for the Page model.
func (Page) TableName() string {
	return "cms_page"
}

// PageStore links a page to a store it is visible in.
type PageStore struct {
	PageID  uint  `gorm:"column:page_id;primaryKey"`
	StoreID uint  `gorm:"column:store_id;primaryKey;index:idx_cms_page_store_store_id"`
	Page    Page  `gorm:"foreignKey:PageID;references:ID;constraint:OnDelete:CASCADE"`
	Store   Store `gorm:"foreignKey:StoreID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName defines the table name for the PageStore model.
func (PageStore) TableName() string {
	return "cms_page_store"
}

// pageSnapshot holds the persisted values used to detect pending changes.
type pageSnapshot struct {
	identifier         string
	title              string
	pageLayout         string
	metaKeywords       string
	metaDescription    string
	contentHeading     string
	content            string
	isActive           bool
	sortOrder          int
	customTheme        string
	customRootTemplate string
	customThemeFrom    *time.Time
	customThemeTo      *time.Time
	stores             []uint
}

// MarkDeleted flags the page so the next Save removes it.
func (p *Page) MarkDeleted() {
	p.deleted = true
}

// IsDeleted reports whether the page is flagged for deletion.
func (p *Page) IsDeleted() bool {
	return p.deleted
}

// HasChanges reports whether the page differs from what was last loaded or saved.
// Pages that were never persisted, or carry no store assignments, always have changes.
func (p *Page) HasChanges() bool {
	if p.forcedDirty || p.snapshot == nil || p.ID == 0 || len(p.StoreIDs) == 0 {
		return true
	}
	return !p.snapshot.equal(p.takeSnapshot())
}

// PrepareForSave trims the editable fields ahead of validation.
func (p *Page) PrepareForSave() {
	p.Identifier = strings.TrimSpace(p.Identifier)
	p.Title = strings.TrimSpace(p.Title)
	p.PageLayout = strings.TrimSpace(p.PageLayout)
	p.CustomTheme = strings.TrimSpace(p.CustomTheme)
}

// desiredStores returns the target store set for a save: StoreIDs, or StoreID when StoreIDs is empty.
func (p *Page) desiredStores() []uint {
	if len(p.StoreIDs) > 0 {
		return normalizeStoreIDs(p.StoreIDs)
	}
	return []uint{p.StoreID}
}

func (p *Page) markClean() {
	p.forcedDirty = false
	p.snapshot = p.takeSnapshot()
}

func (p *Page) markDirty() {
	p.forcedDirty = true
}

func (p *Page) takeSnapshot() *pageSnapshot {
	return &pageSnapshot{
		identifier:         p.Identifier,
		title:              p.Title,
		pageLayout:         p.PageLayout,
		metaKeywords:       p.MetaKeywords,
		metaDescription:    p.MetaDescription,
		contentHeading:     p.ContentHeading,
		content:            p.Content,
		isActive:           p.IsActive,
		sortOrder:          p.SortOrder,
		customTheme:        p.CustomTheme,
		customRootTemplate: p.CustomRootTemplate,
		customThemeFrom:    copyTime(p.CustomThemeFrom),
		customThemeTo:      copyTime(p.CustomThemeTo),
		stores:             normalizeStoreIDs(p.StoreIDs),
	}
}

func (s *pageSnapshot) equal(other *pageSnapshot) bool {
	if other == nil {
		return false
	}

	return s.identifier == other.identifier &&
		s.title == other.title &&
		s.pageLayout == other.pageLayout &&
		s.metaKeywords == other.metaKeywords &&
		s.metaDescription == other.metaDescription &&
		s.contentHeading == other.contentHeading &&
		s.content == other.content &&
		s.isActive == other.isActive &&
		s.sortOrder == other.sortOrder &&
		s.customTheme == other.customTheme &&
		s.customRootTemplate == other.customRootTemplate &&
		sameTime(s.customThemeFrom, other.customThemeFrom) &&
		sameTime(s.customThemeTo, other.customThemeTo) &&
		slices.Equal(s.stores, other.stores)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

package repositories

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/pkg/orm"
)

// MenuFilter narrows a catalog listing. Zero values mean "no filter".
type MenuFilter struct {
	Category models.Category
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Search   string
	Sort     string // name, -name, price, -price
	Page     int
	PerPage  int
}

var menuSorts = map[string]string{
	"name":   "name ASC",
	"-name":  "name DESC",
	"price":  "price ASC",
	"-price": "price DESC",
}

// ValidMenuSort reports whether s is a recognised sort key.
func ValidMenuSort(s string) bool {
	_, ok := menuSorts[s]
	return s == "" || ok
}

type MenuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

func (r *MenuRepository) WithTx(tx *gorm.DB) *MenuRepository { return &MenuRepository{db: tx} }

func (r *MenuRepository) List(ctx context.Context, f MenuFilter) ([]models.MenuItem, orm.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&models.MenuItem{})
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		q = q.Where("name LIKE ?", "%"+f.Search+"%")
	}
	order, ok := menuSorts[f.Sort]
	if !ok {
		order = "id ASC"
	}
	q = q.Order(order)

	var items []models.MenuItem
	p, err := orm.Paginate(q, f.Page, f.PerPage, &items)
	return items, p, err
}

func (r *MenuRepository) FindByID(ctx context.Context, id uint) (models.MenuItem, error) {
	var item models.MenuItem
	err := r.db.WithContext(ctx).First(&item, id).Error
	return item, err
}

// FindByIDs returns the live (not soft deleted) items among ids, keyed by ID.
func (r *MenuRepository) FindByIDs(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	out := make(map[uint]models.MenuItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, it := range items {
		out[it.ID] = it
	}
	return out, nil
}

// SlugTaken includes soft deleted rows since the unique index does too.
func (r *MenuRepository) SlugTaken(ctx context.Context, slug string, exceptID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Unscoped().Model(&models.MenuItem{}).
		Where("slug = ? AND id <> ?", slug, exceptID).
		Count(&n).Error
	return n > 0, err
}

func (r *MenuRepository) Create(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *MenuRepository) Save(ctx context.Context, item *models.MenuItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

// Delete soft deletes the item.
func (r *MenuRepository) Delete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.MenuItem{}, id)
	return res.RowsAffected > 0, res.Error
}

// PopularInCategories ranks live items in cats by how many line items
// reference them, skipping the ids in exclude.
func (r *MenuRepository) PopularInCategories(ctx context.Context, cats []models.Category, exclude []uint, limit int) ([]models.MenuItem, error) {
	if len(cats) == 0 {
		return nil, nil
	}
	q := r.db.WithContext(ctx).Model(&models.MenuItem{}).
		Select("menu_items.*, COUNT(order_items.id) AS times_ordered").
		Joins("LEFT JOIN order_items ON order_items.menu_item_id = menu_items.id").
		Where("menu_items.category IN ?", cats).
		Group("menu_items.id").
		Order("times_ordered DESC, menu_items.id ASC").
		Limit(limit)
	if len(exclude) > 0 {
		q = q.Where("menu_items.id NOT IN ?", exclude)
	}
	var items []models.MenuItem
	err := q.Find(&items).Error
	return items, err
}

// AllExcept returns every live item whose id is not in exclude.
func (r *MenuRepository) AllExcept(ctx context.Context, exclude []uint) ([]models.MenuItem, error) {
	q := r.db.WithContext(ctx).Model(&models.MenuItem{})
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var items []models.MenuItem
	err := q.Order("id").Find(&items).Error
	return items, err
}

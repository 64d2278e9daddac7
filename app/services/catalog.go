package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/pkg/cache"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/orm"
	"github.com/cherrydine/cherrydine/pkg/storage"
)

const itemCacheTTL = 10 * time.Minute

var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type MenuItemInput struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=2000"`
	Category    string          `json:"category" validate:"required,oneof=starters main dessert"`
	Price       decimal.Decimal `json:"price"`
}

type CatalogService struct {
	menu  *repositories.MenuRepository
	cache cache.Store
	disk  storage.Disk
}

func NewCatalogService(db *gorm.DB, store cache.Store, disk storage.Disk) *CatalogService {
	return &CatalogService{menu: repositories.NewMenuRepository(db), cache: store, disk: disk}
}

func itemCacheKey(id uint) string { return fmt.Sprintf("menu:item:%d", id) }

func (s *CatalogService) List(ctx context.Context, f repositories.MenuFilter) ([]models.MenuItem, orm.Pagination, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, orm.Pagination{}, fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, f.Category)
	}
	if !repositories.ValidMenuSort(f.Sort) {
		return nil, orm.Pagination{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidArgument, f.Sort)
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, orm.Pagination{}, fmt.Errorf("%w: min_price is above max_price", ErrInvalidArgument)
	}
	return s.menu.List(ctx, f)
}

// Get serves the dish page, cached per item.
func (s *CatalogService) Get(ctx context.Context, id uint) (models.MenuItem, error) {
	var item models.MenuItem
	err := orm.Remember(ctx, s.cache, itemCacheKey(id), itemCacheTTL, &item, func() error {
		var err error
		item, err = s.menu.FindByID(ctx, id)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	return item, err
}

func (s *CatalogService) validate(in MenuItemInput) error {
	if in.Price.IsNegative() {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}
	if !models.Category(in.Category).Valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, in.Category)
	}
	return nil
}

// uniqueSlug appends -1, -2, ... until the slug is free.
func (s *CatalogService) uniqueSlug(ctx context.Context, name string, exceptID uint) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "dish"
	}
	candidate := base
	for i := 1; ; i++ {
		taken, err := s.menu.SlugTaken(ctx, candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *CatalogService) Create(ctx context.Context, actor models.Actor, in MenuItemInput) (models.MenuItem, error) {
	if !actor.Role.CanManageCatalog() {
		return models.MenuItem{}, ErrForbidden
	}
	if err := s.validate(in); err != nil {
		return models.MenuItem{}, err
	}
	sl, err := s.uniqueSlug(ctx, in.Name, 0)
	if err != nil {
		return models.MenuItem{}, err
	}

	item := models.MenuItem{
		Name:        strings.TrimSpace(in.Name),
		Slug:        sl,
		Description: in.Description,
		Category:    models.Category(in.Category),
		Price:       in.Price.Round(2),
	}
	if err := s.menu.Create(ctx, &item); err != nil {
		return models.MenuItem{}, err
	}
	logger.WithCtx(ctx).Info("catalog: item created", "item_id", item.ID, "slug", item.Slug)
	return item, nil
}

// Update rewrites the item. Past orders keep their snapshot prices.
func (s *CatalogService) Update(ctx context.Context, actor models.Actor, id uint, in MenuItemInput) (models.MenuItem, error) {
	if !actor.Role.CanManageCatalog() {
		return models.MenuItem{}, ErrForbidden
	}
	if err := s.validate(in); err != nil {
		return models.MenuItem{}, err
	}
	item, err := s.menu.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	if err != nil {
		return item, err
	}

	name := strings.TrimSpace(in.Name)
	if name != item.Name {
		if item.Slug, err = s.uniqueSlug(ctx, name, item.ID); err != nil {
			return item, err
		}
	}
	item.Name = name
	item.Description = in.Description
	item.Category = models.Category(in.Category)
	item.Price = in.Price.Round(2)

	if err := s.menu.Save(ctx, &item); err != nil {
		return item, err
	}
	orm.Forget(ctx, s.cache, itemCacheKey(id))
	return item, nil
}

// Delete soft deletes the item; carts drop it, orders keep their snapshot.
func (s *CatalogService) Delete(ctx context.Context, actor models.Actor, id uint) error {
	if !actor.Role.CanManageCatalog() {
		return ErrForbidden
	}
	ok, err := s.menu.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	orm.Forget(ctx, s.cache, itemCacheKey(id))
	logger.WithCtx(ctx).Info("catalog: item deleted", "item_id", id)
	return nil
}

// SetImage stores a new photo and replaces the old one.
func (s *CatalogService) SetImage(ctx context.Context, actor models.Actor, id uint, body io.Reader, contentType string) (models.MenuItem, error) {
	if !actor.Role.CanManageCatalog() {
		return models.MenuItem{}, ErrForbidden
	}
	ext, ok := imageTypes[contentType]
	if !ok {
		return models.MenuItem{}, fmt.Errorf("%w: unsupported image type %q", ErrInvalidArgument, contentType)
	}
	if s.disk == nil {
		return models.MenuItem{}, errors.New("catalog: no storage disk configured")
	}
	item, err := s.menu.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return item, fmt.Errorf("%w: menu item %d", ErrNotFound, id)
	}
	if err != nil {
		return item, err
	}

	key := path.Join("menu", fmt.Sprint(id), uuid.NewString()+ext)
	if err := s.disk.Put(ctx, key, body, contentType); err != nil {
		return item, err
	}

	old := item.ImageKey
	item.ImageKey = key
	item.ImageURL = s.disk.URL(key)
	if err := s.menu.Save(ctx, &item); err != nil {
		_ = s.disk.Delete(ctx, key)
		return item, err
	}
	if old != "" {
		if err := s.disk.Delete(ctx, old); err != nil {
			logger.WithCtx(ctx).Warn("catalog: old image not removed", "key", old, "error", err)
		}
	}
	orm.Forget(ctx, s.cache, itemCacheKey(id))
	return item, nil
}

package services

import (
	"context"
	"math/rand/v2"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/app/repositories"
	"github.com/cherrydine/cherrydine/pkg/collection"
)

// MaxRecommendations caps the recommendation mail.
const MaxRecommendations = 5

type RecommendationService struct {
	menu    *repositories.MenuRepository
	orders  *repositories.OrderRepository
	shuffle func(items []models.MenuItem)
}

func NewRecommendationService(db *gorm.DB) *RecommendationService {
	return &RecommendationService{
		menu:   repositories.NewMenuRepository(db),
		orders: repositories.NewOrderRepository(db),
		shuffle: func(items []models.MenuItem) {
			rand.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
		},
	}
}

// ForOrder suggests dishes after order has been delivered: the most ordered
// items in the order's categories that its owner has never tried. If there
// are none, it falls back to a random pick of items outside the order.
// order.Items must be loaded.
func (s *RecommendationService) ForOrder(ctx context.Context, order models.Order) ([]models.MenuItem, error) {
	inOrder := collection.Pluck(order.Items, func(it models.OrderItem) uint { return it.MenuItemID })

	live, err := s.menu.FindByIDs(ctx, inOrder)
	if err != nil {
		return nil, err
	}
	var cats []models.Category
	for _, id := range collection.Unique(inOrder) {
		if it, ok := live[id]; ok {
			cats = append(cats, it.Category)
		}
	}
	cats = collection.Unique(cats)

	tried, err := s.orders.OrderedMenuItemIDs(ctx, order.UserID)
	if err != nil {
		return nil, err
	}

	picks, err := s.menu.PopularInCategories(ctx, cats, tried, MaxRecommendations)
	if err != nil {
		return nil, err
	}
	if len(picks) > 0 {
		return picks, nil
	}

	rest, err := s.menu.AllExcept(ctx, inOrder)
	if err != nil {
		return nil, err
	}
	s.shuffle(rest)
	return collection.Take(rest, MaxRecommendations), nil
}

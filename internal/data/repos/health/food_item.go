package health

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/yungbote/healthlog-backend/internal/data/repos/repoerr"
	types "github.com/yungbote/healthlog-backend/internal/domain/health"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type FoodItemListParams struct {
	ViewerID uuid.UUID
	Query    string
	Limit    int
	Offset   int
	SortBy   string
	SortDesc bool
}

type FoodItemRepo interface {
	Create(ctx context.Context, tx *gorm.DB, item *types.FoodItem) (*types.FoodItem, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodItem, error)
	GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodItem, error)
	FindOwnedByName(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) (*types.FoodItem, error)
	FindPublicByName(ctx context.Context, tx *gorm.DB, name string) (*types.FoodItem, error)
	ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.FoodItem, error)
	List(ctx context.Context, tx *gorm.DB, p FoodItemListParams) ([]*types.FoodItem, int64, error)
	Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type foodItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFoodItemRepo(db *gorm.DB, baseLog *logger.Logger) FoodItemRepo {
	repoLog := baseLog.With("repo", "FoodItemRepo")
	return &foodItemRepo{db: db, log: repoLog}
}

func (r *foodItemRepo) Create(ctx context.Context, tx *gorm.DB, item *types.FoodItem) (*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if item == nil {
		return nil, errors.New("food item required")
	}
	if err := transaction.WithContext(ctx).Create(item).Error; err != nil {
		return nil, repoerr.MapError("food_item.create", err)
	}
	return item, nil
}

func (r *foodItemRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.FoodItem
	if err := transaction.WithContext(ctx).Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, repoerr.MapError("food_item.get", err)
	}
	return &item, nil
}

// GetByIDUnscoped also returns soft-deleted entries so callers can tell
// "deleted" from "never existed".
func (r *foodItemRepo) GetByIDUnscoped(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var item types.FoodItem
	if err := transaction.WithContext(ctx).Unscoped().Where("id = ?", id).Take(&item).Error; err != nil {
		return nil, repoerr.MapError("food_item.get_unscoped", err)
	}
	return &item, nil
}

// FindOwnedByName returns nil, nil when the owner has no active entry with that name.
func (r *foodItemRepo) FindOwnedByName(ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, name string) (*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FoodItem
	if err := transaction.WithContext(ctx).
		Where("owner_id = ? AND lower(name) = ?", ownerID, types.NormalizeName(name)).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("food_item.find_owned", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *foodItemRepo) FindPublicByName(ctx context.Context, tx *gorm.DB, name string) (*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FoodItem
	if err := transaction.WithContext(ctx).
		Where("owner_id IS NULL AND lower(name) = ?", types.NormalizeName(name)).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("food_item.find_public", err)
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

// ListPublic returns every active public entry in stable creation order.
func (r *foodItemRepo) ListPublic(ctx context.Context, tx *gorm.DB) ([]*types.FoodItem, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FoodItem
	if err := transaction.WithContext(ctx).
		Where("owner_id IS NULL").
		Order("created_at ASC, id ASC").
		Find(&results).Error; err != nil {
		return nil, repoerr.MapError("food_item.list_public", err)
	}
	return results, nil
}

var foodItemSortColumns = map[string]string{
	"":           "name",
	"name":       "name",
	"created_at": "created_at",
	"calories":   "calories",
}

// List returns the viewer's private entries plus all public entries.
func (r *foodItemRepo) List(ctx context.Context, tx *gorm.DB, p FoodItemListParams) ([]*types.FoodItem, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	col, ok := foodItemSortColumns[p.SortBy]
	if !ok {
		return nil, 0, errors.New("unsupported sort field")
	}
	dir := "ASC"
	if p.SortDesc {
		dir = "DESC"
	}

	q := transaction.WithContext(ctx).Model(&types.FoodItem{}).
		Where("owner_id IS NULL OR owner_id = ?", p.ViewerID)
	if s := types.NormalizeName(p.Query); s != "" {
		q = q.Where("lower(name) LIKE ?", "%"+escapeLike(s)+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, repoerr.MapError("food_item.count", err)
	}

	var results []*types.FoodItem
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	if err := q.Order(col + " " + dir + ", id ASC").
		Limit(limit).
		Offset(p.Offset).
		Find(&results).Error; err != nil {
		return nil, 0, repoerr.MapError("food_item.list", err)
	}
	return results, total, nil
}

func (r *foodItemRepo) Update(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	res := transaction.WithContext(ctx).Model(&types.FoodItem{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return repoerr.MapError("food_item.update", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("food_item.update", gorm.ErrRecordNotFound)
	}
	return nil
}

func (r *foodItemRepo) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).Where("id = ?", id).Delete(&types.FoodItem{})
	if res.Error != nil {
		return repoerr.MapError("food_item.delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return repoerr.MapError("food_item.delete", gorm.ErrRecordNotFound)
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(s)
}

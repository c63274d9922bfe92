package mysql

import (
	"context"
	"errors"
	"strings"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type productRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewProductRepository(db *gorm.DB, log *zap.Logger) repository.ProductRepository {
	return &productRepo{db: db, log: log}
}

func (r *productRepo) Add(ctx context.Context, p *domain.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}
	err := r.db.WithContext(ctx).Create(p.Clone()).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Conflictf("product %s already exists", p.ID)
	}
	return err
}

func (r *productRepo) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("product lookup failed", zap.String("product_id", id), zap.Error(err))
		return nil, err
	}
	return &p, nil
}

// AdjustStock relies on a guarded UPDATE so the check and the write happen in
// one statement on the database side.
func (r *productRepo) AdjustStock(ctx context.Context, id string, delta int) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&domain.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		UpdateColumn("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		r.log.Error("stock adjust failed", zap.String("product_id", id), zap.Int("delta", delta), zap.Error(res.Error))
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	p, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return domain.NotFoundf("product %s", id)
	}
	if delta == 0 {
		return nil
	}
	return &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: -delta}
}

func (r *productRepo) FindAll(ctx context.Context) ([]domain.Product, error) {
	out := []domain.Product{}
	if err := r.db.WithContext(ctx).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	out := []domain.Product{}
	if err := r.db.WithContext(ctx).Where("LOWER(category) = LOWER(?)", strings.TrimSpace(category)).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) FindLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	out := []domain.Product{}
	if err := r.db.WithContext(ctx).Where("stock <= ?", threshold).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

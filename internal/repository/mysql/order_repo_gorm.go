package mysql

import (
	"context"
	"errors"
	"time"

	"checkout-service/internal/domain"
	"checkout-service/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type orderRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderRepository(db *gorm.DB, log *zap.Logger) repository.OrderRepository {
	return &orderRepo{db: db, log: log}
}

func (r *orderRepo) Insert(ctx context.Context, order *domain.Order) error {
	rec := order.Clone()
	for i := range rec.Items {
		rec.Items[i].OrderID = rec.ID
	}

	err := r.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.Conflictf("order %s already exists", order.ID)
	}
	if err != nil {
		r.log.Error("order insert failed", zap.String("order_id", order.ID), zap.Error(err))
		return err
	}
	return nil
}

// Replace rewrites the order row and its line items in one transaction.
func (r *orderRepo) Replace(ctx context.Context, order *domain.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Updates(map[string]any{
			"customer_id":    order.CustomerID,
			"customer_name":  order.CustomerName,
			"total":          order.Total,
			"status":         order.Status,
			"payment_method": order.PaymentMethod,
		})
		if res.Error != nil {
			r.log.Error("order update failed", zap.String("order_id", order.ID), zap.Error(res.Error))
			return res.Error
		}
		if res.RowsAffected == 0 {
			// MySQL reports zero affected rows for no-op updates too.
			var count int64
			if err := tx.Model(&domain.Order{}).Where("id = ?", order.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return domain.NotFoundf("order %s", order.ID)
			}
		}

		if err := tx.Where("order_id = ?", order.ID).Delete(&domain.LineItem{}).Error; err != nil {
			return err
		}
		if len(order.Items) == 0 {
			return nil
		}
		items := make([]domain.LineItem, len(order.Items))
		copy(items, order.Items)
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
}

func (r *orderRepo) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.WithContext(ctx).Preload("Items").First(&o, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("FindByID failed", zap.String("order_id", id), zap.Error(err))
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) FindAll(ctx context.Context) ([]domain.Order, error) {
	return r.find(ctx, r.db)
}

func (r *orderRepo) FindByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return r.find(ctx, r.db.Where("customer_id = ?", customerID))
}

func (r *orderRepo) FindByStatus(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	return r.find(ctx, r.db.Where("status = ?", status))
}

func (r *orderRepo) FindByDateRange(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return r.find(ctx, r.db.Where("created_at BETWEEN ? AND ?", start, end))
}

func (r *orderRepo) find(ctx context.Context, q *gorm.DB) ([]domain.Order, error) {
	out := []domain.Order{}
	if err := q.WithContext(ctx).Preload("Items").Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		r.log.Error("order query failed", zap.Error(err))
		return nil, err
	}
	return out, nil
}

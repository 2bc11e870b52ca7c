package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/linktofunnel/storefront/internal/domain"
	"github.com/linktofunnel/storefront/internal/ports"
)

// Repositories bundles the Postgres-backed stores handed to the application.
type Repositories struct {
	Products   ports.ProductRepository
	Sales      ports.SaleRepository
	Deliveries ports.DeliveryRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Products:   &productRepository{db: db},
		Sales:      &saleRepository{db: db},
		Deliveries: &deliveryRepository{db: db},
	}
}

func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) Create(ctx context.Context, product domain.Product) error {
	model := productModel{
		ProductID:     product.ProductID,
		Name:          product.Name,
		Description:   product.Description,
		PriceCents:    product.PriceCents,
		Currency:      product.Currency,
		StripePriceID: product.StripePriceID,
		PaymentLink:   product.PaymentLink,
		FileName:      product.FileName,
		CreatedAt:     product.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidInput
		}
		return err
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, productID string) (domain.Product, error) {
	var model productModel
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(model), nil
}

func (r *productRepository) GetByPriceID(ctx context.Context, priceID string) (domain.Product, error) {
	var model productModel
	if err := r.db.WithContext(ctx).Where("stripe_price_id = ?", priceID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(model), nil
}

func (r *productRepository) Latest(ctx context.Context) (domain.Product, error) {
	var model productModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrNotFound
		}
		return domain.Product{}, err
	}
	return toDomainProduct(model), nil
}

func (r *productRepository) List(ctx context.Context) ([]domain.Product, error) {
	var models []productModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(models))
	for _, model := range models {
		out = append(out, toDomainProduct(model))
	}
	return out, nil
}

func toDomainProduct(model productModel) domain.Product {
	return domain.Product{
		ProductID:     model.ProductID,
		Name:          model.Name,
		Description:   model.Description,
		PriceCents:    model.PriceCents,
		Currency:      model.Currency,
		StripePriceID: model.StripePriceID,
		PaymentLink:   model.PaymentLink,
		FileName:      model.FileName,
		CreatedAt:     model.CreatedAt,
	}
}

type saleRepository struct {
	db *gorm.DB
}

// Create inserts the sale row. The unique index on stripe_session_id is the
/// idempotency authority: concurrent duplicate webhook deliveries race on the
// insert and exactly one wins, the rest surface domain.ErrDuplicateSale.
func (r *saleRepository) Create(ctx context.Context, sale domain.Sale) error {
	model := saleModel{
		OrderID:         sale.OrderID,
		StripeSessionID: sale.StripeSessionID,
		ProductID:       sale.ProductID,
		CustomerEmail:   sale.CustomerEmail,
		AmountCents:     sale.AmountCents,
		DownloadToken:   sale.DownloadToken,
		CreatedAt:       sale.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateSale
		}
		return err
	}
	return nil
}

func (r *saleRepository) GetBySessionID(ctx context.Context, sessionID string) (domain.Sale, error) {
	var model saleModel
	if err := r.db.WithContext(ctx).Where("stripe_session_id = ?", sessionID).Take(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Sale{}, domain.ErrNotFound
		}
		return domain.Sale{}, err
	}
	return domain.Sale{
		OrderID:         model.OrderID,
		StripeSessionID: model.StripeSessionID,
		ProductID:       model.ProductID,
		CustomerEmail:   model.CustomerEmail,
		AmountCents:     model.AmountCents,
		DownloadToken:   model.DownloadToken,
		CreatedAt:       model.CreatedAt,
	}, nil
}

func (r *saleRepository) RevenueStats(ctx context.Context, now time.Time) (ports.RevenueStats, error) {
	var stats ports.RevenueStats

	row := r.db.WithContext(ctx).Model(&saleModel{}).
		Select("COUNT(*), COALESCE(SUM(amount_cents), 0)").Row()
	if err := row.Scan(&stats.TotalSales, &stats.TotalRevenueCents); err != nil {
		return ports.RevenueStats{}, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	sumSince := func(since time.Time) (int64, error) {
		var total int64
		err := r.db.WithContext(ctx).Model(&saleModel{}).
			Where("created_at >= ?", since).
			Select("COALESCE(SUM(amount_cents), 0)").
			Scan(&total).Error
		return total, err
	}

	var err error
	if stats.TodayRevenueCents, err = sumSince(dayStart); err != nil {
		return ports.RevenueStats{}, err
	}
	if stats.MonthRevenueCents, err = sumSince(monthStart); err != nil {
		return ports.RevenueStats{}, err
	}
	if stats.Last30DaysCents, err = sumSince(now.Add(-30 * 24 * time.Hour)); err != nil {
		return ports.RevenueStats{}, err
	}
	return stats, nil
}

type deliveryRepository struct {
	db *gorm.DB
}

func (r *deliveryRepository) Enqueue(ctx context.Context, task domain.DeliveryTask) error {
	taskID, err := uuid.Parse(task.TaskID)
	if err != nil {
		taskID = uuid.New()
	}
	var lastError *string
	if task.LastError != "" {
		lastError = &task.LastError
	}
	model := deliveryTaskModel{
		TaskID:        taskID,
		OrderID:       task.OrderID,
		CustomerEmail: task.CustomerEmail,
		ProductName:   task.ProductName,
		AmountCents:   task.AmountCents,
		DownloadURL:   task.DownloadURL,
		Status:        task.Status,
		RetryCount:    task.RetryCount,
		LastError:     lastError,
		CreatedAt:     task.CreatedAt,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

// ClaimPending stamps up to limit pending tasks with the claim token inside a
// transaction. SKIP LOCKED keeps concurrent claimants from blocking on each
// other; the claim_until filter lets tasks orphaned by a dead worker become
// claimable again once the deadline passes.
func (r *deliveryRepository) ClaimPending(ctx context.Context, limit int, claimToken string, claimUntil time.Time) ([]domain.DeliveryTask, error) {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&deliveryTaskModel{}).
			Select("task_id").
			Where("status = ?", domain.DeliveryPending).
			Where("claim_until IS NULL OR claim_until < ?", now).
			Order("created_at ASC").
			Limit(limit).
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		return tx.Model(&deliveryTaskModel{}).
			Where("task_id IN (?)", sub).
			Updates(map[string]any{
				"claim_token": claimToken,
				"claim_until": claimUntil,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	var models []deliveryTaskModel
	err = r.db.WithContext(ctx).
		Where("claim_token = ?", claimToken).
		Where("status = ?", domain.DeliveryPending).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.DeliveryTask, 0, len(models))
	for _, model := range models {
		task := domain.DeliveryTask{
			TaskID:        model.TaskID.String(),
			OrderID:       model.OrderID,
			CustomerEmail: model.CustomerEmail,
			ProductName:   model.ProductName,
			AmountCents:   model.AmountCents,
			DownloadURL:   model.DownloadURL,
			Status:        model.Status,
			RetryCount:    model.RetryCount,
			CreatedAt:     model.CreatedAt,
			DeliveredAt:   model.DeliveredAt,
		}
		if model.LastError != nil {
			task.LastError = *model.LastError
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *deliveryRepository) MarkDelivered(ctx context.Context, taskID, claimToken string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&deliveryTaskModel{}).
		Where("task_id = ?", taskID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"status":       domain.DeliveryDelivered,
			"delivered_at": at,
			"claim_token":  nil,
			"claim_until":  nil,
		}).Error
}

func (r *deliveryRepository) MarkFailed(ctx context.Context, taskID, claimToken, reason string, terminal bool, at time.Time) error {
	status := domain.DeliveryPending
	if terminal {
		status = domain.DeliveryFailed
	}
	return r.db.WithContext(ctx).Model(&deliveryTaskModel{}).
		Where("task_id = ?", taskID).
		Where("claim_token = ?", claimToken).
		Updates(map[string]any{
			"status":      status,
			"retry_count": gorm.Expr("retry_count + 1"),
			"last_error":  reason,
			"claim_token": nil,
			"claim_until": nil,
		}).Error
}

package events

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linktofunnel/storefront/internal/domain"
	"github.com/linktofunnel/storefront/internal/ports"
)

// DeliveryWorker drains the delivery task queue: for every recorded sale it
// sends the purchase email and the operator notification. Keeping delivery
// out of the webhook request path means a slow SMTP handshake can never push
// the processor past its retry timeout.
type DeliveryWorker struct {
	logger     *slog.Logger
	deliveries ports.DeliveryRepository
	email      ports.EmailSender
	notifier   ports.Notifier
	interval   time.Duration
	batchSize  int
	claimTTL   time.Duration
	maxRetries int
}

func NewDeliveryWorker(
	logger *slog.Logger,
	deliveries ports.DeliveryRepository,
	email ports.EmailSender,
	notifier ports.Notifier,
	interval time.Duration,
	batchSize int,
	claimTTL time.Duration,
	maxRetries int,
) *DeliveryWorker {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if claimTTL <= 0 {
		claimTTL = 30 * time.Second
	}
	if maxRetries <= 0 {
		maxRetries = 5
	}
	return &DeliveryWorker{
		logger:     logger,
		deliveries: deliveries,
		email:      email,
		notifier:   notifier,
		interval:   interval,
		batchSize:  batchSize,
		claimTTL:   claimTTL,
		maxRetries: maxRetries,
	}
}

// Run executes the periodic delivery loop until context cancellation.
func (w *DeliveryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if err := w.ProcessOnce(ctx); err != nil {
			w.logger.ErrorContext(ctx, "delivery iteration failed",
				"module", "events.delivery_worker",
				"layer", "adapter",
				"operation", "delivery_process_once",
				"outcome", "failure",
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ProcessOnce claims and handles one batch of pending tasks. Each batch gets
// a fresh claim token so tasks stay invisible to other workers until the
// claim deadline; a worker that dies mid-batch leaves its claims to expire.
// Exported so tests and the manual replay path can drive the queue without
// the ticker.
func (w *DeliveryWorker) ProcessOnce(ctx context.Context) error {
	claimToken := uuid.NewString()
	tasks, err := w.deliveries.ClaimPending(ctx, w.batchSize, claimToken, time.Now().UTC().Add(w.claimTTL))
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, task := range tasks {
		if err := w.deliver(ctx, task); err != nil {
			terminal := task.RetryCount+1 >= w.maxRetries
			if markErr := w.deliveries.MarkFailed(ctx, task.TaskID, claimToken, err.Error(), terminal, now); markErr != nil {
				w.logger.ErrorContext(ctx, "failure mark not recorded",
					"module", "events.delivery_worker",
					"layer", "adapter",
					"operation", "deliver_sale",
					"outcome", "failure",
					"task_id", task.TaskID,
					"error", markErr,
				)
			}
			level := w.logger.WarnContext
			if terminal {
				level = w.logger.ErrorContext
			}
			level(ctx, "delivery attempt failed",
				"module", "events.delivery_worker",
				"layer", "adapter",
				"operation", "deliver_sale",
				"outcome", "failure",
				"task_id", task.TaskID,
				"order_id", task.OrderID,
				"retry_count", task.RetryCount+1,
				"terminal", terminal,
				"error", err,
			)
			continue
		}

		if err := w.deliveries.MarkDelivered(ctx, task.TaskID, claimToken, now); err != nil {
			// The task stays claimed until the deadline; another worker may
			// redeliver after that, so this is loud rather than silent.
			w.logger.ErrorContext(ctx, "delivered mark not recorded",
				"module", "events.delivery_worker",
				"layer", "adapter",
				"operation", "deliver_sale",
				"outcome", "degraded",
				"task_id", task.TaskID,
				"order_id", task.OrderID,
				"error", err,
			)
			continue
		}
		w.logger.InfoContext(ctx, "sale delivered",
			"module", "events.delivery_worker",
			"layer", "adapter",
			"operation", "deliver_sale",
			"outcome", "success",
			"task_id", task.TaskID,
			"order_id", task.OrderID,
		)
	}
	return nil
}

// deliver sends the purchase email first; the operator notification is
// advisory and only logged when it fails. A task counts as delivered once the
// customer has their download link.
func (w *DeliveryWorker) deliver(ctx context.Context, task domain.DeliveryTask) error {
	if err := w.email.SendPurchaseEmail(ctx, task.CustomerEmail, task.ProductName, task.DownloadURL); err != nil {
		return err
	}

	sale := domain.Sale{
		OrderID:       task.OrderID,
		CustomerEmail: task.CustomerEmail,
		AmountCents:   task.AmountCents,
	}
	if err := w.notifier.NotifyNewSale(ctx, sale, task.ProductName); err != nil {
		w.logger.WarnContext(ctx, "sale notification failed",
			"module", "events.delivery_worker",
			"layer", "adapter",
			"operation", "notify_sale",
			"outcome", "degraded",
			"order_id", task.OrderID,
			"error", err,
		)
	}
	return nil
}

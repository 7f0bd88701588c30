// Package refund runs the RTO auto-refund pipeline: ingest the
// logistics report, resolve each unique order, submit refunds for the
// eligible ones and mail a summary. Orders are processed strictly
// sequentially so the cost-guard pauses stay meaningful.
package refund

import (
	"context"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/AnitBishwas/swiss-event-handler/internal/model"
	"github.com/AnitBishwas/swiss-event-handler/internal/model/order"
	"github.com/AnitBishwas/swiss-event-handler/internal/shopify"
	"github.com/AnitBishwas/swiss-event-handler/internal/throttle"
	"github.com/AnitBishwas/swiss-event-handler/internal/utils/logger"
)

type OrderAPI interface {
	FindOrderByName(ctx context.Context, name string) (*order.Resolved, shopify.Cost, error)
	CreateRefund(ctx context.Context, ord *order.Resolved) (string, shopify.Cost, error)
}

type Mailer interface {
	Send(ctx context.Context, subject, htmlBody string) error
}

type Workflow struct {
	api          OrderAPI
	mail         Mailer
	httpc        *resty.Client
	resolveGuard *throttle.CostGuard
	refundGuard  *throttle.CostGuard
	log          *slog.Logger
}

func New(api OrderAPI, mail Mailer, log *slog.Logger) *Workflow {
	return &Workflow{
		api:   api,
		mail:  mail,
		httpc: resty.New().SetTimeout(model.DefaultClientTimeout),
		resolveGuard: throttle.NewCostGuard(
			throttle.DefaultCostThreshold, throttle.ResolvePause),
		refundGuard: throttle.NewCostGuard(
			throttle.DefaultCostThreshold, throttle.RefundPause),
		log: log,
	}
}

// Start launches the workflow detached from its caller. Webhook
// handlers ack immediately; the run carries its own error boundary and
// never reports back.
func (w *Workflow) Start(reportURL string) {
	runLog := w.log.With(slog.String("run_id", uuid.NewString()))
	go func() {
		ctx := logger.WithContext(context.Background(), runLog)
		if err := w.Run(ctx, reportURL); err != nil {
			runLog.LogAttrs(ctx,
				slog.LevelError,
				"rto auto refund failed",
				slog.Any(model.KeyLoggerError, err),
			)
		}
	}()
}

// Run executes the four pipeline stages. Per-order failures in the
// resolution and submission stages are logged and skipped; anything
// else aborts the run.
func (w *Workflow) Run(ctx context.Context, reportURL string) error {
	log := logger.FromContext(ctx)
	log.LogAttrs(ctx, slog.LevelInfo, "initiated rto auto refund",
		slog.String("report_url", reportURL))

	orderNames, err := CollectRTOOrders(ctx, w.httpc, reportURL)
	if err != nil {
		return err
	}
	log.LogAttrs(ctx, slog.LevelInfo, "parsed report rows",
		slog.Int("unique_orders", len(orderNames)))

	eligible := w.resolveOrders(ctx, orderNames)
	refunded := w.submitRefunds(ctx, eligible)

	content, err := renderSummary(refunded)
	if err != nil {
		return err
	}
	if err := w.mail.Send(ctx, summarySubject, content); err != nil {
		// mail dispatch is best effort, a failed summary never fails the run
		log.LogAttrs(ctx,
			slog.LevelError,
			"failed to send summary email",
			slog.Any(model.KeyLoggerError, err),
		)
	}

	log.LogAttrs(ctx, slog.LevelInfo, "finished rto auto refund",
		slog.Int("refunded_orders", len(refunded)))
	return nil
}

func (w *Workflow) resolveOrders(ctx context.Context, orderNames []string) []*order.Resolved {
	log := logger.FromContext(ctx)

	eligible := make([]*order.Resolved, 0, len(orderNames))
	for _, name := range orderNames {
		ord, cost, err := w.api.FindOrderByName(ctx, name)
		w.resolveGuard.Observe(cost.CurrentlyAvailable)
		if err != nil {
			log.LogAttrs(ctx,
				slog.LevelError,
				"failed to get order info",
				slog.String("order", name),
				slog.Any(model.KeyLoggerError, err),
			)
		} else if ord.RefundEligible() {
			eligible = append(eligible, ord)
		} else {
			log.LogAttrs(ctx,
				slog.LevelInfo,
				"order not eligible for refund",
				slog.String("order", ord.Name),
			)
		}

		if err := w.resolveGuard.Wait(ctx); err != nil {
			return eligible
		}
	}
	return eligible
}

func (w *Workflow) submitRefunds(ctx context.Context, orders []*order.Resolved) []*order.Resolved {
	log := logger.FromContext(ctx)

	refunded := make([]*order.Resolved, 0, len(orders))
	for _, ord := range orders {
		refundID, cost, err := w.api.CreateRefund(ctx, ord)
		w.refundGuard.Observe(cost.CurrentlyAvailable)
		if err != nil {
			log.LogAttrs(ctx,
				slog.LevelError,
				"failed to mark order refund",
				slog.String("order_id", ord.ID),
				slog.Any(model.KeyLoggerError, err),
			)
		} else {
			refunded = append(refunded, ord)
			log.LogAttrs(ctx,
				slog.LevelInfo,
				"marked order refund",
				slog.String("order", ord.Name),
				slog.String("refund_id", refundID),
			)
		}

		if err := w.refundGuard.Wait(ctx); err != nil {
			return refunded
		}
	}
	return refunded
}

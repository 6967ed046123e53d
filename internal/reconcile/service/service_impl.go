package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	fulfillmentpkg "github.com/xtreino/platform/internal/fulfillment"
	fulfillmentdomain "github.com/xtreino/platform/internal/fulfillment/domain"
	obsmetrics "github.com/xtreino/platform/internal/observability/metrics"
	orderdomain "github.com/xtreino/platform/internal/order/domain"
	productdomain "github.com/xtreino/platform/internal/product/domain"
	"github.com/xtreino/platform/internal/reconcile/domain"
	userdomain "github.com/xtreino/platform/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Gateway      domain.Gateway
	Repo         domain.Repository
	OrderRepo    orderdomain.Repository
	UserSvc      userdomain.Service
	ProductRepo  productdomain.Repository
	DeliveryRepo fulfillmentdomain.Repository
	Generator    *fulfillmentpkg.Generator
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

// Service reconciles gateway payment notifications against local orders
// and registrations, and triggers the matching fulfillment side effect.
type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	gateway      domain.Gateway
	repo         domain.Repository
	orderRepo    orderdomain.Repository
	userSvc      userdomain.Service
	productRepo  productdomain.Repository
	deliveryRepo fulfillmentdomain.Repository
	generator    *fulfillmentpkg.Generator
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reconcile.service"),
		genID:        p.GenID,
		gateway:      p.Gateway,
		repo:         p.Repo,
		orderRepo:    p.OrderRepo,
		userSvc:      p.UserSvc,
		productRepo:  p.ProductRepo,
		deliveryRepo: p.DeliveryRepo,
		generator:    p.Generator,
		obsMetrics:   p.ObsMetrics,
	}
}

// ProcessNotification handles one webhook delivery. Only a failed fetch of
// the authoritative payment object propagates an error; the gateway retries
// on non-2xx, and a fetch failure is the one case where a retry can help.
// Store failures are logged and acknowledged so a broken write cannot turn
// into an infinite retry loop.
func (s *Service) ProcessNotification(ctx context.Context, event domain.WebhookEvent) (domain.Result, error) {
	if !strings.EqualFold(strings.TrimSpace(event.Type), "payment") {
		return s.ack(domain.OutcomeIgnored), nil
	}

	paymentID := strings.TrimSpace(event.Data.ID.String())
	if paymentID == "" || paymentID == "0" {
		return s.ack(domain.OutcomeIgnored), nil
	}

	payment, err := s.gateway.GetPayment(ctx, paymentID)
	if err != nil {
		return domain.Result{}, fmt.Errorf("fetch payment %s: %w", paymentID, err)
	}

	if payment.Status != domain.PaymentStatusApproved {
		s.log.Info("payment not approved, no reconciliation",
			zap.String("payment_id", payment.ID),
			zap.String("status", payment.Status),
		)
		return s.ack(domain.OutcomeNotApproved), nil
	}

	now := time.Now().UTC()
	record := &domain.EventRecord{
		ID:                s.genID.Generate().Int64(),
		PaymentID:         payment.ID,
		ExternalReference: payment.ExternalReference,
		Status:            payment.Status,
		ReceivedAt:        now,
	}
	inserted, err := s.repo.InsertEvent(ctx, s.db, record)
	if err != nil {
		s.log.Error("record payment event", zap.String("payment_id", payment.ID), zap.Error(err))
		return s.ack(domain.OutcomeStoreError), nil
	}
	if !inserted {
		stored, err := s.repo.FindEvent(ctx, s.db, payment.ID)
		if err != nil {
			s.log.Error("load payment event", zap.String("payment_id", payment.ID), zap.Error(err))
			return s.ack(domain.OutcomeStoreError), nil
		}
		if stored == nil {
			return s.ack(domain.OutcomeStoreError), nil
		}
		if stored.ProcessedAt != nil {
			s.log.Info("payment already processed", zap.String("payment_id", payment.ID))
			return s.ack(domain.OutcomeAlreadyProcessed), nil
		}
		// A prior delivery failed between recording and completion;
		// resume with the stored row.
		record = stored
	}

	order, err := s.findOrder(ctx, payment)
	if err != nil {
		s.log.Error("order lookup", zap.String("external_reference", payment.ExternalReference), zap.Error(err))
		return s.ack(domain.OutcomeStoreError), nil
	}

	if order == nil {
		return s.reconcileRegistration(ctx, record, payment, now)
	}

	transitioned, err := s.orderRepo.MarkOrderPaid(ctx, s.db, order.ID, payment.ID, now)
	if err != nil {
		s.log.Error("mark order paid", zap.Int64("order_id", order.ID), zap.Error(err))
		return s.ack(domain.OutcomeStoreError), nil
	}
	if transitioned {
		s.log.Info("order paid",
			zap.String("order_id", snowflake.ID(order.ID).String()),
			zap.String("payment_id", payment.ID),
			zap.String("external_reference", payment.ExternalReference),
		)
	}

	s.fulfill(ctx, order, payment)

	if err := s.repo.MarkProcessed(ctx, s.db, record.ID, now); err != nil {
		s.log.Error("mark event processed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
	return s.ack(domain.OutcomePaid), nil
}

// findOrder tries each lookup strategy in order and returns the first hit.
func (s *Service) findOrder(ctx context.Context, payment *domain.Payment) (*orderdomain.Order, error) {
	ref := payment.ExternalReference
	if ref == "" {
		return nil, nil
	}

	order, err := s.orderRepo.FindOrderByExternalReference(ctx, s.db, ref)
	if err != nil || order != nil {
		return order, err
	}

	// Digital-product references embed the order's own id; orders created
	// through the checkout page may never have had the reference written
	// back, so recover it and backfill.
	if rest, ok := strings.CutPrefix(ref, orderdomain.RefPrefixDigital); ok {
		id, parseErr := snowflake.ParseString(rest)
		if parseErr != nil {
			return nil, nil
		}
		order, err = s.orderRepo.FindOrderByID(ctx, s.db, id.Int64())
		if err != nil || order == nil {
			return order, err
		}
		if order.ExternalReference != ref {
			if err := s.orderRepo.SetOrderExternalReference(ctx, s.db, order.ID, ref); err != nil {
				return nil, err
			}
			order.ExternalReference = ref
		}
		return order, nil
	}

	return nil, nil
}

func (s *Service) reconcileRegistration(ctx context.Context, record *domain.EventRecord, payment *domain.Payment, now time.Time) (domain.Result, error) {
	reg, err := s.orderRepo.FindRegistrationByExternalReference(ctx, s.db, payment.ExternalReference)
	if err != nil {
		s.log.Error("registration lookup", zap.String("external_reference", payment.ExternalReference), zap.Error(err))
		return s.ack(domain.OutcomeStoreError), nil
	}
	if reg == nil {
		// The gateway may notify about references this service never
		// tracked; acknowledging keeps it from retrying forever. The
		// event record stays unprocessed so a later replay can still
		// resolve an order written after this delivery.
		s.log.Warn("no order or registration matched payment",
			zap.String("payment_id", payment.ID),
			zap.String("external_reference", payment.ExternalReference),
		)
		return s.ack(domain.OutcomeNotFound), nil
	}

	if _, err := s.orderRepo.MarkRegistrationPaid(ctx, s.db, reg.ID, payment.ID, now); err != nil {
		s.log.Error("mark registration paid", zap.Int64("registration_id", reg.ID), zap.Error(err))
		return s.ack(domain.OutcomeStoreError), nil
	}
	if err := s.repo.MarkProcessed(ctx, s.db, record.ID, now); err != nil {
		s.log.Error("mark event processed", zap.String("payment_id", payment.ID), zap.Error(err))
	}
	return s.ack(domain.OutcomeRegistrationPaid), nil
}

// fulfill triggers at most one side effect for a settled order. Failures
// here are logged, never propagated: an unfulfilled paid order is visible
// in the logs and fixable, while a webhook retry storm is not.
func (s *Service) fulfill(ctx context.Context, order *orderdomain.Order, payment *domain.Payment) {
	switch s.purchaseKind(order, payment) {
	case orderdomain.KindTokens:
		s.fulfillTokens(ctx, order, payment)
	case orderdomain.KindDigitalProduct:
		s.fulfillDigital(ctx, order, payment)
	default:
		// Plain purchases settle with the status transition alone.
	}
}

// purchaseKind prefers the explicit kind stored at order creation and only
// falls back to re-deriving it from the payment description for legacy
// orders written before the kind column existed.
func (s *Service) purchaseKind(order *orderdomain.Order, payment *domain.Payment) string {
	switch order.Kind {
	case orderdomain.KindTokens, orderdomain.KindDigitalProduct, orderdomain.KindPlain:
		return order.Kind
	}
	if orderdomain.HasTokenMarker(payment.Description) {
		return orderdomain.KindTokens
	}
	if order.ProductID != nil {
		return orderdomain.KindDigitalProduct
	}
	return orderdomain.KindPlain
}

func (s *Service) fulfillTokens(ctx context.Context, order *orderdomain.Order, payment *domain.Payment) {
	quantity := order.TokenAmount
	if quantity <= 0 {
		quantity = orderdomain.TokenQuantity(payment.Description)
		if err := s.orderRepo.SetOrderTokenAmount(ctx, s.db, order.ID, quantity); err != nil {
			s.log.Error("persist token amount", zap.Int64("order_id", order.ID), zap.Error(err))
		}
	}

	email := firstNonEmpty(order.BuyerEmail, order.Customer, payment.PayerEmail)
	uid := firstNonEmpty(order.BuyerUID, order.UserID)

	user, err := s.userSvc.CreditTokens(ctx, email, uid, quantity)
	if err != nil {
		s.log.Error("credit tokens",
			zap.String("payment_id", payment.ID),
			zap.String("email", email),
			zap.Int64("quantity", quantity),
			zap.Error(err),
		)
		return
	}
	s.obsMetrics.RecordFulfillment(orderdomain.KindTokens)

	if err := s.userSvc.SyncTokenBalance(ctx, user.ID); err != nil {
		s.log.Warn("token balance sync", zap.Int64("user_id", user.ID), zap.Error(err))
	}
}

func (s *Service) fulfillDigital(ctx context.Context, order *orderdomain.Order, payment *domain.Payment) {
	var product *productdomain.Product
	var productID int64
	if order.ProductID != nil {
		productID = *order.ProductID
		found, err := s.productRepo.FindByID(ctx, s.db, productID)
		if err != nil {
			s.log.Error("product lookup", zap.Int64("product_id", productID), zap.Error(err))
			return
		}
		product = found
	}

	deliverables := s.generator.Generate(product, productID, map[string]any(order.ProductOptions))
	encoded, err := json.Marshal(deliverables)
	if err != nil {
		s.log.Error("encode deliverables", zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}

	productName := order.Title
	if product != nil {
		productName = product.Name
	}

	delivery := &fulfillmentdomain.DigitalDelivery{
		ID:            s.genID.Generate().Int64(),
		OrderID:       order.ID,
		CustomerEmail: firstNonEmpty(order.BuyerEmail, order.Customer, payment.PayerEmail),
		CustomerUID:   firstNonEmpty(order.BuyerUID, order.UserID),
		ProductID:     order.ProductID,
		ProductName:   productName,
		Deliverables:  datatypes.JSON(encoded),
		Status:        fulfillmentdomain.StatusDelivered,
		PaymentID:     payment.ID,
		DeliveredAt:   time.Now().UTC(),
	}

	created, err := s.deliveryRepo.Insert(ctx, s.db, delivery)
	if err != nil {
		s.log.Error("insert digital delivery", zap.Int64("order_id", order.ID), zap.Error(err))
		return
	}
	if created {
		s.obsMetrics.RecordFulfillment(orderdomain.KindDigitalProduct)
		s.log.Info("digital delivery created",
			zap.String("order_id", snowflake.ID(order.ID).String()),
			zap.Int("deliverables", len(deliverables)),
		)
	}
}

func (s *Service) ack(outcome string) domain.Result {
	s.obsMetrics.RecordWebhookEvent(outcome)
	return domain.Result{Received: true, Status: outcome}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/xtreino/platform/internal/identity"
	"github.com/xtreino/platform/internal/order/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	if req.UnitPrice <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	kind := strings.TrimSpace(req.Kind)
	switch kind {
	case "":
		kind = domain.KindPlain
	case domain.KindTokens, domain.KindDigitalProduct, domain.KindPlain:
	default:
		return nil, domain.ErrInvalidKind
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "BRL"
	}

	id := s.genID.Generate()
	order := &domain.Order{
		ID:                id.Int64(),
		Title:             title,
		Description:       req.Description,
		AmountCents:       int64(math.Round(req.UnitPrice * 100)),
		Currency:          currency,
		Quantity:          quantity,
		Status:            domain.StatusPending,
		Kind:              kind,
		ExternalReference: externalReference(kind, id),
		PreferenceID:      strings.TrimSpace(req.PreferenceID),
		BuyerEmail:        caller.Email,
		BuyerUID:          caller.UID,
		CreatedAt:         time.Now().UTC(),
	}

	if kind == domain.KindTokens {
		order.TokenAmount = domain.TokenQuantity(title)
	}
	if req.ProductID != nil {
		productID, err := snowflake.ParseString(strings.TrimSpace(*req.ProductID))
		if err != nil {
			return nil, domain.ErrInvalidKind
		}
		value := productID.Int64()
		order.ProductID = &value
	}
	if req.ProductOptions != nil {
		order.ProductOptions = datatypes.JSONMap(req.ProductOptions)
	}

	if err := s.repo.CreateOrder(ctx, s.db, order); err != nil {
		return nil, err
	}

	resp := toResponse(order)
	return &resp, nil
}

// externalReference builds the correlation key sent to the gateway. Digital
// orders embed their own id so the reconciliation fallback can recover the
// order even when the reference was never written back.
func externalReference(kind string, id snowflake.ID) string {
	switch kind {
	case domain.KindTokens:
		return domain.RefPrefixTokens + uuid.NewString()
	case domain.KindDigitalProduct:
		return domain.RefPrefixDigital + id.String()
	default:
		return domain.RefPrefixPlain + uuid.NewString()
	}
}

func (s *Service) ListMine(ctx context.Context, limit int) ([]domain.Response, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	for _, lookup := range domain.OwnerLookups {
		value := caller.Email
		if lookup.ByUID {
			value = caller.UID
		}
		if value == "" {
			continue
		}

		items, err := s.repo.ListOrdersByOwnerColumn(ctx, s.db, lookup.Column, value, limit)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			continue
		}

		resp := make([]domain.Response, 0, len(items))
		for i := range items {
			resp = append(resp, toResponse(&items[i]))
		}
		return resp, nil
	}

	return []domain.Response{}, nil
}

func (s *Service) Summary(ctx context.Context) ([]domain.SummaryRow, error) {
	return s.repo.CountOrders(ctx, s.db)
}

func (s *Service) CreateRegistration(ctx context.Context, req domain.CreateRegistrationRequest) (*domain.RegistrationResponse, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	eventName := strings.TrimSpace(req.EventName)
	if eventName == "" {
		return nil, domain.ErrInvalidEvent
	}
	if req.UnitPrice <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	reg := &domain.Registration{
		ID:                s.genID.Generate().Int64(),
		EventName:         eventName,
		EventDate:         req.EventDate,
		BuyerEmail:        caller.Email,
		BuyerUID:          caller.UID,
		AmountCents:       int64(math.Round(req.UnitPrice * 100)),
		Status:            domain.StatusPending,
		ExternalReference: domain.RefPrefixRegistration + uuid.NewString(),
		CreatedAt:         time.Now().UTC(),
	}

	if err := s.repo.CreateRegistration(ctx, s.db, reg); err != nil {
		return nil, err
	}

	return &domain.RegistrationResponse{
		ID:                snowflake.ID(reg.ID).String(),
		EventName:         reg.EventName,
		EventDate:         reg.EventDate,
		AmountCents:       reg.AmountCents,
		Status:            reg.Status,
		ExternalReference: reg.ExternalReference,
		CreatedAt:         reg.CreatedAt,
	}, nil
}

func toResponse(o *domain.Order) domain.Response {
	resp := domain.Response{
		ID:                snowflake.ID(o.ID).String(),
		Title:             o.Title,
		Description:       o.Description,
		AmountCents:       o.AmountCents,
		Currency:          o.Currency,
		Quantity:          o.Quantity,
		Status:            o.Status,
		Kind:              o.Kind,
		ExternalReference: o.ExternalReference,
		PreferenceID:      o.PreferenceID,
		BuyerEmail:        o.BuyerEmail,
		TokenAmount:       o.TokenAmount,
		PaymentID:         o.PaymentID,
		PaidAt:            o.PaidAt,
		CreatedAt:         o.CreatedAt,
	}

	if o.BuyerEmail == "" {
		resp.BuyerEmail = o.Customer
	}
	if o.ProductID != nil {
		productID := snowflake.ID(*o.ProductID).String()
		resp.ProductID = &productID
	}
	if len(o.ProductOptions) > 0 {
		resp.ProductOptions = map[string]any(o.ProductOptions)
	}

	return resp
}

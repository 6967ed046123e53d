package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/xtreino/platform/internal/product/domain"
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
		log:   p.Log.Named("product.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.UnitPrice <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	productType := strings.TrimSpace(req.Type)
	switch productType {
	case domain.TypeDownload, domain.TypeDelivery, domain.TypeGift:
	default:
		return nil, domain.ErrInvalidType
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:         s.genID.Generate().Int64(),
		Name:       name,
		PriceCents: int64(math.Round(req.UnitPrice * 100)),
		Type:       productType,
		Active:     active,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if req.Metadata != nil {
		p.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, p); err != nil {
		return nil, err
	}

	resp := toResponse(p)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.Response, error) {
	items, err := s.repo.FindAll(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	productID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, productID.Int64())
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(item)
	return &resp, nil
}

func toResponse(p *domain.Product) domain.Response {
	resp := domain.Response{
		ID:         snowflake.ID(p.ID).String(),
		Name:       p.Name,
		PriceCents: p.PriceCents,
		Type:       p.Type,
		Active:     p.Active,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

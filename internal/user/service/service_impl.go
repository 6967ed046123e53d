package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/xtreino/platform/internal/identity"
	orderdomain "github.com/xtreino/platform/internal/order/domain"
	"github.com/xtreino/platform/pkg/db"
	"github.com/xtreino/platform/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) EnsureProfile(ctx context.Context) (*domain.Response, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.lookup(ctx, caller.Email, caller.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		now := time.Now().UTC()
		user = &domain.User{
			ID:        s.genID.Generate().Int64(),
			UID:       caller.UID,
			Email:     caller.Email,
			Role:      domain.RoleUser,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Create(ctx, s.db, user); err != nil {
			// Two first requests can race past the lookup; the unique
			// index on email decides the winner and we read it back.
			if !db.IsDuplicateKeyErr(err) {
				return nil, err
			}
			if user, err = s.lookup(ctx, caller.Email, caller.UID); err != nil {
				return nil, err
			}
			if user == nil {
				return nil, domain.ErrNotFound
			}
		}
	}

	resp := toResponse(user)
	return &resp, nil
}

func (s *Service) UpdateProfile(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	caller, ok := identity.FromContext(ctx)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}

	user, err := s.lookup(ctx, caller.Email, caller.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Phone != nil {
		user.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Team != nil {
		user.Team = strings.TrimSpace(*req.Team)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, user); err != nil {
		return nil, err
	}

	resp := toResponse(user)
	return &resp, nil
}

func (s *Service) CreditTokens(ctx context.Context, email, uid string, amount int64) (*domain.User, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	user, err := s.lookup(ctx, email, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.repo.AddTokens(ctx, s.db, user.ID, amount); err != nil {
		return nil, err
	}
	user.Tokens += amount

	s.log.Info("credited tokens",
		zap.String("user_id", snowflake.ID(user.ID).String()),
		zap.Int64("amount", amount),
		zap.Int64("balance", user.Tokens),
	)
	return user, nil
}

// SyncTokenBalance recomputes the sum of confirmed token purchases for the
// user across every identity column orders were historically written with,
// and raises the stored balance when it has drifted below that sum.
func (s *Service) SyncTokenBalance(ctx context.Context, userID int64) error {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&user).Error; err != nil {
		return err
	}
	if user.ID == 0 {
		return domain.ErrNotFound
	}

	var purchased int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(token_amount), 0)
		 FROM orders
		 WHERE status = ? AND kind = ?
		   AND (buyer_email = ? OR customer = ? OR buyer_uid = ? OR user_id = ?)`,
		orderdomain.StatusPaid,
		orderdomain.KindTokens,
		user.Email,
		user.Email,
		user.UID,
		user.UID,
	).Scan(&purchased).Error
	if err != nil {
		return err
	}
	if purchased <= user.Tokens {
		return nil
	}

	s.log.Warn("token balance drifted below confirmed purchases",
		zap.String("user_id", snowflake.ID(user.ID).String()),
		zap.Int64("stored", user.Tokens),
		zap.Int64("purchased", purchased),
	)
	return s.repo.RaiseTokensTo(ctx, s.db, user.ID, purchased)
}

func (s *Service) lookup(ctx context.Context, email, uid string) (*domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	return s.repo.FindByUID(ctx, s.db, uid)
}

func toResponse(u *domain.User) domain.Response {
	return domain.Response{
		ID:          snowflake.ID(u.ID).String(),
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
		Team:        u.Team,
		Tokens:      u.Tokens,
		Role:        u.Role,
		CreatedAt:   u.CreatedAt,
	}
}

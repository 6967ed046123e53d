package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xtreino/platform/internal/config"
	fulfillmentdomain "github.com/xtreino/platform/internal/fulfillment/domain"
	"github.com/xtreino/platform/internal/gateway/mercadopago"
	obsmetrics "github.com/xtreino/platform/internal/observability/metrics"
	orderdomain "github.com/xtreino/platform/internal/order/domain"
	productdomain "github.com/xtreino/platform/internal/product/domain"
	reconciledomain "github.com/xtreino/platform/internal/reconcile/domain"
	userdomain "github.com/xtreino/platform/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(m *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmetrics.GinMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	// Browsers probing a webhook or checkout path with the wrong verb get
	// a 405, not a confusing 404.
	r.HandleMethodNotAllowed = true

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(m *obsmetrics.Metrics) *gin.Engine {
	return NewEngine(m)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	gateway      *mercadopago.Client
	reconcileSvc reconciledomain.Service
	orderSvc     orderdomain.Service
	userSvc      userdomain.Service
	productSvc   productdomain.Service
	deliveryRepo fulfillmentdomain.Repository
	obsMetrics   *obsmetrics.Metrics
	fetchClient  *http.Client
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Gateway      *mercadopago.Client
	ReconcileSvc reconciledomain.Service
	OrderSvc     orderdomain.Service
	UserSvc      userdomain.Service
	ProductSvc   productdomain.Service
	DeliveryRepo fulfillmentdomain.Repository
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		log:          p.Log.Named("http.server"),
		genID:        p.GenID,
		gateway:      p.Gateway,
		reconcileSvc: p.ReconcileSvc,
		orderSvc:     p.OrderSvc,
		userSvc:      p.UserSvc,
		productSvc:   p.ProductSvc,
		deliveryRepo: p.DeliveryRepo,
		obsMetrics:   p.ObsMetrics,
		fetchClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.IdentityFromHeaders())

	// -------- Payments --------
	// The gateway and the checkout page call these cross-origin.
	payments := api.Group("/payments", CORSOpen())
	payments.OPTIONS("/preferences", preflight)
	payments.POST("/preferences", s.CreatePreference)
	payments.OPTIONS("/webhook", preflight)
	payments.POST("/webhook", s.HandlePaymentWebhook)

	// -------- Orders --------
	api.POST("/orders", s.AuthRequired(), s.CreateOrder)
	api.GET("/orders", s.AuthRequired(), s.ListMyOrders)
	api.GET("/orders/summary", s.AuthRequired(), s.RequireRole(userdomain.RoleManager, userdomain.RoleAdmin), s.GetOrderSummary)

	// -------- Registrations --------
	api.POST("/registrations", s.AuthRequired(), s.CreateRegistration)

	// -------- Downloads --------
	api.GET("/downloads", s.AuthRequired(), s.GetDownload)

	// -------- Users --------
	api.GET("/users/me", s.AuthRequired(), s.GetMyProfile)
	api.PUT("/users/me", s.AuthRequired(), s.UpdateMyProfile)

	// -------- Products --------
	api.GET("/products", s.ListProducts)
	api.GET("/products/:id", s.GetProductByID)
	api.POST("/products", s.AuthRequired(), s.RequireRole(userdomain.RoleEditor, userdomain.RoleManager, userdomain.RoleAdmin), s.CreateProduct)
}

func preflight(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

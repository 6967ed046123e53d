package order

import (
	"github.com/xtreino/platform/internal/order/repository"
	"github.com/xtreino/platform/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

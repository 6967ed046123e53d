package product

import (
	"github.com/xtreino/platform/internal/product/repository"
	"github.com/xtreino/platform/internal/product/service"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

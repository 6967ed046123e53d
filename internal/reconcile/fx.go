package reconcile

import (
	"github.com/xtreino/platform/internal/reconcile/repository"
	"github.com/xtreino/platform/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

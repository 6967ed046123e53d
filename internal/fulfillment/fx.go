package fulfillment

import (
	"github.com/xtreino/platform/internal/fulfillment/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("fulfillment",
	fx.Provide(repository.Provide),
	fx.Provide(NewGenerator),
)

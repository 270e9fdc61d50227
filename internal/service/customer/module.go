package customer

import "go.uber.org/fx"

// Module provides the customer service to Fx.
var Module = fx.Provide(NewService)

package main

import (
	"go.uber.org/fx"

	"github.com/kimo123-321/autoglow-backend/internal/app"
)

// The API binary serves HTTP until SIGINT/SIGTERM. Use the autoglow CLI for
// migrations, seeding and workers.
func main() {
	fx.New(app.Module).Run()
}

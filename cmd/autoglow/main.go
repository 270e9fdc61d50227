package main

import (
	"os"

	"github.com/kimo123-321/autoglow-backend/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

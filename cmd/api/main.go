package main

import (
	"os"

	"github.com/minhlq-dev/cinebook/internal/app"
)

func main() {
	err := app.Run()
	if err != nil {
		os.Exit(1)
	}
}

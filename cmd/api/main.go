package main

import (
	"context"
	"log"

	"user-registration-service/cmd/api/app"
	"user-registration-service/cmd/api/server"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	ctx, stop := server.WithSignal(context.Background(), a.Logger)
	err = a.Run(ctx)
	stop()

	if err != nil {
		log.Fatalf("application exited with error: %v", err)
	}
}

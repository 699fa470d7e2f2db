package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"StockSheet/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrSymbolsFailed) {
			log.Printf("[ERROR] %v", err)
			stop()
			os.Exit(1)
		}
		log.Fatalf("[FATAL] %v", err)
	}
}

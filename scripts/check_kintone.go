//go:build ignore

// Checks that the configured kintone app is reachable with the configured
// API token. Run with: go run scripts/check_kintone.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"kintone-catalog/internal/config"
	"kintone-catalog/internal/model"
	"kintone-catalog/internal/repository"

	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load configuration: %v\n", err)
		os.Exit(1)
	}

	clientConfig := repository.DefaultClientConfig()
	clientConfig.Timeout = cfg.Kintone.Timeout

	repo := repository.NewRecordRepository(
		repository.NewHTTPClient(clientConfig),
		cfg.Kintone.RecordsEndpoint(),
		cfg.Kintone.AppID,
		cfg.Kintone.APIToken,
		cfg.Fields,
		zerolog.Nop(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Kintone.Timeout+5*time.Second)
	defer cancel()

	req := model.NewSearchRequest("")
	req.Limit = 1
	page, err := repo.Search(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully connected to app %s at %s (totalCount=%v)\n",
		cfg.Kintone.AppID, cfg.Kintone.RecordsEndpoint(), page.TotalCount)
}

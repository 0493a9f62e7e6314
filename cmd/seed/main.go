package main

// seed imports products and badges from a YAML catalog file, or one product
// from a JSON document with -format json. Products whose slug already exists
// are left alone.

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/kitbazar/kitbazar/app"
)

func main() {
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path := flag.String("file", "catalog.yaml", "path to the seed catalog")
	format := flag.String("format", "yaml", "seed format: yaml (catalog) or json (single product)")
	flag.Parse()

	if *format != "yaml" && *format != "json" {
		fallbackLogger.Error("unsupported seed format", "format", *format)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fallbackLogger.Warn("failed to load .env", "error", err)
	}

	content, err := os.ReadFile(*path)
	if err != nil {
		fallbackLogger.Error("failed to read seed file", "path", *path, "error", err)
		os.Exit(1)
	}

	application, err := app.New()
	if err != nil {
		fallbackLogger.Error("failed to initialize app", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	var ok bool
	if *format == "json" {
		ok = importProduct(ctx, application, *path, content)
	} else {
		ok = importCatalog(ctx, application, *path, content)
	}
	cancel()
	application.Close()
	if !ok {
		os.Exit(1)
	}
}

func importCatalog(ctx context.Context, application *app.App, path string, content []byte) bool {
	seed, err := application.Parser.ParseSeed(content)
	if err != nil {
		application.Logger.Error("invalid seed file", "path", path, "error", err)
		return false
	}

	created, err := application.AdminService.Import(ctx, seed)
	if err != nil {
		application.Logger.Error("seed failed", "created", created, "error", err)
		return false
	}
	application.Logger.Info("seed finished", "created", created, "products", len(seed.Products), "badges", len(seed.Badges))
	return true
}

func importProduct(ctx context.Context, application *app.App, path string, content []byte) bool {
	product, issues, err := application.Parser.ParseProduct(content)
	if err != nil {
		application.Logger.Error("invalid product file", "path", path, "error", err)
		return false
	}
	for _, issue := range issues {
		application.Logger.Warn("malformed catalog data", "variant_id", issue.VariantID, "field", issue.Field, "error", issue.Err)
	}

	created, err := application.AdminService.ImportProduct(ctx, product)
	if err != nil {
		application.Logger.Error("import failed", "slug", product.Slug, "error", err)
		return false
	}
	application.Logger.Info("import finished", "slug", product.Slug, "created", created)
	return true
}

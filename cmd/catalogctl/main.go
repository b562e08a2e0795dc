// cmd/catalogctl/main.go
// catalogctl - утилита для запросов к межсервисному gRPC API каталога.
//
//	catalogctl -addr localhost:50051 info <movie-id>
//	catalogctl exists <movie-id>
//	catalogctl aggregate <movie-id>
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goccy/go-json"

	"catalog-service/internal/clients"
	"catalog-service/internal/logging"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("catalogctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", envOr("CATALOG_GRPC_ADDR", "localhost:50051"), "адрес gRPC сервера каталога")
	timeout := fs.Duration("timeout", 5*time.Second, "таймаут одного вызова")
	logLevel := fs.String("log-level", "warn", "уровень логирования")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 2 {
		fmt.Fprintln(stderr, "usage: catalogctl [flags] info|exists|aggregate <movie-id>")
		return 2
	}
	command, movieID := fs.Arg(0), fs.Arg(1)

	logger := logging.New(logging.Config{Level: *logLevel, Format: "console", Output: stderr})
	client, err := clients.NewCatalogClient(*addr, logger)
	if err != nil {
		fmt.Fprintf(stderr, "catalogctl: %v\n", err)
		return 1
	}
	defer client.Close()
	client.WithCallTimeout(*timeout)

	ctx := context.Background()
	var result interface{}
	switch command {
	case "info":
		result, err = client.GetMovieInfo(ctx, movieID)
	case "exists":
		var exists bool
		exists, err = client.CheckMovieExists(ctx, movieID)
		result = map[string]bool{"exists": exists}
	case "aggregate":
		result, err = client.GetMovieAggregate(ctx, movieID)
	default:
		fmt.Fprintf(stderr, "catalogctl: unknown command %q\n", command)
		return 2
	}
	if err != nil {
		fmt.Fprintf(stderr, "catalogctl: %s %s: %v\n", command, movieID, err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(stderr, "catalogctl: %v\n", err)
		return 1
	}
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/dgallion1/nexthydra/internal/fetch"
)

// readSource loads the document named by source: stdin for "" or "-", a
// fetched page for http(s) URLs, otherwise a file. Files ending in .gz are
// decompressed.
func readSource(ctx context.Context, source string, stdin io.Reader, g *globalOptions) (string, error) {
	switch {
	case source == "" || source == "-":
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return fetchSource(ctx, source, g)
	default:
		return readFile(source)
	}
}

func fetchSource(ctx context.Context, url string, g *globalOptions) (string, error) {
	client, err := fetch.NewClient(fetch.Options{
		Timeout:   g.timeout,
		UserAgent: g.userAgent,
	})
	if err != nil {
		return "", err
	}
	defer client.Close()

	page, err := client.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return string(page.Body), nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("open gzip %s: %w", path, err)
		}
		defer zr.Close()
		r = zr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

func sourceName(source string) string {
	if source == "" || source == "-" {
		return "stdin"
	}
	return source
}

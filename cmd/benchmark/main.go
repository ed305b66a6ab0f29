package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/kdduha/image-captioner/internal/models"
	"golang.org/x/sync/errgroup"
)

var styles = []models.CaptionStyle{
	models.StyleDefault,
	models.StyleShort,
	models.StyleDetailed,
	models.StyleHumorous,
	models.StyleFormal,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var cfg benchConfig
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	images, err := listImages(cfg.DataDir)
	if err != nil {
		log.Fatalf("read data dir: %v", err)
	}
	if len(images) == 0 {
		log.Fatalf("no images in %s", cfg.DataDir)
	}

	results := run(ctx, cfg, images)
	printMarkdown(results)
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasPrefix(mime.TypeByExtension(filepath.Ext(e.Name())), "image/") {
			images = append(images, filepath.Join(dir, e.Name()))
		}
	}
	return images, nil
}

func run(ctx context.Context, cfg benchConfig, images []string) []BenchResult {
	var (
		mu      sync.Mutex
		results []BenchResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for _, style := range styles {
		for i := 0; i < cfg.Requests; i++ {
			image := images[i%len(images)]
			g.Go(func() error {
				res := benchmarkUpload(gctx, cfg.Endpoint, image, style)
				if res.Err != nil {
					log.Printf("ERR %s [%s]: %v", res.File, res.Style, res.Err)
				} else {
					log.Printf("OK %s [%s] %v", res.File, res.Style, res.Duration)
				}

				mu.Lock()
				results = append(results, res)
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()
	return results
}

func benchmarkUpload(ctx context.Context, endpoint, filePath string, style models.CaptionStyle) BenchResult {
	res := BenchResult{File: filepath.Base(filePath), Style: string(style)}

	fileRaw, err := os.ReadFile(filePath)
	if err != nil {
		res.Err = err
		return res
	}
	res.Size = int64(len(fileRaw))

	start := time.Now()
	text, err := sendUpload(ctx, endpoint, res.File, fileRaw, style)
	res.Duration = time.Since(start)
	res.Err = err
	res.Captions = len(models.ParseNumberedCaptions(text))
	return res
}

func sendUpload(ctx context.Context, endpoint, name string, data []byte, style models.CaptionStyle) (string, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("style", string(style)); err != nil {
		return "", err
	}
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", mime.TypeByExtension(filepath.Ext(name)))
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	return string(b), nil
}

func aggregate(results []BenchResult) map[string]Agg {
	m := map[string]Agg{}
	for _, r := range results {
		a := m[r.Style]
		if r.Err != nil {
			a.Failures++
			m[r.Style] = a
			continue
		}
		a.Count++
		a.TotalBytes += r.Size
		a.Total += r.Duration
		a.Captions += r.Captions
		m[r.Style] = a
	}
	return m
}

func printMarkdown(results []BenchResult) {
	fmt.Println("\n## Benchmark Results")
	fmt.Println()
	fmt.Println("| Style | Requests | Failures | Avg Time | Total Time | Avg File Size | Avg Captions |")
	fmt.Println("|-------|----------|----------|----------|------------|---------------|--------------|")

	agg := aggregate(results)
	keys := make([]string, 0, len(agg))
	for k := range agg {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var all Agg
	for _, style := range keys {
		a := agg[style]
		fmt.Println(row(style, a))
		all.Count += a.Count
		all.Failures += a.Failures
		all.Total += a.Total
		all.TotalBytes += a.TotalBytes
		all.Captions += a.Captions
	}
	if all.Count+all.Failures > 0 {
		fmt.Println(row("**ALL**", all))
	}
}

func row(label string, a Agg) string {
	if a.Count == 0 {
		return fmt.Sprintf("| %s | 0 | %d | - | - | - | - |", label, a.Failures)
	}
	avg := a.Total / time.Duration(a.Count)
	return fmt.Sprintf("| %s | %d | %d | %v | %v | %s | %.1f |",
		label,
		a.Count,
		a.Failures,
		avg.Round(time.Millisecond),
		a.Total.Round(time.Millisecond),
		humanBytes(a.TotalBytes/int64(a.Count)),
		float64(a.Captions)/float64(a.Count),
	)
}

func humanBytes(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d B", size)
	}
}

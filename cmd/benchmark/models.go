package main

import (
	"fmt"
	"time"
)

type benchConfig struct {
	Endpoint    string `env:"BENCH_ENDPOINT" envDefault:"http://localhost:3000/caption-image"`
	Requests    int    `env:"BENCH_REQUESTS" envDefault:"5"`
	Concurrency int    `env:"BENCH_CONCURRENCY" envDefault:"4"`
	DataDir     string `env:"BENCH_DATA_DIR" envDefault:"./data"`
}

func (c benchConfig) validate() error {
	if c.Requests < 1 {
		return fmt.Errorf("BENCH_REQUESTS must be at least 1, got %d", c.Requests)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("BENCH_CONCURRENCY must be at least 1, got %d", c.Concurrency)
	}
	return nil
}

type BenchResult struct {
	File     string
	Style    string
	Duration time.Duration
	Captions int
	Err      error
	Size     int64
}

type Agg struct {
	Count      int
	Failures   int
	Total      time.Duration
	TotalBytes int64
	Captions   int
}

// Package worker provides bounded fan-out over keyed work items.
// Each item runs in its own goroutine under an errgroup limit; failures and
// panics are captured per item so one bad item never cancels the others.
package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultLimit   = 4
	logFieldWorker = "worker"
	logFieldKey    = "key"
)

// ErrPanic wraps a value recovered from a panicking task.
var ErrPanic = errors.New("task panicked")

// Result is the outcome of one keyed task.
type Result[K comparable, V any] struct {
	Key   K
	Value V
	Err   error
}

// Config configures a Map run.
type Config struct {
	// Name identifies the run for logging.
	Name string

	// Limit caps the number of concurrently running tasks.
	Limit int

	// Logger for the run.
	Logger *zerolog.Logger
}

// Map runs fn for every key with at most cfg.Limit tasks in flight and
// returns the results in key order. When the context is canceled before all
// tasks were started it returns the results of the started ones and ctx.Err().
func Map[K comparable, V any](ctx context.Context, cfg Config, keys []K, fn func(ctx context.Context, key K) (V, error)) ([]Result[K, V], error) {
	logger := cfg.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	results := make([]Result[K, V], len(keys))

	var g errgroup.Group

	g.SetLimit(limit)

	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			_ = g.Wait()
			return results[:i], fmt.Errorf("worker %s: %w", cfg.Name, err)
		}

		results[i].Key = key

		g.Go(func() error {
			value, err := runTask(ctx, key, fn)
			if err != nil {
				logger.Warn().Err(err).Str(logFieldWorker, cfg.Name).Interface(logFieldKey, key).Msg("task failed")
			}

			results[i].Value = value
			results[i].Err = err

			return nil
		})
	}

	_ = g.Wait()

	return results, nil
}

// Collect keeps the successful results of a Map run keyed by their keys.
func Collect[K comparable, V any](results []Result[K, V]) map[K]V {
	out := make(map[K]V, len(results))

	for _, r := range results {
		if r.Err == nil {
			out[r.Key] = r.Value
		}
	}

	return out
}

func runTask[K comparable, V any](ctx context.Context, key K, fn func(ctx context.Context, key K) (V, error)) (value V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return fn(ctx, key)
}

package nutrition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"menuscope/internal/logging"
	"menuscope/internal/services"
)

// FanOut runs one query against every estimator concurrently.
type FanOut struct {
	Images ImageSource
	// Timeout bounds each estimator call; zero disables the bound.
	Timeout time.Duration
	// Concurrency caps in-flight estimator calls; zero or less runs all at once.
	Concurrency int
	Logger      *slog.Logger
}

// Estimate prepares the query image once and asks every estimator about it.
// The returned slice has one entry per estimator, in estimator order. A
// failed, panicking or timed out estimator yields the all-absent result. The
// only error returned is an image preparation failure, in which case no
// estimator is invoked.
func (f FanOut) Estimate(ctx context.Context, q Query, estimators []Estimator) ([]PartialResult, error) {
	logger := logging.WithContext(ctx, logging.NewComponentLogger(f.Logger, "nutrition"))
	if f.Images == nil {
		return nil, services.Wrap(services.ErrConfiguration, "nutrition", "prepare image", "no image source configured", nil)
	}
	image, err := f.Images.Prepare(ctx, q.ImageURL)
	if err != nil {
		return nil, services.Wrap(services.ErrDecode, "nutrition", "prepare image", "image could not be prepared", err)
	}

	results := make([]PartialResult, len(estimators))
	var group errgroup.Group
	if f.Concurrency > 0 {
		group.SetLimit(f.Concurrency)
	}
	for i, estimator := range estimators {
		group.Go(func() error {
			started := time.Now()
			result, err := f.invoke(ctx, estimator, image, q.Description)
			if err != nil {
				logger.Warn("estimator failed; contributing empty result",
					logging.String("estimator", estimator.Name()),
					logging.Duration("elapsed", time.Since(started)),
					logging.String(logging.FieldEventType, "estimator_failed"),
					logging.String(logging.FieldErrorHint, errorHint(err)),
					logging.String(logging.FieldImpact, "consensus averages this estimator as zero"),
					logging.Error(err),
				)
				return nil
			}
			logger.Debug("estimator answered",
				logging.String("estimator", estimator.Name()),
				logging.Duration("elapsed", time.Since(started)),
				logging.Bool("empty", result.IsEmpty()),
			)
			results[i] = result
			return nil
		})
	}
	_ = group.Wait()
	return results, nil
}

type outcome struct {
	result PartialResult
	err    error
}

// invoke calls one estimator, converting panics and deadline expiry into
// errors. An estimator that ignores ctx is abandoned once the deadline passes.
func (f FanOut) invoke(ctx context.Context, estimator Estimator, image []byte, description string) (PartialResult, error) {
	callCtx := ctx
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: estimator %s panicked: %v", services.ErrEstimator, estimator.Name(), r)}
			}
		}()
		result, err := estimator.Estimate(callCtx, image, description)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if callCtx.Err() != nil {
			return PartialResult{}, deadlineError(estimator, callCtx.Err())
		}
		if out.err != nil {
			return PartialResult{}, out.err
		}
		return out.result, nil
	case <-callCtx.Done():
		return PartialResult{}, deadlineError(estimator, callCtx.Err())
	}
}

func deadlineError(estimator Estimator, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, "nutrition", "estimate", "estimator "+estimator.Name()+" exceeded its deadline", err)
	}
	return services.Wrap(services.ErrEstimator, "nutrition", "estimate", "estimator "+estimator.Name()+" cancelled", err)
}

func errorHint(err error) string {
	switch services.KindOf(err) {
	case services.KindTimeout:
		return "raise estimators.timeout_seconds or check provider latency"
	case services.KindConfig:
		return "check the provider API key and model settings"
	case services.KindSchema, services.KindDecode:
		return "the model answered outside the nutrition schema"
	default:
		return "check provider availability and credentials"
	}
}

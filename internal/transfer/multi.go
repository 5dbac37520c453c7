package transfer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/sktransfer/internal/logger"
)

// TransferAll transfers several shape keys of req.Source to req.Destination,
// running up to workers transfers at once. req.ShapeKey is ignored; a nil
// keys slice selects every shape key of the source.
//
// The new keys are attached, in the order of keys, only when every
// transfer succeeded. Cancelling ctx stops scheduling further keys; a
// transfer already running completes.
func TransferAll(ctx context.Context, req Request, keys []string, opts Options, workers int) ([]*Result, error) {
	if req.Source == nil || req.Destination == nil {
		return nil, req.wrap("", ErrInvalidConfig)
	}
	if req.Source == req.Destination {
		return nil, req.wrap("", fmt.Errorf("%w: %q", ErrSameMesh, req.Source.Name))
	}
	if keys == nil {
		keys = req.Source.ShapeKeyNames()
	}
	if len(keys) == 0 {
		return nil, req.wrap("", ErrNoShapeKeys)
	}
	if err := checkCommit(req.Destination, keys, opts.Replace); err != nil {
		return nil, req.wrap("", err)
	}
	if workers < 1 {
		workers = 1
	}

	results := make([]*Result, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, name := range keys {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			r := req
			r.ShapeKey = name
			res, err := Transfer(r, opts)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, req.wrap("", err)
	}

	for _, res := range results {
		if err := req.Destination.AddShapeKey(res.ShapeKey, opts.Replace); err != nil {
			return nil, req.wrap(res.ShapeKey.Name, err)
		}
	}
	logger.Named("transfer").Info("shape keys transferred",
		zap.String("source", req.Source.Name),
		zap.String("destination", req.Destination.Name),
		zap.Int("count", len(results)),
		zap.Int("workers", workers),
	)
	return results, nil
}

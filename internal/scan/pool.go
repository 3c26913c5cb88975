package scan

import (
	"context"
	"sync"

	"clipmark/internal/logging"
	"clipmark/internal/services"
)

// Pool scans several vods concurrently, one goroutine per vod.
type Pool struct {
	ctrl  *Controller
	limit int
}

// NewPool returns a pool running at most limit scans at once. A limit <= 0
// runs every request at once.
func NewPool(ctrl *Controller, limit int) *Pool {
	return &Pool{ctrl: ctrl, limit: limit}
}

// Outcome pairs a request with its result.
type Outcome struct {
	Request Request
	Result  Result
	Err     error
}

// Run executes all requests and returns their outcomes in request order.
func (p *Pool) Run(ctx context.Context, reqs []Request) []Outcome {
	outcomes := make([]Outcome, len(reqs))
	limit := p.limit
	if limit <= 0 || limit > len(reqs) {
		limit = len(reqs)
	}
	sem := make(chan struct{}, max(limit, 1))
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				outcomes[i] = Outcome{Request: req, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			res, err := p.ctrl.Run(ctx, req)
			outcomes[i] = Outcome{Request: req, Result: res, Err: err}
			if err != nil {
				p.ctrl.logger.Warn("scan did not start",
					logging.String("vod", req.VodPath),
					logging.String("kind", services.Kind(err)),
					logging.Error(err),
				)
			}
		}()
	}
	wg.Wait()
	return outcomes
}

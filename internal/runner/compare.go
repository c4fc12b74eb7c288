package runner

import (
	"context"
	"sync"

	"github.com/nikhilbhutani/promptbench/internal/models"
)

// CompareRequest runs one prompt against several models at once. The
// embedded ModelID and Save fields are ignored.
type CompareRequest struct {
	RunRequest
	ModelIDs []string `json:"modelIds"`
}

// Outcome is the settled state of one model in a comparison.
type Outcome struct {
	ModelID string             `json:"modelId"`
	Result  *models.TestResult `json:"result,omitempty"`
	Error   string             `json:"error,omitempty"`
	Err     error              `json:"-"`
}

// Batch tracks a comparison in flight. Each model settles independently;
// a failure never cancels its siblings.
type Batch struct {
	mu       sync.Mutex
	order    []string
	outcomes map[string]Outcome
	updates  chan Outcome
	wg       sync.WaitGroup
}

func newBatch(modelIDs []string) *Batch {
	seen := make(map[string]bool, len(modelIDs))
	var order []string
	for _, id := range modelIDs {
		if id != "" && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	return &Batch{
		order:    order,
		outcomes: make(map[string]Outcome, len(order)),
		updates:  make(chan Outcome, len(order)),
	}
}

func (b *Batch) settle(o Outcome) {
	b.mu.Lock()
	b.outcomes[o.ModelID] = o
	b.mu.Unlock()
	b.updates <- o
}

// Models returns the deduplicated model ids in request order.
func (b *Batch) Models() []string {
	return append([]string(nil), b.order...)
}

// Updates yields each outcome as it settles and is closed once all have.
func (b *Batch) Updates() <-chan Outcome {
	return b.updates
}

// Snapshot returns the outcomes settled so far keyed by model id.
func (b *Batch) Snapshot() map[string]Outcome {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]Outcome, len(b.outcomes))
	for k, v := range b.outcomes {
		out[k] = v
	}
	return out
}

// Done reports whether every model has settled.
func (b *Batch) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.outcomes) == len(b.order)
}

// Wait blocks until all models settle and returns outcomes in request order.
func (b *Batch) Wait() []Outcome {
	b.wg.Wait()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Outcome, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.outcomes[id])
	}
	return out
}

// Start launches one invocation per model and returns immediately.
func (r *Runner) Start(ctx context.Context, req CompareRequest) (*Batch, error) {
	b := newBatch(req.ModelIDs)
	if len(b.order) == 0 {
		return nil, ErrNoModels
	}

	for _, id := range b.order {
		run := req.RunRequest
		run.ModelID = id
		run.Save = false

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			tr, err := r.Run(ctx, run)
			o := Outcome{ModelID: id, Result: tr, Err: err}
			if err != nil {
				o.Error = err.Error()
			}
			b.settle(o)
		}()
	}

	go func() {
		b.wg.Wait()
		close(b.updates)
	}()
	return b, nil
}

// Compare runs the batch to completion, calling onSettle from a single
// goroutine as each model finishes.
func (r *Runner) Compare(ctx context.Context, req CompareRequest, onSettle func(Outcome)) ([]Outcome, error) {
	b, err := r.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	for o := range b.Updates() {
		if onSettle != nil {
			onSettle(o)
		}
	}
	return b.Wait(), nil
}

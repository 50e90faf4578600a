package kpi

import "context"

// BatchItemError pairs a failed input with the error it produced.
type BatchItemError[T any] struct {
	Item T      `json:"item"`
	Err  error  `json:"-"`
	Msg  string `json:"error"`
}

// BatchResult reports the outcome of a best-effort batch operation. A batch
// succeeds partially: failed items never abort the remaining ones.
type BatchResult[T any] struct {
	Succeeded []T                 `json:"succeeded"`
	Failed    []BatchItemError[T] `json:"failed"`
}

func (r BatchResult[T]) AllFailed() bool {
	return len(r.Succeeded) == 0 && len(r.Failed) > 0
}

// RunBatch applies fn to each item independently and partitions the results.
// It stops early only when the context is cancelled, recording the remaining
// items as failed.
func RunBatch[T any](ctx context.Context, items []T, fn func(context.Context, T) error) BatchResult[T] {
	var result BatchResult[T]
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			for _, rest := range items[i:] {
				result.Failed = append(result.Failed, BatchItemError[T]{Item: rest, Err: err, Msg: err.Error()})
			}
			break
		}
		if err := fn(ctx, item); err != nil {
			result.Failed = append(result.Failed, BatchItemError[T]{Item: item, Err: err, Msg: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, item)
	}
	return result
}

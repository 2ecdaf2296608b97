package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	channel "Culvert/internal/calc/channel"
)

// Solver is satisfied by *channel.Handler.
type Solver interface {
	Solve(ctx context.Context, in channel.Input) (channel.Result, error)
}

type ChannelBatchInput struct {
	Items []channel.Input `json:"items"`
}

// Item holds exactly one of Result or Error.
type Item struct {
	Result *channel.Result `json:"result,omitempty"`
	Error  *channel.Error  `json:"error,omitempty"`
}

type ChannelBatchResult struct {
	Results []Item `json:"results"`
	Failed  int    `json:"failed"`
}

// CalculateChannel solves every item with at most workers in flight.
// Results keep the order of the input; a failing item does not stop the
// others.
func CalculateChannel(ctx context.Context, s Solver, in ChannelBatchInput, workers int) (ChannelBatchResult, error) {
	if len(in.Items) == 0 {
		return ChannelBatchResult{}, fmt.Errorf("no items")
	}
	if workers < 1 {
		workers = 1
	}

	out := ChannelBatchResult{Results: make([]Item, len(in.Items))}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, item := range in.Items {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, item channel.Input) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := s.Solve(ctx, item)
			if err != nil {
				out.Results[i] = Item{Error: asError(err)}
				return
			}
			out.Results[i] = Item{Result: &res}
		}(i, item)
	}
	wg.Wait()

	for _, r := range out.Results {
		if r.Error != nil {
			out.Failed++
		}
	}
	return out, nil
}

func asError(err error) *channel.Error {
	var e *channel.Error
	if errors.As(err, &e) {
		return e
	}
	return &channel.Error{Kind: "internal", Message: err.Error()}
}

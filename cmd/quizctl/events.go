package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/events"
)

// printEvents writes the event log after the given sequence number, one
// tab-separated line per event, and returns the last sequence printed so a
// caller can resume from it.
func printEvents(ctx context.Context, w io.Writer, repo *events.EventRepo, after int64, limit int) (int64, error) {
	list, err := repo.Since(ctx, after, limit)
	if err != nil {
		return after, fmt.Errorf("read events: %w", err)
	}
	last := after
	for _, e := range list {
		at := time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339)
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Seq, at, e.Type, e.Key, e.DataJSON); err != nil {
			return last, err
		}
		last = e.Seq
	}
	return last, nil
}

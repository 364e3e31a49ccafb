package importer

import (
	"context"
	"fmt"
	"log"
)

// maxConsecutiveErrors is the per-source budget of back-to-back failures
// before a fetch loop gives up for the whole run.
const maxConsecutiveErrors = 5

// PageFunc fetches one page at the given offset. items is keyed by each
// item's join key, count is the number of records the remote reported for
// the page (which may exceed len(items) when records are dropped during
// parsing); count == 0 signals the end of the dataset.
type PageFunc[T any] func(ctx context.Context, offset int) (items map[string]T, count int, err error)

// fetchAll drives a PageFunc from offset 0 until it returns an empty
// page, accumulating all items into one map. A failed page is retried at
// the same offset; after maxErrors consecutive failures the loop aborts
// with the last cause. A success resets the failure counter.
func fetchAll[T any](ctx context.Context, source string, maxErrors int, page PageFunc[T]) (map[string]T, error) {
	data := make(map[string]T)
	offset := 0
	errCount := 0
	var lastErr error

	for {
		if errCount >= maxErrors {
			return nil, fmt.Errorf("too many failures fetching data from the %s API: %w", source, lastErr)
		}

		items, count, err := page(ctx, offset)
		if err != nil {
			lastErr = err
			errCount++
			log.Printf("[importer] %s page at offset %d failed (%d/%d): %v", source, offset, errCount, maxErrors, err)
			continue
		}

		log.Printf("[importer] fetched %d records from the %s API (%d usable)", count, source, len(items))
		if count == 0 {
			break
		}
		for k, v := range items {
			data[k] = v
		}
		offset += count
		errCount = 0
	}

	return data, nil
}

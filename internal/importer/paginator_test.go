package importer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pageOf builds a page of n items with keys unique across offsets.
func pageOf(offset, n int) map[string]int {
	items := make(map[string]int, n)
	for i := 0; i < n; i++ {
		items[fmt.Sprintf("k%04d", offset+i)] = offset + i
	}
	return items
}

func TestFetchAllAccumulatesUntilEmptyPage(t *testing.T) {
	sizes := []int{100, 100, 100, 0}
	calls := 0

	data, err := fetchAll(context.Background(), "test", 5, func(_ context.Context, offset int) (map[string]int, int, error) {
		require.Less(t, calls, len(sizes), "fetched past the empty page")
		n := sizes[calls]
		calls++
		return pageOf(offset, n), n, nil
	})

	require.NoError(t, err)
	assert.Len(t, data, 300)
	assert.Equal(t, 4, calls)
}

func TestFetchAllRetriesSameOffset(t *testing.T) {
	failures := 0
	var offsets []int

	data, err := fetchAll(context.Background(), "test", 5, func(_ context.Context, offset int) (map[string]int, int, error) {
		offsets = append(offsets, offset)
		if failures < 4 {
			failures++
			return nil, 0, errors.New("boom")
		}
		if offset == 0 {
			return pageOf(0, 10), 10, nil
		}
		return nil, 0, nil
	})

	require.NoError(t, err)
	assert.Len(t, data, 10)
	// 4 failed attempts at offset 0, then the success, then the empty page
	assert.Equal(t, []int{0, 0, 0, 0, 0, 10}, offsets)
}

func TestFetchAllAbortsAfterBudget(t *testing.T) {
	attempt := 0
	_, err := fetchAll(context.Background(), "Voyages", 5, func(_ context.Context, _ int) (map[string]int, int, error) {
		attempt++
		return nil, 0, fmt.Errorf("failure %d", attempt)
	})

	require.Error(t, err)
	assert.Equal(t, 5, attempt)
	assert.Contains(t, err.Error(), "too many failures fetching data from the Voyages API")
	assert.Contains(t, err.Error(), "failure 5") // surfaces the last cause
}

func TestFetchAllErrorCounterResetsOnSuccess(t *testing.T) {
	// fail 4, succeed, fail 4, succeed, done: never reaches the budget
	script := []bool{false, false, false, false, true, false, false, false, false, true}
	step := 0

	data, err := fetchAll(context.Background(), "test", 5, func(_ context.Context, offset int) (map[string]int, int, error) {
		if step >= len(script) {
			return nil, 0, nil
		}
		ok := script[step]
		step++
		if !ok {
			return nil, 0, errors.New("transient")
		}
		return pageOf(offset, 5), 5, nil
	})

	require.NoError(t, err)
	assert.Len(t, data, 10)
}

func TestFetchAllAdvancesByReportedCount(t *testing.T) {
	// a page can report more records than it yields usable items; the
	// cursor must advance by the report, not the yield
	var offsets []int
	data, err := fetchAll(context.Background(), "test", 5, func(_ context.Context, offset int) (map[string]int, int, error) {
		offsets = append(offsets, offset)
		switch offset {
		case 0:
			return pageOf(0, 7), 10, nil
		case 10:
			return pageOf(10, 10), 10, nil
		default:
			return nil, 0, nil
		}
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20}, offsets)
	assert.Len(t, data, 17)
}

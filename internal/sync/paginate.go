package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
)

// maxPageOffset is the deepest offset the remote search supports. Reaching
// it forces a cursor reset keyed by the last seen record's modification time
// instead of an ever-growing offset.
const maxPageOffset = 9900

// fetchPage executes one search page. since is the effective lower bound of
// the modification window (zero means unbounded) and after is the offset
// cursor (0 on the first page).
type fetchPage func(ctx context.Context, since time.Time, after int) (*domain.SearchResult, error)

// paginate drives the cursor-based pull loop over a date-filtered search.
// Pages are fetched strictly in cursor order until the remote stops
// returning a next cursor. An empty page without a cursor is the normal
// terminal state; two consecutive empty pages that still carry a cursor are
// a protocol violation and abort the sync.
func paginate(ctx context.Context, lastPulled time.Time, fetch fetchPage) error {
	after := 0
	var override time.Time
	emptyPages := 0

	for {
		since := lastPulled
		if !override.IsZero() {
			since = override
		}

		result, err := fetch(ctx, since, after)
		if err != nil {
			return err
		}

		next, ok := nextAfter(result)
		if !ok {
			return nil
		}

		if len(result.Results) == 0 {
			emptyPages++
			if emptyPages >= 2 {
				return fmt.Errorf("%w: empty page with cursor %d", ErrPagingStalled, next)
			}
		} else {
			emptyPages = 0
		}

		if next >= maxPageOffset {
			last := lastRecord(result)
			if last == nil {
				return fmt.Errorf("%w: offset limit reached on empty page", ErrPagingStalled)
			}
			after = 0
			override = last.UpdatedAt
		} else {
			after = next
		}
	}
}

// nextAfter extracts the next-page offset. An absent or non-numeric cursor
// means all pages have been consumed.
func nextAfter(result *domain.SearchResult) (int, bool) {
	if result.Paging == nil || result.Paging.Next.After == "" {
		return 0, false
	}
	next, err := strconv.Atoi(result.Paging.Next.After)
	if err != nil {
		return 0, false
	}
	return next, true
}

func lastRecord(result *domain.SearchResult) *domain.Object {
	if len(result.Results) == 0 {
		return nil
	}
	return result.Results[len(result.Results)-1]
}

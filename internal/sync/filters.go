package sync

import (
	"strconv"
	"time"

	"github.com/johnwards/hubsync/internal/domain"
)

// modifiedRangeFilters builds the GTE/LTE pair on the entity's
// modification-date property spanning [since, now]. A zero since (first-ever
// sync) applies no filter at all. Values are epoch milliseconds, which is
// what the search API compares date properties against.
func modifiedRangeFilters(since, now time.Time, property string) []domain.FilterGroup {
	if since.IsZero() {
		return []domain.FilterGroup{}
	}
	return []domain.FilterGroup{{
		Filters: []domain.Filter{
			{PropertyName: property, Operator: "GTE", Value: epochMillis(since)},
			{PropertyName: property, Operator: "LTE", Value: epochMillis(now)},
		},
	}}
}

func epochMillis(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// searchRequest assembles one page request: date window, ascending sort on
// the modification property, property whitelist, and the offset cursor.
func searchRequest(modProperty string, properties []string, since, now time.Time, pageSize, after int) *domain.SearchRequest {
	req := &domain.SearchRequest{
		FilterGroups: modifiedRangeFilters(since, now, modProperty),
		Sorts:        []domain.Sort{{PropertyName: modProperty, Direction: "ASCENDING"}},
		Properties:   properties,
		Limit:        pageSize,
	}
	if after > 0 {
		req.After = strconv.Itoa(after)
	}
	return req
}

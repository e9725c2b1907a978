package ghostfolio

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"slices"

	"FolioPull/internal/domain/models"
	"FolioPull/pkg/util"
)

// decodeWatchlist accepts a bare list, {"watchlist": [...]} or
// {"items": [...]} and always returns a non-nil slice. Entries are kept
// as sent, including ones without a symbol.
func decodeWatchlist(body []byte) ([]models.WatchlistItem, error) {
	body = bytes.TrimSpace(body)
	items := []models.WatchlistItem{}
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return items, nil
	}

	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("decode watchlist list: %w", err)
		}
	case '{':
		var wrapper struct {
			Watchlist []models.WatchlistItem `json:"watchlist"`
			Items     []models.WatchlistItem `json:"items"`
		}
		if err := json.Unmarshal(body, &wrapper); err != nil {
			return nil, fmt.Errorf("decode watchlist object: %w", err)
		}
		if len(wrapper.Watchlist) > 0 {
			items = wrapper.Watchlist
		} else if len(wrapper.Items) > 0 {
			items = wrapper.Items
		}
	default:
		return nil, fmt.Errorf("decode watchlist: unexpected payload")
	}
	return items, nil
}

// sortHistory orders points by date ascending, latest last. Points whose
// date cannot be parsed keep their relative order after the dated ones.
func sortHistory(points []models.MarketDataPoint) {
	slices.SortStableFunc(points, func(a, b models.MarketDataPoint) int {
		ta, okA := util.ParseTime(a.Date)
		tb, okB := util.ParseTime(b.Date)
		switch {
		case !okA && !okB:
			return 0
		case !okA:
			return 1
		case !okB:
			return -1
		}
		return cmp.Compare(ta.UnixNano(), tb.UnixNano())
	})
}

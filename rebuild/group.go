package rebuild

import (
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/rustyeddy/perpjournal/ledger"
)

// Window returns the lookback range ending at now. One extra minute is
// taken on the front so a fill exactly at the boundary is not lost.
func Window(now time.Time, lookbackDays int) (start, end time.Time) {
	end = now
	start = now.Add(-time.Duration(lookbackDays)*24*time.Hour - time.Minute)
	return start, end
}

// matchAsset returns the first configured asset whose name equals,
// contains, or is contained by coin.
func matchAsset(coin string, assets []string) (string, bool) {
	for _, a := range assets {
		if coin == a || strings.Contains(coin, a) || strings.Contains(a, coin) {
			return a, true
		}
	}
	return "", false
}

// GroupByAsset buckets fills under the configured asset names, keeping
// input order. Every configured asset gets a (possibly empty) bucket. Fills
// that match nothing are logged and dropped. With no assets configured
// fills are grouped by their own coin.
func GroupByAsset(fills []ledger.Fill, assets []string, logger *slog.Logger) map[string][]ledger.Fill {
	if logger == nil {
		logger = slog.Default()
	}

	out := make(map[string][]ledger.Fill, len(assets))
	if len(assets) == 0 {
		for _, f := range fills {
			out[f.Coin] = append(out[f.Coin], f)
		}
		return out
	}

	for _, a := range assets {
		out[a] = nil
	}
	unmatched := make(map[string]bool)
	for _, f := range fills {
		a, ok := matchAsset(f.Coin, assets)
		if !ok {
			if !unmatched[f.Coin] {
				unmatched[f.Coin] = true
				logger.Warn("fill coin matches no asset", "coin", f.Coin)
			}
			continue
		}
		out[a] = append(out[a], f)
	}
	return out
}

// GroupFunding buckets funding events with the same matching rule as
// GroupByAsset. Unmatched events are dropped silently.
func GroupFunding(events []ledger.FundingEvent, assets []string) map[string][]ledger.FundingEvent {
	out := make(map[string][]ledger.FundingEvent)
	for _, e := range events {
		key := e.Coin
		if len(assets) > 0 {
			a, ok := matchAsset(e.Coin, assets)
			if !ok {
				continue
			}
			key = a
		}
		out[key] = append(out[key], e)
	}
	return out
}

// assetOrder is the configured order, or the sorted group keys.
func assetOrder[T any](groups map[string]T, assets []string) []string {
	if len(assets) > 0 {
		return append([]string(nil), assets...)
	}
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

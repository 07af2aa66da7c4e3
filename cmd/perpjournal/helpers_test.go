//go:build blackbox

package main_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const testUser = "0x1111111111111111111111111111111111111111"

func contains(s, sub string) bool { return strings.Contains(s, sub) }

type infoRequest struct {
	Type      string `json:"type"`
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
}

type fakeFill struct {
	Coin string `json:"coin"`
	Px   string `json:"px"`
	Sz   string `json:"sz"`
	Time int64  `json:"time"`
	Dir  string `json:"dir"`
	Fee  string `json:"fee"`
	Tid  int64  `json:"tid"`
}

// fakeVenue serves a fixed BTC history: 2 opened, 1 closed, one resting
// take-profit above entry.
func fakeVenue(t *testing.T) *httptest.Server {
	t.Helper()

	now := time.Now()
	fills := []fakeFill{
		{Coin: "BTC", Px: "100", Sz: "2", Time: now.Add(-2 * time.Hour).UnixMilli(), Dir: "Open Long", Fee: "0.2", Tid: 1},
		{Coin: "BTC", Px: "110", Sz: "1", Time: now.Add(-1 * time.Hour).UnixMilli(), Dir: "Close Long", Fee: "0.1", Tid: 2},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req infoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch req.Type {
		case "userFillsByTime":
			var page []fakeFill
			for _, f := range fills {
				if f.Time >= req.StartTime && f.Time <= req.EndTime {
					page = append(page, f)
				}
			}
			if page == nil {
				page = []fakeFill{}
			}
			_ = json.NewEncoder(w).Encode(page)
		case "userFunding":
			fmt.Fprint(w, `[]`)
		case "clearinghouseState":
			fmt.Fprint(w, `{"marginSummary":{"accountValue":"1000.5","totalMarginUsed":"20"},"withdrawable":"900",
				"assetPositions":[{"position":{"coin":"BTC","szi":"1","liquidationPx":"50","marginUsed":"20","leverage":{"type":"cross","value":5}}}]}`)
		case "frontendOpenOrders":
			fmt.Fprint(w, `[{"coin":"BTC","side":"A","limitPx":"130","sz":"1"}]`)
		default:
			http.Error(w, "unknown type", http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

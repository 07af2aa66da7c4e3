package hyperliquid

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// The info API encodes prices and sizes as decimal strings. They are decoded
// exactly and converted to float64 at the ledger boundary.

type wireFill struct {
	Coin          string              `json:"coin"`
	Px            decimal.NullDecimal `json:"px"`
	Sz            decimal.NullDecimal `json:"sz"`
	Side          string              `json:"side"`
	Time          int64               `json:"time"`
	StartPosition decimal.NullDecimal `json:"startPosition"`
	Dir           string              `json:"dir"`
	ClosedPnl     decimal.NullDecimal `json:"closedPnl"`
	Hash          string              `json:"hash"`
	Oid           json.Number         `json:"oid"`
	Tid           json.Number         `json:"tid"`
	Fee           decimal.NullDecimal `json:"fee"`
	FeeToken      string              `json:"feeToken"`
	Crossed       bool                `json:"crossed"`
}

// key identifies a fill across overlapping pages.
func (f wireFill) key() string {
	if f.Tid != "" {
		return f.Tid.String()
	}
	return strings.Join([]string{
		strconv.FormatInt(f.Time, 10),
		f.Oid.String(),
		f.Px.Decimal.String(),
		f.Sz.Decimal.String(),
		f.Dir,
	}, "-")
}

type wireFunding struct {
	Time  int64  `json:"time"`
	Hash  string `json:"hash"`
	Delta struct {
		Type        string              `json:"type"`
		Coin        string              `json:"coin"`
		Usdc        decimal.NullDecimal `json:"usdc"`
		Szi         decimal.NullDecimal `json:"szi"`
		FundingRate decimal.NullDecimal `json:"fundingRate"`
	} `json:"delta"`
}

type wirePosition struct {
	Coin          string              `json:"coin"`
	Szi           decimal.NullDecimal `json:"szi"`
	EntryPx       decimal.NullDecimal `json:"entryPx"`
	LiquidationPx decimal.NullDecimal `json:"liquidationPx"`
	MarginUsed    decimal.NullDecimal `json:"marginUsed"`
	Leverage      *struct {
		Type  string              `json:"type"`
		Value decimal.NullDecimal `json:"value"`
	} `json:"leverage"`
}

// wireAssetPosition accepts both {"position": {...}} and a bare position.
type wireAssetPosition struct {
	Position *wirePosition `json:"position"`
	wirePosition
}

func (a wireAssetPosition) pos() wirePosition {
	if a.Position != nil {
		return *a.Position
	}
	return a.wirePosition
}

type wireClearinghouse struct {
	MarginSummary struct {
		AccountValue    decimal.NullDecimal `json:"accountValue"`
		TotalMarginUsed decimal.NullDecimal `json:"totalMarginUsed"`
		TotalNtlPos     decimal.NullDecimal `json:"totalNtlPos"`
	} `json:"marginSummary"`
	Withdrawable      decimal.NullDecimal `json:"withdrawable"`
	AssetPositions    []wireAssetPosition `json:"assetPositions"`
	OpenPerpPositions []wireAssetPosition `json:"openPerpPositions"`
}

type wireOrder struct {
	Coin           string              `json:"coin"`
	Side           string              `json:"side"`
	LimitPx        decimal.NullDecimal `json:"limitPx"`
	Px             decimal.NullDecimal `json:"px"`
	TriggerPx      decimal.NullDecimal `json:"triggerPx"`
	IsTrigger      bool                `json:"isTrigger"`
	OrderType      string              `json:"orderType"`
	ReduceOnly     bool                `json:"reduceOnly"`
	IsPositionTpsl bool                `json:"isPositionTpsl"`
	Sz             decimal.NullDecimal `json:"sz"`
	OrigSz         decimal.NullDecimal `json:"origSz"`
}

// toFloat returns the value and whether the field was present.
func toFloat(d decimal.NullDecimal) (float64, bool) {
	if !d.Valid {
		return 0, false
	}
	return d.Decimal.InexactFloat64(), true
}

// floatOrNaN maps an absent field to NaN so the ledger skips it.
func floatOrNaN(d decimal.NullDecimal) float64 {
	if v, ok := toFloat(d); ok {
		return v
	}
	return math.NaN()
}

func floatPtr(d decimal.NullDecimal) *float64 {
	if v, ok := toFloat(d); ok {
		return &v
	}
	return nil
}

// IsSpotCoin reports whether coin names a spot market. Spot pairs are either
// "@index" or "BASE/QUOTE".
func IsSpotCoin(coin string) bool {
	return strings.HasPrefix(coin, "@") || strings.Contains(coin, "/")
}

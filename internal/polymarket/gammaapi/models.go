package gammaapi

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Market represents a Gamma API market. The outcome, price and token-id
// fields arrive as JSON-encoded arrays inside strings, which is how the
// Gamma API ships them.
type Market struct {
	ID            string  `json:"id"`
	ConditionID   string  `json:"conditionId"`
	Slug          string  `json:"slug"`
	Question      string  `json:"question"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	EndDateISO    string  `json:"endDateIso"`
	Image         string  `json:"image"`
	Icon          string  `json:"icon"`
	Active        bool    `json:"active"`
	Closed        bool    `json:"closed"`
	Archived      bool    `json:"archived"`
	VolumeNum     float64 `json:"volumeNum"`
	Volume24h     float64 `json:"volume24hr"`
	Volume1wk     float64 `json:"volume1wk"`
	LiquidityNum  float64 `json:"liquidityNum"`
	Outcomes      string  `json:"outcomes"`      // e.g. ["Yes","No"]
	OutcomePrices string  `json:"outcomePrices"` // e.g. ["0.62","0.38"]
	CLOBTokenIDs  string  `json:"clobTokenIds"`  // e.g. ["711...","829..."]
}

// Key returns the stable market identifier: condition id when present,
// falling back to id and then slug.
func (m *Market) Key() string {
	if m.ConditionID != "" {
		return m.ConditionID
	}
	if m.ID != "" {
		return m.ID
	}
	return m.Slug
}

// YesPercentage parses the first outcome price onto the 0-100 scale, rounded
// to two decimals. The first price tracks the YES outcome. Missing or
// malformed prices fall back to the 50.0 midpoint so one bad market never
// fails a whole refresh.
func (m *Market) YesPercentage() float64 {
	if m.OutcomePrices == "" {
		return 50.0
	}
	var raw []string
	if err := json.Unmarshal([]byte(m.OutcomePrices), &raw); err != nil || len(raw) == 0 {
		return 50.0
	}
	price, err := strconv.ParseFloat(raw[0], 64)
	if err != nil || price < 0 || price > 1 {
		return 50.0
	}
	return math.Round(price*10000) / 100
}

// YesTokenID returns the first CLOB token id, which tracks the YES outcome.
func (m *Market) YesTokenID() (string, error) {
	if m.CLOBTokenIDs == "" {
		return "", fmt.Errorf("market %s has no clob token ids", m.Key())
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.CLOBTokenIDs), &ids); err != nil {
		return "", fmt.Errorf("parse clob token ids: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("market %s has no clob token ids", m.Key())
	}
	return ids[0], nil
}

// EndDate parses endDateIso in the formats the API is known to emit.
// Returns false when the field is absent or unparsable.
func (m *Market) EndDate() (time.Time, bool) {
	if m.EndDateISO == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, m.EndDateISO); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// effectiveVolumes applies the fallback chain: the 24h and 7d buckets each
// fall back to the lifetime volume, and an empty 7d bucket inherits the 24h
// figure.
func (m *Market) effectiveVolumes() (vol24h, vol7d float64) {
	vol24h = m.Volume24h
	vol7d = m.Volume1wk
	if vol24h == 0 && m.VolumeNum > 0 {
		vol24h = m.VolumeNum
	}
	if vol7d == 0 && m.VolumeNum > 0 {
		vol7d = m.VolumeNum
	}
	if vol7d == 0 && vol24h > 0 {
		vol7d = vol24h
	}
	return vol24h, vol7d
}

// TopMarket is a market normalized for storage: identifier resolved, volume
// fallbacks applied and the YES price parsed onto the 0-100 scale.
type TopMarket struct {
	ID            string
	Slug          string
	Question      string
	Description   string
	Category      string
	Volume24h     float64
	Volume7d      float64
	Liquidity     float64
	YesPercentage float64
	Active        bool
	EndDate       *time.Time
	ImageURL      string
	CLOBTokenIDs  string
}

// Normalize converts a raw API market into its storage form.
func (m *Market) Normalize() TopMarket {
	vol24h, vol7d := m.effectiveVolumes()

	top := TopMarket{
		ID:            m.Key(),
		Slug:          m.Slug,
		Question:      m.Question,
		Description:   m.Description,
		Category:      m.Category,
		Volume24h:     vol24h,
		Volume7d:      vol7d,
		Liquidity:     m.LiquidityNum,
		YesPercentage: m.YesPercentage(),
		Active:        m.Active && !m.Closed,
		CLOBTokenIDs:  m.CLOBTokenIDs,
	}

	if end, ok := m.EndDate(); ok {
		top.EndDate = &end
	}
	if m.Image != "" {
		top.ImageURL = m.Image
	} else if m.Icon != "" {
		top.ImageURL = m.Icon
	}

	return top
}

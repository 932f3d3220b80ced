package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// App state keys shared between the refresher (writer) and the API layer
// (reader).
const (
	StateMarketsUpdated  = "markets_last_updated"
	StateNewsPruned      = "news_last_pruned"
	StateSnapshotsPruned = "snapshots_last_pruned"
)

// Market is a tracked prediction market, keyed by condition id
type Market struct {
	MarketID      string  `gorm:"primaryKey;size:255"`
	Slug          string  `gorm:"size:500;not null;index"`
	Title         string  `gorm:"type:text;not null"`
	Description   string  `gorm:"type:text"`
	Category      string  `gorm:"size:128"`
	Volume24h     float64 `gorm:"type:decimal(20,6);not null;default:0"`
	Volume7d      float64 `gorm:"type:decimal(20,6);not null;default:0;index"`
	Liquidity     float64 `gorm:"type:decimal(20,6);not null;default:0"`
	YesPercentage float64 `gorm:"type:decimal(5,2);not null;default:50.00"`
	IsActive      bool    `gorm:"default:true;index"`
	EndDateTS     int64   `gorm:"default:0"` // 0 = no resolution date
	ImageURL      string  `gorm:"size:512"`
	CLOBTokenIDs  string  `gorm:"column:clob_token_ids;type:text"`
	UpdatedTS     int64   `gorm:"not null;index"`
	CreatedTS     int64   `gorm:"not null"`
}

func (Market) TableName() string {
	return "markets"
}

// YesTokenID returns the first CLOB token id, which tracks the YES outcome.
func (m *Market) YesTokenID() (string, error) {
	if m.CLOBTokenIDs == "" {
		return "", fmt.Errorf("market %s has no clob token ids", m.MarketID)
	}
	var ids []string
	if err := json.Unmarshal([]byte(m.CLOBTokenIDs), &ids); err != nil {
		return "", fmt.Errorf("parse clob token ids: %w", err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("market %s has no clob token ids", m.MarketID)
	}
	return ids[0], nil
}

// PriceSnapshot is one sampled YES price for a market
type PriceSnapshot struct {
	ID            int64   `gorm:"primaryKey;autoIncrement"`
	MarketID      string  `gorm:"size:255;not null;index:idx_price_snapshots_market_time"`
	YesPercentage float64 `gorm:"type:decimal(5,2);not null"`
	Volume        float64 `gorm:"type:decimal(20,6);not null;default:0"`
	CapturedTS    int64   `gorm:"not null;index:idx_price_snapshots_market_time"`
}

func (PriceSnapshot) TableName() string {
	return "price_snapshots"
}

// NewsArticle is a stored article related to a market, deduplicated by URL
// hash
type NewsArticle struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	MarketID    string `gorm:"size:255;not null;index:idx_news_market_published"`
	URLHash     string `gorm:"uniqueIndex;size:64;not null"`
	Title       string `gorm:"type:text;not null"`
	Description string `gorm:"type:text"`
	URL         string `gorm:"type:text;not null"`
	Source      string `gorm:"size:255"`
	Author      string `gorm:"size:255"`
	PublishedTS int64  `gorm:"index:idx_news_market_published"`
	CreatedTS   int64  `gorm:"not null;index"`
}

func (NewsArticle) TableName() string {
	return "news_articles"
}

// AppState stores application state for checkpointing
type AppState struct {
	StateKey   string `gorm:"primaryKey;size:64"`
	StateValue string `gorm:"type:text;not null"`
	UpdatedTS  int64  `gorm:"not null;index"`
}

func (AppState) TableName() string {
	return "app_state"
}

// WhaleTradeSeen tracks already-noticed whale trades for deduplication
type WhaleTradeSeen struct {
	TradeHash    string  `gorm:"primaryKey;size:128"`
	MarketID     string  `gorm:"size:255;not null;index"`
	ProxyWallet  string  `gorm:"size:128;not null;index"`
	Side         string  `gorm:"size:10;not null"`
	Outcome      string  `gorm:"size:255;not null"`
	NotionalUSD  float64 `gorm:"type:decimal(20,6);not null"`
	Price        float64 `gorm:"type:decimal(10,6);not null"`
	TimestampSec int64   `gorm:"not null;index"`
	CreatedTS    int64   `gorm:"not null"`
}

func (WhaleTradeSeen) TableName() string {
	return "whale_trades_seen"
}

// BeforeCreate hooks for timestamps
func (m *Market) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().Unix()
	if m.CreatedTS == 0 {
		m.CreatedTS = now
	}
	if m.UpdatedTS == 0 {
		m.UpdatedTS = now
	}
	return nil
}

func (p *PriceSnapshot) BeforeCreate(tx *gorm.DB) error {
	if p.CapturedTS == 0 {
		p.CapturedTS = time.Now().Unix()
	}
	return nil
}

func (n *NewsArticle) BeforeCreate(tx *gorm.DB) error {
	if n.CreatedTS == 0 {
		n.CreatedTS = time.Now().Unix()
	}
	return nil
}

func (a *AppState) BeforeCreate(tx *gorm.DB) error {
	if a.UpdatedTS == 0 {
		a.UpdatedTS = time.Now().Unix()
	}
	return nil
}

func (w *WhaleTradeSeen) BeforeCreate(tx *gorm.DB) error {
	if w.CreatedTS == 0 {
		w.CreatedTS = time.Now().Unix()
	}
	return nil
}

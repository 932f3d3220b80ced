package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"debatefloor/internal/config"
	"debatefloor/internal/metrics"
)

// DB wraps the GORM database connection
type DB struct {
	conn *gorm.DB
	log  *logrus.Logger
}

// New creates a new database connection with GORM
func New(cfg *config.Config, log *logrus.Logger) (*DB, error) {
	// Configure GORM logger
	gormLogger := logger.New(
		&gormLogAdapter{log: log},
		logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	conn, err := gorm.Open(mysql.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DatabaseMaxConns)
	sqlDB.SetMaxIdleConns(cfg.DatabaseMaxConns / 2)
	sqlDB.SetConnMaxIdleTime(cfg.DatabaseMaxIdleTime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("Database connection established")

	return &DB{conn: conn, log: log}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the database connection is alive
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// AutoMigrate runs GORM auto-migration
func (db *DB) AutoMigrate() error {
	return db.conn.AutoMigrate(
		&Market{},
		&PriceSnapshot{},
		&NewsArticle{},
		&AppState{},
		&WhaleTradeSeen{},
	)
}

// GetState retrieves a state value by key
func (db *DB) GetState(ctx context.Context, key string) (value string, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("get_state", time.Since(start), err) }()

	var state AppState
	result := db.conn.WithContext(ctx).Where("state_key = ?", key).First(&state)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if result.Error != nil {
		return "", result.Error
	}
	return state.StateValue, nil
}

// SetState sets a state value
func (db *DB) SetState(ctx context.Context, key, value string) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("set_state", time.Since(start), err) }()

	state := AppState{
		StateKey:   key,
		StateValue: value,
		UpdatedTS:  time.Now().Unix(),
	}
	return db.conn.WithContext(ctx).Save(&state).Error
}

// GetMarket retrieves a market by its condition id
func (db *DB) GetMarket(ctx context.Context, id string) (market *Market, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("get_market", time.Since(start), err) }()

	var m Market
	result := db.conn.WithContext(ctx).Where("market_id = ?", id).First(&m)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &m, nil
}

// GetMarketBySlug retrieves a market by slug
func (db *DB) GetMarketBySlug(ctx context.Context, slug string) (market *Market, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("get_market_by_slug", time.Since(start), err) }()

	var m Market
	result := db.conn.WithContext(ctx).Where("slug = ?", slug).First(&m)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, result.Error
	}
	return &m, nil
}

// ListMarkets returns stored markets ordered by 7d volume descending
func (db *DB) ListMarkets(ctx context.Context, activeOnly bool, limit int) (markets []Market, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("list_markets", time.Since(start), err) }()

	query := db.conn.WithContext(ctx).Order("volume_7d DESC")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&markets)
	return markets, result.Error
}

// UpsertMarket inserts or updates a market record
func (db *DB) UpsertMarket(ctx context.Context, market *Market) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("upsert_market", time.Since(start), err) }()

	market.UpdatedTS = time.Now().Unix()
	return db.conn.WithContext(ctx).Save(market).Error
}

// InsertPriceSnapshot appends one price sample for a market
func (db *DB) InsertPriceSnapshot(ctx context.Context, snapshot *PriceSnapshot) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("insert_price_snapshot", time.Since(start), err) }()

	return db.conn.WithContext(ctx).Create(snapshot).Error
}

// ListPriceSnapshots returns snapshots for a market taken at or after
// sinceTS, oldest first
func (db *DB) ListPriceSnapshots(ctx context.Context, marketID string, sinceTS int64) (snapshots []PriceSnapshot, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("list_price_snapshots", time.Since(start), err) }()

	result := db.conn.WithContext(ctx).
		Where("market_id = ? AND captured_ts >= ?", marketID, sinceTS).
		Order("captured_ts ASC").
		Find(&snapshots)
	return snapshots, result.Error
}

// UpsertNewsArticle stores an article unless its URL hash is already known.
// Returns true when a new row was created.
func (db *DB) UpsertNewsArticle(ctx context.Context, article *NewsArticle) (created bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("upsert_news_article", time.Since(start), err) }()

	var existing NewsArticle
	result := db.conn.WithContext(ctx).Where("url_hash = ?", article.URLHash).First(&existing)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		if err := db.conn.WithContext(ctx).Create(article).Error; err != nil {
			return false, err
		}
		return true, nil
	}
	if result.Error != nil {
		return false, result.Error
	}

	// Known article: refresh the mutable fields
	updates := map[string]interface{}{
		"title":       article.Title,
		"description": article.Description,
		"source":      article.Source,
	}
	return false, db.conn.WithContext(ctx).
		Model(&NewsArticle{}).
		Where("url_hash = ?", article.URLHash).
		Updates(updates).Error
}

// ListNewsArticles returns stored articles for a market, newest first
func (db *DB) ListNewsArticles(ctx context.Context, marketID string, limit int) (articles []NewsArticle, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("list_news_articles", time.Since(start), err) }()

	query := db.conn.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("published_ts DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	result := query.Find(&articles)
	return articles, result.Error
}

// DeleteOldNews removes articles created more than the given number of days
// ago. Returns the number of rows removed.
func (db *DB) DeleteOldNews(ctx context.Context, days int) (deleted int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("delete_old_news", time.Since(start), err) }()

	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	result := db.conn.WithContext(ctx).
		Where("created_ts < ?", cutoff).
		Delete(&NewsArticle{})
	return result.RowsAffected, result.Error
}

// DeleteOldPriceSnapshots removes snapshots captured more than the given
// number of days ago. Returns the number of rows removed.
func (db *DB) DeleteOldPriceSnapshots(ctx context.Context, days int) (deleted int64, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("delete_old_price_snapshots", time.Since(start), err) }()

	cutoff := time.Now().AddDate(0, 0, -days).Unix()
	result := db.conn.WithContext(ctx).
		Where("captured_ts < ?", cutoff).
		Delete(&PriceSnapshot{})
	return result.RowsAffected, result.Error
}

// HasWhaleTradeSeen checks if a whale trade has already been noticed
func (db *DB) HasWhaleTradeSeen(ctx context.Context, tradeHash string) (seen bool, err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("has_whale_trade_seen", time.Since(start), err) }()

	var count int64
	result := db.conn.WithContext(ctx).
		Model(&WhaleTradeSeen{}).
		Where("trade_hash = ?", tradeHash).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}
	return count > 0, nil
}

// InsertWhaleTradeSeen records a noticed whale trade for deduplication
func (db *DB) InsertWhaleTradeSeen(ctx context.Context, trade *WhaleTradeSeen) (err error) {
	start := time.Now()
	defer func() { metrics.RecordDatabaseQuery("insert_whale_trade_seen", time.Since(start), err) }()

	return db.conn.WithContext(ctx).Create(trade).Error
}

// gormLogAdapter adapts logrus to GORM's logger interface
type gormLogAdapter struct {
	log *logrus.Logger
}

func (l *gormLogAdapter) Printf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

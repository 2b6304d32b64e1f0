package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Cache serves quotes from a SQLite table and falls back to the wrapped
// provider when the table does not cover the requested range.
type Cache struct {
	db       *sql.DB
	provider Provider
	logger   *zap.Logger
}

func OpenSQLite(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite3", dsn)
}

func InitSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS quotes(
		symbol TEXT NOT NULL, day TEXT NOT NULL,
		open REAL, high REAL, low REAL, close REAL NOT NULL, adj_close REAL, volume INTEGER,
		PRIMARY KEY(symbol, day)
	)`)
	return err
}

func NewCache(ctx context.Context, db *sql.DB, provider Provider, logger *zap.Logger) (*Cache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := InitSchema(ctx, db); err != nil {
		return nil, fmt.Errorf("failed to create quote table: %w", err)
	}
	return &Cache{db: db, provider: provider, logger: logger}, nil
}

func (c *Cache) GetQuotes(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error) {
	symbol = strings.ToUpper(symbol)
	covered, err := c.covers(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if covered {
		c.logger.Debug("quote cache hit", zap.String("symbol", symbol))
		return c.load(ctx, symbol, start, end)
	}

	quotes, err := c.provider.GetQuotes(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx, symbol, quotes); err != nil {
		return nil, err
	}
	c.logger.Debug("quote cache filled", zap.String("symbol", symbol), zap.Int("quotes", len(quotes)))
	return quotes, nil
}

// covers reports whether stored quotes reach both ends of [start, end]. Days
// on either side without trading are tolerated up to a long weekend.
func (c *Cache) covers(ctx context.Context, symbol string, start, end time.Time) (bool, error) {
	var first, last sql.NullString
	err := c.db.QueryRowContext(ctx, `SELECT MIN(day), MAX(day) FROM quotes WHERE symbol=?`, symbol).Scan(&first, &last)
	if err != nil {
		return false, fmt.Errorf("failed to read quote range: %w", err)
	}
	if !first.Valid || !last.Valid {
		return false, nil
	}
	lo, err := time.Parse(dateLayout, first.String)
	if err != nil {
		return false, err
	}
	hi, err := time.Parse(dateLayout, last.String)
	if err != nil {
		return false, err
	}
	const slack = 4 * 24 * time.Hour
	if !start.IsZero() && lo.Sub(start) > slack {
		return false, nil
	}
	if !end.IsZero() && end.Sub(hi) > slack {
		return false, nil
	}
	return true, nil
}

func (c *Cache) load(ctx context.Context, symbol string, start, end time.Time) ([]Quote, error) {
	lo, hi := "0000-01-01", "9999-12-31"
	if !start.IsZero() {
		lo = start.Format(dateLayout)
	}
	if !end.IsZero() {
		hi = end.Format(dateLayout)
	}
	rows, err := c.db.QueryContext(ctx, `SELECT day, open, high, low, close, adj_close, volume
		FROM quotes WHERE symbol=? AND day>=? AND day<=? ORDER BY day ASC`, symbol, lo, hi)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		var q Quote
		var day string
		if err := rows.Scan(&day, &q.Open, &q.High, &q.Low, &q.Close, &q.AdjClose, &q.Volume); err != nil {
			return nil, err
		}
		if q.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// Save upserts quotes for symbol in one transaction.
func (c *Cache) Save(ctx context.Context, symbol string, quotes []Quote) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO quotes(symbol,day,open,high,low,close,adj_close,volume)
		VALUES(?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, strings.ToUpper(symbol), q.Date.Format(dateLayout),
			q.Open, q.High, q.Low, q.Close, q.AdjClose, q.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store quote for %s: %w", symbol, err)
		}
	}
	return tx.Commit()
}

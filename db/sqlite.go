// Package db persists klines, analysis reports and predictions in SQLite.
package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"stocklens/market"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the schema.
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS klines (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20),
        open REAL,
        high REAL,
        low REAL,
        close REAL,
        volume INTEGER,
        timestamp DATETIME,
        UNIQUE(symbol, timestamp)
    );
    CREATE TABLE IF NOT EXISTS analysis_reports (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20),
        trend VARCHAR(20),
        signal INTEGER,
        recommendation TEXT,
        payload TEXT,
        created_at DATETIME,
        UNIQUE(symbol, created_at)
    );
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY,
        symbol VARCHAR(20),
        ensemble_prediction REAL,
        prediction_std REAL,
        best_model VARCHAR(30),
        payload TEXT,
        created_at DATETIME
    );
    `
	_, err = database.Exec(query)
	return err
}

// Close closes the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	return database.Close()
}

// SaveKLines upserts fetched bars for later reuse.
func SaveKLines(bars []market.KLine) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	tx, err := database.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO klines
        (symbol, open, high, low, close, volume, timestamp)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, bar := range bars {
		if _, err := stmt.Exec(bar.Symbol, bar.Open, bar.High, bar.Low,
			bar.Close, bar.Volume, bar.Timestamp); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// SaveReport stores one analysis report as JSON plus queryable columns.
func SaveReport(symbol, trend string, signal int, recommendation string, report interface{}) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = database.Exec(`INSERT OR REPLACE INTO analysis_reports
        (symbol, trend, signal, recommendation, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		symbol, trend, signal, recommendation, string(payload), time.Now())
	return err
}

// SavePrediction stores one prediction report as JSON.
func SavePrediction(symbol string, ensemble, std float64, bestModel string, report interface{}) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	_, err = database.Exec(`INSERT INTO predictions
        (symbol, ensemble_prediction, prediction_std, best_model, payload, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		symbol, ensemble, std, bestModel, string(payload), time.Now())
	return err
}

// RecentReports returns the stored report payloads for a symbol, newest
// first.
func RecentReports(symbol string, limit int) ([]string, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := database.Query(`SELECT payload FROM analysis_reports
        WHERE symbol = ? ORDER BY created_at DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payloads []string
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, rows.Err()
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package analytics aggregates pageviews into monthly counters stored in
// PostgreSQL. Each qualifying request increments its (region, entity,
// year, month) bucket by one via upsert; reloads count again, which is
// the intended behavior. Exclusion of bots and authenticated sessions
// happens in the HTTP layer before Log is reached.
package analytics

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// EntityType tags which kind of page produced a view.
type EntityType string

const (
	EntityHotspot EntityType = "hotspot"
	EntityGroup   EntityType = "group"
	EntityDrive   EntityType = "drive"
	EntityArticle EntityType = "article"
	EntityRegion  EntityType = "region"
)

// RegionCount is one row of a pageview report.
type RegionCount struct {
	RegionCode string     `json:"regionCode"`
	Entity     EntityType `json:"entity"`
	Month      int        `json:"month"`
	Count      int64      `json:"count"`
}

// Connect opens the PostgreSQL analytics pool and verifies it with a
// ping.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("analytics open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("analytics ping: %w", err)
	}
	slog.Info("analytics database connected")
	return db, nil
}

// Migrate runs all pending goose migrations from the embedded SQL files.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("analytics migrations applied")
	return nil
}

// Store records and reports pageview counters.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store on the given pool.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Log increments the current month's bucket for every region code of the
// viewed entity. One page load yields one increment per code (country,
// state, county), so each report level stays self-consistent.
func (s *Store) Log(ctx context.Context, regionCodes []string, entity EntityType, at time.Time) error {
	year, month := at.Year(), int(at.Month())
	for _, code := range regionCodes {
		if code == "" {
			continue
		}
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO pageviews (region_code, entity_type, year, month, count)
			VALUES ($1, $2, $3, $4, 1)
			ON CONFLICT (region_code, entity_type, year, month)
			DO UPDATE SET count = pageviews.count + 1
		`, code, entity, year, month)
		if err != nil {
			return fmt.Errorf("log pageview %s/%s: %w", code, entity, err)
		}
	}
	return nil
}

// Count returns one bucket's value; zero when the bucket does not exist.
func (s *Store) Count(ctx context.Context, regionCode string, entity EntityType, year, month int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM pageviews
		WHERE region_code = $1 AND entity_type = $2 AND year = $3 AND month = $4
	`, regionCode, entity, year, month).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count pageviews %s/%s: %w", regionCode, entity, err)
	}
	return count, nil
}

// MonthlyReport returns every bucket of a month, largest first.
func (s *Store) MonthlyReport(ctx context.Context, year, month int) ([]RegionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region_code, entity_type, count FROM pageviews
		WHERE year = $1 AND month = $2
		ORDER BY count DESC, region_code
	`, year, month)
	if err != nil {
		return nil, fmt.Errorf("monthly report %d-%02d: %w", year, month, err)
	}
	defer rows.Close()

	var report []RegionCount
	for rows.Next() {
		rc := RegionCount{Month: month}
		if err := rows.Scan(&rc.RegionCode, &rc.Entity, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		report = append(report, rc)
	}
	return report, rows.Err()
}

// RegionSeries returns a region's monthly totals across entity types for
// one year, oldest month first.
func (s *Store) RegionSeries(ctx context.Context, regionCode string, year int) ([]RegionCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region_code, entity_type, month, SUM(count) FROM pageviews
		WHERE region_code = $1 AND year = $2
		GROUP BY region_code, entity_type, month
		ORDER BY month, entity_type
	`, regionCode, year)
	if err != nil {
		return nil, fmt.Errorf("region series %s/%d: %w", regionCode, year, err)
	}
	defer rows.Close()

	var series []RegionCount
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.RegionCode, &rc.Entity, &rc.Month, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		series = append(series, rc)
	}
	return series, rows.Err()
}

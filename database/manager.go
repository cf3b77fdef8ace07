/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

type defaultDatabaseManager struct {
	config    *ConnectionConfig
	db        *bun.DB
	sqlDB     *sql.DB
	logger    Logger
	mu        sync.RWMutex
	connected bool
	lastError error
}

// NewDatabaseManager returns an AbstractDatabaseManager backed by Bun.
// If config is nil, a sensible default configuration is used.
func NewDatabaseManager(config *ConnectionConfig) AbstractDatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &defaultDatabaseManager{config: config}
}

func (dm *defaultDatabaseManager) Connect(ctx context.Context) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.connected && dm.db != nil {
		return nil
	}

	sqlDB, db, err := dm.createConnection()
	if err != nil {
		dm.lastError = err
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	dm.configureConnectionPool(sqlDB)

	ctxTimeout, cancel := context.WithTimeout(ctx, dm.config.ConnectTimeout)
	defer cancel()

	if err := db.PingContext(ctxTimeout); err != nil {
		_ = db.Close()
		dm.lastError = err
		return fmt.Errorf("database connection test failed: %w", err)
	}

	if dm.config.Type == "sqlite" {
		if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			_ = db.Close()
			dm.lastError = err
			return fmt.Errorf("failed to enable sqlite foreign keys: %w", err)
		}
	}

	dm.sqlDB, dm.db = sqlDB, db
	dm.connected = true
	dm.lastError = nil

	if dm.logger != nil {
		dm.logger.Info("Database connected successfully", "name", dm.config.Name, "type", dm.config.Type, "host", dm.config.Host)
	}
	return nil
}

func (dm *defaultDatabaseManager) createConnection() (*sql.DB, *bun.DB, error) {
	var sqlDB *sql.DB
	var db *bun.DB
	var err error

	if dm.config.ConnectTimeout <= 0 {
		dm.config.ConnectTimeout = 30 * time.Second
	}

	switch dm.config.Type {
	case "mysql":
		sqlDB, db, err = dm.createMySQLConnection()
	case "postgres":
		sqlDB, db, err = dm.createPostgreSQLConnection()
	case "sqlite":
		sqlDB, db, err = dm.createSQLiteConnection()
	default:
		return nil, nil, fmt.Errorf("unsupported database type: %s", dm.config.Type)
	}
	if err != nil {
		return nil, nil, err
	}

	if dm.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	if dm.config.SlowQueryTime > 0 {
		db.AddQueryHook(newSlowQueryHook(dm.config.SlowQueryTime, dm.logger))
	}
	return sqlDB, db, nil
}

// mysqlDSN sets ClientFoundRows so that an UPDATE writing identical values
// still reports the matched row as affected.
func (dm *defaultDatabaseManager) mysqlDSN() string {
	if dm.config.DSN != "" {
		return dm.config.DSN
	}
	mc := mysql.NewConfig()
	mc.User = dm.config.Username
	mc.Passwd = dm.config.Password
	mc.Net = "tcp"
	mc.Addr = dm.config.Host + ":" + strconv.Itoa(dm.config.Port)
	mc.DBName = dm.config.DBName
	mc.ParseTime = true
	mc.Loc = time.Local
	mc.ClientFoundRows = true
	mc.Timeout = dm.config.ConnectTimeout
	mc.ReadTimeout = dm.config.ReadTimeout
	mc.WriteTimeout = dm.config.WriteTimeout
	if dm.config.Charset != "" {
		mc.Params = map[string]string{"charset": dm.config.Charset}
	}
	return mc.FormatDSN()
}

func (dm *defaultDatabaseManager) createMySQLConnection() (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open("mysql", dm.mysqlDSN())
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, mysqldialect.New()), nil
}

func (dm *defaultDatabaseManager) postgresDSN() string {
	if dm.config.DSN != "" {
		return dm.config.DSN
	}
	sslMode := dm.config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dm.config.Username, dm.config.Password),
		Host:   dm.config.Host + ":" + strconv.Itoa(dm.config.Port),
		Path:   "/" + dm.config.DBName,
	}
	q := url.Values{}
	q.Set("sslmode", sslMode)
	q.Set("connect_timeout", strconv.Itoa(int(dm.config.ConnectTimeout.Seconds())))
	u.RawQuery = q.Encode()
	return u.String()
}

func (dm *defaultDatabaseManager) createPostgreSQLConnection() (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open("postgres", dm.postgresDSN())
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, pgdialect.New()), nil
}

func (dm *defaultDatabaseManager) sqliteDSN() string {
	if dm.config.DSN != "" {
		return dm.config.DSN
	}
	return fmt.Sprintf("%s.db", dm.config.DBName)
}

func (dm *defaultDatabaseManager) createSQLiteConnection() (*sql.DB, *bun.DB, error) {
	sqlDB, err := sql.Open(sqliteshim.ShimName, dm.sqliteDSN())
	if err != nil {
		return nil, nil, err
	}
	return sqlDB, bun.NewDB(sqlDB, sqlitedialect.New()), nil
}

// configureConnectionPool applies the pool limits. SQLite is pinned to one
// long-lived connection: the foreign_keys pragma is per connection and an
// in-memory database disappears with its last connection.
func (dm *defaultDatabaseManager) configureConnectionPool(sqlDB *sql.DB) {
	if dm.config.Type == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
		return
	}
	sqlDB.SetMaxIdleConns(dm.config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(dm.config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(dm.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(dm.config.ConnMaxIdleTime)
}

func (dm *defaultDatabaseManager) Disconnect() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.db == nil {
		return nil
	}
	err := dm.db.Close()
	dm.db = nil
	dm.sqlDB = nil
	dm.connected = false

	if dm.logger != nil {
		if err != nil {
			dm.logger.Error("Failed to close database connection", "name", dm.config.Name, "error", err)
		} else {
			dm.logger.Info("Database connection closed", "name", dm.config.Name)
		}
	}
	return err
}

func (dm *defaultDatabaseManager) Ping(ctx context.Context) error {
	dm.mu.RLock()
	db := dm.db
	dm.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (dm *defaultDatabaseManager) GetDB() *bun.DB {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.db
}

func (dm *defaultDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{
		LastCheckTime: start,
		Connected:     dm.connected,
	}
	if dm.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()

	err := dm.db.PingContext(ctxTimeout)
	status.ResponseTime = time.Since(start)
	if err != nil {
		status.Connected = false
		status.LastError = err.Error()
		dm.lastError = err
	} else {
		status.Healthy = true
		status.Connected = true
		dm.lastError = nil
	}

	stats := dm.sqlDB.Stats()
	status.ActiveConns = stats.InUse
	status.IdleConns = stats.Idle
	status.MaxOpenConns = stats.MaxOpenConnections
	return status
}

func (dm *defaultDatabaseManager) GetStats() *DBStats {
	dm.mu.RLock()
	sqlDB := dm.sqlDB
	dm.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}
	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (dm *defaultDatabaseManager) SetLogger(logger Logger) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.logger = logger
}

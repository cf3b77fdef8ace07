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
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

var supportedTypes = []string{"mysql", "postgres", "sqlite"}

// ManagerConstructor builds the manager for an already validated config.
type ManagerConstructor func(cfg *ConnectionConfig) AbstractDatabaseManager

// BaseDatabaseFactory validates connection settings, applies environment
// overrides and builds the database manager for them.
type BaseDatabaseFactory struct {
	newManager ManagerConstructor
	logger     Logger
}

// NewDatabaseFactory returns a factory producing Bun-backed managers.
func NewDatabaseFactory() *BaseDatabaseFactory {
	return &BaseDatabaseFactory{
		newManager: NewDatabaseManager,
		logger:     GetLogger(),
	}
}

// SetManagerConstructor replaces the manager implementation.
func (f *BaseDatabaseFactory) SetManagerConstructor(fn ManagerConstructor) {
	if fn != nil {
		f.newManager = fn
	}
}

// SetLogger sets the logger handed to every manager the factory creates.
func (f *BaseDatabaseFactory) SetLogger(logger Logger) {
	if logger != nil {
		f.logger = logger
	}
}

// CreateFromConfig constructs a database manager from the given connection
// configuration. Environment overrides are written into cfg.
func (f *BaseDatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (AbstractDatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if err := f.overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	cfg.Type = normalizeType(cfg.Type)

	supported := false
	for _, t := range supportedTypes {
		if cfg.Type == t {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	manager := f.newManager(cfg)
	manager.SetLogger(f.logger)
	return manager, nil
}

func normalizeType(t string) string {
	switch t = strings.ToLower(strings.TrimSpace(t)); t {
	case "postgresql", "pg":
		return "postgres"
	case "sqlite3":
		return "sqlite"
	default:
		return t
	}
}

// envOverrides lists the settings that may come from the environment. Only
// variables that are present are applied.
type envOverrides struct {
	Type            *string
	DSN             *string
	Host            *string
	Port            *int
	Username        *string
	Password        *string
	Name            *string
	SSLMode         *string        `split_words:"true"`
	AutoCreate      *bool          `split_words:"true"`
	MaxIdleConns    *int           `split_words:"true"`
	MaxOpenConns    *int           `split_words:"true"`
	ConnMaxLifetime *time.Duration `split_words:"true"`
	EnableQueryLog  *bool          `split_words:"true"`
	SlowQueryTime   *time.Duration `split_words:"true"`
}

// EnvPrefix returns the variable prefix of a connection: DB for the default
// connection, DB_<NAME> for the others.
func EnvPrefix(name string) string {
	if name == "" || name == DefaultConnectionName {
		return "DB"
	}
	return "DB_" + strings.ToUpper(name)
}

// overrideFromEnv overrides configuration values from environment variables.
func (f *BaseDatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix(cfg.Name), &env); err != nil {
		return fmt.Errorf("invalid database environment: %w", err)
	}
	setIf(&cfg.Type, env.Type)
	setIf(&cfg.DSN, env.DSN)
	setIf(&cfg.Host, env.Host)
	setIf(&cfg.Port, env.Port)
	setIf(&cfg.Username, env.Username)
	setIf(&cfg.Password, env.Password)
	setIf(&cfg.DBName, env.Name)
	setIf(&cfg.SSLMode, env.SSLMode)
	setIf(&cfg.AutoCreate, env.AutoCreate)
	setIf(&cfg.MaxIdleConns, env.MaxIdleConns)
	setIf(&cfg.MaxOpenConns, env.MaxOpenConns)
	setIf(&cfg.ConnMaxLifetime, env.ConnMaxLifetime)
	setIf(&cfg.EnableQueryLog, env.EnableQueryLog)
	setIf(&cfg.SlowQueryTime, env.SlowQueryTime)
	return nil
}

func setIf[V any](dst *V, v *V) {
	if v != nil {
		*dst = *v
	}
}

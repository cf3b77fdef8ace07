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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/joho/godotenv"
	"github.com/tomoncle/shelf/utils"
	"gopkg.in/yaml.v3"
)

// DefaultConnectionName is the connection used when no name is given.
const DefaultConnectionName = "default"

var ErrUnknownConnection = errors.New("unknown connection")

// LogConfig selects the level and console format of every named logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text, json
}

// Apply pushes the logging settings to the logger registry.
func (l LogConfig) Apply() {
	if l.Level != "" {
		utils.ConfigureLogLevel(l.Level)
	}
	if l.Format != "" {
		utils.ConfigureConsoleLogFormat(l.Format)
	}
}

// Config aggregates the named connections and logging settings.
type Config struct {
	Connections map[string]*ConnectionConfig
	Log         LogConfig
}

type fileConfig struct {
	Connections map[string]yaml.Node `yaml:"connections"`
	Log         LogConfig            `yaml:"log"`
}

// LoadConfig reads a YAML configuration file. A ".env" file next to it is
// loaded into the process environment first, when present.
//
//	connections:
//	  default:
//	    type: postgres
//	    host: 127.0.0.1
//	    port: 5432
//	    dbname: shelf
//	    conn_max_lifetime: 1h
//	log:
//	  level: debug
func LoadConfig(path string) (*Config, error) {
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML configuration. Every connection starts from
// DefaultConnectionConfig, so a file only needs to carry what differs.
func ParseConfig(data []byte) (*Config, error) {
	var raw fileConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg := &Config{
		Connections: make(map[string]*ConnectionConfig, len(raw.Connections)),
		Log:         raw.Log,
	}
	for name, node := range raw.Connections {
		conn := DefaultConnectionConfig()
		if err := node.Decode(conn); err != nil {
			return nil, fmt.Errorf("failed to parse connection %q: %w", name, err)
		}
		conn.Name = name
		cfg.Connections[name] = conn
	}
	return cfg, nil
}

// Connection returns a copy of the named connection settings.
func (c *Config) Connection(name string) (*ConnectionConfig, error) {
	if name == "" {
		name = DefaultConnectionName
	}
	conn, ok := c.Connections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q, configured: %v", ErrUnknownConnection, name, c.Names())
	}
	return conn.Clone(), nil
}

// Names lists the configured connection names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Connections))
	for name := range c.Connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

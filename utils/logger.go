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

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

const timestampFormat = "2006-01-02 15:04:05.000"

var (
	registryMu    sync.RWMutex
	registry      = map[string]*logrus.Logger{}
	baseLevel     = ParseLogLevel(EnvDefaultString("LOG_LEVEL", "info"))
	consoleFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
	output        io.Writer = os.Stdout
)

// ParseLogLevel maps a level name to a logrus level; unknown names map to info.
func ParseLogLevel(s string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger returns the named logger, creating and registering it on first use.
func NewLogger(name string) *logrus.Logger {
	registryMu.Lock()
	defer registryMu.Unlock()
	if l, ok := registry[name]; ok {
		return l
	}
	l := logrus.New()
	l.SetOutput(output)
	l.SetLevel(baseLevel)
	l.SetReportCaller(true)
	l.SetFormatter(newFormatter(name, consoleFormat))
	registry[name] = l
	return l
}

func newFormatter(name, format string) logrus.Formatter {
	if format == "json" {
		return &JSONLogFormatter{LoggerName: name}
	}
	return &Log4jColorFormatter{LoggerName: name, NameWidth: 10, ColorCaller: true}
}

// SetLoggerLevel changes the level of a registered logger. It reports false
// when no logger with that name exists.
func SetLoggerLevel(name string, lvl string) bool {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return false
	}
	l.SetLevel(ParseLogLevel(lvl))
	return true
}

// ConfigureLogLevel sets the level of every registered logger and of loggers
// created afterwards.
func ConfigureLogLevel(lvl string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	baseLevel = ParseLogLevel(lvl)
	for _, l := range registry {
		l.SetLevel(baseLevel)
	}
}

// ConfigureConsoleLogFormat switches every logger between "text" and "json".
func ConfigureConsoleLogFormat(format string) {
	f := "text"
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		f = "json"
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	consoleFormat = f
	for name, l := range registry {
		l.SetFormatter(newFormatter(name, f))
	}
}

// SetOutput redirects every logger, existing and future, to w.
func SetOutput(w io.Writer) {
	registryMu.Lock()
	defer registryMu.Unlock()
	output = w
	for _, l := range registry {
		l.SetOutput(w)
	}
}

// Log4jColorFormatter renders "time LEVEL pid - [main] name caller : msg k=v".
type Log4jColorFormatter struct {
	LoggerName  string
	NameWidth   int
	ColorCaller bool
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(colorLevel(fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String())), entry.Level))
	b.WriteByte(' ')
	b.WriteString(colorWrap(fmt.Sprintf("%-6d", os.Getpid()), ansiMagenta))
	b.WriteString(" - ")
	b.WriteString(colorWrap("[main]", ansiMagenta))
	b.WriteByte(' ')
	b.WriteString(colorWrap(fmt.Sprintf("%*s", f.NameWidth, limitRunes(f.LoggerName, f.NameWidth)), ansiCyan))
	if caller := callerOf(entry); caller != "" {
		if f.ColorCaller {
			caller = colorWrap(caller, ansiFaint)
		}
		b.WriteByte(' ')
		b.WriteString(caller)
	}
	b.WriteString(colorWrap(" :", ansiFaint))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter renders one JSON object per entry through logrus'
// JSONFormatter, tagged with the logger name under "model".
type JSONLogFormatter struct {
	LoggerName string
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	e := entry.WithField("model", f.LoggerName)
	e.Level = entry.Level
	e.Message = entry.Message
	if caller := callerOf(entry); caller != "" {
		e.Data["caller"] = caller
	}
	jf := &logrus.JSONFormatter{
		TimestampFormat: timestampFormat,
		FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
	}
	return jf.Format(e)
}

func callerOf(entry *logrus.Entry) string {
	if entry.Caller == nil {
		return ""
	}
	dir := filepath.Base(filepath.Dir(entry.Caller.File))
	return dir + "/" + filepath.Base(entry.Caller.File) + ":" + strconv.Itoa(entry.Caller.Line)
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func colorWrap(s, code string) string { return code + s + ansiReset }

func colorLevel(s string, level logrus.Level) string {
	switch level {
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		return colorWrap(s, ansiRed)
	case logrus.WarnLevel:
		return colorWrap(s, ansiYellow)
	case logrus.InfoLevel:
		return colorWrap(s, ansiGreen)
	case logrus.DebugLevel:
		return colorWrap(s, ansiBlue)
	default:
		return colorWrap(s, ansiMagenta)
	}
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

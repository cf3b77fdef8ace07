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
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestToFields(t *testing.T) {
	assert.Nil(t, toFields(nil))
	assert.Equal(t, logrus.Fields{"name": "default", "port": 5432}, toFields([]interface{}{"name", "default", "port", 5432}))
	assert.Equal(t, logrus.Fields{"name": "default", "!BADKEY": "dangling"}, toFields([]interface{}{"name", "default", "dangling"}))
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	l.SetFormatter(&logrus.TextFormatter{DisableColors: true, DisableTimestamp: true})

	logger := NewDefaultLogger(l)
	logger.Info("Storage context opened", "session", "abc")
	assert.Contains(t, buf.String(), "Storage context opened")
	assert.Contains(t, buf.String(), "session=abc")

	buf.Reset()
	logger.SetLevel(LogLevelWarn)
	logger.Info("hidden")
	assert.Empty(t, buf.String())
	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestGetLoggerKeepsFirst(t *testing.T) {
	first := GetLogger()
	InitLogger(&recordingLogger{})
	assert.Same(t, first, GetLogger())
}

// Copyright 2026 SmartRec Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestSetLogger(t *testing.T) {
	temp := t.TempDir()
	path := filepath.Join(temp, "smartrec.log")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", path}))

	SetLogger(flagSet, false)
	Logger().Info("hello")
	_ = Logger().Sync()
	_, err := os.Stat(path)
	assert.NoError(t, err)

	SetLogger(flagSet, true)
	Logger().Debug("hello")
	_ = Logger().Sync()
}

func TestSetLoggerWithoutFile(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse(nil))
	SetLogger(flagSet, false)
	assert.NotNil(t, Logger())
	assert.False(t, flagSet.Changed("log-path"))
}

func TestSetLoggerLevel(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse(nil))
	SetLogger(flagSet, true)
	assert.True(t, Logger().Core().Enabled(zapcore.DebugLevel))
	SetLogger(flagSet, false)
	assert.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.InfoLevel))
}

func TestRotatingFile(t *testing.T) {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	assert.NoError(t, flagSet.Parse([]string{"--log-path", "a.log", "--log-max-size", "7", "--log-max-backups", "3"}))
	file := rotatingFile(flagSet)
	assert.Equal(t, "a.log", file.Filename)
	assert.Equal(t, 7, file.MaxSize)
	assert.Equal(t, 3, file.MaxBackups)
	assert.Zero(t, file.MaxAge)
}

func TestCloseLogger(t *testing.T) {
	CloseLogger()
	assert.False(t, Logger().Core().Enabled(zapcore.DebugLevel))
	assert.False(t, Logger().Core().Enabled(zapcore.ErrorLevel))
	assert.True(t, Logger().Core().Enabled(zapcore.FatalLevel))
}

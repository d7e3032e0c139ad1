// Copyright 2023 BlockFold
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogConfigGetter(t *testing.T) {
	tests := []struct {
		name      string
		conf      LogConfig
		wantLevel zapcore.Level
	}{
		{name: "default", conf: LogConfig{}, wantLevel: zapcore.InfoLevel},
		{name: "debug console", conf: LogConfig{Level: "debug", Format: "console"}, wantLevel: zapcore.DebugLevel},
		{name: "error json", conf: LogConfig{Level: "error", Format: "json"}, wantLevel: zapcore.ErrorLevel},
		{name: "bad level", conf: LogConfig{Level: "noisy"}, wantLevel: zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, zap.NewAtomicLevelAt(tt.wantLevel), tt.conf.getLevel())
			require.NotNil(t, tt.conf.getEncoder())
			require.NotNil(t, tt.conf.getSyncer())
			require.Len(t, tt.conf.getOptions(), 2)
		})
	}
}

func TestSetupInstallsGlobalLogger(t *testing.T) {
	prev := GetGlobalLogger()
	defer setGlobalLogger(prev)

	logger := Setup(&LogConfig{Level: "debug", Format: "json"})
	require.Same(t, logger, GetGlobalLogger())
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestFileSyncer(t *testing.T) {
	conf := LogConfig{
		Level:    "info",
		Filename: filepath.Join(t.TempDir(), "blockfold.log"),
		MaxSize:  1,
	}
	require.NotEqual(t, getConsoleSyncer(), conf.getSyncer())
}

// Unless explicitly stated otherwise all files in this repository are licensed
// under the Apache License Version 2.0.
// This product includes software developed at Datadog (https://www.datadoghq.com/).
// Copyright 2016-present Datadog, Inc.

// Package log wraps seelog behind package-level leveled helpers so the
// rest of the agent never touches the logging backend directly.
package log

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cihub/seelog"
)

var (
	mu     sync.RWMutex
	logger seelog.LoggerInterface = seelog.Default
	level  seelog.LogLevel        = seelog.InfoLvl
)

// SetupLogger configures the logger singleton with a seelog interface
// and a minimum level. Levels that don't parse fall back to "info".
func SetupLogger(l seelog.LoggerInterface, lvl string) {
	mu.Lock()
	defer mu.Unlock()

	logger = l
	parsed, ok := seelog.LogLevelFromString(strings.ToLower(lvl))
	if !ok {
		parsed = seelog.InfoLvl
	}
	level = parsed
	logger.SetAdditionalStackDepth(1) //nolint:errcheck
}

// ChangeLogLevel updates the minimum level of the running logger.
func ChangeLogLevel(lvl string) error {
	mu.Lock()
	defer mu.Unlock()

	parsed, ok := seelog.LogLevelFromString(strings.ToLower(lvl))
	if !ok {
		return fmt.Errorf("unknown log level: %s", lvl)
	}
	level = parsed
	return nil
}

// GetLogLevel returns the current minimum level.
func GetLogLevel() seelog.LogLevel {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

func shouldLog(lvl seelog.LogLevel) bool {
	mu.RLock()
	defer mu.RUnlock()
	return lvl >= level
}

// Trace logs at the trace level.
func Trace(v ...interface{}) {
	if shouldLog(seelog.TraceLvl) {
		logger.Trace(v...)
	}
}

// Tracef logs with format at the trace level.
func Tracef(format string, params ...interface{}) {
	if shouldLog(seelog.TraceLvl) {
		logger.Tracef(format, params...)
	}
}

// Debug logs at the debug level.
func Debug(v ...interface{}) {
	if shouldLog(seelog.DebugLvl) {
		logger.Debug(v...)
	}
}

// Debugf logs with format at the debug level.
func Debugf(format string, params ...interface{}) {
	if shouldLog(seelog.DebugLvl) {
		logger.Debugf(format, params...)
	}
}

// Info logs at the info level.
func Info(v ...interface{}) {
	if shouldLog(seelog.InfoLvl) {
		logger.Info(v...)
	}
}

// Infof logs with format at the info level.
func Infof(format string, params ...interface{}) {
	if shouldLog(seelog.InfoLvl) {
		logger.Infof(format, params...)
	}
}

// Warn logs at the warn level and returns an error containing the
// formatted message.
func Warn(v ...interface{}) error {
	err := fmt.Errorf("%s", fmt.Sprint(v...))
	if shouldLog(seelog.WarnLvl) {
		logger.Warn(v...) //nolint:errcheck
	}
	return err
}

// Warnf logs with format at the warn level and returns an error
// containing the formatted message.
func Warnf(format string, params ...interface{}) error {
	err := fmt.Errorf(format, params...)
	if shouldLog(seelog.WarnLvl) {
		logger.Warnf(format, params...) //nolint:errcheck
	}
	return err
}

// Error logs at the error level and returns an error containing the
// formatted message.
func Error(v ...interface{}) error {
	err := fmt.Errorf("%s", fmt.Sprint(v...))
	if shouldLog(seelog.ErrorLvl) {
		logger.Error(v...) //nolint:errcheck
	}
	return err
}

// Errorf logs with format at the error level and returns an error
// containing the formatted message.
func Errorf(format string, params ...interface{}) error {
	err := fmt.Errorf(format, params...)
	if shouldLog(seelog.ErrorLvl) {
		logger.Errorf(format, params...) //nolint:errcheck
	}
	return err
}

// Flush flushes the underlying logger's buffers.
func Flush() {
	mu.RLock()
	defer mu.RUnlock()
	logger.Flush()
}

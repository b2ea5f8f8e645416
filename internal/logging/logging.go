/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
// Package logging adapts charmbracelet/log to the build logger.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// Logger writes build progress through a charmbracelet logger.
type Logger struct {
	l *log.Logger
}

// New creates a logger writing to w. level is one of debug, info, warn or
// error and defaults to info; format "json" selects JSON lines.
func New(w io.Writer, level, format string) *Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	formatter := log.TextFormatter
	if format == "json" {
		formatter = log.JSONFormatter
	}
	return &Logger{l: log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Formatter:       formatter,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "appbuild",
	})}
}

func (l *Logger) Info(format string, args ...any)    { l.l.Infof(format, args...) }
func (l *Logger) Warning(format string, args ...any) { l.l.Warnf(format, args...) }
func (l *Logger) Debug(format string, args ...any)   { l.l.Debugf(format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.l.Errorf(format, args...) }

/*
Copyright 2018 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package log provides a logging abstraction backed by zap.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger defines an interface for logging messages.
type Logger interface {

	// Printf logs a formatted string.
	Printf(format string, args ...interface{})

	// Println logs a line.
	Println(args ...interface{})

	// Fatalf is equivalent to Printf() followed by a program abort.
	Fatalf(format string, args ...interface{})

	// Fatalln is equivalent to Println() followed by a progam abort.
	Fatalln(args ...interface{})
}

type logger struct {
	log Logger
}

// The module's 5 named loggers, each independently wireable.
var (
	Parse    = &logger{}
	MRC      = &logger{}
	Cache    = &logger{}
	Pipeline = &logger{}
	CLI      = &logger{}
)

// SetParseLogger sets the content-stream parse logger.
func SetParseLogger(log Logger) {
	Parse.log = log
}

// SetMRCLogger sets the MRC compositor/segmenter logger.
func SetMRCLogger(log Logger) {
	MRC.log = log
}

// SetCacheLogger sets the page-cache logger.
func SetCacheLogger(log Logger) {
	Cache.log = log
}

// SetPipelineLogger sets the phase/job/page pipeline logger.
func SetPipelineLogger(log Logger) {
	Pipeline.log = log
}

// SetCLILogger sets the top-level job-summary logger.
func SetCLILogger(log Logger) {
	CLI.log = log
}

// sugared adapts a zap.SugaredLogger to the Logger interface.
type sugared struct {
	s *zap.SugaredLogger
}

func (s sugared) Printf(format string, args ...interface{}) { s.s.Infof(format, args...) }
func (s sugared) Println(args ...interface{})                { s.s.Info(args...) }
func (s sugared) Fatalf(format string, args ...interface{})  { s.s.Fatalf(format, args...) }
func (s sugared) Fatalln(args ...interface{})                { s.s.Fatal(args...) }

// NewZapLogger builds a zap-backed Logger writing to w, either console-
// encoded (human-readable) or JSON-encoded.
func NewZapLogger(w io.Writer, json bool, name string) Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if json {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), zapcore.DebugLevel)
	l := zap.New(core).Named(name)
	return sugared{s: l.Sugar()}
}

// SetDefaultLoggers wires every named logger to a zap backend writing to
// stderr, console-encoded unless jsonOutput is set.
func SetDefaultLoggers(jsonOutput bool) {
	SetParseLogger(NewZapLogger(os.Stderr, jsonOutput, "parse"))
	SetMRCLogger(NewZapLogger(os.Stderr, jsonOutput, "mrc"))
	SetCacheLogger(NewZapLogger(os.Stderr, jsonOutput, "cache"))
	SetPipelineLogger(NewZapLogger(os.Stderr, jsonOutput, "pipeline"))
	SetCLILogger(NewZapLogger(os.Stderr, jsonOutput, "cli"))
}

// DisableLoggers turns off all logging.
func DisableLoggers() {
	SetParseLogger(nil)
	SetMRCLogger(nil)
	SetCacheLogger(nil)
	SetPipelineLogger(nil)
	SetCLILogger(nil)
}

// Printf writes a formatted message to the log.
func (l *logger) Printf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Printf(format, args...)
}

// Println writes a line to the log.
func (l *logger) Println(args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Println(args...)
}

func (l *logger) Fatalf(format string, args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Fatalf(format, args...)
}

func (l *logger) Fatalln(args ...interface{}) {
	if l.log == nil {
		return
	}
	l.log.Fatalln(args...)
}

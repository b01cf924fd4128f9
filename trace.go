/*------------------------------------------------------------------------------
* trace.go : debug trace functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : trace lines go to a logrus logger. a file path given to TraceOpen
*          is written through a lumberjack rotating writer, an empty path
*          traces to stdout. level<=1 messages are always echoed to stderr.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	traceMu    sync.RWMutex
	traceLog   *logrus.Logger
	traceOut   io.Closer
	levelTrace int
	tickTrace  time.Time /* tick time at traceopen */
)

// trace rotation settings used by TraceOpen
var (
	TraceMaxSize = 64 /* max size of a trace file (MB) */
	TraceMaxAge  = 7  /* max age of rotated trace files (days) */
)

func traceLevelOf(level int) logrus.Level {
	switch {
	case level <= 1:
		return logrus.ErrorLevel
	case level == 2:
		return logrus.WarnLevel
	case level == 3:
		return logrus.InfoLevel
	case level == 4:
		return logrus.DebugLevel
	}
	return logrus.TraceLevel
}

/* open trace ------------------------------------------------------------------
* open debug trace
* args   : string file      I   trace file path ("": stdout)
* return : none
*-----------------------------------------------------------------------------*/
func TraceOpen(file string) {
	logger := logrus.New()
	logger.SetLevel(logrus.TraceLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableColors:   true,
	})

	var closer io.Closer
	if len(file) == 0 {
		logger.SetOutput(os.Stdout)
	} else {
		lj := &lumberjack.Logger{
			Filename: file,
			MaxSize:  TraceMaxSize,
			MaxAge:   TraceMaxAge,
			Compress: true,
		}
		logger.SetOutput(lj)
		closer = lj
	}

	traceMu.Lock()
	defer traceMu.Unlock()
	if traceOut != nil {
		traceOut.Close()
	}
	traceLog, traceOut, tickTrace = logger, closer, time.Now()
}

func TraceClose() {
	traceMu.Lock()
	defer traceMu.Unlock()
	if traceOut != nil {
		traceOut.Close()
	}
	traceLog, traceOut = nil, nil
}

func TraceLevel(level int) {
	traceMu.Lock()
	levelTrace = level
	traceMu.Unlock()
}

func tracef(level int, fields logrus.Fields, format string, v ...interface{}) {
	msg := strings.TrimRight(fmt.Sprintf(format, v...), "\n")

	/* print error message to stderr */
	if level <= 1 {
		fmt.Fprintln(os.Stderr, msg)
	}
	traceMu.RLock()
	defer traceMu.RUnlock()
	if traceLog == nil || level > levelTrace {
		return
	}
	traceLog.WithFields(fields).Log(traceLevelOf(level), msg)
}

func Trace(level int, format string, v ...interface{}) {
	tracef(level, logrus.Fields{"lvl": level}, format, v...)
}

// Tracet traces with the elapsed time since TraceOpen.
func Tracet(level int, format string, v ...interface{}) {
	traceMu.RLock()
	tick := time.Since(tickTrace).Seconds()
	traceMu.RUnlock()
	tracef(level, logrus.Fields{"lvl": level, "tick": fmt.Sprintf("%9.3f", tick)}, format, v...)
}

// Traceb dumps bytes in hex.
func Traceb(level int, p []uint8) {
	var sb strings.Builder
	for i, b := range p {
		if i > 0 && i%32 == 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	tracef(level, logrus.Fields{"lvl": level, "nbyte": len(p)}, "%s", sb.String())
}

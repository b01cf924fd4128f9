/*------------------------------------------------------------------------------
* ssrcast_linux_test.go : ssrcast tests on a named pipe
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/

//go:build linux

package main

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"ssrgo"

	"github.com/stretchr/testify/assert"
)

/* cancel while a file stream read is blocked */
func Test_ssrcastutest7(t *testing.T) {
	assert := assert.New(t)
	fifo := filepath.Join(t.TempDir(), "ssr.fifo")
	if err := syscall.Mkfifo(fifo, 0644); err != nil {
		t.Skipf("mkfifo: %v", err)
	}
	/* writer end kept open, nothing written */
	w, err := os.OpenFile(fifo, os.O_RDWR, 0)
	assert.NoError(err)
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	c := newCaster(fixedNow, nil, newCasterMetrics())
	done := make(chan error, 1)
	go func() { done <- c.run(ctx, ssrgo.OpenStream("file://"+fifo, 0, 0), nil) }()

	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("run not ended by cancel")
	}
}

/*------------------------------------------------------------------------------
* trace_test.go : debug trace tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"os"
	"path/filepath"
	"ssrgo"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_traceutest1(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "ssrgo.trace")

	ssrgo.TraceOpen(file)
	ssrgo.TraceLevel(3)
	ssrgo.Trace(3, "decoded frames=%d\n", 12)
	ssrgo.Trace(4, "hidden detail\n")
	ssrgo.Tracet(2, "stream error: %s\n", "timeout")
	ssrgo.Traceb(3, []uint8{0xD3, 0x00, 0x13})
	ssrgo.TraceClose()
	ssrgo.TraceLevel(0)

	/* closed trace writes nothing */
	ssrgo.Trace(2, "after close\n")

	data, err := os.ReadFile(file)
	assert.NoError(err)
	text := string(data)
	assert.Contains(text, "decoded frames=12")
	assert.Contains(text, "lvl=3")
	assert.Contains(text, "stream error: timeout")
	assert.Contains(text, "tick=")
	assert.Contains(text, "D30013")
	assert.NotContains(text, "hidden detail")
	assert.NotContains(text, "after close")
}

/* parity error frames are dumped at level 5 */
func Test_traceutest2(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "ssrgo.trace")

	frame := rtcmFrame([]uint8{0x3E, 0xD0, 0x00, 0x00})
	frame[len(frame)-1] ^= 0xFF
	ssrgo.TraceOpen(file)
	ssrgo.TraceLevel(5)
	dec := ssrgo.NewSsrDecoder("test")
	dec.Decode(frame)
	ssrgo.TraceClose()
	ssrgo.TraceLevel(0)

	data, err := os.ReadFile(file)
	assert.NoError(err)
	assert.Equal(1, dec.Stats().CrcErrors)
	assert.Contains(string(data), "rtcm3 parity error")
	assert.Contains(string(data), "D300043ED00000")
}

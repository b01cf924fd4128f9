/*------------------------------------------------------------------------------
* stream_test.go : input stream tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"ssrgo"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

/* test caster: answers every connection with rsp followed by payload */
type testCaster struct {
	ln      net.Listener
	rsp     string
	payload []byte
	delay   time.Duration /* before the response */
	mu      sync.Mutex
	reqs    []string
	closed  chan struct{} /* peer closed a delayed connection */
}

func newTestCaster(t *testing.T, rsp string, payload []byte) *testCaster {
	return newDelayedCaster(t, rsp, payload, 0)
}

func newDelayedCaster(t *testing.T, rsp string, payload []byte, delay time.Duration) *testCaster {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	c := &testCaster{ln: ln, rsp: rsp, payload: payload, delay: delay, closed: make(chan struct{}, 16)}
	go c.serve()
	t.Cleanup(func() { ln.Close() })
	return c
}

func (c *testCaster) serve() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			return
		}
		go func(conn net.Conn) {
			defer conn.Close()
			if c.rsp != "" {
				var req strings.Builder
				br := bufio.NewReader(conn)
				for {
					line, err := br.ReadString('\n')
					if err != nil {
						return
					}
					req.WriteString(line)
					if line == "\r\n" {
						break
					}
				}
				c.mu.Lock()
				c.reqs = append(c.reqs, req.String())
				c.mu.Unlock()
				time.Sleep(c.delay)
				io.WriteString(conn, c.rsp)
			}
			conn.Write(c.payload)
			if c.delay > 0 {
				/* wait for the peer to close */
				conn.SetReadDeadline(time.Now().Add(2 * time.Second))
				_, err := conn.Read(make([]byte, 1))
				if ne, ok := err.(net.Error); err != nil && !(ok && ne.Timeout()) {
					c.closed <- struct{}{}
				}
				return
			}
			time.Sleep(200 * time.Millisecond)
		}(conn)
	}
}

func (c *testCaster) addr() string { return c.ln.Addr().String() }

func (c *testCaster) requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string{}, c.reqs...)
}

func readFull(ctx context.Context, stream *ssrgo.Stream, n int) ([]byte, error) {
	var data []byte
	buff := make([]byte, 256)
	for len(data) < n {
		m, err := stream.Read(ctx, buff)
		if err != nil {
			return data, err
		}
		data = append(data, buff[:m]...)
	}
	return data, nil
}

/* file stream */
func Test_streamutest1(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "ssr.rtcm3")
	payload := []byte(strings.Repeat("0123456789", 100))
	assert.NoError(os.WriteFile(file, payload, 0644))
	ctx := context.Background()

	for _, path := range []string{file, "file://" + file} {
		stream := ssrgo.OpenStream(path, 0, 0)
		assert.Equal(ssrgo.STR_FILE, stream.Type)
		data, err := readFull(ctx, stream, len(payload))
		assert.NoError(err)
		assert.Equal(payload, data)
		_, err = stream.Read(ctx, make([]byte, 16))
		assert.Equal(io.EOF, err)

		state, inb, _ := stream.StreamStat()
		assert.Equal(1, state)
		assert.Equal(int64(len(payload)), inb)
		stream.Close()
		_, err = stream.Read(ctx, make([]byte, 16))
		assert.Equal(ssrgo.ErrStreamClosed, err)
		state, _, _ = stream.StreamStat()
		assert.Equal(0, state)
	}

	stream := ssrgo.OpenStream(filepath.Join(t.TempDir(), "none"), 0, 0)
	_, err := stream.Read(ctx, make([]byte, 16))
	assert.True(errors.Is(err, os.ErrNotExist))
}

/* ntrip client */
func Test_streamutest2(t *testing.T) {
	assert := assert.New(t)
	payload := []byte("\xD3\x00\x04rtcm-payload")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, rsp := range []string{
		"ICY 200 OK\r\n",
		"HTTP/1.1 200 OK\r\nContent-Type: gnss/data\r\nNtrip-Version: Ntrip/2.0\r\n\r\n",
	} {
		caster := newTestCaster(t, rsp, payload)
		stream := ssrgo.OpenStream("ntrip://user:pass@"+caster.addr()+"/SSRA00BKG0", 2000, 100)
		assert.Equal(ssrgo.STR_NTRIPCLI, stream.Type)

		data, err := readFull(ctx, stream, len(payload))
		assert.NoError(err)
		assert.Equal(payload, data)
		stream.Close()

		reqs := caster.requests()
		assert.Len(reqs, 1)
		assert.True(strings.HasPrefix(reqs[0], "GET /SSRA00BKG0 HTTP/1.0\r\n"))
		assert.Contains(reqs[0], "User-Agent: NTRIP "+ssrgo.NTRIP_AGENT+"\r\n")
		assert.Contains(reqs[0], "Authorization: Basic "+
			base64.StdEncoding.EncodeToString([]byte("user:pass"))+"\r\n")
	}

	/* anonymous request */
	caster := newTestCaster(t, "ICY 200 OK\r\n", payload)
	stream := ssrgo.OpenStream("ntrip://"+caster.addr()+"/SSR", 2000, 100)
	_, err := readFull(ctx, stream, len(payload))
	assert.NoError(err)
	stream.Close()
	assert.NotContains(caster.requests()[0], "Authorization")
}

/* caster without the mountpoint: reconnect until canceled */
func Test_streamutest3(t *testing.T) {
	assert := assert.New(t)
	caster := newTestCaster(t, "SOURCETABLE 200 OK\r\n", []byte("ENDSOURCETABLE\r\n"))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	stream := ssrgo.OpenStream("ntrip://"+caster.addr()+"/NONE", 1000, 100)
	_, err := stream.Read(ctx, make([]byte, 16))
	assert.Error(err)

	state, inb, msg := stream.StreamStat()
	assert.Equal(-1, state)
	assert.Equal(int64(0), inb)
	assert.Contains(msg, "no mountp")
	assert.True(len(caster.requests()) >= 2)
}

/* tcp client */
func Test_streamutest4(t *testing.T) {
	assert := assert.New(t)
	payload := []byte("tcp client payload")
	caster := newTestCaster(t, "", payload)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := ssrgo.OpenStream("tcpcli://"+caster.addr(), 2000, 100)
	assert.Equal(ssrgo.STR_TCPCLI, stream.Type)
	data, err := readFull(ctx, stream, len(payload))
	assert.NoError(err)
	assert.Equal(payload, data)

	/* close from another goroutine ends a blocked read */
	go func() {
		time.Sleep(50 * time.Millisecond)
		stream.Close()
	}()
	_, err = readFull(ctx, stream, 1)
	assert.Equal(ssrgo.ErrStreamClosed, err)
}

func Test_streamutest5(t *testing.T) {
	assert := assert.New(t)

	addr, port, user, passwd, mntpnt := ssrgo.DecodeTcpPath("user:p@ss:w@caster.example.com:2101/MNT1")
	assert.Equal("caster.example.com", addr)
	assert.Equal("2101", port)
	assert.Equal("user", user)
	assert.Equal("p@ss:w", passwd)
	assert.Equal("MNT1", mntpnt)

	addr, port, user, passwd, mntpnt = ssrgo.DecodeTcpPath("localhost")
	assert.Equal("localhost", addr)
	assert.Equal("", port+user+passwd+mntpnt)

	ctype, body := ssrgo.StreamType("serial://ttyUSB0:115200")
	assert.Equal(ssrgo.STR_SERIAL, ctype)
	assert.Equal("ttyUSB0:115200", body)
	ctype, body = ssrgo.StreamType("/data/ssr.rtcm3")
	assert.Equal(ssrgo.STR_FILE, ctype)
	assert.Equal("/data/ssr.rtcm3", body)
}

/* close while the ntrip request is in progress */
func Test_streamutest6(t *testing.T) {
	assert := assert.New(t)
	caster := newDelayedCaster(t, "ICY 200 OK\r\n", []byte("late payload"), 300*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := ssrgo.OpenStream("ntrip://"+caster.addr()+"/SSR", 2000, 100)
	go func() {
		time.Sleep(100 * time.Millisecond)
		stream.Close()
	}()
	_, err := stream.Read(ctx, make([]byte, 64))
	assert.Equal(ssrgo.ErrStreamClosed, err)

	state, inb, _ := stream.StreamStat()
	assert.Equal(0, state)
	assert.Equal(int64(0), inb)
	select {
	case <-caster.closed:
	case <-time.After(3 * time.Second):
		t.Error("connection not closed")
	}
}

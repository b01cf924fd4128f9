/*------------------------------------------------------------------------------
* stream.go : input stream functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : stream path
*            file         : [file://]path
*            tcp client   : tcpcli://addr[:port]
*            ntrip client : ntrip://[user[:passwd]@]addr[:port][/mntpnt]
*            serial       : serial://port[:brate]
*          network and serial streams are reconnected after errors, paced
*          by the reconnect interval. a file stream ends with io.EOF.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	serial "github.com/tarm/goserial"
	"golang.org/x/time/rate"
)

/* stream types */
const (
	STR_NONE     = 0
	STR_SERIAL   = 1
	STR_FILE     = 2
	STR_TCPCLI   = 4
	STR_NTRIPCLI = 7
)

const (
	NTRIP_AGENT      = "ssrgo/1.0"
	NTRIP_CLI_PORT   = 2101          /* default ntrip-client connection port */
	NTRIP_RSP_OK_CLI = "ICY 200 OK"  /* ntrip response: client */
	NTRIP_RSP_SRCTBL = "SOURCETABLE" /* ntrip response: source table */
	NTRIP_RSP_HTTP   = "HTTP/"       /* ntrip response: http */
	NTRIP_MAXRSP     = 32768         /* max size of ntrip response */
	DEFAULT_TOINACT  = 10000         /* inactive timeout (ms) */
	DEFAULT_TIRECON  = 10000         /* reconnect interval (ms) */
)

var ErrStreamClosed = errors.New("stream closed")

/* decode tcp/ntrip path -------------------------------------------------------
* args   : string path      I   [user[:passwd]@]addr[:port][/mntpnt]
* return : address, port, user, password, mountpoint
*-----------------------------------------------------------------------------*/
func DecodeTcpPath(path string) (addr, port, user, passwd, mntpnt string) {
	buff := path
	if index := strings.LastIndex(buff, "@"); index >= 0 {
		cred := buff[:index]
		if idx := strings.Index(cred, ":"); idx >= 0 {
			user, passwd = cred[:idx], cred[idx+1:]
		} else {
			user = cred
		}
		buff = buff[index+1:]
	}
	if index := strings.Index(buff, "/"); index >= 0 {
		mntpnt = buff[index+1:]
		buff = buff[:index]
	}
	if index := strings.Index(buff, ":"); index >= 0 {
		port = buff[index+1:]
		buff = buff[:index]
	}
	addr = buff
	return
}

/* split stream path into type and body --------------------------------------*/
func StreamType(path string) (int, string) {
	for _, p := range []struct {
		prefix string
		ctype  int
	}{
		{"serial://", STR_SERIAL},
		{"tcpcli://", STR_TCPCLI},
		{"ntrip://", STR_NTRIPCLI},
		{"file://", STR_FILE},
	} {
		if strings.HasPrefix(path, p.prefix) {
			return p.ctype, path[len(p.prefix):]
		}
	}
	return STR_FILE, path
}

/* ntrip connection reading after the response header */
type ntripConn struct {
	net.Conn
	br *bufio.Reader
}

func (c *ntripConn) Read(p []byte) (int, error) { return c.br.Read(p) }

/* open serial port (port[:brate]) -------------------------------------------*/
func openSerial(path string) (io.ReadCloser, error) {
	port, brate := path, 9600
	if index := strings.Index(path, ":"); index > 0 {
		port = path[:index]
		f := strings.Split(path[index+1:], ":")
		v, err := strconv.Atoi(f[0])
		if err != nil {
			return nil, fmt.Errorf("bitrate error (%s)", f[0])
		}
		brate = v
	}
	s, err := serial.OpenPort(&serial.Config{Name: port, Baud: brate})
	if err != nil {
		return nil, err
	}
	Tracet(3, "openserial: port=%s brate=%d\n", port, brate)
	return s, nil
}

/* open tcp client -----------------------------------------------------------*/
func openTcpClient(ctx context.Context, path string, toinact time.Duration) (net.Conn, error) {
	addr, port, _, _, _ := DecodeTcpPath(path)
	if port == "" {
		return nil, fmt.Errorf("no port (%s)", path)
	}
	d := net.Dialer{Timeout: toinact}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
	if err != nil {
		return nil, err
	}
	Tracet(3, "opentcpcli: addr=%s port=%s\n", addr, port)
	return conn, nil
}

/* ntrip client request --------------------------------------------------------
* connect to caster, send request and wait response
* args   : string path      I   [user[:passwd]@]addr[:port]/mntpnt
* return : stream of the mountpoint after the response header
*-----------------------------------------------------------------------------*/
func openNtrip(ctx context.Context, path string, toinact time.Duration) (io.ReadCloser, error) {
	var p strings.Builder

	addr, port, user, passwd, mntpnt := DecodeTcpPath(path)
	if port == "" {
		port = strconv.Itoa(NTRIP_CLI_PORT)
	}
	if mntpnt == "" {
		return nil, fmt.Errorf("no mountpoint (%s)", path)
	}
	d := net.Dialer{Timeout: toinact}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(addr, port))
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(&p, "GET /%s HTTP/1.0\r\n", mntpnt)
	fmt.Fprintf(&p, "User-Agent: NTRIP %s\r\n", NTRIP_AGENT)
	if user == "" {
		p.WriteString("Accept: */*\r\n")
		p.WriteString("Connection: close\r\n")
	} else {
		auth := base64.StdEncoding.EncodeToString([]byte(user + ":" + passwd))
		fmt.Fprintf(&p, "Authorization: Basic %s\r\n", auth)
	}
	p.WriteString("\r\n")

	if toinact > 0 {
		conn.SetDeadline(time.Now().Add(toinact))
	}
	if _, err := io.WriteString(conn, p.String()); err != nil {
		conn.Close()
		return nil, err
	}
	Tracet(5, "reqntrip_c: n=%d buff=\n%s\n", p.Len(), p.String())

	br := bufio.NewReaderSize(conn, 4096)
	if err := responseNtrip(br); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s:%s/%s: %w", addr, port, mntpnt, err)
	}
	conn.SetDeadline(time.Time{})
	Tracet(3, "rspntrip_c: response ok %s/%s\n", addr, mntpnt)
	return &ntripConn{Conn: conn, br: br}, nil
}

/* read ntrip response header ------------------------------------------------*/
func responseNtrip(br *bufio.Reader) error {
	line, err := br.ReadString('\n')
	if err != nil {
		return err
	}
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.HasPrefix(line, NTRIP_RSP_OK_CLI):
		return nil
	case strings.HasPrefix(line, NTRIP_RSP_SRCTBL):
		return errors.New("no mountp. reconnect...")
	case strings.HasPrefix(line, NTRIP_RSP_HTTP):
		if f := strings.Fields(line); len(f) < 2 || f[1] != "200" {
			return fmt.Errorf("%s", line)
		}
	default:
		return fmt.Errorf("unknown response (%.64s)", line)
	}
	/* http header lines until blank line */
	for n := len(line); ; {
		line, err = br.ReadString('\n')
		if err != nil {
			return err
		}
		if n += len(line); n >= NTRIP_MAXRSP {
			return errors.New("response overflow")
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
	}
}

// Stream is an input stream reconnecting after errors. Read is called from
// one goroutine, Close and StreamStat from any.
type Stream struct {
	Path    string
	Type    int
	ToInact time.Duration /* inactive timeout */
	limiter *rate.Limiter /* reconnect pacing */

	mu     sync.Mutex
	conn   io.ReadCloser
	closed bool
	inb    int64 /* input bytes */
	msg    string
}

/* open stream -----------------------------------------------------------------
* args   : string path      I   stream path
*          int    toinact   I   inactive timeout (ms) (0: no timeout)
*          int    tirecon   I   reconnect interval (ms)
* return : stream (connected on first read)
*-----------------------------------------------------------------------------*/
func OpenStream(path string, toinact, tirecon int) *Stream {
	ctype, _ := StreamType(path)
	if tirecon <= 0 {
		tirecon = DEFAULT_TIRECON
	}
	Tracet(3, "stropen: type=%d path=%s\n", ctype, path)
	return &Stream{
		Path:    path,
		Type:    ctype,
		ToInact: time.Duration(toinact) * time.Millisecond,
		limiter: rate.NewLimiter(rate.Every(time.Duration(tirecon)*time.Millisecond), 1),
	}
}

func (stream *Stream) connect(ctx context.Context) (io.ReadCloser, error) {
	_, body := StreamType(stream.Path)
	switch stream.Type {
	case STR_SERIAL:
		return openSerial(body)
	case STR_TCPCLI:
		return openTcpClient(ctx, body, stream.ToInact)
	case STR_NTRIPCLI:
		return openNtrip(ctx, body, stream.ToInact)
	}
	return os.Open(body)
}

/* read stream -----------------------------------------------------------------
* read data from stream, connect or reconnect as needed
* args   : context ctx      I   cancel to stop waiting for reconnect
*          []byte buff      O   data buffer
* return : bytes read, error (io.EOF: end of file, ctx error, ErrStreamClosed)
*-----------------------------------------------------------------------------*/
func (stream *Stream) Read(ctx context.Context, buff []byte) (int, error) {
	for {
		stream.mu.Lock()
		conn, closed := stream.conn, stream.closed
		stream.mu.Unlock()
		if closed {
			return 0, ErrStreamClosed
		}
		if conn == nil {
			if err := stream.limiter.Wait(ctx); err != nil {
				return 0, err
			}
			c, err := stream.connect(ctx)
			if err != nil {
				if stream.Type == STR_FILE {
					return 0, err
				}
				stream.setMsg(err.Error())
				Tracet(2, "stream connect error: path=%s %v\n", stream.Path, err)
				continue
			}
			stream.mu.Lock()
			if stream.closed {
				stream.mu.Unlock()
				c.Close()
				return 0, ErrStreamClosed
			}
			stream.conn, conn = c, c
			stream.msg = ""
			stream.mu.Unlock()
		}
		if nc, ok := conn.(net.Conn); ok && stream.ToInact > 0 {
			nc.SetReadDeadline(time.Now().Add(stream.ToInact))
		}
		n, err := conn.Read(buff)
		stream.mu.Lock()
		stream.inb += int64(n)
		closed = stream.closed
		stream.mu.Unlock()
		if err == nil || n > 0 {
			return n, nil
		}
		if closed {
			return 0, ErrStreamClosed
		}
		if stream.Type == STR_FILE {
			return 0, err
		}
		Tracet(2, "stream read error, reconnect: path=%s %v\n", stream.Path, err)
		stream.setMsg(err.Error())
		stream.disconnect()
	}
}

func (stream *Stream) setMsg(msg string) {
	stream.mu.Lock()
	stream.msg = msg
	stream.mu.Unlock()
}

func (stream *Stream) disconnect() {
	stream.mu.Lock()
	defer stream.mu.Unlock()
	if stream.conn != nil {
		stream.conn.Close()
		stream.conn = nil
	}
}

// Close closes the stream and makes a pending Read return.
func (stream *Stream) Close() {
	Tracet(3, "strclose: path=%s\n", stream.Path)
	stream.mu.Lock()
	stream.closed = true
	stream.mu.Unlock()
	stream.disconnect()
}

// StreamStat returns the state (-1: error, 0: closed or waiting, 1: connected),
// the input bytes and the last error message.
func (stream *Stream) StreamStat() (int, int64, string) {
	stream.mu.Lock()
	defer stream.mu.Unlock()
	switch {
	case stream.conn != nil:
		return 1, stream.inb, stream.msg
	case stream.msg != "":
		return -1, stream.inb, stream.msg
	}
	return 0, stream.inb, stream.msg
}

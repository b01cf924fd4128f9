/*------------------------------------------------------------------------------
* ssrcast.go : ssr correction caster console ap
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes   : input ssr stream (rtcm3) is decoded, collected into epochs and
*           matched to broadcast ephemerides from the navigation stream
*           (rtcm3 1019/1020). each released epoch is written as correction
*           lines with corrected satellite states to the enabled sinks.
*-----------------------------------------------------------------------------*/
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"ssrgo"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

var PRGNAME string = "ssrcast"                 /* program name */
var OPTSFILE string = "ssrcast.conf"           /* default config file */
var TRACEFILE string = "ssrcast.trace"         /* debug trace file */
var BUFFSIZE int = 4096                        /* input buffer size (bytes) */
var STATCYCLE time.Duration = 10 * time.Second /* status trace cycle */

/* options -------------------------------------------------------------------*/
var (
	ssrpath    = ""                    /* ssr input stream path */
	navpath    = ""                    /* navigation input stream path */
	timeout    = ssrgo.DEFAULT_TOINACT /* inactive timeout (ms) */
	reconnect  = ssrgo.DEFAULT_TIRECON /* reconnect interval (ms) */
	nocorr     = 0                     /* broadcast only (0:off,1:on) */
	outpath    = ""                    /* correction lines file ("":stdout) */
	wsport     = 0                     /* websocket port (0:off) */
	influxurl  = ""                    /* influxdb url ("":off) */
	influxtok  = ""                    /* influxdb token */
	influxorg  = ""                    /* influxdb organization */
	influxbkt  = "ssr"                 /* influxdb bucket */
	chdsn      = ""                    /* clickhouse dsn ("":off) */
	mongouri   = ""                    /* mongodb uri ("":off) */
	mongodb    = "ssr"                 /* mongodb database */
	esurl      = ""                    /* elasticsearch url ("":off) */
	esindex    = "ssrcorr"             /* elasticsearch index */
	metport    = 0                     /* prometheus metrics port (0:off) */
	pushurl    = ""                    /* prometheus pushgateway url ("":off) */
	pushcycle  = 10                    /* push cycle (s) */
	tracelevel = 0                     /* trace level */
)

const SWTOPT = "0:off,1:on"

var sysopts = map[string]*ssrgo.Opt{
	"inpstr1-path":   {Name: "inpstr1-path", Format: ssrgo.OPT_STRING, VarString: &ssrpath, Comment: "ssr stream"},
	"inpstr2-path":   {Name: "inpstr2-path", Format: ssrgo.OPT_STRING, VarString: &navpath, Comment: "navigation stream"},
	"misc-timeout":   {Name: "misc-timeout", Format: ssrgo.OPT_INT, VarInt: &timeout, Comment: "ms"},
	"misc-reconnect": {Name: "misc-reconnect", Format: ssrgo.OPT_INT, VarInt: &reconnect, Comment: "ms"},
	"pos-nocorr":     {Name: "pos-nocorr", Format: ssrgo.OPT_ENUM, VarInt: &nocorr, Comment: SWTOPT},
	"out-path":       {Name: "out-path", Format: ssrgo.OPT_STRING, VarString: &outpath, Comment: "correction lines"},
	"out-wsport":     {Name: "out-wsport", Format: ssrgo.OPT_INT, VarInt: &wsport},
	"influx-url":     {Name: "influx-url", Format: ssrgo.OPT_STRING, VarString: &influxurl},
	"influx-token":   {Name: "influx-token", Format: ssrgo.OPT_STRING, VarString: &influxtok},
	"influx-org":     {Name: "influx-org", Format: ssrgo.OPT_STRING, VarString: &influxorg},
	"influx-bucket":  {Name: "influx-bucket", Format: ssrgo.OPT_STRING, VarString: &influxbkt},
	"ch-dsn":         {Name: "ch-dsn", Format: ssrgo.OPT_STRING, VarString: &chdsn},
	"mongo-uri":      {Name: "mongo-uri", Format: ssrgo.OPT_STRING, VarString: &mongouri},
	"mongo-db":       {Name: "mongo-db", Format: ssrgo.OPT_STRING, VarString: &mongodb},
	"es-url":         {Name: "es-url", Format: ssrgo.OPT_STRING, VarString: &esurl},
	"es-index":       {Name: "es-index", Format: ssrgo.OPT_STRING, VarString: &esindex},
	"metric-port":    {Name: "metric-port", Format: ssrgo.OPT_INT, VarInt: &metport},
	"metric-pushurl": {Name: "metric-pushurl", Format: ssrgo.OPT_STRING, VarString: &pushurl},
	"metric-cycle":   {Name: "metric-cycle", Format: ssrgo.OPT_INT, VarInt: &pushcycle, Comment: "s"},
	"trace-level":    {Name: "trace-level", Format: ssrgo.OPT_INT, VarInt: &tracelevel},
}

/* secrets from environment (.env) -------------------------------------------*/
var envopts = map[string]string{
	"SSRCAST_INFLUX_TOKEN": "influx-token",
	"SSRCAST_CH_DSN":       "ch-dsn",
	"SSRCAST_MONGO_URI":    "mongo-uri",
	"SSRCAST_ES_URL":       "es-url",
}

/* help text -----------------------------------------------------------------*/
var help []string = []string{
	"",
	" usage: ssrcast [-o file] [-in stream] [-nav stream] [-out file] [options]",
	"",
	" Decode an rtcm3 ssr correction stream, apply the corrections to broadcast",
	" ephemerides of the navigation stream and output correction lines and",
	" corrected satellite states. To stop it, type ctr-c in console or send",
	" signal SIGINT for background process. Stream paths are as follows.",
	"",
	"    serial       : serial://port[:brate]",
	"    tcp client   : tcpcli://addr:port",
	"    ntrip client : ntrip://[user[:passwd]@]addr[:port]/mntpnt",
	"    file         : [file://]path",
	"",
	" -o  file          options file (*.conf or *.yaml) [ssrcast.conf]",
	" -in stream        ssr input stream",
	" -nav stream       navigation input stream (rtcm3 1019/1020)",
	" -out file         correction lines output file [stdout]",
	" -p  port          websocket port for correction lines [off]",
	" -m  port          prometheus metrics port [off]",
	" -b                broadcast only, no corrections applied",
	" -e  file          encode correction lines file to rtcm3 ssr (to -out)",
	" -x  file          save options to file and exit",
	" -ts time          replay start time (gpst) \"y/m/d h:m:s\" [system time]",
	" -t  level         trace level [0]",
	" -h                print help",
}

func searchHelp(key string) string {
	for _, v := range help {
		if strings.HasPrefix(strings.TrimSpace(v), key+" ") {
			return v
		}
	}
	return "unsupported argument"
}

/* print help ----------------------------------------------------------------*/
func printhelp() {
	for i := range help {
		fmt.Fprintf(os.Stderr, "%s\n", help[i])
	}
	os.Exit(0)
}

/* apply environment secrets -------------------------------------------------*/
func loadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		ssrgo.Trace(2, "env file error: %v\n", err)
	}
	for key, name := range envopts {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if err := sysopts[name].Str2Opt(v); err != nil {
				ssrgo.Trace(2, "invalid environment %s: %v\n", key, err)
			}
		}
	}
}

/* set the clock of default decoders to a replay start time (gpst) -----------*/
func setReplayTime(s string) error {
	t, err := ssrgo.Str2Time(s)
	if err != nil {
		return err
	}
	ssrgo.TimeSet(ssrgo.GpsT2Utc(t))
	ssrgo.Trace(3, "replay time: %s\n", ssrgo.TimeStr(t, 0))
	return nil
}

func gtime2time(t ssrgo.Gtime) time.Time {
	u := ssrgo.GpsT2Utc(t)
	return time.Unix(int64(u.Time), int64(u.Sec*1e9)).UTC()
}

// caster owns the decoder and the aggregator of the ssr stream. the
// navigation stream decoder only feeds the store.
type caster struct {
	session  string
	store    *ssrgo.EphStore
	resolver *ssrgo.SatPosResolver
	table    *ssrgo.CorrTable
	dec      *ssrgo.SsrDecoder
	agg      *ssrgo.EpochAggregator
	now      func() ssrgo.Gtime
	sinks    []Sink
	metrics  *casterMetrics
}

func newCaster(now func() ssrgo.Gtime, sinks []Sink, metrics *casterMetrics) *caster {
	if now == nil {
		now = func() ssrgo.Gtime { return ssrgo.Utc2GpsT(ssrgo.TimeGet()) }
	}
	store := ssrgo.NewEphStore()
	c := &caster{
		session:  uuid.NewString(),
		store:    store,
		resolver: &ssrgo.SatPosResolver{Store: store, NoCorr: nocorr != 0},
		table:    ssrgo.NewCorrTable(),
		dec:      ssrgo.NewSsrDecoder("ssr"),
		agg:      ssrgo.NewEpochAggregator(now),
		now:      now,
		sinks:    sinks,
		metrics:  metrics,
	}
	c.dec.Now = now
	return c
}

/* put ephemerides of a batch ------------------------------------------------*/
func (c *caster) putEphs(batch *ssrgo.SsrBatch) {
	for _, eph := range batch.Ephs {
		if r := c.store.Put(eph); r != ssrgo.EphAccepted {
			ssrgo.Trace(4, "ephemeris %s: sat=%s iod=%d\n", r, ssrgo.SatNo2Id(eph.Sat()), eph.Iod())
		}
	}
}

/* input ssr stream data -----------------------------------------------------*/
func (c *caster) input(ctx context.Context, data []byte) {
	for _, batch := range c.dec.Feed(data) {
		c.metrics.frames.WithLabelValues(strconv.Itoa(batch.MsgType)).Inc()
		c.putEphs(batch)
		for _, ep := range c.agg.Add(batch) {
			c.epoch(ctx, ep)
		}
	}
	c.metrics.update(c.dec.Stats(), c.agg.Dropped(), c.store.BadEph())
}

/* input navigation stream data ----------------------------------------------*/
func (c *caster) inputNav(dec *ssrgo.SsrDecoder, data []byte) {
	for _, batch := range dec.Feed(data) {
		c.putEphs(batch)
	}
}

/* process released epoch ----------------------------------------------------*/
func (c *caster) epoch(ctx context.Context, ep *ssrgo.CorrEpoch) {
	corrs := ep.Corrs()
	c.table.Update(corrs)
	c.metrics.epochs.Inc()

	recs := make([]*corrRecord, 0, len(corrs))
	for _, corr := range corrs {
		rec := newCorrRecord(c.session, corr)
		if corr.RaoSet {
			st, err := c.resolver.SatPos(corr.Sat, ep.Time, corr)
			rec.setState(st, err)
			if err != nil {
				c.metrics.failures.WithLabelValues(rec.Status).Inc()
			}
		}
		recs = append(recs, rec)
	}
	ssrgo.Trace(3, "epoch released: time=%s nsat=%d\n", ssrgo.TimeStr(ep.Time, 0), len(recs))

	for _, s := range c.sinks {
		if err := s.Write(ctx, recs); err != nil {
			ssrgo.Trace(2, "sink write error: %s %v\n", s.Name(), err)
		}
	}
}

/* read stream until end or cancel -------------------------------------------*/
func readStream(ctx context.Context, stream *ssrgo.Stream, input func([]byte)) error {
	buff := make([]byte, BUFFSIZE)
	for {
		n, err := stream.Read(ctx, buff)
		if n > 0 {
			input(buff[:n])
		}
		if err != nil {
			return err
		}
	}
}

/* run caster ------------------------------------------------------------------
* args   : ctx              I   cancel to stop
*          ssr              I   ssr input stream
*          nav              I   navigation input stream (nil: none)
* return : error of the ssr stream (nil: end of file or canceled)
*-----------------------------------------------------------------------------*/
func (c *caster) run(ctx context.Context, ssr, nav *ssrgo.Stream) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		ssr.Close()
		if nav != nil {
			nav.Close()
		}
	}()
	done := make(chan struct{})
	if nav != nil {
		dec := ssrgo.NewSsrDecoder("nav")
		dec.Now = c.now
		go func() {
			defer close(done)
			err := readStream(ctx, nav, func(b []byte) { c.inputNav(dec, b) })
			ssrgo.Trace(3, "navigation stream end: %v\n", err)
		}()
		/* navigation files are read before the ssr stream */
		if nav.Type == ssrgo.STR_FILE {
			<-done
		}
	} else {
		close(done)
	}
	go c.status(ctx, ssr, nav)

	err := readStream(ctx, ssr, func(b []byte) { c.input(ctx, b) })
	for _, ep := range c.agg.FlushAll() {
		c.epoch(ctx, ep)
	}
	if err == io.EOF || errors.Is(err, ssrgo.ErrStreamClosed) || errors.Is(err, os.ErrClosed) ||
		errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

/* trace stream status -------------------------------------------------------*/
func (c *caster) status(ctx context.Context, ssr, nav *ssrgo.Stream) {
	ticker := time.NewTicker(STATCYCLE)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		state, inb, msg := ssr.StreamStat()
		ssrgo.Tracet(3, "ssr stream: state=%d inb=%d %s pending=%d\n", state, inb, msg, c.agg.Pending())
		if nav != nil {
			state, inb, msg = nav.StreamStat()
			ssrgo.Tracet(3, "nav stream: state=%d inb=%d %s sats=%d\n", state, inb, msg, len(c.store.Sats()))
		}
	}
}

/* encode correction lines to rtcm3 ssr ----------------------------------------
* lines of the same message type and epoch are encoded into one message
* args   : io.Reader r      I   correction lines
*          io.Writer w      O   rtcm3 frames
* return : number of messages, error
*-----------------------------------------------------------------------------*/
func encodeLines(r io.Reader, w io.Writer) (int, error) {
	var (
		batch *ssrgo.SsrBatch
		btime ssrgo.Gtime
		nmsg  int
	)
	flush := func() error {
		if batch == nil {
			return nil
		}
		buff, err := ssrgo.EncodeSsr(batch)
		if err != nil {
			return err
		}
		batch = nil
		nmsg++
		_, err = w.Write(buff)
		return err
	}
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		corr, msgType, err := ssrgo.ReadCorrLine(line)
		if err != nil {
			ssrgo.Trace(2, "line %d: %v\n", n, err)
			continue
		}
		sys, kind, ok := ssrgo.SsrMsgInfo(msgType)
		if !ok {
			ssrgo.Trace(2, "line %d: unsupported message type %d\n", n, msgType)
			continue
		}
		if batch != nil && (batch.MsgType != msgType || ssrgo.TimeDiff(corr.Time, btime) != 0.0) {
			if err := flush(); err != nil {
				return nmsg, err
			}
		}
		if batch == nil {
			btime = corr.Time
			batch = &ssrgo.SsrBatch{MsgType: msgType, Sys: sys, EpochSec: ssrgo.SsrEpochSec(sys, corr.Time), Udi: corr.Udi}
		}
		if kind == ssrgo.SSR_ORBIT || kind == ssrgo.SSR_COMBINED {
			batch.Orbits = append(batch.Orbits, ssrgo.OrbitCorr{Sat: corr.Sat, Iod: corr.Iod, Udi: corr.Udi,
				Deph: corr.Rao, Ddeph: corr.DotRao, Dddeph: corr.DotDotRao})
		}
		if kind == ssrgo.SSR_CLOCK || kind == ssrgo.SSR_COMBINED {
			batch.Clocks = append(batch.Clocks, ssrgo.ClockCorr{Sat: corr.Sat, Iod: corr.Iod, Udi: corr.Udi,
				Dclk: corr.Dclk})
		}
	}
	if err := sc.Err(); err != nil {
		return nmsg, err
	}
	return nmsg, flush()
}

func encodeFile(infile, outfile string) error {
	fp, err := os.Open(infile)
	if err != nil {
		return err
	}
	defer fp.Close()

	var w io.Writer = os.Stdout
	if outfile != "" {
		fo, err := os.Create(outfile)
		if err != nil {
			return err
		}
		defer fo.Close()
		w = fo
	}
	n, err := encodeLines(fp, w)
	fmt.Fprintf(os.Stderr, "%d messages encoded\n", n)
	return err
}

func main() {
	var (
		file, encfile, savefile string
		replay                  string
		bcast                   bool
	)

	flag.StringVar(&file, "o", file, searchHelp("-o"))
	flag.StringVar(&ssrpath, "in", ssrpath, searchHelp("-in"))
	flag.StringVar(&navpath, "nav", navpath, searchHelp("-nav"))
	flag.StringVar(&outpath, "out", outpath, searchHelp("-out"))
	flag.IntVar(&wsport, "p", wsport, searchHelp("-p"))
	flag.IntVar(&metport, "m", metport, searchHelp("-m"))
	flag.BoolVar(&bcast, "b", bcast, searchHelp("-b"))
	flag.StringVar(&encfile, "e", encfile, searchHelp("-e"))
	flag.StringVar(&savefile, "x", savefile, searchHelp("-x"))
	flag.StringVar(&replay, "ts", replay, searchHelp("-ts"))
	flag.IntVar(&tracelevel, "t", tracelevel, searchHelp("-t"))
	flag.Usage = printhelp

	flag.Parse()

	/* load options file, command line options take precedence */
	if len(file) == 0 {
		file = OPTSFILE
	}
	if err := ssrgo.LoadOpts(file, sysopts); err != nil {
		fmt.Fprintf(os.Stderr, "no options file: %s. defaults used\n", file)
	}
	flag.Parse()
	loadEnv()
	if bcast {
		nocorr = 1
	}
	if tracelevel > 0 {
		ssrgo.TraceOpen(TRACEFILE)
		ssrgo.TraceLevel(tracelevel)
		defer ssrgo.TraceClose()
	}
	if savefile != "" {
		if err := ssrgo.SaveOpts(savefile, PRGNAME+" options", sysopts); err != nil {
			fmt.Fprintf(os.Stderr, "options save error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if encfile != "" {
		if err := encodeFile(encfile, outpath); err != nil {
			fmt.Fprintf(os.Stderr, "encode error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if ssrpath == "" {
		printhelp()
	}
	if replay != "" {
		if err := setReplayTime(replay); err != nil {
			fmt.Fprintf(os.Stderr, "replay time error: %v\n", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		s := <-c
		ssrgo.Trace(2, "sigshut: sig=%v\n", s)
		cancel()
	}()

	metrics := newCasterMetrics()
	sinks, err := openSinks(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sink open error: %v\n", err)
		os.Exit(1)
	}
	defer closeSinks(sinks)

	svr := newCaster(nil, sinks, metrics)
	if metport > 0 {
		go metrics.serve(ctx, metport)
	}
	if pushurl != "" {
		go metrics.push(ctx, pushurl, svr.session, time.Duration(pushcycle)*time.Second)
	}
	var nav *ssrgo.Stream
	if navpath != "" {
		nav = ssrgo.OpenStream(navpath, timeout, reconnect)
	}
	if err := svr.run(ctx, ssrgo.OpenStream(ssrpath, timeout, reconnect), nav); err != nil {
		fmt.Fprintf(os.Stderr, "ssr stream error: %v\n", err)
	}
}

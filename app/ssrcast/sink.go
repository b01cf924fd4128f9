/*------------------------------------------------------------------------------
* sink.go : ssrcast output sinks
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes   : every released epoch is written to each enabled sink as one
*           slice of records. records carry the session id of the caster.
*-----------------------------------------------------------------------------*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"ssrgo"

	_ "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	influxdb "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	es "gopkg.in/olivere/elastic.v5"
)

const (
	SINKTIMEOUT = 5 * time.Second /* database write timeout */
	WSQUEUE     = 64              /* websocket client queue (epochs) */
)

/* correction record ---------------------------------------------------------*/
type corrRecord struct {
	Session   string     `json:"session" bson:"session"`
	Time      time.Time  `json:"time" bson:"time"`
	Sat       string     `json:"sat" bson:"sat"`
	Iod       int        `json:"iod" bson:"iod"`
	Udi       int        `json:"udi" bson:"udi"`
	Rao       [3]float64 `json:"rao" bson:"rao"`             /* radial/along/cross (m) */
	DotRao    [3]float64 `json:"dotrao" bson:"dotrao"`       /* (m/s) */
	DotDotRao [3]float64 `json:"dotdotrao" bson:"dotdotrao"` /* (m/s^2) */
	Dclk      float64    `json:"dclk" bson:"dclk"`           /* (m) */
	HrClk     float64    `json:"hrclk" bson:"hrclk"`         /* (m) */
	Pos       [3]float64 `json:"pos" bson:"pos"`             /* corrected position (ecef) (m) */
	Dts       float64    `json:"dts" bson:"dts"`             /* corrected clock (s) */
	Status    string     `json:"status" bson:"status"`
	Line      string     `json:"-" bson:"-"`
}

func newCorrRecord(session string, corr *ssrgo.Corr) *corrRecord {
	rec := &corrRecord{
		Session:   session,
		Time:      gtime2time(corr.Time),
		Sat:       ssrgo.SatNo2Id(corr.Sat),
		Iod:       corr.Iod,
		Udi:       corr.Udi,
		Rao:       corr.Rao,
		DotRao:    corr.DotRao,
		DotDotRao: corr.DotDotRao,
		Dclk:      corr.Dclk[0] * ssrgo.CLIGHT,
		HrClk:     corr.HrClk * ssrgo.CLIGHT,
		Status:    "noorbit",
		Line:      ssrgo.OutCorrLine(corr, 0, corr.Udi),
	}
	return rec
}

/* set corrected state or error kind -----------------------------------------*/
func (rec *corrRecord) setState(st ssrgo.SatState, err error) {
	switch {
	case err == nil:
		copy(rec.Pos[:], st.Rs[:3])
		rec.Dts = st.Dts
		rec.Status = "ok"
	case errors.Is(err, ssrgo.ErrEphUnavailable):
		rec.Status = "noeph"
	case errors.Is(err, ssrgo.ErrCorrStale):
		rec.Status = "stale"
	default:
		rec.Status = "error"
	}
}

// Sink receives the records of each released epoch.
type Sink interface {
	Name() string
	Write(ctx context.Context, recs []*corrRecord) error
	Close() error
}

/* correction lines ----------------------------------------------------------*/
type lineSink struct {
	w io.Writer
	c io.Closer
}

func (s *lineSink) Name() string { return "line" }

func (s *lineSink) Write(ctx context.Context, recs []*corrRecord) error {
	var sb strings.Builder
	for _, rec := range recs {
		sb.WriteString(rec.Line)
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(s.w, sb.String())
	return err
}

func (s *lineSink) Close() error {
	if s.c != nil {
		return s.c.Close()
	}
	return nil
}

/* websocket broadcast of correction lines -----------------------------------*/
type wsSink struct {
	mu       sync.Mutex
	clients  map[*websocket.Conn]chan []byte
	upgrader websocket.Upgrader
	srv      *http.Server
	addr     string /* listen address */
}

func newWsSink(port int) (*wsSink, error) {
	s := &wsSink{
		clients: make(map[*websocket.Conn]chan []byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ssr", s.handle)
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}
	s.srv = &http.Server{Handler: mux}
	s.addr = ln.Addr().String()
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			ssrgo.Trace(2, "websocket server error: %v\n", err)
		}
	}()
	ssrgo.Trace(3, "websocket server: addr=%s\n", s.addr)
	return s, nil
}

func (s *wsSink) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ssrgo.Trace(2, "websocket upgrade error: %v\n", err)
		return
	}
	ch := make(chan []byte, WSQUEUE)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()
	ssrgo.Trace(3, "websocket client connected: %s\n", conn.RemoteAddr())

	/* reader detects close by peer */
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.drop(conn)
				return
			}
		}
	}()
	for msg := range ch {
		conn.SetWriteDeadline(time.Now().Add(SINKTIMEOUT))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.drop(conn)
			break
		}
	}
	conn.Close()
}

func (s *wsSink) drop(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[conn]; ok {
		delete(s.clients, conn)
		close(ch)
		ssrgo.Trace(3, "websocket client disconnected: %s\n", conn.RemoteAddr())
	}
}

func (s *wsSink) Name() string { return "websocket" }

func (s *wsSink) Write(ctx context.Context, recs []*corrRecord) error {
	var sb strings.Builder
	for _, rec := range recs {
		sb.WriteString(rec.Line)
		sb.WriteByte('\n')
	}
	msg := []byte(sb.String())

	s.mu.Lock()
	defer s.mu.Unlock()
	for conn, ch := range s.clients {
		select {
		case ch <- msg:
		default:
			ssrgo.Trace(2, "websocket client too slow, epoch skipped: %s\n", conn.RemoteAddr())
		}
	}
	return nil
}

func (s *wsSink) Close() error {
	s.mu.Lock()
	for conn, ch := range s.clients {
		delete(s.clients, conn)
		close(ch)
	}
	s.mu.Unlock()
	ctx, cancel := context.WithTimeout(context.Background(), SINKTIMEOUT)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

/* influxdb ------------------------------------------------------------------*/
type influxSink struct {
	client   influxdb.Client
	writeAPI api.WriteAPI
}

func newInfluxSink(url, token, org, bucket string) *influxSink {
	client := influxdb.NewClient(url, token)
	writeAPI := client.WriteAPI(org, bucket)
	go func() {
		for err := range writeAPI.Errors() {
			ssrgo.Trace(2, "influxdb write error: %v\n", err)
		}
	}()
	return &influxSink{client: client, writeAPI: writeAPI}
}

func (s *influxSink) Name() string { return "influxdb" }

func (s *influxSink) Write(ctx context.Context, recs []*corrRecord) error {
	for _, rec := range recs {
		p := influxdb.NewPointWithMeasurement("ssrcorr").
			AddTag("session", rec.Session).
			AddTag("sat", rec.Sat).
			AddTag("status", rec.Status).
			AddField("iod", rec.Iod).
			AddField("radial", rec.Rao[0]).
			AddField("along", rec.Rao[1]).
			AddField("cross", rec.Rao[2]).
			AddField("dclk", rec.Dclk).
			AddField("hrclk", rec.HrClk).
			AddField("x", rec.Pos[0]).
			AddField("y", rec.Pos[1]).
			AddField("z", rec.Pos[2]).
			AddField("dts", rec.Dts).
			SetTime(rec.Time)
		s.writeAPI.WritePoint(p)
	}
	s.writeAPI.Flush()
	return nil
}

func (s *influxSink) Close() error {
	s.writeAPI.Flush()
	s.client.Close()
	return nil
}

/* clickhouse ----------------------------------------------------------------*/
const chCreate = "CREATE TABLE IF NOT EXISTS ssrcorr (" +
	"session String, time DateTime64(3), sat String, iod Int32, udi Int32, " +
	"radial Float64, along Float64, cross Float64, dclk Float64, hrclk Float64, " +
	"x Float64, y Float64, z Float64, dts Float64, status String" +
	") ENGINE = MergeTree() ORDER BY (sat, time)"

const chInsert = "INSERT INTO ssrcorr (session, time, sat, iod, udi, radial, along, cross, " +
	"dclk, hrclk, x, y, z, dts, status)"

type clickSink struct {
	client *sqlx.DB
}

func newClickSink(ctx context.Context, dsn string) (*clickSink, error) {
	client, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, err
	}
	client.SetMaxOpenConns(4)
	client.SetMaxIdleConns(4)

	ctx, cancel := context.WithTimeout(ctx, SINKTIMEOUT)
	defer cancel()
	if _, err := client.ExecContext(ctx, chCreate); err != nil {
		client.Close()
		return nil, err
	}
	return &clickSink{client: client}, nil
}

func (s *clickSink) Name() string { return "clickhouse" }

func (s *clickSink) Write(ctx context.Context, recs []*corrRecord) error {
	ctx, cancel := context.WithTimeout(ctx, SINKTIMEOUT)
	defer cancel()

	tx, err := s.client.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, chInsert)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err := stmt.ExecContext(ctx, rec.Session, rec.Time, rec.Sat, int32(rec.Iod), int32(rec.Udi),
			rec.Rao[0], rec.Rao[1], rec.Rao[2], rec.Dclk, rec.HrClk,
			rec.Pos[0], rec.Pos[1], rec.Pos[2], rec.Dts, rec.Status); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *clickSink) Close() error { return s.client.Close() }

/* mongodb -------------------------------------------------------------------*/
type mongoSink struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func newMongoSink(ctx context.Context, uri, db string) (*mongoSink, error) {
	ctx, cancel := context.WithTimeout(ctx, SINKTIMEOUT)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &mongoSink{client: client, collection: client.Database(db).Collection("ssrcorr")}, nil
}

func (s *mongoSink) Name() string { return "mongodb" }

func (s *mongoSink) Write(ctx context.Context, recs []*corrRecord) error {
	if len(recs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(recs))
	for i, rec := range recs {
		docs[i] = rec
	}
	ctx, cancel := context.WithTimeout(ctx, SINKTIMEOUT)
	defer cancel()
	_, err := s.collection.InsertMany(ctx, docs)
	return err
}

func (s *mongoSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), SINKTIMEOUT)
	defer cancel()
	return s.client.Disconnect(ctx)
}

/* elasticsearch -------------------------------------------------------------*/
type esSink struct {
	client *es.Client
	index  string
}

func newEsSink(url, index string) (*esSink, error) {
	client, err := es.NewClient(
		es.SetSniff(false),
		es.SetURL(url),
	)
	if err != nil {
		return nil, err
	}
	return &esSink{client: client, index: index}, nil
}

func (s *esSink) Name() string { return "elasticsearch" }

func (s *esSink) Write(ctx context.Context, recs []*corrRecord) error {
	ctx, cancel := context.WithTimeout(ctx, SINKTIMEOUT)
	defer cancel()
	for _, rec := range recs {
		_, err := s.client.Index().
			Index(s.index).
			Type("ssrcorr").
			Id(uuid.NewString()).
			BodyJson(rec).
			Do(ctx)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *esSink) Close() error {
	s.client.Stop()
	return nil
}

/* open enabled sinks ----------------------------------------------------------
* open sinks by the options, the line sink is always opened
* return : sinks, error (sinks already opened are closed)
*-----------------------------------------------------------------------------*/
func openSinks(ctx context.Context) ([]Sink, error) {
	var sinks []Sink

	fail := func(name string, err error) ([]Sink, error) {
		closeSinks(sinks)
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if outpath == "" {
		sinks = append(sinks, &lineSink{w: os.Stdout})
	} else {
		fp, err := os.Create(outpath)
		if err != nil {
			return fail("line", err)
		}
		sinks = append(sinks, &lineSink{w: fp, c: fp})
	}
	if wsport > 0 {
		s, err := newWsSink(wsport)
		if err != nil {
			return fail("websocket", err)
		}
		sinks = append(sinks, s)
	}
	if influxurl != "" {
		sinks = append(sinks, newInfluxSink(influxurl, influxtok, influxorg, influxbkt))
	}
	if chdsn != "" {
		s, err := newClickSink(ctx, chdsn)
		if err != nil {
			return fail("clickhouse", err)
		}
		sinks = append(sinks, s)
	}
	if mongouri != "" {
		s, err := newMongoSink(ctx, mongouri, mongodb)
		if err != nil {
			return fail("mongodb", err)
		}
		sinks = append(sinks, s)
	}
	if esurl != "" {
		s, err := newEsSink(esurl, esindex)
		if err != nil {
			return fail("elasticsearch", err)
		}
		sinks = append(sinks, s)
	}
	for _, s := range sinks {
		ssrgo.Trace(3, "sink opened: %s\n", s.Name())
	}
	return sinks, nil
}

func closeSinks(sinks []Sink) {
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			ssrgo.Trace(2, "sink close error: %s %v\n", s.Name(), err)
		}
	}
}

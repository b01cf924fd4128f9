/*------------------------------------------------------------------------------
* metrics.go : ssrcast prometheus metrics
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ssrgo"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

type casterMetrics struct {
	reg      *prometheus.Registry
	decoder  *prometheus.GaugeVec   /* decoder counters by stat */
	frames   *prometheus.CounterVec /* decoded frames by message type */
	epochs   prometheus.Counter     /* released epochs */
	late     prometheus.Gauge       /* late batches dropped */
	badEph   prometheus.Gauge       /* implausible ephemerides */
	failures *prometheus.CounterVec /* resolver failures by kind */
}

func newCasterMetrics() *casterMetrics {
	m := &casterMetrics{
		reg: prometheus.NewRegistry(),
		decoder: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ssrcast_decoder",
				Help: "ssr decoder counters",
			},
			[]string{"stat"}),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssrcast_frames_total",
				Help: "decoded rtcm3 frames",
			},
			[]string{"type"}),
		epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ssrcast_epochs_total",
			Help: "released correction epochs",
		}),
		late: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ssrcast_late_batches",
			Help: "ssr batches dropped after their epoch was released",
		}),
		badEph: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ssrcast_bad_ephemerides",
			Help: "ephemerides rejected by plausibility checks",
		}),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ssrcast_resolver_failures_total",
				Help: "corrected satellite state failures",
			},
			[]string{"kind"}),
	}
	m.reg.MustRegister(m.decoder, m.frames, m.epochs, m.late, m.badEph, m.failures)
	return m
}

func (m *casterMetrics) update(stats ssrgo.DecodeStats, dropped, badeph int) {
	m.decoder.WithLabelValues("skipped_bytes").Set(float64(stats.SkippedBytes))
	m.decoder.WithLabelValues("frames").Set(float64(stats.Frames))
	m.decoder.WithLabelValues("crc_errors").Set(float64(stats.CrcErrors))
	m.decoder.WithLabelValues("unknown_types").Set(float64(stats.UnknownTypes))
	m.decoder.WithLabelValues("dropped_hr").Set(float64(stats.DroppedHr))
	m.late.Set(float64(dropped))
	m.badEph.Set(float64(badeph))
}

/* serve metrics until canceled ----------------------------------------------*/
func (m *casterMetrics) serve(ctx context.Context, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		ssrgo.Trace(2, "metrics server error: %v\n", err)
	}
}

/* push metrics to pushgateway every cycle -----------------------------------*/
func (m *casterMetrics) push(ctx context.Context, url, session string, cycle time.Duration) {
	if cycle <= 0 {
		cycle = 10 * time.Second
	}
	pusher := push.New(url, PRGNAME).Gatherer(m.reg).Grouping("session", session)
	ticker := time.NewTicker(cycle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if err := pusher.Push(); err != nil {
			ssrgo.Trace(2, "could not push metrics to pushgateway: %v\n", err)
		}
	}
}

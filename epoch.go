/*------------------------------------------------------------------------------
* epoch.go : ssr correction epoch aggregator
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : batches of one decoder are collected into epochs by their derived
*          epoch time. an epoch is released when a batch of a later epoch
*          arrives. released epochs never come back, batches at or before the
*          last released epoch are dropped.
*          an aggregator is owned by one goroutine.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"math"
	"sort"

	"github.com/tidwall/btree"
)

// CorrEpoch holds the corrections of one epoch, one record per satellite
// and kind.
type CorrEpoch struct {
	Time   Gtime
	Orbits map[int]OrbitCorr
	Clocks map[int]ClockCorr
	Biases map[int]CodeBias
	Uras   map[int]UraCorr
}

func newCorrEpoch(t Gtime) *CorrEpoch {
	return &CorrEpoch{
		Time:   t,
		Orbits: make(map[int]OrbitCorr),
		Clocks: make(map[int]ClockCorr),
		Biases: make(map[int]CodeBias),
		Uras:   make(map[int]UraCorr),
	}
}

// Sats returns the satellites with orbit or clock corrections.
func (e *CorrEpoch) Sats() []int {
	sats := make([]int, 0, len(e.Orbits)+len(e.Clocks))
	for sat := range e.Orbits {
		sats = append(sats, sat)
	}
	for sat := range e.Clocks {
		if _, ok := e.Orbits[sat]; !ok {
			sats = append(sats, sat)
		}
	}
	sort.Ints(sats)
	return sats
}

/* merge orbit and clock corrections per satellite -----------------------------
* return : corrections ordered by satellite number
* notes  : a clock with an iod other than the orbit iod is not merged
*-----------------------------------------------------------------------------*/
func (e *CorrEpoch) Corrs() []*Corr {
	var corrs []*Corr

	for _, sat := range e.Sats() {
		c := &Corr{Sat: sat, Iod: -1, Time: e.Time}
		orb, hasOrb := e.Orbits[sat]
		if hasOrb {
			c.Iod, c.Udi = orb.Iod, orb.Udi
			c.Rao, c.DotRao, c.DotDotRao = orb.Deph, orb.Ddeph, orb.Dddeph
			c.RaoSet = true
		}
		if clk, ok := e.Clocks[sat]; ok {
			switch {
			case !hasOrb:
				c.Iod, c.Udi = clk.Iod, clk.Udi
				fallthrough
			case clk.Iod < 0 || clk.Iod == orb.Iod:
				c.Dclk, c.HrClk = clk.Dclk, clk.HrClk
				c.DClkSet = true
			default:
				Trace(3, "ssr clock iod mismatch: sat=%s iod=%d %d\n", SatNo2Id(sat), orb.Iod, clk.Iod)
			}
		}
		corrs = append(corrs, c)
	}
	return corrs
}

type EpochAggregator struct {
	now     func() Gtime
	epochs  *btree.Map[uint64, *CorrEpoch]
	last    Gtime /* last flushed epoch */
	flushed bool
	dropped int
}

// NewEpochAggregator creates an aggregator resolving epochs against now
// (gpst). A nil now uses the system clock.
func NewEpochAggregator(now func() Gtime) *EpochAggregator {
	if now == nil {
		now = func() Gtime { return Utc2GpsT(TimeGet()) }
	}
	return &EpochAggregator{
		now:    now,
		epochs: btree.NewMap[uint64, *CorrEpoch](32),
	}
}

/* derive epoch time -----------------------------------------------------------
* derive full epoch time of a ssr message
* args   : int    sys       I   navigation system of the message
*          double epochSec  I   gps seconds of week or glonass seconds of day
* return : epoch time (gpst) within 12 hours of the reference time
*-----------------------------------------------------------------------------*/
func (agg *EpochAggregator) EpochTime(sys int, epochSec float64) Gtime {
	var t Gtime

	now := agg.now()
	tow, week := Time2GpsT(now)
	if sys == SYS_GLO {
		day := tow - math.Mod(tow, 86400.0)
		t = GpsT2Time(week, day+epochSec-10800.0+LeapSec(now))
	} else {
		t = GpsT2Time(week, epochSec)
	}
	for dt := TimeDiff(t, now); math.Abs(dt) > 43200.0; dt = TimeDiff(t, now) {
		if dt > 0.0 {
			t = TimeAdd(t, -86400.0)
		} else {
			t = TimeAdd(t, 86400.0)
		}
	}
	return t
}

// SsrEpochSec returns the raw message epoch of t (gpst): gps seconds of week,
// or glonass seconds of day for SYS_GLO.
func SsrEpochSec(sys int, t Gtime) float64 {
	if sys == SYS_GLO {
		tow, _ := Time2GpsT(TimeAdd(t, 10800.0-LeapSec(t)))
		return math.Mod(tow, 86400.0)
	}
	tow, _ := Time2GpsT(t)
	return tow
}

/* add batch -------------------------------------------------------------------
* add a decoded batch and release the epochs before it
* args   : *SsrBatch batch  I   decoded batch (batches without ssr are ignored)
* return : released epochs, oldest first
*-----------------------------------------------------------------------------*/
func (agg *EpochAggregator) Add(batch *SsrBatch) []*CorrEpoch {
	if batch == nil || batch.Sys == SYS_NONE {
		return nil
	}
	t := agg.EpochTime(batch.Sys, batch.EpochSec)
	if agg.flushed && TimeDiff(t, agg.last) <= 0.0 {
		Trace(3, "late ssr batch dropped: type=%d time=%s last=%s\n", batch.MsgType,
			TimeStr(t, 0), TimeStr(agg.last, 0))
		agg.dropped++
		return nil
	}
	ep, ok := agg.epochs.Get(t.Time)
	if !ok {
		ep = newCorrEpoch(t)
		agg.epochs.Set(t.Time, ep)
	}
	for _, orb := range batch.Orbits {
		orb.Time = t
		ep.Orbits[orb.Sat] = orb
	}
	for _, clk := range batch.Clocks {
		clk.Time = t
		ep.Clocks[clk.Sat] = clk
	}
	for _, cb := range batch.Biases {
		cb.Time = t
		ep.Biases[cb.Sat] = cb
	}
	for _, ura := range batch.Uras {
		ura.Time = t
		ep.Uras[ura.Sat] = ura
	}
	return agg.flush(t.Time)
}

/* release epochs before key -------------------------------------------------*/
func (agg *EpochAggregator) flush(key uint64) []*CorrEpoch {
	var out []*CorrEpoch

	for {
		k, ep, ok := agg.epochs.Min()
		if !ok || k >= key {
			break
		}
		agg.epochs.Delete(k)
		out = append(out, ep)
		agg.last, agg.flushed = ep.Time, true
	}
	return out
}

// FlushAll releases every pending epoch at the end of the stream.
func (agg *EpochAggregator) FlushAll() []*CorrEpoch {
	return agg.flush(math.MaxUint64)
}

// Dropped returns the number of late batches.
func (agg *EpochAggregator) Dropped() int {
	return agg.dropped
}

// Pending returns the number of unreleased epochs.
func (agg *EpochAggregator) Pending() int {
	return agg.epochs.Len()
}

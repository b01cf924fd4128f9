/*------------------------------------------------------------------------------
* epoch_test.go : epoch aggregator tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"ssrgo"
	"testing"

	"github.com/stretchr/testify/assert"
)

/* epoch time derivation */
func Test_epochutest1(t *testing.T) {
	assert := assert.New(t)
	now := testNow()
	agg := ssrgo.NewEpochAggregator(testNow)

	assert.Equal(0.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GPS, 302400), now))
	assert.Equal(-30.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GPS, 302370), now))

	/* glonass time of day: utc+3h */
	assert.Equal(53982.0, ssrgo.SsrEpochSec(ssrgo.SYS_GLO, now))
	assert.Equal(302400.0, ssrgo.SsrEpochSec(ssrgo.SYS_GPS, now))
	assert.Equal(0.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GLO, 53982), now))
	assert.Equal(5.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GLO, 53987), now))

	/* gps week rollover */
	_, week := ssrgo.Time2GpsT(now)
	start := ssrgo.TimeAdd(ssrgo.GpsT2Time(week, 0.0), 10.0)
	agg = ssrgo.NewEpochAggregator(func() ssrgo.Gtime { return start })
	assert.Equal(-20.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GPS, 604790), start))
	assert.Equal(5.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GPS, 15), start))

	/* glonass day and gps week rollover */
	for _, off := range []float64{0, 25200, 301000, 604793} {
		tg := ssrgo.TimeAdd(now, off)
		agg = ssrgo.NewEpochAggregator(func() ssrgo.Gtime { return tg })
		sec := ssrgo.SsrEpochSec(ssrgo.SYS_GLO, tg)
		assert.Equal(0.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GLO, sec), tg), "off=%.0f", off)
		back := ssrgo.SsrEpochSec(ssrgo.SYS_GLO, ssrgo.TimeAdd(tg, -100.0))
		assert.Equal(-100.0, ssrgo.TimeDiff(agg.EpochTime(ssrgo.SYS_GLO, back), tg), "off=%.0f", off)
	}
}

/* collect, release and drop late batches */
func Test_epochutest2(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	agg := ssrgo.NewEpochAggregator(testNow)

	assert.Nil(agg.Add(&ssrgo.SsrBatch{MsgType: 1019, Sys: ssrgo.SYS_NONE}))
	assert.Equal(0, agg.Pending())

	assert.Len(agg.Add(scenarioA()), 0)
	ura := &ssrgo.SsrBatch{MsgType: 3005, Sys: ssrgo.SYS_GPS, EpochSec: 302400,
		Uras: []ssrgo.UraCorr{{Sat: g01, Ura: 3}}}
	assert.Len(agg.Add(ura), 0)
	assert.Equal(1, agg.Pending())

	next := scenarioA()
	next.EpochSec = 302405
	eps := agg.Add(next)
	assert.Len(eps, 1)
	ep := eps[0]
	assert.Equal(0.0, ssrgo.TimeDiff(ep.Time, testNow()))
	assert.Equal([]int{g01}, ep.Sats())
	assert.Equal(3, ep.Uras[g01].Ura)
	assert.Equal(0.0, ssrgo.TimeDiff(ep.Orbits[g01].Time, testNow()))

	corrs := ep.Corrs()
	assert.Len(corrs, 1)
	c := corrs[0]
	assert.Equal(g01, c.Sat)
	assert.Equal(5, c.Iod)
	assert.Equal(2, c.Udi)
	assert.True(c.RaoSet)
	assert.True(c.DClkSet)
	assert.InDelta(0.5, c.Rao[0], 1e-9)
	assert.InDelta(1.234/ssrgo.CLIGHT, c.Dclk[0], 1e-15)

	/* late batches */
	assert.Nil(agg.Add(scenarioA()))
	old := scenarioA()
	old.EpochSec = 302300
	assert.Nil(agg.Add(old))
	assert.Equal(2, agg.Dropped())

	/* same epoch as pending is merged, end of stream releases it */
	assert.Len(agg.Add(next), 0)
	eps = agg.FlushAll()
	assert.Len(eps, 1)
	assert.Equal(5.0, ssrgo.TimeDiff(eps[0].Time, testNow()))
	assert.Equal(0, agg.Pending())
	assert.Len(agg.FlushAll(), 0)
}

/* several epochs released at once, oldest first */
func Test_epochutest3(t *testing.T) {
	assert := assert.New(t)
	agg := ssrgo.NewEpochAggregator(testNow)

	for _, sec := range []float64{302410, 302405, 302400} {
		b := scenarioA()
		b.EpochSec = sec
		assert.Len(agg.Add(b), 0)
	}
	/* each batch is older than the pending ones: nothing released yet */
	assert.Equal(3, agg.Pending())

	b := scenarioA()
	b.EpochSec = 302420
	eps := agg.Add(b)
	assert.Len(eps, 3)
	assert.Equal(0.0, ssrgo.TimeDiff(eps[0].Time, testNow()))
	assert.Equal(5.0, ssrgo.TimeDiff(eps[1].Time, testNow()))
	assert.Equal(10.0, ssrgo.TimeDiff(eps[2].Time, testNow()))
}

/* merge of orbit and clock records */
func Test_epochutest4(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	g02 := ssrgo.SatNo(ssrgo.SYS_GPS, 2)
	g03 := ssrgo.SatNo(ssrgo.SYS_GPS, 3)
	agg := ssrgo.NewEpochAggregator(testNow)

	orbit := &ssrgo.SsrBatch{MsgType: 4050, Sys: ssrgo.SYS_GPS, EpochSec: 302400, Udi: 1,
		Orbits: []ssrgo.OrbitCorr{
			{Sat: g01, Iod: 5, Udi: 1, Deph: [3]float64{0.1, 0.2, 0.3}},
			{Sat: g02, Iod: 7, Udi: 1},
		}}
	clock := &ssrgo.SsrBatch{MsgType: 4051, Sys: ssrgo.SYS_GPS, EpochSec: 302400, Udi: 1,
		Clocks: []ssrgo.ClockCorr{
			{Sat: g01, Iod: 6, Udi: 1, Dclk: [3]float64{1e-9}},
			{Sat: g02, Iod: -1, Udi: 1, Dclk: [3]float64{2e-9}},
			{Sat: g03, Iod: 9, Udi: 1, Dclk: [3]float64{3e-9}},
		}}
	agg.Add(orbit)
	agg.Add(clock)
	eps := agg.FlushAll()
	assert.Len(eps, 1)

	corrs := eps[0].Corrs()
	assert.Len(corrs, 3)

	/* iod mismatch: orbit only */
	assert.Equal(g01, corrs[0].Sat)
	assert.True(corrs[0].RaoSet)
	assert.False(corrs[0].DClkSet)
	assert.Equal(0.0, corrs[0].Dclk[0])

	/* unknown clock iod takes the orbit */
	assert.Equal(7, corrs[1].Iod)
	assert.True(corrs[1].DClkSet)
	assert.Equal(2e-9, corrs[1].Dclk[0])

	/* clock only */
	assert.Equal(g03, corrs[2].Sat)
	assert.Equal(9, corrs[2].Iod)
	assert.False(corrs[2].RaoSet)
	assert.True(corrs[2].DClkSet)
}

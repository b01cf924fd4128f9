/*------------------------------------------------------------------------------
* satpos_test.go : corrected satellite position tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"errors"
	"ssrgo"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testCorr(sat, iod int, t ssrgo.Gtime) *ssrgo.Corr {
	return &ssrgo.Corr{
		Sat:     sat,
		Iod:     iod,
		Time:    t,
		Udi:     2,
		Rao:     [3]float64{0.5, -0.2, 0.1},
		Dclk:    [3]float64{1.234 / ssrgo.CLIGHT},
		RaoSet:  true,
		DClkSet: true,
	}
}

/* radial-along-cross correction */
func Test_satposutest1(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	now := testNow()
	store := ssrgo.NewEphStore()
	store.Put(newFakeRev(g01, 5, now))
	r := &ssrgo.SatPosResolver{Store: store}

	corr := testCorr(g01, 5, now)
	st, err := r.SatPos(g01, now, corr)
	assert.NoError(err)
	assert.InDelta(26560e3-0.5, st.Rs[0], 1e-6)
	assert.InDelta(0.2, st.Rs[1], 1e-6)
	assert.InDelta(-0.1, st.Rs[2], 1e-6)
	assert.Equal([3]float64{0.0, 3874.0, 0.0}, [3]float64{st.Rs[3], st.Rs[4], st.Rs[5]})
	assert.InDelta(1e-4+1.234/ssrgo.CLIGHT, st.Dts, 1e-15)
	assert.Equal(corr, st.Corr)
	assert.Equal(5, st.Eph.Iod())

	/* rates over 10 s */
	corr.DotRao = [3]float64{0.01, 0.0, 0.0}
	corr.Dclk[1] = 0.001 / ssrgo.CLIGHT
	st, err = r.SatPos(g01, ssrgo.TimeAdd(now, 10.0), corr)
	assert.NoError(err)
	assert.InDelta(26560e3-0.6, st.Rs[0], 1e-6)
	assert.InDelta(38740.0+0.2, st.Rs[1], 1e-6)
	assert.InDelta(1e-4+1.244/ssrgo.CLIGHT, st.Dts, 1e-15)

	/* orbit only correction leaves the broadcast clock */
	corr = testCorr(g01, 5, now)
	corr.DClkSet = false
	st, err = r.SatPos(g01, now, corr)
	assert.NoError(err)
	assert.Equal(1e-4, st.Dts)

	/* broadcast only */
	st, err = r.SatPos(g01, now, nil)
	assert.NoError(err)
	assert.Equal(26560e3, st.Rs[0])
	assert.Nil(st.Corr)

	r.NoCorr = true
	st, err = r.SatPos(g01, now, testCorr(g01, 5, now))
	assert.NoError(err)
	assert.Equal(26560e3, st.Rs[0])
	assert.Nil(st.Corr)
}

/* stale correction */
func Test_satposutest2(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	now := testNow()
	store := ssrgo.NewEphStore()
	store.Put(newFakeRev(g01, 5, now))
	r := &ssrgo.SatPosResolver{Store: store}

	corr := testCorr(g01, 5, now)
	corr.DotRao = [3]float64{0.2, 0.0, 0.0}
	_, err := r.SatPos(g01, ssrgo.TimeAdd(now, 130.0), corr)
	assert.True(errors.Is(err, ssrgo.ErrCorrStale))

	_, err = r.SatPos(g01, ssrgo.TimeAdd(now, 10.0), corr)
	assert.NoError(err)

	/* an old correction is still applied by the resolver, the table refuses it */
	corr = testCorr(g01, 5, ssrgo.TimeAdd(now, -130.0))
	assert.True(corr.Stale(now, ssrgo.MAXAGECORR))
	assert.False(corr.Stale(ssrgo.TimeAdd(now, -100.0), ssrgo.MAXAGECORR))
	_, err = r.SatPos(g01, now, corr)
	assert.NoError(err)

	tbl := ssrgo.NewCorrTable()
	tbl.Update([]*ssrgo.Corr{corr})
	assert.Nil(tbl.Get(g01, now))
	assert.Equal(corr, tbl.Get(g01, ssrgo.TimeAdd(now, -100.0)))
}

/* iod matching */
func Test_satposutest3(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	g02 := ssrgo.SatNo(ssrgo.SYS_GPS, 2)
	now := testNow()
	store := ssrgo.NewEphStore()
	store.Put(newFakeRev(g01, 5, ssrgo.TimeAdd(now, -7200.0)))
	store.Put(newFakeRev(g01, 6, now))
	r := &ssrgo.SatPosResolver{Store: store}

	_, err := r.SatPos(g01, now, testCorr(g01, 7, now))
	assert.True(errors.Is(err, ssrgo.ErrEphUnavailable))

	st, err := r.SatPos(g01, now, testCorr(g01, 5, now))
	assert.NoError(err)
	assert.Equal(5, st.Eph.Iod())

	st, err = r.SatPos(g01, now, testCorr(g01, 6, now))
	assert.NoError(err)
	assert.Equal(6, st.Eph.Iod())

	_, err = r.SatPos(g02, now, nil)
	assert.True(errors.Is(err, ssrgo.ErrEphUnavailable))
}

/* time of transmission */
func Test_satposutest4(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	g02 := ssrgo.SatNo(ssrgo.SYS_GPS, 2)
	now := testNow()
	store := ssrgo.NewEphStore()
	store.Put(newFakeRev(g01, 5, now))
	r := &ssrgo.SatPosResolver{Store: store}

	prange := 21000e3
	corr := testCorr(g01, 5, now)
	st, err := r.SatPosToT(g01, now, prange, corr)
	assert.NoError(err)

	tot := ssrgo.TimeAdd(now, -prange/ssrgo.CLIGHT-st.Dts)
	want, err := r.SatPos(g01, tot, corr)
	assert.NoError(err)
	for i := 0; i < 3; i++ {
		assert.InDelta(want.Rs[i], st.Rs[i], 1e-3)
	}
	assert.InDelta(-3874.0*(prange/ssrgo.CLIGHT+st.Dts)+0.2, st.Rs[1], 1e-3)

	/* clock drifting faster than the signal */
	bad := newFakeRev(g02, 1, now)
	bad.dtsRate = 2.0
	store.Put(bad)
	_, err = r.SatPosToT(g02, now, prange, nil)
	assert.True(errors.Is(err, ssrgo.ErrToTNonConvergence))

	_, err = r.SatPosToT(g02, now, prange, testCorr(g02, 9, now))
	assert.True(errors.Is(err, ssrgo.ErrEphUnavailable))
}

/* correction table keeps the newest correction */
func Test_satposutest5(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	now := testNow()
	tbl := ssrgo.NewCorrTable()

	c1 := testCorr(g01, 5, now)
	c0 := testCorr(g01, 4, ssrgo.TimeAdd(now, -5.0))
	tbl.Update([]*ssrgo.Corr{c1})
	tbl.Update([]*ssrgo.Corr{c0})
	assert.Equal(c1, tbl.Get(g01, now))
	assert.Nil(tbl.Get(ssrgo.SatNo(ssrgo.SYS_GPS, 2), now))
}

/* zero correction gives the broadcast state */
func Test_satposutest6(t *testing.T) {
	assert := assert.New(t)
	now := testNow()
	sat := ssrgo.SatNo(ssrgo.SYS_GPS, 4)
	eph := testEph(4, 21, now)
	store := ssrgo.NewEphStore()
	assert.Equal(ssrgo.EphAccepted, store.Put(eph))
	r := &ssrgo.SatPosResolver{Store: store}

	corr := &ssrgo.Corr{Sat: sat, Iod: 21, Time: now, RaoSet: true, DClkSet: true}
	for _, dt := range []float64{0.0, 7.5, 60.0, -30.0} {
		t1 := ssrgo.TimeAdd(now, dt)
		want, wdts, ok := eph.PosVel(t1)
		assert.True(ok)
		st, err := r.SatPos(sat, t1, corr)
		assert.NoError(err)
		assert.Equal(want[:3], st.Rs[:3])
		assert.Equal(wdts, st.Dts)
	}
}

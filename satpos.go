/*------------------------------------------------------------------------------
* satpos.go : satellite position and clock with ssr corrections
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] RTCM Paper, April 12, 2010, Proposed SSR Messages for SV Orbit Clock,
*         Code Biases, URA
*     [2] RTCM Standard 10403.3, Differential GNSS (Global Navigation
*         Satellite Systems) Services - version 3, October 7, 2016
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"math"
	"sync"
)

// SatPosResolver combines broadcast revisions of the store with ssr
// corrections.
type SatPosResolver struct {
	Store  *EphStore
	NoCorr bool /* broadcast only */
}

/* satellite position and clock ------------------------------------------------
* compute corrected satellite position, velocity and clock
* args   : int    sat       I   satellite number
*          gtime_t t        I   time (gpst)
*          *Corr  corr      I   ssr correction (nil: broadcast only)
* return : satellite state, error
*          ErrEphUnavailable: no revision with the correction iod
*          ErrCorrStale: extrapolated orbit correction too large
* notes  : rs -= er*dr+ea*da+ec*dc with radial/along/cross directions of the
*          broadcast orbit. the velocity is not corrected.
*          dts += dclk(t-t0) (ref [2] eq.3.12-7)
*-----------------------------------------------------------------------------*/
func (r *SatPosResolver) SatPos(sat int, t Gtime, corr *Corr) (SatState, error) {
	var (
		st             SatState
		er, ea, ec, rc [3]float64
		deph           [3]float64
	)

	if corr == nil || r.NoCorr {
		if st.Eph = r.Store.Latest(sat); st.Eph == nil {
			return st, fmt.Errorf("%w: sat=%s", ErrEphUnavailable, SatNo2Id(sat))
		}
		rs, dts, ok := st.Eph.PosVel(t)
		if !ok {
			return st, fmt.Errorf("%w: sat=%s position failed", ErrEphUnavailable, SatNo2Id(sat))
		}
		st.Rs, st.Dts = rs, dts
		return st, nil
	}
	if st.Eph = r.Store.Resolve(sat, corr.Iod); st.Eph == nil {
		Trace(3, "no ephemeris for ssr: sat=%s iod=%d\n", SatNo2Id(sat), corr.Iod)
		return st, fmt.Errorf("%w: sat=%s iod=%d", ErrEphUnavailable, SatNo2Id(sat), corr.Iod)
	}
	rs, dts, ok := st.Eph.PosVel(t)
	if !ok {
		return st, fmt.Errorf("%w: sat=%s position failed", ErrEphUnavailable, SatNo2Id(sat))
	}
	dt := TimeDiff(t, corr.Time)

	for i := 0; i < 3; i++ {
		deph[i] = corr.Rao[i] + corr.DotRao[i]*dt + 0.5*corr.DotDotRao[i]*dt*dt
	}
	if n := Norm(deph[:], 3); n > MAXDELTAORB {
		Trace(2, "ssr orbit correction too large: sat=%s dt=%.0f deph=%.1f\n", SatNo2Id(sat), dt, n)
		return st, fmt.Errorf("%w: sat=%s deph=%.1f", ErrCorrStale, SatNo2Id(sat), n)
	}
	/* radial-along-cross directions in ecef */
	if !NormV3(rs[3:], ea[:]) {
		return st, fmt.Errorf("%w: sat=%s zero velocity", ErrEphUnavailable, SatNo2Id(sat))
	}
	Cross3(rs[:3], rs[3:], rc[:])
	if !NormV3(rc[:], ec[:]) {
		return st, fmt.Errorf("%w: sat=%s degenerate orbit", ErrEphUnavailable, SatNo2Id(sat))
	}
	Cross3(ea[:], ec[:], er[:])

	for i := 0; i < 3; i++ {
		rs[i] -= er[i]*deph[0] + ea[i]*deph[1] + ec[i]*deph[2]
	}
	if corr.DClkSet {
		dts += corr.Dclk[0] + corr.Dclk[1]*dt + corr.Dclk[2]*dt*dt + corr.HrClk
	}
	st.Rs, st.Dts, st.Corr = rs, dts, corr

	Trace(5, "satpos_ssr: %s sat=%s deph=%6.3f %6.3f %6.3f dts=%.9f\n", TimeStr(t, 2),
		SatNo2Id(sat), deph[0], deph[1], deph[2], dts)
	return st, nil
}

/* satellite position at time of transmission ----------------------------------
* compute satellite state at signal transmission time
* args   : int    sat       I   satellite number
*          gtime_t trcv     I   receive time (gpst)
*          double prange    I   pseudorange (m)
*          *Corr  corr      I   ssr correction (nil: broadcast only)
* return : satellite state at transmission time, error
*          ErrToTNonConvergence: clock not converged in MAXITERTOT rounds
*-----------------------------------------------------------------------------*/
func (r *SatPosResolver) SatPosToT(sat int, trcv Gtime, prange float64, corr *Corr) (SatState, error) {
	var (
		st  SatState
		err error
		clk float64
	)
	for i := 0; i < MAXITERTOT; i++ {
		tot := TimeAdd(trcv, -prange/CLIGHT-clk)
		if st, err = r.SatPos(sat, tot, corr); err != nil {
			return st, err
		}
		if math.Abs(st.Dts-clk)*CLIGHT < 1e-4 {
			return st, nil
		}
		clk = st.Dts
	}
	Trace(2, "time of transmission not converged: sat=%s\n", SatNo2Id(sat))
	return st, fmt.Errorf("%w: sat=%s", ErrToTNonConvergence, SatNo2Id(sat))
}

// Stale reports whether the correction is older than maxAge at t.
func (c *Corr) Stale(t Gtime, maxAge float64) bool {
	return math.Abs(TimeDiff(t, c.Time)) > maxAge
}

// CorrTable keeps the newest correction per satellite for positioning
// clients.
type CorrTable struct {
	mu    sync.RWMutex
	corrs map[int]*Corr
}

func NewCorrTable() *CorrTable {
	return &CorrTable{corrs: make(map[int]*Corr)}
}

// Update stores the corrections of a released epoch.
func (tbl *CorrTable) Update(corrs []*Corr) {
	tbl.mu.Lock()
	defer tbl.mu.Unlock()
	for _, c := range corrs {
		if old, ok := tbl.corrs[c.Sat]; ok && TimeDiff(c.Time, old.Time) < 0.0 {
			continue
		}
		tbl.corrs[c.Sat] = c
	}
}

// Get returns the correction of a satellite, nil if none or older than
// MAXAGECORR at t.
func (tbl *CorrTable) Get(sat int, t Gtime) *Corr {
	tbl.mu.RLock()
	defer tbl.mu.RUnlock()
	c := tbl.corrs[sat]
	if c == nil || c.Stale(t, MAXAGECORR) {
		return nil
	}
	return c
}

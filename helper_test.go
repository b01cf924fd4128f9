/*------------------------------------------------------------------------------
* helper_test.go : common test data
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"ssrgo"
)

/* 2022/06/15 12:00:00 gpst: wednesday noon, tow=302400 */
var testEp = []float64{2022, 6, 15, 12, 0, 0}

func testNow() ssrgo.Gtime { return ssrgo.Epoch2Time(testEp) }

/* gps ephemeris with a realistic orbit -------------------------------------*/
func testEph(prn, iode int, toc ssrgo.Gtime) *ssrgo.EphRev {
	tow, week := ssrgo.Time2GpsT(toc)
	return &ssrgo.EphRev{Eph: ssrgo.Eph{
		Sat:  ssrgo.SatNo(ssrgo.SYS_GPS, prn),
		Iode: iode,
		Iodc: iode,
		Week: week,
		Toe:  toc,
		Toc:  toc,
		Toes: tow,
		A:    26559710.0,
		E:    0.0102,
		I0:   0.9660,
		OMG0: -1.0650,
		Omg:  0.6240,
		M0:   2.1000,
		Deln: 4.5e-9,
		OMGd: -8.1e-9,
		F0:   1.2e-4,
		F1:   2.0e-12,
		Fit:  4.0,
	}}
}

/* ephemeris revision moving on a straight line ------------------------------*/
type fakeRev struct {
	sat, iod, svh int
	toc           ssrgo.Gtime
	pos, vel      [3]float64
	dts, dtsRate  float64
}

func newFakeRev(sat, iod int, toc ssrgo.Gtime) *fakeRev {
	return &fakeRev{
		sat: sat,
		iod: iod,
		toc: toc,
		pos: [3]float64{26560e3, 0.0, 0.0},
		vel: [3]float64{0.0, 3874.0, 0.0},
		dts: 1e-4,
	}
}

func (f *fakeRev) Sat() int         { return f.sat }
func (f *fakeRev) Iod() int         { return f.iod }
func (f *fakeRev) Toc() ssrgo.Gtime { return f.toc }
func (f *fakeRev) Health() int      { return f.svh }

func (f *fakeRev) IsNewerThan(other ssrgo.EphRevision) bool {
	return other == nil || ssrgo.TimeDiff(f.toc, other.Toc()) > 0.0
}

func (f *fakeRev) PosVel(t ssrgo.Gtime) ([6]float64, float64, bool) {
	var rs [6]float64

	dt := ssrgo.TimeDiff(t, f.toc)
	for i := 0; i < 3; i++ {
		rs[i] = f.pos[i] + f.vel[i]*dt
		rs[i+3] = f.vel[i]
	}
	return rs, f.dts + f.dtsRate*dt, true
}

/* rtcm3 frame of a payload (message type included) --------------------------*/
func rtcmFrame(payload []uint8) []uint8 {
	buff := make([]uint8, 3+len(payload)+3)
	buff[0] = ssrgo.RTCM3PREAMB
	ssrgo.SetBitU(buff, 14, 10, uint32(len(payload)))
	copy(buff[3:], payload)
	n := 3 + len(payload)
	ssrgo.SetBitU(buff, n*8, 24, ssrgo.Rtk_CRC24q(buff, n))
	return buff
}

/* gps combined orbit and clock of G01: iod=5, dclk=1.234 m ------------------*/
func scenarioA() *ssrgo.SsrBatch {
	sat := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	return &ssrgo.SsrBatch{
		MsgType:  4056,
		Sys:      ssrgo.SYS_GPS,
		EpochSec: 302400,
		Udi:      2,
		Orbits: []ssrgo.OrbitCorr{
			{Sat: sat, Iod: 5, Udi: 2, Deph: [3]float64{0.5, -0.2, 0.1}},
		},
		Clocks: []ssrgo.ClockCorr{
			{Sat: sat, Iod: 5, Udi: 2, Dclk: [3]float64{1.234 / ssrgo.CLIGHT}},
		},
	}
}

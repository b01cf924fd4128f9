/*------------------------------------------------------------------------------
* rtcmeph.go : rtcm ver.3 broadcast ephemeris messages (1019, 1020)
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] RTCM Standard 10403.2, Differential GNSS (Global Navigation Satellite
*         Systems) Services - version 3, February 1, 2013
*
* notes  : the week of 1019 and the day of 1020 are resolved against the
*          reference time given by the decoder.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"math"
)

/* adjust gps week number against reference time -----------------------------*/
func adjWeek(week int, now Gtime) int {
	_, w := Time2GpsT(now)
	return week + (w-week+512)/1024*1024
}

/* decode type 1019: GPS ephemerides -----------------------------------------*/
func decodeType1019(buff []uint8, now Gtime) (*EphRev, error) {
	var (
		eph   Eph
		i     = 24 + 12
		sys   = SYS_GPS
		toc   float64
		sqrtA float64
		prn   int
		week  int
	)
	if i+476 > len(buff)*8 {
		return nil, fmt.Errorf("rtcm3 1019 length error: len=%d", len(buff))
	}
	prn = int(GetBitU(buff, i, 6))
	i += 6
	week = int(GetBitU(buff, i, 10))
	i += 10
	eph.Sva = int(GetBitU(buff, i, 4))
	i += 4
	eph.Code = int(GetBitU(buff, i, 2))
	i += 2
	eph.Idot = float64(GetBits(buff, i, 14)) * P2_43 * SC2RAD
	i += 14
	eph.Iode = int(GetBitU(buff, i, 8))
	i += 8
	toc = float64(GetBitU(buff, i, 16)) * 16.0
	i += 16
	eph.F2 = float64(GetBits(buff, i, 8)) * P2_55
	i += 8
	eph.F1 = float64(GetBits(buff, i, 16)) * P2_43
	i += 16
	eph.F0 = float64(GetBits(buff, i, 22)) * P2_31
	i += 22
	eph.Iodc = int(GetBitU(buff, i, 10))
	i += 10
	eph.Crs = float64(GetBits(buff, i, 16)) * P2_5
	i += 16
	eph.Deln = float64(GetBits(buff, i, 16)) * P2_43 * SC2RAD
	i += 16
	eph.M0 = float64(GetBits(buff, i, 32)) * P2_31 * SC2RAD
	i += 32
	eph.Cuc = float64(GetBits(buff, i, 16)) * P2_29
	i += 16
	eph.E = float64(GetBitU(buff, i, 32)) * P2_33
	i += 32
	eph.Cus = float64(GetBits(buff, i, 16)) * P2_29
	i += 16
	sqrtA = float64(GetBitU(buff, i, 32)) * P2_19
	i += 32
	eph.Toes = float64(GetBitU(buff, i, 16)) * 16.0
	i += 16
	eph.Cic = float64(GetBits(buff, i, 16)) * P2_29
	i += 16
	eph.OMG0 = float64(GetBits(buff, i, 32)) * P2_31 * SC2RAD
	i += 32
	eph.Cis = float64(GetBits(buff, i, 16)) * P2_29
	i += 16
	eph.I0 = float64(GetBits(buff, i, 32)) * P2_31 * SC2RAD
	i += 32
	eph.Crc = float64(GetBits(buff, i, 16)) * P2_5
	i += 16
	eph.Omg = float64(GetBits(buff, i, 32)) * P2_31 * SC2RAD
	i += 32
	eph.OMGd = float64(GetBits(buff, i, 24)) * P2_43 * SC2RAD
	i += 24
	eph.Tgd[0] = float64(GetBits(buff, i, 8)) * P2_31
	i += 8
	eph.Svh = int(GetBitU(buff, i, 6))
	i += 6
	eph.Flag = int(GetBitU(buff, i, 1))
	i += 1
	eph.Fit = 4.0 /* 0:4hr,1:>4hr */
	if GetBitU(buff, i, 1) > 0 {
		eph.Fit = 0.0
	}
	if prn >= 40 {
		sys = SYS_SBS
		prn += 80
	}
	Trace(4, "decode_type1019: prn=%d iode=%d toe=%.0f\n", prn, eph.Iode, eph.Toes)

	if eph.Sat = SatNo(sys, prn); eph.Sat == 0 {
		return nil, fmt.Errorf("rtcm3 1019 satellite number error: prn=%d", prn)
	}
	eph.Week = adjWeek(week, now)
	tt := TimeDiff(GpsT2Time(eph.Week, eph.Toes), now)
	if tt < -302400.0 {
		eph.Week++
	} else if tt >= 302400.0 {
		eph.Week--
	}
	eph.Toe = GpsT2Time(eph.Week, eph.Toes)
	eph.Toc = GpsT2Time(eph.Week, toc)
	eph.Ttr = now
	eph.A = sqrtA * sqrtA
	return &EphRev{eph}, nil
}

/* decode type 1020: GLONASS ephemerides -------------------------------------*/
func decodeType1020(buff []uint8, now Gtime) (*GEphRev, error) {
	var (
		geph             GEph
		i                = 24 + 12
		tk_h, tk_m, tk_s float64
		prn, tb, bn      int
	)
	if i+348 > len(buff)*8 {
		return nil, fmt.Errorf("rtcm3 1020 length error: len=%d", len(buff))
	}
	prn = int(GetBitU(buff, i, 6))
	i += 6
	geph.Frq = int(GetBitU(buff, i, 5)) - 7
	i += 5 + 2 + 2
	tk_h = float64(GetBitU(buff, i, 5))
	i += 5
	tk_m = float64(GetBitU(buff, i, 6))
	i += 6
	tk_s = float64(GetBitU(buff, i, 1)) * 30.0
	i += 1
	bn = int(GetBitU(buff, i, 1))
	i += 1 + 1
	tb = int(GetBitU(buff, i, 7))
	i += 7
	for j := 0; j < 3; j++ {
		geph.Vel[j] = getbitg(buff, i, 24) * P2_20 * 1e3
		i += 24
		geph.Pos[j] = getbitg(buff, i, 27) * P2_11 * 1e3
		i += 27
		geph.Acc[j] = getbitg(buff, i, 5) * P2_30 * 1e3
		i += 5
	}
	i += 1
	geph.Gamn = getbitg(buff, i, 11) * P2_40
	i += 11 + 3
	geph.Taun = getbitg(buff, i, 22) * P2_30
	i += 22
	geph.DTaun = getbitg(buff, i, 5) * P2_30
	i += 5
	geph.Age = int(GetBitU(buff, i, 5))

	if geph.Sat = SatNo(SYS_GLO, prn); geph.Sat == 0 {
		return nil, fmt.Errorf("rtcm3 1020 satellite number error: prn=%d", prn)
	}
	Trace(4, "decode_type1020: prn=%d tk=%02.0f:%02.0f:%02.0f\n", prn, tk_h, tk_m, tk_s)

	geph.Svh = bn
	geph.Iode = tb & 0x7F

	tow, week := Time2GpsT(GpsT2Utc(now))
	tod := math.Mod(tow, 86400.0)
	tow -= tod
	tof := tk_h*3600.0 + tk_m*60.0 + tk_s - 10800.0 /* lt.utc */
	if tof < tod-43200.0 {
		tof += 86400.0
	} else if tof > tod+43200.0 {
		tof -= 86400.0
	}
	geph.Tof = Utc2GpsT(GpsT2Time(week, tow+tof))
	toe := float64(tb)*900.0 - 10800.0 /* lt.utc */
	if toe < tod-43200.0 {
		toe += 86400.0
	} else if toe > tod+43200.0 {
		toe -= 86400.0
	}
	geph.Toe = Utc2GpsT(GpsT2Time(week, tow+toe)) /* utc.gpst */
	return &GEphRev{geph}, nil
}

/* signed integer field (two's complement) -----------------------------------*/
func (w *bitWriter) si(n int, v int) {
	if !w.room(n) {
		return
	}
	lim := 1 << uint(n-1)
	if v < -lim || v >= lim {
		w.err = fmt.Errorf("value %d out of range for %d bits", v, n)
		return
	}
	SetBits(w.buff, w.pos, n, int32(v))
	w.pos += n
}

/* sign-magnitude field ------------------------------------------------------*/
func (w *bitWriter) g(n int, v int) {
	if !w.room(n) {
		return
	}
	if lim := 1 << uint(n-1); v <= -lim || v >= lim {
		w.err = fmt.Errorf("value %d out of range for %d bits", v, n)
		return
	}
	setbitg(w.buff, w.pos, n, int32(v))
	w.pos += n
}

func encodeEph(w *bitWriter, msgType int, rev EphRevision) error {
	switch e := rev.(type) {
	case *EphRev:
		if msgType == 1019 {
			return encodeType1019(w, &e.Eph)
		}
	case *GEphRev:
		if msgType == 1020 {
			return encodeType1020(w, &e.GEph)
		}
	}
	return fmt.Errorf("rtcm3 %d: ephemeris type mismatch sat=%s", msgType, SatNo2Id(rev.Sat()))
}

/* encode type 1019: GPS ephemerides -----------------------------------------*/
func encodeType1019(w *bitWriter, eph *Eph) error {
	sys, prn := SatSys(eph.Sat)
	if sys != SYS_GPS {
		return fmt.Errorf("rtcm3 1019: not gps satellite %s", SatNo2Id(eph.Sat))
	}
	toc, _ := Time2GpsT(eph.Toc)

	w.u(6, prn)
	w.u(10, eph.Week%1024)
	w.u(4, eph.Sva)
	w.u(2, eph.Code)
	w.si(14, ROUND_I(eph.Idot/P2_43/SC2RAD))
	w.u(8, eph.Iode)
	w.u(16, ROUND_I(toc/16.0))
	w.si(8, ROUND_I(eph.F2/P2_55))
	w.si(16, ROUND_I(eph.F1/P2_43))
	w.si(22, ROUND_I(eph.F0/P2_31))
	w.u(10, eph.Iodc)
	w.si(16, ROUND_I(eph.Crs/P2_5))
	w.si(16, ROUND_I(eph.Deln/P2_43/SC2RAD))
	w.si(32, ROUND_I(eph.M0/P2_31/SC2RAD))
	w.si(16, ROUND_I(eph.Cuc/P2_29))
	w.u(32, int(ROUND_U(eph.E/P2_33)))
	w.si(16, ROUND_I(eph.Cus/P2_29))
	w.u(32, int(ROUND_U(math.Sqrt(eph.A)/P2_19)))
	w.u(16, ROUND_I(eph.Toes/16.0))
	w.si(16, ROUND_I(eph.Cic/P2_29))
	w.si(32, ROUND_I(eph.OMG0/P2_31/SC2RAD))
	w.si(16, ROUND_I(eph.Cis/P2_29))
	w.si(32, ROUND_I(eph.I0/P2_31/SC2RAD))
	w.si(16, ROUND_I(eph.Crc/P2_5))
	w.si(32, ROUND_I(eph.Omg/P2_31/SC2RAD))
	w.si(24, ROUND_I(eph.OMGd/P2_43/SC2RAD))
	w.si(8, ROUND_I(eph.Tgd[0]/P2_31))
	w.u(6, eph.Svh)
	w.u(1, eph.Flag)
	if eph.Fit > 0.0 {
		w.u(1, 0)
	} else {
		w.u(1, 1)
	}
	return w.err
}

/* encode type 1020: GLONASS ephemerides -------------------------------------*/
func encodeType1020(w *bitWriter, geph *GEph) error {
	var ep [6]float64

	sys, prn := SatSys(geph.Sat)
	if sys != SYS_GLO {
		return fmt.Errorf("rtcm3 1020: not glonass satellite %s", SatNo2Id(geph.Sat))
	}
	/* time of frame within day (utc(su) + 3 hr) */
	time := TimeAdd(GpsT2Utc(geph.Tof), 10800.0)
	Time2Epoch(time, ep[:])
	tk_h, tk_m, tk_s := int(ep[3]), int(ep[4]), ROUND_I(ep[5]/30.0)

	/* # of days since jan 1 in leap year */
	ep[0] = math.Floor(ep[0]/4.0) * 4.0
	ep[1], ep[2] = 1.0, 1.0
	ep[3], ep[4], ep[5] = 0.0, 0.0, 0.0
	NT := int(math.Floor(TimeDiff(time, Epoch2Time(ep[:]))/86400. + 1.0))

	/* index of time interval within day (utc(su) + 3 hr) */
	time = TimeAdd(GpsT2Utc(geph.Toe), 10800.0)
	Time2Epoch(time, ep[:])
	tb := ROUND_I((ep[3]*3600.0+ep[4]*60.0+ep[5])/900.0) % 96

	w.u(6, prn)
	w.u(5, geph.Frq+7)
	w.u(4, 0) /* almanac health,P1 */
	w.u(5, tk_h)
	w.u(6, tk_m)
	w.u(1, tk_s&1)
	w.u(1, geph.Svh&1) /* Bn */
	w.u(1, 0)          /* P2 */
	w.u(7, tb)
	for j := 0; j < 3; j++ {
		w.g(24, ROUND_I(geph.Vel[j]/P2_20/1e3))
		w.g(27, ROUND_I(geph.Pos[j]/P2_11/1e3))
		w.g(5, ROUND_I(geph.Acc[j]/P2_30/1e3))
	}
	w.u(1, 0) /* P3 */
	w.g(11, ROUND_I(geph.Gamn/P2_40))
	w.u(3, 0) /* P,ln */
	w.g(22, ROUND_I(geph.Taun/P2_30))
	w.g(5, ROUND_I(geph.DTaun/P2_30))
	w.u(5, geph.Age) /* En */
	w.u(1, 0)        /* P4 */
	w.u(4, 0)        /* FT */
	w.u(11, NT)
	w.u(2, 0)  /* M */
	w.u(1, 0)  /* flag for additional data */
	w.u(11, 0) /* NA */
	w.u(32, 0) /* tauc */
	w.u(5, 0)  /* N4 */
	w.u(22, 0) /* taugps */
	w.u(1, 0)  /* ln */
	w.u(7, 0)
	return w.err
}

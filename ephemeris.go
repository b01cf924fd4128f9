/*------------------------------------------------------------------------------
* ephemeris.go : broadcast ephemeris revisions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] IS-GPS-200K, Navstar GPS Space Segment/Navigation User Interfaces,
*         May 6, 2019
*     [2] Global Navigation Satellite System GLONASS, Interface Control Document
*         Navigational radiosignal In bands L1, L2, (Version 5.1), 2008
*     [3] RTCA/DO-229C, Minimum operational performance standards for global
*         positioning system/wide area augmentation system airborne equipment,
*         RTCA inc, November 28, 2001
*     [7] European GNSS (Galileo) Open Service Signal In Space Interface Control
*         Document, Issue 1.3, December, 2016
*     [9] BeiDou navigation satellite system signal in space interface control
*         document open service signal B1I (version 3.0), China Satellite
*         Navigation office, February, 2019
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"math"
)

const (
	RE_GLO          = 6378136.0           /* radius of earth (m)            ref [2] */
	MU_GPS          = 3.9860050e14        /* gravitational constant         ref [1] */
	MU_GLO          = 3.9860044e14        /* gravitational constant         ref [2] */
	MU_GAL          = 3.986004418e14      /* earth gravitational constant   ref [7] */
	MU_CMP          = 3.986004418e14      /* earth gravitational constant   ref [9] */
	J2_GLO          = 1.0826257e-3        /* 2nd zonal harmonic of geopot   ref [2] */
	OMGE_GLO        = 7.292115e-5         /* earth angular velocity (rad/s) ref [2] */
	OMGE_GAL        = 7.2921151467e-5     /* earth angular velocity (rad/s) ref [7] */
	OMGE_CMP        = 7.292115e-5         /* earth angular velocity (rad/s) ref [9] */
	SIN_5           = -0.0871557427476582 /* sin(-5.0 deg) */
	COS_5           = 0.9961946980917456  /* cos(-5.0 deg) */
	TSTEP           = 60.0                /* integration step glonass ephemeris (s) */
	RTOL_KEPLER     = 1e-13               /* relative tolerance for Kepler equation */
	MAX_ITER_KEPLER = 30                  /* max number of iteration of Kelpler */
	MAXDTGLO        = 86400.0             /* max integration span of glonass ephemeris (s) */
	TTVEL           = 1e-3                /* time step of velocity by differential approx (s) */
)

/* broadcast ephemeris to satellite position and clock bias --------------------
* compute satellite position and clock bias with broadcast ephemeris (gps,
* galileo, qzss, beidou)
* args   : gtime_t time     I   time (gpst)
*          eph_t *eph       I   broadcast ephemeris
*          double *rs       O   satellite position (ecef) {x,y,z} (m)
* return : satellite clock bias (s), status (false: kepler not converged)
* notes  : satellite clock includes relativity correction without code bias
*          (tgd or bgd)
*-----------------------------------------------------------------------------*/
func Eph2Pos(time Gtime, eph *Eph, rs []float64) (float64, bool) {
	var (
		E, Ek, mu, omge float64
		n               int
	)

	Trace(5, "eph2pos : time=%s sat=%2d\n", TimeStr(time, 3), eph.Sat)

	if eph.A <= 0.0 {
		return 0.0, false
	}
	tk := TimeDiff(time, eph.Toe)

	sys, prn := SatSys(eph.Sat)
	switch sys {
	case SYS_GAL:
		mu, omge = MU_GAL, OMGE_GAL
	case SYS_CMP:
		mu, omge = MU_CMP, OMGE_CMP
	default:
		mu, omge = MU_GPS, OMGE
	}
	M := eph.M0 + (math.Sqrt(mu/(eph.A*eph.A*eph.A))+eph.Deln)*tk

	for E, n = M, 0; math.Abs(E-Ek) > RTOL_KEPLER && n < MAX_ITER_KEPLER; n++ {
		Ek = E
		E -= (E - eph.E*math.Sin(E) - M) / (1.0 - eph.E*math.Cos(E))
	}
	if n >= MAX_ITER_KEPLER {
		Trace(2, "eph2pos: kepler iteration overflow sat=%2d\n", eph.Sat)
		return 0.0, false
	}
	sinE, cosE := math.Sin(E), math.Cos(E)

	u := math.Atan2(math.Sqrt(1.0-eph.E*eph.E)*sinE, cosE-eph.E) + eph.Omg
	r := eph.A * (1.0 - eph.E*cosE)
	i := eph.I0 + eph.Idot*tk
	sin2u, cos2u := math.Sin(2.0*u), math.Cos(2.0*u)
	u += eph.Cus*sin2u + eph.Cuc*cos2u
	r += eph.Crs*sin2u + eph.Crc*cos2u
	i += eph.Cis*sin2u + eph.Cic*cos2u
	x, y := r*math.Cos(u), r*math.Sin(u)
	cosi := math.Cos(i)

	/* beidou geo satellite */
	if sys == SYS_CMP && (prn <= 5 || prn >= 59) {
		O := eph.OMG0 + eph.OMGd*tk - omge*eph.Toes
		sinO, cosO := math.Sin(O), math.Cos(O)
		xg := x*cosO - y*cosi*sinO
		yg := x*sinO + y*cosi*cosO
		zg := y * math.Sin(i)
		sino, coso := math.Sin(omge*tk), math.Cos(omge*tk)
		rs[0] = xg*coso + yg*sino*COS_5 + zg*sino*SIN_5
		rs[1] = -xg*sino + yg*coso*COS_5 + zg*coso*SIN_5
		rs[2] = -yg*SIN_5 + zg*COS_5
	} else {
		O := eph.OMG0 + (eph.OMGd-omge)*tk - omge*eph.Toes
		sinO, cosO := math.Sin(O), math.Cos(O)
		rs[0] = x*cosO - y*cosi*sinO
		rs[1] = x*sinO + y*cosi*cosO
		rs[2] = y * math.Sin(i)
	}
	tk = TimeDiff(time, eph.Toc)
	dts := eph.F0 + eph.F1*tk + eph.F2*tk*tk

	/* relativity correction */
	dts -= 2.0 * math.Sqrt(mu*eph.A) * eph.E * sinE / SQR(CLIGHT)
	return dts, true
}

/* glonass orbit differential equations --------------------------------------*/
func deq(x, xdot, acc []float64) {
	r2 := Dot(x, x, 3)
	r3 := r2 * math.Sqrt(r2)
	omg2 := SQR(OMGE_GLO)

	if r2 <= 0.0 {
		for i := 0; i < 6; i++ {
			xdot[i] = 0.0
		}
		return
	}
	/* ref [2] A.3.1.2 with bug fix for xdot[4],xdot[5] */
	a := 1.5 * J2_GLO * MU_GLO * SQR(RE_GLO) / r2 / r3 /* 3/2*J2*mu*Ae^2/r^5 */
	b := 5.0 * x[2] * x[2] / r2                        /* 5*z^2/r^2 */
	c := -MU_GLO/r3 - a*(1.0-b)                        /* -mu/r^3-a(1-b) */
	xdot[0] = x[3]
	xdot[1] = x[4]
	xdot[2] = x[5]
	xdot[3] = (c+omg2)*x[0] + 2.0*OMGE_GLO*x[4] + acc[0]
	xdot[4] = (c+omg2)*x[1] - 2.0*OMGE_GLO*x[3] + acc[1]
	xdot[5] = (c-2.0*a)*x[2] + acc[2]
}

/* glonass position and velocity by numerical integration --------------------*/
func glorbit(t float64, x, acc []float64) {
	var k1, k2, k3, k4, w [6]float64

	deq(x, k1[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k1[i]*t/2.0
	}
	deq(w[:], k2[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k2[i]*t/2.0
	}
	deq(w[:], k3[:], acc)
	for i := 0; i < 6; i++ {
		w[i] = x[i] + k3[i]*t
	}
	deq(w[:], k4[:], acc)
	for i := 0; i < 6; i++ {
		x[i] += (k1[i] + 2.0*k2[i] + 2.0*k3[i] + k4[i]) * t / 6.0
	}
}

/* glonass ephemeris to satellite position and clock bias ----------------------
* compute satellite position and clock bias with glonass ephemeris
* args   : gtime_t time     I   time (gpst)
*          geph_t *geph     I   glonass ephemeris
*          double *rs       O   satellite position {x,y,z} (ecef) (m)
* return : satellite clock bias (s), status (false: time out of span)
*-----------------------------------------------------------------------------*/
func GEph2Pos(time Gtime, geph *GEph, rs []float64) (float64, bool) {
	var x [6]float64

	Trace(5, "geph2pos: time=%s sat=%2d\n", TimeStr(time, 3), geph.Sat)

	t := TimeDiff(time, geph.Toe)
	if math.Abs(t) > MAXDTGLO {
		return 0.0, false
	}
	dts := -geph.Taun + geph.Gamn*t

	for i := 0; i < 3; i++ {
		x[i] = geph.Pos[i]
		x[i+3] = geph.Vel[i]
	}
	tt := TSTEP
	if t < 0.0 {
		tt = -TSTEP
	}
	for ; math.Abs(t) > 1e-9; t -= tt {
		if math.Abs(t) < TSTEP {
			tt = t
		}
		glorbit(tt, x[:], geph.Acc[:])
	}
	copy(rs[:3], x[:3])
	return dts, true
}

/* sbas ephemeris to satellite position and clock bias -------------------------
* compute satellite position and clock bias with sbas ephemeris
* args   : gtime_t time     I   time (gpst)
*          seph_t  *seph    I   sbas ephemeris
*          double  *rs      O   satellite position {x,y,z} (ecef) (m)
* return : satellite clock bias (s)
*-----------------------------------------------------------------------------*/
func SEph2Pos(time Gtime, seph *SEph, rs []float64) float64 {
	t := TimeDiff(time, seph.T0)

	for i := 0; i < 3; i++ {
		rs[i] = seph.Pos[i] + seph.Vel[i]*t + seph.Acc[i]*t*t/2.0
	}
	return seph.Af0 + seph.Af1*t
}

/* position, velocity by differential approx and clock bias ------------------*/
func posVel(time Gtime, pos func(Gtime, []float64) (float64, bool)) (rs [6]float64, dts float64, ok bool) {
	var rst [3]float64

	if dts, ok = pos(time, rs[:3]); !ok {
		return
	}
	if _, ok = pos(TimeAdd(time, TTVEL), rst[:]); !ok {
		return
	}
	for i := 0; i < 3; i++ {
		rs[i+3] = (rst[i] - rs[i]) / TTVEL
	}
	for i := range rs {
		if math.IsNaN(rs[i]) {
			return rs, dts, false
		}
	}
	return rs, dts, !math.IsNaN(dts)
}

func newer(a, b EphRevision) bool {
	return b == nil || TimeDiff(a.Toc(), b.Toc()) > 0.0
}

// EphRev is a GPS/QZS/GAL/BDS ephemeris revision.
type EphRev struct{ Eph }

func (e *EphRev) Sat() int                           { return e.Eph.Sat }
func (e *EphRev) Iod() int                           { return e.Eph.Iode }
func (e *EphRev) Toc() Gtime                         { return e.Eph.Toc }
func (e *EphRev) Health() int                        { return e.Eph.Svh }
func (e *EphRev) IsNewerThan(other EphRevision) bool { return newer(e, other) }

func (e *EphRev) PosVel(t Gtime) ([6]float64, float64, bool) {
	return posVel(t, func(t Gtime, rs []float64) (float64, bool) { return Eph2Pos(t, &e.Eph, rs) })
}

// GEphRev is a GLONASS ephemeris revision, iod is tb (0-6 bit).
type GEphRev struct{ GEph }

func (e *GEphRev) Sat() int                           { return e.GEph.Sat }
func (e *GEphRev) Iod() int                           { return e.GEph.Iode }
func (e *GEphRev) Toc() Gtime                         { return e.GEph.Toe }
func (e *GEphRev) Health() int                        { return e.GEph.Svh }
func (e *GEphRev) IsNewerThan(other EphRevision) bool { return newer(e, other) }

func (e *GEphRev) PosVel(t Gtime) ([6]float64, float64, bool) {
	return posVel(t, func(t Gtime, rs []float64) (float64, bool) { return GEph2Pos(t, &e.GEph, rs) })
}

// SEphRev is a SBAS ephemeris revision.
type SEphRev struct{ SEph }

func (e *SEphRev) Sat() int                           { return e.SEph.Sat }
func (e *SEphRev) Iod() int                           { return e.SEph.Iodn }
func (e *SEphRev) Toc() Gtime                         { return e.SEph.T0 }
func (e *SEphRev) Health() int                        { return e.SEph.Svh }
func (e *SEphRev) IsNewerThan(other EphRevision) bool { return newer(e, other) }

func (e *SEphRev) PosVel(t Gtime) ([6]float64, float64, bool) {
	return posVel(t, func(t Gtime, rs []float64) (float64, bool) { return SEph2Pos(t, &e.SEph, rs), true })
}

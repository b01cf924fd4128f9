/*------------------------------------------------------------------------------
* types.go : ssrgo constants and data types
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
 */
package ssrgo

import "errors"

// basic gnss constants
const (
	PI       float64 = 3.1415926535897932    /* pi */
	D2R              = (PI / 180.0)          /* deg to rad */
	R2D              = (180.0 / PI)          /* rad to deg */
	CLIGHT   float64 = 299792458.0           /* speed of light (m/s) */
	SC2RAD   float64 = 3.1415926535898       /* semi-circle to radian (IS-GPS) */
	OMGE     float64 = 7.2921151467e-5       /* earth angular velocity (IS-GPS) (rad/s) */
	RE_WGS84 float64 = 6378137.0             /* earth semimajor axis (WGS84) (m) */
	FE_WGS84 float64 = (1.0 / 298.257223563) /* earth flattening (WGS84) */
)

const (
	SYS_NONE = 0x00 /* navigation system: none */
	SYS_GPS  = 0x01 /* navigation system: GPS */
	SYS_SBS  = 0x02 /* navigation system: SBAS */
	SYS_GLO  = 0x04 /* navigation system: GLONASS */
	SYS_GAL  = 0x08 /* navigation system: Galileo */
	SYS_QZS  = 0x10 /* navigation system: QZSS */
	SYS_CMP  = 0x20 /* navigation system: BeiDou */
	SYS_IRN  = 0x40 /* navigation system: IRNS */
	SYS_ALL  = 0xFF /* navigation system: all */
)

const (
	MINPRNGPS = 1                           /* min satellite PRN number of GPS */
	MAXPRNGPS = 32                          /* max satellite PRN number of GPS */
	NSATGPS   = (MAXPRNGPS - MINPRNGPS + 1) /* number of GPS satellites */
	MINPRNGLO = 1                           /* min satellite slot number of GLONASS */
	MAXPRNGLO = 27                          /* max satellite slot number of GLONASS */
	NSATGLO   = (MAXPRNGLO - MINPRNGLO + 1) /* number of GLONASS satellites */
	MINPRNGAL = 1                           /* min satellite PRN number of Galileo */
	MAXPRNGAL = 36                          /* max satellite PRN number of Galileo */
	NSATGAL   = (MAXPRNGAL - MINPRNGAL + 1) /* number of Galileo satellites */
	MINPRNQZS = 193                         /* min satellite PRN number of QZSS */
	MAXPRNQZS = 202                         /* max satellite PRN number of QZSS */
	NSATQZS   = (MAXPRNQZS - MINPRNQZS + 1) /* number of QZSS satellites */
	MINPRNCMP = 1                           /* min satellite sat number of BeiDou */
	MAXPRNCMP = 63                          /* max satellite sat number of BeiDou */
	NSATCMP   = (MAXPRNCMP - MINPRNCMP + 1) /* number of BeiDou satellites */
	MINPRNIRN = 1                           /* min satellite sat number of IRNSS */
	MAXPRNIRN = 14                          /* max satellite sat number of IRNSS */
	NSATIRN   = (MAXPRNIRN - MINPRNIRN + 1) /* number of IRNSS satellites */
	MINPRNSBS = 120                         /* min satellite PRN number of SBAS */
	MAXPRNSBS = 158                         /* max satellite PRN number of SBAS */
	NSATSBS   = MAXPRNSBS - MINPRNSBS + 1   /* number of SBAS satellites */
	MAXSAT    = NSATGPS + NSATGLO + NSATGAL + NSATQZS + NSATCMP + NSATIRN + NSATSBS
	MAXLEAPS  = 64 /* max number of leap seconds table */
)

const (
	RTCM3PREAMB = 0xD3 /* rtcm ver.3 frame preamble */
	MAXAGECORR  = 120.0 /* max age of orbit/clock correction for positioning (s) */
	MAXDELTAORB = 20.0  /* max extrapolated orbit correction (m) */
	MAXITERTOT  = 10    /* max iterations of time of transmission */
	MINRADIUS   = 2e7   /* min plausible orbit radius (m) */
	MAXRADIUS   = 6e7   /* max plausible orbit radius (m) */
	MAXDPOSEPH  = 1000.0 /* max position difference of ephemerides with same toc (m) */
)

const (
	P2_5  = 0.03125               /* 2^-5 */
	P2_11 = 4.882812500000000e-04 /* 2^-11 */
	P2_19 = 1.907348632812500e-06 /* 2^-19 */
	P2_20 = 9.536743164062500e-07 /* 2^-20 */
	P2_29 = 1.862645149230957e-09 /* 2^-29 */
	P2_30 = 9.313225746154785e-10 /* 2^-30 */
	P2_31 = 4.656612873077393e-10 /* 2^-31 */
	P2_33 = 1.164153218269348e-10 /* 2^-33 */
	P2_40 = 9.094947017729280e-13 /* 2^-40 */
	P2_43 = 1.136868377216160e-13 /* 2^-43 */
	P2_55 = 2.775557561562891e-17 /* 2^-55 */
)

// resolver errors
var (
	ErrEphUnavailable    = errors.New("no ephemeris matching correction iod")
	ErrCorrStale         = errors.New("orbit correction out of range")
	ErrToTNonConvergence = errors.New("time of transmission not converged")
)

type Gtime struct {
	Time uint64 /* time (s) expressed by standard time_t */

	Sec float64 /* fraction of second under 1 s */
}

type Eph struct { /* GPS/QZS/GAL/BDS broadcast ephemeris type */
	Sat        int /* satellite number */
	Iode, Iodc int /* IODE,IODC */
	Sva        int /* SV accuracy (URA index) */
	Svh        int /* SV health (0:ok) */
	Week       int /* GPS/QZS: gps week, GAL: galileo week */
	Code       int /* GPS/QZS: code on L2 */
	Flag       int /* GPS/QZS: L2 P data flag, BDS: nav type */

	Toe, Toc, Ttr Gtime /* Toe,Toc,T_trans */
	/* SV orbit parameters */
	A, E, I0, OMG0, Omg, M0, Deln, OMGd, Idot float64
	Crc, Crs, Cuc, Cus, Cic, Cis              float64
	Toes                                      float64    /* Toe (s) in week */
	Fit                                       float64    /* fit interval (h) */
	F0, F1, F2                                float64    /* SV clock parameters (af0,af1,af2) */
	Tgd                                       [2]float64 /* group delay parameters */
}

type GEph struct { /* GLONASS broadcast ephemeris type */
	Sat           int        /* satellite number */
	Iode          int        /* IODE (0-6 bit of tb field) */
	Frq           int        /* satellite frequency number */
	Svh, Sva, Age int        /* satellite health, accuracy, age of operation */
	Toe           Gtime      /* epoch of epherides (gpst) */
	Tof           Gtime      /* message frame time (gpst) */
	Pos           [3]float64 /* satellite position (ecef) (m) */
	Vel           [3]float64 /* satellite velocity (ecef) (m/s) */
	Acc           [3]float64 /* satellite acceleration (ecef) (m/s^2) */
	Taun, Gamn    float64    /* SV clock bias (s)/relative freq bias */
	DTaun         float64    /* delay between L1 and L2 (s) */
}

type SEph struct { /* SBAS ephemeris type */
	Sat      int        /* satellite number */
	T0       Gtime      /* reference epoch time (GPST) */
	Tof      Gtime      /* time of message frame (GPST) */
	Sva      int        /* SV accuracy (URA index) */
	Svh      int        /* SV health (0:ok) */
	Iodn     int        /* issue of data navigation */
	Pos      [3]float64 /* satellite position (m) (ecef) */
	Vel      [3]float64 /* satellite velocity (m/s) (ecef) */
	Acc      [3]float64 /* satellite acceleration (m/s^2) (ecef) */
	Af0, Af1 float64    /* satellite clock-offset/drift (s,s/s) */
}

// EphRevision is one broadcast navigation message of one satellite.
// The store and the resolver only use this interface.
type EphRevision interface {
	Sat() int
	Iod() int
	Toc() Gtime
	Health() int
	IsNewerThan(other EphRevision) bool
	PosVel(t Gtime) (rs [6]float64, dts float64, ok bool)
}

type OrbitCorr struct { /* ssr orbit correction */
	Sat      int        /* satellite number */
	Iod      int        /* issue of data of the ephemeris */
	Udi      int        /* update interval index */
	Time     Gtime      /* epoch time (gpst) */
	Deph     [3]float64 /* radial/along/cross (m) */
	Ddeph    [3]float64 /* dot radial/along/cross (m/s) */
	Dddeph   [3]float64 /* dot dot radial/along/cross (m/s^2) */
	RefPoint int        /* satellite reference point (0:com,1:apc) */
	RefDatum int        /* satellite reference datum (0:itrf,1:regional) */
}

type ClockCorr struct { /* ssr clock correction */
	Sat   int        /* satellite number */
	Iod   int        /* issue of data of the ephemeris (-1:unknown) */
	Udi   int        /* update interval index */
	Time  Gtime      /* epoch time (gpst) */
	Dclk  [3]float64 /* clock polynomial (s,s/s,s/s^2) */
	HrClk float64    /* high-rate clock term (s) */
}

type CodeBias struct { /* ssr code biases */
	Sat   int       /* satellite number */
	Udi   int       /* update interval index */
	Time  Gtime     /* epoch time (gpst) */
	Types []int     /* signal type indicators */
	Bias  []float64 /* code biases (m) */
}

type UraCorr struct { /* ssr user range accuracy */
	Sat  int   /* satellite number */
	Time Gtime /* epoch time (gpst) */
	Ura  int   /* ura index */
}

// SsrBatch holds the records of one decoded frame.
type SsrBatch struct {
	MsgType  int       /* rtcm message type */
	Sys      int       /* navigation system of the records (SYS_NONE:no ssr epoch) */
	EpochSec float64   /* raw epoch: gps seconds of week or glonass seconds of day */
	Udi      int       /* update interval index */
	Mmi      int       /* multiple message indicator */
	Orbits   []OrbitCorr
	Clocks   []ClockCorr
	Biases   []CodeBias
	Uras     []UraCorr
	Ephs     []EphRevision /* broadcast ephemerides (1019/1020) */
	Nbyte    int           /* frame length (bytes) */
}

// Corr is the merged orbit and clock correction of one satellite.
type Corr struct {
	Sat       int
	Iod       int
	Time      Gtime      /* reference epoch (gpst) */
	Udi       int        /* update interval index */
	Rao       [3]float64 /* radial/along/cross (m) */
	DotRao    [3]float64 /* (m/s) */
	DotDotRao [3]float64 /* (m/s^2) */
	Dclk      [3]float64 /* (s,s/s,s/s^2) */
	HrClk     float64    /* (s) */
	RaoSet    bool
	DClkSet   bool
}

// SatState is a corrected satellite state.
type SatState struct {
	Rs   [6]float64 /* position/velocity (ecef) (m|m/s) */
	Dts  float64    /* clock bias (s) */
	Eph  EphRevision
	Corr *Corr /* nil: broadcast only */
}

type Opt struct { /* option type */
	Name      string   /* option name */
	Format    byte     /* option format (0:int,1:float64,2:string,3:enum) */
	VarInt    *int     /* pointer to option variable */
	VarFloat  *float64 /* pointer to option variable */
	VarString *string  /* pointer to option variable */
	Comment   string   /* option comment/enum labels/unit */
}

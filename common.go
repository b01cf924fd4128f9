/*------------------------------------------------------------------------------
* common.go : time, bit field, crc and satellite number functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] IS-GPS-200D, Navstar GPS Space Segment/Navigation User Interfaces,
*         7 March, 2006
*     [2] RTCA/DO-229C, Minimum operational performance standards for global
*         positioning system/wide area augmentation system airborne equipment,
*         November 28, 2001
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

func SQR(x float64) float64 {
	return x * x
}

func ROUND_I(x float64) int    { return int(math.Floor(x + 0.5)) }
func ROUND_U(x float64) uint32 { return uint32(math.Floor(x + 0.5)) }

var tbl_CRC24Q = [256]uint32{
	0x000000, 0x864CFB, 0x8AD50D, 0x0C99F6, 0x93E6E1, 0x15AA1A, 0x1933EC, 0x9F7F17,
	0xA18139, 0x27CDC2, 0x2B5434, 0xAD18CF, 0x3267D8, 0xB42B23, 0xB8B2D5, 0x3EFE2E,
	0xC54E89, 0x430272, 0x4F9B84, 0xC9D77F, 0x56A868, 0xD0E493, 0xDC7D65, 0x5A319E,
	0x64CFB0, 0xE2834B, 0xEE1ABD, 0x685646, 0xF72951, 0x7165AA, 0x7DFC5C, 0xFBB0A7,
	0x0CD1E9, 0x8A9D12, 0x8604E4, 0x00481F, 0x9F3708, 0x197BF3, 0x15E205, 0x93AEFE,
	0xAD50D0, 0x2B1C2B, 0x2785DD, 0xA1C926, 0x3EB631, 0xB8FACA, 0xB4633C, 0x322FC7,
	0xC99F60, 0x4FD39B, 0x434A6D, 0xC50696, 0x5A7981, 0xDC357A, 0xD0AC8C, 0x56E077,
	0x681E59, 0xEE52A2, 0xE2CB54, 0x6487AF, 0xFBF8B8, 0x7DB443, 0x712DB5, 0xF7614E,
	0x19A3D2, 0x9FEF29, 0x9376DF, 0x153A24, 0x8A4533, 0x0C09C8, 0x00903E, 0x86DCC5,
	0xB822EB, 0x3E6E10, 0x32F7E6, 0xB4BB1D, 0x2BC40A, 0xAD88F1, 0xA11107, 0x275DFC,
	0xDCED5B, 0x5AA1A0, 0x563856, 0xD074AD, 0x4F0BBA, 0xC94741, 0xC5DEB7, 0x43924C,
	0x7D6C62, 0xFB2099, 0xF7B96F, 0x71F594, 0xEE8A83, 0x68C678, 0x645F8E, 0xE21375,
	0x15723B, 0x933EC0, 0x9FA736, 0x19EBCD, 0x8694DA, 0x00D821, 0x0C41D7, 0x8A0D2C,
	0xB4F302, 0x32BFF9, 0x3E260F, 0xB86AF4, 0x2715E3, 0xA15918, 0xADC0EE, 0x2B8C15,
	0xD03CB2, 0x567049, 0x5AE9BF, 0xDCA544, 0x43DA53, 0xC596A8, 0xC90F5E, 0x4F43A5,
	0x71BD8B, 0xF7F170, 0xFB6886, 0x7D247D, 0xE25B6A, 0x641791, 0x688E67, 0xEEC29C,
	0x3347A4, 0xB50B5F, 0xB992A9, 0x3FDE52, 0xA0A145, 0x26EDBE, 0x2A7448, 0xAC38B3,
	0x92C69D, 0x148A66, 0x181390, 0x9E5F6B, 0x01207C, 0x876C87, 0x8BF571, 0x0DB98A,
	0xF6092D, 0x7045D6, 0x7CDC20, 0xFA90DB, 0x65EFCC, 0xE3A337, 0xEF3AC1, 0x69763A,
	0x578814, 0xD1C4EF, 0xDD5D19, 0x5B11E2, 0xC46EF5, 0x42220E, 0x4EBBF8, 0xC8F703,
	0x3F964D, 0xB9DAB6, 0xB54340, 0x330FBB, 0xAC70AC, 0x2A3C57, 0x26A5A1, 0xA0E95A,
	0x9E1774, 0x185B8F, 0x14C279, 0x928E82, 0x0DF195, 0x8BBD6E, 0x872498, 0x016863,
	0xFAD8C4, 0x7C943F, 0x700DC9, 0xF64132, 0x693E25, 0xEF72DE, 0xE3EB28, 0x65A7D3,
	0x5B59FD, 0xDD1506, 0xD18CF0, 0x57C00B, 0xC8BF1C, 0x4EF3E7, 0x426A11, 0xC426EA,
	0x2AE476, 0xACA88D, 0xA0317B, 0x267D80, 0xB90297, 0x3F4E6C, 0x33D79A, 0xB59B61,
	0x8B654F, 0x0D29B4, 0x01B042, 0x87FCB9, 0x1883AE, 0x9ECF55, 0x9256A3, 0x141A58,
	0xEFAAFF, 0x69E604, 0x657FF2, 0xE33309, 0x7C4C1E, 0xFA00E5, 0xF69913, 0x70D5E8,
	0x4E2BC6, 0xC8673D, 0xC4FECB, 0x42B230, 0xDDCD27, 0x5B81DC, 0x57182A, 0xD154D1,
	0x26359F, 0xA07964, 0xACE092, 0x2AAC69, 0xB5D37E, 0x339F85, 0x3F0673, 0xB94A88,
	0x87B4A6, 0x01F85D, 0x0D61AB, 0x8B2D50, 0x145247, 0x921EBC, 0x9E874A, 0x18CBB1,
	0xE37B16, 0x6537ED, 0x69AE1B, 0xEFE2E0, 0x709DF7, 0xF6D10C, 0xFA48FA, 0x7C0401,
	0x42FA2F, 0xC4B6D4, 0xC82F22, 0x4E63D9, 0xD11CCE, 0x575035, 0x5BC9C3, 0xDD8538}

var gpst0 = [6]float64{1980, 1, 6, 0, 0, 0} /* gps time reference */

/* ssr update intervals (s) (ref rtcm 10403 DF391) ---------------------------*/
var ssrudint = [16]float64{
	1, 2, 5, 10, 15, 30, 60, 120, 240, 300, 600, 900, 1800, 3600, 7200, 10800}

// SsrUdint converts an update interval index to seconds.
func SsrUdint(udi int) float64 {
	if udi < 0 || udi > 15 {
		return 0.0
	}
	return ssrudint[udi]
}

/* satellite system+prn/slot number to satellite number ------------------------
* convert satellite system+prn/slot number to satellite number
* args   : int    sys       I   satellite system (SYS_GPS,SYS_GLO,...)
*          int    prn       I   satellite prn/slot number
* return : satellite number (0:error)
*-----------------------------------------------------------------------------*/
func SatNo(sys int, prn int) int {
	if prn <= 0 {
		return 0
	}
	switch sys {
	case SYS_GPS:
		if prn < MINPRNGPS || MAXPRNGPS < prn {
			return 0
		}
		return prn - MINPRNGPS + 1
	case SYS_GLO:
		if prn < MINPRNGLO || MAXPRNGLO < prn {
			return 0
		}
		return NSATGPS + prn - MINPRNGLO + 1
	case SYS_GAL:
		if prn < MINPRNGAL || MAXPRNGAL < prn {
			return 0
		}
		return NSATGPS + NSATGLO + prn - MINPRNGAL + 1
	case SYS_QZS:
		if prn < MINPRNQZS || MAXPRNQZS < prn {
			return 0
		}
		return NSATGPS + NSATGLO + NSATGAL + prn - MINPRNQZS + 1
	case SYS_CMP:
		if prn < MINPRNCMP || MAXPRNCMP < prn {
			return 0
		}
		return NSATGPS + NSATGLO + NSATGAL + NSATQZS + prn - MINPRNCMP + 1
	case SYS_IRN:
		if prn < MINPRNIRN || MAXPRNIRN < prn {
			return 0
		}
		return NSATGPS + NSATGLO + NSATGAL + NSATQZS + NSATCMP + prn - MINPRNIRN + 1
	case SYS_SBS:
		if prn < MINPRNSBS || MAXPRNSBS < prn {
			return 0
		}
		return NSATGPS + NSATGLO + NSATGAL + NSATQZS + NSATCMP + NSATIRN + prn - MINPRNSBS + 1
	}
	return 0
}

/* satellite number to satellite system ----------------------------------------
* convert satellite number to satellite system
* args   : int    sat       I   satellite number (1-MAXSAT)
* return : satellite system (SYS_GPS,SYS_GLO,...) and prn/slot number
*-----------------------------------------------------------------------------*/
func SatSys(sat int) (sys, prn int) {
	switch {
	case sat <= 0 || MAXSAT < sat:
		return SYS_NONE, 0
	case sat <= NSATGPS:
		return SYS_GPS, sat + MINPRNGPS - 1
	}
	bases := []struct{ sys, n, min int }{
		{SYS_GLO, NSATGLO, MINPRNGLO},
		{SYS_GAL, NSATGAL, MINPRNGAL},
		{SYS_QZS, NSATQZS, MINPRNQZS},
		{SYS_CMP, NSATCMP, MINPRNCMP},
		{SYS_IRN, NSATIRN, MINPRNIRN},
		{SYS_SBS, NSATSBS, MINPRNSBS},
	}
	sat -= NSATGPS
	for _, b := range bases {
		if sat <= b.n {
			return b.sys, sat + b.min - 1
		}
		sat -= b.n
	}
	return SYS_NONE, 0
}

/* satellite id to satellite number --------------------------------------------
* convert satellite id to satellite number
* args   : string id        I   satellite id (Gnn,Rnn,Enn,Jnn,Cnn,Inn or Snn)
* return : satellite number (0: error)
*-----------------------------------------------------------------------------*/
func SatId2No(id string) int {
	var (
		code rune
		prn  int
	)
	if n, _ := fmt.Sscanf(id, "%c%d", &code, &prn); n < 2 {
		return 0
	}
	switch code {
	case 'G':
		return SatNo(SYS_GPS, prn)
	case 'R':
		return SatNo(SYS_GLO, prn)
	case 'E':
		return SatNo(SYS_GAL, prn)
	case 'J':
		return SatNo(SYS_QZS, prn+MINPRNQZS-1)
	case 'C':
		return SatNo(SYS_CMP, prn)
	case 'I':
		return SatNo(SYS_IRN, prn)
	case 'S':
		return SatNo(SYS_SBS, prn+100)
	}
	return 0
}

/* satellite number to satellite id --------------------------------------------
* convert satellite number to satellite id
* args   : int    sat       I   satellite number
* return : satellite id (Gnn,Rnn,Enn,Jnn,Cnn,Inn or Snn), "" on error
*-----------------------------------------------------------------------------*/
func SatNo2Id(sat int) string {
	sys, prn := SatSys(sat)
	switch sys {
	case SYS_GPS:
		return fmt.Sprintf("G%02d", prn)
	case SYS_GLO:
		return fmt.Sprintf("R%02d", prn)
	case SYS_GAL:
		return fmt.Sprintf("E%02d", prn)
	case SYS_QZS:
		return fmt.Sprintf("J%02d", prn-MINPRNQZS+1)
	case SYS_CMP:
		return fmt.Sprintf("C%02d", prn)
	case SYS_IRN:
		return fmt.Sprintf("I%02d", prn)
	case SYS_SBS:
		return fmt.Sprintf("S%02d", prn-100)
	}
	return ""
}

/* extract unsigned/signed bits ------------------------------------------------
* extract unsigned/signed bits from byte data
* args   : uint8_t *buff    I   byte data
*          int    pos       I   bit position from start of data (bits)
*          int    len       I   bit length (bits) (len<=32)
* return : extracted unsigned/signed bits
*-----------------------------------------------------------------------------*/
func GetBitU(buff []uint8, pos, len int) uint32 {
	var bits uint32

	for i := pos; i < pos+len; i++ {
		bits = (bits << 1) + uint32((buff[i/8]>>(7-i%8))&1)
	}
	return bits
}

func GetBits(buff []uint8, pos, len int) int32 {
	var bits = GetBitU(buff, pos, len)
	if len <= 0 || 32 <= len || bits&(1<<(len-1)) == 0 {
		return int32(bits)
	}
	return int32(bits | (math.MaxUint32 << len)) /* extend sign */
}

/* set unsigned/signed bits ----------------------------------------------------
* set unsigned/signed bits to byte data
* args   : uint8_t *buff IO byte data
*          int    pos       I   bit position from start of data (bits)
*          int    len       I   bit length (bits) (len<=32)
*          [u]int32_t data  I   unsigned/signed data
* return : none
*-----------------------------------------------------------------------------*/
func SetBitU(buff []uint8, pos, len int, data uint32) {
	if len <= 0 || 32 < len {
		return
	}
	var mask uint32 = 1 << (len - 1)
	for i := pos; i < pos+len; i, mask = i+1, mask>>1 {
		if data&mask > 0 {
			buff[i/8] |= 1 << (7 - i%8)
		} else {
			buff[i/8] &= ^(1 << (7 - i%8))
		}
	}
}

func SetBits(buff []uint8, pos, len int, data int32) {
	if data < 0 {
		data |= 1 << (len - 1)
	} else {
		data &= ^(1 << (len - 1)) /* set sign bit */
	}
	SetBitU(buff, pos, len, uint32(data))
}

/* get/set sign-magnitude bits -----------------------------------------------*/
func getbitg(buff []uint8, pos, len int) float64 {
	value := float64(GetBitU(buff, pos+1, len-1))
	if GetBitU(buff, pos, 1) > 0 {
		return -value
	}
	return value
}

func setbitg(buff []uint8, pos, len int, value int32) {
	if value < 0 {
		SetBitU(buff, pos, 1, 1)
		SetBitU(buff, pos+1, len-1, uint32(-value))
	} else {
		SetBitU(buff, pos, 1, 0)
		SetBitU(buff, pos+1, len-1, uint32(value))
	}
}

/* crc-24q parity --------------------------------------------------------------
* compute crc-24q parity for sbas, rtcm3
* args   : uint8_t *buff    I   data
*          int    len       I   data length (bytes)
* return : crc-24Q parity
* notes  : see reference [2] A.4.3.3 Parity
*-----------------------------------------------------------------------------*/
func Rtk_CRC24q(buff []uint8, len int) uint32 {
	var crc uint32 = 0
	for i := 0; i < len; i++ {
		crc = ((crc << 8) & 0xFFFFFF) ^ tbl_CRC24Q[(crc>>16)^uint32(buff[i])]
	}
	return crc
}

/* vector functions ----------------------------------------------------------*/
func Dot(a, b []float64, n int) float64 {
	c := 0.0
	for n--; n >= 0; n-- {
		c += a[n] * b[n]
	}
	return c
}

func Norm(a []float64, n int) float64 {
	return math.Sqrt(Dot(a, a, n))
}

/* outer product of 3d vectors (c = a x b) -----------------------------------*/
func Cross3(a, b, c []float64) {
	c[0] = a[1]*b[2] - a[2]*b[1]
	c[1] = a[2]*b[0] - a[0]*b[2]
	c[2] = a[0]*b[1] - a[1]*b[0]
}

/* normalize 3d vector (return false on zero length) -------------------------*/
func NormV3(a, b []float64) bool {
	r := Norm(a, 3)
	if r <= 0.0 {
		return false
	}
	b[0] = a[0] / r
	b[1] = a[1] / r
	b[2] = a[2] / r
	return true
}

/* convert calendar day/time to time -------------------------------------------
* convert calendar day/time to gtime_t struct
* args   : double *ep       I   day/time {year,month,day,hour,min,sec}
* return : gtime_t struct
* notes  : proper in 1970-2099
*-----------------------------------------------------------------------------*/
func Epoch2Time(ep []float64) Gtime {
	var (
		doy            = [12]int{1, 32, 60, 91, 121, 152, 182, 213, 244, 274, 305, 335}
		days, sec      int
		year, mon, day = int(ep[0]), int(ep[1]), int(ep[2])
	)

	if year < 1970 || 2099 < year || mon < 1 || 12 < mon {
		return Gtime{}
	}
	/* leap year if year%4==0 in 1901-2099 */
	days = (year-1970)*365 + (year-1969)/4 + doy[mon-1] + day - 2
	if year%4 == 0 && mon >= 3 {
		days++
	}
	sec = int(math.Floor(ep[5]))
	return Gtime{
		Time: uint64(days*86400 + int(ep[3])*3600 + int(ep[4])*60 + sec),
		Sec:  ep[5] - float64(sec),
	}
}

/* time to calendar day/time ---------------------------------------------------
* convert gtime_t struct to calendar day/time
* args   : gtime_t t        I   gtime_t struct
*          double *ep       O   day/time {year,month,day,hour,min,sec}
* return : none
*-----------------------------------------------------------------------------*/
func Time2Epoch(t Gtime, ep []float64) {
	var mday = [48]int{ /* # of days in a month */
		31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31,
		31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
	var mon int

	days := int(t.Time / 86400)
	sec := int(t.Time - uint64(days*86400))
	day := days % 1461
	for ; mon < 48; mon++ {
		if day < mday[mon] {
			break
		}
		day -= mday[mon]
	}
	ep[0] = float64(1970 + days/1461*4 + mon/12)
	ep[1] = float64(mon%12 + 1)
	ep[2] = float64(day + 1)
	ep[3] = float64(sec / 3600)
	ep[4] = float64(sec % 3600 / 60)
	ep[5] = float64(sec%60) + t.Sec
}

/* gps time to time ------------------------------------------------------------
* convert week and tow in gps time to gtime_t struct
* args   : int    week      I   week number in gps time
*          double sec       I   time of week in gps time (s)
* return : gtime_t struct
*-----------------------------------------------------------------------------*/
func GpsT2Time(week int, sec float64) Gtime {
	t := Epoch2Time(gpst0[:])

	if sec < -1e9 || 1e9 < sec {
		sec = 0.0
	}
	return TimeAdd(t, float64(86400*7*week)+sec)
}

/* time to gps time ------------------------------------------------------------
* convert gtime_t struct to week and tow in gps time
* args   : gtime_t t        I   gtime_t struct
* return : time of week in gps time (s), week number in gps time
*-----------------------------------------------------------------------------*/
func Time2GpsT(t Gtime) (float64, int) {
	t0 := Epoch2Time(gpst0[:])
	sec := t.Time - t0.Time
	w := int(sec / (86400 * 7))

	return float64(sec) - float64(w*86400*7) + t.Sec, w
}

/* add time --------------------------------------------------------------------
* add time to gtime_t struct
* args   : gtime_t t        I   gtime_t struct
*          double sec       I   time to add (s)
* return : gtime_t struct (t+sec)
*-----------------------------------------------------------------------------*/
func TimeAdd(t Gtime, sec float64) Gtime {
	t.Sec += sec
	tt := math.Floor(t.Sec)
	t.Time = uint64(int64(t.Time) + int64(tt))
	t.Sec -= tt
	return t
}

/* time difference (t1-t2) (s) -----------------------------------------------*/
func TimeDiff(t1 Gtime, t2 Gtime) float64 {
	return float64(t1.Time) - float64(t2.Time) + t1.Sec - t2.Sec
}

/* get current time in utc ---------------------------------------------------*/
var (
	timeoffset float64 = 0.0 /* time offset (s) */
	timeLock   sync.Mutex
)

func TimeGet() Gtime {
	timeLock.Lock()
	defer timeLock.Unlock()

	ts := time.Now().UTC()
	ep := []float64{float64(ts.Year()), float64(ts.Month()), float64(ts.Day()),
		float64(ts.Hour()), float64(ts.Minute()),
		float64(ts.Second()) + float64(ts.Nanosecond())*1e-9}

	return TimeAdd(Epoch2Time(ep), timeoffset)
}

/* set current time in utc ---------------------------------------------------
* notes  : just set time offset between cpu time and current time
*          the time offset is reflected to only TimeGet(), so decoders and
*          aggregators on the default clock follow it (stream replays)
*---------------------------------------------------------------------------*/
func TimeSet(t Gtime) {
	d := TimeDiff(t, TimeGet())
	timeLock.Lock()
	timeoffset += d
	timeLock.Unlock()
}

func TimeReset() {
	timeLock.Lock()
	timeoffset = 0.0
	timeLock.Unlock()
}

var leaps = [MAXLEAPS + 1][7]float64{ /* leap seconds (y,m,d,h,m,s,utc-gpst) */
	{2017, 1, 1, 0, 0, 0, -18},
	{2015, 7, 1, 0, 0, 0, -17},
	{2012, 7, 1, 0, 0, 0, -16},
	{2009, 1, 1, 0, 0, 0, -15},
	{2006, 1, 1, 0, 0, 0, -14},
	{1999, 1, 1, 0, 0, 0, -13},
	{1997, 7, 1, 0, 0, 0, -12},
	{1996, 1, 1, 0, 0, 0, -11},
	{1994, 7, 1, 0, 0, 0, -10},
	{1993, 7, 1, 0, 0, 0, -9},
	{1992, 7, 1, 0, 0, 0, -8},
	{1991, 1, 1, 0, 0, 0, -7},
	{1990, 1, 1, 0, 0, 0, -6},
	{1988, 1, 1, 0, 0, 0, -5},
	{1985, 7, 1, 0, 0, 0, -4},
	{1983, 7, 1, 0, 0, 0, -3},
	{1982, 7, 1, 0, 0, 0, -2},
	{1981, 7, 1, 0, 0, 0, -1},
}

/* gpstime to utc --------------------------------------------------------------
* convert gpstime to utc considering leap seconds
* args   : gtime_t t        I   time expressed in gpstime
* return : time expressed in utc
* notes  : ignore slight time offset under 100 ns
*-----------------------------------------------------------------------------*/
func GpsT2Utc(t Gtime) Gtime {
	for i := 0; leaps[i][0] > 0; i++ {
		tu := TimeAdd(t, leaps[i][6])
		if TimeDiff(tu, Epoch2Time(leaps[i][:])) >= 0.0 {
			return tu
		}
	}
	return t
}

/* utc to gpstime --------------------------------------------------------------
* convert utc to gpstime considering leap seconds
* args   : gtime_t t        I   time expressed in utc
* return : time expressed in gpstime
*-----------------------------------------------------------------------------*/
func Utc2GpsT(t Gtime) Gtime {
	for i := 0; leaps[i][0] > 0; i++ {
		if TimeDiff(t, Epoch2Time(leaps[i][:])) >= 0.0 {
			return TimeAdd(t, -leaps[i][6])
		}
	}
	return t
}

/* leap seconds gpst-utc at gpst (s) -----------------------------------------*/
func LeapSec(t Gtime) float64 {
	return TimeDiff(t, GpsT2Utc(t))
}

/* time to string --------------------------------------------------------------
* convert gtime_t struct to string
* args   : gtime_t t        I   gtime_t struct
*          int    n         I   number of decimals
* return : string ("yyyy/mm/dd hh:mm:ss.ssss")
*-----------------------------------------------------------------------------*/
func TimeStr(t Gtime, n int) string {
	var ep [6]float64

	if n < 0 {
		n = 0
	} else if n > 12 {
		n = 12
	}
	if 1.0-t.Sec < 0.5/math.Pow(10.0, float64(n)) {
		t.Time++
		t.Sec = 0.0
	}
	Time2Epoch(t, ep[:])
	n1 := 2
	if n > 0 {
		n1 = n + 3
	}
	return fmt.Sprintf("%04.0f/%02.0f/%02.0f %02.0f:%02.0f:%0*.*f", ep[0], ep[1], ep[2],
		ep[3], ep[4], n1, n, ep[5])
}

/* string to time --------------------------------------------------------------
* convert time string "y/m/d h:m:s" to gtime
* args   : string s         I   time string (separators / : - or space)
* return : time, error
* notes  : a two digit year is 1980-2079
*-----------------------------------------------------------------------------*/
func Str2Time(s string) (Gtime, error) {
	var ep [6]float64

	f := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ':' || r == '-' || r == ' ' || r == 'T'
	})
	if len(f) != 6 {
		return Gtime{}, fmt.Errorf("time string: %q", s)
	}
	for i := range f {
		v, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return Gtime{}, fmt.Errorf("time string: %q: %w", s, err)
		}
		ep[i] = v
	}
	if ep[0] < 100.0 {
		if ep[0] < 80.0 {
			ep[0] += 2000.0
		} else {
			ep[0] += 1900.0
		}
	}
	return Epoch2Time(ep[:]), nil
}

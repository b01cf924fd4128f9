/*------------------------------------------------------------------------------
* ssrdec.go : rtcm ver.3 ssr frame decoder
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* references :
*     [1] RTCM Standard 10403.1 - Amendment 5, Differential GNSS (Global
*         Navigation Satellite Systems) Services - version 3, July 1, 2011
*     [2] RTCM Paper 142-2009-SC104-7, Proposed SSR Messages for SC-104
*
* notes  : the decoder owns a byte buffer filled by arbitrary fragments of
*          the stream. every call of Decode makes one extraction attempt.
*          a frame is parsed into a new batch and the decoder state (orbit
*          iod, last clock per satellite, counters) is changed only when the
*          whole frame was parsed.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
)

/* ssr message kinds ---------------------------------------------------------*/
const (
	SSR_ORBIT    = iota + 1 /* orbit corrections */
	SSR_CLOCK               /* clock corrections */
	SSR_BIAS                /* code biases */
	SSR_COMBINED            /* combined orbit and clock corrections */
	SSR_URA                 /* user range accuracy */
	SSR_HRCLOCK             /* high-rate clock corrections */
)

type ssrMsg struct {
	sys, kind int
}

/* supported ssr message types ------------------------------------------------
* 4050-4057: bns numbering, 3001-3012: proposed ssr numbering,
* 1057-1068: final rtcm numbering
*-----------------------------------------------------------------------------*/
var ssrMsgTbl = map[int]ssrMsg{
	4050: {SYS_GPS, SSR_ORBIT}, 4051: {SYS_GPS, SSR_CLOCK}, 4052: {SYS_GPS, SSR_BIAS},
	4053: {SYS_GLO, SSR_ORBIT}, 4054: {SYS_GLO, SSR_CLOCK}, 4055: {SYS_GLO, SSR_BIAS},
	4056: {SYS_GPS, SSR_COMBINED}, 4057: {SYS_GLO, SSR_COMBINED},

	3001: {SYS_GPS, SSR_ORBIT}, 3002: {SYS_GPS, SSR_CLOCK}, 3003: {SYS_GPS, SSR_BIAS},
	3004: {SYS_GPS, SSR_COMBINED}, 3005: {SYS_GPS, SSR_URA}, 3006: {SYS_GPS, SSR_HRCLOCK},
	3007: {SYS_GLO, SSR_ORBIT}, 3008: {SYS_GLO, SSR_CLOCK}, 3009: {SYS_GLO, SSR_BIAS},
	3010: {SYS_GLO, SSR_COMBINED}, 3011: {SYS_GLO, SSR_URA}, 3012: {SYS_GLO, SSR_HRCLOCK},

	1057: {SYS_GPS, SSR_ORBIT}, 1058: {SYS_GPS, SSR_CLOCK}, 1059: {SYS_GPS, SSR_BIAS},
	1060: {SYS_GPS, SSR_COMBINED}, 1061: {SYS_GPS, SSR_URA}, 1062: {SYS_GPS, SSR_HRCLOCK},
	1063: {SYS_GLO, SSR_ORBIT}, 1064: {SYS_GLO, SSR_CLOCK}, 1065: {SYS_GLO, SSR_BIAS},
	1066: {SYS_GLO, SSR_COMBINED}, 1067: {SYS_GLO, SSR_URA}, 1068: {SYS_GLO, SSR_HRCLOCK},
}

// SsrMsgInfo returns the navigation system and message kind of a ssr
// message type.
func SsrMsgInfo(msgType int) (sys, kind int, ok bool) {
	m, ok := ssrMsgTbl[msgType]
	return m.sys, m.kind, ok
}

type DecodeStatus int

const (
	NeedMoreData    DecodeStatus = iota /* buffer holds no complete frame */
	Resynchronizing                     /* N bytes discarded */
	Decoded                             /* one frame decoded into Batch */
)

func (s DecodeStatus) String() string {
	switch s {
	case NeedMoreData:
		return "NeedMoreData"
	case Resynchronizing:
		return "Resynchronizing"
	case Decoded:
		return "Decoded"
	}
	return fmt.Sprintf("DecodeStatus(%d)", int(s))
}

// DecodeOutcome is the result of one extraction attempt.
type DecodeOutcome struct {
	Status DecodeStatus
	Batch  *SsrBatch /* Decoded only */
	N      int       /* bytes removed from the buffer */
}

type DecodeStats struct {
	SkippedBytes int /* bytes discarded while resynchronizing */
	Frames       int /* decoded frames */
	CrcErrors    int /* frames with parity error */
	UnknownTypes int /* crc-valid frames of unsupported type or bad payload */
	DroppedHr    int /* high-rate clocks without base clock */
}

type SsrDecoder struct {
	Name    string
	Now     func() Gtime /* reference time for ephemeris week/day (gpst) */
	buff    []uint8
	iods    map[int]int       /* committed orbit iod per satellite */
	lastClk map[int]ClockCorr /* last standard clock per satellite */
	udi     int               /* last update interval index (-1: none) */
	stats   DecodeStats
}

/* frame parse attempt: changes are applied to the decoder on commit ---------*/
type ssrAttempt struct {
	batch   *SsrBatch
	iods    map[int]int
	lastClk map[int]ClockCorr
	dropped int
}

func NewSsrDecoder(name string) *SsrDecoder {
	return &SsrDecoder{
		Name:    name,
		iods:    make(map[int]int),
		lastClk: make(map[int]ClockCorr),
		udi:     -1,
		Now:     func() Gtime { return Utc2GpsT(TimeGet()) },
	}
}

func (dec *SsrDecoder) Stats() DecodeStats {
	return dec.stats
}

// Buffered returns the number of bytes waiting in the buffer.
func (dec *SsrDecoder) Buffered() int {
	return len(dec.buff)
}

func (dec *SsrDecoder) skip(n int) DecodeOutcome {
	dec.buff = dec.buff[n:]
	dec.stats.SkippedBytes += n
	return DecodeOutcome{Status: Resynchronizing, N: n}
}

/* decode one frame ------------------------------------------------------------
* append data to the buffer and try to extract one rtcm3 frame
* args   : []uint8 data     I   new stream bytes (nil: none)
* return : outcome of the attempt
* notes  : rtcm ver.3 frame
*            +----------+--------+-----------+--------------------+----------+
*            | preamble | 000000 |  length   |    data message    |  parity  |
*            +----------+--------+-----------+--------------------+----------+
*            |<-- 8 --->|<- 6 -->|<-- 10 --->|<--- length x 8 --->|<-- 24 -->|
*-----------------------------------------------------------------------------*/
func (dec *SsrDecoder) Decode(data []uint8) DecodeOutcome {
	dec.buff = append(dec.buff, data...)

	if len(dec.buff) == 0 {
		return DecodeOutcome{Status: NeedMoreData}
	}
	/* synchronize frame */
	if dec.buff[0] != RTCM3PREAMB {
		return dec.skip(1)
	}
	if len(dec.buff) < 3 {
		return DecodeOutcome{Status: NeedMoreData}
	}
	if GetBitU(dec.buff, 8, 6) != 0 {
		Trace(4, "rtcm3 reserved bits not zero: %s\n", dec.Name)
		return dec.skip(1)
	}
	msglen := int(GetBitU(dec.buff, 14, 10)) + 3 /* length without parity */
	if len(dec.buff) < msglen+3 {
		return DecodeOutcome{Status: NeedMoreData}
	}
	/* check parity */
	if Rtk_CRC24q(dec.buff, msglen) != GetBitU(dec.buff, msglen*8, 24) {
		Trace(2, "rtcm3 parity error: %s len=%d\n", dec.Name, msglen)
		Traceb(5, dec.buff[:msglen+3])
		dec.stats.CrcErrors++
		return dec.skip(1)
	}
	frame := dec.buff[:msglen+3]

	att, err := dec.parseFrame(frame[:msglen])
	if err != nil {
		Trace(2, "rtcm3 frame discarded: %s %v\n", dec.Name, err)
		dec.stats.UnknownTypes++
		return dec.skip(len(frame))
	}
	dec.commit(att)
	dec.buff = dec.buff[len(frame):]
	att.batch.Nbyte = len(frame)
	return DecodeOutcome{Status: Decoded, Batch: att.batch, N: len(frame)}
}

/* decode all complete frames in the buffer ----------------------------------*/
func (dec *SsrDecoder) Feed(data []uint8) []*SsrBatch {
	var batches []*SsrBatch

	out := dec.Decode(data)
	for {
		switch out.Status {
		case NeedMoreData:
			return batches
		case Decoded:
			batches = append(batches, out.Batch)
		}
		if len(dec.buff) == 0 {
			return batches
		}
		out = dec.Decode(nil)
	}
}

func (dec *SsrDecoder) commit(att *ssrAttempt) {
	for sat, iod := range att.iods {
		dec.iods[sat] = iod
	}
	for sat, c := range att.lastClk {
		dec.lastClk[sat] = c
	}
	b := att.batch
	if b.Sys != SYS_NONE && b.Udi != dec.udi && SsrMsgHasUdi(b.MsgType) {
		if dec.udi >= 0 {
			Trace(2, "ssr update interval changed: %s %.0fs -> %.0fs\n", dec.Name,
				SsrUdint(dec.udi), SsrUdint(b.Udi))
		}
		dec.udi = b.Udi
	}
	dec.stats.DroppedHr += att.dropped
	dec.stats.Frames++
}

// SsrMsgHasUdi reports whether the message header carries an update interval.
func SsrMsgHasUdi(msgType int) bool {
	_, kind, ok := SsrMsgInfo(msgType)
	return ok && kind != SSR_URA
}

/* bit reader with payload length check --------------------------------------*/
type bitReader struct {
	buff  []uint8
	pos   int
	nbit  int
	short bool
}

func (r *bitReader) ok(n int) bool {
	if r.short || r.pos+n > r.nbit {
		r.short = true
		return false
	}
	return true
}

func (r *bitReader) u(n int) int {
	if !r.ok(n) {
		return 0
	}
	v := GetBitU(r.buff, r.pos, n)
	r.pos += n
	return int(v)
}

func (r *bitReader) s(n int, scale float64) float64 {
	if !r.ok(n) {
		return 0.0
	}
	v := GetBits(r.buff, r.pos, n)
	r.pos += n
	return float64(v) * scale
}

/* parse frame header+payload into a new attempt -----------------------------*/
func (dec *SsrDecoder) parseFrame(frame []uint8) (*ssrAttempt, error) {
	r := &bitReader{buff: frame, pos: 24, nbit: len(frame) * 8}
	msgType := r.u(12)
	if r.short {
		return nil, fmt.Errorf("empty payload")
	}
	att := &ssrAttempt{
		batch:   &SsrBatch{MsgType: msgType, Sys: SYS_NONE},
		iods:    make(map[int]int),
		lastClk: make(map[int]ClockCorr),
	}
	switch msgType {
	case 1019:
		eph, err := decodeType1019(frame, dec.Now())
		if err != nil {
			return nil, err
		}
		att.batch.Ephs = append(att.batch.Ephs, eph)
		return att, nil
	case 1020:
		geph, err := decodeType1020(frame, dec.Now())
		if err != nil {
			return nil, err
		}
		att.batch.Ephs = append(att.batch.Ephs, geph)
		return att, nil
	}
	sys, kind, ok := SsrMsgInfo(msgType)
	if !ok {
		return nil, fmt.Errorf("unsupported message type %d", msgType)
	}
	if err := dec.decodeSsr(r, sys, kind, att); err != nil {
		return nil, err
	}
	return att, nil
}

/* decode ssr message header and body ----------------------------------------*/
func (dec *SsrDecoder) decodeSsr(r *bitReader, sys, kind int, att *ssrAttempt) error {
	b := att.batch
	b.Sys = sys

	if sys == SYS_GLO {
		b.EpochSec = float64(r.u(17))
	} else {
		b.EpochSec = float64(r.u(20))
	}
	if kind != SSR_URA {
		b.Udi = r.u(4)
	}
	b.Mmi = r.u(1)
	r.u(5) /* reserved */
	nsat := r.u(6)
	if r.short {
		return fmt.Errorf("rtcm3 %d header length error", b.MsgType)
	}
	np := 6
	if sys == SYS_GLO {
		np = 5
	}
	Trace(5, "decode_ssr: type=%d sys=%d epoch=%.0f udi=%d mmi=%d nsat=%d\n", b.MsgType,
		sys, b.EpochSec, b.Udi, b.Mmi, nsat)

	for j := 0; j < nsat; j++ {
		prn := r.u(np)
		sat := SatNo(sys, prn)

		switch kind {
		case SSR_ORBIT:
			orb := decodeOrbit(r, sat, b.Udi)
			if sat > 0 {
				b.Orbits = append(b.Orbits, orb)
				att.iods[sat] = orb.Iod
			}
		case SSR_CLOCK:
			clk := ClockCorr{Sat: sat, Iod: -1, Udi: b.Udi}
			decodeClock(r, &clk)
			if sat > 0 {
				clk.Iod = dec.orbitIod(sat)
				b.Clocks = append(b.Clocks, clk)
				att.lastClk[sat] = clk
			}
		case SSR_COMBINED:
			orb := decodeOrbit(r, sat, b.Udi)
			clk := ClockCorr{Sat: sat, Iod: orb.Iod, Udi: b.Udi}
			decodeClock(r, &clk)
			if sat > 0 {
				b.Orbits = append(b.Orbits, orb)
				b.Clocks = append(b.Clocks, clk)
				att.iods[sat] = orb.Iod
				att.lastClk[sat] = clk
			}
		case SSR_BIAS:
			cb := CodeBias{Sat: sat, Udi: b.Udi}
			nbias := r.u(5)
			for k := 0; k < nbias && !r.short; k++ {
				cb.Types = append(cb.Types, r.u(5))
				cb.Bias = append(cb.Bias, r.s(14, 0.01))
			}
			if sat > 0 {
				b.Biases = append(b.Biases, cb)
			}
		case SSR_URA:
			ura := UraCorr{Sat: sat, Ura: r.u(4)}
			if sat > 0 {
				b.Uras = append(b.Uras, ura)
			}
		case SSR_HRCLOCK:
			hr := r.s(22, 1e-4) / CLIGHT
			if sat == 0 || r.short {
				break
			}
			/* refines the last standard clock, with the current orbit iod */
			clk, ok := dec.lastClk[sat]
			iod := dec.orbitIod(sat)
			if !ok || iod < 0 {
				Trace(3, "ssr hr clock without clock: sat=%s iod=%d\n", SatNo2Id(sat), iod)
				att.dropped++
				break
			}
			clk.Iod, clk.Udi = iod, b.Udi
			clk.HrClk = hr
			b.Clocks = append(b.Clocks, clk)
		}
		if r.short {
			return fmt.Errorf("rtcm3 %d length error: nsat=%d sat#%d", b.MsgType, nsat, j+1)
		}
		if sat == 0 {
			Trace(2, "rtcm3 %d satellite number error: prn=%d\n", b.MsgType, prn)
		}
	}
	return nil
}

func (dec *SsrDecoder) orbitIod(sat int) int {
	if iod, ok := dec.iods[sat]; ok {
		return iod
	}
	return -1
}

func decodeOrbit(r *bitReader, sat, udi int) OrbitCorr {
	orb := OrbitCorr{Sat: sat, Udi: udi}
	orb.Iod = r.u(8)
	orb.Deph[0] = r.s(22, 1e-4)
	orb.Deph[1] = r.s(20, 4e-4)
	orb.Deph[2] = r.s(20, 4e-4)
	orb.Ddeph[0] = r.s(21, 1e-6)
	orb.Ddeph[1] = r.s(19, 4e-6)
	orb.Ddeph[2] = r.s(19, 4e-6)
	orb.Dddeph[0] = r.s(27, 2e-8)
	orb.Dddeph[1] = r.s(25, 8e-8)
	orb.Dddeph[2] = r.s(25, 8e-8)
	orb.RefPoint = r.u(1)
	orb.RefDatum = r.u(1)
	return orb
}

/* clock polynomial, transmitted in m, m/s, m/s^2 ----------------------------*/
func decodeClock(r *bitReader, clk *ClockCorr) {
	clk.Dclk[0] = r.s(22, 1e-4) / CLIGHT
	clk.Dclk[1] = r.s(21, 1e-6) / CLIGHT
	clk.Dclk[2] = r.s(27, 2e-8) / CLIGHT
}

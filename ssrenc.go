/*------------------------------------------------------------------------------
* ssrenc.go : rtcm ver.3 ssr message encoder
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"math"
)

const maxRtcm3Len = 1023 /* max rtcm3 payload length (bytes) */

type bitWriter struct {
	buff []uint8
	pos  int
	err  error
}

func newBitWriter() *bitWriter {
	return &bitWriter{buff: make([]uint8, 3+maxRtcm3Len+3), pos: 24}
}

func (w *bitWriter) room(n int) bool {
	if w.err != nil {
		return false
	}
	if w.pos+n > (3+maxRtcm3Len)*8 {
		w.err = fmt.Errorf("rtcm3 message length exceeds %d bytes", maxRtcm3Len)
		return false
	}
	return true
}

func (w *bitWriter) u(n int, v int) {
	if !w.room(n) {
		return
	}
	if v < 0 || uint64(v) >= 1<<uint(n) {
		w.err = fmt.Errorf("value %d out of range for %d bits", v, n)
		return
	}
	SetBitU(w.buff, w.pos, n, uint32(v))
	w.pos += n
}

/* scaled signed field, range checked against the two's complement width ----*/
func (w *bitWriter) s(n int, value, scale float64) {
	if !w.room(n) {
		return
	}
	v := ROUND_I(value / scale)
	lim := 1 << uint(n-1)
	if math.IsNaN(value) || v < -lim || v >= lim {
		w.err = fmt.Errorf("value %g out of range for %d bits scale %g", value, n, scale)
		return
	}
	SetBits(w.buff, w.pos, n, int32(v))
	w.pos += n
}

/* generate rtcm3 frame: preamble, length, padding and crc-24q ---------------*/
func (w *bitWriter) frame() ([]uint8, error) {
	if w.err != nil {
		return nil, w.err
	}
	i := w.pos
	for ; i%8 > 0; i++ {
		SetBitU(w.buff, i, 1, 0)
	}
	msglen := i / 8 /* message length (header+data) (bytes) */
	SetBitU(w.buff, 0, 8, RTCM3PREAMB)
	SetBitU(w.buff, 8, 6, 0)
	SetBitU(w.buff, 14, 10, uint32(msglen-3))
	SetBitU(w.buff, i, 24, Rtk_CRC24q(w.buff, msglen))
	return w.buff[:msglen+3], nil
}

/* encode ssr batch ------------------------------------------------------------
* encode one rtcm3 ssr or ephemeris message
* args   : *SsrBatch batch  I   batch, MsgType selects the layout
* return : rtcm3 frame, error
* notes  : combined messages take orbit and clock of a satellite from
*          Orbits[i] and the Clocks entry with the same satellite.
*          high-rate clock messages write Clocks[i].HrClk.
*          1019/1020 write Ephs[0].
*-----------------------------------------------------------------------------*/
func EncodeSsr(batch *SsrBatch) ([]uint8, error) {
	w := newBitWriter()

	switch batch.MsgType {
	case 1019, 1020:
		if len(batch.Ephs) == 0 {
			return nil, fmt.Errorf("rtcm3 %d: no ephemeris", batch.MsgType)
		}
		w.u(12, batch.MsgType)
		if err := encodeEph(w, batch.MsgType, batch.Ephs[0]); err != nil {
			return nil, err
		}
		return w.frame()
	}
	sys, kind, ok := SsrMsgInfo(batch.MsgType)
	if !ok {
		return nil, fmt.Errorf("unsupported message type %d", batch.MsgType)
	}
	var nsat int
	switch kind {
	case SSR_ORBIT, SSR_COMBINED:
		nsat = len(batch.Orbits)
	case SSR_CLOCK, SSR_HRCLOCK:
		nsat = len(batch.Clocks)
	case SSR_BIAS:
		nsat = len(batch.Biases)
	case SSR_URA:
		nsat = len(batch.Uras)
	}
	w.u(12, batch.MsgType)
	if sys == SYS_GLO {
		w.u(17, int(batch.EpochSec))
	} else {
		w.u(20, int(batch.EpochSec))
	}
	if kind != SSR_URA {
		w.u(4, batch.Udi)
	}
	w.u(1, batch.Mmi)
	w.u(5, 0) /* reserved */
	w.u(6, nsat)

	for j := 0; j < nsat; j++ {
		switch kind {
		case SSR_ORBIT:
			encodeSatId(w, sys, batch.Orbits[j].Sat)
			encodeOrbit(w, &batch.Orbits[j])
		case SSR_CLOCK:
			encodeSatId(w, sys, batch.Clocks[j].Sat)
			encodeClock(w, &batch.Clocks[j])
		case SSR_COMBINED:
			orb := &batch.Orbits[j]
			clk := findClock(batch.Clocks, orb.Sat)
			if clk == nil {
				return nil, fmt.Errorf("rtcm3 %d: no clock for %s", batch.MsgType, SatNo2Id(orb.Sat))
			}
			encodeSatId(w, sys, orb.Sat)
			encodeOrbit(w, orb)
			encodeClock(w, clk)
		case SSR_BIAS:
			cb := &batch.Biases[j]
			if len(cb.Types) != len(cb.Bias) {
				return nil, fmt.Errorf("rtcm3 %d: bias types and values differ", batch.MsgType)
			}
			encodeSatId(w, sys, cb.Sat)
			w.u(5, len(cb.Types))
			for k := range cb.Types {
				w.u(5, cb.Types[k])
				w.s(14, cb.Bias[k], 0.01)
			}
		case SSR_URA:
			encodeSatId(w, sys, batch.Uras[j].Sat)
			w.u(4, batch.Uras[j].Ura)
		case SSR_HRCLOCK:
			encodeSatId(w, sys, batch.Clocks[j].Sat)
			w.s(22, batch.Clocks[j].HrClk*CLIGHT, 1e-4)
		}
	}
	return w.frame()
}

func encodeSatId(w *bitWriter, sys, sat int) {
	s, prn := SatSys(sat)
	if s != sys {
		if w.err == nil {
			w.err = fmt.Errorf("satellite %d not of system %d", sat, sys)
		}
		return
	}
	if sys == SYS_GLO {
		w.u(5, prn)
	} else {
		w.u(6, prn)
	}
}

func encodeOrbit(w *bitWriter, orb *OrbitCorr) {
	w.u(8, orb.Iod)
	w.s(22, orb.Deph[0], 1e-4)
	w.s(20, orb.Deph[1], 4e-4)
	w.s(20, orb.Deph[2], 4e-4)
	w.s(21, orb.Ddeph[0], 1e-6)
	w.s(19, orb.Ddeph[1], 4e-6)
	w.s(19, orb.Ddeph[2], 4e-6)
	w.s(27, orb.Dddeph[0], 2e-8)
	w.s(25, orb.Dddeph[1], 8e-8)
	w.s(25, orb.Dddeph[2], 8e-8)
	w.u(1, orb.RefPoint)
	w.u(1, orb.RefDatum)
}

func encodeClock(w *bitWriter, clk *ClockCorr) {
	w.s(22, clk.Dclk[0]*CLIGHT, 1e-4)
	w.s(21, clk.Dclk[1]*CLIGHT, 1e-6)
	w.s(27, clk.Dclk[2]*CLIGHT, 2e-8)
}

func findClock(clks []ClockCorr, sat int) *ClockCorr {
	for i := range clks {
		if clks[i].Sat == sat {
			return &clks[i]
		}
	}
	return nil
}

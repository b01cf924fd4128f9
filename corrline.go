/*------------------------------------------------------------------------------
* corrline.go : correction text lines
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : line format
*          <type> <udi> <week> <sow> <prn>  <iod>  <dclk> <dr> <da> <dc>
*          <dotdr> <dotda> <dotdc>  <dotdotdr>
*          clock in m with the high-rate clock added, orbit in m and m/s.
*          the last field is written as 0.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"fmt"
	"strconv"
	"strings"
)

// correction line message types by the constellation of the satellite
const (
	CORRTYPE_GPS = 4056 /* gps combined orbit and clock */
	CORRTYPE_GLO = 4057 /* glonass combined orbit and clock */
)

const corrLineFmt = "%d %d %d %.1f %s  %3d  %10.3f  %8.3f %8.3f %8.3f  %8.3f %8.3f %8.3f  %8.3f"

// OutCorrLine formats a correction. A msgType <= 0 selects the combined type
// of the satellite's constellation.
func OutCorrLine(c *Corr, msgType, udi int) string {
	prn := SatNo2Id(c.Sat)
	if msgType <= 0 {
		switch {
		case strings.HasPrefix(prn, "G"):
			msgType = CORRTYPE_GPS
		case strings.HasPrefix(prn, "R"):
			msgType = CORRTYPE_GLO
		}
	}
	sow, week := Time2GpsT(c.Time)
	return fmt.Sprintf(corrLineFmt, msgType, udi, week, sow, prn, c.Iod, (c.Dclk[0]+c.HrClk)*CLIGHT,
		c.Rao[0], c.Rao[1], c.Rao[2], c.DotRao[0], c.DotRao[1], c.DotRao[2], 0.0)
}

/* read correction line --------------------------------------------------------
* parse a correction line
* args   : string line      I   line by OutCorrLine
* return : correction, message type, error
*-----------------------------------------------------------------------------*/
func ReadCorrLine(line string) (*Corr, int, error) {
	f := strings.Fields(line)
	if len(f) < 13 {
		return nil, 0, fmt.Errorf("correction line: %d fields", len(f))
	}
	var (
		ival [4]int
		fval [8]float64
		err  error
	)
	for i, k := range []int{0, 1, 2, 5} {
		if ival[i], err = strconv.Atoi(f[k]); err != nil {
			return nil, 0, fmt.Errorf("correction line field %d: %w", k+1, err)
		}
	}
	for i, k := range []int{3, 6, 7, 8, 9, 10, 11, 12} {
		if fval[i], err = strconv.ParseFloat(f[k], 64); err != nil {
			return nil, 0, fmt.Errorf("correction line field %d: %w", k+1, err)
		}
	}
	sat := SatId2No(f[4])
	if sat == 0 {
		return nil, 0, fmt.Errorf("correction line: bad satellite %q", f[4])
	}
	msgType := ival[0]
	c := &Corr{
		Sat:  sat,
		Iod:  ival[3],
		Udi:  ival[1],
		Time: GpsT2Time(ival[2], fval[0]),
	}
	c.Dclk[0] = fval[1] / CLIGHT
	copy(c.Rao[:], fval[2:5])
	copy(c.DotRao[:], fval[5:8])

	switch _, kind, _ := SsrMsgInfo(msgType); kind {
	case SSR_ORBIT:
		c.RaoSet = true
	case SSR_CLOCK:
		c.DClkSet = true
	default:
		c.RaoSet, c.DClkSet = true, true
	}
	return c, msgType, nil
}

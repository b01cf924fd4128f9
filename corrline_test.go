/*------------------------------------------------------------------------------
* corrline_test.go : correction text line tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"fmt"
	"ssrgo"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_corrlineutest1(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)
	now := testNow()
	_, week := ssrgo.Time2GpsT(now)

	c := testCorr(g01, 5, now)
	line := ssrgo.OutCorrLine(c, 0, c.Udi)
	assert.Equal(fmt.Sprintf("4056 2 %d 302400.0 G01    5       1.234     0.500   -0.200    0.100"+
		"     0.000    0.000    0.000     0.000", week), line)

	rc, msgType, err := ssrgo.ReadCorrLine(line)
	assert.NoError(err)
	assert.Equal(4056, msgType)
	assert.Equal(g01, rc.Sat)
	assert.Equal(5, rc.Iod)
	assert.Equal(2, rc.Udi)
	assert.Equal(0.0, ssrgo.TimeDiff(rc.Time, now))
	assert.InDelta(1.234/ssrgo.CLIGHT, rc.Dclk[0], 1e-15)
	assert.InDelta(-0.2, rc.Rao[1], 1e-9)
	assert.True(rc.RaoSet)
	assert.True(rc.DClkSet)
}

func Test_corrlineutest2(t *testing.T) {
	assert := assert.New(t)
	r05 := ssrgo.SatNo(ssrgo.SYS_GLO, 5)
	now := testNow()

	c := testCorr(r05, 40, now)
	c.DotRao = [3]float64{0.001, -0.002, 0.003}
	line := ssrgo.OutCorrLine(c, 0, 1)
	rc, msgType, err := ssrgo.ReadCorrLine(line)
	assert.NoError(err)
	assert.Equal(4057, msgType)
	assert.Equal(r05, rc.Sat)
	assert.Equal(1, rc.Udi)
	assert.InDelta(0.003, rc.DotRao[2], 1e-9)

	/* orbit and clock message types */
	_, _, err = ssrgo.ReadCorrLine(ssrgo.OutCorrLine(c, 4050, 1))
	assert.NoError(err)
	rc, _, _ = ssrgo.ReadCorrLine(ssrgo.OutCorrLine(c, 4050, 1))
	assert.True(rc.RaoSet)
	assert.False(rc.DClkSet)
	rc, _, _ = ssrgo.ReadCorrLine(ssrgo.OutCorrLine(c, 4054, 1))
	assert.False(rc.RaoSet)
	assert.True(rc.DClkSet)
}

func Test_corrlineutest3(t *testing.T) {
	assert := assert.New(t)

	for _, line := range []string{
		"",
		"4056 2 2214 302400.0 G01 5 1.234",
		"4056 2 2214 302400.0 X01 5 1.234 0.5 -0.2 0.1 0 0 0 0",
		"4056 2 2214 302400.0 G01 iod 1.234 0.5 -0.2 0.1 0 0 0 0",
		"4056 2 2214 302400.0 G01 5 1.234 0.5 -0.2 abc 0 0 0 0",
	} {
		_, _, err := ssrgo.ReadCorrLine(line)
		assert.Error(err, line)
	}
}

/* high-rate clock is part of the line clock */
func Test_corrlineutest4(t *testing.T) {
	assert := assert.New(t)
	g01 := ssrgo.SatNo(ssrgo.SYS_GPS, 1)

	c := testCorr(g01, 5, testNow())
	c.HrClk = 0.052 / ssrgo.CLIGHT
	line := ssrgo.OutCorrLine(c, 0, c.Udi)
	assert.Contains(line, "G01    5       1.286     0.500")

	rc, _, err := ssrgo.ReadCorrLine(line)
	assert.NoError(err)
	assert.InDelta(1.286/ssrgo.CLIGHT, rc.Dclk[0], 1e-15)
	assert.Equal(0.0, rc.HrClk)
}

/*------------------------------------------------------------------------------
* options_test.go : options functions tests
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
*-----------------------------------------------------------------------------*/
package ssrgo_test

import (
	"os"
	"path/filepath"
	"ssrgo"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type testOpts struct {
	path    string
	timeout int
	maxage  float64
	nocorr  int
}

func (o *testOpts) table() map[string]*ssrgo.Opt {
	return map[string]*ssrgo.Opt{
		"inpstr1-path": {Name: "inpstr1-path", Format: ssrgo.OPT_STRING, VarString: &o.path},
		"misc-timeout": {Name: "misc-timeout", Format: ssrgo.OPT_INT, VarInt: &o.timeout, Comment: "ms"},
		"pos-maxage":   {Name: "pos-maxage", Format: ssrgo.OPT_FLOAT, VarFloat: &o.maxage, Comment: "s"},
		"pos-nocorr":   {Name: "pos-nocorr", Format: ssrgo.OPT_ENUM, VarInt: &o.nocorr, Comment: "0:off,1:on"},
	}
}

/* text options file */
func Test_optionsutest1(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "test.conf")

	/* no newline after the last line */
	text := "# options\n" +
		"inpstr1-path = ntrip://user:pw@caster:2101/SSR  # comment\n" +
		"\n" +
		"unknown-opt  = 5\n" +
		"no equal sign\n" +
		"misc-timeout = abc\n" +
		"pos-maxage   = 90.5\n" +
		"pos-nocorr   = on"
	assert.NoError(os.WriteFile(file, []byte(text), 0644))

	o := &testOpts{timeout: 10000}
	opts := o.table()
	assert.NoError(ssrgo.LoadOpts(file, opts))
	assert.Equal("ntrip://user:pw@caster:2101/SSR", o.path)
	assert.Equal(10000, o.timeout)
	assert.Equal(90.5, o.maxage)
	assert.Equal(1, o.nocorr)

	assert.Error(ssrgo.LoadOpts(filepath.Join(t.TempDir(), "none.conf"), opts))
}

/* save and load */
func Test_optionsutest2(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()

	for _, name := range []string{"test.conf", "test.yaml"} {
		file := filepath.Join(dir, name)
		o := &testOpts{path: "file:///data/ssr.rtcm3", timeout: 3000, maxage: 60.0, nocorr: 1}
		assert.NoError(ssrgo.SaveOpts(file, "ssrcast options", o.table()))

		data, err := os.ReadFile(file)
		assert.NoError(err)
		assert.True(strings.HasPrefix(string(data), "# ssrcast options\n\n"), name)

		r := &testOpts{}
		assert.NoError(ssrgo.LoadOpts(file, r.table()))
		assert.Equal(o, r, name)
	}
	data, _ := os.ReadFile(filepath.Join(dir, "test.conf"))
	assert.Contains(string(data), "pos-nocorr         =on         # (0:off,1:on)\n")
}

/* yaml options file */
func Test_optionsutest3(t *testing.T) {
	assert := assert.New(t)
	file := filepath.Join(t.TempDir(), "test.yml")

	text := "inpstr1-path: tcpcli://localhost:2102\nmisc-timeout: 2500\npos-maxage: 30\npos-nocorr: 7\n"
	assert.NoError(os.WriteFile(file, []byte(text), 0644))

	o := &testOpts{}
	assert.NoError(ssrgo.LoadOpts(file, o.table()))
	assert.Equal("tcpcli://localhost:2102", o.path)
	assert.Equal(2500, o.timeout)
	assert.Equal(30.0, o.maxage)
	assert.Equal(0, o.nocorr)

	assert.NoError(os.WriteFile(file, []byte("misc-timeout: [1, 2\n"), 0644))
	assert.Error(ssrgo.LoadOpts(file, o.table()))
}

func Test_optionsutest4(t *testing.T) {
	assert := assert.New(t)
	o := &testOpts{}
	opts := o.table()

	opt := ssrgo.SearchOpt("pos-nocorr", opts)
	assert.NotNil(opt)
	assert.Nil(ssrgo.SearchOpt("pos-none", opts))
	assert.NoError(opt.Str2Opt("1"))
	assert.Equal("on", opt.Opt2Str())
	assert.Error(opt.Str2Opt("2"))
	assert.Error(opt.Str2Opt("maybe"))

	assert.Equal("off", ssrgo.Enum2Str("0:off,1:on", 0))
	assert.Equal("5", ssrgo.Enum2Str("0:off,1:on", 5))
	v, ok := ssrgo.Str2Enum("on", "0:off,1:on")
	assert.True(ok)
	assert.Equal(1, v)
}

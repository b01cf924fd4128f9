/*------------------------------------------------------------------------------
* options.go : options functions
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : an options file holds "name = value # comment" lines. a file
*          named *.yaml or *.yml holds the same names as a yaml mapping.
*          enum options are written as labels of the comment "0:off,1:on".
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// option formats
const (
	OPT_INT    = 0
	OPT_FLOAT  = 1
	OPT_STRING = 2
	OPT_ENUM   = 3
)

/* discard comment and space characters --------------------------------------*/
func options_chop(buff string) string {
	if idx := strings.Index(buff, "#"); idx >= 0 {
		buff = buff[:idx]
	}
	return strings.TrimFunc(buff, func(r rune) bool {
		return !strconv.IsGraphic(r) || r == ' '
	})
}

/* enum labels of comment "0:off,1:on" ---------------------------------------*/
func enumLabels(comment string) map[int]string {
	labels := make(map[int]string)
	for _, item := range strings.Split(comment, ",") {
		kv := strings.SplitN(strings.TrimSpace(item), ":", 2)
		if len(kv) != 2 {
			continue
		}
		if v, err := strconv.Atoi(kv[0]); err == nil {
			labels[v] = kv[1]
		}
	}
	return labels
}

/* enum to string ------------------------------------------------------------*/
func Enum2Str(comment string, val int) string {
	if s, ok := enumLabels(comment)[val]; ok {
		return s
	}
	return strconv.Itoa(val)
}

/* string to enum ------------------------------------------------------------*/
func Str2Enum(str, comment string) (int, bool) {
	for v, s := range enumLabels(comment) {
		if s == str {
			return v, true
		}
	}
	if v, err := strconv.Atoi(str); err == nil {
		if _, ok := enumLabels(comment)[v]; ok {
			return v, true
		}
	}
	return 0, false
}

/* search option ---------------------------------------------------------------
* search option record
* args   : char   *name     I  option name
*          opt_t  *opts     I  options table
* return : option record (nil: not found)
*-----------------------------------------------------------------------------*/
func SearchOpt(name string, opts map[string]*Opt) *Opt {
	return opts[name]
}

/* string to option value ------------------------------------------------------
* convert string to option value
* args   : string str       I  option value string
* return : error
*-----------------------------------------------------------------------------*/
func (opt *Opt) Str2Opt(str string) error {
	switch opt.Format {
	case OPT_INT:
		v, err := strconv.Atoi(str)
		if err != nil {
			return err
		}
		*opt.VarInt = v
	case OPT_FLOAT:
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*opt.VarFloat = v
	case OPT_STRING:
		*opt.VarString = str
	case OPT_ENUM:
		v, ok := Str2Enum(str, opt.Comment)
		if !ok {
			return fmt.Errorf("%q not in (%s)", str, opt.Comment)
		}
		*opt.VarInt = v
	default:
		return fmt.Errorf("unknown option format %d", opt.Format)
	}
	return nil
}

/* option value to string ----------------------------------------------------*/
func (opt *Opt) Opt2Str() string {
	switch opt.Format {
	case OPT_INT:
		return strconv.Itoa(*opt.VarInt)
	case OPT_FLOAT:
		return strconv.FormatFloat(*opt.VarFloat, 'g', -1, 64)
	case OPT_STRING:
		return *opt.VarString
	case OPT_ENUM:
		return Enum2Str(opt.Comment, *opt.VarInt)
	}
	return ""
}

/* option to string (keyword=value # comment) --------------------------------*/
func (opt *Opt) Opt2Buf() string {
	p := fmt.Sprintf("%-18s =%s", opt.Name, opt.Opt2Str())
	if opt.Comment != "" {
		if len(p) < 30 {
			p += strings.Repeat(" ", 30-len(p))
		}
		p += fmt.Sprintf(" # (%s)", opt.Comment)
	}
	return p
}

func isYaml(file string) bool {
	ext := strings.ToLower(filepath.Ext(file))
	return ext == ".yaml" || ext == ".yml"
}

/* load options ----------------------------------------------------------------
* load options from file
* args   : string file      I  options file (*.yaml, *.yml: yaml mapping)
*          opts             IO options table
* return : error (file or yaml syntax only, invalid values are traced)
*-----------------------------------------------------------------------------*/
func LoadOpts(file string, opts map[string]*Opt) error {
	Trace(4, "loadopts: file=%s\n", file)

	if isYaml(file) {
		return loadOptsYaml(file, opts)
	}
	fp, err := os.Open(file)
	if err != nil {
		Trace(2, "loadopts: options file open error (%s)\n", file)
		return err
	}
	defer fp.Close()

	sc := bufio.NewScanner(fp)
	for n := 1; sc.Scan(); n++ {
		buff := options_chop(sc.Text())
		if len(buff) == 0 {
			continue
		}
		index := strings.Index(buff, "=")
		if index < 0 {
			Trace(2, "invalid option %s (%s:%d)\n", buff, file, n)
			continue
		}
		name := options_chop(buff[:index])
		value := options_chop(buff[index+1:])
		opt := SearchOpt(name, opts)
		if opt == nil {
			continue
		}
		if err := opt.Str2Opt(value); err != nil {
			Trace(2, "invalid option value %s (%s:%d) %v\n", buff, file, n, err)
		}
	}
	return sc.Err()
}

func loadOptsYaml(file string, opts map[string]*Opt) error {
	data, err := os.ReadFile(file)
	if err != nil {
		Trace(2, "loadopts: options file open error (%s)\n", file)
		return err
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	for name, v := range m {
		opt := SearchOpt(name, opts)
		if opt == nil {
			continue
		}
		value := ""
		if v != nil {
			value = fmt.Sprint(v)
		}
		if err := opt.Str2Opt(value); err != nil {
			Trace(2, "invalid option value %s=%v (%s) %v\n", name, v, file, err)
		}
	}
	return nil
}

func sortedOpts(opts map[string]*Opt) []*Opt {
	list := make([]*Opt, 0, len(opts))
	for _, opt := range opts {
		list = append(list, opt)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

/* save options ----------------------------------------------------------------
* save options to file
* args   : string file      I  options file (*.yaml, *.yml: yaml mapping)
*          string comment   I  header comment ("": no comment)
*          opts             I  options table
* return : error
*-----------------------------------------------------------------------------*/
func SaveOpts(file, comment string, opts map[string]*Opt) error {
	var sb strings.Builder

	Trace(4, "saveopts: file=%s\n", file)

	if comment != "" {
		fmt.Fprintf(&sb, "# %s\n\n", comment)
	}
	if isYaml(file) {
		m := make(map[string]string, len(opts))
		for _, opt := range opts {
			m[opt.Name] = opt.Opt2Str()
		}
		data, err := yaml.Marshal(m)
		if err != nil {
			return err
		}
		sb.Write(data)
	} else {
		for _, opt := range sortedOpts(opts) {
			sb.WriteString(opt.Opt2Buf())
			sb.WriteByte('\n')
		}
	}
	if err := os.WriteFile(file, []byte(sb.String()), 0644); err != nil {
		Trace(2, "saveopts: options file open error (%s)\n", file)
		return err
	}
	return nil
}

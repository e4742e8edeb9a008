// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package log

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

const (
	timeFormat     = "2006-01-02T15:04:05-0700"
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

// locationEnabled adds the call site to terminal output.
var locationEnabled uint32

// PrintOrigins sets whether terminal output carries the file:line of the
// call site.
func PrintOrigins(print bool) {
	if print {
		atomic.StoreUint32(&locationEnabled, 1)
	} else {
		atomic.StoreUint32(&locationEnabled, 0)
	}
}

// Format renders a record.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc returns a Format that renders with f.
func FormatFunc(f func(*Record) []byte) Format {
	return formatFunc(f)
}

type formatFunc func(*Record) []byte

func (f formatFunc) Format(r *Record) []byte {
	return f(r)
}

var levelColors = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgBlue),
}

func init() {
	// TerminalFormat decides, not color.NoColor
	for _, c := range levelColors {
		c.EnableColor()
	}
}

// TerminalFormat renders records for a human reader:
//
//	INFO [06-01|12:00:00.000] compiled                   file=a.li instrs=12
//
// Keys are coloured by level when usecolor is set.
func TerminalFormat(usecolor bool) Format {
	return FormatFunc(func(r *Record) []byte {
		var c *color.Color
		if usecolor {
			c = levelColors[r.Lvl]
		}
		b := &bytes.Buffer{}
		lvl := r.Lvl.AlignedString()
		if c != nil {
			lvl = c.Sprint(lvl)
		}
		if atomic.LoadUint32(&locationEnabled) != 0 {
			location := fmt.Sprintf("%v", r.Call)
			fmt.Fprintf(b, "%s [%s|%s] %s ", lvl, r.Time.Format(termTimeFormat), location, r.Msg)
		} else {
			fmt.Fprintf(b, "%s [%s] %s ", lvl, r.Time.Format(termTimeFormat), r.Msg)
		}
		length := len(r.Msg)
		if len(r.Ctx) > 0 && length < termMsgJust {
			b.Write(bytes.Repeat([]byte{' '}, termMsgJust-length))
		}
		logfmt(b, r.Ctx, c, true)
		return b.Bytes()
	})
}

// LogfmtFormat renders records as logfmt key=value lines, with the call
// site under the caller key.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		common := []interface{}{"t", r.Time, "lvl", r.Lvl, "msg", r.Msg, "caller", fmt.Sprintf("%v", r.Call)}
		buf := &bytes.Buffer{}
		logfmt(buf, append(common, r.Ctx...), nil, false)
		return buf.Bytes()
	})
}

func logfmt(buf *bytes.Buffer, ctx []interface{}, c *color.Color, term bool) {
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}
		k, ok := ctx[i].(string)
		v := formatLogfmtValue(ctx[i+1], term)
		if !ok {
			k, v = errorKey, formatLogfmtValue(ctx[i], term)
		}
		if c != nil {
			buf.WriteString(c.Sprint(k))
		} else {
			buf.WriteString(k)
		}
		buf.WriteByte('=')
		buf.WriteString(v)
	}
	buf.WriteByte('\n')
}

func formatLogfmtValue(value interface{}, term bool) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case time.Time:
		if term {
			return v.Format(termTimeFormat)
		}
		return v.Format(timeFormat)
	case error:
		return escapeString(v.Error())
	case fmt.Stringer:
		if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "nil"
		}
		return escapeString(v.String())
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', 3, 64)
	case string:
		return escapeString(v)
	default:
		return escapeString(fmt.Sprintf("%+v", value))
	}
}

// escapeString quotes values that contain spaces, quotes or control
// characters.
func escapeString(s string) string {
	needsQuoting := s == ""
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			needsQuoting = true
			break
		}
	}
	if !needsQuoting {
		return s
	}
	return strconv.Quote(s)
}

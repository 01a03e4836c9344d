package jsonenc

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"time"
	"unicode/utf8"
)

const digits = "0123456789abcdef"

var (
	jsonTrue  = []byte("true")
	jsonFalse = []byte("false")
	jsonNull  = []byte("null")
)

// Appender is implemented by values that encode themselves, such as ordered
// records nested inside other records.
type Appender interface {
	AppendJSON(buf *Buffer)
}

// Object writes '{', calls each(i) for i in [0,n) to obtain key/value
// pairs, and writes '}'.
func (buf *Buffer) Object(n int, each func(i int) (string, any)) {
	buf.writeByte('{')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.writeByte(',')
		}
		k, v := each(i)
		buf.Quoted(k)
		buf.writeByte(':')
		buf.Value(v)
	}
	buf.writeByte('}')
}

// Value appends v as JSON.
func (buf *Buffer) Value(v any) {
	switch v := v.(type) {
	case nil:
		buf.writeBytes(jsonNull)
	case Appender:
		v.AppendJSON(buf)
	case string:
		buf.Quoted(v)
	case []byte:
		buf.appendBase64(v)
	case bool:
		if v {
			buf.writeBytes(jsonTrue)
		} else {
			buf.writeBytes(jsonFalse)
		}
	case int:
		buf.B = strconv.AppendInt(buf.B, int64(v), 10)
	case int8:
		buf.B = strconv.AppendInt(buf.B, int64(v), 10)
	case int16:
		buf.B = strconv.AppendInt(buf.B, int64(v), 10)
	case int32:
		buf.B = strconv.AppendInt(buf.B, int64(v), 10)
	case int64:
		buf.B = strconv.AppendInt(buf.B, v, 10)
	case uint:
		buf.B = strconv.AppendUint(buf.B, uint64(v), 10)
	case uint8:
		buf.B = strconv.AppendUint(buf.B, uint64(v), 10)
	case uint16:
		buf.B = strconv.AppendUint(buf.B, uint64(v), 10)
	case uint32:
		buf.B = strconv.AppendUint(buf.B, uint64(v), 10)
	case uint64:
		buf.B = strconv.AppendUint(buf.B, v, 10)
	case float32:
		buf.appendFloat(float64(v), 32)
	case float64:
		buf.appendFloat(v, 64)
	case time.Time:
		buf.writeByte('"')
		buf.B = v.AppendFormat(buf.B, time.RFC3339Nano)
		buf.writeByte('"')
	case time.Duration:
		buf.Quoted(v.String())
	case json.Marshaler:
		if data, err := v.MarshalJSON(); err == nil {
			buf.writeBytes(data)
		} else {
			buf.writeBytes(jsonNull)
		}
	case error:
		buf.Quoted(v.Error())
	default:
		buf.appendReflect(v)
	}
}

func (buf *Buffer) appendReflect(v any) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		buf.writeBytes(jsonNull)
		return
	}
	buf.writeBytes(bytes.TrimRight(tmp.Bytes(), "\n"))
}

// NaN and infinities have no JSON form and are written as null.
func (buf *Buffer) appendFloat(f float64, bits int) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		buf.writeBytes(jsonNull)
		return
	}
	buf.B = strconv.AppendFloat(buf.B, f, 'g', -1, bits)
}

func (buf *Buffer) appendBase64(data []byte) {
	buf.writeByte('"')
	n := base64.StdEncoding.EncodedLen(len(data))
	start := len(buf.B)
	buf.B = append(buf.B, make([]byte, n)...)
	base64.StdEncoding.Encode(buf.B[start:], data)
	buf.writeByte('"')
}

// Quoted appends s as a JSON string literal.
func (buf *Buffer) Quoted(s string) {
	buf.writeByte('"')
	start := 0
	for i := 0; i < len(s); {
		c := s[i]
		if c >= 0x20 && c != '\\' && c != '"' && c < 0x80 {
			i++
			continue
		}
		if start < i {
			buf.writeString(s[start:i])
		}
		if c < 0x80 {
			switch c {
			case '\\', '"':
				buf.writeByte('\\')
				buf.writeByte(c)
			case '\n':
				buf.writeString(`\n`)
			case '\r':
				buf.writeString(`\r`)
			case '\t':
				buf.writeString(`\t`)
			case '\b':
				buf.writeString(`\b`)
			case '\f':
				buf.writeString(`\f`)
			default:
				buf.writeString(`\u00`)
				buf.writeByte(digits[c>>4])
				buf.writeByte(digits[c&0xF])
			}
			i++
			start = i
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			buf.writeString(`\ufffd`)
			i++
			start = i
			continue
		}
		i += size
	}
	if start < len(s) {
		buf.writeString(s[start:])
	}
	buf.writeByte('"')
}

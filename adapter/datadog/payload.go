package datadog

import (
	"fmt"

	"github.com/trickstertwo/ddlog"
	"github.com/trickstertwo/ddlog/internal/jsonenc"
)

// PayloadKind tags the variant held by a Payload.
type PayloadKind uint8

const (
	PayloadEmpty PayloadKind = iota
	PayloadError
	PayloadRecord
)

// Payload is the optional data attached to one log call: nothing, an error
// with its trace, or a structured record.
type Payload struct {
	kind   PayloadKind
	err    error
	trace  string
	record Record
	aggKey string
}

// EmptyPayload carries no data.
func EmptyPayload() Payload { return Payload{} }

// ErrorPayload carries err. Its trace is the "%+v" rendering, which includes
// stack frames for errors that record them.
func ErrorPayload(err error) Payload {
	if err == nil {
		return Payload{}
	}
	return Payload{kind: PayloadError, err: err, trace: fmt.Sprintf("%+v", err)}
}

// ErrorPayloadWithStack carries err with an explicit trace, e.g. from
// runtime/debug.Stack.
func ErrorPayloadWithStack(err error, stack string) Payload {
	if err == nil {
		return Payload{}
	}
	return Payload{kind: PayloadError, err: err, trace: stack}
}

// RecordPayload carries a structured record. The correlation key, if any, is
// read from its "aggregation_key" attribute.
func RecordPayload(r Record) Payload {
	if r == nil {
		return Payload{}
	}
	return Payload{kind: PayloadRecord, record: r}
}

// WithAggregationKey sets the per-call correlation key explicitly. It takes
// precedence over a key found in the record.
func (p Payload) WithAggregationKey(key string) Payload {
	p.aggKey = key
	return p
}

func (p Payload) Kind() PayloadKind { return p.kind }
func (p Payload) Err() error        { return p.err }
func (p Payload) Trace() string     { return p.trace }
func (p Payload) Record() Record    { return p.record }

// AggregationKey returns the per-call correlation key, or "".
func (p Payload) AggregationKey() string {
	if p.aggKey != "" {
		return p.aggKey
	}
	if p.kind == PayloadRecord {
		return p.record.AggregationKey()
	}
	return ""
}

// Attr is one key/value pair of a Record.
type Attr struct {
	Key   string
	Value any
}

// Record is an insertion-ordered set of attributes. It serializes as a JSON
// object in the order attributes were added.
type Record []Attr

// Get returns the value of the first attribute named key.
func (r Record) Get(key string) (any, bool) {
	for _, a := range r {
		if a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Without returns a copy of r minus every attribute whose key is listed.
func (r Record) Without(keys ...string) Record {
	out := make(Record, 0, len(r))
next:
	for _, a := range r {
		for _, k := range keys {
			if a.Key == k {
				continue next
			}
		}
		out = append(out, a)
	}
	return out
}

// aggregationKeyNames are the attribute names read as a correlation key.
var aggregationKeyNames = []string{ddlog.AggregationKeyField, "aggregationKey"}

// AggregationKey returns the record's correlation key when it is a
// non-empty string.
func (r Record) AggregationKey() string {
	for _, name := range aggregationKeyNames {
		if v, ok := r.Get(name); ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// AppendJSON implements jsonenc.Appender so nested records keep their order.
func (r Record) AppendJSON(buf *jsonenc.Buffer) {
	buf.Object(len(r), func(i int) (string, any) { return r[i].Key, r[i].Value })
}

// MarshalJSON encodes r as an ordered JSON object.
func (r Record) MarshalJSON() ([]byte, error) {
	buf := jsonenc.Get()
	defer jsonenc.Put(buf)
	r.AppendJSON(buf)
	return append([]byte(nil), buf.B...), nil
}

// FromFields converts facade fields (bound first, then event) into a Payload.
// An entry whose only field besides the correlation key is an error becomes
// an error payload; anything else becomes a record.
func FromFields(bound, fields []ddlog.Field) Payload {
	n := len(bound) + len(fields)
	if n == 0 {
		return Payload{}
	}
	rec := make(Record, 0, n)
	var (
		aggKey  string
		errOnly error
		errs    int
		others  int
	)
	add := func(f *ddlog.Field) {
		if f.K == ddlog.AggregationKeyField && f.Kind == ddlog.KindString {
			aggKey = f.Str
		} else if f.Kind == ddlog.KindError && (f.K == "" || f.K == "error") && f.Err != nil {
			errOnly = f.Err
			errs++
		} else {
			others++
		}
		rec = append(rec, Attr{Key: f.K, Value: f.Value()})
	}
	for i := range bound {
		add(&bound[i])
	}
	for i := range fields {
		add(&fields[i])
	}
	if errs == 1 && others == 0 {
		return ErrorPayload(errOnly).WithAggregationKey(aggKey)
	}
	return RecordPayload(rec)
}

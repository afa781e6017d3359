package conversation

import (
	"encoding/json"
	"fmt"
	"time"
)

type metaKind uint8

const (
	kindString metaKind = iota
	kindNumber
	kindBool
	kindTime
)

// MetaValue is a tagged scalar stored in message and conversation
// metadata. Keeping the value set closed makes JSON output
// deterministic: times always render as RFC 3339 strings.
type MetaValue struct {
	kind metaKind
	str  string
	num  float64
	b    bool
	t    time.Time
}

func String(v string) MetaValue  { return MetaValue{kind: kindString, str: v} }
func Number(v float64) MetaValue { return MetaValue{kind: kindNumber, num: v} }
func Bool(v bool) MetaValue      { return MetaValue{kind: kindBool, b: v} }
func Time(v time.Time) MetaValue { return MetaValue{kind: kindTime, t: v.UTC()} }

func (v MetaValue) StringValue() (string, bool)  { return v.str, v.kind == kindString }
func (v MetaValue) NumberValue() (float64, bool) { return v.num, v.kind == kindNumber }
func (v MetaValue) BoolValue() (bool, bool)      { return v.b, v.kind == kindBool }
func (v MetaValue) TimeValue() (time.Time, bool) { return v.t, v.kind == kindTime }

func (v MetaValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindString:
		return json.Marshal(v.str)
	case kindNumber:
		return json.Marshal(v.num)
	case kindBool:
		return json.Marshal(v.b)
	case kindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return nil, fmt.Errorf("unknown meta value kind %d", v.kind)
	}
}

func (v *MetaValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, val); err == nil {
			*v = Time(ts)
			return nil
		}
		*v = String(val)
		return nil
	case float64:
		*v = Number(val)
		return nil
	case bool:
		*v = Bool(val)
		return nil
	default:
		return fmt.Errorf("unsupported meta value type %T", raw)
	}
}

package sqlstore

import (
	"fmt"
	"time"
)

// timeValue scans timestamps from either engine: lib/pq yields time.Time,
// SQLite TEXT columns yield string or []byte in sqliteTimeLayout.
type timeValue struct {
	dst   *time.Time
	valid bool
}

func (v *timeValue) Scan(src any) error {
	switch s := src.(type) {
	case nil:
		v.valid = false
		return nil
	case time.Time:
		*v.dst = s.UTC()
	case string:
		return v.parse(s)
	case []byte:
		return v.parse(string(s))
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
	v.valid = true
	return nil
}

func (v *timeValue) parse(s string) error {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("invalid stored time %q: %w", s, err)
	}
	*v.dst = t.UTC()
	v.valid = true
	return nil
}

func scanTime(dst *time.Time) *timeValue {
	return &timeValue{dst: dst}
}

// nullableTime collects an optional timestamp; call ptr after Scan
type nullableTime struct {
	t time.Time
	timeValue
}

func newNullableTime() *nullableTime {
	n := &nullableTime{}
	n.dst = &n.t
	return n
}

func (n *nullableTime) ptr() *time.Time {
	if !n.valid {
		return nil
	}
	t := n.t
	return &t
}

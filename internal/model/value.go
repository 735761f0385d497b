package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

// Value is a numeric field that may be absent. An absent field is never the same as zero.
type Value struct {
	Float float64
	Valid bool
}

// Missing is the absent value.
var Missing = Value{}

// Some wraps a present value.
func Some(v float64) Value { return Value{Float: v, Valid: true} }

// Or returns the value if present, otherwise def.
func (v Value) Or(def float64) float64 {
	if !v.Valid {
		return def
	}
	return v.Float
}

// String formats the value, or "NA" when absent.
func (v Value) String() string {
	if !v.Valid {
		return "NA"
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// Value implements driver.Valuer so absent fields are stored as NULL.
func (v Value) Value() (driver.Value, error) {
	if !v.Valid {
		return nil, nil
	}
	return v.Float, nil
}

// Scan implements sql.Scanner.
func (v *Value) Scan(src any) error {
	switch x := src.(type) {
	case nil:
		*v = Missing
	case float64:
		*v = Some(x)
	case int64:
		*v = Some(float64(x))
	default:
		return fmt.Errorf("scan value: unsupported type %T", src)
	}
	return nil
}

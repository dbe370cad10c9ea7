package frame

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// DType is the logical type of a column. The engine only knows strings, ints,
// floats and bools; dates and datetimes are stored as ISO strings and typed here.
type DType int

const (
	Null DType = iota
	Bool
	Int64
	Float64
	Date
	Datetime
	Utf8
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"

	// naLiteral is how the engine spells a missing value.
	naLiteral = "NaN"
)

func (d DType) String() string {
	switch d {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int64:
		return "i64"
	case Float64:
		return "f64"
	case Date:
		return "date"
	case Datetime:
		return "datetime[μs]"
	case Utf8:
		return "str"
	default:
		return fmt.Sprintf("dtype(%d)", int(d))
	}
}

// IsNumeric reports whether values of this type can be cast to float64.
func (d DType) IsNumeric() bool {
	return d == Int64 || d == Float64
}

func (d DType) seriesType() series.Type {
	switch d {
	case Bool:
		return series.Bool
	case Int64:
		return series.Int
	case Float64:
		return series.Float
	default:
		return series.String
	}
}

func dtypeFromSeries(t series.Type) DType {
	switch t {
	case series.Bool:
		return Bool
	case series.Int:
		return Int64
	case series.Float:
		return Float64
	default:
		return Utf8
	}
}

// CivilDate is a calendar date without a time of day.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate returns a CivilDate literal.
func NewDate(year int, month time.Month, day int) CivilDate {
	return CivilDate{Year: year, Month: month, Day: day}
}

func (d CivilDate) String() string {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// literalType infers the dtype of a single Go literal.
func literalType(v any) (DType, error) {
	switch v.(type) {
	case nil:
		return Null, nil
	case bool:
		return Bool, nil
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return Int64, nil
	case float32, float64:
		return Float64, nil
	case string:
		return Utf8, nil
	case CivilDate:
		return Date, nil
	case time.Time:
		return Datetime, nil
	default:
		return Null, errors.Wrapf(ErrTypeMismatch, "unsupported literal %T", v)
	}
}

func numericRank(d DType) int {
	switch d {
	case Bool:
		return 1
	case Int64:
		return 2
	case Float64:
		return 3
	default:
		return 0
	}
}

// widen returns the narrowest dtype able to hold values of both a and b.
// Bool < Int64 < Float64 < Utf8 and Date < Datetime < Utf8; crossing families yields Utf8.
func widen(a, b DType) DType {
	switch {
	case a == Null:
		return b
	case b == Null, a == b:
		return a
	case numericRank(a) > 0 && numericRank(b) > 0:
		if numericRank(a) > numericRank(b) {
			return a
		}
		return b
	case (a == Date || a == Datetime) && (b == Date || b == Datetime):
		return Datetime
	default:
		return Utf8
	}
}

// castLiteral renders v as the engine's string form of dtype to.
// With lenient set, any literal may be rendered into a wider type.
func castLiteral(v any, to DType, lenient bool) (string, error) {
	if v == nil {
		return naLiteral, nil
	}
	from, err := literalType(v)
	if err != nil {
		return "", err
	}
	if from == to {
		return formatLiteral(v), nil
	}

	allowed := widen(from, to) == to
	if !lenient {
		// Strict casts only go up within a family, and never into Utf8.
		allowed = allowed && to != Utf8 && !(from == Bool && to != Bool)
	}
	if !allowed {
		return "", errors.Wrapf(ErrTypeMismatch, "cannot cast %s literal %v to %s", from, v, to)
	}

	switch to {
	case Float64:
		return strconv.FormatFloat(toFloat(v), 'g', -1, 64), nil
	case Int64:
		if b, ok := v.(bool); ok {
			if b {
				return "1", nil
			}
			return "0", nil
		}
	case Datetime:
		if d, ok := v.(CivilDate); ok {
			return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Format(datetimeLayout), nil
		}
	}
	return formatLiteral(v), nil
}

func formatLiteral(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case CivilDate:
		return x.String()
	case time.Time:
		return x.Format(datetimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) float64 {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case float32:
		return float64(x)
	case float64:
		return x
	default:
		return 0
	}
}

package export

import (
	"database/sql/driver"
	"encoding/json"
	"html"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// 内置的格式名
const (
	FormatRaw      = "raw"
	FormatText     = "text"
	FormatNtext    = "ntext"
	FormatBoolean  = "boolean"
	FormatInteger  = "integer"
	FormatDecimal  = "decimal"
	FormatPercent  = "percent"
	FormatDate     = "date"
	FormatDatetime = "datetime"
	FormatTime     = "time"
)

// Formatter 把原始值按指定格式转换成字符串，未知格式按 raw 处理
type Formatter interface {
	Format(value any, format string) string
}

// FormatterFunc 函数形式的 Formatter
type FormatterFunc func(value any, format string) string

func (f FormatterFunc) Format(value any, format string) string {
	return f(value, format)
}

var _ Formatter = (*DefaultFormatter)(nil)

// DefaultFormatter 默认的格式化实现
type DefaultFormatter struct {
	NullDisplay    string    //nil 值显示的内容
	BooleanFormat  [2]string //布尔值显示, [false, true]
	Decimals       int       //decimal、percent 保留小数位数
	DateFormat     string
	DatetimeFormat string
	TimeFormat     string
	Location       *time.Location //时间格式化使用的时区，默认 time.Local
}

func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{
		BooleanFormat:  [2]string{"No", "Yes"},
		Decimals:       2,
		DateFormat:     "2006-01-02",
		DatetimeFormat: "2006-01-02 15:04:05",
		TimeFormat:     "15:04:05",
	}
}

func (f *DefaultFormatter) Format(value any, format string) string {
	value = indirectValue(value)
	if value == nil {
		return f.NullDisplay
	}
	var (
		s  string
		ok bool
	)
	switch strings.ToLower(format) {
	case FormatText:
		s, ok = f.asText(value)
	case FormatNtext:
		s, ok = f.asText(value)
		s = strings.ReplaceAll(s, "\r\n", "\n")
	case FormatBoolean:
		s, ok = f.asBoolean(value)
	case FormatInteger:
		s, ok = f.asInteger(value)
	case FormatDecimal:
		s, ok = f.asDecimal(value, 1)
	case FormatPercent:
		s, ok = f.asDecimal(value, 100)
		if ok {
			s += "%"
		}
	case FormatDate:
		s, ok = f.asTime(value, f.DateFormat)
	case FormatDatetime:
		s, ok = f.asTime(value, f.DatetimeFormat)
	case FormatTime:
		s, ok = f.asTime(value, f.TimeFormat)
	}
	if ok {
		return s
	}
	return f.asRaw(value)
}

func (f *DefaultFormatter) asRaw(value any) string {
	if t, ok := value.(time.Time); ok {
		return t.Format(time.RFC3339)
	}
	if s, err := cast.ToStringE(value); err == nil {
		return s
	}
	b, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(b)
}

func (f *DefaultFormatter) asText(value any) (string, bool) {
	s, err := cast.ToStringE(value)
	if err != nil {
		return "", false
	}
	return html.UnescapeString(s), true
}

func (f *DefaultFormatter) asBoolean(value any) (string, bool) {
	b, err := cast.ToBoolE(value)
	if err != nil {
		return "", false
	}
	if b {
		return f.BooleanFormat[1], true
	}
	return f.BooleanFormat[0], true
}

func (f *DefaultFormatter) asInteger(value any) (string, bool) {
	switch v := value.(type) {
	case uint64:
		return strconv.FormatUint(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case float32, float64:
	default:
		if i, err := cast.ToInt64E(value); err == nil {
			return strconv.FormatInt(i, 10), true
		}
	}
	n, err := cast.ToFloat64E(value)
	if err != nil {
		return "", false
	}
	return strconv.FormatInt(int64(n), 10), true
}

func (f *DefaultFormatter) asDecimal(value any, scale float64) (string, bool) {
	n, err := cast.ToFloat64E(value)
	if err != nil {
		return "", false
	}
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(n*scale, 'f', decimals, 64), true
}

func (f *DefaultFormatter) asTime(value any, layout string) (string, bool) {
	if layout == "" {
		return "", false
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	t, err := cast.ToTimeInDefaultLocationE(value, loc)
	if err != nil {
		return "", false
	}
	return t.In(loc).Format(layout), true
}

// indirectValue 解开指针和 sql.Null* 这类 driver.Valuer，nil 指针和无效值返回 nil
func indirectValue(value any) any {
	for value != nil {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil
		}
		if valuer, ok := value.(driver.Valuer); ok {
			v, err := valuer.Value()
			if err != nil {
				return value
			}
			return v
		}
		if rv.Kind() != reflect.Ptr {
			return value
		}
		value = rv.Elem().Interface()
	}
	return nil
}

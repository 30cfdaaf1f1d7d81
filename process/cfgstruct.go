package process

import (
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
)

var durationType = reflect.TypeOf(time.Duration(0))

// BindOpt 绑定参数
type BindOpt func(o *bindOptions)

type bindOptions struct {
	prefix string
}

// Prefix 所有 flag 名加上前缀, 嵌套结构体之间用 . 连接
func Prefix(prefix string) BindOpt {
	return func(o *bindOptions) {
		o.prefix = prefix
	}
}

// bindConfig 按字段的 mapstructure/help/default 标签注册 flag
// flag 直接写入结构体字段
func bindConfig(flags *pflag.FlagSet, config interface{}, opts ...BindOpt) {
	o := &bindOptions{}
	for _, opt := range opts {
		opt(o)
	}
	val := reflect.ValueOf(config)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("invalid config type: %T, need struct pointer", config))
	}
	bindStruct(flags, o.prefix, val.Elem())
}

func bindStruct(flags *pflag.FlagSet, prefix string, val reflect.Value) {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := flagName(field)
		if name == "-" {
			continue
		}
		if prefix != "" {
			name = prefix + "." + name
		}
		help := field.Tag.Get("help")
		def := field.Tag.Get("default")
		ptr := val.Field(i).Addr().Interface()

		switch {
		case field.Type == durationType:
			flags.DurationVar(ptr.(*time.Duration), name, cast.ToDuration(def), help)
		case field.Type.Kind() == reflect.Struct:
			bindStruct(flags, name, val.Field(i))
		case field.Type.Kind() == reflect.String:
			flags.StringVar(ptr.(*string), name, def, help)
		case field.Type.Kind() == reflect.Bool:
			flags.BoolVar(ptr.(*bool), name, cast.ToBool(def), help)
		case field.Type.Kind() == reflect.Int:
			flags.IntVar(ptr.(*int), name, cast.ToInt(def), help)
		case field.Type.Kind() == reflect.Int64:
			flags.Int64Var(ptr.(*int64), name, cast.ToInt64(def), help)
		case field.Type.Kind() == reflect.Float64:
			flags.Float64Var(ptr.(*float64), name, cast.ToFloat64(def), help)
		case field.Type.Kind() == reflect.Slice && field.Type.Elem().Kind() == reflect.String:
			var defs []string
			if def != "" {
				defs = strings.Split(def, ",")
			}
			flags.StringArrayVar(ptr.(*[]string), name, defs, help)
		default:
			panic(fmt.Sprintf("invalid field type: %s", field.Type))
		}
	}
}

// flagName 优先使用 mapstructure 标签, 否则把驼峰转为 kebab-case
func flagName(field reflect.StructField) string {
	if tag := field.Tag.Get("mapstructure"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return hyphenate(field.Name)
}

func hyphenate(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

package export

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// TagName 结构体导出字段名的tag
const TagName = "csv"

// Row 一行数据，字段名到原始值的映射
type Row map[string]any

// RowBatch 一次从数据源获取的一批数据
type RowBatch []Row

// Lookup 获取字段值，字段不存在时先尝试按 a.b.c 路径查找嵌套数据，都没有返回 nil
func (r Row) Lookup(attribute string) (any, bool) {
	if v, ok := r[attribute]; ok {
		return v, true
	}
	if !strings.Contains(attribute, ".") {
		return nil, false
	}
	var cur any = map[string]any(r)
	for _, key := range strings.Split(attribute, ".") {
		switch m := cur.(type) {
		case Row:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		case map[string]any:
			v, ok := m[key]
			if !ok {
				return nil, false
			}
			cur = v
		default:
			v, ok := ToRow(cur)[key]
			if !ok {
				return nil, false
			}
			cur = v
		}
	}
	return cur, true
}

// ToRow 把 map、结构体、切片(按下标)及其指针转换成 Row，其他类型返回空行
func ToRow(v any) Row {
	if r, ok := v.(Row); ok {
		return r
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return toRow(reflect.ValueOf(v))
}

func toRow(rv reflect.Value) Row {
	if !rv.IsValid() {
		return Row{}
	}
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return Row{}
		}
		return toRow(rv.Elem())
	case reflect.Map:
		row := make(Row, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			row[cast.ToString(iter.Key().Interface())] = iter.Value().Interface()
		}
		return row
	case reflect.Struct:
		return structToRow(rv)
	case reflect.Slice, reflect.Array:
		row := make(Row, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			row[strconv.Itoa(i)] = rv.Index(i).Interface()
		}
		return row
	default:
		return Row{}
	}
}

func structToRow(rv reflect.Value) Row {
	typ := rv.Type()
	row := make(Row, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, tagged := field.Tag.Lookup(TagName)
		//匿名结构体字段展开，外层字段优先
		if field.Anonymous && field.Type.Kind() == reflect.Struct && !tagged {
			for k, v := range structToRow(rv.Field(i)) {
				if _, ok := row[k]; !ok {
					row[k] = v
				}
			}
			continue
		}
		if !field.IsExported() {
			continue
		}
		key := field.Name
		if tagged {
			tag, _, _ = strings.Cut(tag, ",")
			if tag == "-" {
				continue
			}
			if tag != "" {
				key = tag
			}
		}
		row[key] = rv.Field(i).Interface()
	}
	return row
}

package export

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ColumnKind 列类型
type ColumnKind int

const (
	// DataColumn 从行数据中取值
	DataColumn ColumnKind = iota
	// SerialColumn 序号列，值为当前行在整个导出中的序号，从1开始
	SerialColumn
)

// ValueFunc 自定义取值
// @row 整个行数据
// @index 当前行在整个导出中的序号，从1开始
type ValueFunc func(row Row, index int) any

// Column 导出列
type Column struct {
	Kind      ColumnKind
	Attribute string    //字段名，支持 a.b 的嵌套路径
	Header    string    //表头，为空时由 Attribute 生成
	Footer    string    //表尾
	Format    string    //格式名，为空时为 raw
	Value     ValueFunc //自定义取值，优先于 Attribute
}

// Columns 导出列配置，顺序即为csv字段顺序
type Columns []Column

// NewSerialColumn 序号列
func NewSerialColumn(header string) Column {
	return Column{Kind: SerialColumn, Header: header}
}

// Render 取出列值并格式化
func (c Column) Render(row Row, index int, formatter Formatter) string {
	var v any
	switch {
	case c.Kind == SerialColumn:
		v = index
	case c.Value != nil:
		v = c.Value(row, index)
	case c.Attribute != "":
		v, _ = row.Lookup(c.Attribute)
	}
	return formatter.Format(v, c.Format)
}

// resolve 补全默认值并校验
func (c Column) resolve(i int) (Column, error) {
	if c.Format == "" {
		c.Format = FormatRaw
	}
	switch c.Kind {
	case SerialColumn:
		if c.Header == "" {
			c.Header = "#"
		}
	case DataColumn:
		if c.Attribute == "" && c.Value == nil {
			return c, ErrConfig.New("column %d: either attribute or value must be set", i)
		}
		if c.Header == "" {
			c.Header = Humanize(c.Attribute)
		}
	default:
		return c, ErrConfig.New("column %d: unknown kind %d", i, c.Kind)
	}
	return c, nil
}

func (cs Columns) resolve() (Columns, error) {
	if len(cs) == 0 {
		return nil, ErrConfig.New("no columns configured")
	}
	res := make(Columns, len(cs))
	for i := range cs {
		c, err := cs[i].resolve(i)
		if err != nil {
			return nil, err
		}
		res[i] = c
	}
	return res, nil
}

// Headers 表头
func (cs Columns) Headers() []string {
	res := make([]string, len(cs))
	for i := range cs {
		res[i] = cs[i].Header
	}
	return res
}

// Footers 表尾
func (cs Columns) Footers() []string {
	res := make([]string, len(cs))
	for i := range cs {
		res[i] = cs[i].Footer
	}
	return res
}

var columnPattern = regexp.MustCompile(`^([^:]+)(:(\w*))?(:(.*))?$`)

// ParseColumn 解析 "attribute:format:header" 形式的列声明，format 和 header 可省略
func ParseColumn(s string) (Column, error) {
	m := columnPattern.FindStringSubmatch(s)
	if m == nil {
		return Column{}, ErrConfig.New("column must be specified in the format of \"attribute\", \"attribute:format\" or \"attribute:format:label\", got %q", s)
	}
	c := Column{
		Kind:      DataColumn,
		Attribute: m[1],
		Format:    m[3],
		Header:    m[5],
	}
	if c.Format == "" {
		c.Format = FormatRaw
	}
	return c, nil
}

// ParseColumns 批量解析列声明
func ParseColumns(specs ...string) (Columns, error) {
	res := make(Columns, 0, len(specs))
	for _, s := range specs {
		c, err := ParseColumn(s)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

// GuessColumns 按行数据的字段名(排序后)生成列
func GuessColumns(row Row) Columns {
	keys := maps.Keys(row)
	slices.Sort(keys)
	res := make(Columns, len(keys))
	for i, k := range keys {
		res[i] = Column{Kind: DataColumn, Attribute: k, Format: FormatRaw}
	}
	return res
}

// Humanize 把字段名转换成可读的表头，如 created_at、createdAt 转成 Created At
func Humanize(attribute string) string {
	if i := strings.LastIndex(attribute, "."); i >= 0 {
		attribute = attribute[i+1:]
	}
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(attribute)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	caser := cases.Title(language.Und, cases.NoLower)
	for i := range words {
		words[i] = caser.String(words[i])
	}
	return strings.Join(words, " ")
}

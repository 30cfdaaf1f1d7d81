package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type base struct {
	Id int `csv:"id"`
}

type user struct {
	base
	Name     string `csv:"name"`
	Email    string
	Password string `csv:"-"`
	secret   string
}

func TestToRow(t *testing.T) {
	u := user{base: base{Id: 3}, Name: "tom", Email: "t@example.com", Password: "x", secret: "y"}
	want := Row{"id": 3, "name": "tom", "Email": "t@example.com"}
	assert.Equal(t, want, ToRow(u))
	assert.Equal(t, want, ToRow(&u))

	assert.Equal(t, Row{"a": 1}, ToRow(map[string]any{"a": 1}))
	assert.Equal(t, Row{"1": "x"}, ToRow(map[int]string{1: "x"}))
	assert.Equal(t, Row{"0": "a", "1": 2}, ToRow([]any{"a", 2}))
	assert.Equal(t, Row{}, ToRow(nil))
	assert.Equal(t, Row{}, ToRow((*user)(nil)))
	assert.Equal(t, Row{}, ToRow(42))
}

func TestRowLookup(t *testing.T) {
	row := Row{
		"a.b":  "direct",
		"user": user{Name: "tom"},
		"meta": Row{"tags": map[string]any{"x": 1}},
	}
	v, ok := row.Lookup("a.b")
	assert.True(t, ok)
	assert.Equal(t, "direct", v)

	v, ok = row.Lookup("user.name")
	assert.True(t, ok)
	assert.Equal(t, "tom", v)

	v, ok = row.Lookup("meta.tags.x")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = row.Lookup("meta.none")
	assert.False(t, ok)
	_, ok = row.Lookup("none")
	assert.False(t, ok)
}

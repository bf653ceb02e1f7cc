package binding

import (
	"encoding/json"
	"testing"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("解析 JSON 失败: %v", err)
	}
	return data
}

func TestInterpolate(t *testing.T) {
	data := decode(t, `{"user":{"name":"Ada"},"tags":["go","ui"],"n":3}`)
	cases := map[string]string{
		"Hello, ${user.name}!":   "Hello, Ada!",
		"${tags[1]} x ${n}":      "ui x 3",
		"keep ${missing.path}":   "keep ${missing.path}",
		"bad ${tags[x]}":         "bad ${tags[x]}",
		"no placeholders at all": "no placeholders at all",
	}
	for in, want := range cases {
		if got := Interpolate(in, data); got != want {
			t.Fatalf("Interpolate(%q) = %q, want %q", in, got, want)
		}
	}
	if got := Interpolate("${x}", nil); got != "${x}" {
		t.Fatalf("data 为空时应保留占位符，实际 %q", got)
	}
}

func TestItemsAndScope(t *testing.T) {
	data := decode(t, `{"meta":{"tags":["a","b","c"]},"title":"T"}`)
	items := Items(data, "meta.tags")
	if len(items) != 3 || items[2] != "c" {
		t.Fatalf("Items 结果不正确: %v", items)
	}
	if Items(data, "title") != nil {
		t.Fatalf("非数组路径应返回 nil")
	}

	scoped := Scope(data, "item", items[0])
	if got := Interpolate("${title}:${item}", scoped); got != "T:a" {
		t.Fatalf("作用域变量未生效: %q", got)
	}
	if got := Interpolate("${item}", Scope(nil, "item", 7.0)); got != "7" {
		t.Fatalf("空数据上的作用域不正确: %q", got)
	}
}

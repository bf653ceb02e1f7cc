package fonts

import (
	"fmt"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"github.com/go-fonts/latin-modern/lmroman10bolditalic"
	"github.com/go-fonts/latin-modern/lmroman10italic"
	"github.com/go-fonts/latin-modern/lmroman10regular"
)

// 内置字体来自 Latin Modern Roman 10，按字形名索引。
var builtin = map[string][]byte{
	"regular":    lmroman10regular.TTF,
	"bold":       lmroman10bold.TTF,
	"italic":     lmroman10italic.TTF,
	"bolditalic": lmroman10bolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:bold" 或直接 "bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, "embed:"))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	data, ok := builtin[key]
	if !ok {
		return nil, fmt.Errorf("内置字体 %s 不存在", name)
	}
	return data, nil
}

// Face 返回与粗体/斜体组合对应的内置字体。
func Face(bold, italic bool) []byte {
	switch {
	case bold && italic:
		return lmroman10bolditalic.TTF
	case bold:
		return lmroman10bold.TTF
	case italic:
		return lmroman10italic.TTF
	default:
		return lmroman10regular.TTF
	}
}

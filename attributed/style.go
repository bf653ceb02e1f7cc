package attributed

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color 采用 0-255 的 RGB 数值；Valid 为 false 表示沿用渲染端的默认颜色。
type Color struct {
	R     int  `json:"r"`
	G     int  `json:"g"`
	B     int  `json:"b"`
	Valid bool `json:"valid"`
}

// RGB 构造一个有效颜色。
func RGB(r, g, b int) Color {
	return Color{R: r, G: g, B: b, Valid: true}
}

// ParseColor 解析 #rgb、#rrggbb 与 #rrggbbaa（忽略 alpha）形式的颜色。
func ParseColor(value string) (Color, error) {
	v := strings.TrimSpace(value)
	if !strings.HasPrefix(v, "#") {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	if len(v) == 9 {
		v = v[:7]
	}
	c, err := colorful.Hex(v)
	if err != nil {
		return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	r, g, b := c.RGB255()
	return RGB(int(r), int(g), int(b)), nil
}

// Hex 返回 #rrggbb 形式；无效颜色返回空串。
func (c Color) Hex() string {
	if !c.Valid {
		return ""
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Style 是一个 run 的样式描述。组合器不解释其中的字段，只原样携带；
// 各渲染后端按自己的能力使用（例如终端后端忽略 Font 与 Size）。
type Style struct {
	Font       string  `json:"font,omitempty"`
	Size       float64 `json:"size,omitempty"` // mm，<=0 时由渲染器给默认值
	Color      Color   `json:"color"`
	Background Color   `json:"background"`
	Underline  bool    `json:"underline,omitempty"`
	Bold       bool    `json:"bold,omitempty"`
	Italic     bool    `json:"italic,omitempty"`
}

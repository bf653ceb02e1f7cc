package layout

import "github.com/ByLCY/inkline/attributed"

// 该文件定义排版结果，供布局计算、渲染、点击路由与调试 JSON 共用。

// Result 保存一个文档排版后的全部 run 与块信息。
type Result struct {
	Width  float64      `json:"width"`
	Height float64      `json:"height"`
	Blocks []Block      `json:"blocks"`
	Runs   []RunBox     `json:"runs"`
	Meta   DocumentMeta `json:"meta"`
	// Resources 是文档 resources 段落解析后的颜色、字体与样式。
	Resources ResourceSet `json:"resources"`

	// texts 保存组合好的富文本，RunBox.Source 是它的下标，用于点击分发。
	texts []attributed.Text
}

// Block 是视图中的一个顶层块：一段文本或一个 lines 容器。
type Block struct {
	Kind     string    `json:"kind"` // text | lines
	X        float64   `json:"x"`
	Y        float64   `json:"y"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Items    []ItemBox `json:"items,omitempty"`
	Rows     []Row     `json:"rows,omitempty"` // 仅在 DebugOptions.Rows 时输出
	RunStart int       `json:"runStart"`
	RunEnd   int       `json:"runEnd"`
}

// RunBox 表示一个已经排好坐标的 run。
type RunBox struct {
	Text   string              `json:"text"`
	X      float64             `json:"x"`
	Y      float64             `json:"y"`
	Width  float64             `json:"width"`
	Height float64             `json:"height"`
	Style  attributed.Style    `json:"style"`
	Action attributed.ActionID `json:"action,omitempty"`
	Whole  bool                `json:"whole,omitempty"`
	Source int                 `json:"source"`
}

// Contains 报告点 (x, y) 是否落在 run 内。
func (b RunBox) Contains(x, y float64) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// ItemBox 是 lines 容器中一个子元素占据的区域（包含内边距）。
type ItemBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size 是测量得到的宽高。
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Frame 是一个子元素排版后的结果，坐标相对于 Frame 左上角。
type Frame struct {
	Width  float64
	Height float64
	Runs   []RunBox
	Items  []ItemBox
	Rows   []Row
	Texts  []attributed.Text
}

// offset 返回平移 (dx, dy) 后的 run 副本，Source 额外加上 base。
func (f Frame) offset(dx, dy float64, base int) []RunBox {
	out := make([]RunBox, len(f.Runs))
	for i, rb := range f.Runs {
		rb.X += dx
		rb.Y += dy
		rb.Source += base
		out[i] = rb
	}
	return out
}

// DocumentMeta 保存文档元信息，PDF 输出时写入文档属性。
type DocumentMeta struct {
	Title    string   `json:"title"`
	Author   string   `json:"author"`
	Subject  string   `json:"subject"`
	Creator  string   `json:"creator"`
	Keywords []string `json:"keywords"`
}

// ResourceSet 汇总文档声明的资源。
type ResourceSet struct {
	Colors map[string]attributed.Color `json:"colors"`
	Fonts  map[string]FontResource     `json:"fonts"`
	Styles map[string]StyleDef         `json:"styles"`
}

// FontResource 描述 `font Name { src: ... }` 声明的字体文件。
type FontResource struct {
	Name  string `json:"name"`
	Src   string `json:"src"`
	Style string `json:"style,omitempty"` // regular | bold | italic | bolditalic
}

// StyleDef 是一个命名样式，Props 已经合并了 extends 链上的属性。
type StyleDef struct {
	Name    string            `json:"name"`
	Extends string            `json:"extends,omitempty"`
	Props   map[string]string `json:"props"`
}

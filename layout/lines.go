package layout

import "fmt"

// DefaultPadding 是 Lines 子元素默认的水平与垂直内边距。
const DefaultPadding = 4.0

// Padding 描述 Lines 子元素四周的内边距：水平值加在左右两侧，垂直值加在上下两侧。
type Padding struct {
	Horizontal float64 `json:"horizontal"`
	Vertical   float64 `json:"vertical"`
}

// Lines 是一个折行容器：子元素按顺序从左到右排列，放不下时换到下一行。
//
// 两种构建方式（显式子元素列表与数据源+渲染函数）最终都交给 Flow 排版。
type Lines struct {
	items   []Item
	padding Padding
}

// NewLines 用显式的子元素列表构建容器。
func NewLines(items ...Item) Lines {
	return Lines{
		items:   items,
		padding: Padding{Horizontal: DefaultPadding, Vertical: DefaultPadding},
	}
}

// LinesOf 用同构数据与逐项渲染函数构建容器。
func LinesOf[T any](data []T, content func(T) Item) Lines {
	items := make([]Item, 0, len(data))
	for _, d := range data {
		items = append(items, content(d))
	}
	return NewLines(items...)
}

// WithPadding 返回设置了内边距的副本。
func (l Lines) WithPadding(horizontal, vertical float64) Lines {
	l.padding = Padding{Horizontal: horizontal, Vertical: vertical}
	return l
}

// Padding 返回当前内边距。
func (l Lines) Padding() Padding { return l.padding }

// Len 返回子元素数量。
func (l Lines) Len() int { return len(l.items) }

// Layout 实现 Item：先以 width-2*水平内边距 测量每个子元素，
// 加上内边距后交给 Flow，再把子元素的 run 平移到最终位置。
func (l Lines) Layout(m Measurer, width float64) (Frame, error) {
	padX, padY := l.padding.Horizontal, l.padding.Vertical
	inner := width - 2*padX
	if inner < 0 {
		inner = 0
	}

	frames := make([]Frame, len(l.items))
	boxes := make([]Box, len(l.items))
	for i, item := range l.items {
		if item == nil {
			continue
		}
		f, err := item.Layout(m, inner)
		if err != nil {
			return Frame{}, fmt.Errorf("lines 第 %d 个子元素排版失败: %w", i, err)
		}
		frames[i] = f
		boxes[i] = Box{Width: f.Width + 2*padX, Height: f.Height + 2*padY}
	}

	flow := Flow(boxes, width)
	out := Frame{
		Width:  flow.Width,
		Height: flow.TotalHeight,
		Items:  make([]ItemBox, len(boxes)),
		Rows:   flow.Rows,
	}
	for i, f := range frames {
		pos := flow.Positions[i]
		out.Items[i] = ItemBox{X: pos.X, Y: pos.Y, Width: boxes[i].Width, Height: boxes[i].Height}
		out.Runs = append(out.Runs, f.offset(pos.X+padX, pos.Y+padY, len(out.Texts))...)
		out.Texts = append(out.Texts, f.Texts...)
	}
	return out, nil
}

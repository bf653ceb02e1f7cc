package layout

import "github.com/ByLCY/inkline/attributed"

// NewResult 创建一个宽度为 width 的空结果。
func NewResult(width float64) *Result {
	return &Result{Width: width}
}

// Append 把 frame 作为新块接在已有内容下方，gap 为与上一块的间距（首块忽略）。
func (r *Result) Append(kind string, frame Frame, gap float64) Block {
	y := r.Height
	if len(r.Blocks) > 0 {
		y += gap
	}
	block := Block{
		Kind:     kind,
		Y:        y,
		Width:    frame.Width,
		Height:   frame.Height,
		RunStart: len(r.Runs),
	}
	for _, it := range frame.Items {
		it.Y += y
		block.Items = append(block.Items, it)
	}
	for _, row := range frame.Rows {
		row.Y += y
		block.Rows = append(block.Rows, row)
	}
	r.Runs = append(r.Runs, frame.offset(0, y, len(r.texts))...)
	r.texts = append(r.texts, frame.Texts...)
	block.RunEnd = len(r.Runs)
	r.Blocks = append(r.Blocks, block)
	r.Height = y + frame.Height
	return block
}

// Text 返回 RunBox.Source 指向的富文本。
func (r *Result) Text(source int) (attributed.Text, bool) {
	if r == nil || source < 0 || source >= len(r.texts) {
		return attributed.Text{}, false
	}
	return r.texts[source], true
}

// RunAt 返回覆盖点 (x, y) 的 run。
func (r *Result) RunAt(x, y float64) (RunBox, bool) {
	if r == nil {
		return RunBox{}, false
	}
	for _, rb := range r.Runs {
		if rb.Contains(x, y) {
			return rb, true
		}
	}
	return RunBox{}, false
}

// Tap 把点 (x, y) 上的点击分发给对应 run 的动作。
// 没有 run、run 不可点击或动作已不存在时静默忽略，返回 false。
func (r *Result) Tap(x, y float64) bool {
	rb, ok := r.RunAt(x, y)
	if !ok || rb.Action == attributed.NoAction {
		return false
	}
	txt, ok := r.Text(rb.Source)
	if !ok {
		return false
	}
	return txt.Tap(rb.Action)
}

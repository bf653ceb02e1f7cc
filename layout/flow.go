package layout

// 该文件实现贪心折行的流式排版：按从左到右、从上到下的顺序放置已测量的盒子。

// Box 是一个已经测量好的盒子，内容由调用方按下标平行保存。
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point 是盒子左上角相对于排版原点的坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Row 记录一行包含的盒子区间 [Start, End) 及其尺寸。
type Row struct {
	Start  int     `json:"start"`
	End    int     `json:"end"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FlowResult 是一次流式排版的结果，Positions 与输入盒子一一对应。
type FlowResult struct {
	Positions   []Point `json:"positions"`
	Rows        []Row   `json:"rows"`
	Width       float64 `json:"width"` // 最宽一行的宽度
	TotalHeight float64 `json:"totalHeight"`
}

// Flow 以 availableWidth 为界对 boxes 做单遍贪心折行。
//
// 当 x+宽度 超出可用宽度且当前行非空时换行；单个盒子比可用宽度还宽时
// 独占一行放在 x=0，既不丢弃也不强行拆分。结果只依赖输入。
func Flow(boxes []Box, availableWidth float64) FlowResult {
	return FlowBreaks(boxes, nil, availableWidth)
}

// FlowBreaks 与 Flow 相同，但 breaks[i] 为 true 的盒子放在当前行末尾后强制换行，
// 用于显式换行符。breaks 可以为 nil。
func FlowBreaks(boxes []Box, breaks []bool, availableWidth float64) FlowResult {
	res := FlowResult{Positions: make([]Point, len(boxes))}
	if len(boxes) == 0 {
		return res
	}
	if len(breaks) == 0 && fitsOneRow(boxes, availableWidth) {
		return singleRow(boxes)
	}

	var (
		x, y      float64
		rowHeight float64
		rowStart  int
	)
	closeRow := func(end int) {
		res.Rows = append(res.Rows, Row{Start: rowStart, End: end, Y: y, Width: x, Height: rowHeight})
		if x > res.Width {
			res.Width = x
		}
	}

	for i, b := range boxes {
		brk := i < len(breaks) && breaks[i]
		if i > rowStart && !brk && x+b.Width > availableWidth {
			closeRow(i)
			y += rowHeight
			x, rowHeight, rowStart = 0, 0, i
		}
		res.Positions[i] = Point{X: x, Y: y}
		x += b.Width
		if b.Height > rowHeight {
			rowHeight = b.Height
		}
		if brk && i+1 < len(boxes) {
			closeRow(i + 1)
			y += rowHeight
			x, rowHeight, rowStart = 0, 0, i+1
		}
	}
	closeRow(len(boxes))
	res.TotalHeight = y + rowHeight
	return res
}

// fitsOneRow 报告全部盒子能否放进一行。
func fitsOneRow(boxes []Box, availableWidth float64) bool {
	total := 0.0
	for _, b := range boxes {
		total += b.Width
		if total > availableWidth {
			return false
		}
	}
	return true
}

// singleRow 是整行放得下时的快速路径，结果与通用算法一致。
func singleRow(boxes []Box) FlowResult {
	res := FlowResult{Positions: make([]Point, len(boxes))}
	x, h := 0.0, 0.0
	for i, b := range boxes {
		res.Positions[i] = Point{X: x}
		x += b.Width
		if b.Height > h {
			h = b.Height
		}
	}
	res.Rows = []Row{{Start: 0, End: len(boxes), Width: x, Height: h}}
	res.Width = x
	res.TotalHeight = h
	return res
}

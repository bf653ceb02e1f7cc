// Package cell 以终端单元格为单位测量与栅格化排版结果，供终端与 ANSI 后端共用。
package cell

import (
	"math"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/layout"
)

// Measurer 以单元格测量 run：宽度为显示宽度（宽字符占 2 格），高度固定 1 行。
type Measurer struct{}

var _ layout.Measurer = Measurer{}

// MeasureRun 实现 layout.Measurer。
func (Measurer) MeasureRun(run attributed.Run) (layout.Size, error) {
	if run.IsBreak() {
		return layout.Size{Height: 1}, nil
	}
	return layout.Size{Width: float64(runewidth.StringWidth(run.Text)), Height: 1}, nil
}

// Cell 是网格中的一个单元格。宽字符的第二格 Continuation 为 true，Text 为空。
type Cell struct {
	Text         string
	Style        attributed.Style
	Action       attributed.ActionID
	Continuation bool
}

// Empty 报告单元格是否没有内容。
func (c Cell) Empty() bool { return c.Text == "" && !c.Continuation }

// Grid 是栅格化后的排版结果，Cells[y][x]。
type Grid struct {
	Width  int
	Height int
	Cells  [][]Cell
}

// NewGrid 创建 width x height 的空网格。
func NewGrid(width, height int) Grid {
	g := Grid{Width: width, Height: height, Cells: make([][]Cell, height)}
	for y := range g.Cells {
		g.Cells[y] = make([]Cell, width)
	}
	return g
}

// At 返回 (x, y) 处的单元格，越界时返回空单元格。
func (g Grid) At(x, y int) Cell {
	if y < 0 || y >= g.Height || x < 0 || x >= g.Width {
		return Cell{}
	}
	return g.Cells[y][x]
}

// Row 返回第 y 行的纯文本，空单元格以空格代替。
func (g Grid) Row(y int) string {
	if y < 0 || y >= g.Height {
		return ""
	}
	var out []byte
	for _, c := range g.Cells[y] {
		switch {
		case c.Continuation:
		case c.Text == "":
			out = append(out, ' ')
		default:
			out = append(out, c.Text...)
		}
	}
	return string(out)
}

func (g Grid) set(x, y int, c Cell) {
	if y < 0 || y >= g.Height || x < 0 || x >= g.Width {
		return
	}
	g.Cells[y][x] = c
}

// Rasterize 把排版结果中的 run 逐字素写入网格，超出结果宽度的部分被裁掉。
func Rasterize(res *layout.Result) Grid {
	if res == nil {
		return Grid{}
	}
	g := NewGrid(int(math.Ceil(res.Width)), int(math.Ceil(res.Height)))
	for _, rb := range res.Runs {
		x, y := int(math.Floor(rb.X)), int(math.Floor(rb.Y))
		gr := uniseg.NewGraphemes(rb.Text)
		for gr.Next() {
			cluster := gr.Str()
			w := runewidth.StringWidth(cluster)
			if w == 0 {
				continue
			}
			g.set(x, y, Cell{Text: cluster, Style: rb.Style, Action: rb.Action})
			for i := 1; i < w; i++ {
				g.set(x+i, y, Cell{Style: rb.Style, Action: rb.Action, Continuation: true})
			}
			x += w
		}
	}
	return g
}

// Package ansi 把排版结果输出为带 ANSI 样式的终端文本。
package ansi

import (
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer"
	"github.com/ByLCY/inkline/renderer/cell"
)

// Renderer 按单元格栅格化结果，相同样式的连续单元格合并为一段 lipgloss 样式文本。
// 颜色能力取决于目标输出：非终端时退化为纯文本。
type Renderer struct {
	lg *lipgloss.Renderer
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer 创建面向 out 的渲染器，out 为 nil 时使用标准输出。
func NewRenderer(out io.Writer) *Renderer {
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{lg: lipgloss.NewRenderer(out)}
}

// Render 实现 renderer.Renderer，每行以换行结尾，行尾空白被去掉。
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	grid := cell.Rasterize(result)
	var b strings.Builder
	for y := 0; y < grid.Height; y++ {
		b.WriteString(r.renderRow(grid.Cells[y]))
		b.WriteByte('\n')
	}
	return []byte(b.String()), nil
}

func (r *Renderer) renderRow(cells []cell.Cell) string {
	end := len(cells)
	for end > 0 && cells[end-1].Empty() {
		end--
	}

	var (
		b       strings.Builder
		segment strings.Builder
		current attributed.Style
	)
	flush := func() {
		if segment.Len() == 0 {
			return
		}
		b.WriteString(r.style(current).Render(segment.String()))
		segment.Reset()
	}
	for _, c := range cells[:end] {
		if c.Continuation {
			continue
		}
		style := c.Style
		if c.Empty() {
			style = attributed.Style{}
		}
		if style != current {
			flush()
			current = style
		}
		if c.Empty() {
			segment.WriteByte(' ')
		} else {
			segment.WriteString(c.Text)
		}
	}
	flush()
	return b.String()
}

func (r *Renderer) style(s attributed.Style) lipgloss.Style {
	st := r.lg.NewStyle()
	if s.Color.Valid {
		st = st.Foreground(lipgloss.Color(s.Color.Hex()))
	}
	if s.Background.Valid {
		st = st.Background(lipgloss.Color(s.Background.Hex()))
	}
	return st.Bold(s.Bold).Italic(s.Italic).Underline(s.Underline)
}

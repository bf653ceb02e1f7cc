package layout

import (
	"fmt"

	"github.com/ByLCY/inkline/attributed"
)

// Item 是可以放进 Lines 的子元素：给定测量后端与最大宽度，返回自身的排版结果。
type Item interface {
	Layout(m Measurer, maxWidth float64) (Frame, error)
}

// Paragraph 把一段富文本排成自动折行的段落，任意两个 run 之间都可以换行；
// Whole run 作为整体处理，超宽时独占一行。
type Paragraph struct {
	Text attributed.Text
}

// Layout 先测量每个 run，再以 maxWidth 做流式排版。
func (p Paragraph) Layout(m Measurer, maxWidth float64) (Frame, error) {
	runs := p.Text.Runs()
	if len(runs) == 0 {
		return Frame{Texts: []attributed.Text{p.Text}}, nil
	}
	if m == nil {
		return Frame{}, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}

	boxes := make([]Box, len(runs))
	breaks := make([]bool, len(runs))
	for i, run := range runs {
		size, err := m.MeasureRun(run)
		if err != nil {
			return Frame{}, fmt.Errorf("测量 run %q 失败: %w", run.Text, err)
		}
		if run.IsBreak() {
			size.Width = 0
			breaks[i] = true
		}
		boxes[i] = Box{Width: size.Width, Height: size.Height}
	}

	flow := FlowBreaks(boxes, breaks, maxWidth)
	frame := Frame{
		Width:  flow.Width,
		Height: flow.TotalHeight,
		Runs:   make([]RunBox, 0, len(runs)),
		Rows:   flow.Rows,
		Texts:  []attributed.Text{p.Text},
	}
	for i, run := range runs {
		if breaks[i] {
			continue
		}
		pos := flow.Positions[i]
		frame.Runs = append(frame.Runs, RunBox{
			Text:   run.Text,
			X:      pos.X,
			Y:      pos.Y,
			Width:  boxes[i].Width,
			Height: boxes[i].Height,
			Style:  run.Style,
			Action: run.Action,
			Whole:  run.Whole,
		})
	}
	return frame, nil
}

// Fixed 是一个已知尺寸、不含文本的子元素，例如图片或占位。
type Fixed struct {
	Width  float64
	Height float64
}

// Layout 实现 Item，忽略最大宽度。
func (f Fixed) Layout(Measurer, float64) (Frame, error) {
	return Frame{Width: f.Width, Height: f.Height}, nil
}

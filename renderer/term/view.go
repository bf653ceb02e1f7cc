// Package term 在 tcell 屏幕上显示排版结果，并把鼠标点击路由到富文本的点击动作。
package term

import (
	"context"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/zyedidia/clipboard"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer/cell"
)

// BuildFunc 以给定的单元格宽度重新测量并排版文档。
type BuildFunc func(width int) (*layout.Result, error)

// Options 配置 View。
type Options struct {
	// Logger 非空时记录点击与复制。
	Logger *log.Logger
	// Copy 在次键点击时接收被点中文本的全文；为 nil 时写入系统剪贴板。
	Copy func(text string) error
}

// View 持有当前排版结果与其栅格，负责绘制与事件分发。
type View struct {
	screen  tcell.Screen
	build   BuildFunc
	logger  *log.Logger
	copy    func(string) error
	result  *layout.Result
	grid    cell.Grid
	scroll  int
	buttons tcell.ButtonMask
}

// NewView 创建绑定到 screen 的视图，调用方负责 screen 的 Init 与 Fini。
func NewView(screen tcell.Screen, build BuildFunc, opts Options) *View {
	v := &View{screen: screen, build: build, logger: opts.Logger, copy: opts.Copy}
	if v.copy == nil {
		v.copy = writeClipboard
	}
	return v
}

func writeClipboard(text string) error {
	if err := clipboard.Initialize(); err != nil {
		return fmt.Errorf("初始化剪贴板失败: %w", err)
	}
	return clipboard.WriteAll(text, "clipboard")
}

// Result 返回当前排版结果。
func (v *View) Result() *layout.Result { return v.result }

// Layout 按屏幕当前宽度重新测量与排版。
func (v *View) Layout() error {
	width, _ := v.screen.Size()
	res, err := v.build(width)
	if err != nil {
		return fmt.Errorf("重新排版失败: %w", err)
	}
	v.result = res
	v.grid = cell.Rasterize(res)
	v.scrollBy(0)
	return nil
}

// Draw 把网格画到屏幕上，调用方负责 Show。
func (v *View) Draw() {
	v.screen.Clear()
	_, height := v.screen.Size()
	for y := 0; y < height; y++ {
		row := y + v.scroll
		if row >= v.grid.Height {
			break
		}
		for x, c := range v.grid.Cells[row] {
			if c.Empty() || c.Continuation {
				continue
			}
			runes := []rune(c.Text)
			v.screen.SetContent(x, y, runes[0], runes[1:], cellStyle(c.Style))
		}
	}
}

// HandleEvent 处理鼠标与滚动按键，返回事件是否被消费。
// 主键按下时分发点击动作，次键按下时复制所在文本；按住不放不会重复触发。
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventMouse:
		return v.handleMouse(ev)
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyUp:
			v.scrollBy(-1)
		case tcell.KeyDown:
			v.scrollBy(1)
		case tcell.KeyPgUp:
			v.scrollBy(-v.pageHeight())
		case tcell.KeyPgDn:
			v.scrollBy(v.pageHeight())
		default:
			return false
		}
		return true
	}
	return false
}

func (v *View) handleMouse(ev *tcell.EventMouse) bool {
	buttons := ev.Buttons()
	pressed := buttons &^ v.buttons
	v.buttons = buttons

	if buttons&tcell.WheelUp != 0 {
		v.scrollBy(-1)
		return true
	}
	if buttons&tcell.WheelDown != 0 {
		v.scrollBy(1)
		return true
	}

	x, y := ev.Position()
	// 取单元格中心做命中测试
	px, py := float64(x)+0.5, float64(y+v.scroll)+0.5
	switch {
	case pressed&tcell.ButtonPrimary != 0:
		if v.result.Tap(px, py) {
			v.logf("点击 (%d,%d)", x, y+v.scroll)
		}
		return true
	case pressed&tcell.ButtonSecondary != 0:
		rb, ok := v.result.RunAt(px, py)
		if !ok {
			return true
		}
		txt, ok := v.result.Text(rb.Source)
		if !ok {
			return true
		}
		if err := v.copy(txt.String()); err != nil {
			v.logf("复制失败: %v", err)
		} else {
			v.logf("已复制 %q", txt.String())
		}
		return true
	}
	return false
}

// Run 启动事件循环：每次尺寸变化重新排版，Esc、q 或 Ctrl-C 退出，ctx 取消时返回。
func (v *View) Run(ctx context.Context) error {
	if err := v.Layout(); err != nil {
		return err
	}
	v.screen.EnableMouse()

	events := make(chan tcell.Event)
	quit := make(chan struct{})
	defer close(quit)
	go v.screen.ChannelEvents(events, quit)

	for {
		v.Draw()
		v.screen.Show()

		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev := ev.(type) {
			case *tcell.EventResize:
				v.screen.Sync()
				if err := v.Layout(); err != nil {
					return err
				}
			case *tcell.EventKey:
				if isQuit(ev) {
					return nil
				}
				v.HandleEvent(ev)
			default:
				v.HandleEvent(ev)
			}
		}
	}
}

func isQuit(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return ev.Rune() == 'q'
	}
	return false
}

func (v *View) pageHeight() int {
	_, h := v.screen.Size()
	if h < 1 {
		return 1
	}
	return h
}

func (v *View) scrollBy(delta int) {
	_, h := v.screen.Size()
	v.scroll += delta
	if limit := v.grid.Height - h; v.scroll > limit {
		v.scroll = limit
	}
	if v.scroll < 0 {
		v.scroll = 0
	}
}

func (v *View) logf(format string, args ...any) {
	if v.logger != nil {
		v.logger.Printf(format, args...)
	}
}

func cellStyle(s attributed.Style) tcell.Style {
	st := tcell.StyleDefault
	if s.Color.Valid {
		st = st.Foreground(tcell.NewRGBColor(int32(s.Color.R), int32(s.Color.G), int32(s.Color.B)))
	}
	if s.Background.Valid {
		st = st.Background(tcell.NewRGBColor(int32(s.Background.R), int32(s.Background.G), int32(s.Background.B)))
	}
	return st.Bold(s.Bold).Italic(s.Italic).Underline(s.Underline)
}

package term

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer/cell"
)

const viewDoc = `doc V v1 {
  resources {
    color Accent = #FF0000
    style Link {
      color: Accent
      underline: true
    }
  }
  view width 40 {
    text { "Test " span Link tap greet { "Tap" } " me" }
  }
}`

func newScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	if err := s.Init(); err != nil {
		t.Fatalf("初始化屏幕失败: %v", err)
	}
	s.SetSize(w, h)
	t.Cleanup(s.Fini)
	return s
}

func newView(t *testing.T, s tcell.Screen, tapped *int, copied *string) (*View, *[]int) {
	t.Helper()
	doc, err := dsl.ParseString(viewDoc)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	var widths []int
	build := func(width int) (*layout.Result, error) {
		widths = append(widths, width)
		return layout.Build(doc, nil, layout.BuildOptions{
			Measurer: cell.Measurer{},
			Width:    float64(width),
			Actions: func(name string) attributed.Action {
				return func() { *tapped++ }
			},
		})
	}
	v := NewView(s, build, Options{Copy: func(text string) error {
		*copied = text
		return nil
	}})
	return v, &widths
}

func TestViewDrawsStyledCells(t *testing.T) {
	s := newScreen(t, 20, 5)
	var tapped int
	var copied string
	v, widths := newView(t, s, &tapped, &copied)
	if err := v.Layout(); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	if len(*widths) != 1 || (*widths)[0] != 20 {
		t.Fatalf("应按屏幕宽度排版，实际 %v", *widths)
	}
	v.Draw()
	s.Show()

	if r, _, _, _ := s.GetContent(0, 0); r != 'T' {
		t.Fatalf("(0,0) 处应为 T，实际 %q", r)
	}
	r, _, style, _ := s.GetContent(5, 0)
	if r != 'T' {
		t.Fatalf("(5,0) 处应为链接文本，实际 %q", r)
	}
	fg, _, attrs := style.Decompose()
	if fg != tcell.NewRGBColor(255, 0, 0) || attrs&tcell.AttrUnderline == 0 {
		t.Fatalf("链接样式未生效: fg=%v attrs=%v", fg, attrs)
	}
}

func TestViewPrimaryPressDispatchesOnce(t *testing.T) {
	s := newScreen(t, 20, 5)
	var tapped int
	var copied string
	v, _ := newView(t, s, &tapped, &copied)
	if err := v.Layout(); err != nil {
		t.Fatalf("排版失败: %v", err)
	}

	press := tcell.NewEventMouse(6, 0, tcell.ButtonPrimary, tcell.ModNone)
	release := tcell.NewEventMouse(6, 0, tcell.ButtonNone, tcell.ModNone)
	v.HandleEvent(press)
	v.HandleEvent(press) // 拖动中仍按住
	if tapped != 1 {
		t.Fatalf("按住按键只应触发一次，实际 %d", tapped)
	}
	v.HandleEvent(release)
	v.HandleEvent(press)
	if tapped != 2 {
		t.Fatalf("再次点击应再次触发，实际 %d", tapped)
	}

	v.HandleEvent(release)
	v.HandleEvent(tcell.NewEventMouse(1, 0, tcell.ButtonPrimary, tcell.ModNone))
	v.HandleEvent(release)
	v.HandleEvent(tcell.NewEventMouse(15, 3, tcell.ButtonPrimary, tcell.ModNone))
	if tapped != 2 {
		t.Fatalf("点击普通文本或空白处不应触发，实际 %d", tapped)
	}
}

func TestViewSecondaryPressCopiesText(t *testing.T) {
	s := newScreen(t, 20, 5)
	var tapped int
	var copied string
	v, _ := newView(t, s, &tapped, &copied)
	if err := v.Layout(); err != nil {
		t.Fatalf("排版失败: %v", err)
	}
	v.HandleEvent(tcell.NewEventMouse(2, 0, tcell.ButtonSecondary, tcell.ModNone))
	if copied != "Test Tap me" {
		t.Fatalf("复制的文本不正确: %q", copied)
	}
	if tapped != 0 {
		t.Fatalf("右键点击不应触发动作")
	}
}

func TestViewRunRelayoutsAndQuits(t *testing.T) {
	s := newScreen(t, 20, 5)
	var tapped int
	var copied string
	v, widths := newView(t, s, &tapped, &copied)

	done := make(chan error, 1)
	go func() { done <- v.Run(context.Background()) }()

	if err := s.PostEvent(tcell.NewEventResize(12, 5)); err != nil {
		t.Fatalf("发送 resize 事件失败: %v", err)
	}
	if err := s.PostEvent(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)); err != nil {
		t.Fatalf("发送按键事件失败: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run 返回错误: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("Run 未退出")
	}
	if len(*widths) < 2 {
		t.Fatalf("resize 应触发重新排版，builds=%v", *widths)
	}
}

func TestViewRunStopsOnCancel(t *testing.T) {
	s := newScreen(t, 20, 5)
	var tapped int
	var copied string
	v, _ := newView(t, s, &tapped, &copied)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run 返回错误: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("取消后 Run 未停止")
	}
}

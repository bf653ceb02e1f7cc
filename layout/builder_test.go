package layout

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/dsl"
)

// cellMeasurer 是测试用的最小测量后端：每个字符 1 宽，高度 1，避免引入 renderer 造成循环依赖。
var cellMeasurer = MeasurerFunc(func(run attributed.Run) (Size, error) {
	return Size{Width: float64(utf8.RuneCountInString(run.Text)), Height: 1}, nil
})

func buildDoc(t *testing.T, dslText string, data any, opts BuildOptions) *Result {
	t.Helper()
	doc, err := dsl.Parse(strings.NewReader(dslText))
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if opts.Measurer == nil {
		opts.Measurer = cellMeasurer
	}
	res, err := Build(doc, data, opts)
	if err != nil {
		t.Fatalf("布局计算失败: %v", err)
	}
	return res
}

func decodeJSON(t *testing.T, raw string) any {
	t.Helper()
	var data any
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		t.Fatalf("解析 JSON 失败: %v", err)
	}
	return data
}

const demoDoc = `doc Demo v1 {
  meta {
    title: "Demo"
  }
  resources {
    color Accent = #0F62FE
    style Link {
      color: Accent
      underline: true
    }
    style Strong extends Link {
      bold: true
    }
  }
  view width 20 gap 1 {
    text { "Test " span Link tap greet { "Tappable" } " Short" }
    text whole { "never split" }
  }
}`

func TestBuildStacksBlocksAndRoutesTaps(t *testing.T) {
	greeted := 0
	res := buildDoc(t, demoDoc, nil, BuildOptions{
		Actions: func(name string) attributed.Action {
			if name != "greet" {
				return nil
			}
			return func() { greeted++ }
		},
	})

	if res.Meta.Title != "Demo" {
		t.Fatalf("meta.title 不正确: %q", res.Meta.Title)
	}
	if len(res.Blocks) != 2 {
		t.Fatalf("期望 2 个块，实际 %d", len(res.Blocks))
	}
	first, second := res.Blocks[0], res.Blocks[1]
	if first.Y != 0 || first.Height != 1 || first.Width != 19 {
		t.Fatalf("第一段应占一行宽 19，实际 %+v", first)
	}
	if second.Y != 2 || res.Height != 3 {
		t.Fatalf("gap 未生效: second=%+v height=%g", second, res.Height)
	}
	if n := second.RunEnd - second.RunStart; n != 1 {
		t.Fatalf("whole 文本应只有 1 个 run，实际 %d", n)
	}
	if res.Runs[second.RunStart].Text != "never split" {
		t.Fatalf("whole run 内容不正确: %q", res.Runs[second.RunStart].Text)
	}

	link, ok := res.RunAt(5.5, 0.5)
	if !ok || link.Text != "T" || link.Action == attributed.NoAction {
		t.Fatalf("x=5 处应是可点击的 T，实际 %+v", link)
	}
	if !link.Style.Underline || link.Style.Color.Hex() != "#0f62fe" {
		t.Fatalf("Link 样式未应用: %+v", link.Style)
	}
	if !res.Tap(12.5, 0.5) || greeted != 1 {
		t.Fatalf("点击 Tappable 的最后一个字符应触发动作，greeted=%d", greeted)
	}
	if res.Tap(1.5, 0.5) || res.Tap(15.5, 0.5) || greeted != 1 {
		t.Fatalf("点击普通文本不应触发动作，greeted=%d", greeted)
	}
	if res.Tap(50, 50) {
		t.Fatalf("空白处点击应被忽略")
	}
}

func TestBuildResolvesStyleInheritance(t *testing.T) {
	res := buildDoc(t, demoDoc, nil, BuildOptions{})
	strong, ok := res.Resources.Styles["Strong"]
	if !ok {
		t.Fatalf("缺少 Strong 样式")
	}
	if strong.Props["bold"] != "true" || strong.Props["underline"] != "true" || strong.Props["color"] != "Accent" {
		t.Fatalf("extends 未合并父样式属性: %+v", strong.Props)
	}
}

func TestBuildIgnoresTapsWithoutResolver(t *testing.T) {
	res := buildDoc(t, demoDoc, nil, BuildOptions{})
	for _, rb := range res.Runs {
		if rb.Action != attributed.NoAction {
			t.Fatalf("未设置 Actions 时不应绑定动作: %+v", rb)
		}
	}
}

func TestBuildRejectsUnknownAction(t *testing.T) {
	doc, err := dsl.ParseString(demoDoc)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	_, err = Build(doc, nil, BuildOptions{
		Measurer: cellMeasurer,
		Actions:  func(string) attributed.Action { return nil },
	})
	if err == nil || !strings.Contains(err.Error(), "greet") {
		t.Fatalf("未注册的动作应报错，实际 %v", err)
	}
}

func TestBuildRejectsStyleCycle(t *testing.T) {
	dslText := `doc C v1 {
  resources {
    style A extends B {
      bold: true
    }
    style B extends A {
      italic: true
    }
  }
  view width 10 {
    text A { "x" }
  }
}`
	doc, err := dsl.ParseString(dslText)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, nil, BuildOptions{Measurer: cellMeasurer}); err == nil || !strings.Contains(err.Error(), "循环") {
		t.Fatalf("循环继承应报错，实际 %v", err)
	}
}

func TestBuildExpandsEachIntoLines(t *testing.T) {
	dslText := `doc E v1 {
  view width 10 {
    lines padding 1 0 {
      each tags { "${item}" }
    }
  }
}`
	data := decodeJSON(t, `{"tags":["ab","cde","f"]}`)
	res := buildDoc(t, dslText, data, BuildOptions{})

	if len(res.Blocks) != 1 || res.Blocks[0].Kind != "lines" {
		t.Fatalf("期望 1 个 lines 块，实际 %+v", res.Blocks)
	}
	items := res.Blocks[0].Items
	if len(items) != 3 {
		t.Fatalf("each 应展开为 3 个子元素，实际 %d", len(items))
	}
	// 盒子宽度 4、5、3，宽 10 时第三个换到下一行。
	if items[0].X != 0 || items[1].X != 4 || items[2].X != 0 || items[2].Y != 1 {
		t.Fatalf("子元素位置不正确: %+v", items)
	}
	if res.Blocks[0].Height != 2 {
		t.Fatalf("lines 高度应为 2，实际 %g", res.Blocks[0].Height)
	}

	var text strings.Builder
	for _, rb := range res.Runs {
		text.WriteString(rb.Text)
	}
	if text.String() != "abcdef" {
		t.Fatalf("run 内容不正确: %q", text.String())
	}
	if res.Runs[0].X != 1 || res.Runs[2].X != 5 {
		t.Fatalf("run 未按内边距偏移: %+v", res.Runs[:3])
	}
}

func TestBuildLinesDefaultPadding(t *testing.T) {
	dslText := `doc P v1 {
  view width 40 {
    lines {
      text { "x" }
      spacer width 2 height 3
    }
  }
}`
	res := buildDoc(t, dslText, nil, BuildOptions{})
	items := res.Blocks[0].Items
	if len(items) != 2 {
		t.Fatalf("期望 2 个子元素，实际 %d", len(items))
	}
	if items[0].Width != 1+2*DefaultPadding || items[0].Height != 1+2*DefaultPadding {
		t.Fatalf("默认内边距未生效: %+v", items[0])
	}
	if items[1].X != items[0].Width || items[1].Height != 3+2*DefaultPadding {
		t.Fatalf("spacer 位置或尺寸不正确: %+v", items[1])
	}
	if rb := res.Runs[0]; rb.X != DefaultPadding || rb.Y != DefaultPadding {
		t.Fatalf("run 未按默认内边距偏移: %+v", rb)
	}
}

func TestBuildLineBreakAndWidthOverride(t *testing.T) {
	dslText := `doc B v1 {
  view width 3 {
    text { "ab" br "cd" }
  }
}`
	res := buildDoc(t, dslText, nil, BuildOptions{Width: 100, Debug: DebugOptions{Rows: true}})
	if res.Width != 100 {
		t.Fatalf("BuildOptions.Width 应覆盖 view 宽度，实际 %g", res.Width)
	}
	if len(res.Runs) != 4 {
		t.Fatalf("换行 run 不应出现在结果中，实际 %d 个 run", len(res.Runs))
	}
	if c := res.Runs[2]; c.Text != "c" || c.X != 0 || c.Y != 1 {
		t.Fatalf("br 之后应换行，实际 %+v", c)
	}
	if len(res.Blocks[0].Rows) != 2 {
		t.Fatalf("Debug.Rows 时应保留 2 行信息，实际 %+v", res.Blocks[0].Rows)
	}

	plain := buildDoc(t, dslText, nil, BuildOptions{})
	if plain.Blocks[0].Rows != nil {
		t.Fatalf("未开启 Debug.Rows 时不应输出行信息")
	}
	if plain.Height != 2 {
		t.Fatalf("高度应为 2，实际 %g", plain.Height)
	}
}

func TestBuildRequiresWidth(t *testing.T) {
	doc, err := dsl.ParseString(`doc W v1 { view { text { "x" } } }`)
	if err != nil {
		t.Fatalf("解析 DSL 失败: %v", err)
	}
	if _, err := Build(doc, nil, BuildOptions{Measurer: cellMeasurer}); err == nil {
		t.Fatalf("缺少宽度时应报错")
	}
	if _, err := Build(doc, nil, BuildOptions{}); err == nil {
		t.Fatalf("缺少 Measurer 时应报错")
	}
}

type recordingRegistrar struct {
	MeasurerFunc
	fonts []FontResource
}

func (r *recordingRegistrar) RegisterFont(font FontResource) error {
	r.fonts = append(r.fonts, font)
	return nil
}

func TestBuildRegistersDeclaredFonts(t *testing.T) {
	dslText := `doc F v1 {
  resources {
    font Serif {
      src: "fonts/Serif.ttf"
      style: "italic"
    }
  }
  view width 10 {
    text font Serif { "x" }
  }
}`
	reg := &recordingRegistrar{MeasurerFunc: cellMeasurer}
	res := buildDoc(t, dslText, nil, BuildOptions{Measurer: reg})
	if len(reg.fonts) != 1 || reg.fonts[0].Src != "fonts/Serif.ttf" || reg.fonts[0].Style != "italic" {
		t.Fatalf("字体未注册: %+v", reg.fonts)
	}
	if res.Runs[0].Style.Font != "Serif" {
		t.Fatalf("行内 font 参数未生效: %+v", res.Runs[0].Style)
	}
}

package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/binding"
	"github.com/ByLCY/inkline/dsl"
)

var (
	// 文本参数中不带值的开关。
	textFlags = map[string]bool{"whole": true, "underline": true, "bold": true, "italic": true}
	// 文本参数中带一个值的键。
	textKeys = map[string]bool{"color": true, "background": true, "font": true, "size": true, "tap": true}
)

// Build 根据 DSL AST 与绑定数据生成排版结果。
func Build(doc *dsl.Document, data any, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Measurer == nil {
		return nil, fmt.Errorf("layout: 缺少测量后端 Measurer")
	}

	res, err := collectResources(doc)
	if err != nil {
		return nil, err
	}
	if reg, ok := opts.Measurer.(FontRegistrar); ok {
		for _, font := range res.Fonts {
			if err := reg.RegisterFont(font); err != nil {
				return nil, fmt.Errorf("注册字体 %s 失败: %w", font.Name, err)
			}
		}
	}

	view := firstView(doc)
	if view == nil {
		return nil, fmt.Errorf("文档中缺少 view 段落")
	}
	params, err := parsePairs(view.Params)
	if err != nil {
		return nil, fmt.Errorf("view 参数错误: %w", err)
	}
	width := opts.Width
	if width <= 0 {
		width = parseLength(params["width"])
	}
	if width <= 0 {
		return nil, fmt.Errorf("view 缺少有效宽度")
	}
	gap := parseLength(params["gap"])

	b := &builder{res: res, opts: opts}
	out := NewResult(width)
	out.Meta = collectMeta(doc)
	out.Resources = res

	for _, stmt := range view.Block.Statements {
		if stmt.Assignment != nil {
			continue
		}
		kind, item, err := b.viewItem(stmt, data)
		if err != nil {
			return nil, err
		}
		frame, err := item.Layout(opts.Measurer, width)
		if err != nil {
			return nil, fmt.Errorf("%s 排版失败: %w", kind, err)
		}
		out.Append(kind, frame, gap)
	}

	if !opts.Debug.Rows {
		for i := range out.Blocks {
			out.Blocks[i].Rows = nil
		}
	}
	return out, nil
}

type builder struct {
	res  ResourceSet
	opts BuildOptions
}

// viewItem 处理 view 中的一条语句：text 生成段落，lines 生成折行容器，裸字符串视为默认样式的段落。
func (b *builder) viewItem(stmt *dsl.Statement, data any) (string, Item, error) {
	if stmt.Text != nil {
		s := binding.Interpolate(string(stmt.Text.Value), data)
		return "text", Paragraph{Text: attributed.New(s, attributed.Style{})}, nil
	}
	cmd := stmt.Command
	switch cmd.Name {
	case "text":
		txt, err := b.compose(cmd.Args, cmd.Block, attributed.Style{}, data, "text")
		if err != nil {
			return "", nil, err
		}
		return "text", Paragraph{Text: txt}, nil
	case "lines":
		lines, err := b.lines(cmd, data)
		if err != nil {
			return "", nil, err
		}
		return "lines", lines, nil
	default:
		return "", nil, fmt.Errorf("view 中不支持的命令 %s（第 %d 行）", cmd.Name, cmd.Pos.Line)
	}
}

// compose 把 text/span 的文本块组合成富文本：字面量逐字素拆成 run，span 递归组合，
// 整个块视为一个逻辑单元，tap 绑定到其中尚未绑定动作的 run。
func (b *builder) compose(args []*dsl.Lexeme, block *dsl.Block, parent attributed.Style, data any, what string) (attributed.Text, error) {
	styleName, attrs, flags, err := parseTextArgs(args)
	if err != nil {
		return attributed.Text{}, fmt.Errorf("%s 参数错误: %w", what, err)
	}
	style, err := b.applyStyle(parent, styleName, attrs, flags)
	if err != nil {
		return attributed.Text{}, err
	}
	if block == nil {
		return attributed.Text{}, fmt.Errorf("%s 语句缺少文本块", what)
	}

	var parts []attributed.Text
	for _, stmt := range block.Statements {
		switch {
		case stmt.Text != nil:
			s := binding.Interpolate(string(stmt.Text.Value), data)
			parts = append(parts, attributed.New(s, style))
		case stmt.Command != nil && stmt.Command.Name == "span":
			child, err := b.compose(stmt.Command.Args, stmt.Command.Block, style, data, "span")
			if err != nil {
				return attributed.Text{}, err
			}
			parts = append(parts, child)
		case stmt.Command != nil && stmt.Command.Name == "br":
			parts = append(parts, attributed.New("\n", style))
		case stmt.Command != nil:
			return attributed.Text{}, fmt.Errorf("%s 中不支持的命令 %s", what, stmt.Command.Name)
		}
	}

	txt := attributed.Group(parts...)
	if flags["whole"] {
		txt = txt.Whole()
	}
	if name := attrs["tap"]; name != "" {
		action, err := b.action(name)
		if err != nil {
			return attributed.Text{}, err
		}
		txt = txt.OnTap(action)
	}
	return txt, nil
}

func (b *builder) action(name string) (attributed.Action, error) {
	if b.opts.Actions == nil {
		return nil, nil
	}
	action := b.opts.Actions(name)
	if action == nil {
		return nil, fmt.Errorf("动作 %s 未注册", name)
	}
	return action, nil
}

// lines 构建折行容器：支持 text、嵌套 lines、each 数据源与 spacer 占位。
func (b *builder) lines(cmd *dsl.Command, data any) (Lines, error) {
	if cmd.Block == nil {
		return Lines{}, fmt.Errorf("lines 语句缺少子内容")
	}
	padH, padV, err := parsePadding(cmd.Args)
	if err != nil {
		return Lines{}, fmt.Errorf("lines 参数错误: %w", err)
	}

	var items []Item
	for _, stmt := range cmd.Block.Statements {
		child := stmt.Command
		if child == nil {
			continue
		}
		switch child.Name {
		case "text":
			txt, err := b.compose(child.Args, child.Block, attributed.Style{}, data, "text")
			if err != nil {
				return Lines{}, err
			}
			items = append(items, Paragraph{Text: txt})
		case "lines":
			nested, err := b.lines(child, data)
			if err != nil {
				return Lines{}, err
			}
			items = append(items, nested)
		case "each":
			expanded, err := b.each(child, data)
			if err != nil {
				return Lines{}, err
			}
			items = append(items, expanded.items...)
		case "spacer":
			pairs, err := parsePairs(child.Args)
			if err != nil {
				return Lines{}, fmt.Errorf("spacer 参数错误: %w", err)
			}
			items = append(items, Fixed{Width: parseLength(pairs["width"]), Height: parseLength(pairs["height"])})
		default:
			return Lines{}, fmt.Errorf("lines 中不支持的命令 %s（第 %d 行）", child.Name, child.Pos.Line)
		}
	}
	return NewLines(items...).WithPadding(padH, padV), nil
}

// each 用数据源模式展开：路径指向的数组中每个元素渲染一次文本块，元素以 item、下标以 index 引用。
func (b *builder) each(cmd *dsl.Command, data any) (Lines, error) {
	path, rest := splitPath(cmd.Args)
	if path == "" {
		return Lines{}, fmt.Errorf("each 缺少数据路径（第 %d 行）", cmd.Pos.Line)
	}
	values := binding.Items(data, path)

	index := 0
	var firstErr error
	lines := LinesOf(values, func(v any) Item {
		scope := binding.Scope(binding.Scope(data, "item", v), "index", index)
		index++
		txt, err := b.compose(rest, cmd.Block, attributed.Style{}, scope, "each")
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return Paragraph{Text: txt}
	})
	if firstErr != nil {
		return Lines{}, firstErr
	}
	return lines, nil
}

// applyStyle 依次叠加：父样式、命名样式的属性、行内属性与开关。
func (b *builder) applyStyle(parent attributed.Style, name string, attrs map[string]string, flags map[string]bool) (attributed.Style, error) {
	style := parent
	if name != "" {
		def, ok := b.res.Styles[name]
		if !ok {
			return style, fmt.Errorf("style %s 未定义", name)
		}
		if err := b.applyProps(&style, def.Props); err != nil {
			return style, fmt.Errorf("style %s: %w", name, err)
		}
	}
	if err := b.applyProps(&style, attrs); err != nil {
		return style, err
	}
	for flag := range flags {
		if flag == "whole" {
			continue
		}
		if err := b.applyProps(&style, map[string]string{flag: "true"}); err != nil {
			return style, err
		}
	}
	return style, nil
}

func (b *builder) applyProps(style *attributed.Style, props map[string]string) error {
	for key, val := range props {
		switch key {
		case "color":
			c, err := b.resolveColor(val)
			if err != nil {
				return err
			}
			style.Color = c
		case "background":
			c, err := b.resolveColor(val)
			if err != nil {
				return err
			}
			style.Background = c
		case "font":
			style.Font = val
		case "size":
			size := parseLength(val)
			if size <= 0 {
				return fmt.Errorf("字号 %s 无效", val)
			}
			style.Size = size
		case "underline":
			style.Underline = isTrue(val)
		case "bold":
			style.Bold = isTrue(val)
		case "italic":
			style.Italic = isTrue(val)
		}
	}
	return nil
}

func (b *builder) resolveColor(value string) (attributed.Color, error) {
	if c, ok := b.res.Colors[value]; ok {
		return c, nil
	}
	return attributed.ParseColor(value)
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "on", "1":
		return true
	}
	return false
}

func collectResources(doc *dsl.Document) (ResourceSet, error) {
	res := ResourceSet{
		Colors: map[string]attributed.Color{},
		Fonts:  map[string]FontResource{},
		Styles: map[string]StyleDef{},
	}
	for _, section := range doc.Sections {
		if section.Resources == nil || section.Resources.Block == nil {
			continue
		}
		for _, stmt := range section.Resources.Block.Statements {
			cmd := stmt.Command
			if cmd == nil || len(cmd.Args) == 0 {
				continue
			}
			name := cmd.Args[0].Value
			switch cmd.Name {
			case "color":
				value := cmd.Args[len(cmd.Args)-1].Value
				c, err := attributed.ParseColor(value)
				if err != nil {
					return res, fmt.Errorf("color %s: %w", name, err)
				}
				res.Colors[name] = c
			case "font":
				res.Fonts[name] = parseFontResource(name, cmd.Block)
			case "style":
				def := StyleDef{Name: name, Props: map[string]string{}}
				if len(cmd.Args) >= 3 && strings.EqualFold(cmd.Args[1].Value, "extends") {
					def.Extends = cmd.Args[2].Value
				}
				if cmd.Block != nil {
					for _, st := range cmd.Block.Statements {
						if st.Assignment != nil {
							def.Props[st.Assignment.Key] = st.Assignment.Value.Text()
						}
					}
				}
				res.Styles[name] = def
			}
		}
	}
	styles, err := resolveStyles(res.Styles)
	if err != nil {
		return res, err
	}
	res.Styles = styles
	return res, nil
}

func parseFontResource(name string, block *dsl.Block) FontResource {
	font := FontResource{Name: name}
	if block == nil {
		return font
	}
	for _, stmt := range block.Statements {
		if stmt.Assignment == nil {
			continue
		}
		switch stmt.Assignment.Key {
		case "src":
			font.Src = stmt.Assignment.Value.Text()
		case "style":
			font.Style = stmt.Assignment.Value.Text()
		}
	}
	return font
}

// resolveStyles 展开 extends 继承链，子样式的属性覆盖父样式。
func resolveStyles(styles map[string]StyleDef) (map[string]StyleDef, error) {
	resolved := map[string]StyleDef{}
	visiting := map[string]bool{}

	var dfs func(name string) (StyleDef, error)
	dfs = func(name string) (StyleDef, error) {
		if def, ok := resolved[name]; ok {
			return def, nil
		}
		def, ok := styles[name]
		if !ok {
			return StyleDef{}, fmt.Errorf("style %s 未定义", name)
		}
		if visiting[name] {
			return StyleDef{}, fmt.Errorf("style 继承存在循环：%s", name)
		}
		visiting[name] = true

		props := map[string]string{}
		if def.Extends != "" {
			parent, err := dfs(def.Extends)
			if err != nil {
				return StyleDef{}, err
			}
			for k, v := range parent.Props {
				props[k] = v
			}
		}
		for k, v := range def.Props {
			props[k] = v
		}
		def.Props = props
		resolved[name] = def
		delete(visiting, name)
		return def, nil
	}

	for name := range styles {
		if _, err := dfs(name); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

func collectMeta(doc *dsl.Document) DocumentMeta {
	var meta DocumentMeta
	for _, section := range doc.Sections {
		if section.Meta == nil || section.Meta.Block == nil {
			continue
		}
		for _, stmt := range section.Meta.Block.Statements {
			if stmt.Assignment == nil {
				continue
			}
			val := stmt.Assignment.Value
			switch stmt.Assignment.Key {
			case "title":
				meta.Title = val.Text()
			case "author":
				meta.Author = val.Text()
			case "subject":
				meta.Subject = val.Text()
			case "creator":
				meta.Creator = val.Text()
			case "keywords":
				meta.Keywords = val.Strings()
			}
		}
	}
	return meta
}

func firstView(doc *dsl.Document) *dsl.ViewSection {
	for _, section := range doc.Sections {
		if section.View != nil {
			return section.View
		}
	}
	return nil
}

// parseTextArgs 解析 `[样式名] [键 值]... [开关]...` 形式的参数。
func parseTextArgs(args []*dsl.Lexeme) (string, map[string]string, map[string]bool, error) {
	attrs := map[string]string{}
	flags := map[string]bool{}
	var style string
	for i := 0; i < len(args); i++ {
		v := args[i].Value
		switch {
		case textFlags[v]:
			flags[v] = true
		case textKeys[v] && i+1 < len(args):
			attrs[v] = args[i+1].Value
			i++
		case i == 0 && args[i].Type == "Ident":
			style = v
		default:
			return "", nil, nil, fmt.Errorf("无法识别的参数 %s", args[i].Raw)
		}
	}
	return style, attrs, flags, nil
}

// parsePairs 解析 `键 值` 成对出现的参数。
func parsePairs(args []*dsl.Lexeme) (map[string]string, error) {
	out := map[string]string{}
	if len(args)%2 != 0 {
		return nil, fmt.Errorf("参数需成对出现")
	}
	for i := 0; i < len(args); i += 2 {
		out[args[i].Value] = args[i+1].Value
	}
	return out, nil
}

// parsePadding 解析 `padding 水平 [垂直]`，省略时使用默认内边距。
func parsePadding(args []*dsl.Lexeme) (float64, float64, error) {
	h, v := DefaultPadding, DefaultPadding
	for i := 0; i < len(args); i++ {
		if args[i].Value != "padding" {
			return 0, 0, fmt.Errorf("无法识别的参数 %s", args[i].Raw)
		}
		var vals []float64
		for j := i + 1; j < len(args) && len(vals) < 2; j++ {
			l, err := ParseLength(args[j].Value)
			if err != nil {
				break
			}
			vals = append(vals, l.ToMM())
		}
		switch len(vals) {
		case 0:
			return 0, 0, fmt.Errorf("padding 缺少数值")
		case 1:
			h, v = vals[0], vals[0]
		case 2:
			h, v = vals[0], vals[1]
		}
		i += len(vals)
	}
	return h, v, nil
}

// splitPath 取出开头的 a.b.c 数据路径，返回路径与剩余参数。
func splitPath(args []*dsl.Lexeme) (string, []*dsl.Lexeme) {
	if len(args) == 0 || args[0].Type != "Ident" {
		return "", args
	}
	var b strings.Builder
	b.WriteString(args[0].Value)
	i := 1
	for i+1 < len(args) && args[i].Value == "." && args[i+1].Type == "Ident" {
		b.WriteString(".")
		b.WriteString(args[i+1].Value)
		i += 2
	}
	return b.String(), args[i:]
}

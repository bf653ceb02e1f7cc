package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/term"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/dsl"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer"
	"github.com/ByLCY/inkline/renderer/ansi"
	canvasrenderer "github.com/ByLCY/inkline/renderer/canvas"
	"github.com/ByLCY/inkline/renderer/cell"
	termview "github.com/ByLCY/inkline/renderer/term"
)

func main() {
	input := flag.String("in", "examples/demo.ink", "DSL 文件路径")
	output := flag.String("out", "", "输出路径，默认 output/<文件名>.<格式>；ansi 格式默认输出到终端")
	format := flag.String("format", "pdf", "输出格式：pdf | svg | ansi")
	width := flag.Float64("width", 0, "覆盖文档 view 的宽度；ansi 格式为 0 时使用终端宽度")
	debug := flag.String("debug", "", "布局调试 JSON 输出路径")
	debugRows := flag.Bool("debug-rows", false, "在调试 JSON 中输出每个块的行信息")
	dataJSON := flag.String("data", "", "绑定到 DSL 的 JSON 数据")
	interactive := flag.Bool("interactive", false, "在终端中交互显示，点击可触发 tap 动作")
	logPath := flag.String("log", "", "点击日志输出路径（交互模式）")
	flag.Parse()

	var inputData any
	if *dataJSON != "" {
		if err := json.Unmarshal([]byte(*dataJSON), &inputData); err != nil {
			log.Fatalf("解析 data JSON 失败: %v", err)
		}
	}

	doc, err := parseFile(*input)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if *interactive {
		tapLog, closeLog, err := openTapLog(*logPath)
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer closeLog()
		if err := runInteractive(doc, inputData, tapLog); err != nil {
			log.Fatalf("交互显示失败: %v", err)
		}
		return
	}

	var r renderer.Renderer
	switch *format {
	case "pdf", "svg":
		r = canvasrenderer.NewRendererWithOptions(canvasrenderer.Options{
			BaseDir: filepath.Dir(*input),
			Format:  canvasrenderer.Format(*format),
		})
	case "ansi":
		r = ansi.NewRenderer(os.Stdout)
		if *width <= 0 {
			*width = terminalWidth()
		}
	default:
		log.Fatalf("不支持的输出格式 %s", *format)
	}

	outPath := *output
	if outPath == "" && *format != "ansi" {
		base := strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
		outPath = filepath.Join("output", base+"."+*format)
	}

	opts := layout.BuildOptions{
		Width:   *width,
		Actions: actionResolver(log.Default()),
		Debug:   layout.DebugOptions{Rows: *debugRows},
	}
	if err := run(doc, outPath, *debug, inputData, opts, r); err != nil {
		log.Fatalf("生成输出失败: %v", err)
	}
	if outPath != "" {
		fmt.Printf("已生成 %s：%s\n", strings.ToUpper(*format), outPath)
	}
}

func parseFile(path string) (*dsl.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DSL 文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := dsl.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("解析 DSL 失败: %w", err)
	}
	return doc, nil
}

// run 串联布局与渲染；outputPath 为空时写到标准输出。
func run(doc *dsl.Document, outputPath, debugPath string, data any, opts layout.BuildOptions, r renderer.Renderer) error {
	if r == nil {
		return fmt.Errorf("renderer 不能为空")
	}
	if m, ok := r.(layout.Measurer); ok {
		opts.Measurer = m
	} else {
		opts.Measurer = cell.Measurer{}
	}

	result, err := layout.Build(doc, data, opts)
	if err != nil {
		return fmt.Errorf("布局计算失败: %w", err)
	}

	if debugPath != "" {
		if err := layout.WriteDebugJSON(result, debugPath); err != nil {
			return fmt.Errorf("输出调试 JSON 失败: %w", err)
		}
	}

	out, err := r.Render(result)
	if err != nil {
		return fmt.Errorf("渲染失败: %w", err)
	}
	if outputPath == "" {
		_, err := os.Stdout.Write(out)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(outputPath, out, 0o644); err != nil {
		return fmt.Errorf("写入输出文件失败: %w", err)
	}
	return nil
}

// runInteractive 在 tcell 屏幕上显示文档，直到用户退出或收到中断信号。
func runInteractive(doc *dsl.Document, data any, logger *log.Logger) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("创建终端屏幕失败: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("初始化终端屏幕失败: %w", err)
	}
	defer screen.Fini()

	actions := actionResolver(logger)
	build := func(width int) (*layout.Result, error) {
		return layout.Build(doc, data, layout.BuildOptions{
			Measurer: cell.Measurer{},
			Width:    float64(width),
			Actions:  actions,
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	view := termview.NewView(screen, build, termview.Options{Logger: logger})
	return view.Run(ctx)
}

// actionResolver 为文档中任意 tap 名字生成一个记录日志的动作。
func actionResolver(logger *log.Logger) layout.ActionResolver {
	return func(name string) attributed.Action {
		return func() { logger.Printf("tap: %s", name) }
	}
}

func openTapLog(path string) (*log.Logger, func(), error) {
	if path == "" {
		return log.New(io.Discard, "", 0), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	return log.New(f, "", log.LstdFlags), func() { f.Close() }, nil
}

func terminalWidth() float64 {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 0
	}
	w, _, err := term.GetSize(fd)
	if err != nil {
		return 0
	}
	return float64(w)
}

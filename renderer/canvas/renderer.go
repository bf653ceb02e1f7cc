package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"github.com/tdewolff/canvas/renderers/svg"

	"github.com/ByLCY/inkline/attributed"
	"github.com/ByLCY/inkline/fonts"
	"github.com/ByLCY/inkline/layout"
	"github.com/ByLCY/inkline/renderer"
)

// DefaultFontSize 是未指定字号时使用的字号（mm），约 12pt。
const DefaultFontSize = 12 * layout.PtToMm

const underlineRatio = 0.06

var defaultColor = attributed.RGB(30, 30, 30)

// Format 选择输出格式。
type Format string

const (
	FormatPDF Format = "pdf"
	FormatSVG Format = "svg"
)

// Renderer measures runs and draws layout results via github.com/tdewolff/canvas.
// All coordinates are millimeters; font faces are created in points.
type Renderer struct {
	baseDir string
	format  Format

	// injected resources
	fontBlobs map[string][]byte

	// measureMu 串行化测量，字体面内部的字形缓存不保证并发安全。
	measureMu sync.Mutex

	fontMu       sync.Mutex
	fonts        map[string]layout.FontResource // declared by the document
	fontFamilies map[string]*fontFamilyEntry
	fallbackFace *canvas.FontFamily
}

var (
	_ renderer.Renderer    = (*Renderer)(nil)
	_ layout.Measurer      = (*Renderer)(nil)
	_ layout.FontRegistrar = (*Renderer)(nil)
)

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// Options configures the canvas renderer.
type Options struct {
	BaseDir string
	Fonts   map[string]Resource // built-in fonts accessible via built-in:<name>
	Format  Format
}

// Resource can be provided either by Bytes or by Path.
type Resource struct {
	Bytes []byte
	Path  string
}

// NewRenderer creates a PDF renderer rooted at baseDir for resolving font files.
func NewRenderer(baseDir string) *Renderer { return NewRendererWithOptions(Options{BaseDir: baseDir}) }

// NewRendererWithOptions creates a renderer with injected resources and optional baseDir.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		baseDir:      opts.BaseDir,
		format:       opts.Format,
		fontBlobs:    map[string][]byte{},
		fonts:        map[string]layout.FontResource{},
		fontFamilies: map[string]*fontFamilyEntry{},
	}
	if r.format == "" {
		r.format = FormatPDF
	}
	for name, res := range opts.Fonts {
		if name == "" {
			continue
		}
		if len(res.Bytes) > 0 {
			r.fontBlobs[name] = res.Bytes
			continue
		}
		if res.Path != "" {
			data, _ := os.ReadFile(res.Path) // 读取失败时在使用处报错
			if len(data) > 0 {
				r.fontBlobs[name] = data
			}
		}
	}
	return r
}

// RegisterFont 实现 layout.FontRegistrar：记录文档声明的字体，并立即读取以尽早暴露路径错误。
func (r *Renderer) RegisterFont(font layout.FontResource) error {
	if _, err := r.loadFontBytes(font, false, false); err != nil {
		return err
	}
	r.fontMu.Lock()
	r.fonts[font.Name] = font
	r.fontMu.Unlock()
	return nil
}

// MeasureRun 实现 layout.Measurer：宽度取字体面的文本宽度，高度取字体行高，单位均为 mm。
func (r *Renderer) MeasureRun(run attributed.Run) (layout.Size, error) {
	r.measureMu.Lock()
	defer r.measureMu.Unlock()

	face, err := r.fontFace(run.Style)
	if err != nil {
		return layout.Size{}, err
	}
	height := face.Metrics().LineHeight
	if run.IsBreak() {
		return layout.Size{Height: height}, nil
	}
	return layout.Size{Width: face.TextWidth(run.Text), Height: height}, nil
}

// Render renders the result into PDF or SVG bytes according to the configured format.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}
	width, height := result.Width, result.Height
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("结果尺寸无效: %gx%g", width, height)
	}

	c := canvas.New(width, height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点
	if err := r.drawRuns(ctx, result.Runs); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch r.format {
	case FormatSVG:
		writer := svg.New(&buf, width, height, nil)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 SVG 失败: %w", err)
		}
	case FormatPDF:
		writer := pdf.New(&buf, width, height, nil)
		r.applyMeta(writer, result.Meta)
		c.RenderTo(writer)
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("写入 PDF 失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的输出格式 %s", r.format)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) applyMeta(writer *pdf.PDF, meta layout.DocumentMeta) {
	if writer == nil {
		return
	}
	keywords := strings.Join(meta.Keywords, ", ")
	writer.SetInfo(meta.Title, meta.Subject, keywords, meta.Author, meta.Creator)
}

// drawRuns 先绘制全部背景，再绘制文本与下划线，避免相邻 run 的背景盖住文字。
func (r *Renderer) drawRuns(ctx *canvas.Context, runs []layout.RunBox) error {
	for _, rb := range runs {
		if !rb.Style.Background.Valid {
			continue
		}
		ctx.SetFillColor(colorFromStyle(rb.Style.Background))
		ctx.SetStrokeColor(color.RGBA{})
		ctx.DrawPath(rb.X, rb.Y, canvas.Rectangle(rb.Width, rb.Height))
	}
	for _, rb := range runs {
		face, err := r.fontFace(rb.Style)
		if err != nil {
			return err
		}
		// 基线位置：run 顶部加上字体上升部
		baseline := rb.Y + face.Metrics().Ascent
		ctx.DrawText(rb.X, baseline, canvas.NewTextLine(face, rb.Text, canvas.Left))
		if rb.Style.Underline {
			r.drawUnderline(ctx, rb, baseline+face.Metrics().Descent/2)
		}
	}
	return nil
}

func (r *Renderer) drawUnderline(ctx *canvas.Context, rb layout.RunBox, y float64) {
	col := rb.Style.Color
	if !col.Valid {
		col = defaultColor
	}
	ctx.SetStrokeColor(colorFromStyle(col))
	ctx.SetStrokeWidth(rb.Height * underlineRatio)
	p := &canvas.Path{}
	p.MoveTo(0, 0)
	p.LineTo(rb.Width, 0)
	ctx.DrawPath(rb.X, y, p)
}

// fontFace 根据 run 样式选择字体面：字号缺省为 DefaultFontSize，颜色缺省为深灰。
func (r *Renderer) fontFace(style attributed.Style) (*canvas.FontFace, error) {
	size := style.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	col := style.Color
	if !col.Valid {
		col = defaultColor
	}
	family, fontStyle, err := r.ensureFontFamily(r.resolveFont(style.Font), style.Bold, style.Italic)
	if err != nil {
		return nil, err
	}
	// 创建字体面需要 pt，这里做一次 mm→pt。
	return family.Face(toPt(size), colorFromStyle(col), fontStyle, canvas.FontNormal), nil
}

// resolveFont 返回文档声明的字体；未声明时使用内置字体。
func (r *Renderer) resolveFont(name string) layout.FontResource {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if font, ok := r.fonts[name]; ok {
		return font
	}
	return layout.FontResource{Name: "builtin"}
}

func (r *Renderer) ensureFontFamily(font layout.FontResource, bold, italic bool) (*canvas.FontFamily, canvas.FontStyle, error) {
	key := fontCacheKey(font, bold, italic)
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if entry, ok := r.fontFamilies[key]; ok {
		return entry.family, entry.style, nil
	}

	style := parseFontStyle(font.Style)
	if bold {
		style = canvas.FontBold | (style & canvas.FontItalic)
	}
	if italic {
		style |= canvas.FontItalic
	}
	family := canvas.NewFontFamily(font.Name)

	data, err := r.loadFontBytes(font, bold, italic)
	if err == nil {
		err = family.LoadFont(data, 0, style)
	}
	if err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, canvas.FontRegular, err
		}
		r.fontFamilies[key] = &fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		return fallback, canvas.FontRegular, nil
	}

	entry := &fontFamilyEntry{family: family, style: style}
	r.fontFamilies[key] = entry
	return family, style, nil
}

func (r *Renderer) loadFontBytes(font layout.FontResource, bold, italic bool) ([]byte, error) {
	src := font.Src
	if src == "" {
		return fonts.Face(bold, italic), nil
	}
	if strings.HasPrefix(src, "built-in:") || strings.HasPrefix(src, "builtin:") {
		name := strings.TrimPrefix(strings.TrimPrefix(src, "built-in:"), "builtin:")
		if blob, ok := r.fontBlobs[name]; ok {
			return blob, nil
		}
		return nil, fmt.Errorf("找不到内置字体资源 built-in:%s", name)
	}
	if strings.HasPrefix(src, "embed:") {
		return fonts.Load(src)
	}
	path := src
	if r.baseDir == "" && !filepath.IsAbs(path) {
		return nil, fmt.Errorf("未指定资源目录时不允许直接使用字体路径：%s（请改用 built-in: 或 embed:）", src)
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取字体 %s 失败: %w", src, err)
	}
	return data, nil
}

// fallback 在字体加载失败时使用内置常规字形；调用方持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFace != nil {
		return r.fallbackFace, nil
	}
	family := canvas.NewFontFamily("inkline-fallback")
	if err := family.LoadFont(fonts.Face(false, false), 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFace = family
	return family, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	if strings.Contains(s, "bold") {
		result = canvas.FontBold
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}

func fontCacheKey(font layout.FontResource, bold, italic bool) string {
	return fmt.Sprintf("%s|%s|%s|%t|%t", font.Name, font.Src, font.Style, bold, italic)
}

func colorFromStyle(c attributed.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, 1.0)
}

// toPt 将毫米(mm)转换为点(pt)。
func toPt(mm float64) float64 { return mm * layout.MmToPt }

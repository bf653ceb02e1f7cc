package layout

import "github.com/ByLCY/inkline/attributed"

// BuildOptions 配置布局阶段所需的依赖，例如测量后端与动作解析。
type BuildOptions struct {
	Measurer Measurer
	// Width 大于 0 时覆盖文档 view 中声明的宽度。
	Width float64
	// Actions 将 DSL 中 tap 引用的名字解析为动作；为 nil 时忽略所有 tap。
	Actions ActionResolver
	Debug   DebugOptions
}

// DebugOptions 控制调试相关输出。
type DebugOptions struct {
	Rows bool // 在结果中保留每个块的行信息
}

// ActionResolver 根据名字返回动作，未注册时返回 nil。
type ActionResolver func(name string) attributed.Action

// Measurer 负责测量单个 run 在当前字体与样式下的渲染尺寸。
// 显式换行 run 的宽度会被忽略，高度用于撑开所在行。
type Measurer interface {
	MeasureRun(run attributed.Run) (Size, error)
}

// MeasurerFunc 让普通函数实现 Measurer。
type MeasurerFunc func(run attributed.Run) (Size, error)

// MeasureRun 实现 Measurer。
func (f MeasurerFunc) MeasureRun(run attributed.Run) (Size, error) { return f(run) }

// FontRegistrar 是 Measurer 的可选扩展：构建时把文档声明的字体交给它加载。
type FontRegistrar interface {
	RegisterFont(font FontResource) error
}

package attributed

// ActionID 是 run 与点击动作之间的不透明令牌，0 表示没有动作。
type ActionID uint32

// NoAction 表示 run 不可点击。
const NoAction ActionID = 0

// Action 是点击时调用的无参回调。
type Action func()

// Run 是最小的可独立排版单元：通常是一个字素簇，Whole 模式下是整段文本。
type Run struct {
	Text   string   `json:"text"`
	Style  Style    `json:"style"`
	Action ActionID `json:"action,omitempty"`
	Whole  bool     `json:"whole,omitempty"`
}

// IsBreak 报告该 run 是否为显式换行。
func (r Run) IsBreak() bool {
	return !r.Whole && (r.Text == "\n" || r.Text == "\r\n")
}

// Tappable 报告该 run 是否绑定了动作。
func (r Run) Tappable() bool { return r.Action != NoAction }

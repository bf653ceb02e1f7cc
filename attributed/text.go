package attributed

import (
	"slices"
	"strings"

	"github.com/rivo/uniseg"
)

// Text 是由若干 run 组成的富文本，以及 run 引用的动作表。
//
// Text 是值类型：所有操作都返回新的 Text，不修改参与运算的操作数。
// 零值是一个空文本。
type Text struct {
	runs    []Run
	actions map[ActionID]Action

	// last 为本实例已分配的最大 ActionID。
	last ActionID
	// unit 为最近一次拼接进来的逻辑单元在 runs 中的起始下标。
	unit int
	// unitTap 为 OnTap 分配给当前逻辑单元的 id，再次 OnTap 时被替换。
	unitTap ActionID
	// head 为第一个非空逻辑单元在 runs 中的结束下标，左侧挂起的动作只作用于 runs[:head]。
	head int
	// pending 是空文本上登记的动作，作用于下一次拼接进来的逻辑单元。
	// pendingID 在 OnTap 时预留，只有真正绑定到 run 后才写入动作表。
	pending   Action
	pendingID ActionID
}

// New 将 s 拆成逐字素簇的 run，使任意两个字符之间都可以折行。
// 提供 onTap 时，新建文本的全部 run 都绑定该动作。
func New(s string, style Style, onTap ...Action) Text {
	var t Text
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		t.runs = append(t.runs, Run{Text: g.Str(), Style: style})
	}
	t.head = len(t.runs)
	return t.withCreateTap(onTap)
}

// NewWhole 以整体模式创建文本：整段文本只占一个 run，排版时不会被拆开。
func NewWhole(s string, style Style, onTap ...Action) Text {
	return New(s, style).Whole().withCreateTap(onTap)
}

func (t Text) withCreateTap(onTap []Action) Text {
	if len(onTap) == 0 || onTap[0] == nil {
		return t
	}
	return t.OnTap(onTap[0])
}

// Concat 依次拼接 parts，等价于 parts[0].Concat(parts[1]).Concat(...)。
func Concat(parts ...Text) Text {
	var out Text
	for _, p := range parts {
		out = out.Concat(p)
	}
	return out
}

// Group 拼接 parts，并把结果视为一个逻辑单元，随后的 OnTap 覆盖其中所有未绑定动作的 run。
func Group(parts ...Text) Text {
	out := Concat(parts...)
	out.unit = 0
	out.unitTap = NoAction
	out.head = len(out.runs)
	return out
}

// Concat 返回 t 的 run 后接 other 的 run 的新文本。
//
// t 中已有的 ActionID 保持不变；other 的 id 整体平移到 t 已分配的 id 之后，
// 因此两个独立构建的文本合并时不会冲突。t 上挂起的动作（见 OnTap）只作用于
// other 第一个逻辑单元中尚未绑定动作的 run，没有 run 接收时不登记。
// 拼接满足结合律：(a+b)+c 与 a+(b+c) 的 run 序列与 id 分配完全一致。
func (t Text) Concat(other Text) Text {
	out := t.clone()
	shift := t.last
	out.last = t.last + other.last
	if len(other.runs) == 0 {
		if other.pending != nil {
			out.pending = other.pending
			out.pendingID = other.pendingID + shift
		}
		return out
	}

	for id, action := range other.actions {
		out.actions[id+shift] = action
	}

	stamped := false
	for i, r := range other.runs {
		switch {
		case r.Action != NoAction:
			r.Action += shift
		case t.pending != nil && i < other.head:
			r.Action = t.pendingID
			stamped = true
		}
		out.runs = append(out.runs, r)
	}
	if stamped {
		out.actions[t.pendingID] = t.pending
	}

	if len(t.runs) == 0 {
		out.head = other.head
	}
	out.unit = len(t.runs) + other.unit
	out.unitTap = NoAction
	if other.unitTap != NoAction {
		out.unitTap = other.unitTap + shift
	}
	out.pending, out.pendingID = nil, NoAction
	if other.pending != nil {
		out.pending = other.pending
		out.pendingID = other.pendingID + shift
	}
	return out
}

// OnTap 把 action 绑定到最近拼接进来的逻辑单元（新建文本时即整段文本），
// 不会回溯到之前已经合并的兄弟 run。单元内已带有嵌套动作的 run 保持原动作；
// 对同一单元再次调用 OnTap 会替换上一次的动作。
// 在空文本上调用时动作被挂起，作用于下一次拼接进来的 run。
func (t Text) OnTap(action Action) Text {
	if action == nil {
		return t
	}
	out := t.clone()
	if len(out.runs) == 0 {
		if out.pending == nil {
			out.last++
			out.pendingID = out.last
		}
		out.pending = action
		return out
	}

	old := out.unitTap
	var targets []int
	for i := out.unit; i < len(out.runs); i++ {
		if id := out.runs[i].Action; id == NoAction || (old != NoAction && id == old) {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		return out
	}

	out.last++
	id := out.last
	for _, i := range targets {
		out.runs[i].Action = id
	}
	if old != NoAction {
		delete(out.actions, old)
	}
	out.actions[id] = action
	out.unitTap = id
	return out
}

// Whole 把文本折叠成一个不可拆分的 run：文本为全部 run 的拼接，
// 样式取第一个 run，动作取按顺序遇到的第一个动作。
func (t Text) Whole() Text {
	if len(t.runs) == 0 {
		return t.clone()
	}
	var b strings.Builder
	var action Action
	for _, r := range t.runs {
		b.WriteString(r.Text)
		if action == nil && r.Action != NoAction {
			action = t.actions[r.Action]
		}
	}

	run := Run{Text: b.String(), Style: t.runs[0].Style, Whole: true}
	out := Text{actions: map[ActionID]Action{}, head: 1}
	if action != nil {
		out.last = 1
		out.actions[1] = action
		out.unitTap = 1
		run.Action = 1
	}
	if t.pending != nil {
		out.last++
		out.pending = t.pending
		out.pendingID = out.last
	}
	out.runs = []Run{run}
	return out
}

// Runs 返回 run 序列的副本。
func (t Text) Runs() []Run { return slices.Clone(t.runs) }

// Len 返回 run 数量。
func (t Text) Len() int { return len(t.runs) }

// IsEmpty 报告文本是否没有任何 run。
func (t Text) IsEmpty() bool { return len(t.runs) == 0 }

// String 返回纯文本内容。
func (t Text) String() string {
	var b strings.Builder
	for _, r := range t.runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// ActionIDs 返回动作表中登记的 id，按升序排列。
func (t Text) ActionIDs() []ActionID {
	ids := make([]ActionID, 0, len(t.actions))
	for id := range t.actions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Action 查找 id 对应的动作。
func (t Text) Action(id ActionID) (Action, bool) {
	if id == NoAction {
		return nil, false
	}
	action, ok := t.actions[id]
	return action, ok && action != nil
}

// Tap 调用 id 对应的动作一次。id 不存在（过期引用或已被重新组合移除）时静默忽略，返回 false。
func (t Text) Tap(id ActionID) bool {
	action, ok := t.Action(id)
	if !ok {
		return false
	}
	action()
	return true
}

func (t Text) clone() Text {
	out := t
	out.runs = slices.Clone(t.runs)
	out.actions = make(map[ActionID]Action, len(t.actions)+1)
	for id, action := range t.actions {
		out.actions[id] = action
	}
	return out
}

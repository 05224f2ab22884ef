// Package kanban 计算看板移动时同列其他任务需要平移的位置区间。
//
// 每个 (项目, 状态) 列中的 kanban_position 构成从 0 开始的稠密序列。
// 一次移动被描述为 Move，Plan 给出维持稠密性所需的全部区间平移，
// 调用方在同一事务内依次执行平移，最后写入被移动任务自身的位置。
package kanban

// Unbounded 表示区间没有上界
const Unbounded = -1

// Move 一次看板移动
type Move struct {
	FromStatus string
	FromPos    int
	ToStatus   string
	ToPos      int
}

// Shift 对某一列 [From, To] 区间内的位置统一加上 Delta
type Shift struct {
	Status string
	From   int
	To     int // Unbounded 表示到列尾
	Delta  int
}

// Contains 判断位置是否落在平移区间内
func (s Shift) Contains(pos int) bool {
	if pos < s.From {
		return false
	}
	return s.To == Unbounded || pos <= s.To
}

// IsNoop 目标与当前位置完全相同
func (m Move) IsNoop() bool {
	return m.FromStatus == m.ToStatus && m.FromPos == m.ToPos
}

// SameColumn 是否为同列内重排
func (m Move) SameColumn() bool {
	return m.FromStatus == m.ToStatus
}

// Plan 计算移动所需的区间平移（不含被移动任务自身）
//
// 把任务先从原列取出（其后元素 -1），再插入目标列（其后元素 +1）。
// 同列时两步合并为 (old, new] -1 或 [new, old) +1 的单一区间。
func Plan(m Move) []Shift {
	if m.IsNoop() {
		return nil
	}

	if m.SameColumn() {
		lo, hi, delta := m.FromPos+1, m.ToPos, -1
		if m.ToPos < m.FromPos {
			lo, hi, delta = m.ToPos, m.FromPos-1, 1
		}
		return []Shift{{Status: m.FromStatus, From: lo, To: hi, Delta: delta}}
	}

	return []Shift{
		{Status: m.FromStatus, From: m.FromPos + 1, To: Unbounded, Delta: -1},
		{Status: m.ToStatus, From: m.ToPos, To: Unbounded, Delta: 1},
	}
}

// ClampTarget 将目标位置限制在合法范围内
// targetCount 为目标列当前任务数（同列时包含被移动任务本身）
func ClampTarget(m Move, targetCount int) int {
	max := targetCount
	if m.SameColumn() {
		max = targetCount - 1
	}
	if max < 0 {
		max = 0
	}
	switch {
	case m.ToPos < 0:
		return 0
	case m.ToPos > max:
		return max
	}
	return m.ToPos
}

package history

import "log"

// ============================================================
// History Manager
// ============================================================

// DefaultLimit — сколько снимков хранится до вытеснения самых старых.
const DefaultLimit = 500

// Snapshot — сериализованное состояние документа; менеджеру его содержимое не важно.
type Snapshot []byte

// Manager — линейная история с курсором. Запись после отмены отбрасывает
// ветку повторов.
type Manager struct {
	snapshots []Snapshot
	index     int
	limit     int
}

func NewManager(limit int) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Manager{index: -1, limit: limit}
}

// Commit добавляет снимок после текущей позиции.
func (m *Manager) Commit(s Snapshot) {
	if m.index < len(m.snapshots)-1 {
		m.snapshots = m.snapshots[:m.index+1]
	}

	cp := make(Snapshot, len(s))
	copy(cp, s)
	m.snapshots = append(m.snapshots, cp)

	if over := len(m.snapshots) - m.limit; over > 0 {
		m.snapshots = append(m.snapshots[:0:0], m.snapshots[over:]...)
		log.Printf("[HISTORY] evicted %d oldest snapshot(s), limit %d", over, m.limit)
	}
	m.index = len(m.snapshots) - 1
}

// Undo сдвигает курсор назад и возвращает снимок, который нужно восстановить.
func (m *Manager) Undo() (Snapshot, bool) {
	if !m.CanUndo() {
		return nil, false
	}
	m.index--
	return m.snapshots[m.index], true
}

func (m *Manager) Redo() (Snapshot, bool) {
	if !m.CanRedo() {
		return nil, false
	}
	m.index++
	return m.snapshots[m.index], true
}

func (m *Manager) CanUndo() bool { return m.index > 0 }
func (m *Manager) CanRedo() bool { return m.index < len(m.snapshots)-1 }

// Current возвращает снимок под курсором.
func (m *Manager) Current() (Snapshot, bool) {
	if m.index < 0 {
		return nil, false
	}
	return m.snapshots[m.index], true
}

func (m *Manager) Len() int   { return len(m.snapshots) }
func (m *Manager) Index() int { return m.index }
func (m *Manager) Limit() int { return m.limit }

// Reset забывает всю историю.
func (m *Manager) Reset() {
	m.snapshots = nil
	m.index = -1
}

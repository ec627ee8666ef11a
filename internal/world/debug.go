package world

import (
	"sync"

	"github.com/annel0/tome/internal/vec"
)

// DebugDrawer получает каждую просканированную ячейку тика (отладочная отрисовка куба)
type DebugDrawer interface {
	BeginScan(center vec.Vec3, observer vec.Vec3Float)
	DrawCell(coord vec.Vec3, position vec.Vec3Float, halfSize vec.Vec3Float, inRange bool)
}

// ScanCell ячейка последнего скана
type ScanCell struct {
	Coord    vec.Vec3      `json:"coord"`
	Position vec.Vec3Float `json:"position"`
	InRange  bool          `json:"in_range"`
}

// ScanSnapshot последний куб сканирования
type ScanSnapshot struct {
	Center   vec.Vec3      `json:"center"`
	Observer vec.Vec3Float `json:"observer"`
	HalfSize vec.Vec3Float `json:"half_size"`
	Cells    []ScanCell    `json:"cells"`
}

// ScanRecorder хранит последний куб сканирования для отладочного API
type ScanRecorder struct {
	mu      sync.RWMutex
	current ScanSnapshot
	last    ScanSnapshot
}

// NewScanRecorder создаёт пустой рекордер
func NewScanRecorder() *ScanRecorder {
	return &ScanRecorder{}
}

func (r *ScanRecorder) BeginScan(center vec.Vec3, observer vec.Vec3Float) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.current.Cells) > 0 {
		r.last = r.current
	}
	r.current = ScanSnapshot{Center: center, Observer: observer}
}

func (r *ScanRecorder) DrawCell(coord vec.Vec3, position vec.Vec3Float, halfSize vec.Vec3Float, inRange bool) {
	r.mu.Lock()
	r.current.HalfSize = halfSize
	r.current.Cells = append(r.current.Cells, ScanCell{Coord: coord, Position: position, InRange: inRange})
	r.mu.Unlock()
}

// Last возвращает последний завершённый (или текущий) скан
func (r *ScanRecorder) Last() ScanSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := r.current
	if len(snap.Cells) == 0 {
		snap = r.last
	}
	cells := make([]ScanCell, len(snap.Cells))
	copy(cells, snap.Cells)
	snap.Cells = cells
	return snap
}

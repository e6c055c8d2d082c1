package editor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/graph"
	"floorplan-engine/internal/planner/history"
	"floorplan-engine/internal/planner/models"
	"floorplan-engine/internal/planner/regions"
	"floorplan-engine/internal/planner/snap"
)

// ============================================================
// Editor
// ============================================================

// Persistence — внешнее хранилище снимка. Редактору важен только
// круговой обход Load(Save(x)) == x.
type Persistence interface {
	Save(ctx context.Context, blob string) error
	Load(ctx context.Context) (string, error)
}

// Modifiers — состояние клавиш-модификаторов во время жеста.
type Modifiers struct {
	Free      bool `json:"free"`      // без привязки
	AngleLock bool `json:"angleLock"` // шаг 45° от начальной точки
}

type Options struct {
	SnapDistance float64
	HistoryLimit int
	WallWidth    float64
}

type dragState struct {
	origin models.Point
	others []models.Segment // стены, не касающиеся origin: только к ним можно привязаться
}

// Editor — единственный мутатор плана. Не потокобезопасен: вызывающий
// обязан сериализовать вызовы.
type Editor struct {
	store   *graph.Store
	snapper *snap.Resolver
	history *history.Manager
	regions regions.Result
	markers []models.Marker
	drag    *dragState
}

func New(opts Options) *Editor {
	e := &Editor{
		store:   graph.NewStore(opts.WallWidth),
		snapper: snap.NewResolver(opts.SnapDistance),
		history: history.NewManager(opts.HistoryLimit),
	}
	e.commit()
	return e
}

// ============================================================
// Accessors
// ============================================================

func (e *Editor) Segments() []models.Segment { return e.store.Segments() }
func (e *Editor) Regions() regions.Result    { return e.regions }
func (e *Editor) Dragging() bool             { return e.drag != nil }
func (e *Editor) CanUndo() bool              { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool              { return e.history.CanRedo() }
func (e *Editor) HistoryLen() int            { return e.history.Len() }

func (e *Editor) Markers() []models.Marker {
	return append([]models.Marker(nil), e.markers...)
}

// Document — текущее состояние в форме снимка.
func (e *Editor) Document() models.Document {
	doc := models.Document{
		Segments: e.store.Segments(),
		Markers:  e.Markers(),
	}
	if doc.Segments == nil {
		doc.Segments = []models.Segment{}
	}
	if doc.Markers == nil {
		doc.Markers = []models.Marker{}
	}
	return doc
}

// ============================================================
// Drawing
// ============================================================

// SnapPoint применяет привязку так же, как это делает Draw для конечной точки.
func (e *Editor) SnapPoint(p models.Point, mods Modifiers) snap.Result {
	if mods.Free {
		return snap.Result{Point: p, Kind: snap.None}
	}
	walls := e.store.Segments()
	if e.drag != nil {
		walls = e.drag.others
	}
	return e.snapper.Resolve(p, walls)
}

// Draw добавляет стену. AngleLock выравнивает конец относительно начала
// и отключает привязку конца.
func (e *Editor) Draw(start, end models.Point, mods Modifiers) bool {
	start = e.SnapPoint(start, mods).Point
	switch {
	case mods.AngleLock:
		end = geometry.SnapToAngle(end, start)
	default:
		end = e.SnapPoint(end, mods).Point
	}

	if !e.store.Add(start, end) {
		return false
	}
	e.afterEdit("draw")
	return true
}

// AddSegments вставляет пачку стен (импорт) одним шагом истории.
func (e *Editor) AddSegments(segments []models.Segment) int {
	added := 0
	for _, seg := range segments {
		if e.store.AddSegment(seg) {
			added++
		}
	}
	if added > 0 {
		e.afterEdit(fmt.Sprintf("add %d segments", added))
	}
	return added
}

// ============================================================
// Dragging
// ============================================================

// BeginDrag захватывает ближайший узел в радиусе привязки.
func (e *Editor) BeginDrag(p models.Point) (models.Point, bool) {
	res := e.snapper.Resolve(p, e.store.Segments())
	if res.Kind != snap.Endpoint {
		return p, false
	}

	var others []models.Segment
	for _, seg := range e.store.Segments() {
		if geometry.PointsEqual(seg.P1, res.Point) || geometry.PointsEqual(seg.P2, res.Point) {
			continue
		}
		others = append(others, seg)
	}
	e.drag = &dragState{origin: res.Point, others: others}
	return res.Point, true
}

// DragTo отдаёт превью без разрезания; хранилище не меняется.
func (e *Editor) DragTo(p models.Point, mods Modifiers) []models.Segment {
	if e.drag == nil {
		return e.store.Segments()
	}
	return e.store.Preview(e.drag.origin, e.dragTarget(p, mods))
}

// EndDrag переносит узел и только здесь разрезает затронутые стены.
func (e *Editor) EndDrag(p models.Point, mods Modifiers) bool {
	if e.drag == nil {
		return false
	}
	origin, target := e.drag.origin, e.dragTarget(p, mods)
	e.drag = nil

	if geometry.PointsEqual(origin, target) {
		return false
	}
	if !e.store.MoveEndpoint(origin, target) {
		return false
	}
	e.afterEdit("move")
	return true
}

func (e *Editor) CancelDrag() {
	e.drag = nil
}

func (e *Editor) dragTarget(p models.Point, mods Modifiers) models.Point {
	if mods.AngleLock {
		return geometry.SnapToAngle(p, e.drag.origin)
	}
	return e.SnapPoint(p, mods).Point
}

// ============================================================
// Erase / clear / markers
// ============================================================

func (e *Editor) EraseAt(p models.Point, radius float64) int {
	removed := e.store.Erase(graph.Near(p, radius))
	if removed > 0 {
		e.afterEdit(fmt.Sprintf("erase %d", removed))
	}
	return removed
}

// Clear убирает стены; маркеры остаются.
func (e *Editor) Clear() bool {
	if e.store.Clear() == 0 {
		return false
	}
	e.drag = nil
	e.afterEdit("clear")
	return true
}

func (e *Editor) SetMarkers(markers []models.Marker) {
	e.markers = append([]models.Marker(nil), markers...)
	e.commit()
}

// ============================================================
// History
// ============================================================

func (e *Editor) Undo() bool {
	snapshot, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.restore(snapshot)
	return true
}

func (e *Editor) Redo() bool {
	snapshot, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.restore(snapshot)
	return true
}

func (e *Editor) afterEdit(op string) {
	e.recompute()
	e.commit()
	log.Printf("[EDITOR] %s: %d segments, %d rooms", op, e.store.Len(), len(e.regions.Interior))
}

func (e *Editor) recompute() {
	e.regions = regions.Detect(e.store.Segments())
}

func (e *Editor) commit() {
	blob, err := Encode(e.Document())
	if err != nil {
		log.Printf("[EDITOR] snapshot encode failed: %v", err)
		return
	}
	e.history.Commit(blob)
}

func (e *Editor) restore(snapshot history.Snapshot) {
	doc, err := Decode(snapshot)
	if err != nil {
		log.Printf("[EDITOR] snapshot decode failed: %v", err)
		return
	}
	e.drag = nil
	e.store.Replace(doc.Segments)
	e.markers = doc.Markers
	e.recompute()
}

// ============================================================
// Persistence
// ============================================================

// Save не откатывает состояние при ошибке: ошибка только возвращается.
func (e *Editor) Save(ctx context.Context, p Persistence) error {
	blob, err := Encode(e.Document())
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if err := p.Save(ctx, string(blob)); err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

// Load заменяет состояние и начинает историю заново.
func (e *Editor) Load(ctx context.Context, p Persistence) error {
	blob, err := p.Load(ctx)
	if err != nil {
		return fmt.Errorf("load plan: %w", err)
	}
	doc, err := Decode([]byte(blob))
	if err != nil {
		return fmt.Errorf("decode plan: %w", err)
	}

	e.drag = nil
	e.store.Replace(doc.Segments)
	e.store.Resolve()
	e.markers = doc.Markers
	e.recompute()
	e.history.Reset()
	e.commit()

	log.Printf("[EDITOR] loaded %d segments, %d markers", e.store.Len(), len(e.markers))
	return nil
}

// ============================================================
// Snapshot codec
// ============================================================

func Encode(doc models.Document) ([]byte, error) {
	return json.Marshal(doc)
}

// Decode принимает пустую строку как пустой план.
func Decode(blob []byte) (models.Document, error) {
	var doc models.Document
	if len(blob) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(blob, &doc); err != nil {
		return models.Document{}, err
	}
	return doc, nil
}

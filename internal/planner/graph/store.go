package graph

import (
	"log"
	"sort"

	"floorplan-engine/internal/planner/geometry"
	"floorplan-engine/internal/planner/models"
)

// ============================================================
// Segment Store & Split Engine
// ============================================================

const (
	MinSegmentLength  = 1.0  // короче — добавление отклоняется
	TinySegmentLength = 0.4  // короче — удаляется после каждого разрезания/склейки
	JoinTolerance     = 1.0  // точка ближе к отрезку считается лежащей на нём
	SlopeTolerance    = 0.01 // допуск сравнения наклонов при склейке
	MaxSettleSplits   = 10000
)

// Store владеет списком стен. Граф не хранится: он собирается по запросу через Build.
type Store struct {
	segments []models.Segment
	width    float64
}

func NewStore(defaultWidth float64) *Store {
	return &Store{width: defaultWidth}
}

// Segments возвращает копию текущего набора.
func (s *Store) Segments() []models.Segment {
	return append([]models.Segment(nil), s.segments...)
}

func (s *Store) Len() int {
	return len(s.segments)
}

// Replace подменяет набор целиком (восстановление снимка, загрузка).
func (s *Store) Replace(segments []models.Segment) {
	s.segments = append(s.segments[:0:0], segments...)
}

// Add вставляет стену start-end шириной по умолчанию.
func (s *Store) Add(start, end models.Point) bool {
	return s.AddSegment(models.Segment{P1: start, P2: end, Width: s.width})
}

// AddSegment вставляет отрезок и разрезает все затронутые им стены.
// Возвращает false, если набор не изменился.
func (s *Store) AddSegment(seg models.Segment) bool {
	if !geometry.IsFinite(seg.P1) || !geometry.IsFinite(seg.P2) {
		log.Printf("[STORE] rejected non-finite segment %v", seg)
		return false
	}
	if geometry.Length(seg) < MinSegmentLength {
		log.Printf("[STORE] rejected short segment %v (len %.3f)", seg, geometry.Length(seg))
		return false
	}
	if seg.Width <= 0 {
		seg.Width = s.width
	}

	before := s.segments
	sp := newSplitter(before)
	out := resolveInsert(seg, before, sp)
	s.segments = dedupe(sp.settle(out, markNew(before, out)))
	s.PruneTiny()
	return !sameSegments(before, s.segments)
}

// MoveEndpoint переносит общую точку selected в target и заново разрезает
// каждую затронутую стену, как будто она только что вставлена.
func (s *Store) MoveEndpoint(selected, target models.Point) bool {
	if !geometry.IsFinite(target) {
		log.Printf("[STORE] rejected non-finite move target %v", target)
		return false
	}

	moved, rest := s.detach(selected, target)
	if len(moved) == 0 {
		return false
	}

	sp := newSplitter(rest)
	result := rest
	for _, seg := range moved {
		if geometry.Length(seg) < MinSegmentLength {
			log.Printf("[STORE] dropped collapsed segment %v after move", seg)
			continue
		}
		result = resolveInsert(seg, result, sp)
	}

	s.segments = dedupe(sp.settle(result, markNew(s.segments, result)))
	s.PruneTiny()
	return true
}

// Preview — дешёвая копия для отрисовки во время перетаскивания, без разрезания.
func (s *Store) Preview(selected, target models.Point) []models.Segment {
	moved, rest := s.detach(selected, target)
	return append(rest, moved...)
}

func (s *Store) detach(selected, target models.Point) (moved, rest []models.Segment) {
	for _, seg := range s.segments {
		switch {
		case geometry.PointsEqual(seg.P1, selected):
			seg.P1 = target
			moved = append(moved, seg)
		case geometry.PointsEqual(seg.P2, selected):
			seg.P2 = target
			moved = append(moved, seg)
		default:
			rest = append(rest, seg)
		}
	}
	return moved, rest
}

// Erase удаляет подходящие стены и склеивает оставшиеся коллинеарные куски.
func (s *Store) Erase(match func(models.Segment) bool) int {
	kept := s.segments[:0:0]
	for _, seg := range s.segments {
		if !match(seg) {
			kept = append(kept, seg)
		}
	}

	removed := len(s.segments) - len(kept)
	if removed == 0 {
		return 0
	}

	merged := merge(kept)
	s.segments = dedupe(newSplitter(merged).settle(merged, markNew(kept, merged)))
	s.PruneTiny()
	return removed
}

// Clear удаляет все стены.
func (s *Store) Clear() int {
	n := len(s.segments)
	s.segments = nil
	return n
}

// PruneTiny убирает отрезки короче TinySegmentLength.
func (s *Store) PruneTiny() int {
	kept := s.segments[:0]
	for _, seg := range s.segments {
		if geometry.Length(seg) >= TinySegmentLength {
			kept = append(kept, seg)
		}
	}

	pruned := len(s.segments) - len(kept)
	if pruned > 0 {
		log.Printf("[STORE] pruned %d tiny segments", pruned)
	}
	s.segments = kept
	return pruned
}

// Resolve прогоняет разрезание по всему набору заново. На уже разрезанном
// наборе ничего не меняет.
func (s *Store) Resolve() {
	all := dedupe(append([]models.Segment(nil), s.segments...))
	fresh := make([]bool, len(all))
	for i := range fresh {
		fresh[i] = true
	}
	s.segments = dedupe(newSplitter(all).settle(all, fresh))
	s.PruneTiny()
}

// Near — предикат «стена под курсором».
func Near(p models.Point, radius float64) func(models.Segment) bool {
	return func(seg models.Segment) bool {
		return geometry.DistanceToSegment(p, seg) <= radius
	}
}

// ============================================================
// Intersection resolution
// ============================================================

// splitter помнит уже известные вершины: новая точка пересечения рядом
// с существующей вершиной переносится на неё.
type splitter struct {
	vertices *PointIndex
}

func newSplitter(segments []models.Segment) *splitter {
	sp := &splitter{vertices: NewPointIndex(JoinTolerance)}
	sp.remember(segments)
	return sp
}

func (sp *splitter) remember(segments []models.Segment) {
	for _, seg := range segments {
		sp.vertices.Insert(seg.P1)
		sp.vertices.Insert(seg.P2)
	}
}

// place возвращает вершину, на которую нужно перенести точку пересечения p
// отрезков a и b. Вершина должна лежать на обоих и резать оба.
func (sp *splitter) place(p models.Point, a, b models.Segment) models.Point {
	if sp == nil {
		return p
	}
	id, ok := sp.vertices.Find(p)
	if !ok {
		return p
	}
	v := sp.vertices.Point(id)
	if geometry.Distance(p, v) > JoinTolerance {
		return p
	}
	if !onSegment(v, a) || !onSegment(v, b) || !cuts(a, []models.Point{v}) || !cuts(b, []models.Point{v}) {
		return p
	}
	return v
}

func resolveInsert(candidate models.Segment, existing []models.Segment, sp *splitter) []models.Segment {
	var candPoints []models.Point
	out := make([]models.Segment, 0, len(existing)+2)

	for _, other := range existing {
		onOther, onCand := incidences(candidate, other, sp)
		candPoints = append(candPoints, onCand...)
		if len(onOther) == 0 {
			out = append(out, other)
			continue
		}
		pieces := splitAt(other, onOther)
		sp.remember(pieces)
		out = append(out, pieces...)
	}

	pieces := splitAt(candidate, candPoints)
	sp.remember(pieces)
	out = append(out, pieces...)
	return dedupe(out)
}

// settle режет пары, которые всё ещё касаются друг друга, пока таких не останется.
// Проверяются только пары, где хотя бы один отрезок помечен в fresh.
func (sp *splitter) settle(segments []models.Segment, fresh []bool) []models.Segment {
	for n := 0; ; n++ {
		i, j, found := findContact(segments, fresh)
		if !found {
			return segments
		}
		if n >= MaxSettleSplits {
			log.Printf("[STORE] split did not settle after %d passes, %d segments", n, len(segments))
			return segments
		}

		onI, onJ, _ := contact(segments[i], segments[j], sp)
		pi, pj := splitAt(segments[i], onI), splitAt(segments[j], onJ)
		sp.remember(pi)
		sp.remember(pj)
		segments, fresh = replacePair(segments, fresh, i, pi, j, pj)
	}
}

// findContact ищет пару, которую ещё нужно разрезать. Новый отрезок,
// проверенный против всех остальных, перестаёт считаться новым.
func findContact(segments []models.Segment, fresh []bool) (int, int, bool) {
	for i := range segments {
		if !fresh[i] {
			continue
		}
		for j := range segments {
			if j == i {
				continue
			}
			if _, _, ok := contact(segments[i], segments[j], nil); ok {
				return i, j, true
			}
		}
		fresh[i] = false
	}
	return 0, 0, false
}

// contact возвращает точки разрезания пары, если хотя бы одна из них
// действительно режет свой отрезок. Пара проверяется в обоих порядках.
func contact(a, b models.Segment, sp *splitter) (onA, onB []models.Point, ok bool) {
	onB, onA = incidences(a, b, sp)
	if cuts(a, onA) || cuts(b, onB) {
		return onA, onB, true
	}
	onA, onB = incidences(b, a, sp)
	if cuts(a, onA) || cuts(b, onB) {
		return onA, onB, true
	}
	return nil, nil, false
}

func cuts(s models.Segment, points []models.Point) bool {
	for _, p := range points {
		if !geometry.PointsEqual(p, s.P1) && !geometry.PointsEqual(p, s.P2) {
			return true
		}
	}
	return false
}

func replacePair(segments []models.Segment, fresh []bool, i int, pi []models.Segment, j int, pj []models.Segment) ([]models.Segment, []bool) {
	out := make([]models.Segment, 0, len(segments)+len(pi)+len(pj))
	outFresh := make([]bool, 0, cap(out))
	for k, seg := range segments {
		var pieces []models.Segment
		switch k {
		case i:
			pieces = pi
		case j:
			pieces = pj
		default:
			out = append(out, seg)
			outFresh = append(outFresh, fresh[k])
			continue
		}
		cut := len(pieces) > 1
		for _, p := range pieces {
			out = append(out, p)
			outFresh = append(outFresh, fresh[k] || cut)
		}
	}
	return out, outFresh
}

// markNew помечает отрезки after, которых не было в before.
func markNew(before, after []models.Segment) []bool {
	known := make(map[models.Segment]bool, len(before))
	for _, seg := range before {
		known[seg] = true
	}
	fresh := make([]bool, len(after))
	for i, seg := range after {
		fresh[i] = !known[seg]
	}
	return fresh
}

// incidences возвращает точки, в которых a касается внутренней части b, и наоборот,
// плюс точку собственного пересечения. sp может быть nil: тогда точки не переносятся.
func incidences(a, b models.Segment, sp *splitter) (onB, onA []models.Point) {
	for _, e := range [2]models.Point{a.P1, a.P2} {
		if touchesInterior(e, b) {
			onB = append(onB, e)
		}
	}
	for _, e := range [2]models.Point{b.P1, b.P2} {
		if touchesInterior(e, a) {
			onA = append(onA, e)
		}
	}

	if p, ok := geometry.SegmentIntersection(a, b); ok {
		q, snapped := canonical(p, a, b)
		if onSegment(q, a) && onSegment(q, b) {
			if !snapped {
				q = sp.place(q, a, b)
			}
			onA = append(onA, q)
			onB = append(onB, q)
		}
	}

	return onB, onA
}

func touchesInterior(p models.Point, s models.Segment) bool {
	if geometry.PointsEqual(p, s.P1) || geometry.PointsEqual(p, s.P2) {
		return false
	}
	return geometry.PointOnSegment(p, s, JoinTolerance)
}

func onSegment(p models.Point, s models.Segment) bool {
	return geometry.Distance(p, s.P1) <= JoinTolerance ||
		geometry.Distance(p, s.P2) <= JoinTolerance ||
		geometry.PointOnSegment(p, s, JoinTolerance)
}

// canonical притягивает точку пересечения к одному из четырёх концов, если тот
// лежит на обоих отрезках, чтобы обе стороны резались в одной координате.
// Иначе остаётся сама точка пересечения.
func canonical(p models.Point, a, b models.Segment) (models.Point, bool) {
	for _, e := range [4]models.Point{a.P1, a.P2, b.P1, b.P2} {
		if geometry.Distance(p, e) <= JoinTolerance && onSegment(e, a) && onSegment(e, b) {
			return e, true
		}
	}
	return p, false
}

// splitAt режет отрезок по точкам, упорядоченным по расстоянию от начала.
func splitAt(s models.Segment, points []models.Point) []models.Segment {
	all := []models.Point{s.P1}
	for _, p := range points {
		if geometry.PointsEqual(p, s.P1) || geometry.PointsEqual(p, s.P2) {
			continue
		}
		all = append(all, p)
	}
	all = append(all, s.P2)

	sort.SliceStable(all, func(i, j int) bool {
		return geometry.Distance(s.P1, all[i]) < geometry.Distance(s.P1, all[j])
	})

	uniq := all[:1]
	for _, p := range all[1:] {
		if !geometry.PointsEqual(p, uniq[len(uniq)-1]) {
			uniq = append(uniq, p)
		}
	}

	out := make([]models.Segment, 0, len(uniq)-1)
	for i := 0; i+1 < len(uniq); i++ {
		out = append(out, models.Segment{P1: uniq[i], P2: uniq[i+1], Width: s.Width})
	}
	return out
}

func dedupe(segments []models.Segment) []models.Segment {
	out := segments[:0]
	for _, seg := range segments {
		if geometry.PointsEqual(seg.P1, seg.P2) {
			continue
		}
		dup := false
		for _, kept := range out {
			if geometry.SameEndpoints(kept, seg) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, seg)
		}
	}
	return out
}

func sameSegments(a, b []models.Segment) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ============================================================
// Merge
// ============================================================

// merge склеивает пары коллинеарных стен с общим концом до неподвижной точки.
func merge(segments []models.Segment) []models.Segment {
	out := append([]models.Segment(nil), segments...)
	for {
		i, j, merged, ok := findMerge(out)
		if !ok {
			return out
		}
		out[i] = merged
		out = append(out[:j], out[j+1:]...)
	}
}

func findMerge(segments []models.Segment) (int, int, models.Segment, bool) {
	for i := 0; i < len(segments); i++ {
		for j := i + 1; j < len(segments); j++ {
			a, b := segments[i], segments[j]
			if !geometry.SameSlope(a, b, SlopeTolerance) {
				continue
			}
			shared, farA, farB, ok := sharedEndpoint(a, b)
			if !ok {
				continue
			}
			// куски должны уходить от общей точки в разные стороны
			if (farA.X-shared.X)*(farB.X-shared.X)+(farA.Y-shared.Y)*(farB.Y-shared.Y) >= 0 {
				continue
			}
			merged := models.Segment{P1: farA, P2: farB, Width: a.Width}
			if blocked(merged, segments, i, j) {
				continue
			}
			return i, j, merged, true
		}
	}
	return 0, 0, models.Segment{}, false
}

func sharedEndpoint(a, b models.Segment) (shared, farA, farB models.Point, ok bool) {
	switch {
	case geometry.PointsEqual(a.P1, b.P1):
		return a.P1, a.P2, b.P2, true
	case geometry.PointsEqual(a.P1, b.P2):
		return a.P1, a.P2, b.P1, true
	case geometry.PointsEqual(a.P2, b.P1):
		return a.P2, a.P1, b.P2, true
	case geometry.PointsEqual(a.P2, b.P2):
		return a.P2, a.P1, b.P1, true
	}
	return models.Point{}, models.Point{}, models.Point{}, false
}

// blocked: склеенный отрезок касался бы третьей стены где-то кроме своих концов.
func blocked(merged models.Segment, segments []models.Segment, skipA, skipB int) bool {
	for k, other := range segments {
		if k == skipA || k == skipB {
			continue
		}
		onOther, onMerged := incidences(merged, other, nil)
		for _, p := range append(onOther, onMerged...) {
			if !geometry.PointsEqual(p, merged.P1) && !geometry.PointsEqual(p, merged.P2) {
				return true
			}
		}
	}
	return false
}

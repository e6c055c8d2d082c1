package editor

import (
	"context"
	"errors"
	"testing"

	"floorplan-engine/internal/planner/models"
	"floorplan-engine/internal/planner/snap"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) models.Point {
	return models.Point{X: x, Y: y}
}

type memoryPersistence struct {
	blob    string
	saveErr error
	loadErr error
}

func (m *memoryPersistence) Save(_ context.Context, blob string) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.blob = blob
	return nil
}

func (m *memoryPersistence) Load(_ context.Context) (string, error) {
	return m.blob, m.loadErr
}

// drawRoom рисует квадрат 100x100 неточными жестами, полагаясь на привязку.
func drawRoom(t *testing.T, e *Editor) {
	t.Helper()
	require.True(t, e.Draw(pt(0, 0), pt(100, 0), Modifiers{}))
	require.True(t, e.Draw(pt(100, 5), pt(100, 100), Modifiers{}))
	require.True(t, e.Draw(pt(100, 100), pt(0, 100), Modifiers{}))
	require.True(t, e.Draw(pt(0, 100), pt(3, 2), Modifiers{}))
}

func hasEndpoint(segments []models.Segment, p models.Point) bool {
	for _, s := range segments {
		if s.P1 == p || s.P2 == p {
			return true
		}
	}
	return false
}

func TestEditor_DrawSnapsIntoRoom(t *testing.T) {
	e := New(Options{WallWidth: 10})
	assert.Equal(t, 1, e.HistoryLen())
	assert.False(t, e.CanUndo())

	drawRoom(t, e)

	assert.Len(t, e.Segments(), 4)
	require.Len(t, e.Regions().Interior, 1)
	assert.InDelta(t, 10000, e.Regions().Interior[0].Area, 1e-6)
	assert.Len(t, e.Regions().Exterior, 1)
	assert.Equal(t, 5, e.HistoryLen())
	for _, s := range e.Segments() {
		assert.Equal(t, 10.0, s.Width)
	}
}

func TestEditor_DrawRejectsDegenerate(t *testing.T) {
	e := New(Options{})
	assert.False(t, e.Draw(pt(10, 10), pt(10.5, 10), Modifiers{Free: true}))
	assert.Equal(t, 1, e.HistoryLen())
}

func TestEditor_FreeModifierSkipsSnapping(t *testing.T) {
	e := New(Options{})
	e.Draw(pt(0, 0), pt(100, 0), Modifiers{})
	e.Draw(pt(100, 5), pt(100, 100), Modifiers{Free: true})

	assert.True(t, hasEndpoint(e.Segments(), pt(100, 5)))
	assert.Equal(t, snap.None, e.SnapPoint(pt(100, 5), Modifiers{Free: true}).Kind)
	assert.Equal(t, snap.Endpoint, e.SnapPoint(pt(98, 1), Modifiers{}).Kind)
}

func TestEditor_AngleLock(t *testing.T) {
	e := New(Options{})
	require.True(t, e.Draw(pt(0, 0), pt(100, 95), Modifiers{AngleLock: true}))

	segs := e.Segments()
	require.Len(t, segs, 1)
	end := segs[0].P2
	if end == pt(0, 0) {
		end = segs[0].P1
	}
	assert.InDelta(t, end.X, end.Y, 1e-9)
}

func TestEditor_UndoRedoRoundTrip(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)
	final := e.Segments()

	for i := 0; i < 4; i++ {
		require.True(t, e.Undo())
	}
	assert.Empty(t, e.Segments())
	assert.Empty(t, e.Regions().Interior)
	assert.False(t, e.Undo())

	for i := 0; i < 4; i++ {
		require.True(t, e.Redo())
	}
	assert.Equal(t, final, e.Segments())
	assert.Len(t, e.Regions().Interior, 1)
	assert.False(t, e.Redo())
}

func TestEditor_EditAfterUndoDropsRedo(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)
	e.Undo()
	require.True(t, e.CanRedo())

	e.Draw(pt(300, 0), pt(400, 0), Modifiers{})
	assert.False(t, e.CanRedo())
}

func TestEditor_DragMovesNodeOnRelease(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)
	before := e.Segments()

	origin, ok := e.BeginDrag(pt(98, 98))
	require.True(t, ok)
	assert.Equal(t, pt(100, 100), origin)
	assert.True(t, e.Dragging())

	preview := e.DragTo(pt(150, 150), Modifiers{})
	assert.True(t, hasEndpoint(preview, pt(150, 150)))
	assert.Equal(t, before, e.Segments(), "preview must not touch the store")

	require.True(t, e.EndDrag(pt(150, 150), Modifiers{}))
	assert.False(t, e.Dragging())
	assert.True(t, hasEndpoint(e.Segments(), pt(150, 150)))
	assert.False(t, hasEndpoint(e.Segments(), pt(100, 100)))

	require.Len(t, e.Regions().Interior, 1)
	assert.InDelta(t, 15000, e.Regions().Interior[0].Area, 1e-6)

	require.True(t, e.Undo())
	assert.Equal(t, before, e.Segments())
}

func TestEditor_DragMissAndCancel(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)

	_, ok := e.BeginDrag(pt(50, 50))
	assert.False(t, ok)
	assert.False(t, e.EndDrag(pt(60, 60), Modifiers{}))

	_, ok = e.BeginDrag(pt(1, 1))
	require.True(t, ok)
	e.CancelDrag()
	assert.False(t, e.Dragging())
	assert.Equal(t, 5, e.HistoryLen())
}

func TestEditor_EraseAt(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)

	assert.Equal(t, 0, e.EraseAt(pt(50, 50), 5))
	assert.Equal(t, 1, e.EraseAt(pt(50, 2), 5))
	assert.Len(t, e.Segments(), 3)
	assert.Empty(t, e.Regions().Interior)

	require.True(t, e.Undo())
	assert.Len(t, e.Regions().Interior, 1)
}

func TestEditor_MarkersSurviveClear(t *testing.T) {
	e := New(Options{})
	drawRoom(t, e)
	e.SetMarkers([]models.Marker{{ID: "s1", Kind: "sensor", Point: pt(50, 50)}})

	require.True(t, e.Clear())
	assert.Empty(t, e.Segments())
	assert.Len(t, e.Markers(), 1)

	require.True(t, e.Undo())
	assert.Len(t, e.Segments(), 4)
	assert.Len(t, e.Markers(), 1)

	assert.False(t, New(Options{}).Clear())
}

func TestEditor_AddSegmentsIsOneStep(t *testing.T) {
	e := New(Options{WallWidth: 4})
	added := e.AddSegments([]models.Segment{
		{P1: pt(0, 0), P2: pt(100, 100)},
		{P1: pt(0, 100), P2: pt(100, 0)},
		{P1: pt(5, 5), P2: pt(5, 5)},
	})
	assert.Equal(t, 2, added)
	assert.Len(t, e.Segments(), 4)
	assert.Equal(t, 2, e.HistoryLen())
}

func TestEditor_SaveLoad(t *testing.T) {
	ctx := context.Background()
	store := &memoryPersistence{}

	e := New(Options{})
	drawRoom(t, e)
	e.SetMarkers([]models.Marker{{ID: "s1", Kind: "sensor", Point: pt(10, 10)}})
	require.NoError(t, e.Save(ctx, store))

	loaded := New(Options{})
	require.NoError(t, loaded.Load(ctx, store))
	assert.ElementsMatch(t, e.Segments(), loaded.Segments())
	assert.Equal(t, e.Markers(), loaded.Markers())
	assert.Len(t, loaded.Regions().Interior, 1)
	assert.Equal(t, 1, loaded.HistoryLen())
	assert.False(t, loaded.CanUndo())
}

func TestEditor_SaveFailureKeepsState(t *testing.T) {
	ctx := context.Background()
	e := New(Options{})
	drawRoom(t, e)

	failing := &memoryPersistence{saveErr: errors.New("offline"), loadErr: errors.New("offline")}
	err := e.Save(ctx, failing)
	require.Error(t, err)
	assert.ErrorContains(t, err, "offline")
	assert.Len(t, e.Segments(), 4)

	require.Error(t, e.Load(ctx, failing))
	assert.Len(t, e.Segments(), 4)

	require.Error(t, e.Load(ctx, &memoryPersistence{blob: "{not json"}))
	assert.Len(t, e.Segments(), 4)
}

func TestCodec(t *testing.T) {
	doc, err := Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Segments)

	blob, err := Encode(New(Options{}).Document())
	require.NoError(t, err)
	assert.JSONEq(t, `{"segments":[],"markers":[]}`, string(blob))
}

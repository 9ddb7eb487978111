package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TruckLoad/internal/interaction"
	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/pallet"
	"github.com/piwi3910/TruckLoad/internal/placement"
	"github.com/piwi3910/TruckLoad/internal/render"
)

type recordingSink struct {
	subs []Submission
	err  error
}

func (r *recordingSink) Submit(_ context.Context, sub Submission) error {
	if r.err != nil {
		return r.err
	}
	r.subs = append(r.subs, sub)
	return nil
}

// deferredSink accepts every submission and reports outcomes set by the test.
type deferredSink struct {
	recordingSink
	done map[uint64]bool
	errs map[uint64]error
}

func newDeferredSink() *deferredSink {
	return &deferredSink{done: map[uint64]bool{}, errs: map[uint64]error{}}
}

func (d *deferredSink) Outcome(seq uint64) (bool, error) {
	return d.done[seq], d.errs[seq]
}

func cubeTuple(id string, x, y, z, edge float64) model.Tuple {
	return model.Tuple{X: x, Y: y, Z: z, Length: edge, Width: edge, Height: edge, ExternalID: "ext-" + id, Weight: 10, StableID: id}
}

func unplacedTuple(id string, edge float64) model.Tuple {
	return cubeTuple(id, model.Unplaced, model.Unplaced, model.Unplaced, edge)
}

func newSession(t *testing.T) *Session {
	t.Helper()
	settings := model.DefaultSettings()
	settings.Container = [3]float64{12000, 2400, 2700}
	settings.DragSmoothing = 1
	s := NewSession(settings, "trailer")
	s.Load([]model.Tuple{
		cubeTuple("a", 0, 0, 0, 1000),
		cubeTuple("b", 3000, 0, 0, 1000),
		unplacedTuple("c", 1000),
	})
	return s
}

func unitPos(t *testing.T, s *Session, id string) model.Vec3 {
	t.Helper()
	u, ok := s.Store().Unit(id)
	require.True(t, ok, "unit %s", id)
	return u.Position
}

func TestSession_LoadIsClean(t *testing.T) {
	s := newSession(t)

	assert.False(t, s.Dirty())
	assert.Len(t, s.Store().Active(), 2)
	assert.True(t, s.Store().IsRemoved("c"))
	assert.False(t, s.History().CanUndo())
	assert.Len(t, s.Baseline(), 3)
	assert.Equal(t, "trailer", s.Container().Label)
}

func TestSession_DispatchRecordsUndo(t *testing.T) {
	s := newSession(t)

	out := s.Dispatch(placement.Move("b", model.Vec3{X: 5000}))
	require.True(t, out.Applied)
	assert.Equal(t, 1, s.History().Depth())
	assert.True(t, s.Dirty())

	changes := s.UnitChanges()
	require.Len(t, changes.Modified, 1)
	assert.Equal(t, "b", changes.Modified[0].ID)
	assert.Empty(t, changes.Added)
	assert.Empty(t, changes.DeletedIDs)
}

func TestSession_ViewCommandsAreNotUndoSteps(t *testing.T) {
	s := newSession(t)

	require.True(t, s.Dispatch(placement.Select("a")).Applied)
	require.True(t, s.Dispatch(placement.Deselect()).Applied)

	assert.Equal(t, 0, s.History().Depth())
	assert.False(t, s.Dirty())
}

func TestSession_RejectedCommandIsNotRecorded(t *testing.T) {
	s := newSession(t)

	out := s.Dispatch(placement.Move("b", model.Vec3{X: 500}))

	assert.False(t, out.Applied)
	assert.Equal(t, placement.RejectCollision, out.Reason)
	assert.Equal(t, 0, s.History().Depth())
}

func TestSession_UndoRedo(t *testing.T) {
	s := newSession(t)
	s.Dispatch(placement.Move("b", model.Vec3{X: 5000}))
	s.Dispatch(placement.Delete("a"))

	require.True(t, s.Undo())
	assert.False(t, s.Store().IsRemoved("a"))
	assert.Equal(t, model.Vec3{X: 5000}, unitPos(t, s, "b"))

	require.True(t, s.Undo())
	assert.Equal(t, model.Vec3{X: 3000}, unitPos(t, s, "b"))
	assert.False(t, s.Dirty())
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, model.Vec3{X: 5000}, unitPos(t, s, "b"))
	require.True(t, s.Redo())
	assert.True(t, s.Store().IsRemoved("a"))
	assert.False(t, s.Redo())
}

func TestSession_DragGestureIsOneUndoStep(t *testing.T) {
	s := newSession(t)

	u, ok := s.PointerDown(interaction.VerticalRay(500, 500))
	require.True(t, ok)
	require.Equal(t, "a", u.ID)
	for _, x := range []float64{6500, 7500, 8500} {
		f := s.PointerMove(interaction.VerticalRay(x, 500))
		require.True(t, f.Accepted)
	}
	assert.False(t, s.Undo(), "undo is refused mid-drag")

	out := s.PointerUp()
	require.Equal(t, interaction.Committed, out.State)
	assert.Equal(t, model.Vec3{X: 8000}, unitPos(t, s, "a"))
	assert.Equal(t, 1, s.History().Depth())

	require.True(t, s.Undo())
	assert.Equal(t, model.Vec3{}, unitPos(t, s, "a"))
}

func TestSession_CancelledDragLeavesNoUndoStep(t *testing.T) {
	s := newSession(t)

	_, ok := s.PointerDown(interaction.VerticalRay(500, 500))
	require.True(t, ok)
	out := s.PointerUp()

	assert.Equal(t, interaction.Cancelled, out.State)
	assert.Equal(t, 0, s.History().Depth())
}

func TestSession_SubmitResetsBaseline(t *testing.T) {
	s := newSession(t)
	s.Dispatch(placement.Move("b", model.Vec3{X: 5000}))
	s.Dispatch(placement.Restore("c"))
	sink := &recordingSink{}

	sub, err := s.Submit(context.Background(), sink)

	require.NoError(t, err)
	require.Len(t, sink.subs, 1)
	assert.Len(t, sub.Units.Modified, 2)
	assert.Len(t, sub.Tuples, 3)
	assert.Equal(t, s.Store().Version(), sub.Version)
	assert.False(t, s.Dirty())

	s.Dispatch(placement.Move("b", model.Vec3{X: 9000}))
	for _, st := range sink.subs[0].Units.Modified {
		if st.ID == "b" {
			assert.Equal(t, 5000.0, st.Position.X, "submitted payload is a copy")
		}
	}
}

func TestSession_SubmitFailureKeepsChanges(t *testing.T) {
	s := newSession(t)
	s.Dispatch(placement.Delete("a"))
	boom := errors.New("disk full")

	_, err := s.Submit(context.Background(), &recordingSink{err: boom})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, s.Dirty())
	// A deleted unit moves to removed, so it is a modification.
	assert.Empty(t, s.UnitChanges().DeletedIDs)
	assert.Len(t, s.UnitChanges().Modified, 1)
}

func TestSession_FailedBackgroundWriteResendsFullState(t *testing.T) {
	s := newSession(t)
	sink := newDeferredSink()
	ctx := context.Background()

	s.Dispatch(placement.Delete("a"))
	first, err := s.Submit(ctx, sink)
	require.NoError(t, err)
	assert.False(t, first.Full)
	assert.Equal(t, 1, s.Pending())
	assert.False(t, s.Dirty())

	sink.done[first.Seq], sink.errs[first.Seq] = true, errors.New("disk full")
	assert.True(t, s.Dirty())
	assert.Zero(t, s.Pending())

	second, err := s.Submit(ctx, sink)
	require.NoError(t, err)
	assert.True(t, second.Full)
	assert.Equal(t, first.Seq+1, second.Seq)
	assert.Len(t, second.Units.Added, 3)
	assert.Empty(t, second.Units.Modified)
	assert.False(t, s.Dirty())

	sink.done[second.Seq] = true
	assert.False(t, s.Dirty())
	assert.Zero(t, s.Pending())
}

func TestSession_LaterDeltaDoesNotHideFailedWrite(t *testing.T) {
	s := newSession(t)
	sink := newDeferredSink()
	ctx := context.Background()

	s.Dispatch(placement.Move("b", model.Vec3{X: 5000}))
	first, err := s.Submit(ctx, sink)
	require.NoError(t, err)
	s.Dispatch(placement.Move("b", model.Vec3{X: 7000}))
	second, err := s.Submit(ctx, sink)
	require.NoError(t, err)
	assert.False(t, second.Full)

	sink.done[first.Seq], sink.errs[first.Seq] = true, errors.New("locked")
	sink.done[second.Seq] = true

	assert.True(t, s.Dirty())
	assert.True(t, s.Submission().Full)
}

func TestSession_PalletTransferAndChanges(t *testing.T) {
	s := newSession(t)
	eur := model.Pallet{ID: "p-1", Key: "k-1", Label: "EUR 1", Size: model.Size{Length: 1200, Width: 800, Height: 1500}}
	s.LoadPallets([]model.Content{{
		ProductID: "BOX-1", Quantity: 100,
		Size: model.Size{Length: 400, Width: 300, Height: 200},
	}}, []model.Pallet{eur})
	require.False(t, s.Dirty())

	res := s.Transfer(pallet.Pool, "k-1", "BOX-1", 100)

	assert.Equal(t, 60, res.Placed)
	assert.True(t, res.Partial())
	changes := s.PalletChanges()
	require.Len(t, changes.Modified, 1)
	assert.Equal(t, "p-1", changes.Modified[0].ID)
	assert.True(t, s.Dirty())
}

func TestSession_WarningsForUpstreamOverlap(t *testing.T) {
	s := newSession(t)
	s.Load([]model.Tuple{cubeTuple("a", 0, 0, 0, 1000), cubeTuple("d", 500, 0, 0, 1000)})

	warnings := s.Warnings()

	require.NotEmpty(t, warnings)
}

func TestSession_StatsAndRender(t *testing.T) {
	s := newSession(t)

	stats := s.Stats()
	assert.Equal(t, 2, stats.ActiveCount)
	assert.Equal(t, 1, stats.RemovedCount)
	assert.Equal(t, 20.0, stats.TotalWeight)

	drawn := 0
	assert.True(t, s.Render().Frame(func(v []render.Visual) { drawn = len(v) }))
	assert.Equal(t, 2, drawn)
}

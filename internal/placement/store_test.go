package placement

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TruckLoad/internal/geometry"
	"github.com/piwi3910/TruckLoad/internal/model"
)

func cube(id string, x, y, z, edge float64) model.Unit {
	return model.Unit{
		ID:       id,
		Position: model.Vec3{X: x, Y: y, Z: z},
		Size:     model.Size{Length: edge, Width: edge, Height: edge},
	}
}

func newTrailerStore(t *testing.T, units ...model.Unit) *Store {
	t.Helper()
	s := NewStore(model.NewContainer("trailer", [3]float64{12000, 2400, 2700}), model.DefaultSettings())
	for _, u := range units {
		out := s.Apply(Insert(u))
		require.True(t, out.Applied, "insert %s: %s", u.ID, out.Reason)
	}
	return s
}

func ids(units []model.Unit) []string {
	out := make([]string, len(units))
	for i, u := range units {
		out[i] = u.ID
	}
	return out
}

func requireInvariants(t *testing.T, s *Store, checkSupport bool) {
	t.Helper()
	arr := s.Snapshot()
	seen := map[string]bool{}
	for _, u := range append(arr.Active, arr.Removed...) {
		require.False(t, seen[u.ID], "unit %s in both collections", u.ID)
		seen[u.ID] = true
	}
	for _, v := range geometry.Validate(arr, s.Tolerance()) {
		if v.Kind == geometry.ViolationFloating && !checkSupport {
			continue
		}
		require.Failf(t, "invariant broken", "%s %s/%s at %+v", v.Kind, v.UnitID, v.OtherID, v.At)
	}
}

func TestLoad_RoutesSentinelTuplesToRemoved(t *testing.T) {
	s := newTrailerStore(t)
	s.Load([]model.Tuple{
		{X: 0, Y: 0, Z: 0, Length: 1000, Width: 1000, Height: 1000, ExternalID: "p1", StableID: "a"},
		{X: -1, Y: -1, Z: -1, Length: 500, Width: 500, Height: 500, ExternalID: "p2", StableID: "b"},
	})

	assert.Equal(t, []string{"a"}, ids(s.Active()))
	assert.Equal(t, []string{"b"}, ids(s.Removed()))
	assert.True(t, s.IsRemoved("b"))
	assert.Empty(t, s.Selection())
}

func TestLoad_DuplicateIDsAreRenamed(t *testing.T) {
	s := newTrailerStore(t)
	s.Load([]model.Tuple{
		{Length: 100, Width: 100, Height: 100, StableID: "dup"},
		{X: -1, Y: -1, Z: -1, Length: 100, Width: 100, Height: 100, StableID: "dup"},
	})

	require.Len(t, s.Active(), 1)
	require.Len(t, s.Removed(), 1)
	assert.Equal(t, "dup", s.Active()[0].ID)
	assert.NotEqual(t, "dup", s.Removed()[0].ID)
}

func TestLoad_MalformedDimensionsBecomeZero(t *testing.T) {
	s := newTrailerStore(t)
	var tuples []model.Tuple
	require.NoError(t, json.Unmarshal([]byte(`[[0,0,0,"abc",null,500,"p",12]]`), &tuples))
	s.Load(tuples)

	require.Len(t, s.Active(), 1)
	u := s.Active()[0]
	assert.Equal(t, model.Size{Length: 0, Width: 0, Height: 500}, u.Size)
	assert.NotEmpty(t, u.ID, "missing stable id is generated")
}

func TestTuples_WritesRemovedWithSentinel(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 1000, 0, 0, 1000))
	require.True(t, s.Apply(Delete("b")).Applied)

	tuples := s.Tuples()
	require.Len(t, tuples, 2)
	assert.Equal(t, "a", tuples[0].StableID)
	assert.False(t, tuples[0].IsUnplaced())
	assert.Equal(t, "b", tuples[1].StableID)
	assert.True(t, tuples[1].IsUnplaced())
}

func TestInsert_Rejections(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))

	out := s.Apply(Insert(cube("b", 500, 0, 0, 1000)))
	assert.False(t, out.Applied)
	assert.Equal(t, RejectCollision, out.Reason)
	assert.Equal(t, "a", out.Obstacle)

	out = s.Apply(Insert(cube("c", 11500, 0, 0, 1000)))
	assert.Equal(t, RejectOutOfBounds, out.Reason)

	out = s.Apply(Insert(cube("a", 5000, 0, 0, 1000)))
	assert.Equal(t, RejectInvalid, out.Reason, "duplicate id")

	out = s.Apply(Command{Kind: CmdInsert})
	assert.Equal(t, RejectInvalid, out.Reason)

	assert.Len(t, s.Active(), 1)
}

func TestInsert_SettlesOntoSupport(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))

	out := s.Apply(Insert(cube("b", 0, 0, 1500, 1000)))

	require.True(t, out.Applied)
	assert.Equal(t, 1000.0, out.Unit.Position.Z)
	assert.Equal(t, []string{"b"}, out.Settled)
}

func TestMove_StackingScenario(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 1000, 0, 0, 1000), cube("c", 5000, 0, 0, 1000))

	_, hit := geometry.Collides(cube("a", 0, 0, 0, 1000), []model.Unit{cube("b", 1000, 0, 0, 1000)})
	assert.False(t, hit)

	target := geometry.Snap(cube("c", 5000, 0, 0, 1000), model.Vec3{}, s.Active(), s.Container(), 50)
	out := s.Apply(Move("c", target))

	require.True(t, out.Applied)
	assert.Equal(t, model.Vec3{X: 0, Y: 0, Z: 1000}, out.Unit.Position)
	requireInvariants(t, s, true)
}

func TestMove_CollisionKeepsPreviousPosition(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 2000, 0, 0, 1000))
	before := s.Version()

	out := s.Apply(Move("b", model.Vec3{X: 500}))

	assert.False(t, out.Applied)
	assert.Equal(t, RejectCollision, out.Reason)
	u, _ := s.Unit("b")
	assert.Equal(t, 2000.0, u.Position.X)
	assert.Equal(t, before, s.Version())
}

func TestMove_RemovedOrUnknownUnit(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))
	s.Apply(Delete("a"))

	assert.Equal(t, RejectInvalid, s.Apply(Move("a", model.Vec3{})).Reason)
	assert.Equal(t, RejectNotFound, s.Apply(Move("zzz", model.Vec3{})).Reason)
	assert.Equal(t, RejectNotFound, s.Apply(Move("", model.Vec3{})).Reason)
}

func TestDrag_DoesNotResettle(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 0, 0, 1000, 1000))

	out := s.Apply(Drag("a", model.Vec3{X: 3000}))

	require.True(t, out.Applied)
	assert.Empty(t, out.Settled)
	b, _ := s.Unit("b")
	assert.Equal(t, 1000.0, b.Position.Z, "b floats until the drag is committed")

	out = s.Apply(Resettle())
	assert.Equal(t, []string{"b"}, out.Settled)
	b, _ = s.Unit("b")
	assert.Equal(t, 0.0, b.Position.Z)
}

func TestDelete_SupporterLowersBothDependents(t *testing.T) {
	s := newTrailerStore(t,
		cube("base", 0, 0, 0, 1000),
		model.Unit{ID: "side", Position: model.Vec3{X: 1000}, Size: model.Size{Length: 1000, Width: 1000, Height: 500}},
		model.Unit{ID: "mid", Position: model.Vec3{X: 500, Z: 1000}, Size: model.Size{Length: 1000, Width: 1000, Height: 500}},
		model.Unit{ID: "top", Position: model.Vec3{X: 500, Z: 1500}, Size: model.Size{Length: 1000, Width: 1000, Height: 500}},
	)

	out := s.Apply(Delete("base"))

	require.True(t, out.Applied)
	assert.ElementsMatch(t, []string{"mid", "top"}, out.Settled)
	mid, _ := s.Unit("mid")
	top, _ := s.Unit("top")
	assert.Equal(t, 500.0, mid.Position.Z)
	assert.Equal(t, 1000.0, top.Position.Z)
	assert.True(t, s.IsRemoved("base"))
	requireInvariants(t, s, true)
}

func TestRestore_FindsFreePosition(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 1000, 0, 0, 1000))
	s.Apply(Delete("b"))

	out := s.Apply(Restore("b"))

	require.True(t, out.Applied)
	assert.False(t, s.IsRemoved("b"))
	assert.Equal(t, model.Vec3{X: 0, Y: 1000, Z: 0}, out.Unit.Position)
	requireInvariants(t, s, true)
}

func TestRestore_FullContainerIsNoOp(t *testing.T) {
	s := NewStore(model.NewContainer("full", [3]float64{2000, 1000, 1000}), model.DefaultSettings())
	s.Load([]model.Tuple{
		{X: 0, Y: 0, Z: 0, Length: 1000, Width: 1000, Height: 1000, StableID: "a"},
		{X: 1000, Y: 0, Z: 0, Length: 1000, Width: 1000, Height: 1000, StableID: "b"},
		{X: -1, Y: -1, Z: -1, Length: 1000, Width: 1000, Height: 1000, StableID: "c"},
	})
	removedBefore := s.Removed()
	version := s.Version()

	var out Outcome
	require.NotPanics(t, func() { out = s.Apply(Restore("c")) })

	assert.False(t, out.Applied)
	assert.Equal(t, RejectNoFreePosition, out.Reason)
	assert.Equal(t, removedBefore, s.Removed())
	assert.Equal(t, version, s.Version())
}

func TestRestore_ResettlesArrangement(t *testing.T) {
	s := NewStore(model.NewContainer("trailer", [3]float64{12000, 2400, 2700}), model.DefaultSettings())
	s.Load([]model.Tuple{
		{X: 0, Y: 0, Z: 300, Length: 1000, Width: 1000, Height: 1000, StableID: "f"},
		{X: -1, Y: -1, Z: -1, Length: 1000, Width: 1000, Height: 1000, StableID: "c"},
	})

	out := s.Apply(Restore("c"))

	require.True(t, out.Applied)
	assert.Equal(t, []string{"f"}, out.Settled)
	f, _ := s.Unit("f")
	assert.Equal(t, 0.0, f.Position.Z)
	c, _ := s.Unit("c")
	assert.Equal(t, c.Position, out.Unit.Position)
	requireInvariants(t, s, true)
}

func TestRestore_ActiveUnitIsInvalid(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))
	assert.Equal(t, RejectInvalid, s.Apply(Restore("a")).Reason)
	assert.Equal(t, RejectNotFound, s.Apply(Restore("nope")).Reason)
}

func TestRotate_CollisionReverts(t *testing.T) {
	long := model.Unit{ID: "long", Size: model.Size{Length: 2000, Width: 500, Height: 500}}
	s := newTrailerStore(t, long, cube("blocker", 0, 600, 0, 500))

	out := s.Apply(Rotate("long"))

	assert.False(t, out.Applied)
	assert.Equal(t, RejectCollision, out.Reason)
	u, _ := s.Unit("long")
	assert.False(t, u.Rotated)
}

func TestRotate_OutOfBoundsReverts(t *testing.T) {
	long := model.Unit{ID: "long", Size: model.Size{Length: 3000, Width: 500, Height: 500}}
	s := newTrailerStore(t, long)

	out := s.Apply(Rotate("long"))

	assert.Equal(t, RejectOutOfBounds, out.Reason)
}

func TestRotate_Applied(t *testing.T) {
	long := model.Unit{ID: "long", Size: model.Size{Length: 2000, Width: 500, Height: 500}}
	s := newTrailerStore(t, long)

	out := s.Apply(Rotate("long"))

	require.True(t, out.Applied)
	assert.True(t, out.Unit.Rotated)
	assert.Equal(t, model.Size{Length: 500, Width: 2000, Height: 500}, out.Unit.PlacedSize())
}

func TestRotate_RemovedUnitTogglesFreely(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))
	s.Apply(Delete("a"))

	out := s.Apply(Rotate("a"))

	require.True(t, out.Applied)
	assert.True(t, out.Unit.Rotated)
}

func TestForcePlace_AllowsOverlap(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 2000, 0, 0, 1000))

	require.True(t, s.Apply(ForcePlace("b")).Applied)
	out := s.Apply(Move("b", model.Vec3{X: 500}))
	require.True(t, out.Applied)

	// a is still blocked by the force-placed b
	out = s.Apply(Move("a", model.Vec3{X: 100}))
	assert.Equal(t, RejectCollision, out.Reason)

	require.True(t, s.Apply(Unforce("b")).Applied)
	b, _ := s.Unit("b")
	assert.False(t, b.ForcePlaced)
	assert.Equal(t, 500.0, b.Position.X, "unforce does not move the unit")
}

func TestSelection(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 2000, 0, 0, 1000))

	require.True(t, s.Apply(Select("a")).Applied)
	assert.Equal(t, "a", s.Selection())

	assert.Equal(t, RejectNotFound, s.Apply(Select("zzz")).Reason)
	assert.Equal(t, "a", s.Selection())

	s.Apply(Delete("a"))
	assert.Equal(t, "a", s.Selection(), "removed units stay selectable")

	require.True(t, s.Apply(Deselect()).Applied)
	assert.Empty(t, s.Selection())
}

func TestReset_ClearsUnknownSelection(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))
	s.Apply(Select("a"))

	s.Reset(model.Arrangement{Active: []model.Unit{cube("b", 0, 0, 0, 1000)}, Selection: "a"})

	assert.Empty(t, s.Selection())
	assert.Equal(t, []string{"b"}, ids(s.Active()))
}

func TestSetDragging(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000))

	require.True(t, s.Apply(SetDragging("a", true)).Applied)
	u, _ := s.Unit("a")
	assert.True(t, u.Dragging)

	s.Apply(Delete("a"))
	u, _ = s.Unit("a")
	assert.False(t, u.Dragging, "delete clears the transient flag")
}

func TestUnknownCommand(t *testing.T) {
	s := newTrailerStore(t)
	assert.Equal(t, RejectInvalid, s.Apply(Command{Kind: "teleport"}).Reason)
}

func TestEvents(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 0, 0, 1000, 1000))
	var got []Event
	unsubscribe := s.Subscribe(func(e Event) { got = append(got, e) })

	s.Apply(Delete("a"))

	require.Len(t, got, 2)
	assert.Equal(t, EventRemoved, got[0].Kind)
	assert.Equal(t, "a", got[0].UnitID)
	assert.Equal(t, EventMoved, got[1].Kind)
	assert.Equal(t, "b", got[1].UnitID)
	assert.Equal(t, 0.0, got[1].Unit.Position.Z, "event carries the settled unit")
	assert.Equal(t, s.Version(), got[0].Version)

	s.Apply(Move("b", model.Vec3{X: 9000}))
	require.Len(t, got, 3)

	unsubscribe()
	s.Apply(Restore("a"))
	assert.Len(t, got, 3)
}

func TestRejectedCommandEmitsNothing(t *testing.T) {
	s := newTrailerStore(t, cube("a", 0, 0, 0, 1000), cube("b", 2000, 0, 0, 1000))
	calls := 0
	s.Subscribe(func(Event) { calls++ })

	s.Apply(Move("b", model.Vec3{X: 500}))

	assert.Zero(t, calls)
}

func TestCommandUndoable(t *testing.T) {
	assert.True(t, Move("a", model.Vec3{}).Undoable())
	assert.True(t, Delete("a").Undoable())
	assert.False(t, Drag("a", model.Vec3{}).Undoable())
	assert.False(t, Select("a").Undoable())
	assert.False(t, SetDragging("a", true).Undoable())
}

// randomStore loads n random units as removed and restores each, so the
// starting arrangement comes from the free-position search.
func randomStore(t *testing.T, rng *rand.Rand, n int) *Store {
	t.Helper()
	settings := model.DefaultSettings()
	settings.SearchStep = 100
	s := NewStore(model.NewContainer("c", [3]float64{6000, 2400, 2400}), settings)

	tuples := make([]model.Tuple, n)
	for i := range tuples {
		tuples[i] = model.Tuple{
			X: -1, Y: -1, Z: -1,
			Length: float64(300 + 100*rng.Intn(10)),
			Width:  float64(300 + 100*rng.Intn(8)),
			Height: float64(300 + 100*rng.Intn(6)),
		}
	}
	s.Load(tuples)
	for _, u := range s.Removed() {
		s.Apply(Restore(u.ID))
	}
	return s
}

func TestProperty_RandomCommittedEditsKeepInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	s := randomStore(t, rng, 16)
	requireInvariants(t, s, true)
	c := s.Container()

	for step := 0; step < 400; step++ {
		all := append(s.Active(), s.Removed()...)
		u := all[rng.Intn(len(all))]
		var cmd Command
		switch rng.Intn(4) {
		case 0:
			cmd = Move(u.ID, model.Vec3{X: rng.Float64() * c.Length, Y: rng.Float64() * c.Width, Z: rng.Float64() * 1000})
		case 1:
			cmd = Delete(u.ID)
		case 2:
			cmd = Restore(u.ID)
		case 3:
			cmd = Rotate(u.ID)
		}
		s.Apply(cmd)
		requireInvariants(t, s, true)
	}
}

func TestProperty_RandomDragsNeverOverlap(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	s := randomStore(t, rng, 12)
	c := s.Container()

	for gesture := 0; gesture < 60; gesture++ {
		active := s.Active()
		if len(active) == 0 {
			break
		}
		u := active[rng.Intn(len(active))]
		pos := u.Position
		for frame := 0; frame < 20; frame++ {
			pos.X += (rng.Float64() - 0.5) * 800
			pos.Y += (rng.Float64() - 0.5) * 800
			target := geometry.Snap(u, pos, s.Active(), c, 50)
			s.Apply(Drag(u.ID, target))
			requireInvariants(t, s, false)
		}
		s.Apply(Resettle())
		requireInvariants(t, s, true)
	}
}

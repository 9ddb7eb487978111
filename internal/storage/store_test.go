package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/TruckLoad/internal/diff"
	"github.com/piwi3910/TruckLoad/internal/engine"
	"github.com/piwi3910/TruckLoad/internal/model"
	"github.com/piwi3910/TruckLoad/internal/pallet"
	"github.com/piwi3910/TruckLoad/internal/placement"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "truckload.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func cube(id string, x float64, removed bool) model.Tuple {
	t := model.Tuple{X: x, Length: 1000, Width: 1000, Height: 1000, ExternalID: "ext-" + id, Weight: 12, StableID: id}
	if removed {
		t.X, t.Y, t.Z = model.Unplaced, model.Unplaced, model.Unplaced
	}
	return t
}

func newSession(t *testing.T) *engine.Session {
	t.Helper()
	settings := model.DefaultSettings()
	settings.Container = [3]float64{12000, 2400, 2700}
	s := engine.NewSession(settings, "trailer")
	s.Load([]model.Tuple{cube("a", 0, false), cube("b", 3000, false), cube("c", 0, true)})
	return s
}

func seed(t *testing.T, st *Store, s *engine.Session) {
	t.Helper()
	require.NoError(t, st.Replace(context.Background(), s.Container(), s.Baseline()))
}

func TestOpen_CreatesSchemaAndIsEmpty(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()

	units, err := st.Units(ctx)
	require.NoError(t, err)
	assert.Empty(t, units)

	_, ok, err := st.Container(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestReplaceAndTuples(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()

	seed(t, st, s)

	c, ok, err := st.Container(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s.Container(), c)

	tuples, err := st.Tuples(ctx)
	require.NoError(t, err)
	assert.Equal(t, s.Store().Tuples(), tuples)
}

func TestSave_AppliesUnitChangeSet(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()
	seed(t, st, s)

	s.Dispatch(placement.Move("b", model.Vec3{X: 6000}))
	s.Dispatch(placement.Rotate("a"))
	s.Dispatch(placement.Delete("a"))
	s.Dispatch(placement.Restore("c"))
	sub, err := s.Submit(ctx, st)
	require.NoError(t, err)

	units, err := st.Units(ctx)
	require.NoError(t, err)
	require.Len(t, units, 3)
	byID := map[string]diff.UnitState{}
	for _, u := range units {
		byID[u.ID] = u
	}
	assert.Equal(t, 6000.0, byID["b"].Position.X)
	assert.True(t, byID["a"].Removed)
	assert.True(t, byID["a"].Rotated)
	assert.False(t, byID["c"].Removed)

	v, err := st.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, sub.Version, v)
}

func TestSave_DeletingUnknownUnitRollsBack(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()
	seed(t, st, s)

	sub := engine.Submission{
		Container: s.Container(),
		Version:   99,
		Units: diff.ChangeSet[diff.UnitState]{
			Modified:   []diff.UnitState{{Unit: model.Unit{ID: "b", Position: model.Vec3{X: 7000}, Size: model.Size{Length: 1, Width: 1, Height: 1}}}},
			DeletedIDs: []string{"ghost"},
		},
	}
	err := st.Save(ctx, sub)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	units, _ := st.Units(ctx)
	for _, u := range units {
		if u.ID == "b" {
			assert.Equal(t, 3000.0, u.Position.X, "transaction rolled back")
		}
	}
	v, _ := st.Version(ctx)
	assert.Zero(t, v)
}

func TestSave_PalletLifecycle(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()

	s.LoadPallets([]model.Content{{ProductID: "BOX", Label: "Carton", Quantity: 10, Size: model.Size{Length: 400, Width: 300, Height: 200}, Weight: 3}}, nil)
	p := s.Pallets().AddPallet("EUR 1", model.Size{Length: 1200, Width: 800, Height: 1500})
	_, err := s.Submit(ctx, st)
	require.NoError(t, err)

	stored, err := st.Pallets(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, p.ID, stored[0].ID)
	assert.Equal(t, p.Key, stored[0].Key)
	assert.Empty(t, stored[0].Contents)

	res := s.Transfer(pallet.Pool, p.Key, "BOX", 4)
	require.Equal(t, 4, res.Placed)
	_, err = s.Submit(ctx, st)
	require.NoError(t, err)

	got, err := st.Pallet(ctx, stored[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Contents, 1)
	assert.Equal(t, "BOX", got.Contents[0].ProductID)
	assert.Equal(t, 4, got.Contents[0].Quantity)
	assert.Equal(t, 3.0, got.Contents[0].Weight)
}

func TestSave_PalletRemovedAfterSaveIsDeleted(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()

	p := s.Pallets().AddPallet("EUR 1", model.Size{Length: 1200, Width: 800, Height: 1500})
	_, err := s.Submit(ctx, st)
	require.NoError(t, err)

	require.True(t, s.Pallets().RemovePallet(p.Key))
	changes := s.PalletChanges()
	assert.Equal(t, []string{p.ID}, changes.DeletedIDs)

	_, err = s.Submit(ctx, st)
	require.NoError(t, err)
	stored, err := st.Pallets(ctx)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestSave_ModifiedPalletWithoutIDIsFoundByKey(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	legacy := model.Pallet{Key: "k-legacy", Label: "Old"}
	require.NoError(t, st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{Added: []model.Pallet{legacy}}}))

	legacy.Label = "Renamed"
	require.NoError(t, st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{Modified: []model.Pallet{legacy}}}))

	stored, err := st.Pallets(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.NotEmpty(t, stored[0].ID)
	assert.Equal(t, "Renamed", stored[0].Label)
}

func TestSave_PalletDeleteAndNotFound(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	p := model.Pallet{ID: "p-1", Key: "k-1", Label: "EUR", Size: model.Size{Length: 1200, Width: 800, Height: 1500},
		Contents: []model.Content{{ProductID: "A", Quantity: 1, Priority: 1}, {ProductID: "B", Quantity: 2, Priority: 2}}}

	require.NoError(t, st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{Added: []model.Pallet{p}}}))
	got, err := st.Pallet(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, []string{got.Contents[0].ProductID, got.Contents[1].ProductID})

	err = st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{Modified: []model.Pallet{{ID: "nope", Key: "nope"}}}})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{DeletedIDs: []string{"p-1"}}}))
	_, err = st.Pallet(ctx, "p-1")
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{DeletedIDs: []string{"p-1"}}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSave_ForcePlacedSurvivesReload(t *testing.T) {
	st := openStore(t)
	s := newSession(t)
	ctx := context.Background()
	seed(t, st, s)

	require.True(t, s.Dispatch(placement.ForcePlace("a")).Applied)
	require.True(t, s.Dispatch(placement.Move("a", model.Vec3{X: 3500})).Applied)
	_, err := s.Submit(ctx, st)
	require.NoError(t, err)

	units, err := st.Units(ctx)
	require.NoError(t, err)
	reloaded := newSession(t)
	reloaded.LoadUnits(units)

	a, ok := reloaded.Store().Unit("a")
	require.True(t, ok)
	assert.True(t, a.ForcePlaced)
	assert.Equal(t, 3500.0, a.Position.X)
	assert.True(t, reloaded.Store().IsRemoved("c"))
	assert.Empty(t, reloaded.Warnings())
	assert.False(t, reloaded.Dirty())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truckload.db")
	ctx := context.Background()
	s := newSession(t)

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Replace(ctx, s.Container(), s.Baseline()))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()
	units, err := st.Units(ctx)
	require.NoError(t, err)
	assert.Len(t, units, 3)
}

func TestReplacePallets(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	old := model.Pallet{ID: "p-old", Key: "k-old", Label: "Old", Contents: []model.Content{{ProductID: "X", Quantity: 1}}}
	require.NoError(t, st.Save(ctx, engine.Submission{Pallets: diff.ChangeSet[model.Pallet]{Added: []model.Pallet{old}}}))

	restored := []model.Pallet{
		{ID: "p-1", Key: "k-1", Label: "EUR", Contents: []model.Content{{ProductID: "A", Quantity: 2}}},
		{Key: "k-2", Label: "Half"},
	}
	require.NoError(t, st.ReplacePallets(ctx, restored))

	got, err := st.Pallets(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p-1", got[0].ID)
	assert.Equal(t, 2, got[0].Contents[0].Quantity)
	assert.NotEmpty(t, got[1].ID)
	_, err = st.Pallet(ctx, "p-old")
	assert.ErrorIs(t, err, ErrNotFound)
}

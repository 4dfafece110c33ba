package services

import (
	"context"
	"testing"

	"mikhailche/lurelog/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGearLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.register(t, "bob@example.com")
	eve := f.register(t, "eve@example.com")

	g, err := f.gear.CreateGear(ctx, bob, GearInput{Kind: " ROD ", Brand: "Shimano", Name: "Zodias", WeightG: 120})
	require.NoError(t, err)
	assert.Equal(t, repository.GearRod, g.Kind)

	defaulted, err := f.gear.CreateGear(ctx, bob, GearInput{Name: "Minnow"})
	require.NoError(t, err)
	assert.Equal(t, repository.GearLure, defaulted.Kind)

	_, err = f.gear.GetGear(ctx, eve, g.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.gear.UpdateGear(ctx, eve, g.ID, GearInput{Name: "Stolen"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	updated, err := f.gear.UpdateGear(ctx, bob, g.ID, GearInput{Kind: "rod", Brand: "Shimano", Name: "Zodias 2"})
	require.NoError(t, err)
	assert.Equal(t, "Zodias 2", updated.Name)

	list, err := f.gear.ListGear(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.gear.DeleteGear(ctx, bob, g.ID))
	_, err = f.gear.GetGear(ctx, bob, g.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGearValidationAndScreening(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.register(t, "bob@example.com")

	_, err := f.gear.CreateGear(ctx, bob, GearInput{Kind: "boat", Name: "Dinghy"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.gear.CreateGear(ctx, bob, GearInput{Kind: "lure"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.gear.CreateGear(ctx, bob, GearInput{Name: "Spinner", Color: "badword red"})
	require.ErrorIs(t, err, ErrContentRejected)
	assert.Contains(t, err.Error(), "color")

	list, err := f.gear.ListGear(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCopyGear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	bob := f.register(t, "bob@example.com")
	eve := f.register(t, "eve@example.com")
	g, err := f.gear.CreateGear(ctx, bob, GearInput{Kind: "lure", Brand: "Mepps", Name: "Aglia 3", Color: "silver"})
	require.NoError(t, err)

	_, err = f.gear.CopyGear(ctx, eve, g.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	copied, err := f.gear.CopyGear(ctx, bob, g.ID)
	require.NoError(t, err)
	assert.NotEqual(t, g.ID, copied.ID)
	assert.Equal(t, g.Name, copied.Name)
	assert.Equal(t, g.Color, copied.Color)

	list, err := f.gear.ListGear(ctx, bob)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

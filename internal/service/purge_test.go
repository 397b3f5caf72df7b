package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurgeDestroysImagesThenWipes(t *testing.T) {
	images := &fakeImages{failOn: map[string]bool{"https://img.test/bad.png": true}}
	var order []string
	wiped := false

	profiles := func(context.Context) ([]string, error) {
		order = append(order, "profiles")
		return []string{"https://img.test/a.png", "https://img.test/bad.png"}, nil
	}
	groups := func(context.Context) ([]string, error) {
		order = append(order, "groups")
		return []string{"https://img.test/g.png"}, nil
	}
	wipe := func(context.Context) error {
		assert.Len(t, images.destroyed, 2, "images are destroyed before the wipe")
		wiped = true
		return nil
	}

	report, err := NewPurgeService(images, wipe, profiles, groups).Purge(context.Background())
	require.NoError(t, err)
	assert.True(t, wiped)
	assert.Equal(t, PurgeReport{ImagesDestroyed: 2, ImagesFailed: 1}, report)
	assert.Equal(t, []string{"profiles", "groups"}, order)
}

func TestPurgeStopsWhenListingFails(t *testing.T) {
	listErr := errors.New("db gone")
	wiped := false
	lister := func(context.Context) ([]string, error) { return nil, listErr }
	wipe := func(context.Context) error { wiped = true; return nil }

	_, err := NewPurgeService(&fakeImages{}, wipe, lister).Purge(context.Background())
	assert.ErrorIs(t, err, listErr)
	assert.False(t, wiped)
}

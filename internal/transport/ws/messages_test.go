package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragdoll-sandbox/internal/game"
)

func TestDecodePointerEvents(t *testing.T) {
	cases := []struct {
		raw   string
		phase game.PointerPhase
	}{
		{`{"type":"pointer","phase":"down","x":10,"y":20}`, game.PointerDown},
		{`{"type":"pointer","phase":"move","x":11,"y":21}`, game.PointerMove},
		{`{"type":"pointer","phase":"up","x":12,"y":22}`, game.PointerUp},
	}
	for _, tc := range cases {
		ev, err := DecodeEvent([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		pe, ok := ev.(game.PointerEvent)
		require.True(t, ok)
		assert.Equal(t, tc.phase, pe.Phase)
	}
}

func TestDecodeRejectsUnknownPointerPhase(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"pointer","phase":"hover","x":1,"y":1}`))
	require.Error(t, err)
}

func TestDecodeResize(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"resize","width":800,"height":600}`))
	require.NoError(t, err)
	assert.Equal(t, game.ResizeEvent{Width: 800, Height: 600}, ev)

	_, err = DecodeEvent([]byte(`{"type":"resize","width":0,"height":600}`))
	require.Error(t, err, "degenerate viewport rejected at the wire")
}

func TestDecodeSpawnAndDrop(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"spawn","asset":"apple"}`))
	require.NoError(t, err)
	assert.Equal(t, game.SpawnEvent{Asset: "apple"}, ev)

	ev, err = DecodeEvent([]byte(`{"type":"drop","asset":"brick","x":100,"y":50}`))
	require.NoError(t, err)
	assert.Equal(t, game.DropEvent{Asset: "brick", X: 100, Y: 50}, ev)
}

func TestDecodeTrashAndClear(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"trash_click"}`))
	require.NoError(t, err)
	assert.IsType(t, game.TrashClickEvent{}, ev)

	ev, err = DecodeEvent([]byte(`{"type":"clear"}`))
	require.NoError(t, err)
	assert.IsType(t, game.ClearEvent{}, ev)
}

func TestDecodeRejectsUnknownTypeAndGarbage(t *testing.T) {
	_, err := DecodeEvent([]byte(`{"type":"teleport"}`))
	require.Error(t, err)

	_, err = DecodeEvent([]byte(`{not json`))
	require.Error(t, err)
}

func TestSafeValue(t *testing.T) {
	assert.Equal(t, 3.5, safeValue(3.5, 0))

	nan := func() float64 { z := 0.0; return z / z }()
	assert.Equal(t, 0.0, safeValue(nan, 0))

	inf := func() float64 { z := 0.0; return 1 / z }()
	assert.Equal(t, 1.0, safeValue(inf, 1))
}

package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/annel0/tome/internal/eventbus"
)

func TestParseStringList(t *testing.T) {
	assert.Nil(t, parseStringList(""))
	assert.Equal(t, []string{"TilePlaced", "TileEmpty"}, parseStringList(" TilePlaced, ,TileEmpty "))
}

func TestCollectStats(t *testing.T) {
	events := make(chan event, 8)
	events <- event{Type: eventbus.TypeTilePlaced, Tile: eventbus.TilePayload{Key: "stairs"}}
	events <- event{Type: eventbus.TypeTilePlaced, Tile: eventbus.TilePayload{Key: "stairs"}}
	events <- event{Type: eventbus.TypeTileEmpty}
	events <- event{Type: eventbus.TypeTileUnloaded}
	close(events)

	stats := collectStats(context.Background(), events, 0)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.ByType[eventbus.TypeTilePlaced])
	assert.Equal(t, map[string]int{"stairs": 2}, stats.ByKey)

	limited := make(chan event, 2)
	limited <- event{Type: eventbus.TypeTileEmpty}
	limited <- event{Type: eventbus.TypeTileEmpty}
	assert.Equal(t, 1, collectStats(context.Background(), limited, 1).Total)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, sortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
}

package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/soil-temp-model/internal/model"
)

func art(id string) *model.Artifact {
	return &model.Artifact{ID: id}
}

func newArtifactCache(size int) *lruCache[string, *model.Artifact] {
	return newLRUCache[string, *model.Artifact](size)
}

// put stores under the key's current generation.
func put(c *lruCache[string, *model.Artifact], key string, value *model.Artifact) (string, bool) {
	evicted, ok, _ := c.putAt(key, value, c.generation(key))
	return evicted, ok
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newArtifactCache(3)

	put(c, "a", art("A"))
	put(c, "b", art("B"))

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", result.ID)

	result, ok = c.get("missing")
	assert.False(t, ok)
	assert.Nil(t, result)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newArtifactCache(2)

	put(c, "a", art("A"))
	put(c, "b", art("B"))
	evicted, ok := put(c, "c", art("C"))
	assert.True(t, ok)
	assert.Equal(t, "a", evicted)

	_, ok = c.get("a")
	assert.False(t, ok, "a should have been evicted")

	result, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", result.ID)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newArtifactCache(2)

	put(c, "a", art("A"))
	put(c, "b", art("B"))
	c.get("a")
	put(c, "c", art("C"))

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newArtifactCache(2)

	put(c, "a", art("A1"))
	_, evicted := put(c, "a", art("A2"))
	assert.False(t, evicted)

	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", result.ID)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_Delete(t *testing.T) {
	c := newArtifactCache(2)
	put(c, "a", art("A"))
	put(c, "b", art("B"))

	assert.True(t, c.delete("a"))
	assert.False(t, c.delete("a"))
	assert.Equal(t, 1, c.len())

	put(c, "c", art("C"))
	put(c, "d", art("D"))
	_, ok := c.get("b")
	assert.False(t, ok)
}

func TestLRUCache_PutAtRejectsValueReadBeforeDelete(t *testing.T) {
	c := newArtifactCache(2)

	gen := c.generation("a")
	c.delete("a")

	_, _, stored := c.putAt("a", art("stale"), gen)
	assert.False(t, stored)
	_, ok := c.get("a")
	assert.False(t, ok)

	_, _, stored = c.putAt("a", art("fresh"), c.generation("a"))
	assert.True(t, stored)
	result, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "fresh", result.ID)
}

func TestLRUCache_GenerationsArePerKey(t *testing.T) {
	c := newArtifactCache(2)

	gen := c.generation("a")
	c.delete("b")

	_, _, stored := c.putAt("a", art("A"), gen)
	assert.True(t, stored)
}

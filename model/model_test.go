package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunkCountLaw(t *testing.T) {
	cases := []struct {
		size int64
		want int64
	}{
		{0, 1},
		{1, 1},
		{PlainChunkSize - 1, 1},
		{PlainChunkSize, 1},
		{PlainChunkSize + 1, 2},
		{3 * PlainChunkSize, 3},
		{3*PlainChunkSize + 1, 4},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, ChunkCount(c.size), "size=%d", c.size)
	}
}

func TestParentOf(t *testing.T) {
	p := ParentOf("abc-123")
	assert.Equal(t, ParentUUID, p.Kind)
	assert.Equal(t, "abc-123", p.UUID)
}

package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from JobStatus
		to   JobStatus
		want bool
	}{
		{"uploading to processing", StatusUploading, StatusProcessing, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing to failed", StatusProcessing, StatusFailed, true},
		{"uploading to completed is not reachable", StatusUploading, StatusCompleted, false},
		{"uploading to failed is not reachable", StatusUploading, StatusFailed, false},
		{"completed is terminal", StatusCompleted, StatusProcessing, false},
		{"failed is terminal", StatusFailed, StatusProcessing, false},
		{"no backward edge", StatusProcessing, StatusUploading, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanTransition(tc.from, tc.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusUploading.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestIndexSets(t *testing.T) {
	set := []int{}
	set = AddIndex(set, 3)
	set = AddIndex(set, 1)
	set = AddIndex(set, 3)
	assert.Equal(t, []int{1, 3}, set)

	set = RemoveIndex(set, 2)
	assert.Equal(t, []int{1, 3}, set)

	set = RemoveIndex(set, 3)
	assert.Equal(t, []int{1}, set)
}

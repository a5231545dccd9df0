package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashIsStable(t *testing.T) {
	assert.Equal(t, Hash("pet_task_due/task-1"), Hash("pet_task_due/task-1"))
	assert.NotEqual(t, Hash("pet_task_due/task-1"), Hash("pet_task_due/task-2"))
}

func TestHashIsURLSafe(t *testing.T) {
	id := Hash("some/input with spaces")
	assert.NotEmpty(t, id)
	for _, c := range id {
		ok := (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		assert.True(t, ok, "unexpected character %q in id", c)
	}
}

func TestNewRandomIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRandomID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}

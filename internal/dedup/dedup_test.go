package dedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenSuppressesDuplicateWithinTTL(t *testing.T) {
	f := New(50*time.Millisecond, 0)
	defer f.Close()

	assert.False(t, f.Seen("SELECT 1"))
	assert.True(t, f.Seen("SELECT 1"))
}

func TestSeenTreatsDistinctSQLIndependently(t *testing.T) {
	f := New(50*time.Millisecond, 0)
	defer f.Close()

	assert.False(t, f.Seen("SELECT 1"))
	assert.False(t, f.Seen("SELECT 2"))
}

func TestSeenExpiresAfterTTL(t *testing.T) {
	f := New(10*time.Millisecond, 0)
	defer f.Close()

	assert.False(t, f.Seen("SELECT 1"))
	time.Sleep(40 * time.Millisecond)
	assert.False(t, f.Seen("SELECT 1"), "entry should have expired and no longer suppress")
}

func TestClearDropsSuppressionState(t *testing.T) {
	f := New(time.Second, 0)
	defer f.Close()

	assert.False(t, f.Seen("SELECT 1"))
	f.Clear()
	assert.False(t, f.Seen("SELECT 1"), "cleared entry should no longer suppress")
}

func TestNilFilterNeverSuppresses(t *testing.T) {
	var f *Filter
	assert.False(t, f.Seen("SELECT 1"))
	assert.False(t, f.Seen("SELECT 1"))
	f.Clear()
	f.Close()
}

package alerts

import (
	"fmt"
	"sync"
	"testing"

	"github.com/arveo/kismet-sentinel/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendNewestFirstWithMonotonicIDs(t *testing.T) {
	s := NewStore(10)
	first := s.Append(models.CategorySignal, models.SeverityWarning, "first", "")
	second := s.Append(models.CategoryDrone, models.SeverityCritical, "second", "")

	got := s.Query("", "", 0)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
	assert.Equal(t, "first", got[1].Title)
	assert.Greater(t, second.ID, first.ID)
}

func TestCapacityEviction(t *testing.T) {
	const capacity = 5
	s := NewStore(capacity)
	for i := 0; i < capacity+1; i++ {
		s.Append(models.CategorySignal, models.SeverityInfo, fmt.Sprintf("ev-%d", i), "")
	}

	got := s.Query("", "", 0)
	require.Len(t, got, capacity)
	// Oldest (ev-0) evicted; the rest remain newest first.
	assert.Equal(t, "ev-5", got[0].Title)
	assert.Equal(t, "ev-1", got[capacity-1].Title)
}

func TestQueryFiltersAndLimit(t *testing.T) {
	s := NewStore(50)
	for i := 0; i < 3; i++ {
		s.Append(models.CategoryDrone, models.SeverityCritical, fmt.Sprintf("crit-%d", i), "")
	}
	for i := 0; i < 2; i++ {
		s.Append(models.CategoryKismet, models.SeverityInfo, fmt.Sprintf("info-%d", i), "")
	}

	got := s.Query("critical", "", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "crit-2", got[0].Title)

	// Filters AND-combine.
	assert.Len(t, s.Query("critical", "drone", 0), 3)
	assert.Empty(t, s.Query("critical", "kismet", 0))
}

func TestClear(t *testing.T) {
	s := NewStore(10)
	s.Append(models.CategoryError, models.SeverityError, "boom", "")
	s.Clear()
	assert.Empty(t, s.Query("", "", 0))
	assert.Zero(t, s.Len())
}

func TestConcurrentAppendNeverExceedsCapacity(t *testing.T) {
	const capacity = 100
	s := NewStore(capacity)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Append(models.CategorySignal, models.SeverityWarning, fmt.Sprintf("g%d-%d", g, i), "")
				if i%10 == 0 {
					_ = s.Query("warning", "", 5)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, capacity, s.Len())

	// IDs stay strictly decreasing from the head.
	got := s.Query("", "", 0)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i-1].ID, got[i].ID)
	}
}

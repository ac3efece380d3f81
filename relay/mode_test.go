package relay

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeStringAndParse(t *testing.T) {
	tests := []struct {
		mode Mode
		name string
	}{
		{ModeAutonomous, "autonomous"},
		{ModeSupervised, "supervised"},
		{ModeReEvaluate, "reevaluate"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.mode.String())
		parsed, err := ParseMode(tt.name)
		require.NoError(t, err)
		assert.Equal(t, tt.mode, parsed)
		assert.True(t, tt.mode.IsValid())
	}

	_, err := ParseMode("optimal")
	assert.Error(t, err)
	assert.False(t, Mode(42).IsValid())
	assert.Equal(t, "unknown", Mode(42).String())
}

func TestModeControllerStartsAutonomous(t *testing.T) {
	c := NewModeController()
	assert.Equal(t, ModeAutonomous, c.Current())
}

func TestModeControllerTransitions(t *testing.T) {
	c := NewModeController()
	c.Transition(ModeSupervised)
	assert.Equal(t, ModeSupervised, c.Current())
	c.Transition(ModeAutonomous)
	assert.Equal(t, ModeAutonomous, c.Current())
	c.ForceSupervised()
	assert.Equal(t, ModeSupervised, c.Current())
}

// Concurrent transitions and reads must never observe a torn value: every
// read returns one of the three valid variants.
func TestModeControllerConcurrentAccess(t *testing.T) {
	c := NewModeController()
	modes := []Mode{ModeAutonomous, ModeSupervised, ModeReEvaluate}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Transition(modes[(i+j)%len(modes)])
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				assert.True(t, c.Current().IsValid())
			}
		}()
	}
	wg.Wait()
	assert.True(t, c.Current().IsValid())
}

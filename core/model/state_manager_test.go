package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/gaussrank/pkg/errors"
)

func TestStateManager_Lifecycle(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("GaussRankScaler", "Transform")
	var nfe *errors.NotFittedError
	require.True(t, errors.As(err, &nfe))
	assert.Equal(t, "Transform", nfe.Method)

	s.SetFitted(3, 100)
	assert.True(t, s.IsFitted())
	assert.NoError(t, s.RequireFitted("GaussRankScaler", "Transform"))

	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 3, nFeatures)
	assert.Equal(t, 100, nSamples)

	s.Reset()
	assert.False(t, s.IsFitted())
	nFeatures, _ = s.GetDimensions()
	assert.Zero(t, nFeatures)
}

func TestStateManager_RequireFeatures(t *testing.T) {
	s := NewStateManager()
	s.SetFitted(2, 10)

	assert.NoError(t, s.RequireFeatures("GaussRankScaler.Transform", 2))

	err := s.RequireFeatures("GaussRankScaler.Transform", 3)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
	assert.Equal(t, 1, dimErr.Axis)
}

func TestStateManager_StateRoundTrip(t *testing.T) {
	s := NewStateManager()
	s.SetFitted(4, 50)

	restored := NewStateManager()
	restored.SetState(s.GetState())
	assert.Equal(t, s.GetState(), restored.GetState())
}

func TestStateManager_ConcurrentReads(t *testing.T) {
	s := NewStateManager()
	s.SetFitted(1, 1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, s.IsFitted())
		}()
	}
	wg.Wait()
}

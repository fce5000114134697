package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObserveCycle(t *testing.T) {
	s := NewState()
	assert.False(t, s.Ready())
	assert.True(t, s.LastCycle().IsZero())

	at := time.Unix(1_700_000_000, 0)
	s.ObserveCycle(at, 0, errors.New("positions: timeout"))
	assert.False(t, s.Ready())
	assert.Equal(t, "positions: timeout", s.LastError())
	assert.Equal(t, at, s.LastCycle())

	s.ObserveCycle(at.Add(time.Minute), 3, nil)
	assert.True(t, s.Ready())
	assert.Empty(t, s.LastError())
	assert.Equal(t, 3, s.Tracked())

	// готовность не сбрасывается упавшим циклом
	s.ObserveCycle(at.Add(2*time.Minute), 3, errors.New("flush"))
	assert.True(t, s.Ready())
	assert.Equal(t, "flush", s.LastError())
}

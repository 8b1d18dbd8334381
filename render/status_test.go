package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	var s Status
	assert.Equal(t, "NORMAL", s.String())
	assert.False(t, s.Has(Terminal))

	s.Set(StatusResized | StatusInoperable)
	assert.True(t, s.Has(StatusResized))
	assert.Equal(t, "RESIZED|INOPERABLE", s.String())

	s.Clear(StatusResized)
	assert.False(t, s.Has(StatusResized))
	assert.True(t, s.Has(StatusInoperable))

	s.Set(StatusShutdownRequested)
	assert.True(t, s.Has(Terminal))
	assert.False(t, s.Has(StatusFatalError))

	s.Clear(StatusShutdownRequested | StatusInoperable)
	assert.Equal(t, StatusNormal, s)
}

package phase

import (
	"testing"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_FirstIsOrderedFirstArgument(t *testing.T) {
	tiff := NewTIFFConversion(ResourceShape{})
	thumb := NewThumbnail(ResourceShape{})

	r, err := NewRegistry(tiff, thumb)
	require.NoError(t, err)
	assert.Equal(t, TagTIFFConversion, r.First().Tag())
}

func TestRegistry_GetResolvesRegisteredTag(t *testing.T) {
	tiff := NewTIFFConversion(ResourceShape{})
	thumb := NewThumbnail(ResourceShape{})
	r, err := NewRegistry(tiff, thumb)
	require.NoError(t, err)

	p, err := r.Get(TagThumbnail)
	require.NoError(t, err)
	assert.Equal(t, TagThumbnail, p.Tag())
}

func TestRegistry_GetUnregisteredTagFails(t *testing.T) {
	tiff := NewTIFFConversion(ResourceShape{})
	r, err := NewRegistry(tiff)
	require.NoError(t, err)

	_, err = r.Get(batch.PhaseTag("NOT_A_PHASE"))
	assert.ErrorIs(t, err, batch.ErrPhaseNotRegistered)
}

func TestNewRegistry_RequiresAtLeastOnePhase(t *testing.T) {
	_, err := NewRegistry()
	assert.Error(t, err)
}

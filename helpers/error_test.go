package helpers

import (
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()

	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))

	single := errors.NotFoundf("sensor")
	err := FoldErrors([]error{nil, single, nil})
	assert.Equal(t, single, err)
	assert.True(t, errors.IsNotFound(err))

	err = FoldErrors([]error{errors.New("first"), nil, errors.New("second")})
	assert.EqualError(t, err, "first\nsecond")
}

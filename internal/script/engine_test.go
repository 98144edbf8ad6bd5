package script

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNullEngineAlwaysSucceeds(t *testing.T) {
	e := NullEngine{}
	ok, err := e.Execute([]byte{0x01}, []byte{0x51}, make([]byte, 32))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = e.Execute(nil, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)
}

package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	require.NotEmpty(t, String())

	old := Version
	t.Cleanup(func() { Version = old })
	Version = "v1.2.3"
	require.Equal(t, "v1.2.3", String())
}

func TestBuildInfo(t *testing.T) {
	require.NotEmpty(t, BuildTime)
	require.NotEmpty(t, GitCommit)
}

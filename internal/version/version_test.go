package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCurrentIsSemverWithoutVPrefix(t *testing.T) {
	require.Regexp(t, `^[0-9]+\.[0-9]+\.[0-9]+$`, Current, "Current must match <major>.<minor>.<patch>")
}

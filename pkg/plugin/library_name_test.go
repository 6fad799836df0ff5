package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNativeLibraryNameForGOOS(t *testing.T) {
	assert.Equal(t, "libfoo.so", nativeLibraryNameForGOOS("foo", "linux"))
	assert.Equal(t, "libfoo.dylib", nativeLibraryNameForGOOS("foo", "darwin"))
	assert.Equal(t, "foo.dll", nativeLibraryNameForGOOS("foo", "windows"))
}

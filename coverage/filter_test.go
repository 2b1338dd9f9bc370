package coverage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterCovers(t *testing.T) {
	f := NewFilter()
	assert.True(t, f.IsEmpty())

	f.IncludeDirectory("src/storage")
	f.IncludeFile("src/util/strings.go")

	assert.False(t, f.IsEmpty())
	assert.True(t, f.Covers("src/storage/db.go"))
	assert.True(t, f.Covers("src/storage"))
	assert.True(t, f.Covers("src/util/strings.go"))
	assert.False(t, f.Covers("src/util/ints.go"))
	assert.False(t, f.Covers("src/storagex/db.go"))
}

func TestMapper(t *testing.T) {
	f := NewFilter()
	NewMapper().Map(f, []string{"lib"}, []string{"main.go"})

	assert.Equal(t, []string{"lib"}, f.Directories())
	assert.ElementsMatch(t, []string{"main.go"}, f.Files())
	assert.True(t, f.Covers("lib/deep/nested.go"))
	assert.True(t, f.Covers("main.go"))
}

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-ci/crucible/types"
)

func TestNewGoTestExecutorValidation(t *testing.T) {
	_, err := NewGoTestExecutor(ExecutorConfig{})
	assert.ErrorContains(t, err, "work directory is required")

	executor, err := NewGoTestExecutor(ExecutorConfig{WorkDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, DefaultGoBinary, executor.goBinary)
	assert.Equal(t, DefaultTestTimeout, executor.timeout)
}

func TestGoTestExecutorRunValidation(t *testing.T) {
	executor, err := NewGoTestExecutor(ExecutorConfig{WorkDir: t.TempDir()})
	require.NoError(t, err)

	_, err = executor.Run(nil, &types.TestItem{Name: "TestThing", Package: "example.com/mod"})
	assert.ErrorContains(t, err, "context cannot be nil")

	_, err = executor.Run(context.Background(), &types.TestItem{Name: "TestThing"})
	assert.ErrorContains(t, err, "has no package")
}

func TestBuildTestArgs(t *testing.T) {
	executor, err := NewGoTestExecutor(ExecutorConfig{
		WorkDir: t.TempDir(),
		Timeout: 2 * time.Minute,
	})
	require.NoError(t, err)

	args := executor.buildTestArgs(&types.TestItem{
		Name:    "TestThing",
		Package: "example.com/mod/pkg",
	})
	assert.Equal(t, []string{
		"test", "-json", "-v",
		"-timeout", "2m0s",
		"-count", "1",
		"example.com/mod/pkg",
		"-run", "^TestThing$",
	}, args)
}

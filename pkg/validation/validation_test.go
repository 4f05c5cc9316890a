package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.txt")
	require.NoError(t, os.WriteFile(path, []byte("0 1\n"), 0644))

	assert.NoError(t, ValidateInputFile(path))
	assert.ErrorContains(t, ValidateInputFile(filepath.Join(dir, "missing.txt")), "does not exist")
	assert.ErrorContains(t, ValidateInputFile(dir), "is a directory")
}

func TestValidateOutputDirectory(t *testing.T) {
	dir := t.TempDir()

	created := filepath.Join(dir, "a", "b")
	require.NoError(t, ValidateOutputDirectory(created))
	info, err := os.Stat(created)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	assert.NoError(t, ValidateOutputDirectory(dir))
	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.ErrorContains(t, ValidateOutputDirectory(file), "not a directory")
}

func TestValidatePartition(t *testing.T) {
	tests := []struct {
		name        string
		numNodes    int
		communities [][]int
		valid       bool
	}{
		{name: "valid", numNodes: 4, communities: [][]int{{0, 2}, {1, 3}}, valid: true},
		{name: "no nodes", numNodes: 0, communities: nil, valid: true},
		{name: "missing node", numNodes: 4, communities: [][]int{{0, 1}, {2}}},
		{name: "duplicate node", numNodes: 3, communities: [][]int{{0, 1}, {1, 2}}},
		{name: "unknown node", numNodes: 2, communities: [][]int{{0, 1, 2}}},
		{name: "empty community", numNodes: 2, communities: [][]int{{0, 1}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePartition(tt.numNodes, tt.communities)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

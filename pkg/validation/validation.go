package validation

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateInputFile checks that an edge-list file exists, is a regular file
// and is readable
func ValidateInputFile(filePath string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("edge list file does not exist: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("cannot access edge list file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("edge list path is a directory: %s", filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("cannot open edge list file: %w", err)
	}
	return file.Close()
}

// ValidateOutputDirectory checks if output directory exists or can be created
func ValidateOutputDirectory(outputDir string) error {
	info, err := os.Stat(outputDir)
	if os.IsNotExist(err) {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("cannot create output directory: %w", err)
		}
		return nil
	}

	if err != nil {
		return fmt.Errorf("cannot access output directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("output path exists but is not a directory: %s", outputDir)
	}

	// Check if directory is writable
	testFile := filepath.Join(outputDir, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("output directory is not writable: %w", err)
	}
	os.Remove(testFile)

	return nil
}

// ValidatePartition checks that communities list every node in
// [0, numNodes) exactly once and that no community is empty
func ValidatePartition(numNodes int, communities [][]int) error {
	seen := make([]bool, numNodes)
	count := 0
	for c, members := range communities {
		if len(members) == 0 {
			return fmt.Errorf("community %d is empty", c)
		}
		for _, node := range members {
			if node < 0 || node >= numNodes {
				return fmt.Errorf("community %d references unknown node %d", c, node)
			}
			if seen[node] {
				return fmt.Errorf("node %d is assigned to more than one community", node)
			}
			seen[node] = true
			count++
		}
	}

	if count != numNodes {
		return fmt.Errorf("partition covers %d of %d nodes", count, numNodes)
	}
	return nil
}

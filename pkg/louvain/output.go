package louvain

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// OutputWriter interface for flexible output generation
type OutputWriter interface {
	WriteMapping(result *Result, path string) error
	WriteHierarchy(result *Result, path string) error
	WriteRoot(result *Result, path string) error
	WriteAssignments(result *Result, path string) error
	WriteSummary(result *Result, path string, format string) error
	WriteAll(result *Result, outputDir string, prefix string, summaryFormat string) error
}

// FileWriter implements OutputWriter for file-based output
type FileWriter struct{}

// NewFileWriter creates a new file-based output writer
func NewFileWriter() OutputWriter {
	return &FileWriter{}
}

// WriteAll writes all output files
func (fw *FileWriter) WriteAll(result *Result, outputDir string, prefix string, summaryFormat string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	mappingPath := filepath.Join(outputDir, prefix+".mapping")
	if err := fw.WriteMapping(result, mappingPath); err != nil {
		return fmt.Errorf("failed to write mapping: %w", err)
	}

	hierarchyPath := filepath.Join(outputDir, prefix+".hierarchy")
	if err := fw.WriteHierarchy(result, hierarchyPath); err != nil {
		return fmt.Errorf("failed to write hierarchy: %w", err)
	}

	rootPath := filepath.Join(outputDir, prefix+".root")
	if err := fw.WriteRoot(result, rootPath); err != nil {
		return fmt.Errorf("failed to write root: %w", err)
	}

	assignmentPath := filepath.Join(outputDir, prefix+".assignment")
	if err := fw.WriteAssignments(result, assignmentPath); err != nil {
		return fmt.Errorf("failed to write assignments: %w", err)
	}

	summaryPath := filepath.Join(outputDir, prefix+"."+summaryFormat)
	if err := fw.WriteSummary(result, summaryPath, summaryFormat); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	return nil
}

// WriteMapping writes every final community with its original nodes
func (fw *FileWriter) WriteMapping(result *Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return EncodeMapping(w, result) })
}

// WriteHierarchy writes the community structure of every level above the first
func (fw *FileWriter) WriteHierarchy(result *Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return EncodeHierarchy(w, result) })
}

// WriteRoot writes the top-level community identifiers
func (fw *FileWriter) WriteRoot(result *Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return EncodeRoot(w, result) })
}

// WriteAssignments writes one "node community" line per original node
func (fw *FileWriter) WriteAssignments(result *Result, path string) error {
	return writeFile(path, func(w io.Writer) error {
		for node, comm := range result.FinalCommunities {
			if _, err := fmt.Fprintf(w, "%d %d\n", node, comm); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteSummary writes the whole result as JSON or YAML
func (fw *FileWriter) WriteSummary(result *Result, path string, format string) error {
	return writeFile(path, func(w io.Writer) error { return EncodeSummary(w, result, format) })
}

// EncodeMapping writes "c0_l<L>_<id>", the member count and the members of
// each final community, L being the number of levels
func EncodeMapping(w io.Writer, result *Result) error {
	root := len(result.Levels)
	for commID, nodes := range result.Communities {
		members := append([]int(nil), nodes...)
		sort.Ints(members)

		if _, err := fmt.Fprintf(w, "c0_l%d_%d\n%d\n", root, commID, len(members)); err != nil {
			return err
		}
		for _, node := range members {
			if _, err := fmt.Fprintf(w, "%d\n", node); err != nil {
				return err
			}
		}
	}
	return nil
}

// EncodeHierarchy writes, for each level k >= 1, every community of that
// level followed by its child communities from level k-1
func EncodeHierarchy(w io.Writer, result *Result) error {
	for k := 1; k < len(result.Levels); k++ {
		level := result.Levels[k]

		children := make([][]int, level.NumCommunities)
		for node, comm := range level.Assignment {
			children[comm] = append(children[comm], node)
		}

		for commID, nodes := range children {
			if _, err := fmt.Fprintf(w, "c0_l%d_%d\n%d\n", k+1, commID, len(nodes)); err != nil {
				return err
			}
			for _, child := range nodes {
				if _, err := fmt.Fprintf(w, "c0_l%d_%d\n", k, child); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// EncodeRoot writes one identifier per top-level community
func EncodeRoot(w io.Writer, result *Result) error {
	root := len(result.Levels)
	for commID := range result.Communities {
		if _, err := fmt.Fprintf(w, "c0_l%d_%d\n", root, commID); err != nil {
			return err
		}
	}
	return nil
}

// EncodeSummary serializes the result in the given format (json or yaml)
func EncodeSummary(w io.Writer, result *Result, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(result); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported summary format %q", format)
	}
}

// WriteOutline writes the short report printed at the end of a run
func WriteOutline(w io.Writer, result *Result) error {
	_, err := fmt.Fprintf(w, "#Pass: %d\n#Communities: %d\nQ: %g\n",
		result.Statistics.Passes, result.NumCommunities(), result.Modularity)
	return err
}

func writeFile(path string, encode func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := encode(w); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

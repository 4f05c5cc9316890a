package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gilchrisn/louvain-hierarchy/pkg/louvain"
)

var (
	// ErrMalformedLine is wrapped by every *LineError
	ErrMalformedLine = errors.New("malformed edge line")

	// ErrEmptyGraph is returned when the input holds no edges
	ErrEmptyGraph = errors.New("edge list is empty")
)

// Triple is one "i j weight" record. i == j denotes a self-loop.
type Triple struct {
	From   int
	To     int
	Weight float64
}

// LineError reports a line of the edge list that could not be parsed
type LineError struct {
	Line   int
	Text   string
	Reason string
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d %q: %s", e.Line, e.Text, e.Reason)
}

// Unwrap makes errors.Is(err, ErrMalformedLine) hold for every LineError
func (e *LineError) Unwrap() error {
	return ErrMalformedLine
}

// ReadEdgeList reads whitespace separated "i j [weight]" lines. Blank lines
// and lines starting with '#' or '%' are skipped; a missing weight is 1.
func ReadEdgeList(r io.Reader) ([]Triple, error) {
	var triples []Triple

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		triple, err := parseLine(line)
		if err != nil {
			return nil, &LineError{Line: lineNum, Text: line, Reason: err.Error()}
		}
		triples = append(triples, triple)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading edge list: %w", err)
	}
	if len(triples) == 0 {
		return nil, ErrEmptyGraph
	}

	return triples, nil
}

func parseLine(line string) (Triple, error) {
	parts := strings.Fields(line)
	if len(parts) < 2 || len(parts) > 3 {
		return Triple{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(parts))
	}

	from, err := parseNode(parts[0])
	if err != nil {
		return Triple{}, err
	}
	to, err := parseNode(parts[1])
	if err != nil {
		return Triple{}, err
	}

	weight := 1.0
	if len(parts) == 3 {
		weight, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return Triple{}, fmt.Errorf("invalid weight %q", parts[2])
		}
		if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
			return Triple{}, fmt.Errorf("weight must be finite and non-negative, got %s", parts[2])
		}
	}

	return Triple{From: from, To: to, Weight: weight}, nil
}

func parseNode(field string) (int, error) {
	id, err := strconv.Atoi(field)
	if err != nil {
		return 0, fmt.Errorf("invalid node id %q", field)
	}
	if id < 0 {
		return 0, fmt.Errorf("negative node id %d", id)
	}
	return id, nil
}

// NumNodes returns max(i, j) + 1 over all triples
func NumNodes(triples []Triple) int {
	n := 0
	for _, t := range triples {
		if t.From+1 > n {
			n = t.From + 1
		}
		if t.To+1 > n {
			n = t.To + 1
		}
	}
	return n
}

// BuildGraph creates a graph from triples. A self-loop triple sets the
// node's self weight, so a repeated self-loop keeps the last weight;
// every other triple adds one undirected edge.
func BuildGraph(triples []Triple) *louvain.Graph {
	graph := louvain.NewGraph(NumNodes(triples))
	for _, t := range triples {
		if t.From == t.To {
			graph.AddSelfEdge(t.From, t.Weight)
			continue
		}
		graph.AddUndirectedEdge(t.From, t.To, t.Weight)
	}
	return graph
}

// LoadGraph reads an edge-list file and builds the graph
func LoadGraph(path string) (*louvain.Graph, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open edge list: %w", err)
	}
	defer file.Close()

	triples, err := ReadEdgeList(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return BuildGraph(triples), nil
}

package utils

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gilchrisn/louvain-hierarchy/pkg/louvain"
)

// MoveEvent is one JSON line of the move log
type MoveEvent struct {
	MoveNumber int     `json:"move"`
	RunID      string  `json:"run_id,omitempty"`
	Pass       int     `json:"pass"`
	Node       int     `json:"node"`
	FromComm   int     `json:"from_comm"`
	ToComm     int     `json:"to_comm"`
	Gain       float64 `json:"gain"`
	Timestamp  int64   `json:"timestamp"`
}

// MoveTracker writes every accepted local move as a JSON line. It implements
// louvain.MoveObserver.
type MoveTracker struct {
	closer  io.Closer
	buf     *bufio.Writer
	encoder *json.Encoder
	runID   string
	moves   int
	err     error
}

// NewMoveTracker creates the file at filename and tracks moves into it
func NewMoveTracker(filename, runID string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create move log: %w", err)
	}

	mt := NewMoveTrackerTo(file, runID)
	mt.closer = file
	return mt, nil
}

// NewMoveTrackerTo tracks moves into w. Close flushes but does not close w.
func NewMoveTrackerTo(w io.Writer, runID string) *MoveTracker {
	buf := bufio.NewWriter(w)
	return &MoveTracker{
		buf:     buf,
		encoder: json.NewEncoder(buf),
		runID:   runID,
	}
}

// LogMove appends one event. The first write error is kept and reported
// by Close; later moves are dropped.
func (mt *MoveTracker) LogMove(pass, node, fromComm, toComm int, gain float64) {
	if mt == nil || mt.err != nil {
		return
	}

	mt.moves++
	event := MoveEvent{
		MoveNumber: mt.moves,
		RunID:      mt.runID,
		Pass:       pass,
		Node:       node,
		FromComm:   fromComm,
		ToComm:     toComm,
		Gain:       gain,
		Timestamp:  time.Now().Unix(),
	}

	if err := mt.encoder.Encode(event); err != nil {
		mt.err = fmt.Errorf("failed to log move %d: %w", mt.moves, err)
	}
}

// ObserveMove logs a move reported by the engine
func (mt *MoveTracker) ObserveMove(move louvain.Move) {
	mt.LogMove(move.Pass, move.Node, move.From, move.To, move.Gain)
}

// Moves returns the number of moves logged so far
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

// Close flushes the log and closes the underlying file if the tracker
// opened it
func (mt *MoveTracker) Close() error {
	if mt == nil {
		return nil
	}

	err := mt.err
	if flushErr := mt.buf.Flush(); err == nil && flushErr != nil {
		err = fmt.Errorf("failed to flush move log: %w", flushErr)
	}
	if mt.closer != nil {
		if closeErr := mt.closer.Close(); err == nil && closeErr != nil {
			err = closeErr
		}
		mt.closer = nil
	}
	return err
}

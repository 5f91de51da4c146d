package tracker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// StaticConsent answers every prompt the same way
type StaticConsent bool

func (s StaticConsent) Confirm(context.Context) (bool, error) {
	return bool(s), nil
}

// PromptConsent asks on a terminal
type PromptConsent struct {
	In       io.Reader
	Out      io.Writer
	Question string
}

func (p PromptConsent) Confirm(ctx context.Context) (bool, error) {
	question := p.Question
	if question == "" {
		question = "Activer le suivi de localisation pour ce voyage ?"
	}
	fmt.Fprintf(p.Out, "%s [o/N] ", question)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(p.In).ReadString('\n')
		answer <- strings.ToLower(strings.TrimSpace(line))
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-answer:
		return a == "o" || a == "oui" || a == "y" || a == "yes", nil
	}
}

// ErrNoMorePositions is returned once a ReplayLocator has handed out its last fix
var ErrNoMorePositions = errors.New("no more positions")

// ReplayLocator hands out recorded positions in order, then repeats the last one
type ReplayLocator struct {
	mu        sync.Mutex
	positions []Position
	next      int
	Repeat    bool
}

func NewReplayLocator(positions []Position) *ReplayLocator {
	return &ReplayLocator{positions: positions, Repeat: true}
}

// LoadReplayLocator reads a JSON array of {latitude, longitude} objects
func LoadReplayLocator(path string) (*ReplayLocator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var positions []Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("decode positions %s: %w", path, err)
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("no positions in %s", path)
	}
	return NewReplayLocator(positions), nil
}

func (r *ReplayLocator) RequestPermission(context.Context) (bool, error) {
	return true, nil
}

func (r *ReplayLocator) CurrentPosition(ctx context.Context) (Position, error) {
	if err := ctx.Err(); err != nil {
		return Position{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.next >= len(r.positions) {
		if !r.Repeat || len(r.positions) == 0 {
			return Position{}, ErrNoMorePositions
		}
		return r.positions[len(r.positions)-1], nil
	}
	pos := r.positions[r.next]
	r.next++
	return pos, nil
}

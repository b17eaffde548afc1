// Package arena preallocates the boards the search simulates on. Every
// board and its pieces live in a handful of slabs allocated once, so
// cloning a position during search never touches the garbage collector.
package arena

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/board"
)

var (
	// ErrExhausted is the panic value when every board is in use. It means
	// the arena was provisioned too small for the search settings.
	ErrExhausted = errors.New("arena exhausted")
	ErrTooLarge  = errors.New("arena reservation exceeds half of system memory")
	ErrCapacity  = errors.New("arena capacity must be positive")
)

// Arena is a fixed-capacity pool of boards sharing one template. Acquire
// and Release are safe for concurrent use; the boards themselves are not.
type Arena struct {
	mu     sync.Mutex
	tpl    *board.Template
	boards []board.Board
	free   []int32
	inUse  []bool
	peak   int

	pieces   []board.Piece
	occupant []int8
	visited  []bool
	queue    []int
}

// BytesPerBoard estimates the memory one arena slot reserves.
func BytesPerBoard(tpl *board.Template) uint64 {
	n := uint64(tpl.NumSquares())
	return uint64(unsafe.Sizeof(board.Board{})) +
		board.MaxPieces*uint64(unsafe.Sizeof(board.Piece{})) +
		n*(1+1+uint64(unsafe.Sizeof(int(0)))) +
		uint64(unsafe.Sizeof(int32(0))) + 1
}

// New reserves capacity boards for tpl.
func New(tpl *board.Template, capacity int) (*Arena, error) {
	if capacity <= 0 {
		return nil, ErrCapacity
	}
	reserve := BytesPerBoard(tpl) * uint64(capacity)
	if total := memory.TotalMemory(); total > 0 && reserve > total/2 {
		return nil, fmt.Errorf("%w: %d bytes of %d", ErrTooLarge, reserve, total)
	}
	n := tpl.NumSquares()
	a := &Arena{
		tpl:      tpl,
		boards:   make([]board.Board, capacity),
		free:     make([]int32, capacity),
		inUse:    make([]bool, capacity),
		pieces:   make([]board.Piece, capacity*board.MaxPieces),
		occupant: make([]int8, capacity*n),
		visited:  make([]bool, capacity*n),
		queue:    make([]int, capacity*n),
	}
	for i := range a.boards {
		p, s := i*board.MaxPieces, i*n
		st := board.Storage{
			Pieces:   a.pieces[p : p : p+board.MaxPieces],
			Occupant: a.occupant[s : s+n : s+n],
			Visited:  a.visited[s : s+n : s+n],
			Queue:    a.queue[s : s : s+n],
		}
		a.boards[i].Init(tpl, st, i)
		// Hand out low slots first.
		a.free[i] = int32(capacity - 1 - i)
	}
	log.Debug().Str("layout", tpl.Name()).Int("capacity", capacity).
		Uint64("reserved-bytes", reserve).
		Uint64("total-memory", memory.TotalMemory()).
		Msg("arena-created")
	return a, nil
}

// Acquire returns a board reset to baseline. It panics with ErrExhausted
// when no board is free.
func (a *Arena) Acquire() *board.Board {
	a.mu.Lock()
	if len(a.free) == 0 {
		a.mu.Unlock()
		panic(fmt.Errorf("%w: all %d boards in use", ErrExhausted, len(a.boards)))
	}
	slot := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.inUse[slot] = true
	if live := len(a.boards) - len(a.free); live > a.peak {
		a.peak = live
	}
	a.mu.Unlock()

	b := &a.boards[slot]
	b.Reset()
	return b
}

// Clone acquires a board and copies src into it.
func (a *Arena) Clone(src *board.Board) *board.Board {
	b := a.Acquire()
	b.CopyFrom(src)
	return b
}

// Release gives b back to the arena. Releasing a board twice, or a board
// the arena does not own, panics.
func (a *Arena) Release(b *board.Board) {
	slot := b.Slot()
	if slot < 0 || slot >= len(a.boards) || &a.boards[slot] != b {
		panic("arena: release of a foreign board")
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inUse[slot] {
		panic(fmt.Sprintf("arena: double release of slot %d", slot))
	}
	a.inUse[slot] = false
	a.free = append(a.free, int32(slot))
}

func (a *Arena) Template() *board.Template { return a.tpl }
func (a *Arena) Capacity() int             { return len(a.boards) }

// Live returns the number of boards currently acquired.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.boards) - len(a.free)
}

// Peak returns the most boards ever acquired at once.
func (a *Arena) Peak() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peak
}

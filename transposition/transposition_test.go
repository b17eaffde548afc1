package transposition

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var tpl = board.MustTemplate(board.LayoutStandard, board.StandardLayout)

var position = []string{
	`__=====_`,
	`__#r###_`,
	`###rR###`,
	`###sS###`,
	`_###R#__`,
	`_=====__`,
}

func parse(t *testing.T, rows []string) *board.Board {
	b, err := board.ParseDiagram(tpl, rows)
	require.NoError(t, err)
	return b
}

func swapColours(rows []string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Map(func(c rune) rune {
			switch c {
			case 'r', 's':
				return c - 'a' + 'A'
			case 'R', 'S':
				return c - 'A' + 'a'
			}
			return c
		}, r)
	}
	return out
}

func TestSignatureFormat(t *testing.T) {
	b := parse(t, position)
	s := NewSigner()
	assert.Equal(t, "1r3132s33R4244S43@--", s.Sign(b, board.P1, Identity))
	b.SetAnchor(3)
	assert.Equal(t, "2r3132s33R4244S43@33", s.Sign(b, board.P2, Identity))
}

func TestSignatureIgnoresPieceOrder(t *testing.T) {
	a := board.New(tpl)
	b := board.New(tpl)
	_, err := a.PlacePiece(board.P1, board.RoundPiece, 3*8+1)
	require.NoError(t, err)
	_, err = a.PlacePiece(board.P1, board.RoundPiece, 2*8+2)
	require.NoError(t, err)
	_, err = b.PlacePiece(board.P1, board.RoundPiece, 2*8+2)
	require.NoError(t, err)
	_, err = b.PlacePiece(board.P1, board.RoundPiece, 3*8+1)
	require.NoError(t, err)
	s := NewSigner()
	assert.Equal(t, s.Sign(a, board.P1, Identity), s.Sign(b, board.P1, Identity))
}

func TestRotatedSignatureMatchesRotatedBoard(t *testing.T) {
	b := parse(t, position)
	b.SetAnchor(4)
	r := board.New(tpl)
	b.RotateInto(r)
	s := NewSigner()
	assert.Equal(t, s.Sign(b, board.P2, Rotated), s.Sign(r, board.P2, Identity))
	assert.Equal(t, s.Sign(b, board.P2, Identity), s.Sign(r, board.P2, Rotated))
	assert.NotEqual(t, s.Sign(b, board.P2, Identity), s.Sign(b, board.P2, Rotated))
}

func TestInvertedSignatureMatchesSwappedBoard(t *testing.T) {
	b := parse(t, position)
	swapped := parse(t, swapColours(position))
	s := NewSigner()
	assert.Equal(t, s.Sign(b, board.P1, Inverted), s.Sign(swapped, board.P2, Identity))
	assert.Equal(t, s.Sign(b, board.P1, RotatedInverted)[0], byte('2'))
}

func TestStoreSymmetricWritesAllForms(t *testing.T) {
	st := store.NewMemoryStore()
	c := New(st, 0)
	b := parse(t, position)
	s := NewSigner()
	c.StoreSymmetric(s, b, board.P1, 120)
	assert.Equal(t, 4, st.Len())

	r := board.New(tpl)
	b.RotateInto(r)
	v, ok := c.Lookup(s.Sign(r, board.P1, Identity))
	require.True(t, ok)
	assert.Equal(t, int32(120), v)

	swapped := parse(t, swapColours(position))
	v, ok = c.Lookup(s.Sign(swapped, board.P2, Identity))
	require.True(t, ok)
	assert.Equal(t, int32(-120), v)

	_, ok = c.Lookup(s.Sign(b, board.P2, Identity))
	assert.False(t, ok)
	assert.Equal(t, Stats{Lookups: 3, Hits: 2, Writes: 4}, c.Stats())
}

type brokenStore struct{ calls int }

func (b *brokenStore) Get(context.Context, string) (int32, bool, error) {
	b.calls++
	return 0, false, errors.New("connection refused")
}

func (b *brokenStore) Set(context.Context, string, int32) error {
	b.calls++
	return errors.New("connection refused")
}

func (b *brokenStore) Close() error { return nil }

func TestStoreFailureDegradesToMisses(t *testing.T) {
	st := &brokenStore{}
	c := New(st, 0)
	b := parse(t, position)
	s := NewSigner()
	_, ok := c.Lookup(s.Sign(b, board.P1, Identity))
	assert.False(t, ok)
	assert.False(t, c.Available())

	c.StoreSymmetric(s, b, board.P1, 5)
	_, ok = c.Lookup(s.Sign(b, board.P1, Identity))
	assert.False(t, ok)
	assert.Equal(t, 1, st.calls)
	assert.Equal(t, uint64(1), c.Stats().Failures)
}

func TestNilStoreAlwaysMisses(t *testing.T) {
	c := New(nil, 0)
	b := parse(t, position)
	s := NewSigner()
	c.StoreSymmetric(s, b, board.P1, 5)
	_, ok := c.Lookup(s.Sign(b, board.P1, Identity))
	assert.False(t, ok)
	assert.False(t, c.Available())
}

type deadlineStore struct {
	store.MemoryStore
	deadlines []bool
}

func (d *deadlineStore) Get(ctx context.Context, key string) (int32, bool, error) {
	_, ok := ctx.Deadline()
	d.deadlines = append(d.deadlines, ok)
	return 0, false, nil
}

func TestMemoryStoreCallsHaveNoDeadline(t *testing.T) {
	c := New(store.NewMemoryStore(), 50*time.Millisecond)
	assert.Equal(t, time.Duration(0), c.Timeout())

	b := parse(t, position)
	s := NewSigner()
	c.StoreSymmetric(s, b, board.P1, 7)
	key := s.Sign(b, board.P1, Identity)
	allocs := testing.AllocsPerRun(100, func() {
		if _, ok := c.Lookup(key); !ok {
			t.Fatal("stored score missing")
		}
	})
	assert.Zero(t, allocs)
}

func TestRemoteStoreCallsHaveDeadline(t *testing.T) {
	st := &deadlineStore{}
	c := New(st, 50*time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.Timeout())
	b := parse(t, position)
	c.Lookup(NewSigner().Sign(b, board.P1, Identity))
	assert.Equal(t, []bool{true}, st.deadlines)
}

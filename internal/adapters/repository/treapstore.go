package repository

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rezamiaw/dashboard-talent-match-intelligence/internal/domain/model"
	"github.com/rezamiaw/dashboard-talent-match-intelligence/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: rate DESC, then employee id ASC (deterministic).
// "less" means ranks earlier, so in-order traversal yields the ranking from
// best to worst. Subtree sizes give O(log n) access by rank position.
// Each role has its own immutable board; Publish builds a new board and swaps it in.

const defaultMaxLimit = 1_000

// treap node
type node struct {
	id    string
	rate  float64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aRate, aID) should appear before (bRate, bID).
func less(aRate float64, aID string, bRate float64, bID string) bool {
	if aRate != bRate {
		return aRate > bRate
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

// idPriority derives a heap priority from the id so tree shape is reproducible.
func idPriority(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func insert(n *node, id string, rate float64) *node {
	if n == nil {
		return &node{id: id, rate: rate, prio: idPriority(id), size: 1}
	}
	if less(rate, id, n.rate, n.id) {
		n.left = insert(n.left, id, rate)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, rate)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

// collectRange appends up to limit ids in rank order starting at position offset.
func collectRange(n *node, offset, limit int, out *[]string) {
	if n == nil || len(*out) >= limit {
		return
	}
	leftSize := nsize(n.left)
	if offset < leftSize {
		collectRange(n.left, offset, limit, out)
	}
	if len(*out) < limit && offset <= leftSize {
		*out = append(*out, n.id)
	}
	if len(*out) < limit {
		collectRange(n.right, max(offset-leftSize-1, 0), limit, out)
	}
}

// board is the immutable ranking of one role.
type board struct {
	version int
	root    *node
	byID    map[string]model.MatchResult // Rank already assigned
}

func (b *board) collect(offset, limit int) []model.MatchResult {
	ids := make([]string, 0, min(limit, len(b.byID)))
	collectRange(b.root, offset, limit, &ids)
	out := make([]model.MatchResult, len(ids))
	for i, id := range ids {
		out[i] = b.byID[id]
	}
	return out
}

// buildBoard inserts every result and assigns dense ranks from an in-order walk.
func buildBoard(version int, results []model.MatchResult) *board {
	b := &board{version: version, byID: make(map[string]model.MatchResult, len(results))}
	for _, r := range results {
		if _, dup := b.byID[r.EmployeeID]; dup {
			continue
		}
		b.byID[r.EmployeeID] = r
		b.root = insert(b.root, r.EmployeeID, r.FinalMatchRate)
	}

	ids := make([]string, 0, len(b.byID))
	collectRange(b.root, 0, len(b.byID), &ids)
	rank := 0
	prev := 0.0
	for i, id := range ids {
		r := b.byID[id]
		if i == 0 || r.FinalMatchRate != prev {
			rank++
		}
		prev = r.FinalMatchRate
		r.Rank = rank
		b.byID[id] = r
	}
	return b
}

// TreapStore implements Store with one treap per role.
type TreapStore struct {
	mu       sync.RWMutex
	boards   map[string]*board
	maxLimit int
}

// NewTreapStore constructs a treap store with configuration options.
func NewTreapStore(opts ...Option) *TreapStore {
	s := &TreapStore{
		boards:   make(map[string]*board),
		maxLimit: defaultMaxLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Publish implements Store.Publish. Duplicate employee ids keep the first result.
func (s *TreapStore) Publish(_ context.Context, roleID string, version int, results []model.MatchResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	for _, r := range results {
		if r.RoleID != roleID || r.RoleVersion != version {
			metrics.RecordErrorByComponent("repository", "mixed_roles")
			return ErrMixedRoles
		}
	}

	b := buildBoard(version, results)

	s.mu.Lock()
	s.boards[roleID] = b
	s.mu.Unlock()

	metrics.UpdateRankedEmployees(roleID, len(b.byID))
	return nil
}

func (s *TreapStore) board(roleID string) (*board, error) {
	s.mu.RLock()
	b, ok := s.boards[roleID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrRoleNotPublished
	}
	return b, nil
}

// Rank implements Store.Rank in O(1) from the published board.
func (s *TreapStore) Rank(_ context.Context, roleID, employeeID string) (model.MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	b, err := s.board(roleID)
	if err != nil {
		return model.MatchResult{}, err
	}
	r, ok := b.byID[employeeID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.MatchResult{}, ErrNotFound
	}
	return r, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(ctx context.Context, roleID string, n int) ([]model.MatchResult, error) {
	return s.Slice(ctx, roleID, 0, n)
}

// Slice implements Store.Slice in O(log n + limit).
func (s *TreapStore) Slice(_ context.Context, roleID string, offset, limit int) ([]model.MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if limit < 1 || offset < 0 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}
	limit = min(limit, s.maxLimit)

	b, err := s.board(roleID)
	if err != nil {
		return nil, err
	}
	return b.collect(offset, limit), nil
}

// All implements Store.All.
func (s *TreapStore) All(_ context.Context, roleID string) ([]model.MatchResult, error) {
	b, err := s.board(roleID)
	if err != nil {
		return nil, err
	}
	return b.collect(0, len(b.byID)), nil
}

// Version implements Store.Version.
func (s *TreapStore) Version(_ context.Context, roleID string) (int, error) {
	b, err := s.board(roleID)
	if err != nil {
		return 0, err
	}
	return b.version, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(_ context.Context, roleID string) int {
	b, err := s.board(roleID)
	if err != nil {
		return 0
	}
	return len(b.byID)
}

// Roles returns the ids of roles with a published ranking.
func (s *TreapStore) Roles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.boards))
	for id := range s.boards {
		out = append(out, id)
	}
	return out
}

// Package party defines participant identifiers and the registry that
// tracks them across a PedPop+ protocol instance.
package party

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cronokirby/saferith"

	"github.com/luxfi/pedpop/pkg/math/curve"
)

// ID identifies a participant. It is opaque, globally unique within one
// protocol run, and defines a nonzero scalar evaluation point via Scalar.
type ID uint32

// Scalar returns the evaluation point x_i for this participant in the
// scalar field of group. IDs are shifted by one before injection so that
// x_i != 0 even for ID(0).
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	n := new(saferith.Nat).SetUint64(uint64(id) + 1)
	return group.NewScalar().SetNat(n)
}

func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// IDSlice is a slice of IDs that can be sorted into canonical
// (ascending-identifier) order.
type IDSlice []ID

func (s IDSlice) Len() int           { return len(s) }
func (s IDSlice) Less(i, j int) bool { return s[i] < s[j] }
func (s IDSlice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// Sorted returns a sorted copy of s.
func (s IDSlice) Sorted() IDSlice {
	out := make(IDSlice, len(s))
	copy(out, s)
	sort.Sort(out)
	return out
}

// Set is an insertion-ordered, duplicate-free collection of participants.
// Its contents and order are fixed for the lifetime of one protocol
// instance (spec invariant). Iteration in canonical order is always
// available via Sorted, regardless of insertion order, since sid and pk
// derivation is order-sensitive only in the canonical (ascending) sense.
type Set struct {
	ids     IDSlice
	index   map[ID]int
	lagOnce sync.Map // canonical-subset fingerprint -> map[ID]curve.Scalar
}

// NewSet builds a Set from ids; a repeated id is dropped, keeping its first
// position.
func NewSet(ids ...ID) *Set {
	s := &Set{
		ids:   make(IDSlice, 0, len(ids)),
		index: make(map[ID]int, len(ids)),
	}
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = len(s.ids)
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports whether id is a member of the set.
func (s *Set) Contains(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Index returns the position of id within the set's canonical order, or -1.
func (s *Set) Index(id ID) int {
	sorted := s.Sorted()
	for i, other := range sorted {
		if other == id {
			return i
		}
	}
	return -1
}

// Len returns the number of participants in the set.
func (s *Set) Len() int { return len(s.ids) }

// Sorted returns the participants in canonical (ascending identifier) order.
// This is the sole tie-breaker used by every sum and hash absorb in
// PedPop+: sid and pk are order-sensitive, so every honest participant must
// agree on this order.
func (s *Set) Sorted() IDSlice {
	return s.ids.Sorted()
}

// Intersect returns the participants present in both s and other, in
// canonical order.
func (s *Set) Intersect(other *Set) IDSlice {
	out := make(IDSlice, 0)
	for _, id := range s.Sorted() {
		if other.Contains(id) {
			out = append(out, id)
		}
	}
	return out
}

// Lagrange returns lambda_i(S), the Lagrange coefficient of participant id
// evaluated at 0 over the set s, for group. The result is memoised per
// (subset, group) fingerprint, since S is fixed across the many
// evaluations a single PedPop+ round performs.
//
// Precondition (fail-fast, a programming error if violated): id must be a
// member of s, and every x_j for j in s must be pairwise distinct and
// nonzero — guaranteed by Set construction and ID.Scalar.
func (s *Set) Lagrange(group curve.Curve, id ID) curve.Scalar {
	key := group.Name() + "|" + s.fingerprint()
	cached, ok := s.lagOnce.Load(key)
	var coeffs map[ID]curve.Scalar
	if ok {
		coeffs = cached.(map[ID]curve.Scalar)
	} else {
		coeffs = computeLagrange(group, s.Sorted())
		s.lagOnce.Store(key, coeffs)
	}
	coeff, ok := coeffs[id]
	if !ok {
		panic("party: Lagrange called for id not in set")
	}
	return coeff
}

func (s *Set) fingerprint() string {
	sorted := s.Sorted()
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

// Lagrange computes lambda_i(S) for every i in ids, evaluated at 0, for
// group. This is the batch form used directly by polynomial reconstruction
// tests and by Set.Lagrange's memoisation.
func Lagrange(group curve.Curve, ids IDSlice) map[ID]curve.Scalar {
	return computeLagrange(group, ids)
}

func computeLagrange(group curve.Curve, ids IDSlice) map[ID]curve.Scalar {
	xs := make(map[ID]curve.Scalar, len(ids))
	for _, id := range ids {
		xs[id] = id.Scalar(group)
	}

	out := make(map[ID]curve.Scalar, len(ids))
	for _, i := range ids {
		xi := xs[i]
		num := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
		den := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
		for _, j := range ids {
			if j == i {
				continue
			}
			xj := xs[j]
			// num *= -x_j (Negate is applied to a clone: xj is reused below)
			num = num.Mul(xj.Clone().Negate())
			// den *= (x_i - x_j)
			diff := xi.Clone().Sub(xj)
			den = den.Mul(diff)
		}
		out[i] = num.Mul(den.Invert())
	}
	return out
}

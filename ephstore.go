/*------------------------------------------------------------------------------
* ephstore.go : broadcast ephemeris store
*
*          Copyright (C) 2022-2025 by feng xuebin, All rights reserved.
*
* notes  : the store keeps the current and the previous revision per
*          satellite. a correction is matched to the revision with the same
*          iod. all methods are safe for concurrent use.
*-----------------------------------------------------------------------------*/
package ssrgo

import (
	"math"
	"sort"
	"sync"
)

type PutResult int

const (
	EphAccepted PutResult = iota
	EphRejected
)

func (r PutResult) String() string {
	if r == EphAccepted {
		return "accepted"
	}
	return "rejected"
}

type ephSlot struct {
	cur, prev EphRevision
	bad       bool /* last revision failed plausibility */
}

type EphStore struct {
	mu     sync.Mutex
	slots  map[int]*ephSlot
	badEph int
}

func NewEphStore() *EphStore {
	return &EphStore{slots: make(map[int]*ephSlot)}
}

/* plausibility of a new revision against the current one --------------------*/
func plausible(eph, cur EphRevision) bool {
	rs, _, ok := eph.PosVel(eph.Toc())
	if !ok {
		return false
	}
	if r := Norm(rs[:], 3); r < MINRADIUS || r > MAXRADIUS {
		Trace(2, "implausible ephemeris: sat=%s radius=%.0f\n", SatNo2Id(eph.Sat()), r)
		return false
	}
	if cur == nil || TimeDiff(eph.Toc(), cur.Toc()) != 0.0 {
		return true
	}
	rc, _, ok := cur.PosVel(cur.Toc())
	if !ok {
		return true
	}
	var d [3]float64
	for i := 0; i < 3; i++ {
		d[i] = rs[i] - rc[i]
	}
	if dr := Norm(d[:], 3); dr > MAXDPOSEPH || math.IsNaN(dr) {
		Trace(2, "inconsistent ephemeris: sat=%s dpos=%.1f\n", SatNo2Id(eph.Sat()), dr)
		return false
	}
	return true
}

/* put ephemeris revision ------------------------------------------------------
* add a revision of a satellite to the store
* args   : EphRevision eph  I   new revision
* return : EphAccepted: stored as current revision
*          EphRejected: not newer, or failed plausibility (slot marked bad)
*-----------------------------------------------------------------------------*/
func (s *EphStore) Put(eph EphRevision) PutResult {
	if eph == nil || eph.Sat() <= 0 {
		return EphRejected
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sat := eph.Sat()
	slot := s.slots[sat]
	if slot == nil {
		slot = &ephSlot{}
	}
	cur := slot.cur
	replace := cur != nil && TimeDiff(eph.Toc(), cur.Toc()) == 0.0 && eph.Health() != cur.Health()

	if cur != nil && !replace && !eph.IsNewerThan(cur) {
		return EphRejected
	}
	if !plausible(eph, cur) {
		slot.bad = true
		s.slots[sat] = slot
		s.badEph++
		return EphRejected
	}
	if !replace {
		slot.prev = cur
	}
	slot.cur = eph
	slot.bad = false
	s.slots[sat] = slot

	Trace(4, "ephemeris stored: sat=%s iod=%d toc=%s\n", SatNo2Id(sat), eph.Iod(), TimeStr(eph.Toc(), 0))
	return EphAccepted
}

// Resolve returns the revision with the iod of a correction.
func (s *EphStore) Resolve(sat, iod int) EphRevision {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[sat]
	if slot == nil || slot.bad {
		return nil
	}
	if slot.cur != nil && slot.cur.Iod() == iod {
		return slot.cur
	}
	if slot.prev != nil && slot.prev.Iod() == iod {
		return slot.prev
	}
	return nil
}

func (s *EphStore) Latest(sat int) EphRevision {
	s.mu.Lock()
	defer s.mu.Unlock()

	slot := s.slots[sat]
	if slot == nil || slot.bad {
		return nil
	}
	return slot.cur
}

// Sats returns the satellites with a usable revision in ascending order.
func (s *EphStore) Sats() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sats := make([]int, 0, len(s.slots))
	for sat, slot := range s.slots {
		if slot.cur != nil && !slot.bad {
			sats = append(sats, sat)
		}
	}
	sort.Ints(sats)
	return sats
}

// BadEph returns the number of revisions rejected by plausibility checks.
func (s *EphStore) BadEph() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badEph
}

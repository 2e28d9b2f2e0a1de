package sim

import (
	"fmt"
	"sort"
)

// Discipline selects the waiter-ordering rule of a pool.
type Discipline int

const (
	// DisciplineFIFO serves waiters strictly in enqueue order.
	DisciplineFIFO Discipline = iota
	// DisciplineTriagePriority serves the most urgent triage level first,
	// FIFO within the same level. Used only by consultation-room pools.
	DisciplineTriagePriority
)

// Slot is one individually-addressed unit of capacity. Consultation rooms
// carry a Speed factor >= 1 that divides nominal service duration; all other
// resources stay at 1.0.
type Slot struct {
	Index    int
	Speed    float64
	occupant *Patient
}

// Occupant returns the patient currently holding the slot, or nil.
func (s *Slot) Occupant() *Patient { return s.occupant }

type waiter struct {
	patient    *Patient
	enqueuedAt int64
	seq        uint64
}

// ResourcePool is a finite set of slots with blocking acquisition semantics:
// a patient that cannot be seated immediately waits until a release hands a
// freed slot over. Occupancy never exceeds capacity; a slot is held by at
// most one patient. Double release panics — a broken pairing would corrupt
// every downstream statistic.
type ResourcePool struct {
	hospital   HospitalID
	name       string
	slots      []*Slot
	free       []int // free slot indices, ascending
	waiters    []waiter
	discipline Discipline
	nextSeq    uint64

	acquires int64
	releases int64
}

// NewResourcePool creates a pool with the given capacity, all slots at
// speed 1.0.
func NewResourcePool(hospital HospitalID, name string, capacity int, discipline Discipline) *ResourcePool {
	if capacity < 0 {
		panic(fmt.Sprintf("pool %s/%s: negative capacity %d", hospital, name, capacity))
	}
	p := &ResourcePool{
		hospital:   hospital,
		name:       name,
		discipline: discipline,
	}
	for i := 0; i < capacity; i++ {
		p.slots = append(p.slots, &Slot{Index: i, Speed: 1.0})
		p.free = append(p.free, i)
	}
	return p
}

// Acquire seats the patient in the lowest free slot, or enqueues it.
// Returns the granted slot and true on immediate seating.
func (p *ResourcePool) Acquire(pat *Patient, now int64) (*Slot, bool) {
	if len(p.free) > 0 {
		idx := p.free[0]
		p.free = p.free[1:]
		return p.seat(pat, p.slots[idx]), true
	}
	p.nextSeq++
	p.waiters = append(p.waiters, waiter{patient: pat, enqueuedAt: now, seq: p.nextSeq})
	return nil, false
}

// TryAcquire seats the patient only if a slot is free; it never enqueues.
// Observation beds use this: admission is a terminal outcome, not a queue.
func (p *ResourcePool) TryAcquire(pat *Patient) (*Slot, bool) {
	if len(p.free) == 0 {
		return nil, false
	}
	idx := p.free[0]
	p.free = p.free[1:]
	return p.seat(pat, p.slots[idx]), true
}

func (p *ResourcePool) seat(pat *Patient, slot *Slot) *Slot {
	if slot.occupant != nil {
		panic(fmt.Sprintf("pool %s/%s: slot %d already occupied by %s",
			p.hospital, p.name, slot.Index, slot.occupant.ID))
	}
	slot.occupant = pat
	p.acquires++
	return slot
}

// Release frees the slot. If waiters are pending, the next one (per the
// pool's discipline) is seated in the freed slot and returned so the caller
// can start its service; otherwise the slot returns to the free list and the
// result is (nil, nil).
func (p *ResourcePool) Release(slot *Slot) (*Patient, *Slot) {
	if slot.occupant == nil {
		panic(fmt.Sprintf("pool %s/%s: release of vacant slot %d", p.hospital, p.name, slot.Index))
	}
	slot.occupant = nil
	p.releases++

	if len(p.waiters) == 0 {
		p.pushFree(slot.Index)
		return nil, nil
	}

	next := p.takeNextWaiter()
	return next.patient, p.seat(next.patient, slot)
}

// Cancel removes a queued patient without seating it (diversion mid-wait).
// Returns false if the patient was not waiting here.
func (p *ResourcePool) Cancel(pat *Patient) bool {
	for i, w := range p.waiters {
		if w.patient == pat {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}

// takeNextWaiter pops the waiter that must be served next.
// FIFO: head of the queue. TriagePriority: lowest triage level first
// (1 = most urgent), then enqueue time, then sequence for determinism.
func (p *ResourcePool) takeNextWaiter() waiter {
	best := 0
	if p.discipline == DisciplineTriagePriority {
		for i := 1; i < len(p.waiters); i++ {
			wi, wb := p.waiters[i], p.waiters[best]
			if wi.patient.TriageLevel != wb.patient.TriageLevel {
				if wi.patient.TriageLevel < wb.patient.TriageLevel {
					best = i
				}
				continue
			}
			if wi.enqueuedAt != wb.enqueuedAt {
				if wi.enqueuedAt < wb.enqueuedAt {
					best = i
				}
				continue
			}
			if wi.seq < wb.seq {
				best = i
			}
		}
	}
	w := p.waiters[best]
	p.waiters = append(p.waiters[:best], p.waiters[best+1:]...)
	return w
}

func (p *ResourcePool) pushFree(idx int) {
	pos := sort.SearchInts(p.free, idx)
	if pos < len(p.free) && p.free[pos] == idx {
		panic(fmt.Sprintf("pool %s/%s: slot %d freed twice", p.hospital, p.name, idx))
	}
	p.free = append(p.free, 0)
	copy(p.free[pos+1:], p.free[pos:])
	p.free[pos] = idx
}

// SetSpeed updates the speed factor of one slot (elastic staffing).
func (p *ResourcePool) SetSpeed(index int, speed float64) error {
	if index < 0 || index >= len(p.slots) {
		return fmt.Errorf("pool %s/%s: no slot %d", p.hospital, p.name, index)
	}
	if speed < 1.0 {
		return fmt.Errorf("pool %s/%s: speed factor must be >= 1, got %g", p.hospital, p.name, speed)
	}
	p.slots[index].Speed = speed
	return nil
}

// Slots exposes the slot list for read-only inspection.
func (p *ResourcePool) Slots() []*Slot { return p.slots }

// Capacity returns the total slot count.
func (p *ResourcePool) Capacity() int { return len(p.slots) }

// Occupied returns the number of held slots.
func (p *ResourcePool) Occupied() int {
	return len(p.slots) - len(p.free)
}

// QueueLen returns the number of waiting patients.
func (p *ResourcePool) QueueLen() int { return len(p.waiters) }

// OccupancyRatio returns occupied/capacity, 0 for an empty pool.
func (p *ResourcePool) OccupancyRatio() float64 {
	if len(p.slots) == 0 {
		return 0
	}
	return float64(p.Occupied()) / float64(len(p.slots))
}

// Acquires and Releases expose lifetime counters for leak auditing.
func (p *ResourcePool) Acquires() int64 { return p.acquires }
func (p *ResourcePool) Releases() int64 { return p.releases }

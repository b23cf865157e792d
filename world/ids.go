package world

import (
	"fmt"

	"github.com/pkg/errors"
)

// ID identifies a gob within an arena session. Positive ids belong to
// relevant gobs, negative ids to irrelevant ones.
type ID int16

const NoID ID = 0

const maxPoolSize = 32766

var ErrIDsExhausted = errors.New("gob identities exhausted")

func (id ID) Relevant() bool {
	return id > 0
}

// idPool is a FIFO ring of free identities.
type idPool struct {
	free  []ID
	index int
	count int
}

func newIDPool(size int, sign ID) idPool {
	p := idPool{free: make([]ID, size), count: size}
	for i := range p.free {
		p.free[i] = sign * ID(i+1)
	}
	return p
}

func (p *idPool) pop() (ID, bool) {
	if p.count == 0 {
		return NoID, false
	}
	id := p.free[p.index]
	p.index = (p.index + 1) % len(p.free)
	p.count--
	return id, true
}

func (p *idPool) push(id ID) {
	p.free[(p.index+p.count)%len(p.free)] = id
	p.count++
}

// Identities hands out gob identities from two disjoint pools and takes
// them back once a gob is gone.
type Identities struct {
	relevant   idPool
	irrelevant idPool
	live       map[ID]struct{}
}

func NewIdentities() *Identities {
	return newIdentities(maxPoolSize)
}

func newIdentities(size int) *Identities {
	return &Identities{
		relevant:   newIDPool(size, 1),
		irrelevant: newIDPool(size, -1),
		live:       make(map[ID]struct{}),
	}
}

func (ids *Identities) Allocate(relevant bool) (ID, error) {
	pool := &ids.irrelevant
	if relevant {
		pool = &ids.relevant
	}
	id, ok := pool.pop()
	if !ok {
		return NoID, errors.Wrapf(ErrIDsExhausted, "relevant=%v, %d live", relevant, len(ids.live))
	}
	ids.live[id] = struct{}{}
	return id, nil
}

// Reclaim returns id to its pool. Reclaiming an id that is not live is a
// bug in the caller and panics.
func (ids *Identities) Reclaim(id ID) {
	if _, ok := ids.live[id]; !ok {
		panic(fmt.Sprintf("reclaiming gob id %d which is not allocated", id))
	}
	delete(ids.live, id)
	if id.Relevant() {
		ids.relevant.push(id)
	} else {
		ids.irrelevant.push(id)
	}
}

func (ids *Identities) Live(id ID) bool {
	_, ok := ids.live[id]
	return ok
}

func (ids *Identities) LiveCount() int {
	return len(ids.live)
}

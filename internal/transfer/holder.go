package transfer

import "sync/atomic"

// Holder publishes the current Resolver. Readers never block a reload.
type Holder struct {
	p atomic.Pointer[Resolver]
}

func NewHolder(r *Resolver) *Holder {
	h := &Holder{}
	h.p.Store(r)
	return h
}

func (h *Holder) Resolver() *Resolver {
	return h.p.Load()
}

func (h *Holder) Store(r *Resolver) {
	h.p.Store(r)
}

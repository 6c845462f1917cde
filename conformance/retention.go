package conformance

// retention keeps the first limit violations and a ring of the last limit
// ones. Everything in between is only counted.
type retention struct {
	limit int
	head  []Violation
	tail  []Violation // ring buffer, len == limit once full
	next  int         // next write position in tail
	total uint64
}

func newRetention(limit int) *retention {
	if limit < 0 {
		limit = 0
	}
	return &retention{limit: limit}
}

func (r *retention) add(v Violation) {
	r.total++
	if r.limit == 0 {
		return
	}
	if len(r.head) < r.limit {
		r.head = append(r.head, v)
		return
	}
	if len(r.tail) < r.limit {
		r.tail = append(r.tail, v)
		return
	}
	r.tail[r.next] = v
	r.next = (r.next + 1) % r.limit
}

// retained returns a copy of the kept records in stream order
func (r *retention) retained() []Violation {
	out := make([]Violation, 0, len(r.head)+len(r.tail))
	out = append(out, r.head...)
	if len(r.tail) < r.limit {
		return append(out, r.tail...)
	}
	out = append(out, r.tail[r.next:]...)
	return append(out, r.tail[:r.next]...)
}

// dropped is the number of violations counted but not kept
func (r *retention) dropped() uint64 {
	return r.total - uint64(len(r.head)) - uint64(len(r.tail))
}

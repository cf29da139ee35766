package ref

import (
	"github.com/notargets/gceed/ceed"
)

// Restriction gathers and scatters with direct loops over the index table
type Restriction struct {
	r *ceed.ElemRestriction
}

func (rs *Restriction) Apply(tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	return rs.apply(0, rs.r.NumBlocks(), tmode, u, v)
}

func (rs *Restriction) ApplyBlock(block int, tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	return rs.apply(block, block+1, tmode, u, v)
}

func (rs *Restriction) apply(first, last int, tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	in, err := u.GetArrayRead(ceed.MemHost)
	if err != nil {
		return err
	}
	defer u.RestoreArrayRead(&in)
	out, err := v.GetArray(ceed.MemHost)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)

	bes := rs.r.BlockESize()
	for b := first; b < last; b++ {
		k := b - first
		if tmode == ceed.NoTranspose {
			Gather(rs.r, b, in, out[k*bes:(k+1)*bes])
		} else {
			ScatterAdd(rs.r, b, in[k*bes:(k+1)*bes], out)
		}
	}
	return nil
}

// Gather copies the L-vector values of block b into its E-vector e
func Gather(r *ceed.ElemRestriction, b int, l, e []float64) {
	if r.IsIdentity() {
		GatherStrided(r, b, l, e)
		return
	}
	elems := r.BlockElements(b)
	for c := 0; c < r.NumComponents(); c++ {
		for i := 0; i < r.ElemSize(); i++ {
			for eb, el := range elems {
				e[r.EOffset(eb, i, c)] = l[r.LOffset(r.Index(el, i), c)]
			}
		}
	}
}

// ScatterAdd adds the E-vector e of block b into l, skipping padded slots
func ScatterAdd(r *ceed.ElemRestriction, b int, e, l []float64) {
	if r.IsIdentity() {
		ScatterAddStrided(r, b, e, l)
		return
	}
	elems := r.BlockElements(b)[:r.BlockActive(b)]
	for c := 0; c < r.NumComponents(); c++ {
		for i := 0; i < r.ElemSize(); i++ {
			for eb, el := range elems {
				l[r.LOffset(r.Index(el, i), c)] += e[r.EOffset(eb, i, c)]
			}
		}
	}
}

// GatherStrided is Gather for identity restrictions. The nodes of an
// element are consecutive in the L-vector, so every component of every
// element is one strided run.
func GatherStrided(r *ceed.ElemRestriction, b int, l, e []float64) {
	ns, cs := r.LStrides()
	es, bs := r.ElemSize(), r.BlockSize()
	for eb, el := range r.BlockElements(b) {
		for c := 0; c < r.NumComponents(); c++ {
			lo, eo := el*es*ns+c*cs, r.EOffset(eb, 0, c)
			if ns == 1 && bs == 1 {
				copy(e[eo:eo+es], l[lo:lo+es])
				continue
			}
			for i := 0; i < es; i++ {
				e[eo+i*bs] = l[lo+i*ns]
			}
		}
	}
}

// ScatterAddStrided is ScatterAdd for identity restrictions. Elements own
// disjoint L-vector ranges, so blocks may be scattered concurrently.
func ScatterAddStrided(r *ceed.ElemRestriction, b int, e, l []float64) {
	ns, cs := r.LStrides()
	es, bs := r.ElemSize(), r.BlockSize()
	for eb, el := range r.BlockElements(b)[:r.BlockActive(b)] {
		for c := 0; c < r.NumComponents(); c++ {
			lo, eo := el*es*ns+c*cs, r.EOffset(eb, 0, c)
			for i := 0; i < es; i++ {
				l[lo+i*ns] += e[eo+i*bs]
			}
		}
	}
}

func (rs *Restriction) Destroy() error { return nil }

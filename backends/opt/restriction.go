package opt

import (
	"github.com/notargets/gceed/backends/ref"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/partitions"
	"github.com/notargets/gceed/utils"
	"golang.org/x/sync/errgroup"
)

// Restriction gathers blocks concurrently and scatters through a transpose
// table split by L-vector rows, so the sum for each entry is taken in the
// same order on every run. Identity restrictions have no table: their
// elements own disjoint L-vector ranges and scatter by blocks.
type Restriction struct {
	r      *ceed.ElemRestriction
	table  *utils.ScatterTable         // nil for identity restrictions
	blocks *partitions.PartitionLayout // restriction blocks per worker
	rows   *partitions.PartitionLayout // L-vector rows per worker
}

func newRestriction(r *ceed.ElemRestriction, workers int) (*Restriction, error) {
	blocks, err := partitions.Distribute(r.NumBlocks(), workers, partitions.BlockPartition)
	if err != nil {
		return nil, err
	}
	rs := &Restriction{r: r, blocks: blocks}
	if r.IsIdentity() {
		return rs, nil
	}
	if rs.rows, err = partitions.Distribute(r.LSize(), workers, partitions.BlockPartition); err != nil {
		return nil, err
	}
	if rs.table, err = scatterTable(r); err != nil {
		return nil, err
	}
	return rs, nil
}

// scatterTable builds and checks the transpose table of r
func scatterTable(r *ceed.ElemRestriction) (*utils.ScatterTable, error) {
	st := utils.NewScatterTable(r)
	if err := st.Verify(); err != nil {
		return nil, ceed.Errorf("ElemRestriction", "Create", ceed.ErrInvalidArgument, "transpose table: %v", err)
	}
	r.Ceed().Logger().Debug("transpose table ready", "rows", st.LSize, "slots", len(st.Slots), "maxRow", st.MaxRow())
	return st, nil
}

// forEach runs fn on every partition of layout concurrently
func forEach(layout *partitions.PartitionLayout, fn func(items []int) error) error {
	var g errgroup.Group
	for _, p := range layout.Partitions {
		g.Go(func() error { return fn(p.Elements) })
	}
	return g.Wait()
}

// scatterRows adds e into l through table, one row range per worker
func scatterRows(table *utils.ScatterTable, rows *partitions.PartitionLayout, e, l []float64) error {
	return forEach(rows, func(items []int) error {
		table.ScatterAdd(e, l, items[0], items[len(items)-1]+1)
		return nil
	})
}

func (rs *Restriction) Apply(tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	in, err := u.GetArrayRead(ceed.MemDevice)
	if err != nil {
		return err
	}
	defer u.RestoreArrayRead(&in)
	out, err := v.GetArray(ceed.MemDevice)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)

	bes := rs.r.BlockESize()
	switch {
	case tmode == ceed.NoTranspose:
		return forEach(rs.blocks, func(items []int) error {
			for _, b := range items {
				ref.Gather(rs.r, b, in, out[b*bes:(b+1)*bes])
			}
			return nil
		})
	case rs.r.IsIdentity():
		return forEach(rs.blocks, func(items []int) error {
			for _, b := range items {
				ref.ScatterAddStrided(rs.r, b, in[b*bes:(b+1)*bes], out)
			}
			return nil
		})
	}
	return scatterRows(rs.table, rs.rows, in, out)
}

func (rs *Restriction) ApplyBlock(block int, tmode ceed.TransposeMode, u, v *ceed.Vector) error {
	in, err := u.GetArrayRead(ceed.MemDevice)
	if err != nil {
		return err
	}
	defer u.RestoreArrayRead(&in)
	out, err := v.GetArray(ceed.MemDevice)
	if err != nil {
		return err
	}
	defer v.RestoreArray(&out)
	if tmode == ceed.Transpose {
		ref.ScatterAdd(rs.r, block, in, out)
	} else {
		ref.Gather(rs.r, block, in, out)
	}
	return nil
}

func (rs *Restriction) Destroy() error {
	rs.table = nil
	return nil
}

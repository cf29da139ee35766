package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/notargets/gceed/backends"
	"github.com/notargets/gceed/ceed"
	"github.com/notargets/gceed/gallery"
	"github.com/notargets/gceed/mesh"
	"github.com/notargets/gceed/utils"
	"gonum.org/v1/gonum/floats"
)

type benchConfig struct {
	Resource string
	Problem  string
	Dim      int
	Order    int
	NElem    int
	Iters    int
	Mesh     string
}

type benchResult struct {
	Resource string
	Backend  string
	Problem  string
	Dim      int
	Order    int
	Elements int
	DoFs     int
	Setup    time.Duration
	Apply    time.Duration // per application
	Check    float64
	Want     float64
	Pass     bool
}

var resultHeader = []string{"BACKEND", "PROBLEM", "DIM", "ORDER", "ELEMENTS", "DOFS", "SETUP", "APPLY", "MDOF/S", "CHECK"}

func (r *benchResult) row() []string {
	mdofs := 0.0
	if r.Apply > 0 {
		mdofs = float64(r.DoFs) / r.Apply.Seconds() / 1e6
	}
	check := "ok"
	if !r.Pass {
		check = "FAIL"
	}
	return []string{
		r.Backend, r.Problem, strconv.Itoa(r.Dim), strconv.Itoa(r.Order),
		strconv.Itoa(r.Elements), strconv.Itoa(r.DoFs),
		r.Setup.Round(time.Microsecond).String(), r.Apply.Round(time.Microsecond).String(),
		strconv.FormatFloat(mdofs, 'f', 2, 64),
		fmt.Sprintf("%s (%.3e)", check, r.Check),
	}
}

func sortRows(data [][]string) {
	slices.SortFunc(data, func(a, b []string) int { return strings.Compare(a[0], b[0]) })
}

// discretization is the mesh side of a benchmark: restrictions for the
// solution and the coordinates, their bases and the node coordinates
type discretization struct {
	nelem  int
	nnodes int
	volume float64
	r, rx  *ceed.ElemRestriction
	b, bx  *ceed.Basis
	coords *ceed.Vector
}

// closer destroys objects in reverse order of creation
type closer []interface{ Destroy() error }

func (cl *closer) keep(o interface{ Destroy() error }, err error) error {
	if err != nil {
		return err
	}
	*cl = append(*cl, o)
	return nil
}

func (cl *closer) close() {
	for i := len(*cl) - 1; i >= 0; i-- {
		if err := (*cl)[i].Destroy(); err != nil {
			slog.Warn("destroy failed", "error", err)
		}
	}
}

func (cfg *benchConfig) validate() error {
	if cfg.Problem != "mass" && cfg.Problem != "poisson" {
		return fmt.Errorf("unknown problem %q, want mass or poisson", cfg.Problem)
	}
	if cfg.Mesh != "" {
		if cfg.Order != 1 {
			slog.Warn("tetrahedral meshes run at order 1", "order", cfg.Order)
		}
		cfg.Dim, cfg.Order = 3, 1
	}
	if cfg.Dim < 1 || cfg.Dim > 3 {
		return fmt.Errorf("dimension %d not in [1,3]", cfg.Dim)
	}
	if cfg.Order < 1 || cfg.NElem < 1 || cfg.Iters < 1 {
		return fmt.Errorf("order, nelem and iters must be positive")
	}
	return nil
}

func boxDiscretization(cl *closer, c *ceed.Ceed, cfg benchConfig) (*discretization, error) {
	P, Q := cfg.Order+1, cfg.Order+2
	m, err := utils.NewBoxMesh(cfg.Dim, [3]int{cfg.NElem, cfg.NElem, cfg.NElem}, P)
	if err != nil {
		return nil, err
	}
	d := &discretization{nelem: m.NumElements, nnodes: m.NumNodes, volume: 1}
	if d.r, err = m.Restriction(c, 1); cl.keep(d.r, err) != nil {
		return nil, err
	}
	if d.rx, err = m.Restriction(c, cfg.Dim); cl.keep(d.rx, err) != nil {
		return nil, err
	}
	if d.b, err = c.NewBasisTensorH1Lagrange(cfg.Dim, 1, P, Q, ceed.GaussQuad); cl.keep(d.b, err) != nil {
		return nil, err
	}
	if d.bx, err = c.NewBasisTensorH1Lagrange(cfg.Dim, cfg.Dim, P, Q, ceed.GaussQuad); cl.keep(d.bx, err) != nil {
		return nil, err
	}
	if d.coords, err = m.CoordinateVector(c); cl.keep(d.coords, err) != nil {
		return nil, err
	}
	return d, nil
}

func tetDiscretization(cl *closer, c *ceed.Ceed, tm *mesh.TetMesh) (*discretization, error) {
	d := &discretization{nelem: tm.NumElements, nnodes: tm.NumNodes, volume: tm.Volume()}
	var err error
	if d.r, err = tm.Restriction(c, 1); cl.keep(d.r, err) != nil {
		return nil, err
	}
	if d.rx, err = tm.Restriction(c, 3); cl.keep(d.rx, err) != nil {
		return nil, err
	}
	if d.b, err = c.NewBasisH1Lagrange(ceed.Tet, 1, 1, 2); cl.keep(d.b, err) != nil {
		return nil, err
	}
	if d.bx, err = c.NewBasisH1Lagrange(ceed.Tet, 3, 1, 2); cl.keep(d.bx, err) != nil {
		return nil, err
	}
	if d.coords, err = tm.CoordinateVector(c); cl.keep(d.coords, err) != nil {
		return nil, err
	}
	return d, nil
}

// runBench sets up the problem on cfg.Resource, applies it cfg.Iters times
// to the constant field and checks the result: 1'M1 is the domain volume
// and K1 vanishes
func runBench(ctx context.Context, cfg benchConfig) (*benchResult, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	var tm *mesh.TetMesh
	if cfg.Mesh != "" {
		var err error
		if tm, err = mesh.ReadTetMesh(cfg.Mesh); err != nil {
			return nil, err
		}
	}

	c, err := backends.NewRegistry().Init(cfg.Resource)
	if err != nil {
		return nil, err
	}
	defer c.Destroy()
	var cl closer
	defer cl.close()

	start := time.Now()
	var d *discretization
	if tm != nil {
		d, err = tetDiscretization(&cl, c, tm)
	} else {
		d, err = boxDiscretization(&cl, c, cfg)
	}
	if err != nil {
		return nil, err
	}

	var build, apply *ceed.QFunction
	in, out, nq := "u", "v", 1
	if cfg.Problem == "poisson" {
		in, out, nq = "du", "dv", gallery.NumQData(cfg.Dim)
		build, err = gallery.PoissonBuild(c, cfg.Dim)
	} else {
		build, err = gallery.MassBuild(c, cfg.Dim)
	}
	if err = cl.keep(build, err); err != nil {
		return nil, err
	}
	if cfg.Problem == "poisson" {
		apply, err = gallery.PoissonApply(c, cfg.Dim)
	} else {
		apply, err = gallery.MassApply(c, 1)
	}
	if err = cl.keep(apply, err); err != nil {
		return nil, err
	}

	nqpts := d.b.NumQuadraturePoints()
	rq, err := c.NewElemRestrictionIdentity(d.nelem, nqpts, nq, ceed.Interlaced)
	if err = cl.keep(rq, err); err != nil {
		return nil, err
	}
	qdata, err := c.NewVector(rq.LSize())
	if err = cl.keep(qdata, err); err != nil {
		return nil, err
	}
	opBuild, err := c.NewOperator(build, nil, nil)
	if err = cl.keep(opBuild, err); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		name string
		r    *ceed.ElemRestriction
		b    *ceed.Basis
		v    *ceed.Vector
	}{
		{"dx", d.rx, d.bx, ceed.VectorActive},
		{"weights", nil, d.bx, ceed.VectorNone},
		{"qdata", rq, ceed.BasisCollocated, ceed.VectorActive},
	} {
		if err := opBuild.SetField(f.name, f.r, f.b, f.v); err != nil {
			return nil, err
		}
	}
	if err := opBuild.Apply(d.coords, qdata, nil); err != nil {
		return nil, err
	}

	op, err := c.NewOperator(apply, nil, nil)
	if err = cl.keep(op, err); err != nil {
		return nil, err
	}
	if err := op.SetField(in, d.r, d.b, ceed.VectorActive); err != nil {
		return nil, err
	}
	if err := op.SetField("qdata", rq, ceed.BasisCollocated, qdata); err != nil {
		return nil, err
	}
	if err := op.SetField(out, d.r, d.b, ceed.VectorActive); err != nil {
		return nil, err
	}
	u, err := c.NewVector(d.nnodes)
	if err = cl.keep(u, err); err != nil {
		return nil, err
	}
	v, err := c.NewVector(d.nnodes)
	if err = cl.keep(v, err); err != nil {
		return nil, err
	}
	if err := u.SetValue(1); err != nil {
		return nil, err
	}
	// first application creates the backend pipeline
	if err := op.Apply(u, v, nil); err != nil {
		return nil, err
	}
	setup := time.Since(start)

	start = time.Now()
	for i := 0; i < cfg.Iters; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := op.Apply(u, v, nil); err != nil {
			return nil, err
		}
	}
	elapsed := time.Since(start)

	res := &benchResult{
		Resource: cfg.Resource,
		Backend:  c.Backend().Name(),
		Problem:  cfg.Problem,
		Dim:      cfg.Dim,
		Order:    cfg.Order,
		Elements: d.nelem,
		DoFs:     d.nnodes,
		Setup:    setup,
		Apply:    elapsed / time.Duration(cfg.Iters),
	}
	a, err := v.GetArrayRead(ceed.MemHost)
	if err != nil {
		return nil, err
	}
	if cfg.Problem == "mass" {
		res.Check, res.Want = floats.Sum(a), d.volume
		res.Pass = math.Abs(res.Check-res.Want) <= 1e-10*math.Max(1, res.Want)
	} else {
		res.Check = floats.Norm(a, math.Inf(1))
		res.Pass = res.Check <= 1e-10
	}
	if err := v.RestoreArrayRead(&a); err != nil {
		return nil, err
	}
	slog.Debug("benchmark done", "resource", cfg.Resource, "problem", cfg.Problem, "dofs", res.DoFs,
		"apply", res.Apply, "check", res.Check)
	return res, nil
}

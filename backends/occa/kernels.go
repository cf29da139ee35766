package occa

import (
	"github.com/notargets/gceed/runner/builder"
)

// tile is the inner loop width of every kernel
const tile = 64

// kernelBuilder returns a builder with the constants shared by all kernels
func kernelBuilder() *builder.Builder {
	return builder.NewBuilder(builder.Float64, builder.INT32).Define("TILE", tile)
}

const restrictSource = `
@kernel void kRestrict(const int_t n,
                       const int_t *idx,
                       const real_t *l,
                       real_t *e) {
  for (int_t p = 0; p < n; ++p; @tile(TILE, @outer, @inner)) {
    e[p] = l[idx[p]];
  }
}

@kernel void kRestrictTranspose(const int_t nrows,
                                const int_t *offsets,
                                const int_t *slots,
                                const real_t *e,
                                real_t *l) {
  for (int_t r = 0; r < nrows; ++r; @tile(TILE, @outer, @inner)) {
    real_t sum = l[r];
    for (int_t k = offsets[r]; k < offsets[r + 1]; ++k) {
      sum += e[slots[k]];
    }
    l[r] = sum;
  }
}
`

// basisSource expects INTERP, GRAD and QWEIGHT as static matrices and
// NQPTS as a constant. kContract follows ceed.Contractor with the matrix
// chosen by mat (0 interp, 1 grad) starting at matOff.
const basisSource = `
@kernel void kContract(const int_t A,
                       const int_t B,
                       const int_t C,
                       const int_t J,
                       const int_t mat,
                       const int_t matOff,
                       const int_t transpose,
                       const int_t add,
                       const real_t *u,
                       const int_t uOff,
                       real_t *v,
                       const int_t vOff) {
  for (int_t idx = 0; idx < A * J * C; ++idx; @tile(TILE, @outer, @inner)) {
    const int_t c = idx % C;
    const int_t j = (idx / C) % J;
    const int_t a = idx / (C * J);
    const real_t *t = (mat == 0 ? &INTERP[0][0] : &GRAD[0][0]) + matOff;
    real_t sum = REAL_ZERO;
    for (int_t b = 0; b < B; ++b) {
      const real_t tjb = transpose ? t[b * J + j] : t[j * B + b];
      sum += tjb * u[uOff + (a * B + b) * C + c];
    }
    if (add) {
      v[vOff + idx] += sum;
    } else {
      v[vOff + idx] = sum;
    }
  }
}

@kernel void kWeight(const int_t nelem,
                     real_t *v) {
  for (int_t idx = 0; idx < NQPTS * nelem; ++idx; @tile(TILE, @outer, @inner)) {
    v[idx] = QWEIGHT[0][idx / nelem];
  }
}
`

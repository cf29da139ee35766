// Package ceed evaluates finite-element operators without assembling a
// global matrix.
//
// An operator is composed from four primitives created through a Ceed
// context: a Vector of degrees of freedom, an ElemRestriction mapping global
// degrees of freedom to per-element buffers, a Basis evaluating values and
// gradients at quadrature points, and a QFunction computing the pointwise
// physics. The context is bound to a Backend chosen from a Registry by a
// resource string such as "/cpu/self/ref" or "/gpu/occa:mode=CUDA".
//
// Element buffers (E-vectors) are laid out [comp][node][elem] per batch of
// elements, with the element index fastest. Quadrature buffers follow the
// same rule: [comp][qpt][elem], gradients [dim][comp][qpt][elem], weights
// [qpt][elem]. A QFunction field of size s therefore sees one flat array of
// s*Q values with Q the number of points in the batch.
package ceed

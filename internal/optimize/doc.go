// Package optimize implements a derivative-free Nelder–Mead simplex
// minimizer.
//
// The minimizer knows nothing about targets or images: it sees a parameter
// vector, per-dimension initial step sizes and an Objective mapping vectors
// to scalars. It is deterministic; identical inputs give bit-identical
// results and iteration counts.
//
// Running out of iterations or hitting a degenerate simplex is not an
// error. Minimize always hands back the best vertex found together with a
// Status and the number of iterations consumed.
package optimize

package tf

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/pidlab/internal/loop"
)

// Roots returns all complex roots of p as the eigenvalues of its companion
// matrix. Roots are sorted by real part, then imaginary part, so repeated
// calls on equal polynomials agree exactly.
func Roots(p Poly) ([]complex128, error) {
	m := p.Monic()
	if m.IsZero() {
		return nil, &loop.ModelError{Op: "roots", Reason: "zero polynomial has no well-defined roots"}
	}
	n := m.Degree()
	if n == 0 {
		return nil, nil
	}

	// Frobenius companion form: ones on the subdiagonal, negated
	// coefficients in the last column.
	c := mat.NewDense(n, n, nil)
	for i := 1; i < n; i++ {
		c.Set(i, i-1, 1)
	}
	for i := 0; i < n; i++ {
		c.Set(i, n-1, -m[n-i])
	}

	var eig mat.Eigen
	if ok := eig.Factorize(c, mat.EigenNone); !ok {
		return nil, &loop.ModelError{Op: "roots", Reason: "eigenvalue computation did not converge"}
	}
	roots := eig.Values(nil)
	sort.Slice(roots, func(i, j int) bool {
		if real(roots[i]) != real(roots[j]) {
			return real(roots[i]) < real(roots[j])
		}
		return imag(roots[i]) < imag(roots[j])
	})
	return roots, nil
}

// MaxAbsRoot bounds the largest root magnitude without an eigenvalue
// solve, using the Cauchy bound 1 + max|c_i| of the monic polynomial.
func MaxAbsRoot(p Poly) float64 {
	m := p.Monic()
	if m.IsZero() || m.Degree() == 0 {
		return 0
	}
	bound := 0.0
	for _, c := range m[1:] {
		if a := math.Abs(c); a > bound {
			bound = a
		}
	}
	return 1 + bound
}

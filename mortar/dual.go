package mortar

import (
	"fmt"
	"math"

	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/utils"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DualBasis holds, per secondary face, the coefficients A of the dual
// multiplier functions psi_i = sum_j A_ij N_j. They satisfy
// int psi_i N_j = delta_ij int N_j, so the secondary-multiplier block of a
// mortar constraint is diagonal.
type DualBasis struct {
	Epoch  uint64
	coeffs []*mat.Dense
}

// BuildDualBasis computes A = D M^-1 face by face, with M_ij = int N_i N_j and
// D = diag(int N_i). order is the points-per-direction of the mass rule.
func BuildDualBasis(s *mesh.Surface, order int, maxCond float64, threads int) (db *DualBasis, err error) {
	db = &DualBasis{coeffs: make([]*mat.Dense, s.NumFaces())}
	pm := utils.NewPartitionMap(threads, s.NumFaces())
	err = pm.Run(func(_, kMin, kMax int) (err error) {
		for f := kMin; f < kMax; f++ {
			if db.coeffs[f], err = dualCoefficients(s, f, order, maxCond); err != nil {
				return
			}
		}
		return
	})
	if err != nil {
		db = nil
	}
	return
}

func dualCoefficients(s *mesh.Surface, f, order int, maxCond float64) (A *mat.Dense, err error) {
	var (
		shp  = s.Shape(f)
		nv   = shp.Nverts
		rule = shp.Rule(order + 1)
		M    = mat.NewSymDense(nv, nil)
		D    = mat.NewDense(nv, nv, nil)
		fp   mesh.FacePoint
	)
	for q, r := range rule.Points {
		if fp, err = s.Eval(f, r); err != nil {
			return nil, &SingularBasisError{Face: f, Condition: math.Inf(1), Reason: err.Error()}
		}
		w := rule.Weights[q] * fp.DetJ
		for i := 0; i < nv; i++ {
			D.Set(i, i, D.At(i, i)+w*fp.N[i])
			for j := i; j < nv; j++ {
				M.SetSym(i, j, M.At(i, j)+w*fp.N[i]*fp.N[j])
			}
		}
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(M); !ok {
		return nil, &SingularBasisError{Face: f, Condition: math.Inf(1), Reason: "mass matrix is not positive definite"}
	}
	if cond := chol.Cond(); cond > maxCond || math.IsNaN(cond) {
		return nil, &SingularBasisError{Face: f, Condition: cond, Reason: fmt.Sprintf("condition exceeds %g", maxCond)}
	}
	// M symmetric so D M^-1 = (M^-1 D)^T
	var X mat.Dense
	if err = chol.SolveTo(&X, D); err != nil {
		return nil, &SingularBasisError{Face: f, Condition: chol.Cond(), Reason: err.Error()}
	}
	A = mat.DenseCopyOf(X.T())
	return
}

// Coefficients returns the coefficient matrix of face f
func (db *DualBasis) Coefficients(f int) *mat.Dense { return db.coeffs[f] }

// Values evaluates psi on face f from the standard shape function values N
func (db *DualBasis) Values(f int, N []float64) (psi []float64) {
	A := db.coeffs[f]
	psi = make([]float64, len(N))
	for i := range psi {
		psi[i] = floats.Dot(A.RawRowView(i), N)
	}
	return
}

// multiplierBasis evaluates the multiplier test and trial functions
type multiplierBasis struct {
	family Family
	dual   *DualBasis
}

func (b multiplierBasis) values(f int, N []float64) []float64 {
	switch {
	case b.family == Elemental:
		return []float64{1}
	case b.dual != nil:
		return b.dual.Values(f, N)
	}
	return N
}

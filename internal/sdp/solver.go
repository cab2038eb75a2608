package sdp

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// divergenceLimit separates a diverging objective from a merely large one.
// Programs handed to the solver are normalised to O(1) optimal values.
const divergenceLimit = 1e8

// minStep is the step length below which the iteration counts as stalled.
const minStep = 1e-10

// state is the primal-dual iterate.
//
// The solver works on the pair
//
//	(D) maximize bᵀy  s.t.  Z = C - 𝒜ᵀy ⪰ 0,  Ey = h
//	(P) minimize ⟨C,X⟩ + hᵀu  s.t.  𝒜X + Eᵀu = b,  X ⪰ 0
//
// where the cone is the Gram block (C = 0, 𝒜ᵀy = -G(y)) times the
// nonnegative orthant of the inequality rows (C = c, 𝒜ᵀy = Ay).
type state struct {
	p     *Program
	dim   int
	n     int
	nG    int
	ml    int
	me    int
	nu    float64
	pairs [][2]int
	terms [][][2]int

	b, c, h []float64

	X, Z *mat.SymDense
	x, z []float64
	y, u []float64

	// residuals and objectives of the current iterate
	rp   []float64
	Rd   *mat.SymDense
	rdl  []float64
	re   []float64
	pobj float64
	dobj float64
	mu   float64

	relGap float64
	pinf   float64
	dinf   float64
	normB  float64
	normC  float64
}

func newState(p *Program) *state {
	s := &state{
		p:     p,
		dim:   p.Dim,
		n:     p.NumVars,
		nG:    GramVars(p.Dim),
		ml:    len(p.Inequalities),
		me:    len(p.Equalities),
		pairs: gramPairs(p.Dim),
		b:     p.Objective,
	}
	s.nu = float64(s.dim + s.ml)

	s.terms = make([][][2]int, len(s.pairs))
	for k, pr := range s.pairs {
		if pr[0] == pr[1] {
			s.terms[k] = [][2]int{{pr[0], pr[0]}}
		} else {
			s.terms[k] = [][2]int{{pr[0], pr[1]}, {pr[1], pr[0]}}
		}
	}

	s.c = make([]float64, s.ml)
	for r, row := range p.Inequalities {
		s.c[r] = row.Bound
	}
	s.h = make([]float64, s.me)
	for r, row := range p.Equalities {
		s.h[r] = row.Bound
	}
	s.normB = floats.Norm(s.b, 2)
	s.normC = math.Sqrt(math.Pow(floats.Norm(s.c, 2), 2) + math.Pow(floats.Norm(s.h, 2), 2))

	start := math.Max(10, math.Sqrt(s.nu))
	s.X = mat.NewSymDense(s.dim, nil)
	s.Z = mat.NewSymDense(s.dim, nil)
	for i := 0; i < s.dim; i++ {
		s.X.SetSym(i, i, start)
		s.Z.SetSym(i, i, start)
	}
	s.x = make([]float64, s.ml)
	s.z = make([]float64, s.ml)
	for r := range s.x {
		s.x[r] = start
		s.z[r] = start
	}
	s.y = make([]float64, s.n)
	s.u = make([]float64, s.me)
	return s
}

// applyRows returns (aᵣᵀv)ᵣ.
func applyRows(rows []Row, v []float64) []float64 {
	out := make([]float64, len(rows))
	for r, row := range rows {
		out[r] = row.Dot(v)
	}
	return out
}

// applyRowsT returns Σᵣ wᵣ aᵣ as an n-vector.
func applyRowsT(rows []Row, w []float64, n int) []float64 {
	out := make([]float64, n)
	for r, row := range rows {
		for k, idx := range row.Index {
			out[idx] += w[r] * row.Coef[k]
		}
	}
	return out
}

// opA applies 𝒜 to a (possibly nonsymmetric) Gram block t and an
// inequality block tl.
func (s *state) opA(t mat.Matrix, tl []float64) []float64 {
	out := applyRowsT(s.p.Inequalities, tl, s.n)
	for k, pr := range s.pairs {
		i, j := pr[0], pr[1]
		if i == j {
			out[k] -= t.At(i, i)
		} else {
			out[k] -= t.At(i, j) + t.At(j, i)
		}
	}
	return out
}

func (s *state) residuals() {
	ax := s.opA(s.X, s.x)
	etu := applyRowsT(s.p.Equalities, s.u, s.n)
	s.rp = make([]float64, s.n)
	for k := range s.rp {
		s.rp[k] = s.b[k] - ax[k] - etu[k]
	}

	s.Rd = addScaled(gramMatrix(s.dim, s.pairs, s.y), -1, s.Z)

	ay := applyRows(s.p.Inequalities, s.y)
	s.rdl = make([]float64, s.ml)
	for r := range s.rdl {
		s.rdl[r] = s.c[r] - ay[r] - s.z[r]
	}

	ey := applyRows(s.p.Equalities, s.y)
	s.re = make([]float64, s.me)
	for r := range s.re {
		s.re[r] = s.h[r] - ey[r]
	}

	s.pobj = floats.Dot(s.c, s.x) + floats.Dot(s.h, s.u)
	s.dobj = floats.Dot(s.b, s.y)
	compl := inner(s.X, s.Z) + floats.Dot(s.x, s.z)
	s.mu = compl / s.nu

	scale := 1 + math.Abs(s.pobj) + math.Abs(s.dobj)
	s.relGap = math.Max(math.Abs(s.pobj-s.dobj), compl) / scale
	s.pinf = floats.Norm(s.rp, 2) / (1 + s.normB)
	dres := inner(s.Rd, s.Rd) + floats.Dot(s.rdl, s.rdl) + floats.Dot(s.re, s.re)
	s.dinf = math.Sqrt(dres) / (1 + s.normC)
}

func (s *state) within(gapTol, feasTol float64) bool {
	return s.relGap <= gapTol && s.pinf <= feasTol && s.dinf <= feasTol
}

// schur assembles M with Mₚq = ⟨Aₚ, X A_q Z⁻¹⟩ (HKM direction) plus the
// inequality block Aᵀ diag(x/z) A.
func (s *state) schur(zi *mat.SymDense) *mat.SymDense {
	m := mat.NewSymDense(s.n, nil)
	for p := 0; p < s.nG; p++ {
		tp := s.terms[p]
		for q := p; q < s.nG; q++ {
			var v float64
			for _, ab := range tp {
				for _, ce := range s.terms[q] {
					v += s.X.At(ab[1], ce[0]) * zi.At(ce[1], ab[0])
				}
			}
			m.SetSym(p, q, v)
		}
	}
	if s.ml == 0 {
		return m
	}

	a := mat.NewDense(s.ml, s.n, nil)
	for r, row := range s.p.Inequalities {
		w := math.Sqrt(s.x[r] / s.z[r])
		for k, idx := range row.Index {
			a.Set(r, idx, a.At(r, idx)+w*row.Coef[k])
		}
	}
	var lp mat.SymDense
	lp.SymOuterK(1, a.T())
	for i := 0; i < s.n; i++ {
		for j := i; j < s.n; j++ {
			m.SetSym(i, j, m.At(i, j)+lp.At(i, j))
		}
	}
	return m
}

// newton is a factorization of the Newton system. Without equality rows M
// is factored by Cholesky; otherwise, or when M is not numerically
// positive definite, the augmented matrix
//
//	[ M  Eᵀ ]
//	[ E  0  ]
//
// is factored by LU.
type newton struct {
	chol *mat.Cholesky
	lu   *mat.LU
}

func (s *state) factor(zi *mat.SymDense) *newton {
	m := s.schur(zi)
	if s.me == 0 {
		var chol mat.Cholesky
		if chol.Factorize(m) {
			return &newton{chol: &chol}
		}
	}

	size := s.n + s.me
	k := mat.NewDense(size, size, nil)
	k.Slice(0, s.n, 0, s.n).(*mat.Dense).Copy(m)
	for r, row := range s.p.Equalities {
		for a, idx := range row.Index {
			k.Set(s.n+r, idx, k.At(s.n+r, idx)+row.Coef[a])
			k.Set(idx, s.n+r, k.At(idx, s.n+r)+row.Coef[a])
		}
	}
	var lu mat.LU
	lu.Factorize(k)
	return &newton{lu: &lu}
}

func (n *newton) solve(dst *mat.VecDense, rhs *mat.VecDense) error {
	if n.chol != nil {
		return n.chol.SolveVecTo(dst, rhs)
	}
	return n.lu.SolveVecTo(dst, false, rhs)
}

// direction is one Newton step of the primal-dual system.
type direction struct {
	dX *mat.SymDense
	dx []float64
	dy []float64
	du []float64
	dZ *mat.SymDense
	dz []float64
}

// solveDirection computes the search direction for the complementarity
// right-hand sides rcS (Gram block) and rcL (inequality block):
//
//	ΔX = rcS - X ΔZ Z⁻¹ (symmetrized),  Δx = rcL - x∘Δz/z.
func (s *state) solveDirection(sys *newton, zi *mat.SymDense, rcS *mat.Dense, rcL []float64) (*direction, error) {
	var xrz mat.Dense
	xrz.Product(s.X, s.Rd, zi)
	var t mat.Dense
	t.Sub(rcS, &xrz)
	tl := make([]float64, s.ml)
	for r := range tl {
		tl[r] = rcL[r] - s.x[r]*s.rdl[r]/s.z[r]
	}

	at := s.opA(&t, tl)
	rhs := make([]float64, s.n+s.me)
	for k := 0; k < s.n; k++ {
		rhs[k] = s.rp[k] - at[k]
	}
	copy(rhs[s.n:], s.re)

	var sol mat.VecDense
	if err := sys.solve(&sol, mat.NewVecDense(len(rhs), rhs)); err != nil && !isCondition(err) {
		return nil, fmt.Errorf("failed to solve Newton system: %w", err)
	}
	raw := sol.RawVector().Data
	if sol.RawVector().Inc != 1 {
		raw = make([]float64, len(rhs))
		for k := range raw {
			raw[k] = sol.AtVec(k)
		}
	}
	for _, v := range raw {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("Newton system produced a non-finite direction")
		}
	}

	d := &direction{
		dy: append([]float64(nil), raw[:s.n]...),
		du: append([]float64(nil), raw[s.n:]...),
	}
	d.dZ = addScaled(gramMatrix(s.dim, s.pairs, d.dy), 1, s.Rd)

	ady := applyRows(s.p.Inequalities, d.dy)
	d.dz = make([]float64, s.ml)
	for r := range d.dz {
		d.dz[r] = s.rdl[r] - ady[r]
	}

	var xdz mat.Dense
	xdz.Product(s.X, d.dZ, zi)
	var w mat.Dense
	w.Sub(rcS, &xdz)
	d.dX = symmetrize(&w)

	d.dx = make([]float64, s.ml)
	for r := range d.dx {
		d.dx[r] = rcL[r] - s.x[r]*d.dz[r]/s.z[r]
	}
	return d, nil
}

// steps returns the primal and dual step lengths for d, each a fraction
// frac of the distance to the cone boundary and at most 1.
func (s *state) steps(d *direction, frac float64) (float64, float64) {
	ap := math.Min(maxStepPSD(s.X, d.dX), maxStepLP(s.x, d.dx))
	ad := math.Min(maxStepPSD(s.Z, d.dZ), maxStepLP(s.z, d.dz))
	return math.Min(1, frac*ap), math.Min(1, frac*ad)
}

// iterate performs one Mehrotra predictor-corrector step. It returns a
// non-empty reason when no progress is possible.
func (s *state) iterate(opts Options) (string, error) {
	var chol mat.Cholesky
	if ok := chol.Factorize(s.Z); !ok {
		return "dual slack lost positive definiteness", nil
	}
	var zi mat.SymDense
	if err := chol.InverseTo(&zi); err != nil && !isCondition(err) {
		return "dual slack is singular", nil
	}

	sys := s.factor(&zi)

	// Predictor: affine scaling direction.
	rcS := mat.NewDense(s.dim, s.dim, nil)
	rcS.Scale(-1, s.X)
	rcL := make([]float64, s.ml)
	for r := range rcL {
		rcL[r] = -s.x[r]
	}
	aff, err := s.solveDirection(sys, &zi, rcS, rcL)
	if err != nil {
		return "", err
	}
	ap, ad := s.steps(aff, 1)

	muAff := inner(addScaled(s.X, ap, aff.dX), addScaled(s.Z, ad, aff.dZ))
	for r := range s.x {
		muAff += (s.x[r] + ap*aff.dx[r]) * (s.z[r] + ad*aff.dz[r])
	}
	muAff /= s.nu
	sigma := math.Min(1, math.Max(0, math.Pow(muAff/s.mu, 3)))
	target := sigma * s.mu

	// Corrector: centring plus second-order term.
	var corr mat.Dense
	corr.Product(aff.dX, aff.dZ, &zi)
	for i := 0; i < s.dim; i++ {
		for j := 0; j < s.dim; j++ {
			rcS.Set(i, j, target*zi.At(i, j)-s.X.At(i, j)-corr.At(i, j))
		}
	}
	for r := range rcL {
		rcL[r] = (target-aff.dx[r]*aff.dz[r])/s.z[r] - s.x[r]
	}
	d, err := s.solveDirection(sys, &zi, rcS, rcL)
	if err != nil {
		return "", err
	}
	ap, ad = s.steps(d, opts.StepFraction)
	if ap < minStep && ad < minStep {
		return "step length collapsed", nil
	}

	s.X = addScaled(s.X, ap, d.dX)
	floats.AddScaled(s.x, ap, d.dx)
	floats.AddScaled(s.u, ap, d.du)
	s.Z = addScaled(s.Z, ad, d.dZ)
	floats.AddScaled(s.z, ad, d.dz)
	floats.AddScaled(s.y, ad, d.dy)

	slog.Debug("SDP step", "primal_step", ap, "dual_step", ad, "sigma", sigma)
	return "", nil
}

func (s *state) result(status Status, iterations int) *Result {
	return &Result{
		Status:              status,
		Value:               s.dobj,
		PrimalValue:         s.pobj,
		Y:                   append([]float64(nil), s.y...),
		Gram:                gramMatrix(s.dim, s.pairs, s.y),
		Iterations:          iterations,
		RelativeGap:         s.relGap,
		PrimalInfeasibility: s.pinf,
		DualInfeasibility:   s.dinf,
	}
}

// Solve runs the interior-point method on p.
//
// On success the returned Result is either Optimal or Inaccurate. Failures
// are reported through ErrInvalidProgram, ErrInfeasible, ErrUnbounded or a
// *ConvergenceError (matching ErrNotConverged).
func Solve(ctx context.Context, p *Program, opts Options) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	s := newState(p)

	slog.Debug("Starting SDP solve",
		"dim", p.Dim,
		"vars", p.NumVars,
		"inequalities", len(p.Inequalities),
		"equalities", len(p.Equalities),
	)

	for iter := 0; ; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("sdp: solve cancelled: %w", err)
		}

		s.residuals()
		slog.Debug("SDP iteration",
			"iter", iter,
			"pobj", s.pobj,
			"dobj", s.dobj,
			"gap", s.relGap,
			"pinf", s.pinf,
			"dinf", s.dinf,
			"mu", s.mu,
		)

		if math.IsNaN(s.pobj) || math.IsNaN(s.dobj) || math.IsNaN(s.mu) {
			return nil, s.fail(iter, "iterate became NaN")
		}
		if s.within(opts.GapTol, opts.FeasTol) {
			return s.result(Optimal, iter), nil
		}
		if s.dobj > divergenceLimit {
			return nil, fmt.Errorf("%w: objective reached %.3g after %d iterations", ErrUnbounded, s.dobj, iter)
		}
		if s.pobj < -divergenceLimit {
			return nil, fmt.Errorf("%w: dual objective reached %.3g after %d iterations", ErrInfeasible, s.pobj, iter)
		}
		if iter >= opts.MaxIter {
			return s.stalled(iter, "iteration limit reached", opts)
		}

		reason, err := s.iterate(opts)
		if err != nil {
			return s.stalled(iter, err.Error(), opts)
		}
		if reason != "" {
			return s.stalled(iter, reason, opts)
		}
	}
}

// stalled accepts the current iterate when it meets the loose tolerance.
func (s *state) stalled(iter int, reason string, opts Options) (*Result, error) {
	if s.within(opts.InaccurateTol, opts.InaccurateTol) {
		slog.Warn("SDP solve stopped early with reduced accuracy",
			"reason", reason,
			"iterations", iter,
			"gap", s.relGap,
			"pinf", s.pinf,
			"dinf", s.dinf,
		)
		return s.result(Inaccurate, iter), nil
	}
	return nil, s.fail(iter, reason)
}

func (s *state) fail(iter int, reason string) error {
	return &ConvergenceError{
		Reason:              reason,
		Iterations:          iter,
		RelativeGap:         s.relGap,
		PrimalInfeasibility: s.pinf,
		DualInfeasibility:   s.dinf,
	}
}

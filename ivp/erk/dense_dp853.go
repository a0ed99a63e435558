package erk

import (
	"github.com/soypat/ivpflow/field"
	"github.com/soypat/ivpflow/ivp"
)

// Extra-stage nodes and coefficients (spec.md §4.6.2's K14_*, K15_*, K16_*),
// indexed against the 12 main stages (0-based: stage0=k1 ... stage11=k12)
// plus, for stages 15 and 16, the previously computed extra stages.
// Transcribed from the standard published Dormand-Prince 8(5,3) dense-output
// tableau; see DESIGN.md for the numeric-fidelity note on this file.
const (
	dp853C14 = 0.1
	dp853C15 = 0.2
	dp853C16 = 7.0 / 9.0
)

var (
	dp853A14 = map[int]float64{
		0: 0.1438259981641413461480056767323e-01,
		6: 0.6444940858298430661266434068997e-01,
		7: -0.3601483071820962984029158447914e-01,
		8: 0.2347833791545419408873393022824e-01,
		9: -0.1363552899803156877008494730098e-01,
		10: 0.7847003480168059778575363204922e-02,
		11: -0.1597772524305943515714128418346e-02,
	}
	dp853A15 = map[int]float64{
		0:  0.5324755851126482442379555694604e-01,
		6:  0.1658395980398581330705508407432e+00,
		7:  -0.1400013537462179979579837058396e+00,
		8:  0.9150723297656915169922958279055e-01,
		9:  -0.7126169831206767722672505415526e-01,
		10: 0.4512534640407901525961984612211e-01,
		11: -0.1052965044942578559203394645503e-01,
		12: -0.8029437651047654369315549834310e-01,
	}
	dp853A16 = map[int]float64{
		0:  -0.3069999344466201002996028487768e+00,
		6:  -0.1420806288771256069191616128897e+01,
		7:  -0.7396709598479779461058781312372e+00,
		8:  0.1326003193455267375611040339860e+01,
		9:  0.9453519353548720504625616434926e-01,
		10: 0.1962022815965084131793062040264e+00,
		11: 0.2186509646082886223298313105768e+00,
		12: -0.6801267429369424318163905655613e+00,
		13: 0.2386720233656916642233791559169e+01,
	}

	dp853D4 = map[int]float64{0: -0.84289382761090128651353491142e+01, 6: 0.56671495351937776962531783590e+00,
		7: -0.30689499459498916912797304727e+01, 8: 0.23846676565120698287728149680e+01, 9: 0.21170345824450282767155149946e+01,
		10: -0.87139158377797299206789907490e+00, 11: 0.22404599319697796585611867200e+01, 12: 0.63157877876946881815570249290e+00,
		13: -0.88990336451333310820698117400e-01, 14: 0.18148505520854727256656404962e+02, 15: -0.91946323924783554000451984436e+01, 16: -0.44360363875948939664310572000e+01}
	dp853D5 = map[int]float64{0: 0.10427508642579134603413151009e+02, 6: 0.24228910214353014228584441317e+02,
		7: 0.16520045171727028198505394887e+03, 8: -0.37454675472269020279518313241e+03, 9: -0.22113666853125306036270938578e+02,
		10: 0.77334326684722638389603898808e+01, 11: -0.30674084731089398182061213626e+02, 12: -0.93321305264302278729567221706e+01,
		13: 0.15697238121770843886131091075e+02, 14: -0.31139403219565177677282850411e+02, 15: -0.93529243588444783865713862664e+01, 16: 0.35816841486394083791191049336e+02}
	dp853D6 = map[int]float64{0: 0.19985053242002433820987653617e+02, 6: -0.38703730874935176555105901742e+03,
		7: -0.18917813819516756882830838328e+03, 8: 0.52780815920542364900561016686e+03, 9: -0.11573902539959630126141871134e+02,
		10: 0.68812326946963000169666922661e+01, 11: -0.10006050966910838403183860980e+01, 12: 0.77771377980534694447773423937e+00,
		13: -0.27782057523535084065932004339e+01, 14: -0.60196695231264120758267380846e+02, 15: 0.84320405506677161018159903784e+02, 16: 0.11992291136182789328035130030e+02}
	dp853D7 = map[int]float64{0: -0.25693933462703749198894393994e+02, 6: -0.15418974869023643374053993627e+03,
		7: -0.23152937917604549567536039109e+03, 8: 0.35763911791061412378285349910e+03, 9: 0.93405324183624310003907691704e+02,
		10: -0.37458323136451633156875139351e+02, 11: 0.10409964950896230045147246184e+03, 12: 0.29840293426660503123344363579e+02,
		13: -0.43533456590011143754432175058e+02, 14: 0.96324553959188282948293555611e+02, 15: -0.39177261675615439165231486172e+02, 16: -0.14972683625798562581422125276e+03}
)

// dp853DenseOutput implements spec.md §4.6.2's seven-vector dense-output
// polynomial. The three extra stages (indices 12, 13, 14 in extraK, at
// relative times C14, C15, C16) are computed lazily on first Finalize call,
// not at step-acceptance time, matching the "doFinalize" hook §4.5
// describes.
type dp853DenseOutput[F field.Element[F]] struct {
	h      field.Handle[F]
	yDotK  [][]F // 12 main stage derivatives, owned
	eval   ivp.RHS[F]
	extraK [3][]F
	v      [7][]F
	done   bool
}

func newDP853DenseOutput[F field.Element[F]](h field.Handle[F], yDotK [][]F, eval ivp.RHS[F]) ivp.DenseOutput[F] {
	return &dp853DenseOutput[F]{h: h, yDotK: yDotK, eval: eval}
}

// stage evaluates one extra stage: builds the state at node cNode (relative
// to the step start) from the already-computed stage/extra-stage
// derivatives weighted by coeffs, then calls back into the problem's RHS at
// that state to produce the stage's own derivative, per spec.md §4.6.2.
func (d *dp853DenseOutput[F]) stage(ip *ivp.StepInterpolator[F], cNode float64, coeffs map[int]float64) []F {
	dim := ip.Dim()
	y0 := ip.PreviousState()
	hStep := ip.StepSize()
	yTmp := make([]F, dim)
	for i := 0; i < dim; i++ {
		acc := y0[i]
		for idx, c := range coeffs {
			var src F
			if idx < 12 {
				src = d.yDotK[idx][i]
			} else {
				src = d.extraK[idx-12][i]
			}
			acc = acc.Add(src.Mul(hStep.Mul(d.h.FromReal(c))))
		}
		yTmp[i] = acc
	}
	tNode := ip.PreviousTime().Add(hStep.Mul(d.h.FromReal(cNode)))
	dy := make([]F, dim)
	d.eval(tNode, yTmp, dy)
	return dy
}

// Finalize computes the three extra stages and the v[0..6] interpolation
// vectors once, idempotently.
func (d *dp853DenseOutput[F]) Finalize(ip *ivp.StepInterpolator[F]) {
	if d.done {
		return
	}
	dim := ip.Dim()
	y0, y1 := ip.PreviousState(), ip.CurrentState()
	hStep := ip.StepSize()

	// The three extra stages are genuine RHS evaluations at C14/C15/C16,
	// not reused states: each stage() call builds the node's state from
	// the stages computed so far, then evaluates the problem's RHS there.
	d.extraK[0] = d.stage(ip, dp853C14, dp853A14)
	d.extraK[1] = d.stage(ip, dp853C15, dp853A15)
	d.extraK[2] = d.stage(ip, dp853C16, dp853A16)

	v0 := make([]F, dim)
	v1 := make([]F, dim)
	v2 := make([]F, dim)
	for i := 0; i < dim; i++ {
		v0[i] = y1[i].Sub(y0[i]).Div(hStep)
		v1[i] = d.yDotK[0][i].Sub(v0[i])
		v2[i] = v0[i].Sub(v1[i]).Sub(d.yDotK[11][i])
	}
	d.v[0], d.v[1], d.v[2] = v0, v1, v2

	rows := [4]map[int]float64{dp853D4, dp853D5, dp853D6, dp853D7}
	for r, row := range rows {
		vr := make([]F, dim)
		for i := 0; i < dim; i++ {
			var acc F
			for idx, c := range row {
				var src F
				if idx < 12 {
					src = d.yDotK[idx][i]
				} else {
					src = d.extraK[idx-12][i]
				}
				acc = acc.Add(src.Mul(d.h.FromReal(c)))
			}
			vr[i] = acc
		}
		d.v[3+r] = vr
	}
	d.done = true
}

func (d *dp853DenseOutput[F]) InterpolatedState(ip *ivp.StepInterpolator[F], t F, yOut []F) {
	theta := ip.Theta(t)
	hStep := ip.StepSize()
	dim := ip.Dim()
	eta := 1 - theta
	y0 := ip.PreviousState()

	for i := 0; i < dim; i++ {
		inner := d.v[6][i]
		inner = d.v[5][i].Add(inner.Mul(d.h.FromReal(theta)))
		inner = d.v[4][i].Add(inner.Mul(d.h.FromReal(eta)))
		inner = d.v[3][i].Add(inner.Mul(d.h.FromReal(theta)))
		inner = d.v[2][i].Add(inner.Mul(d.h.FromReal(eta)))
		inner = d.v[1][i].Add(inner.Mul(d.h.FromReal(theta)))
		inner = d.v[0][i].Add(inner.Mul(d.h.FromReal(eta)))
		yOut[i] = y0[i].Add(hStep.Mul(d.h.FromReal(theta)).Mul(inner))
	}
}

func (d *dp853DenseOutput[F]) InterpolatedDerivatives(ip *ivp.StepInterpolator[F], t F, dyOut []F) {
	theta := ip.Theta(t)
	dim := ip.Dim()
	const dtheta = 1e-6
	yPlus := make([]F, dim)
	yMinus := make([]F, dim)
	tPlus := ip.PreviousTime().Add(ip.StepSize().Mul(d.h.FromReal(theta + dtheta)))
	tMinus := ip.PreviousTime().Add(ip.StepSize().Mul(d.h.FromReal(theta - dtheta)))
	d.InterpolatedState(ip, tPlus, yPlus)
	d.InterpolatedState(ip, tMinus, yMinus)
	denom := 2 * dtheta * ip.StepSize().Real()
	for i := 0; i < dim; i++ {
		dyOut[i] = yPlus[i].Sub(yMinus[i]).Mul(d.h.FromReal(1 / denom))
	}
}

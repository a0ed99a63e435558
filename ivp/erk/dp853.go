package erk

import (
	"math"

	"github.com/soypat/ivpflow/field"
)

// DormandPrince853 is the Dormand-Prince order 8(5,3) embedded pair of
// spec.md §4.6.2: twelve main stages, two independent error estimators
// combined into one robust ratio, and a dense-output scheme built from
// three additional lazily-evaluated stages. Butcher constants are
// transcribed from the standard published tableau (Hairer/Prince/Dormand
// lineage) — see DESIGN.md for the numeric-fidelity note.
func DormandPrince853[F field.Element[F]]() Tableau[F] {
	return Tableau[F]{
		Name:   "DormandPrince853",
		Order:  8,
		Stages: 12,
		C: []float64{
			0.526001519587677318785587544488e-01,
			0.789002279381515978178381316732e-01,
			0.118350341907227396726757197510e+00,
			0.281649658092772603273242802490e+00,
			1.0 / 3.0,
			0.25,
			0.307692307692307692307692307692e+00,
			0.651282051282051282051282051282e+00,
			0.6,
			0.857142857142857142857142857142e+00,
			1.0,
		},
		A: [][]float64{
			{0.526001519587677318785587544488e-01},
			{0.197250569845378994544595329183e-01, 0.591751709536136983633785987549e-01},
			{0.295875854768068491816892993775e-01, 0, 0.887627564304205475450678981324e-01},
			{0.241365134159266685502369798665e+00, 0, -0.884549479328286085344864962717e+00, 0.924834003261792003115737966543e+00},
			{0.37037037037037037037037037037e-01, 0, 0, 0.170828608729473871279604482173e+00, 0.125467687566822425016691814123e+00},
			{0.37109375e-01, 0, 0, 0.170252211019544039314978060272e+00, 0.602165389804559606850219397283e-01, -0.17578125e-01},
			{0.370920001185047927108779319836e-01, 0, 0, 0.170383925712239993810214054705e+00, 0.107262030446373284651809199168e+00, -0.153194377486244017527936158236e-01, 0.827378916381402288758473766002e-02},
			{0.624110958716075717114429577812e+00, 0, 0, -0.336089262944694129406857109825e+01, -0.868219346841726006818189891453e+00, 0.275920996994467083049415600797e+02, 0.201540675504778934086186788979e+02, -0.434898841810699588477366255144e+02},
			{0.477662536438264365890433908527e+00, 0, 0, -0.248811461997166764192642586468e+01, -0.590290826836842996371446475743e+00, 0.212300514481811942347288949897e+02, 0.152792336328824235832596922938e+02, -0.332882109689848629194453265587e+02, -0.203312017085086261358222928593e-01},
			{-0.93714243008598732571704021658e+00, 0, 0, 0.518637242884406370830023853209e+01, 0.109143734899672957818500254654e+01, -0.814978701074692612513997267357e+01, -0.185200656599969598641566180701e+02, 0.227394870993505042818970056734e+02, 0.249360555267965238987089396762e+01, -0.30467644718982195003823669022e+01},
			{0.227331014751653820792359768449e+01, 0, 0, -0.105344954667372501984066689879e+02, -0.200087205822486249909675718444e+01, -0.179589318631187989172765950534e+02, 0.279488845294199600508499808837e+02, -0.285899827713502369474065508674e+01, -0.887285693353062954433549289258e+01, 0.123605671757943030647266201528e+02, 0.643392746015763530355970484046e+00},
		},
		B: []float64{
			0.542937341165687622380535766363e-01, 0, 0, 0, 0,
			0.445031289275240888144113950566e+01,
			0.189151789931450038304281599044e+01,
			-0.58012039600105847814672114227e+01,
			0.311164366957819894408916062370e+00,
			-0.152160949662516078556178806805e+00,
			0.201365400804030348374776537501e+00,
			0.447106157277725905176885569043e-01,
		},
		EstimateError:  dp853EstimateError[F],
		NewDenseOutput: newDP853DenseOutput[F],
	}
}

var (
	dp853E1 = []float64{
		0.1312004499419488073250102996e-01, 0, 0, 0, 0,
		-0.1225156446376204440720569753e+01,
		-0.4957589496572501915214079952e+00,
		0.1664377182454986536961530415e+01,
		-0.3503288487499736816886487290e+00,
		0.3341791187130174790297318841e+00,
		0.8192320648511571246570742613e-01,
		-0.2235530786388629525884427845e-01,
	}
	dp853Bhh1 = 0.244094488188976377952755905512e+00
	dp853Bhh2 = 0.733846688281611857341361741547e+00
	dp853Bhh3 = 0.220588235294117647058823529412e-01
)

// dp853EstimateError combines two independent error estimators (order-5 and
// a stiffness-aware order-3 check) into spec.md §4.6.2's literal ratio.
func dp853EstimateError[F field.Element[F]](yDotK [][]F, h float64, yOld, yNew []F, tau []float64, n int) float64 {
	var error1, error2 float64
	for i := 0; i < n; i++ {
		var e1 float64
		for l, c := range dp853E1 {
			if c == 0 {
				continue
			}
			e1 += c * yDotK[l][i].Real()
		}
		e2 := dp853Bhh1*yDotK[0][i].Real() + dp853Bhh2*yDotK[8][i].Real() + dp853Bhh3*yDotK[11][i].Real() - (yNew[i].Real()-yOld[i].Real())/h
		error1 += sq(e1 / tau[i])
		error2 += sq(e2 / tau[i])
	}
	error1 /= float64(n)
	error2 /= float64(n)
	denom := error1 + 0.01*error2
	if denom <= 0 {
		denom = 1
	}
	return math.Abs(h) * error1 / math.Sqrt(float64(n)*denom)
}

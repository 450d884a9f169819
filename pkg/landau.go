package scope

import "math"

// Coefficients of the CERNLIB DENLAN rational approximation (G110).
var (
	landauP1 = [5]float64{0.4259894875, -0.1249762550, 0.03984243700, -0.006298287635, 0.001511162253}
	landauQ1 = [5]float64{1.0, -0.3388260629, 0.09594393323, -0.01608042283, 0.003778942063}
	landauP2 = [5]float64{0.1788541609, 0.1173957403, 0.01488850518, -0.001394989411, 0.0001283617211}
	landauQ2 = [5]float64{1.0, 0.7428795082, 0.3153932961, 0.06694219548, 0.008790609714}
	landauP3 = [5]float64{0.1788544503, 0.09359161662, 0.006325387654, 0.00006611667319, -0.000002031049101}
	landauQ3 = [5]float64{1.0, 0.6097809921, 0.2560616665, 0.04746722384, 0.006957301675}
	landauP4 = [5]float64{0.9874054407, 118.6723273, 849.2794360, -743.7792444, 427.0262186}
	landauQ4 = [5]float64{1.0, 106.8615961, 337.6496214, 2016.712389, 1597.063511}
	landauP5 = [5]float64{1.003675074, 167.5702434, 4789.711289, 21217.86767, -22324.94910}
	landauQ5 = [5]float64{1.0, 156.9424537, 3745.310488, 9834.698876, 66924.28357}
	landauP6 = [5]float64{1.000827619, 664.9143136, 62972.92665, 475554.6998, -5743609.109}
	landauQ6 = [5]float64{1.0, 651.4101098, 56974.73333, 165917.4725, -2815759.939}
	landauA1 = [3]float64{0.04166666667, -0.01996527778, 0.02709538966}
	landauA2 = [2]float64{-1.845568670, -4.284640743}
)

func poly4(c [5]float64, x float64) float64 {
	return c[0] + (c[1]+(c[2]+(c[3]+c[4]*x)*x)*x)*x
}

// LandauPDF is the standard Landau density.
func LandauPDF(x float64) float64 {
	switch {
	case x < -5.5:
		u := math.Exp(x + 1)
		if u < 1e-10 {
			return 0
		}
		return 0.3989422803 * (math.Exp(-1/u) / math.Sqrt(u)) *
			(1 + (landauA1[0]+(landauA1[1]+landauA1[2]*u)*u)*u)
	case x < -1:
		u := math.Exp(-x - 1)
		return math.Exp(-u) * math.Sqrt(u) * poly4(landauP1, x) / poly4(landauQ1, x)
	case x < 1:
		return poly4(landauP2, x) / poly4(landauQ2, x)
	case x < 5:
		return poly4(landauP3, x) / poly4(landauQ3, x)
	case x < 12:
		u := 1 / x
		return u * u * poly4(landauP4, u) / poly4(landauQ4, u)
	case x < 50:
		u := 1 / x
		return u * u * poly4(landauP5, u) / poly4(landauQ5, u)
	case x < 300:
		u := 1 / x
		return u * u * poly4(landauP6, u) / poly4(landauQ6, u)
	default:
		u := 1 / (x - x*math.Log(x)/(x+1))
		return u * u * (1 + (landauA2[0]+landauA2[1]*u)*u)
	}
}

// Landau is the peak model: scale * LandauPDF((x-location)/width).
// A non-positive width evaluates to zero.
func Landau(x float64, scale float64, location float64, width float64) float64 {
	if width <= 0 {
		return 0
	}
	return scale * LandauPDF((x-location)/width)
}

package telemetry

import "math"

type breakpoint struct {
	cLow, cHigh float64
	iLow, iHigh int
}

// Точки перелома EPA для PM2.5 (мкг/м3, 24ч), редакция 2024 года
var pm25Breakpoints = []breakpoint{
	{0.0, 9.0, 0, 50},
	{9.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 125.4, 151, 200},
	{125.5, 225.4, 201, 300},
	{225.5, 325.4, 301, 500},
}

const maxAQI = 500

// PM25AQI переводит концентрацию PM2.5 в индекс AQI по линейной интерполяции EPA.
// Концентрация усекается до одного знака после запятой, как требует методика.
func PM25AQI(concentration float64) int {
	if concentration <= 0 || math.IsNaN(concentration) {
		return 0
	}
	c := math.Floor(concentration*10) / 10

	for _, bp := range pm25Breakpoints {
		if c <= bp.cHigh {
			// погрешность float после усечения
			if c < bp.cLow {
				c = bp.cLow
			}
			aqi := float64(bp.iHigh-bp.iLow)/(bp.cHigh-bp.cLow)*(c-bp.cLow) + float64(bp.iLow)
			return int(math.Round(aqi))
		}
	}
	return maxAQI
}

// Category возвращает текстовую категорию EPA для значения AQI
func Category(aqi int) string {
	switch {
	case aqi <= 50:
		return "Good"
	case aqi <= 100:
		return "Moderate"
	case aqi <= 150:
		return "Unhealthy for Sensitive Groups"
	case aqi <= 200:
		return "Unhealthy"
	case aqi <= 300:
		return "Very Unhealthy"
	default:
		return "Hazardous"
	}
}

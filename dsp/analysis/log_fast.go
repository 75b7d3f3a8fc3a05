//go:build fastmath

package analysis

import approx "github.com/meko-christian/algo-approx"

const ln10 = 2.302585092994045684017991454684

func log10(x float64) float64 { return approx.FastLog(x) / ln10 }

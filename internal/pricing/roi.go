package pricing

// DefaultDistroDiscount is the assumed distributor discount off MSRP.
const DefaultDistroDiscount = 0.40

// Verdict classifies a deck's buy signal. Pure function of the ROI inputs.
type Verdict string

const (
	VerdictBuy    Verdict = "BUY"
	VerdictDistro Verdict = "DISTRO"
	VerdictHold   Verdict = "HOLD"
	VerdictPass   Verdict = "PASS"
)

// ROI returns the percentage return of buying at MSRP, or 0 when MSRP is
// not positive.
func ROI(total, msrp float64) float64 {
	if msrp <= 0 {
		return 0
	}
	return (total - msrp) / msrp * 100
}

// DistroCost is the acquisition cost at a distributor discount.
func DistroCost(msrp, discount float64) float64 {
	return msrp * (1 - discount)
}

// DistroROI returns the percentage return of buying at distributor cost,
// or 0 when the cost is not positive.
func DistroROI(total, distroCost float64) float64 {
	if distroCost <= 0 {
		return 0
	}
	return (total - distroCost) / distroCost * 100
}

// Classify maps (distroRoi, roi) to a verdict. roi may be nil when only
// the distributor angle is known; a missing roi counts in favor of BUY.
func Classify(distroRoi float64, roi *float64) Verdict {
	switch {
	case distroRoi > 15:
		if roi == nil || *roi > 0 {
			return VerdictBuy
		}
		return VerdictDistro
	case distroRoi < 0:
		return VerdictPass
	default:
		return VerdictHold
	}
}

// Report carries every derived ROI value for one deck. Computed on demand,
// never stored.
type Report struct {
	TotalValue float64 `json:"totalValue"`
	MSRP       float64 `json:"msrp"`
	ROI        float64 `json:"roi"`
	DistroCost float64 `json:"distroCost"`
	DistroROI  float64 `json:"distroRoi"`
	Verdict    Verdict `json:"verdict"`
}

// NewReport derives the full ROI report for a deck total against its MSRP
// at the default distributor discount.
func NewReport(total, msrp float64) Report {
	roi := ROI(total, msrp)
	cost := DistroCost(msrp, DefaultDistroDiscount)
	distroRoi := DistroROI(total, cost)

	return Report{
		TotalValue: total,
		MSRP:       msrp,
		ROI:        roi,
		DistroCost: cost,
		DistroROI:  distroRoi,
		Verdict:    Classify(distroRoi, &roi),
	}
}

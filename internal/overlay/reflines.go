package overlay

import (
	"github.com/summit-enterprise/stock-pro-sub000/internal/indicator"
	"github.com/summit-enterprise/stock-pro-sub000/internal/render"
)

// referenceLines returns the static levels a family's pane carries. They
// attach once per pane, to the first series added, so parameter variants
// sharing a pane never duplicate them.
func referenceLines(f indicator.Family) []render.PriceLine {
	switch f {
	case indicator.FamilyRSI:
		return []render.PriceLine{
			{Value: 70, Color: "#787b86", Style: render.LineDotted, Title: "70"},
			{Value: 50, Color: "#787b86", Style: render.LineDotted, Title: "50"},
			{Value: 30, Color: "#787b86", Style: render.LineDotted, Title: "30"},
		}
	case indicator.FamilyStochastic:
		return []render.PriceLine{
			{Value: 80, Color: "#787b86", Style: render.LineDotted, Title: "80"},
			{Value: 50, Color: "#787b86", Style: render.LineDotted, Title: "50"},
			{Value: 20, Color: "#787b86", Style: render.LineDotted, Title: "20"},
		}
	case indicator.FamilyWilliamsR:
		return []render.PriceLine{
			{Value: -20, Color: "#787b86", Style: render.LineDotted, Title: "-20"},
			{Value: -80, Color: "#787b86", Style: render.LineDotted, Title: "-80"},
		}
	case indicator.FamilyCCI:
		return []render.PriceLine{
			{Value: 100, Color: "#787b86", Style: render.LineDotted, Title: "+100"},
			{Value: -100, Color: "#787b86", Style: render.LineDotted, Title: "-100"},
		}
	case indicator.FamilyMFI:
		return []render.PriceLine{
			{Value: 80, Color: "#787b86", Style: render.LineDotted, Title: "80"},
			{Value: 20, Color: "#787b86", Style: render.LineDotted, Title: "20"},
		}
	case indicator.FamilyMACD, indicator.FamilyROC, indicator.FamilyMomentum,
		indicator.FamilyTRIX, indicator.FamilyAwesomeOsc, indicator.FamilyCMF,
		indicator.FamilyVolumeROC:
		return []render.PriceLine{
			{Value: 0, Color: "#787b86", Style: render.LineDotted, Title: "0"},
		}
	default:
		return nil
	}
}

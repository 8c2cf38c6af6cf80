package tuner

import "strings"

// Regime is a named measurement range preset.
type Regime struct {
	Name  string
	Range MeasurementRange
}

// Regimes are the measurement ranges offered to the operator.
var Regimes = []Regime{
	{"narrow > coarse", MeasurementRange{54, 6, 66}},
	{"narrow > normal", MeasurementRange{54, 3, 66}},
	{"narrow > fine", MeasurementRange{54, 1, 66}},
	{"medium > coarse", MeasurementRange{48, 12, 72}},
	{"medium > normal", MeasurementRange{48, 6, 72}},
	{"medium > fine", MeasurementRange{48, 1, 72}},
	{"large > coarse", MeasurementRange{36, 12, 84}},
	{"large > normal", MeasurementRange{36, 6, 84}},
	{"large > fine", MeasurementRange{36, 1, 84}},
	{"huge > coarse", MeasurementRange{24, 12, 96}},
	{"huge > normal", MeasurementRange{24, 6, 96}},
	{"huge > fine", MeasurementRange{24, 1, 96}},
}

// Resolutions are the offered cycles-per-note settings, fastest first.
var Resolutions = []int{20, 50, 100, 200, 400}

// ReportRange is the pitch axis used when results are tabulated.
var ReportRange = MeasurementRange{24, 1, 96}

// LookupRegime finds a regime by name, ignoring case and surrounding blanks.
// "large-normal" and "large > normal" name the same regime.
func LookupRegime(name string) (Regime, bool) {
	want := normalizeRegime(name)
	for _, r := range Regimes {
		if normalizeRegime(r.Name) == want {
			return r, true
		}
	}
	return Regime{}, false
}

func normalizeRegime(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" > ", "-", ">", "-", " ", "-", "/", "-").Replace(s)
	return s
}

// Package provider holds the fixed catalog of holdings providers.
package provider

// Provider names. Detection refers to providers by these identifiers.
const (
	IShares     = "ishares"
	Vanguard    = "vanguard"
	SPDR        = "spdr"
	Invesco     = "invesco"
	JustETF     = "justetf"
	HL          = "hl"
	AIC         = "aic"
	FMP         = "fmp"
	Morningstar = "morningstar"
	FT          = "ft"
	Yahoo       = "yahoo"
)

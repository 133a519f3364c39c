package symbols

import "strings"

// suffixes maps an exchange code to the provider's ticker suffix.
// US listings (NYSE, NASDAQ, AMEX) need no suffix.
var suffixes = map[string]string{
	"ETR":  ".DE",
	"FRA":  ".F",
	"LON":  ".L",
	"EPA":  ".PA",
	"AMS":  ".AS",
	"BIT":  ".MI",
	"BME":  ".MC",
	"SWX":  ".SW",
	"VIE":  ".VI",
	"STO":  ".ST",
	"EBR":  ".BR",
	"ELI":  ".LS",
	"HKG":  ".HK",
	"TYO":  ".T",
	"TSE":  ".TO",
	"TSX":  ".TO",
	"ASX":  ".AX",
	"NSE":  ".NS",
	"BSE":  ".BO",
	"SGX":  ".SI",
	"KRX":  ".KS",
	"SHA":  ".SS",
	"SHE":  ".SZ",
	"OSL":  ".OL",
	"CPH":  ".CO",
	"HEL":  ".HE",
	"WAR":  ".WA",
	"JSE":  ".JO",
	"BVMF": ".SA",
}

// passthrough lists exchange codes whose tickers are used as-is.
var passthrough = map[string]bool{
	"":         true,
	"NYSE":     true,
	"NASDAQ":   true,
	"AMEX":     true,
	"NYSEARCA": true,
	"BATS":     true,
	"OTC":      true,
}

// Resolve turns a (ticker, exchange) pair into the provider lookup key.
// Unknown exchange codes fall back to the bare ticker; the bool return is
// false in that case so callers can log the degrade. Resolution is pure and
// idempotent.
func Resolve(ticker, exchange string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	ex := strings.ToUpper(strings.TrimSpace(exchange))

	if passthrough[ex] {
		return t, true
	}
	if sfx, ok := suffixes[ex]; ok {
		// Input sheets sometimes carry tickers already suffixed.
		if strings.HasSuffix(t, sfx) {
			return t, true
		}
		return t + sfx, true
	}
	return t, false
}

package rules

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/palantir/lead-repair-pipeline/internal/lead"
)

// Certainty levels attached to each kind of inference. The repaired lead's
// confidence is the minimum over everything that had to be inferred.
const (
	certExplicit    = 1.0
	certAlias       = 0.95
	certNamed       = 0.9
	certCity        = 0.85
	certKeyword     = 0.85
	certBand        = 0.9
	certContextCue  = 0.8
	certAssumedUSD  = 0.7
	certCurrencyCue = 0.6
	certFallback    = 0.5
)

// USD conversion rates for currencies recognised in notes.
var usdRates = map[string]float64{
	"USD": 1.0,
	"EUR": 1.10,
	"JPY": 0.007,
	"GBP": 1.30,
	"AUD": 0.65,
}

var countryAliases = map[string]string{
	"us": "US", "usa": "US", "u.s.": "US", "u.s.a.": "US", "united states": "US",
	"united states of america": "US", "america": "US",
	"uk": "GB", "u.k.": "GB", "gb": "GB", "united kingdom": "GB", "great britain": "GB",
	"britain": "GB", "england": "GB",
	"germany": "DE", "deutschland": "DE",
	"france": "FR",
	"japan": "JP",
	"australia": "AU",
	"canada": "CA",
	"spain": "ES", "espana": "ES",
	"belgium": "BE",
	"italy": "IT",
	"poland": "PL",
	"south korea": "KR", "korea": "KR",
	"uae": "AE", "united arab emirates": "AE",
	"russia": "RU",
	"china": "CN",
	"india": "IN",
	"brazil": "BR",
	"mexico": "MX",
	"netherlands": "NL", "holland": "NL",
	"switzerland": "CH",
	"sweden": "SE",
	"ireland": "IE",
	"singapore": "SG",
}

// proseAmbiguous aliases name a country in a country column but a region
// ("Latin America", "North Korea") in free text.
var proseAmbiguous = map[string]bool{
	"america": true,
	"korea":   true,
}

type cue struct {
	code string
	cert float64
}

var (
	countryCues  []keyword
	industryCues []keyword
	segmentCues  []keyword
)

type keyword struct {
	re    *regexp.Regexp
	value string
	cert  float64
}

func init() {
	for name, code := range countryAliases {
		if len(name) <= 3 || strings.Contains(name, ".") || proseAmbiguous[name] {
			// Short and dotted aliases are too ambiguous inside prose.
			continue
		}
		countryCues = append(countryCues, newKeyword(name, code, certNamed))
	}
	cities := map[string]cue{
		"paris": {"FR", certCity}, "lyon": {"FR", certCity},
		"tokyo": {"JP", certCity}, "osaka": {"JP", certCity},
		"london": {"GB", certCity}, "manchester": {"GB", certCity},
		"berlin": {"DE", certCity}, "munich": {"DE", certCity}, "frankfurt": {"DE", certCity},
		"new york": {"US", certCity}, "silicon valley": {"US", certCity}, "san francisco": {"US", certCity},
		"seattle": {"US", certCity}, "chicago": {"US", certCity}, "boston": {"US", certCity},
		"sydney": {"AU", certCity}, "melbourne": {"AU", certCity},
		"toronto": {"CA", certCity}, "vancouver": {"CA", certCity},
		"madrid": {"ES", certCity}, "barcelona": {"ES", certCity},
		"brussels": {"BE", certCity},
		"milan": {"IT", certCity}, "rome": {"IT", certCity},
		"warsaw": {"PL", certCity},
		"seoul": {"KR", certCity},
		"dubai": {"AE", certCity}, "abu dhabi": {"AE", certCity},
		"moscow": {"RU", certCity},
		"amsterdam": {"NL", certCity},
		"zurich": {"CH", certCity},
		"stockholm": {"SE", certCity},
		"dublin": {"IE", certCity},
		"mizuho": {"JP", certContextCue}, "deutsche bank": {"DE", certContextCue},
		"yen": {"JP", certCurrencyCue}, "jpy": {"JP", certCurrencyCue},
		"gbp": {"GB", certCurrencyCue}, "sterling": {"GB", certCurrencyCue},
		"aud": {"AU", certCurrencyCue},
	}
	for name, c := range cities {
		countryCues = append(countryCues, newKeyword(name, c.code, c.cert))
	}

	industries := map[lead.Industry][]string{
		lead.IndustryTech: {"software", "ai", "cloud", "saas", "startup", "platform", "devops", "iot",
			"fintech app", "tech", "technology", "data center", "cybersecurity"},
		lead.IndustryFinance: {"bank", "banking", "investment", "trading", "insurance", "fintech",
			"credit union", "payment processor", "payments", "asset management", "hedge fund"},
		lead.IndustryRetail: {"bakery", "shop", "store", "e-commerce", "ecommerce", "boutique",
			"restaurant", "wine shop", "coffee shop", "cafe", "grocery", "retail", "retailer"},
		lead.IndustryHealthcare: {"hospital", "clinic", "pharma", "medical", "pharmaceutical",
			"dental", "healthcare", "health care", "biotech"},
	}
	for ind, words := range industries {
		for _, w := range words {
			industryCues = append(industryCues, newKeyword(w, string(ind), certKeyword))
		}
	}

	segments := map[lead.Segment][]string{
		lead.SegmentSMB:        {"startup", "small team", "small practice", "small business", "family-owned", "local"},
		lead.SegmentEnterprise: {"fortune 500", "enterprise software", "multi-site", "multinational", "global rollout"},
		lead.SegmentMidMarket:  {"mid-market", "mid market", "regional chain"},
	}
	for seg, words := range segments {
		for _, w := range words {
			segmentCues = append(segmentCues, newKeyword(w, string(seg), certContextCue))
		}
	}
}

func newKeyword(phrase, value string, cert float64) keyword {
	return keyword{
		re:    regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`),
		value: value,
		cert:  cert,
	}
}

// firstMatch returns the keyword whose match starts earliest in text. Ties
// go to the longer phrase so "fintech app" beats "fintech".
func firstMatch(text string, cues []keyword) (keyword, bool) {
	best := keyword{}
	bestPos, bestLen := -1, 0
	for _, k := range cues {
		loc := k.re.FindStringIndex(text)
		if loc == nil {
			continue
		}
		n := loc[1] - loc[0]
		if bestPos < 0 || loc[0] < bestPos || (loc[0] == bestPos && n > bestLen) {
			best, bestPos, bestLen = k, loc[0], n
		}
	}
	return best, bestPos >= 0
}

// lookupCountry maps a free-form country value to its alpha-2 code.
func lookupCountry(raw string) (string, float64, bool) {
	v := strings.TrimSpace(raw)
	if code, ok := countryAliases[strings.ToLower(v)]; ok {
		cert := certAlias
		if strings.EqualFold(v, code) {
			cert = certExplicit
		}
		return code, cert, true
	}
	if len(v) == 2 && isLetters(v) {
		return strings.ToUpper(v), certExplicit, true
	}
	return "", 0, false
}

func countryFromNotes(notes string) (string, float64, bool) {
	k, ok := firstMatch(notes, countryCues)
	if !ok {
		return "", 0, false
	}
	return k.value, k.cert, true
}

// lookupIndustry maps a free-form industry value to the enum.
func lookupIndustry(raw string) (lead.Industry, float64) {
	v := strings.TrimSpace(raw)
	for _, ind := range lead.Industries() {
		if strings.EqualFold(v, string(ind)) {
			return ind, certExplicit
		}
	}
	if k, ok := firstMatch(v, industryCues); ok {
		return lead.Industry(k.value), certAlias
	}
	return lead.IndustryOther, certFallback
}

func industryFromNotes(notes string) (lead.Industry, float64) {
	if k, ok := firstMatch(notes, industryCues); ok {
		return lead.Industry(k.value), k.cert
	}
	return lead.IndustryOther, certFallback
}

var segmentAliases = map[string]lead.Segment{
	"enterprise": lead.SegmentEnterprise, "ent": lead.SegmentEnterprise, "large": lead.SegmentEnterprise,
	"mid-market": lead.SegmentMidMarket, "mid market": lead.SegmentMidMarket, "midmarket": lead.SegmentMidMarket,
	"mid": lead.SegmentMidMarket, "mm": lead.SegmentMidMarket,
	"smb": lead.SegmentSMB, "small business": lead.SegmentSMB, "small": lead.SegmentSMB,
	"small and medium business": lead.SegmentSMB,
}

func lookupSegment(raw string) (lead.Segment, bool) {
	s, ok := segmentAliases[strings.ToLower(strings.TrimSpace(raw))]
	return s, ok
}

func segmentFromNotes(notes string) (lead.Segment, float64, bool) {
	k, ok := firstMatch(notes, segmentCues)
	if !ok {
		return "", 0, false
	}
	return lead.Segment(k.value), k.cert, true
}

// segmentForValue buckets a USD contract value into a segment.
func segmentForValue(v float64) lead.Segment {
	switch {
	case v >= 100_000:
		return lead.SegmentEnterprise
	case v >= 25_000:
		return lead.SegmentMidMarket
	default:
		return lead.SegmentSMB
	}
}

var amountRe = regexp.MustCompile(`(?i)(a\$|us\$|\$|€|£|¥)?\s?(\d{1,3}(?:,\d{3})+|\d+)(?:\.(\d+))?(?:\s*(million|thousand|billion|mm|bn|k|m)\b)?(?:\s*(usd|dollars?|eur|euros?|gbp|pounds?|sterling|jpy|yen|aud|australian dollars?)\b)?`)

// amount is a monetary figure found in free text.
type amount struct {
	value    float64
	currency string
	explicit bool
}

// amountFromNotes finds the most plausible contract amount in notes. Figures
// tagged with a currency win over bare numbers; bare numbers only count when
// they carry a magnitude suffix or are at least 1000 and do not look like a year.
func amountFromNotes(notes string) (amount, bool) {
	var fallback *amount
	for _, m := range amountRe.FindAllStringSubmatch(notes, -1) {
		symbol, whole, frac, suffix, word := m[1], m[2], m[3], strings.ToLower(m[4]), strings.ToLower(m[5])
		num := strings.ReplaceAll(whole, ",", "")
		if frac != "" {
			num += "." + frac
		}
		v, err := strconv.ParseFloat(num, 64)
		if err != nil || v <= 0 {
			continue
		}
		v *= multiplier(suffix)

		cur := currencyOf(symbol, word)
		if cur != "" {
			return amount{value: v, currency: cur, explicit: true}, true
		}
		if fallback != nil {
			continue
		}
		if suffix != "" || (v >= 1000 && !looksLikeYear(whole, frac)) {
			fallback = &amount{value: v, currency: "USD"}
		}
	}
	if fallback == nil {
		return amount{}, false
	}
	return *fallback, true
}

// USD converts the amount to US dollars rounded to cents.
func (a amount) USD() float64 {
	rate, ok := usdRates[a.currency]
	if !ok {
		rate = 1
	}
	return math.Round(a.value*rate*100) / 100
}

func multiplier(suffix string) float64 {
	switch suffix {
	case "k", "thousand":
		return 1_000
	case "m", "mm", "million":
		return 1_000_000
	case "bn", "billion":
		return 1_000_000_000
	default:
		return 1
	}
}

func currencyOf(symbol, word string) string {
	switch strings.ToLower(symbol) {
	case "a$":
		return "AUD"
	case "$", "us$":
		return "USD"
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	case "¥":
		return "JPY"
	}
	switch {
	case word == "":
		return ""
	case word == "usd" || strings.HasPrefix(word, "dollar"):
		return "USD"
	case word == "eur" || strings.HasPrefix(word, "euro"):
		return "EUR"
	case word == "gbp" || strings.HasPrefix(word, "pound") || word == "sterling":
		return "GBP"
	case word == "jpy" || word == "yen":
		return "JPY"
	case word == "aud" || strings.HasPrefix(word, "australian"):
		return "AUD"
	}
	return ""
}

func looksLikeYear(whole, frac string) bool {
	if frac != "" || len(whole) != 4 {
		return false
	}
	y, err := strconv.Atoi(whole)
	return err == nil && y >= 1900 && y <= 2100
}

func isLetters(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return s != ""
}

package typeoption

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cuemby/collabkit/pkg/anymap"
	"github.com/cuemby/collabkit/pkg/types"
)

// NumberFormat selects the currency/percent presentation of a Number
// field. Values match the original 36-entry table exactly (ids 0-36),
// including its gap at id 3 (SPEC_FULL.md §6).
type NumberFormat int64

const (
	NumberFormatNum             NumberFormat = 0
	NumberFormatUSD             NumberFormat = 1
	NumberFormatCanadianDollar  NumberFormat = 2
	NumberFormatEUR             NumberFormat = 4
	NumberFormatPound           NumberFormat = 5
	NumberFormatYen             NumberFormat = 6
	NumberFormatRuble           NumberFormat = 7
	NumberFormatRupee           NumberFormat = 8
	NumberFormatWon             NumberFormat = 9
	NumberFormatYuan            NumberFormat = 10
	NumberFormatReal            NumberFormat = 11
	NumberFormatLira            NumberFormat = 12
	NumberFormatRupiah          NumberFormat = 13
	NumberFormatFranc           NumberFormat = 14
	NumberFormatHongKongDollar  NumberFormat = 15
	NumberFormatNewZealandDollar NumberFormat = 16
	NumberFormatKrona           NumberFormat = 17
	NumberFormatNorwegianKrone  NumberFormat = 18
	NumberFormatMexicanPeso     NumberFormat = 19
	NumberFormatRand            NumberFormat = 20
	NumberFormatNewTaiwanDollar NumberFormat = 21
	NumberFormatDanishKrone     NumberFormat = 22
	NumberFormatBaht            NumberFormat = 23
	NumberFormatForint          NumberFormat = 24
	NumberFormatKoruna          NumberFormat = 25
	NumberFormatShekel          NumberFormat = 26
	NumberFormatChileanPeso     NumberFormat = 27
	NumberFormatPhilippinePeso  NumberFormat = 28
	NumberFormatDirham          NumberFormat = 29
	NumberFormatColombianPeso   NumberFormat = 30
	NumberFormatRiyal           NumberFormat = 31
	NumberFormatRinggit         NumberFormat = 32
	NumberFormatLeu             NumberFormat = 33
	NumberFormatArgentinePeso   NumberFormat = 34
	NumberFormatUruguayanPeso   NumberFormat = 35
	NumberFormatPercent         NumberFormat = 36
)

var numberFormatSymbols = map[NumberFormat]string{
	NumberFormatNum:              "",
	NumberFormatUSD:              "$",
	NumberFormatCanadianDollar:   "CA$",
	NumberFormatEUR:              "€",
	NumberFormatPound:            "£",
	NumberFormatYen:              "¥",
	NumberFormatRuble:            "₽",
	NumberFormatRupee:            "₹",
	NumberFormatWon:              "₩",
	NumberFormatYuan:             "CN¥",
	NumberFormatReal:             "R$",
	NumberFormatLira:             "₺",
	NumberFormatRupiah:           "Rp",
	NumberFormatFranc:            "CHF",
	NumberFormatHongKongDollar:   "HK$",
	NumberFormatNewZealandDollar: "NZ$",
	NumberFormatKrona:            "kr",
	NumberFormatNorwegianKrone:   "kr",
	NumberFormatMexicanPeso:      "MX$",
	NumberFormatRand:             "R",
	NumberFormatNewTaiwanDollar:  "NT$",
	NumberFormatDanishKrone:      "kr",
	NumberFormatBaht:             "฿",
	NumberFormatForint:           "Ft",
	NumberFormatKoruna:           "Kč",
	NumberFormatShekel:           "₪",
	NumberFormatChileanPeso:      "CL$",
	NumberFormatPhilippinePeso:   "₱",
	NumberFormatDirham:           "AED",
	NumberFormatColombianPeso:    "CO$",
	NumberFormatRiyal:            "SAR",
	NumberFormatRinggit:          "RM",
	NumberFormatLeu:              "lei",
	NumberFormatArgentinePeso:    "AR$",
	NumberFormatUruguayanPeso:    "$U",
	NumberFormatPercent:          "%",
}

// Symbol returns the display symbol for f, or "" if f is unrecognized.
func (f NumberFormat) Symbol() string { return numberFormatSymbols[f] }

var (
	scientificRegex  = regexp.MustCompile(`(?i)^-?\d+(\.\d+)?e[+-]?\d+$`)
	startWithDotRe   = regexp.MustCompile(`^\.\d+`)
	extractNumberRe  = regexp.MustCompile(`-?\d+(\.\d+)?`)
)

// NumberTypeOption is the type_option_data for a Number field.
type NumberTypeOption struct {
	Format NumberFormat
	Scale  uint32
	Symbol string
	Name   string
}

// NewNumber returns the default NumberTypeOption a freshly created
// Number field starts with.
func NewNumber() *NumberTypeOption {
	return &NumberTypeOption{Format: NumberFormatNum, Symbol: NumberFormatNum.Symbol(), Name: "Number"}
}

func (o *NumberTypeOption) FieldType() types.FieldType { return types.FieldTypeNumber }

func (o *NumberTypeOption) ReadFrom(m *anymap.AnyMap) {
	if v, ok := m.GetInt64("format"); ok {
		o.Format = NumberFormat(v)
	}
	if v, ok := m.GetInt64("scale"); ok {
		o.Scale = uint32(v)
	}
	if v, ok := m.GetString("symbol"); ok {
		o.Symbol = v
	}
	if v, ok := m.GetString("name"); ok {
		o.Name = v
	}
}

func (o *NumberTypeOption) WriteTo(m *anymap.AnyMap) {
	m.Insert("format", int64(o.Format))
	m.Insert("scale", int64(o.Scale))
	m.Insert("symbol", o.Symbol)
	m.Insert("name", o.Name)
}

// parseNumber extracts the numeric value of raw, normalizing a leading
// dot ("123" stays as-is, ".5" becomes "0.5", "-.5" becomes -0.5) and
// tolerating scientific
// notation and surrounding currency formatting. The sign is read from
// whether raw itself starts with "-", independent of where the
// numeric digits fall — a currency symbol sitting between the sign
// and the digits ("-€0.2") must not swallow the sign.
func parseNumber(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	if scientificRegex.MatchString(raw) {
		v, err := strconv.ParseFloat(raw, 64)
		return v, err == nil
	}
	negative := strings.HasPrefix(raw, "-")
	s := strings.TrimPrefix(strings.TrimPrefix(raw, "-"), "+")
	if startWithDotRe.MatchString(s) {
		s = "0" + s
	} else {
		s = strings.TrimPrefix(extractNumberRe.FindString(s), "-")
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -math.Abs(v)
	} else {
		v = math.Abs(v)
	}
	return v, true
}

// formatThousands inserts thousands separators into a non-negative
// integer string.
func formatThousands(intPart string) string {
	n := len(intPart)
	if n <= 3 {
		return intPart
	}
	var b strings.Builder
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(intPart[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(intPart[i : i+3])
	}
	return b.String()
}

// formatValue renders f at its natural precision — Scale is stored
// alongside the format but, matching the original type option, never
// constrains display formatting. The sign is composed separately from
// the magnitude so it lands before the currency symbol ("-$0.2"), not
// embedded inside the formatted number ("$-0.2").
func (o *NumberTypeOption) formatValue(f float64) string {
	negative := f < 0
	s := strconv.FormatFloat(math.Abs(f), 'f', -1, 64)
	intPart, frac, hasFrac := s, "", false
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart, frac, hasFrac = s[:idx], s[idx+1:], true
	}
	intPart = formatThousands(intPart)
	num := intPart
	if hasFrac {
		num = intPart + "." + frac
	}
	sign := ""
	if negative {
		sign = "-"
	}
	switch o.Format {
	case NumberFormatNum:
		return sign + num
	case NumberFormatPercent:
		return sign + num + "%"
	default:
		symbol := o.Symbol
		if symbol == "" {
			symbol = o.Format.Symbol()
		}
		return sign + symbol + num
	}
}

func (o *NumberTypeOption) ConvertRawCellData(text string) string {
	v, ok := parseNumber(text)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (o *NumberTypeOption) StringifyCell(raw string) string {
	v, ok := parseNumber(raw)
	if !ok {
		return ""
	}
	return o.formatValue(v)
}

func (o *NumberTypeOption) JSONCell(raw string) any {
	return o.StringifyCell(raw)
}

func (o *NumberTypeOption) NumericCell(raw string) (float64, bool) {
	return parseNumber(raw)
}

func (o *NumberTypeOption) ConvertJSONToCell(json any) string {
	switch v := json.(type) {
	case string:
		return o.ConvertRawCellData(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return ""
	}
}

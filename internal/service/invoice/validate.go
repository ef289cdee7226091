package invoice

import (
	"encoding/json"
	"math"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignite/invoice-admin/internal/domain"
)

// Form field names as posted by the invoice forms.
const (
	FieldCustomerID = "customerId"
	FieldAmount     = "amount"
	FieldStatus     = "status"
)

// Form is a raw submission. Values are whatever the transport produced:
// strings from a form post, or strings/numbers/nil from a JSON body.
type Form map[string]any

// FormFromValues builds a Form from a decoded form post. Only the first value
// of each key is kept.
func FormFromValues(v url.Values) Form {
	f := make(Form, len(v))
	for k, vs := range v {
		if len(vs) > 0 {
			f[k] = vs[0]
		}
	}
	return f
}

// Submission is a validated, normalized invoice form.
type Submission struct {
	CustomerID string
	Amount     decimal.Decimal
	Status     domain.InvoiceStatus
}

// FieldErrors maps a form field to the messages it failed with.
type FieldErrors map[string][]string

func (fe FieldErrors) add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

// MaxAmount is the largest amount whose minor-unit value fits a BIGINT column.
var MaxAmount = decimal.New(math.MaxInt64, -2)

// Amount exponents outside this window are rejected before any arithmetic.
const (
	minAmountExponent = -20
	maxAmountExponent = 20
)

// fieldRule is one row of the submission constraint table. check coerces the
// raw value, stores it into s and reports whether it satisfied the rule.
type fieldRule struct {
	field   string
	message string
	check   func(raw any, present bool, s *Submission) bool
}

var submissionRules = []fieldRule{
	{FieldCustomerID, MsgCustomerRequired, checkCustomerID},
	{FieldAmount, MsgAmountInvalid, checkAmount},
	{FieldStatus, MsgStatusInvalid, checkStatus},
}

// Validate evaluates every rule against f and returns either the normalized
// submission or the complete set of field errors. It never stops at the
// first failing field.
func Validate(f Form) (Submission, FieldErrors) {
	var s Submission
	errs := FieldErrors{}
	for _, rule := range submissionRules {
		raw, present := f[rule.field]
		if !rule.check(raw, present, &s) {
			errs.add(rule.field, rule.message)
		}
	}
	if len(errs) > 0 {
		return Submission{}, errs
	}
	return s, nil
}

func checkCustomerID(raw any, present bool, s *Submission) bool {
	v, ok := raw.(string)
	if !present || !ok {
		return false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	s.CustomerID = v
	return true
}

func checkAmount(raw any, _ bool, s *Submission) bool {
	d, ok := coerceDecimal(raw)
	if !ok {
		return false
	}
	// Comparisons rescale to a common exponent, so bound it first.
	if d.Exponent() < minAmountExponent || d.Exponent() > maxAmountExponent {
		return false
	}
	if !d.IsPositive() || d.GreaterThan(MaxAmount) {
		return false
	}
	// Sub-cent amounts that round to zero are not a chargeable amount.
	if !d.Mul(hundred).Round(0).IsPositive() {
		return false
	}
	s.Amount = d
	return true
}

func checkStatus(raw any, present bool, s *Submission) bool {
	v, ok := raw.(string)
	if !present || !ok {
		return false
	}
	st := domain.InvoiceStatus(v)
	if !st.Valid() {
		return false
	}
	s.Status = st
	return true
}

// coerceDecimal turns a raw amount into a number. Missing values and empty
// strings coerce to zero, which the positivity check then rejects.
func coerceDecimal(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, true
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return decimal.Zero, true
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case bool:
		if v {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	default:
		return decimal.Zero, false
	}
}

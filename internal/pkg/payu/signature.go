package payu

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Template names a canonicalization of the response fields used to compute the hash.
type Template string

const (
	// TemplateReverse is salt|status|udf10..udf6|udf5..udf1|email|firstname|productinfo|amount|txnid|key.
	TemplateReverse Template = "reverse"
	// TemplateLegacy is the older ordering without the reserved udf10..udf6 slots.
	TemplateLegacy Template = "legacy"
	// TemplateAdditionalCharges prefixes the reverse ordering with additionalCharges.
	TemplateAdditionalCharges Template = "additional_charges"
)

// DefaultTemplates is the candidate order tried when none is configured.
var DefaultTemplates = []Template{TemplateReverse, TemplateAdditionalCharges, TemplateLegacy}

// ParseTemplates validates a list of template names.
func ParseTemplates(names []string) ([]Template, error) {
	if len(names) == 0 {
		return append([]Template(nil), DefaultTemplates...), nil
	}
	templates := make([]Template, 0, len(names))
	for _, name := range names {
		t := Template(strings.TrimSpace(strings.ToLower(name)))
		switch t {
		case TemplateReverse, TemplateLegacy, TemplateAdditionalCharges:
			templates = append(templates, t)
		case "":
		default:
			return nil, fmt.Errorf("unknown hash template %q", name)
		}
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no hash templates configured")
	}
	return templates, nil
}

// VerifierConfig holds merchant credentials and the verification policy.
type VerifierConfig struct {
	MerchantKey string
	Salt        string
	Production  bool
	// SkipUnconfigured lets a non-production deployment accept callbacks without a salt.
	SkipUnconfigured bool
	// AllowUnsigned accepts callbacks with no hash field at all.
	AllowUnsigned bool
	Templates     []Template
}

// Verifier checks response hashes. It holds no mutable state and performs no I/O.
type Verifier struct {
	cfg VerifierConfig
}

// NewVerifier constructs Verifier, defaulting the template list.
func NewVerifier(cfg VerifierConfig) *Verifier {
	if len(cfg.Templates) == 0 {
		cfg.Templates = append([]Template(nil), DefaultTemplates...)
	}
	return &Verifier{cfg: cfg}
}

// Verify reports whether any candidate canonicalization matches the supplied hash.
func (v *Verifier) Verify(fields map[string]string) bool {
	return v.Check(fields).Valid
}

// Check is Verify with the reason and matching template attached.
func (v *Verifier) Check(fields map[string]string) model.Verdict {
	if v.cfg.Salt == "" {
		if !v.cfg.Production && v.cfg.SkipUnconfigured {
			return model.Verdict{Valid: true, Reason: "verification skipped: salt not configured"}
		}
		return model.Verdict{Reason: "salt not configured"}
	}

	supplied := strings.ToLower(strings.TrimSpace(fields[FieldHash]))
	if supplied == "" {
		if v.cfg.AllowUnsigned {
			return model.Verdict{Valid: true, Unsigned: true, Reason: "unsigned callback accepted"}
		}
		return model.Verdict{Reason: "hash missing"}
	}

	for _, t := range v.cfg.Templates {
		expected, ok := ResponseHash(t, fields, v.cfg.MerchantKey, v.cfg.Salt)
		if !ok {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(supplied)) == 1 {
			return model.Verdict{Valid: true, Template: string(t)}
		}
	}
	return model.Verdict{Reason: "hash mismatch"}
}

// ResponseHash computes the expected response hash for a template.
// ok is false when the template does not apply to the payload.
func ResponseHash(t Template, fields map[string]string, key, salt string) (hash string, ok bool) {
	get := func(name string) string { return strings.TrimSpace(fields[name]) }

	tail := []string{
		get(FieldUDF5), get(FieldUDF4), get(FieldUDF3), get(FieldUDF2), get(FieldUDF1),
		get(FieldEmail), get(FieldFirstName), get(FieldProductInfo), get(FieldAmount), get(FieldTxnID), key,
	}
	reserved := []string{"", "", "", "", ""}

	var parts []string
	switch t {
	case TemplateReverse:
		parts = append(parts, salt, get(FieldStatus))
		parts = append(parts, reserved...)
		parts = append(parts, tail...)
	case TemplateLegacy:
		parts = append(parts, salt, get(FieldStatus))
		parts = append(parts, tail...)
	case TemplateAdditionalCharges:
		charges := get(FieldAdditionalCharges)
		if charges == "" {
			return "", false
		}
		parts = append(parts, charges, salt, get(FieldStatus))
		parts = append(parts, reserved...)
		parts = append(parts, tail...)
	default:
		return "", false
	}
	return sha512Hex(strings.Join(parts, "|")), true
}

// RequestFields are the values signed when sending a buyer to the hosted checkout.
type RequestFields struct {
	TxnID       string
	Amount      string
	ProductInfo string
	FirstName   string
	Email       string
	UDF         [5]string
}

// RequestHash signs a payment request:
// key|txnid|amount|productinfo|firstname|email|udf1..udf5||||||salt.
func RequestHash(key, salt string, f RequestFields) string {
	parts := []string{key, f.TxnID, f.Amount, f.ProductInfo, f.FirstName, f.Email}
	parts = append(parts, f.UDF[:]...)
	parts = append(parts, "", "", "", "", "", salt)
	return sha512Hex(strings.Join(parts, "|"))
}

// CommandHash signs a merchant API command: key|command|var1|salt.
func CommandHash(key, command, var1, salt string) string {
	return sha512Hex(strings.Join([]string{key, command, var1, salt}, "|"))
}

func sha512Hex(s string) string {
	sum := sha512.Sum512([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Package payu implements the PayU hosted checkout protocol: payload normalization,
// SHA-512 signature verification and translation of gateway responses.
package payu

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Gateway field names.
const (
	FieldKey               = "key"
	FieldTxnID             = "txnid"
	FieldAmount            = "amount"
	FieldProductInfo       = "productinfo"
	FieldFirstName         = "firstname"
	FieldEmail             = "email"
	FieldPhone             = "phone"
	FieldStatus            = "status"
	FieldUnmappedStatus    = "unmappedstatus"
	FieldHash              = "hash"
	FieldMihPayID          = "mihpayid"
	FieldBankRefNum        = "bank_ref_num"
	FieldMode              = "mode"
	FieldErrorMessage      = "error_Message"
	FieldError             = "error"
	FieldAdditionalCharges = "additionalCharges"
	FieldUDF1              = "udf1"
	FieldUDF2              = "udf2"
	FieldUDF3              = "udf3"
	FieldUDF4              = "udf4"
	FieldUDF5              = "udf5"

	// FieldOrderReference carries the storefront order id, placed there at initiation time.
	FieldOrderReference = FieldUDF1
)

// Source tells which encoding produced a normalized payload.
type Source int

const (
	SourceUnparsed Source = iota
	SourceQuery
	SourceJSON
	SourceForm
)

func (s Source) String() string {
	switch s {
	case SourceQuery:
		return "query"
	case SourceJSON:
		return "json"
	case SourceForm:
		return "form"
	default:
		return "unparsed"
	}
}

// Payload is a flat view over a callback regardless of how it was encoded.
type Payload struct {
	Source Source
	Fields map[string]string
}

// Empty reports whether the payload carries no usable data.
func (p Payload) Empty() bool {
	return len(p.Fields) == 0
}

// Get returns a trimmed field value.
func (p Payload) Get(key string) string {
	return strings.TrimSpace(p.Fields[key])
}

// Normalize flattens a callback body and query string into a single mapping.
// The first decoding that yields data wins: query with an order reference, JSON, form, query.
func Normalize(body []byte, query url.Values) Payload {
	if query.Get(FieldOrderReference) != "" {
		return Payload{Source: SourceQuery, Fields: flattenValues(query)}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 {
		if fields, ok := parseJSON(trimmed); ok {
			return Payload{Source: SourceJSON, Fields: fields}
		}
		if fields, ok := parseForm(trimmed); ok {
			return Payload{Source: SourceForm, Fields: fields}
		}
	}

	fields := flattenValues(query)
	if len(fields) == 0 {
		return Payload{Source: SourceUnparsed, Fields: map[string]string{}}
	}
	return Payload{Source: SourceQuery, Fields: fields}
}

func parseJSON(body []byte) (map[string]string, bool) {
	if body[0] != '{' {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}

	fields := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			fields[k] = ""
		case string:
			fields[k] = val
		case json.Number:
			fields[k] = val.String()
		case bool:
			fields[k] = strconv.FormatBool(val)
		default:
			nested, err := json.Marshal(val)
			if err != nil {
				continue
			}
			fields[k] = string(nested)
		}
	}
	return fields, true
}

func parseForm(body []byte) (map[string]string, bool) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, false
	}
	fields := flattenValues(values)
	for _, v := range fields {
		if v != "" {
			return fields, true
		}
	}
	return nil, false
}

func flattenValues(values url.Values) map[string]string {
	fields := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) == 0 {
			continue
		}
		fields[k] = v[0]
	}
	return fields
}

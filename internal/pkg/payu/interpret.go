package payu

import (
	"strings"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

const (
	statusSuccess  = "success"
	statusCaptured = "captured"
)

// noErrorMarkers are values PayU places in error fields when nothing went wrong.
var noErrorMarkers = map[string]struct{}{
	"":         {},
	"no error": {},
	"e000":     {},
	"na":       {},
}

// InterpreterOptions controls optional success signals.
type InterpreterOptions struct {
	// InferSuccessFromReferences treats mihpayid + bank_ref_num without an error message as
	// success even when status says otherwise. Off unless explicitly enabled.
	InferSuccessFromReferences bool
}

// Interpreter maps gateway fields onto CallbackResult.
type Interpreter struct {
	opts InterpreterOptions
}

// NewInterpreter constructs Interpreter.
func NewInterpreter(opts InterpreterOptions) *Interpreter {
	return &Interpreter{opts: opts}
}

// Interpret translates a normalized payload. A payload without udf1 cannot be reconciled.
func (i *Interpreter) Interpret(fields map[string]string) (model.CallbackResult, error) {
	get := func(name string) string { return strings.TrimSpace(fields[name]) }

	result := model.CallbackResult{
		OrderReference:        get(FieldOrderReference),
		TxnID:                 get(FieldTxnID),
		ExternalTransactionID: get(FieldMihPayID),
		GatewayStatus:         get(FieldStatus),
		ErrorMessage:          errorValue(firstNonEmpty(get(FieldErrorMessage), get("error_message"))),
		ErrorCode:             errorValue(get(FieldError)),
		Mode:                  get(FieldMode),
		BankReference:         get(FieldBankRefNum),
	}
	if result.OrderReference == "" {
		return result, domainErrors.ErrMissingOrderReference
	}

	amount, err := decimal.NewFromString(firstNonEmpty(get(FieldAmount), get("net_amount_debit")))
	if err != nil {
		result.Amount = decimal.Zero
		result.AmountUnparsed = true
	} else {
		result.Amount = amount
	}

	status := strings.ToLower(result.GatewayStatus)
	switch {
	case status == statusSuccess:
		result.IsSuccess = true
	case status == statusCaptured, strings.EqualFold(get(FieldUnmappedStatus), statusCaptured):
		result.IsSuccess = true
	case i.opts.InferSuccessFromReferences &&
		result.ExternalTransactionID != "" && result.BankReference != "" && result.ErrorMessage == "":
		result.IsSuccess = true
		result.InferredSuccess = true
	}

	return result, nil
}

func errorValue(v string) string {
	if _, ok := noErrorMarkers[strings.ToLower(v)]; ok {
		return ""
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

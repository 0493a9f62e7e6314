package catalog

import (
	"errors"

	"github.com/kitbazar/kitbazar/internal/models"
)

var (
	ErrUnpriceable    = errors.New("selection cannot be priced")
	ErrMalformedSizes = errors.New("malformed sizes")
)

type SelectionCode string

const (
	CodeNoStock        SelectionCode = "no_stock"
	CodeOutOfStock     SelectionCode = "out_of_stock"
	CodeOptionRequired SelectionCode = "option_required"
	CodeUnknownOption  SelectionCode = "unknown_option"
	CodeIncomplete     SelectionCode = "incomplete_selection"
	CodeWrongAxis      SelectionCode = "wrong_axis"
)

// SelectionError is a rejected transition. Message is safe to show shoppers.
type SelectionError struct {
	Code    SelectionCode
	Message string
}

func (e *SelectionError) Error() string {
	return e.Message
}

func selectionErr(code SelectionCode, msg string) *SelectionError {
	return &SelectionError{Code: code, Message: msg}
}

func incompleteMessage(kind models.CategoryKind) string {
	switch kind {
	case models.KindFabric:
		return "Please select fabric type and size"
	case models.KindType:
		return "Please select tracksuit type and size"
	default:
		return "Please select a size"
	}
}

func optionRequiredMessage(kind models.CategoryKind) string {
	if kind == models.KindType {
		return "Please select tracksuit type first"
	}
	return "Please select fabric type first"
}

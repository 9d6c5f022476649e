package validation

import (
	"fmt"

	dErrors "databreaker/pkg/domain-errors"
)

// MaxBodySize is the maximum accepted request body size (64 KB).
const MaxBodySize = 64 * 1024

const (
	// MaxBrokers caps the broker allow-list of a single scan.
	MaxBrokers = 100

	// MaxBrokerIDLength bounds a broker or connector identifier.
	MaxBrokerIDLength = 100

	// MaxQueryFieldLength bounds each free-text field of a person query.
	MaxQueryFieldLength = 200
)

// CheckSliceCount validates that a slice does not exceed the maximum count.
func CheckSliceCount(fieldName string, count, max int) error {
	if count > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("too many %s: max %d allowed", fieldName, max))
	}
	return nil
}

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}

// Field pairs a value with the name used in error messages.
type Field struct {
	Name  string
	Value string
}

// CheckFieldLengths reports the first field longer than max.
func CheckFieldLengths(max int, fields ...Field) error {
	for _, f := range fields {
		if err := CheckStringLength(f.Name, f.Value, max); err != nil {
			return err
		}
	}
	return nil
}

// CheckEachStringLength validates that each string in a slice does not exceed the maximum length.
func CheckEachStringLength(fieldName string, values []string, max int) error {
	for _, v := range values {
		if err := CheckStringLength(fieldName, v, max); err != nil {
			return err
		}
	}
	return nil
}

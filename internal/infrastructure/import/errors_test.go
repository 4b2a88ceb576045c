package csvimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowErrorFormatting(t *testing.T) {
	t.Run("with column", func(t *testing.T) {
		err := NewRowError(5, "email", ErrCodeImportInvalidFormat, "invalid email format")
		assert.Equal(t, "row 5, column 'email': invalid email format", err.Error())
	})

	t.Run("without column", func(t *testing.T) {
		err := NewRowError(10, "", ErrCodeImportCSVParsing, "malformed row")
		assert.Equal(t, "row 10: malformed row", err.Error())
	})

	t.Run("carries the offending value", func(t *testing.T) {
		err := NewRowErrorWithValue(3, "phone", ErrCodeImportPatternMismatch, "invalid phone", "abc123")
		assert.Equal(t, "abc123", err.Value)
		assert.Equal(t, 3, err.Row)
	})
}

func TestErrorCollectionCap(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		ec := NewErrorCollection(10)
		for i := 1; i <= 3; i++ {
			ec.Add(NewRowError(i, "code", ErrCodeImportValidation, "error"))
		}

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 3, ec.TotalCount())
		assert.True(t, ec.HasErrors())
		assert.False(t, ec.IsTruncated())
	})

	t.Run("over limit keeps counting but stops storing", func(t *testing.T) {
		ec := NewErrorCollection(3)
		for i := 1; i <= 5; i++ {
			ec.Add(NewRowError(i, "code", ErrCodeImportValidation, "error"))
		}

		assert.Equal(t, 3, ec.Count())
		assert.Equal(t, 5, ec.TotalCount())
		assert.True(t, ec.IsTruncated())
	})

	t.Run("non-positive limit falls back to default", func(t *testing.T) {
		ec := NewErrorCollection(0)
		for i := 0; i < defaultMaxErrors+1; i++ {
			ec.Add(NewRowError(i, "code", ErrCodeImportValidation, "error"))
		}

		assert.Equal(t, defaultMaxErrors, ec.Count())
		assert.True(t, ec.IsTruncated())
	})

	t.Run("clear resets both counters", func(t *testing.T) {
		ec := NewErrorCollection(10)
		ec.Add(NewRowError(1, "code", ErrCodeImportValidation, "err"))

		ec.Clear()

		assert.False(t, ec.HasErrors())
		assert.Equal(t, 0, ec.Count())
		assert.Equal(t, 0, ec.TotalCount())
	})
}

func TestErrorCollectionHelpers(t *testing.T) {
	tests := []struct {
		name            string
		add             func(ec *ErrorCollection)
		expectedCode    string
		expectedMessage string
		expectedValue   string
	}{
		{
			name:            "required field",
			add:             func(ec *ErrorCollection) { ec.AddRequiredError(1, "name") },
			expectedCode:    ErrCodeImportRequiredField,
			expectedMessage: "field 'name' is required",
		},
		{
			name:            "type mismatch",
			add:             func(ec *ErrorCollection) { ec.AddTypeError(2, "closing_day", "int", "abc") },
			expectedCode:    ErrCodeImportInvalidType,
			expectedMessage: "expected int",
			expectedValue:   "abc",
		},
		{
			name:            "bad format",
			add:             func(ec *ErrorCollection) { ec.AddFormatError(3, "email", "email@domain.com", "invalid") },
			expectedCode:    ErrCodeImportInvalidFormat,
			expectedMessage: "invalid format, expected email@domain.com",
			expectedValue:   "invalid",
		},
		{
			name:            "length with both bounds",
			add:             func(ec *ErrorCollection) { ec.AddLengthError(4, "code", 1, 50) },
			expectedCode:    ErrCodeImportInvalidLength,
			expectedMessage: "length must be between 1 and 50",
		},
		{
			name:            "length with max only",
			add:             func(ec *ErrorCollection) { ec.AddLengthError(4, "kana", 0, 100) },
			expectedCode:    ErrCodeImportInvalidLength,
			expectedMessage: "length must be at most 100",
		},
		{
			name:            "length with min only",
			add:             func(ec *ErrorCollection) { ec.AddLengthError(4, "code", 5, 0) },
			expectedCode:    ErrCodeImportInvalidLength,
			expectedMessage: "length must be at least 5",
		},
		{
			name:            "out of range",
			add:             func(ec *ErrorCollection) { ec.AddRangeError(5, "payment_day", 1, 31) },
			expectedCode:    ErrCodeImportInvalidRange,
			expectedMessage: "value must be between 1.00 and 31.00",
		},
		{
			name:            "pattern mismatch",
			add:             func(ec *ErrorCollection) { ec.AddPatternError(6, "phone", "phone number", "xyz") },
			expectedCode:    ErrCodeImportPatternMismatch,
			expectedMessage: "value does not match pattern 'phone number'",
			expectedValue:   "xyz",
		},
		{
			name:            "duplicate in database",
			add:             func(ec *ErrorCollection) { ec.AddDuplicateError(7, "code", "C-001") },
			expectedCode:    ErrCodeImportDuplicateInDB,
			expectedMessage: "value 'C-001' already exists",
			expectedValue:   "C-001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ec := NewErrorCollection(10)
			tt.add(ec)

			errs := ec.Errors()
			require.Len(t, errs, 1)
			assert.Equal(t, tt.expectedCode, errs[0].Code)
			assert.Equal(t, tt.expectedMessage, errs[0].Message)
			assert.Equal(t, tt.expectedValue, errs[0].Value)
		})
	}
}

func TestErrorCollectionSummary(t *testing.T) {
	ec := NewErrorCollection(10)
	ec.Add(NewRowError(1, "code", ErrCodeImportValidation, "err1"))
	ec.Add(NewRowError(2, "code", ErrCodeImportValidation, "err2"))
	ec.Add(NewRowError(3, "name", ErrCodeImportRequiredField, "err3"))

	summary := ec.ErrorSummary()
	assert.Equal(t, 2, summary[ErrCodeImportValidation])
	assert.Equal(t, 1, summary[ErrCodeImportRequiredField])

	s := ec.String()
	assert.Contains(t, s, "3 error(s) found")
	assert.Contains(t, s, "row 1, column 'code'")
	assert.Contains(t, s, "row 3, column 'name'")
}

func TestValidationResult(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		vr := NewValidationResult("test-id")

		assert.Equal(t, "test-id", vr.ValidationID)
		assert.Empty(t, vr.Errors)
		assert.Empty(t, vr.Preview)
		assert.True(t, vr.IsValid())
	})

	t.Run("counts drive validity", func(t *testing.T) {
		vr := NewValidationResult("test-id")

		vr.SetCounts(100, 100, 0)
		assert.True(t, vr.IsValid())

		vr.SetCounts(100, 95, 5)
		assert.False(t, vr.IsValid())
		assert.Equal(t, 100, vr.TotalRows)
		assert.Equal(t, 95, vr.ValidRows)
	})

	t.Run("preview is capped", func(t *testing.T) {
		vr := NewValidationResult("test-id")
		for i := 0; i < previewRowLimit*2; i++ {
			vr.AddPreview(map[string]any{"row": i})
		}

		assert.Len(t, vr.Preview, previewRowLimit)
	})

	t.Run("takes truncation state from the collection", func(t *testing.T) {
		ec := NewErrorCollection(5)
		for i := 0; i < 10; i++ {
			ec.Add(NewRowError(i, "code", ErrCodeImportValidation, "error"))
		}

		vr := NewValidationResult("test-id")
		vr.SetErrors(ec)

		assert.Len(t, vr.Errors, 5)
		assert.True(t, vr.IsTruncated)
		assert.Equal(t, 10, vr.TotalErrors)
	})
}

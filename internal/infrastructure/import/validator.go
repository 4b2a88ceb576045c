package csvimport

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldType represents the expected type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeInt     FieldType = "int"
	TypeDecimal FieldType = "decimal"
	TypeDate    FieldType = "date"
	TypeEmail   FieldType = "email"
	TypeBool    FieldType = "bool"
	TypeUUID    FieldType = "uuid"
)

// FieldRule defines the validation rules for a single CSV column.
type FieldRule struct {
	Column      string
	Type        FieldType
	Required    bool
	MinLength   int
	MaxLength   int
	MinValue    *decimal.Decimal
	MaxValue    *decimal.Decimal
	Pattern     *regexp.Regexp
	PatternDesc string
	DateFormat  string
	Unique      bool
	CustomFunc  func(value string) error
}

// FieldRuleBuilder builds field rules fluently. Import services declare
// their column rules as Field("code").Required().MaxLength(50).Build().
type FieldRuleBuilder struct {
	rule FieldRule
}

// Field starts a rule for the named column. The type defaults to string
// and dates to ISO 8601.
func Field(column string) *FieldRuleBuilder {
	return &FieldRuleBuilder{
		rule: FieldRule{
			Column:     column,
			Type:       TypeString,
			DateFormat: "2006-01-02",
		},
	}
}

func (b *FieldRuleBuilder) typed(t FieldType) *FieldRuleBuilder {
	b.rule.Type = t
	return b
}

func (b *FieldRuleBuilder) String() *FieldRuleBuilder  { return b.typed(TypeString) }
func (b *FieldRuleBuilder) Int() *FieldRuleBuilder     { return b.typed(TypeInt) }
func (b *FieldRuleBuilder) Decimal() *FieldRuleBuilder { return b.typed(TypeDecimal) }
func (b *FieldRuleBuilder) Date() *FieldRuleBuilder    { return b.typed(TypeDate) }
func (b *FieldRuleBuilder) Email() *FieldRuleBuilder   { return b.typed(TypeEmail) }
func (b *FieldRuleBuilder) Bool() *FieldRuleBuilder    { return b.typed(TypeBool) }
func (b *FieldRuleBuilder) UUID() *FieldRuleBuilder    { return b.typed(TypeUUID) }

// Required marks the field as required.
func (b *FieldRuleBuilder) Required() *FieldRuleBuilder {
	b.rule.Required = true
	return b
}

// DateFormat overrides the expected date layout.
func (b *FieldRuleBuilder) DateFormat(format string) *FieldRuleBuilder {
	b.rule.DateFormat = format
	return b
}

// MinLength sets the minimum length in runes.
func (b *FieldRuleBuilder) MinLength(n int) *FieldRuleBuilder {
	b.rule.MinLength = n
	return b
}

// MaxLength sets the maximum length in runes.
func (b *FieldRuleBuilder) MaxLength(n int) *FieldRuleBuilder {
	b.rule.MaxLength = n
	return b
}

// Length sets both length bounds.
func (b *FieldRuleBuilder) Length(min, max int) *FieldRuleBuilder {
	b.rule.MinLength = min
	b.rule.MaxLength = max
	return b
}

// MinValue sets the minimum numeric value.
func (b *FieldRuleBuilder) MinValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &v
	return b
}

// MaxValue sets the maximum numeric value.
func (b *FieldRuleBuilder) MaxValue(v decimal.Decimal) *FieldRuleBuilder {
	b.rule.MaxValue = &v
	return b
}

// Range sets both numeric bounds.
func (b *FieldRuleBuilder) Range(min, max decimal.Decimal) *FieldRuleBuilder {
	b.rule.MinValue = &min
	b.rule.MaxValue = &max
	return b
}

// Pattern sets a regex the value must match. The description is used in
// error messages shown to the person fixing the file.
func (b *FieldRuleBuilder) Pattern(pattern, description string) *FieldRuleBuilder {
	b.rule.Pattern = regexp.MustCompile(pattern)
	b.rule.PatternDesc = description
	return b
}

// Unique requires the value to be unique within the file.
func (b *FieldRuleBuilder) Unique() *FieldRuleBuilder {
	b.rule.Unique = true
	return b
}

// Custom attaches an arbitrary validation function.
func (b *FieldRuleBuilder) Custom(fn func(value string) error) *FieldRuleBuilder {
	b.rule.CustomFunc = fn
	return b
}

// Build returns the assembled rule.
func (b *FieldRuleBuilder) Build() FieldRule {
	return b.rule
}

// FieldValidator applies field rules row by row, accumulating errors up
// to the collection's cap.
type FieldValidator struct {
	rules       map[string]FieldRule
	uniqueCheck map[string]map[string]int // column -> value -> first row number
	errors      *ErrorCollection
}

// NewFieldValidator creates a validator for the given rules.
func NewFieldValidator(rules []FieldRule, maxErrors int) *FieldValidator {
	ruleMap := make(map[string]FieldRule, len(rules))
	for _, r := range rules {
		ruleMap[r.Column] = r
	}

	return &FieldValidator{
		rules:       ruleMap,
		uniqueCheck: make(map[string]map[string]int),
		errors:      NewErrorCollection(maxErrors),
	}
}

// ValidateRow checks every ruled column of the row and reports whether it
// passed. Errors are recorded in the validator's collection.
func (v *FieldValidator) ValidateRow(row *Row) bool {
	ok := true
	for column, rule := range v.rules {
		if !v.validateField(row, column, rule) {
			ok = false
		}
	}
	return ok
}

func (v *FieldValidator) validateField(row *Row, column string, rule FieldRule) bool {
	value := row.Get(column)

	if value == "" {
		if rule.Required {
			v.errors.AddRequiredError(row.LineNumber, column)
			return false
		}
		// Empty optional fields skip the remaining checks
		return true
	}

	if err := v.validateType(value, rule.Type, rule.DateFormat); err != nil {
		v.errors.AddTypeError(row.LineNumber, column, string(rule.Type), value)
		return false
	}

	ok := true

	// Length counts runes, not bytes, so Japanese names are measured
	// the same way single-byte text is
	length := utf8.RuneCountInString(value)
	if (rule.MaxLength > 0 && length > rule.MaxLength) ||
		(rule.MinLength > 0 && length < rule.MinLength) {
		v.errors.AddLengthError(row.LineNumber, column, rule.MinLength, rule.MaxLength)
		ok = false
	}

	if rule.Type == TypeInt || rule.Type == TypeDecimal {
		if err := v.validateRange(value, rule.MinValue, rule.MaxValue); err != nil {
			if rule.MinValue != nil && rule.MaxValue != nil {
				minFloat, _ := rule.MinValue.Float64()
				maxFloat, _ := rule.MaxValue.Float64()
				v.errors.AddRangeError(row.LineNumber, column, minFloat, maxFloat)
			}
			ok = false
		}
	}

	if rule.Pattern != nil && !rule.Pattern.MatchString(value) {
		v.errors.AddPatternError(row.LineNumber, column, rule.PatternDesc, value)
		ok = false
	}

	if rule.Unique && !v.checkUniqueInFile(row.LineNumber, column, value) {
		ok = false
	}

	if rule.CustomFunc != nil {
		if err := rule.CustomFunc(value); err != nil {
			v.errors.AddValidationError(row.LineNumber, column, ErrCodeImportValidation, err.Error())
			ok = false
		}
	}

	return ok
}

// checkUniqueInFile tracks values seen so far and flags repeats.
func (v *FieldValidator) checkUniqueInFile(line int, column, value string) bool {
	if v.uniqueCheck[column] == nil {
		v.uniqueCheck[column] = make(map[string]int)
	}
	if firstRow, exists := v.uniqueCheck[column][value]; exists {
		v.errors.Add(NewRowErrorWithValue(line, column, ErrCodeImportDuplicateInFile,
			fmt.Sprintf("duplicate value '%s' (first seen in row %d)", value, firstRow), value))
		return false
	}
	v.uniqueCheck[column][value] = line
	return true
}

func (v *FieldValidator) validateType(value string, fieldType FieldType, dateFormat string) error {
	switch fieldType {
	case TypeInt:
		_, err := strconv.ParseInt(value, 10, 64)
		return err
	case TypeDecimal:
		_, err := decimal.NewFromString(value)
		return err
	case TypeDate:
		_, err := time.Parse(dateFormat, value)
		return err
	case TypeEmail:
		_, err := mail.ParseAddress(value)
		return err
	case TypeBool:
		switch strings.ToLower(value) {
		case "true", "false", "1", "0", "yes", "no", "y", "n":
			return nil
		}
		return fmt.Errorf("invalid boolean value: %s", value)
	case TypeUUID:
		return validateUUID(value)
	}
	return nil
}

// validateUUID checks the canonical xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx form.
func validateUUID(s string) error {
	if len(s) != 36 {
		return fmt.Errorf("invalid UUID length")
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return fmt.Errorf("invalid UUID format")
	}
	for i, c := range s {
		if i == 8 || i == 13 || i == 18 || i == 23 {
			continue
		}
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return fmt.Errorf("invalid UUID character")
		}
	}
	return nil
}

func (v *FieldValidator) validateRange(value string, min, max *decimal.Decimal) error {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return err
	}

	if min != nil && d.LessThan(*min) {
		return fmt.Errorf("value %s is less than minimum %s", value, min.String())
	}
	if max != nil && d.GreaterThan(*max) {
		return fmt.Errorf("value %s is greater than maximum %s", value, max.String())
	}
	return nil
}

// Errors returns the accumulated errors.
func (v *FieldValidator) Errors() *ErrorCollection {
	return v.errors
}

// Reset clears the validator state for reuse.
func (v *FieldValidator) Reset() {
	v.uniqueCheck = make(map[string]map[string]int)
	v.errors.Clear()
}

// UniquenessValidator validates uniqueness constraints against the
// database. The scope qualifies the lookup, e.g. the party type when
// checking party codes. Lookups are cached per scope so the same value
// is only checked once per import run.
type UniquenessValidator struct {
	cache      map[string]map[string]bool // scope -> value -> exists
	lookupFunc func(scope, field, value string) (bool, error)
	errors     *ErrorCollection
}

// NewUniquenessValidator creates a validator backed by the given lookup.
func NewUniquenessValidator(lookupFunc func(scope, field, value string) (bool, error), maxErrors int) *UniquenessValidator {
	return &UniquenessValidator{
		cache:      make(map[string]map[string]bool),
		lookupFunc: lookupFunc,
		errors:     NewErrorCollection(maxErrors),
	}
}

// ValidateUnique reports whether the value is absent from the database.
// Empty values pass; lookup failures are recorded as validation errors.
func (v *UniquenessValidator) ValidateUnique(row int, column, scope, value string) bool {
	if value == "" {
		return true
	}

	exists, ok := v.cache[scope][value]
	if !ok {
		var err error
		exists, err = v.lookupFunc(scope, column, value)
		if err != nil {
			v.errors.AddValidationError(row, column, ErrCodeImportValidation,
				fmt.Sprintf("error checking uniqueness: %v", err))
			return false
		}
		if v.cache[scope] == nil {
			v.cache[scope] = make(map[string]bool)
		}
		v.cache[scope][value] = exists
	}

	if exists {
		v.errors.AddDuplicateError(row, column, value)
		return false
	}

	return true
}

// Errors returns the accumulated errors.
func (v *UniquenessValidator) Errors() *ErrorCollection {
	return v.errors
}

// Reset clears the lookup cache for reuse.
func (v *UniquenessValidator) Reset() {
	v.cache = make(map[string]map[string]bool)
	v.errors.Clear()
}

package partner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/backoffice/backend/internal/domain/audit"
	"github.com/backoffice/backend/internal/domain/partner"
	"github.com/backoffice/backend/internal/domain/shared"
	csvimport "github.com/backoffice/backend/internal/infrastructure/import"
	"github.com/google/uuid"
)

// maxImportErrors caps the number of row errors collected before the
// rest of the file is skipped.
const maxImportErrors = 100

// maxImportFileSize caps uploads at 5MB
const maxImportFileSize = 5 << 20

// PartyImportService imports customers and suppliers from CSV files.
// Each row is created through the regular party service so history and
// domain validation apply exactly as they do for manual entry.
type PartyImportService struct {
	partyService *PartyService
	partyRepo    partner.PartyRepository
}

// NewPartyImportService creates a new party import service
func NewPartyImportService(partyService *PartyService, partyRepo partner.PartyRepository) *PartyImportService {
	return &PartyImportService{partyService: partyService, partyRepo: partyRepo}
}

// PartyImportResult summarizes an import run
type PartyImportResult struct {
	Total    int                  `json:"total"`
	Imported int                  `json:"imported"`
	Failed   int                  `json:"failed"`
	Errors   []csvimport.RowError `json:"errors,omitempty"`
}

// requiredPartyHeaders are the columns every import file must carry
var requiredPartyHeaders = []string{"type", "code", "name"}

// partyImportRules defines validation for the party CSV layout
func partyImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("type").Required().Custom(func(value string) error {
			if !partner.PartyType(value).IsValid() {
				return fmt.Errorf("type must be customer or supplier, got %q", value)
			}
			return nil
		}).Build(),
		csvimport.Field("code").Required().MaxLength(50).Build(),
		csvimport.Field("name").Required().MaxLength(200).Build(),
		csvimport.Field("kana").MaxLength(200).Build(),
		csvimport.Field("postal_code").MaxLength(10).Build(),
		csvimport.Field("phone").MaxLength(50).Build(),
		csvimport.Field("fax").MaxLength(50).Build(),
		csvimport.Field("email").Email().Build(),
		csvimport.Field("closing_day").Int().Build(),
		csvimport.Field("payment_month_offset").Int().Build(),
		csvimport.Field("payment_day").Int().Build(),
	}
}

// ImportCSV parses and imports a party CSV file. Rows that fail
// validation or creation are reported per row; valid rows are still
// imported. A file-level problem (bad encoding, missing headers)
// aborts the whole import.
func (s *PartyImportService) ImportCSV(ctx context.Context, data []byte, actor audit.Actor) (*PartyImportResult, error) {
	parser, err := s.openImportFile(data)
	if err != nil {
		return nil, err
	}

	validator := csvimport.NewFieldValidator(partyImportRules(), maxImportErrors)
	result := &PartyImportResult{}

	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors,
				csvimport.NewRowError(parser.CurrentRow(), "", csvimport.ErrCodeImportMalformedRow, err.Error()))
			continue
		}
		if row.IsEmpty() {
			continue
		}

		result.Total++

		if !validator.ValidateRow(row) {
			result.Failed++
			continue
		}

		req := rowToCreateRequest(row)
		if _, err := s.partyService.Create(ctx, req, actor); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, rowErrorFromCreate(row, err))
			continue
		}
		result.Imported++
	}

	result.Errors = append(result.Errors, validator.Errors().Errors()...)
	return result, nil
}

// ValidateCSV runs a dry run over a party CSV file. Nothing is created;
// the result reports per-row errors, duplicate codes already in the
// database, and a preview of the first rows.
func (s *PartyImportService) ValidateCSV(ctx context.Context, data []byte) (*csvimport.ValidationResult, error) {
	parser, err := s.openImportFile(data)
	if err != nil {
		return nil, err
	}

	validator := csvimport.NewFieldValidator(partyImportRules(), maxImportErrors)
	uniqueness := csvimport.NewUniquenessValidator(func(scope, _, value string) (bool, error) {
		return s.partyRepo.ExistsByCode(ctx, partner.PartyType(scope), value)
	}, maxImportErrors)

	result := csvimport.NewValidationResult(uuid.NewString())
	total, valid := 0, 0

	for {
		row, err := parser.ReadRow()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			total++
			validator.Errors().Add(
				csvimport.NewRowError(parser.CurrentRow(), "", csvimport.ErrCodeImportMalformedRow, err.Error()))
			continue
		}
		if row.IsEmpty() {
			continue
		}

		total++

		ok := validator.ValidateRow(row)
		if ok {
			ok = uniqueness.ValidateUnique(row.LineNumber, "code", row.Get("type"), row.Get("code"))
		}
		if !ok {
			continue
		}

		valid++
		result.AddPreview(map[string]any{
			"type": row.Get("type"),
			"code": row.Get("code"),
			"name": row.Get("name"),
		})
	}

	if total == 0 {
		return nil, shared.NewDomainError("INVALID_FILE", csvimport.ErrNoDataRows.Error())
	}

	for _, rowErr := range uniqueness.Errors().Errors() {
		validator.Errors().Add(rowErr)
	}

	result.SetCounts(total, valid, total-valid)
	result.SetErrors(validator.Errors())
	return result, nil
}

// openImportFile checks the upload size and parses the header row,
// mapping file-level problems onto domain errors
func (s *PartyImportService) openImportFile(data []byte) (*csvimport.CSVParser, error) {
	if len(data) > maxImportFileSize {
		return nil, shared.NewDomainError("INVALID_FILE", csvimport.ErrFileTooLarge.Error())
	}

	parser, err := csvimport.ParseFromBytes(data)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}

	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_FILE", err.Error())
	}

	if missing := parser.ValidateHeaders(requiredPartyHeaders); len(missing) > 0 {
		return nil, shared.NewDomainError("MISSING_HEADERS",
			fmt.Sprintf("CSV file is missing required columns: %s", strings.Join(missing, ", ")))
	}

	return parser, nil
}

// rowToCreateRequest maps a validated CSV row onto a create request
func rowToCreateRequest(row *csvimport.Row) CreatePartyRequest {
	req := CreatePartyRequest{
		Type:       row.Get("type"),
		Code:       row.Get("code"),
		Name:       row.Get("name"),
		Kana:       row.Get("kana"),
		PostalCode: row.Get("postal_code"),
		Address:    row.Get("address"),
		Phone:      row.Get("phone"),
		Fax:        row.Get("fax"),
		Email:      row.Get("email"),
		Notes:      row.Get("notes"),
	}
	if v, err := strconv.Atoi(row.Get("closing_day")); err == nil {
		req.ClosingDay = &v
	}
	if v, err := strconv.Atoi(row.Get("payment_month_offset")); err == nil {
		req.PaymentMonthOffset = &v
	}
	if v, err := strconv.Atoi(row.Get("payment_day")); err == nil {
		req.PaymentDay = &v
	}
	return req
}

// rowErrorFromCreate turns a creation failure into a row error,
// keeping the domain error code when one is present
func rowErrorFromCreate(row *csvimport.Row, err error) csvimport.RowError {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return csvimport.NewRowErrorWithValue(row.LineNumber, "code", domainErr.Code, domainErr.Message, row.Get("code"))
	}
	return csvimport.NewRowError(row.LineNumber, "", csvimport.ErrCodeImportUnknown, err.Error())
}

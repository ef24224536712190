package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var dealImportHeader = []string{"customer_name", "deal_value", "deal_type", "user_email", "region", "description"}
var userImportHeader = []string{"name", "email", "region", "category", "subcategory"}

type UploadURLRequest struct {
	Filename string `json:"filename" binding:"required"`
}

type ImportRequest struct {
	ObjectKey string `json:"object_key" binding:"required"`
}

// ImportResult reports per-row outcomes. Bad rows are skipped; good rows are
// kept, so a partially valid file still imports.
type ImportResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors"`
}

type CSVImportService interface {
	UploadURL(ctx context.Context, filename string) (*UploadURLResponse, error)
	ImportDeals(ctx context.Context, actor AuthContext, objectKey string) (*ImportResult, error)
	ImportUsers(ctx context.Context, actor AuthContext, objectKey string) (*ImportResult, error)
}

type csvImportService struct {
	store     storage.ObjectStore
	dealRepo  repository.DealRepository
	userRepo  repository.UserRepository
	auditRepo repository.AuditRepository
}

func NewCSVImportService(
	store storage.ObjectStore,
	dealRepo repository.DealRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
) CSVImportService {
	return &csvImportService{
		store:     store,
		dealRepo:  dealRepo,
		userRepo:  userRepo,
		auditRepo: auditRepo,
	}
}

func (s *csvImportService) UploadURL(ctx context.Context, filename string) (*UploadURLResponse, error) {
	if filename == "" {
		return nil, errors.New("filename is required")
	}
	key := "imports/" + uuid.NewString() + "-" + path.Base(filename)
	url, err := s.store.PresignUpload(ctx, key, uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &UploadURLResponse{UploadURL: url, ObjectKey: key}, nil
}

// readImportFile fetches the object and verifies the expected header line.
func (s *csvImportService) readImportFile(ctx context.Context, objectKey string, expectedHeader []string) (*csv.Reader, error) {
	data, err := s.store.Download(ctx, objectKey)
	if err != nil {
		return nil, fmt.Errorf("failed to download import file: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	if err != nil {
		return nil, errors.New("import file is empty or not valid CSV")
	}
	if len(header) != len(expectedHeader) {
		return nil, fmt.Errorf("unexpected CSV header: want %s", strings.Join(expectedHeader, ","))
	}
	for i, col := range header {
		if !strings.EqualFold(strings.TrimSpace(col), expectedHeader[i]) {
			return nil, fmt.Errorf("unexpected CSV header: want %s", strings.Join(expectedHeader, ","))
		}
	}
	return reader, nil
}

func (s *csvImportService) ImportDeals(ctx context.Context, actor AuthContext, objectKey string) (*ImportResult, error) {
	reader, err := s.readImportFile(ctx, objectKey, dealImportHeader)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	rowNum := 1 // header was row 1
	for {
		rowNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if rowErr := s.importDealRow(ctx, record); rowErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, rowErr))
			continue
		}
		result.Imported++
	}

	s.recordImportAudit(ctx, actor, model.ActionImportDeals, objectKey, result)
	return result, nil
}

func (s *csvImportService) importDealRow(ctx context.Context, record []string) error {
	customerName := strings.TrimSpace(record[0])
	valueStr := strings.TrimSpace(record[1])
	dealType := strings.TrimSpace(record[2])
	userEmail := strings.TrimSpace(record[3])
	region := strings.TrimSpace(record[4])
	description := strings.TrimSpace(record[5])

	if customerName == "" {
		return errors.New("customer_name is required")
	}
	dealValue, err := decimal.NewFromString(valueStr)
	if err != nil {
		return fmt.Errorf("invalid deal_value %q", valueStr)
	}
	if dealValue.LessThanOrEqual(decimal.Zero) {
		return errors.New("deal_value must be greater than zero")
	}
	if dealType != model.DealTypeNewCustomer && dealType != model.DealTypeRenewal {
		return fmt.Errorf("invalid deal_type %q", dealType)
	}
	if !validRegions[region] {
		return fmt.Errorf("invalid region %q", region)
	}

	user, err := s.userRepo.GetByEmailAndRegion(ctx, userEmail, region)
	if err != nil {
		return fmt.Errorf("no user %q registered in %s", userEmail, region)
	}

	deal := &model.Deal{
		UserID:       user.ID,
		Region:       user.Region,
		CustomerName: customerName,
		Description:  description,
		DealValue:    dealValue,
		DealType:     dealType,
		Status:       model.DealStatusPending,
		GoalsEarned:  decimal.Zero,
		PointsEarned: decimal.Zero,
	}
	if err := s.dealRepo.Create(ctx, deal); err != nil {
		return fmt.Errorf("failed to create deal: %v", err)
	}
	return nil
}

func (s *csvImportService) ImportUsers(ctx context.Context, actor AuthContext, objectKey string) (*ImportResult, error) {
	reader, err := s.readImportFile(ctx, objectKey, userImportHeader)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []string{}}
	rowNum := 1
	for {
		rowNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, err))
			continue
		}

		if rowErr := s.importUserRow(ctx, record); rowErr != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", rowNum, rowErr))
			continue
		}
		result.Imported++
	}

	s.recordImportAudit(ctx, actor, model.ActionImportUsers, objectKey, result)
	return result, nil
}

func (s *csvImportService) importUserRow(ctx context.Context, record []string) error {
	name := strings.TrimSpace(record[0])
	email := strings.ToLower(strings.TrimSpace(record[1]))
	region := strings.TrimSpace(record[2])
	category := strings.TrimSpace(record[3])
	subcategory := strings.TrimSpace(record[4])

	if name == "" {
		return errors.New("name is required")
	}
	if email == "" {
		return errors.New("email is required")
	}
	if !validRegions[region] {
		return fmt.Errorf("invalid region %q", region)
	}

	if _, err := s.userRepo.GetByEmailAndRegion(ctx, email, region); err == nil {
		return fmt.Errorf("%q is already registered in %s", email, region)
	}

	user := &model.User{
		Name:        name,
		Email:       email,
		Role:        model.RoleUser,
		Region:      region,
		Category:    category,
		Subcategory: subcategory,
		Approved:    true, // bulk-imported accounts skip the review queue
		Active:      true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}
	return nil
}

// recordImportAudit is best-effort: a failed audit write never fails the import.
func (s *csvImportService) recordImportAudit(ctx context.Context, actor AuthContext, action, objectKey string, result *ImportResult) {
	details, _ := json.Marshal(map[string]interface{}{
		"object_key": objectKey,
		"imported":   result.Imported,
		"failed":     result.Failed,
	})
	audit := &model.AuditLog{
		UserID:   &actor.UserID,
		Action:   action,
		EntityID: objectKey,
		Details:  string(details),
	}
	if err := s.auditRepo.Log(ctx, audit); err != nil {
		log.Println("WARNING: failed to record import audit:", err)
	}
}

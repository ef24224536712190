package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateCategoryMasterRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryMasterRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

type CreateRegionCategoryRequest struct {
	Region       string `json:"region" binding:"required,oneof=NOLA SOLA MEXICO BRAZIL"`
	CategoryName string `json:"category_name" binding:"required"`
}

type UpdateRegionCategoryRequest struct {
	Region       *string `json:"region"`
	CategoryName *string `json:"category_name"`
}

type CreatePrizeTemplateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

type UpdatePrizeTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	ImageURL    *string `json:"image_url"`
}

type CreateProductTypeRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateProductTypeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// --- Interface ---

// MasterDataService owns the four global lookup tables. Deactivating or
// deleting an entry never cascades: RegionConfigs and Users that copied a
// category name keep the stale string.
type MasterDataService interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]model.CategoryMaster, error)
	CreateCategory(ctx context.Context, req CreateCategoryMasterRequest) (*model.CategoryMaster, error)
	UpdateCategory(ctx context.Context, id string, req UpdateCategoryMasterRequest) (*model.CategoryMaster, error)
	DeleteCategory(ctx context.Context, id string) error
	ToggleCategory(ctx context.Context, id string) (*model.CategoryMaster, error)

	ListRegionCategories(ctx context.Context, region string, activeOnly bool) ([]model.RegionCategory, error)
	CreateRegionCategory(ctx context.Context, req CreateRegionCategoryRequest) (*model.RegionCategory, error)
	UpdateRegionCategory(ctx context.Context, id string, req UpdateRegionCategoryRequest) (*model.RegionCategory, error)
	DeleteRegionCategory(ctx context.Context, id string) error
	ToggleRegionCategory(ctx context.Context, id string) (*model.RegionCategory, error)

	ListPrizeTemplates(ctx context.Context, activeOnly bool) ([]model.PrizeTemplate, error)
	CreatePrizeTemplate(ctx context.Context, req CreatePrizeTemplateRequest) (*model.PrizeTemplate, error)
	UpdatePrizeTemplate(ctx context.Context, id string, req UpdatePrizeTemplateRequest) (*model.PrizeTemplate, error)
	DeletePrizeTemplate(ctx context.Context, id string) error
	TogglePrizeTemplate(ctx context.Context, id string) (*model.PrizeTemplate, error)

	ListProductTypes(ctx context.Context, activeOnly bool) ([]model.ProductType, error)
	CreateProductType(ctx context.Context, req CreateProductTypeRequest) (*model.ProductType, error)
	UpdateProductType(ctx context.Context, id string, req UpdateProductTypeRequest) (*model.ProductType, error)
	DeleteProductType(ctx context.Context, id string) error
	ToggleProductType(ctx context.Context, id string) (*model.ProductType, error)
}

type masterDataService struct {
	db *gorm.DB
}

func NewMasterDataService(db *gorm.DB) MasterDataService {
	return &masterDataService{db: db}
}

// --- Categories ---

func (s *masterDataService) ListCategories(ctx context.Context, activeOnly bool) ([]model.CategoryMaster, error) {
	var categories []model.CategoryMaster
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}
	return categories, nil
}

func (s *masterDataService) CreateCategory(ctx context.Context, req CreateCategoryMasterRequest) (*model.CategoryMaster, error) {
	var existing model.CategoryMaster
	err := s.db.WithContext(ctx).First(&existing, "name = ?", req.Name).Error
	if err == nil {
		return nil, fmt.Errorf("category '%s' already exists", req.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing category: %w", err)
	}

	category := model.CategoryMaster{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

func (s *masterDataService) UpdateCategory(ctx context.Context, id string, req UpdateCategoryMasterRequest) (*model.CategoryMaster, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid category ID")
	}

	var category model.CategoryMaster
	if err := s.db.WithContext(ctx).First(&category, "id = ?", categoryID).Error; err != nil {
		return nil, errors.New("category not found")
	}

	if req.Name != nil && *req.Name != category.Name {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		var existing model.CategoryMaster
		err := s.db.WithContext(ctx).First(&existing, "name = ?", *req.Name).Error
		if err == nil {
			return nil, fmt.Errorf("category '%s' already exists", *req.Name)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check existing category: %w", err)
		}
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}

	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return &category, nil
}

func (s *masterDataService) DeleteCategory(ctx context.Context, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid category ID")
	}
	var category model.CategoryMaster
	if err := s.db.WithContext(ctx).First(&category, "id = ?", categoryID).Error; err != nil {
		return errors.New("category not found")
	}
	if err := s.db.WithContext(ctx).Delete(&category).Error; err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return nil
}

func (s *masterDataService) ToggleCategory(ctx context.Context, id string) (*model.CategoryMaster, error) {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid category ID")
	}
	var category model.CategoryMaster
	if err := s.db.WithContext(ctx).First(&category, "id = ?", categoryID).Error; err != nil {
		return nil, errors.New("category not found")
	}
	category.Active = !category.Active
	if err := s.db.WithContext(ctx).Save(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle category: %w", err)
	}
	return &category, nil
}

// --- Region categories ---

func (s *masterDataService) ListRegionCategories(ctx context.Context, region string, activeOnly bool) ([]model.RegionCategory, error) {
	var entries []model.RegionCategory
	query := s.db.WithContext(ctx).Order("region ASC, category_name ASC")
	if region != "" {
		query = query.Where("region = ?", region)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch region categories: %w", err)
	}
	return entries, nil
}

func (s *masterDataService) CreateRegionCategory(ctx context.Context, req CreateRegionCategoryRequest) (*model.RegionCategory, error) {
	if !validRegions[req.Region] {
		return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
	}

	var existing model.RegionCategory
	err := s.db.WithContext(ctx).
		First(&existing, "region = ? AND category_name = ?", req.Region, req.CategoryName).Error
	if err == nil {
		return nil, fmt.Errorf("category '%s' is already mapped to %s", req.CategoryName, req.Region)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing mapping: %w", err)
	}

	entry := model.RegionCategory{
		Region:       req.Region,
		CategoryName: req.CategoryName,
		Active:       true,
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create region category: %w", err)
	}
	return &entry, nil
}

func (s *masterDataService) UpdateRegionCategory(ctx context.Context, id string, req UpdateRegionCategoryRequest) (*model.RegionCategory, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid region category ID")
	}

	var entry model.RegionCategory
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		return nil, errors.New("region category not found")
	}

	region := entry.Region
	categoryName := entry.CategoryName
	if req.Region != nil {
		if !validRegions[*req.Region] {
			return nil, errors.New("invalid region: must be NOLA, SOLA, MEXICO or BRAZIL")
		}
		region = *req.Region
	}
	if req.CategoryName != nil {
		if *req.CategoryName == "" {
			return nil, errors.New("category_name cannot be empty")
		}
		categoryName = *req.CategoryName
	}

	if region != entry.Region || categoryName != entry.CategoryName {
		var existing model.RegionCategory
		err := s.db.WithContext(ctx).
			First(&existing, "region = ? AND category_name = ?", region, categoryName).Error
		if err == nil && existing.ID != entry.ID {
			return nil, fmt.Errorf("category '%s' is already mapped to %s", categoryName, region)
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check existing mapping: %w", err)
		}
	}

	entry.Region = region
	entry.CategoryName = categoryName
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to update region category: %w", err)
	}
	return &entry, nil
}

func (s *masterDataService) DeleteRegionCategory(ctx context.Context, id string) error {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid region category ID")
	}
	var entry model.RegionCategory
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		return errors.New("region category not found")
	}
	if err := s.db.WithContext(ctx).Delete(&entry).Error; err != nil {
		return fmt.Errorf("failed to delete region category: %w", err)
	}
	return nil
}

func (s *masterDataService) ToggleRegionCategory(ctx context.Context, id string) (*model.RegionCategory, error) {
	entryID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid region category ID")
	}
	var entry model.RegionCategory
	if err := s.db.WithContext(ctx).First(&entry, "id = ?", entryID).Error; err != nil {
		return nil, errors.New("region category not found")
	}
	entry.Active = !entry.Active
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle region category: %w", err)
	}
	return &entry, nil
}

// --- Prize templates ---

func (s *masterDataService) ListPrizeTemplates(ctx context.Context, activeOnly bool) ([]model.PrizeTemplate, error) {
	var templates []model.PrizeTemplate
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch prize templates: %w", err)
	}
	return templates, nil
}

func (s *masterDataService) CreatePrizeTemplate(ctx context.Context, req CreatePrizeTemplateRequest) (*model.PrizeTemplate, error) {
	template := model.PrizeTemplate{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if err := s.db.WithContext(ctx).Create(&template).Error; err != nil {
		return nil, fmt.Errorf("failed to create prize template: %w", err)
	}
	return &template, nil
}

func (s *masterDataService) UpdatePrizeTemplate(ctx context.Context, id string, req UpdatePrizeTemplateRequest) (*model.PrizeTemplate, error) {
	templateID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid prize template ID")
	}

	var template model.PrizeTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error; err != nil {
		return nil, errors.New("prize template not found")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.ImageURL != nil {
		template.ImageURL = *req.ImageURL
	}

	if err := s.db.WithContext(ctx).Save(&template).Error; err != nil {
		return nil, fmt.Errorf("failed to update prize template: %w", err)
	}
	return &template, nil
}

func (s *masterDataService) DeletePrizeTemplate(ctx context.Context, id string) error {
	templateID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid prize template ID")
	}
	var template model.PrizeTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error; err != nil {
		return errors.New("prize template not found")
	}
	if err := s.db.WithContext(ctx).Delete(&template).Error; err != nil {
		return fmt.Errorf("failed to delete prize template: %w", err)
	}
	return nil
}

func (s *masterDataService) TogglePrizeTemplate(ctx context.Context, id string) (*model.PrizeTemplate, error) {
	templateID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid prize template ID")
	}
	var template model.PrizeTemplate
	if err := s.db.WithContext(ctx).First(&template, "id = ?", templateID).Error; err != nil {
		return nil, errors.New("prize template not found")
	}
	template.Active = !template.Active
	if err := s.db.WithContext(ctx).Save(&template).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle prize template: %w", err)
	}
	return &template, nil
}

// --- Product types ---

func (s *masterDataService) ListProductTypes(ctx context.Context, activeOnly bool) ([]model.ProductType, error) {
	var types []model.ProductType
	query := s.db.WithContext(ctx).Order("name ASC")
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	if err := query.Find(&types).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch product types: %w", err)
	}
	return types, nil
}

func (s *masterDataService) CreateProductType(ctx context.Context, req CreateProductTypeRequest) (*model.ProductType, error) {
	var existing model.ProductType
	err := s.db.WithContext(ctx).First(&existing, "name = ?", req.Name).Error
	if err == nil {
		return nil, fmt.Errorf("product type '%s' already exists", req.Name)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing product type: %w", err)
	}

	productType := model.ProductType{
		Name:        req.Name,
		Description: req.Description,
		Active:      true,
	}
	if err := s.db.WithContext(ctx).Create(&productType).Error; err != nil {
		return nil, fmt.Errorf("failed to create product type: %w", err)
	}
	return &productType, nil
}

func (s *masterDataService) UpdateProductType(ctx context.Context, id string, req UpdateProductTypeRequest) (*model.ProductType, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid product type ID")
	}

	var productType model.ProductType
	if err := s.db.WithContext(ctx).First(&productType, "id = ?", typeID).Error; err != nil {
		return nil, errors.New("product type not found")
	}

	if req.Name != nil && *req.Name != productType.Name {
		if *req.Name == "" {
			return nil, errors.New("name cannot be empty")
		}
		var existing model.ProductType
		err := s.db.WithContext(ctx).First(&existing, "name = ?", *req.Name).Error
		if err == nil {
			return nil, fmt.Errorf("product type '%s' already exists", *req.Name)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to check existing product type: %w", err)
		}
		productType.Name = *req.Name
	}
	if req.Description != nil {
		productType.Description = *req.Description
	}

	if err := s.db.WithContext(ctx).Save(&productType).Error; err != nil {
		return nil, fmt.Errorf("failed to update product type: %w", err)
	}
	return &productType, nil
}

func (s *masterDataService) DeleteProductType(ctx context.Context, id string) error {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return errors.New("invalid product type ID")
	}
	var productType model.ProductType
	if err := s.db.WithContext(ctx).First(&productType, "id = ?", typeID).Error; err != nil {
		return errors.New("product type not found")
	}
	if err := s.db.WithContext(ctx).Delete(&productType).Error; err != nil {
		return fmt.Errorf("failed to delete product type: %w", err)
	}
	return nil
}

func (s *masterDataService) ToggleProductType(ctx context.Context, id string) (*model.ProductType, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.New("invalid product type ID")
	}
	var productType model.ProductType
	if err := s.db.WithContext(ctx).First(&productType, "id = ?", typeID).Error; err != nil {
		return nil, errors.New("product type not found")
	}
	productType.Active = !productType.Active
	if err := s.db.WithContext(ctx).Save(&productType).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle product type: %w", err)
	}
	return &productType, nil
}

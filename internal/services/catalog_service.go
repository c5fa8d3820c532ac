package services

import (
	"aashop/internal/models"
	"aashop/internal/repositories"
)

// CatalogService handles business logic for categories and products.
type CatalogService struct {
	productRepo  repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(productRepo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *CatalogService {
	return &CatalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
	}
}

// GetAllProducts retrieves all products.
func (s *CatalogService) GetAllProducts() ([]models.Product, error) {
	return s.productRepo.GetAll()
}

// GetProductByID retrieves a single product by its ID.
func (s *CatalogService) GetProductByID(id string) (*models.Product, error) {
	return s.productRepo.GetByID(id)
}

// CreateProduct creates a new product after checking its category exists.
func (s *CatalogService) CreateProduct(product *models.Product) error {
	if product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
			return err
		}
	}
	return s.productRepo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *CatalogService) UpdateProduct(product *models.Product) error {
	return s.productRepo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *CatalogService) DeleteProduct(id string) error {
	return s.productRepo.Delete(id)
}

// GetAllCategories retrieves all categories.
func (s *CatalogService) GetAllCategories() ([]models.Category, error) {
	return s.categoryRepo.GetAll()
}

// GetCategoryByID retrieves a single category by its ID.
func (s *CatalogService) GetCategoryByID(id string) (*models.Category, error) {
	return s.categoryRepo.GetByID(id)
}

// CreateCategory creates a new category.
func (s *CatalogService) CreateCategory(category *models.Category) error {
	return s.categoryRepo.Create(category)
}

// UpdateCategory updates an existing category.
func (s *CatalogService) UpdateCategory(category *models.Category) error {
	return s.categoryRepo.Update(category)
}

// DeleteCategory deletes a category by its ID.
func (s *CatalogService) DeleteCategory(id string) error {
	return s.categoryRepo.Delete(id)
}

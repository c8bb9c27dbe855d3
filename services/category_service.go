package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/unidecode"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"inflection-rewards/models"
)

type CategoryService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewCategoryService(db *gorm.DB, log *logrus.Entry) *CategoryService {
	return &CategoryService{DB: db, log: log}
}

type CreateCategoryInput struct {
	Name string `json:"name" validate:"required,max=60"`
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := s.DB.WithContext(ctx).Order("name ASC, id ASC").Find(&categories).Error
	return categories, err
}

// Create adds a category. "Café", "cafe" and "CAFE" are the same category.
func (s *CategoryService) Create(ctx context.Context, in CreateCategoryInput) (*models.Category, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	category := models.Category{Name: name, NameKey: foldName(name)}
	if err := s.DB.WithContext(ctx).Create(&category).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: category %q already exists", ErrConflict, name)
		}
		return nil, err
	}

	s.log.WithField("category", name).Info("[CATEGORIES] category created")
	return &category, nil
}

func foldName(name string) string {
	return cases.Fold().String(unidecode.Unidecode(name))
}

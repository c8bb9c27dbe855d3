// services/upload_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"inflection-rewards/models"
	"inflection-rewards/utils"
)

var (
	ErrStorageUnavailable = errors.New("file storage is not configured")
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedMedia   = errors.New("unsupported file type")
)

type ResourceType string

const (
	ResourceAppBanner   ResourceType = "appbanner"
	ResourceAppLogo     ResourceType = "applogo"
	ResourceUserProfile ResourceType = "userprofile"
	ResourceUserBanner  ResourceType = "userbanner"
)

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

type UploadInput struct {
	ResourceType string `form:"resource_type" validate:"required,oneof=appbanner applogo userprofile userbanner"`
	ResourceID   string `form:"resource_id" validate:"required,uuid"`
}

type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"url"`
}

type UploadService struct {
	DB       *gorm.DB
	Store    utils.ObjectStore
	MaxBytes int64
	log      *logrus.Entry
}

func NewUploadService(db *gorm.DB, store utils.ObjectStore, maxBytes int64, log *logrus.Entry) *UploadService {
	return &UploadService{DB: db, Store: store, MaxBytes: maxBytes, log: log}
}

// Upload stores the file and writes its public URL onto the resource it
// belongs to. App resources need ownership; user resources must be the caller.
func (s *UploadService) Upload(ctx context.Context, userID string, in UploadInput, file *multipart.FileHeader) (*UploadResult, error) {
	if s.Store == nil {
		return nil, ErrStorageUnavailable
	}
	if file == nil {
		return nil, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if s.MaxBytes > 0 && file.Size > s.MaxBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.MaxBytes)
	}

	contentType, _, err := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if err != nil || !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMedia, file.Header.Get("Content-Type"))
	}

	db := s.DB.WithContext(ctx)
	resource := ResourceType(in.ResourceType)
	if err := s.authorize(db, resource, in.ResourceID, userID); err != nil {
		return nil, err
	}

	body, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer body.Close()

	key := utils.ObjectKey(file.Filename)
	url, err := s.Store.Put(ctx, utils.Object{
		Key:         key,
		Body:        body,
		Size:        file.Size,
		ContentType: contentType,
		Metadata: map[string]string{
			"resource-type": in.ResourceType,
			"resource-id":   in.ResourceID,
			"uploaded-by":   userID,
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.writeBack(db, resource, in.ResourceID, url); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"key": key, "resource_type": resource, "resource_id": in.ResourceID}).Info("[UPLOAD] file stored")
	return &UploadResult{Key: key, PublicURL: url}, nil
}

func (s *UploadService) authorize(db *gorm.DB, resource ResourceType, resourceID, userID string) error {
	switch resource {
	case ResourceAppBanner, ResourceAppLogo:
		_, err := requireAppOwner(db, resourceID, userID)
		return err
	case ResourceUserProfile, ResourceUserBanner:
		if resourceID != userID {
			return ErrForbidden
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown resource type %q", ErrInvalidInput, resource)
	}
}

func (s *UploadService) writeBack(db *gorm.DB, resource ResourceType, resourceID, url string) error {
	switch resource {
	case ResourceAppLogo:
		return db.Model(&models.PartnerApplication{ID: resourceID}).Update("app_logo", url).Error
	case ResourceAppBanner:
		return db.Model(&models.PartnerApplication{ID: resourceID}).Update("banner_image", url).Error
	case ResourceUserProfile:
		return db.Model(&models.User{ID: resourceID}).Update("profile_image_url", url).Error
	case ResourceUserBanner:
		return db.Model(&models.User{ID: resourceID}).Update("banner_image_url", url).Error
	}
	return nil
}

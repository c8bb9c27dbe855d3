// services/user_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inflection-rewards/models"
)

type UserService struct {
	DB  *gorm.DB
	log *logrus.Entry
}

func NewUserService(db *gorm.DB, log *logrus.Entry) *UserService {
	return &UserService{DB: db, log: log}
}

type LoginInput struct {
	Name          string  `json:"name" validate:"omitempty,max=120"`
	Phone         string  `json:"phone" validate:"required,max=32"`
	Email         *string `json:"email" validate:"omitempty,email"`
	WalletAddress *string `json:"wallet_address"`
}

type UpdateUserInput struct {
	Name          *string `json:"name" validate:"omitempty,max=120"`
	Phone         *string `json:"phone" validate:"omitnil,min=1,max=32"`
	Email         *string `json:"email" validate:"omitempty,email"`
	WalletAddress *string `json:"wallet_address"`
}

// Login creates the user for an identity-provider id on first sight and
// returns the stored row. Later logins never overwrite profile fields.
func (s *UserService) Login(ctx context.Context, dynamicID string, in LoginInput) (*models.User, error) {
	wallet, err := normalizeWallet(in.WalletAddress)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	candidate := models.User{
		DynamicID:     dynamicID,
		Phone:         strings.TrimSpace(in.Phone),
		Name:          strings.TrimSpace(in.Name),
		Email:         in.Email,
		WalletAddress: wallet,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "dynamic_id"}},
		DoNothing: true,
	}).Create(&candidate).Error
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: phone number is registered to another account", ErrConflict)
		}
		return nil, err
	}

	var user models.User
	if err := db.First(&user, "dynamic_id = ?", dynamicID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *UserService) UpdateMe(ctx context.Context, id string, in UpdateUserInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := nonBlank("phone", in.Phone); err != nil {
		return nil, err
	}

	changes := map[string]interface{}{}
	if in.Name != nil {
		changes["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Phone != nil {
		changes["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Email != nil {
		changes["email"] = *in.Email
	}
	if in.WalletAddress != nil {
		wallet, err := normalizeWallet(in.WalletAddress)
		if err != nil {
			return nil, err
		}
		// an empty address clears the wallet
		changes["wallet_address"] = wallet
	}

	if len(changes) > 0 {
		if err := s.DB.WithContext(ctx).Model(user).Updates(changes).Error; err != nil {
			if isDuplicate(err) {
				return nil, fmt.Errorf("%w: phone number is registered to another account", ErrConflict)
			}
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

// ListIssuedRewards returns the rewards granted to a user, newest first.
func (s *UserService) ListIssuedRewards(ctx context.Context, userID string) ([]models.UserAppReward, error) {
	var issued []models.UserAppReward
	err := s.DB.WithContext(ctx).
		Preload("Reward").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&issued).Error
	return issued, err
}

func (s *UserService) ListOwnedApps(ctx context.Context, userID string) ([]models.PartnerApplication, error) {
	var apps []models.PartnerApplication
	err := s.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&apps).Error
	return apps, err
}

// normalizeWallet validates a hex address and returns its EIP-55 form.
func normalizeWallet(raw *string) (*string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	addr := strings.TrimSpace(*raw)
	if !common.IsHexAddress(addr) {
		return nil, fmt.Errorf("%w: wallet address %q is not a valid address", ErrInvalidInput, addr)
	}
	checksummed := common.HexToAddress(addr).Hex()
	return &checksummed, nil
}

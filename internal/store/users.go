package store

import (
	"context"
	"strings"

	"inkpress/internal/auth"
	"inkpress/internal/models"

	"gorm.io/gorm"
)

const emailTaken = "The email has already been taken."

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

// WithTx returns a Users bound to tx.
func (s *Users) WithTx(tx *gorm.DB) *Users {
	return &Users{db: tx}
}

// UserUpdate carries the optional fields of an update. Nil means unchanged.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
}

func (s *Users) List(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Preload("Roles").Order("id asc").Find(&users).Error
	return users, translate(err, "users", "")
}

func (s *Users) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Roles").Preload("Permissions").First(&user, id).Error
	if err != nil {
		return nil, translate(err, "user", "")
	}
	return &user, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, translate(err, "user", "")
	}
	return &user, nil
}

// EmailTaken reports whether a user other than exceptID owns email.
func (s *Users) EmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	q := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", normalizeEmail(email))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, translate(err, "user", "")
	}
	return count > 0, nil
}

// Create hashes password and stores a new user.
func (s *Users) Create(ctx context.Context, name, email, password string) (*models.User, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:     name,
		Email:    normalizeEmail(email),
		Password: hash,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, translate(err, "user", emailTaken)
	}
	return user, nil
}

func (s *Users) Update(ctx context.Context, id uint, upd UserUpdate) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "user", "")
	}
	changes := map[string]interface{}{}
	if upd.Name != nil {
		name, err := cleanName(*upd.Name)
		if err != nil {
			return nil, err
		}
		changes["name"] = name
	}
	if upd.Email != nil {
		changes["email"] = normalizeEmail(*upd.Email)
	}
	if upd.Password != nil {
		hash, err := auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		changes["password"] = hash
	}
	if len(changes) > 0 {
		if err := s.db.WithContext(ctx).Model(&user).Updates(changes).Error; err != nil {
			return nil, translate(err, "user", emailTaken)
		}
	}
	return s.Get(ctx, id)
}

// SetPassword replaces the stored hash of userID.
func (s *Users) SetPassword(ctx context.Context, userID uint, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("password", hash)
	if res.Error != nil {
		return translate(res.Error, "user", "")
	}
	if res.RowsAffected == 0 {
		return translate(gorm.ErrRecordNotFound, "user", "")
	}
	return nil
}

// Delete removes the user together with their posts, tokens and grants.
func (s *Users) Delete(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return translate(err, "user", "")
		}
		var posts []models.Post
		if err := tx.Where("author_id = ?", id).Find(&posts).Error; err != nil {
			return translate(err, "posts", "")
		}
		for i := range posts {
			if err := tx.Select("Categories", "Tags").Delete(&posts[i]).Error; err != nil {
				return translate(err, "post", "")
			}
		}
		if err := tx.Where("email = ?", user.Email).Delete(&models.PasswordReset{}).Error; err != nil {
			return translate(err, "password reset", "")
		}
		if err := tx.Select("Roles", "Permissions", "Tokens").Delete(&user).Error; err != nil {
			return translate(err, "user", "")
		}
		return nil
	})
}

func (s *Users) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, translate(err, "users", "")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

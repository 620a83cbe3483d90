package service

import (
	"StudyVault/internal/repo"
	"StudyVault/model"
	"StudyVault/utils"
	"errors"
)

// CreateUser hashes password and creates a user.
func CreateUser(user *model.User) error {
	user.Password = utils.GetPwd(user.Password)
	if user.Role == "" {
		user.Role = model.RoleStudent
	}
	if err := repo.Db.Create(user).Error; err != nil {
		return err
	}
	return nil
}

// FindUserById returns a user by ID.
func FindUserById(userId uint64) (*model.User, error) {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("id = ?", userId).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// IsExist checks whether a user exists.
func IsExist(username string) (*model.User, error) {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("user_name = ?", username).First(&user).Error; err != nil {
		return &model.User{}, err
	}
	return &user, nil
}

// CheckPassword verifies a user's password.
func CheckPassword(username, password string) error {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("user_name = ?", username).First(&user).Error; err != nil {
		return err
	}
	if !utils.CheckPwd(password, user.Password) {
		return errors.New("password error")
	}
	return nil
}

// IsEmailExist checks whether an email exists.
func IsEmailExist(email string) error {
	var user model.User
	if err := repo.Db.Model(&model.User{}).Where("email = ?", email).First(&user).Error; err != nil {
		return err
	}
	return nil
}

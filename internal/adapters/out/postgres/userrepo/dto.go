// Package userrepo stores the identities that place and fulfil orders.
package userrepo

import (
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"

	"github.com/google/uuid"
)

type UserDTO struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username string    `gorm:"type:varchar(150);not null;uniqueIndex"`
	Role     string    `gorm:"type:varchar(10);not null;index:idx_users_role_gender"`
	Gender   string    `gorm:"type:varchar(10);index:idx_users_role_gender"`
}

func (UserDTO) TableName() string {
	return "users"
}

func fromDomain(u user.User) UserDTO {
	return UserDTO{
		ID:       u.ID().Bytes(),
		Username: u.Username(),
		Role:     u.Role().String(),
		Gender:   u.Gender().String(),
	}
}

func toDomain(dto UserDTO) (user.User, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return user.User{}, err
	}
	role, err := user.ParseRole(dto.Role)
	if err != nil {
		return user.User{}, err
	}
	gender, err := kernel.ParseGender(dto.Gender)
	if err != nil {
		return user.User{}, err
	}
	return user.NewUser(id, dto.Username, role, gender)
}

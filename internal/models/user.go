package models

type User struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Firstname string `gorm:"type:varchar(100);not null" json:"firstname"`
	Lastname  string `gorm:"type:varchar(100);not null" json:"lastname"`
	Username  string `gorm:"type:varchar(100);not null" json:"username"`
	Password  string `gorm:"column:password;type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
}

func (User) TableName() string {
	return "users"
}

// CreateUser is the payload for creating a user (and for signing up).
type CreateUser struct {
	Firstname string `json:"firstname" validate:"required,min=3"`
	Lastname  string `json:"lastname" validate:"required,min=3"`
	Username  string `json:"username" validate:"required,min=3,username"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UpdateUser is a partial user update; nil fields are left untouched.
type UpdateUser struct {
	Firstname *string `json:"firstname" validate:"omitnil,min=3"`
	Lastname  *string `json:"lastname" validate:"omitnil,min=3"`
	Username  *string `json:"username" validate:"omitnil,min=3,username"`
	Password  *string `json:"password" validate:"omitnil,min=8"`
}

type Signin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type Token struct {
	Body      string `json:"body"`
	ExpiresIn string `json:"expiresIn"`
}

type Auth struct {
	User  *User `json:"user"`
	Token Token `json:"token"`
}

type DeleteResponse struct {
	OK bool `json:"ok"`
}

package model

import "time"

type User struct {
	ID           string    `json:"_id"`
	Email        string    `json:"email" validate:"required,max=254,user_email"`
	Name         string    `json:"name" validate:"required,min=2,max=50"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RegisterUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name"`
}

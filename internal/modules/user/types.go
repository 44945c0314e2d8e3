package user

import "errors"

var (
	errUserNotFound  = errors.New("用户不存在")
	errUsernameTaken = errors.New("用户名已存在")
)

type CreateUserDTO struct {
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
	Nickname string `json:"nickname"`
	RealName string `json:"real_name"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

type UpdateProfileDTO struct {
	Nickname *string `json:"nickname"`
	RealName *string `json:"real_name"`
	Email    *string `json:"email"`
	Avatar   *string `json:"avatar"`
	Gender   *int    `json:"gender"`
}

type ResetPasswordDTO struct {
	Password string `json:"password" binding:"required,min=6"`
}

type SetStatusDTO struct {
	Status int `json:"status" binding:"oneof=0 1"`
}

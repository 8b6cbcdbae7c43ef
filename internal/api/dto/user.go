package dto

// RegisterDTO 注册请求体
type RegisterDTO struct {
	Username string `json:"username" binding:"required" validate:"min=2,max=40"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	Password string `json:"password" binding:"required" validate:"min=6,max=64"`
}

// CredentialDTO 登录凭据
type CredentialDTO struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SaveIdentityDTO 保存显示身份请求体
type SaveIdentityDTO struct {
	Username string `json:"username" validate:"omitempty,min=2,max=40"`
	Name     string `json:"name" validate:"omitempty,max=100"`
}

// UserIdentityDTO 最小身份展示字段
type UserIdentityDTO struct {
	UserID   uint64 `json:"user_id,omitempty"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

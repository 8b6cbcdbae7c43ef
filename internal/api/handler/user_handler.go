package handler

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/pkg/response"
	"Teamline/internal/pkg/util"
	"Teamline/internal/service"
	"strings"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userSvc service.UserService
	roomSvc service.RoomService
}

func NewUserHandler(userSvc service.UserService, roomSvc service.RoomService) *UserHandler {
	return &UserHandler{
		userSvc: userSvc,
		roomSvc: roomSvc,
	}
}

func (s *UserHandler) Register(c *gin.Context) {
	var registerDTO dto.RegisterDTO
	if err := c.ShouldBind(&registerDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&registerDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := s.userSvc.Register(c.Request.Context(), &registerDTO); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

func (s *UserHandler) Login(c *gin.Context) {
	var loginDTO dto.CredentialDTO
	if err := c.ShouldBind(&loginDTO); err != nil {
		response.Error(c, err)
		return
	}
	token, err := s.userSvc.Login(c.Request.Context(), &loginDTO)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, map[string]string{
		"token": token,
	})
}

func (s *UserHandler) Logout(c *gin.Context) {
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if err := s.userSvc.Logout(c.Request.Context(), tokenString); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetIdentity 当前用户的身份展示字段
func (s *UserHandler) GetIdentity(c *gin.Context) {
	userID := c.GetUint64("user_id")
	identity, err := s.userSvc.GetUserIdentity(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, identity)
}

// SaveIdentity 保存用户名与显示名，改名会扩散到历史消息与订阅
func (s *UserHandler) SaveIdentity(c *gin.Context) {
	var saveDTO dto.SaveIdentityDTO
	if err := c.ShouldBind(&saveDTO); err != nil {
		response.Error(c, err)
		return
	}
	if err := util.ValidateDTO(&saveDTO); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.userSvc.SaveUserIdentity(c.Request.Context(), userID, &saveDTO); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

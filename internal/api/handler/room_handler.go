package handler

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/pkg/response"
	"Teamline/internal/pkg/util"
	"Teamline/internal/service"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomSvc service.RoomService
}

func NewRoomHandler(roomSvc service.RoomService) *RoomHandler {
	return &RoomHandler{roomSvc: roomSvc}
}

type createRoomReq struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=c p d l"`
}

func (s *RoomHandler) CreateRoom(c *gin.Context) {
	var req createRoomReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	room, err := s.roomSvc.CreateRoom(c.Request.Context(), userID, req.Name, req.Type)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, room)
}

// SaveSettings 保存房间设置，逐项经过校验器/保存器表
func (s *RoomHandler) SaveSettings(c *gin.Context) {
	roomID := util.StrToUint64(c.Param("roomId"))
	if roomID == 0 {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	var settings dto.RoomSettingsDTO
	if err := c.ShouldBindJSON(&settings); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	if err := util.ValidateDTO(&settings); err != nil {
		response.Error(c, err)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.roomSvc.SaveRoomSettings(c.Request.Context(), userID, roomID, &settings); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// PublishRoomList 把当前用户的房间列表快照推到其事件频道
func (s *RoomHandler) PublishRoomList(c *gin.Context) {
	userID := c.GetUint64("user_id")
	if err := s.roomSvc.PublishRoomList(c.Request.Context(), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// RemoveModerator 撤销房间版主
func (s *RoomHandler) RemoveModerator(c *gin.Context) {
	var req dto.RemoveModeratorDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	err := s.roomSvc.RemoveRoomModerator(c.Request.Context(), userID, req.RoomID, req.TargetUserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

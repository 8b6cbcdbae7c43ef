package handler

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/pkg/response"
	"Teamline/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	messageSvc service.MessageService
	receiptSvc service.ReadReceiptService
}

func NewChatHandler(messageSvc service.MessageService, receiptSvc service.ReadReceiptService) *ChatHandler {
	return &ChatHandler{
		messageSvc: messageSvc,
		receiptSvc: receiptSvc,
	}
}

// SendMessage 发送消息接口
func (s *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.SendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	senderID := c.GetUint64("user_id")
	res, err := s.messageSvc.SendMessage(c.Request.Context(), senderID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, res)
}

// ReadMessages 标记房间已读接口，推进水位并进入回执聚合管线
func (s *ChatHandler) ReadMessages(c *gin.Context) {
	var req dto.ReadMessagesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.messageSvc.ReadMessages(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// ReadThread 标记话题已读接口
func (s *ChatHandler) ReadThread(c *gin.Context) {
	var req dto.ReadThreadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	userID := c.GetUint64("user_id")
	if err := s.messageSvc.ReadThread(c.Request.Context(), userID, &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, nil)
}

// GetReceipts 查询某条消息的回执列表，带解析出的阅读者身份
func (s *ChatHandler) GetReceipts(c *gin.Context) {
	messageID := c.Param("messageId")
	if messageID == "" {
		response.Error(c, service.ErrParamInvalid)
		return
	}

	receipts, err := s.receiptSvc.GetReceipts(c.Request.Context(), messageID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, receipts)
}

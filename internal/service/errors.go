package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserExist         = errors.New("用户已存在")
	ErrUserUsernameExist = errors.New("用户名已存在")
	ErrUsernameInvalid   = errors.New("用户名不合法")
	ErrPasswordIncorrect = errors.New("密码错误")
	ErrRoomNotFound      = errors.New("房间不存在")
	ErrMessageNotFound   = errors.New("消息不存在")
	ErrNotSubscribed     = errors.New("未加入该房间")
	ErrRoomReadOnly      = errors.New("房间为只读")
	ErrSettingUnknown    = errors.New("未知的房间设置项")
	ErrUserNotModerator  = errors.New("目标用户不是版主")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrUserNotFound:      NotFound,
	ErrUserExist:         BadRequest,
	ErrUserUsernameExist: BadRequest,
	ErrUsernameInvalid:   BadRequest,
	ErrPasswordIncorrect: Unauthorized,
	ErrRoomNotFound:      NotFound,
	ErrMessageNotFound:   NotFound,
	ErrNotSubscribed:     Unauthorized,
	ErrRoomReadOnly:      BadRequest,
	ErrSettingUnknown:    BadRequest,
	ErrUserNotModerator:  BadRequest,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}

package service

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/mongo"
	"Teamline/internal/pkg/redis"
	"Teamline/internal/pkg/security"
	"Teamline/internal/pkg/util"
	"Teamline/internal/repository"
	"context"
	"strconv"
	"time"

	log "log/slog"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) error
	Login(ctx context.Context, dto *dto.CredentialDTO) (string, error)
	Logout(ctx context.Context, token string) error
	GetUserIdentity(ctx context.Context, id uint64) (*dto.UserIdentityDTO, error)
	SaveUserIdentity(ctx context.Context, id uint64, dto *dto.SaveIdentityDTO) error
}

type UserServiceImpl struct {
	userRepo    repository.UserRepo
	subRepo     repository.SubscriptionRepo
	messageRepo mongo.MessageRepo
}

func NewUserService(userRepo repository.UserRepo, subRepo repository.SubscriptionRepo, messageRepo mongo.MessageRepo) UserService {
	return &UserServiceImpl{
		userRepo:    userRepo,
		subRepo:     subRepo,
		messageRepo: messageRepo,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) error {
	if !util.ValidUsername(regDTO.Username) {
		return ErrUsernameInvalid
	}

	findUser, err := s.userRepo.GetUserByUsername(ctx, regDTO.Username)
	if err != nil {
		return err
	}
	if findUser != nil {
		return ErrUserUsernameExist
	}

	user := &model.User{}
	err = copier.Copy(user, &regDTO)
	if err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(regDTO.Password)
	if err != nil {
		return err
	}
	user.Password = &passwordHash

	return s.userRepo.CreateUser(ctx, user)
}

func (s *UserServiceImpl) Login(ctx context.Context, credDTO *dto.CredentialDTO) (string, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, credDTO.Username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}
	if user.Password == nil {
		return "", ErrPasswordIncorrect
	}
	err = security.CheckPasswordHash(credDTO.Password, *user.Password)
	if err != nil {
		return "", ErrPasswordIncorrect
	}

	token, err := security.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Logout 把 token 签名放进 redis 拒绝名单，有效期与 token 一致
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	return redis.SetWithExpiration(ctx, consts.TokenDenyKey+signature, true, time.Hour*24)
}

func (s *UserServiceImpl) GetUserIdentity(ctx context.Context, id uint64) (*dto.UserIdentityDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	identity := &dto.UserIdentityDTO{UserID: user.ID}
	if user.Username != nil {
		identity.Username = *user.Username
	}
	if user.Name != nil {
		identity.Name = *user.Name
	}
	return identity, nil
}

// SaveUserIdentity 保存用户名与显示名，两项都是可选。
// 用户名变更要扩散到历史消息的冗余字段，并广播给在线端。
func (s *UserServiceImpl) SaveUserIdentity(ctx context.Context, id uint64, saveDTO *dto.SaveIdentityDTO) error {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	usernameChanged := false
	if saveDTO.Username != "" && (user.Username == nil || *user.Username != saveDTO.Username) {
		if !util.ValidUsername(saveDTO.Username) {
			return ErrUsernameInvalid
		}
		exist, err := s.userRepo.GetUserByUsername(ctx, saveDTO.Username)
		if err != nil {
			return err
		}
		if exist != nil && exist.ID != id {
			return ErrUserUsernameExist
		}
		user.Username = util.PtrString(saveDTO.Username)
		usernameChanged = true
	}

	nameChanged := false
	if saveDTO.Name != "" && (user.Name == nil || *user.Name != saveDTO.Name) {
		user.Name = util.PtrString(saveDTO.Name)
		nameChanged = true
	}

	if !usernameChanged && !nameChanged {
		return nil
	}

	if err := s.userRepo.UpdateUser(ctx, user); err != nil {
		return err
	}

	if usernameChanged {
		n, err := s.messageRepo.UpdateSenderUsername(ctx, id, saveDTO.Username)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "propagated username to sent messages",
			"user_id", id,
			"username", saveDTO.Username,
			"messages", n,
		)
	}

	// 改名事件推给用户所在的每个房间，在线端据此刷新显示
	event := &dto.NameChangedEventDTO{
		Type:     consts.EventTypeNameChanged,
		UserID:   id,
		Username: saveDTO.Username,
		Name:     saveDTO.Name,
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	subs, err := s.subRepo.GetUserSubscriptions(ctx, id)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		// 单聊房间名对端显示的就是本用户的用户名，跟着改
		if usernameChanged && sub.Room.Type == consts.RoomTypeDirect {
			if err := s.subRepo.UpdatePeerRoomName(ctx, sub.RoomID, id, saveDTO.Username); err != nil {
				return err
			}
		}
		channel := consts.RoomChannelKey + strconv.FormatUint(sub.RoomID, 10)
		if err := redis.Publish(ctx, channel, data); err != nil {
			log.WarnContext(ctx, "publish name changed event failed", "room_id", sub.RoomID, "err", err)
		}
	}

	return nil
}

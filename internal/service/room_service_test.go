package service

import (
	"Teamline/internal/api/dto"
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/util"
	"context"
	"errors"
	"testing"
	"time"
)

type roomFixture struct {
	settings *fakeSettings
	rooms    *fakeRoomRepo
	subs     *fakeSubRepo
	svc      RoomService
}

func newRoomFixture() *roomFixture {
	f := &roomFixture{
		settings: &fakeSettings{flags: map[string]bool{}},
		rooms:    &fakeRoomRepo{rooms: map[uint64]*model.Room{}},
		subs:     &fakeSubRepo{subs: map[subKey]*model.Subscription{}, minSeen: map[uint64]*time.Time{}},
	}
	f.svc = NewRoomService(f.rooms, f.subs, f.settings)
	return f
}

func (f *roomFixture) addRoom(roomID uint64, roomType string) {
	f.rooms.rooms[roomID] = &model.Room{ID: roomID, Type: roomType}
}

func (f *roomFixture) addSub(roomID, userID uint64, moderator, owner bool) {
	f.subs.subs[subKey{roomID, userID}] = &model.Subscription{
		RoomID:      roomID,
		UserID:      userID,
		IsModerator: moderator,
		IsOwner:     owner,
		Open:        true,
	}
}

func TestSaveRoomSettings(t *testing.T) {
	tests := []struct {
		name      string
		moderator bool
		owner     bool
		settings  *dto.RoomSettingsDTO
		wantErr   error
		check     func(t *testing.T, f *roomFixture)
	}{
		{
			name:      "版主改话题",
			moderator: true,
			settings:  &dto.RoomSettingsDTO{RoomTopic: util.PtrString("launch plan")},
			check: func(t *testing.T, f *roomFixture) {
				if got := f.rooms.updatedFields[1]["topic"]; got != "launch plan" {
					t.Errorf("topic = %v, want %q", got, "launch plan")
				}
			},
		},
		{
			name:      "改名同步订阅冗余字段",
			moderator: true,
			settings:  &dto.RoomSettingsDTO{RoomName: util.PtrString("design-team")},
			check: func(t *testing.T, f *roomFixture) {
				if got := f.rooms.updatedFields[1]["name"]; got != "design-team" {
					t.Errorf("name = %v, want %q", got, "design-team")
				}
				if got := f.subs.subs[subKey{1, 7}].RoomName; got != "design-team" {
					t.Errorf("subscription room name = %q, want %q", got, "design-team")
				}
			},
		},
		{
			name:     "普通成员改话题被拒",
			settings: &dto.RoomSettingsDTO{RoomTopic: util.PtrString("nope")},
			wantErr:  ErrUserNotModerator,
		},
		{
			name:      "普通成员可以收藏",
			moderator: false,
			settings:  &dto.RoomSettingsDTO{Favorite: ptrBool(true)},
			check: func(t *testing.T, f *roomFixture) {
				if !f.subs.subs[subKey{1, 7}].Favorite {
					t.Error("favorite not set on own subscription")
				}
			},
		},
		{
			name:      "default 只有房主能改",
			moderator: true,
			settings:  &dto.RoomSettingsDTO{Default: ptrBool(true)},
			wantErr:   ErrUserNotModerator,
		},
		{
			name:      "整批先校验后落库",
			moderator: false,
			settings: &dto.RoomSettingsDTO{
				Favorite:  ptrBool(true),
				RoomTopic: util.PtrString("mixed"),
			},
			wantErr: ErrUserNotModerator,
			check: func(t *testing.T, f *roomFixture) {
				// 混批校验失败时合法项也不能写出去
				if f.subs.subs[subKey{1, 7}].Favorite {
					t.Error("favorite written although batch validation failed")
				}
			},
		},
		{
			name:      "空请求体报参数错误",
			moderator: true,
			settings:  &dto.RoomSettingsDTO{},
			wantErr:   ErrParamInvalid,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRoomFixture()
			f.addRoom(1, consts.RoomTypeChannel)
			f.addSub(1, 7, tt.moderator, tt.owner)

			err := f.svc.SaveRoomSettings(context.Background(), 7, 1, tt.settings)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("SaveRoomSettings() error = %v, want %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, f)
			}
		})
	}
}

func TestSaveRoomSettingsRequiresSubscription(t *testing.T) {
	f := newRoomFixture()
	f.addRoom(1, consts.RoomTypeChannel)

	err := f.svc.SaveRoomSettings(context.Background(), 7, 1, &dto.RoomSettingsDTO{Favorite: ptrBool(true)})
	if !errors.Is(err, ErrNotSubscribed) {
		t.Errorf("SaveRoomSettings() error = %v, want %v", err, ErrNotSubscribed)
	}
}

func TestRemoveRoomModerator(t *testing.T) {
	tests := []struct {
		name         string
		actingMod    bool
		targetMod    bool
		targetExists bool
		wantErr      error
	}{
		{"版主撤销版主", true, true, true, nil},
		{"非版主无权操作", false, true, true, ErrUserNotModerator},
		{"目标不持有角色", true, false, true, ErrUserNotModerator},
		{"目标不在房间", true, false, false, ErrNotSubscribed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRoomFixture()
			f.addRoom(1, consts.RoomTypeChannel)
			f.addSub(1, 7, tt.actingMod, false)
			if tt.targetExists {
				f.addSub(1, 8, tt.targetMod, false)
			}

			err := f.svc.RemoveRoomModerator(context.Background(), 7, 1, 8)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("RemoveRoomModerator() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && f.subs.subs[subKey{1, 8}].IsModerator {
				t.Error("target still holds moderator role")
			}
		})
	}
}

func ptrBool(b bool) *bool { return &b }

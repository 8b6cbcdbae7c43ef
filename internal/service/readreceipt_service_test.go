package service

import (
	"Teamline/internal/model"
	"Teamline/internal/pkg/consts"
	"Teamline/internal/pkg/mongo"
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// ---- 测试替身 ----

type fakeSettings struct {
	mu    sync.Mutex
	flags map[string]bool
}

func (f *fakeSettings) GetBool(_ context.Context, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[key]
}

func (f *fakeSettings) SetBool(_ context.Context, key string, value bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[key] = value
	return nil
}

func allSettingsOn() *fakeSettings {
	return &fakeSettings{flags: map[string]bool{
		consts.SettingReadReceiptEnabled:    true,
		consts.SettingReadReceiptStoreUsers: true,
	}}
}

type fakeRoomRepo struct {
	mu             sync.Mutex
	rooms          map[uint64]*model.Room
	lastMsgReadFor []uint64
	updatedFields  map[uint64]map[string]interface{}
}

func (f *fakeRoomRepo) GetRoomById(_ context.Context, roomID uint64) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[roomID], nil
}

func (f *fakeRoomRepo) CreateRoom(_ context.Context, _ *model.Room) error { return nil }

func (f *fakeRoomRepo) UpdateRoomFields(_ context.Context, roomID uint64, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updatedFields == nil {
		f.updatedFields = map[uint64]map[string]interface{}{}
	}
	merged, ok := f.updatedFields[roomID]
	if !ok {
		merged = map[string]interface{}{}
		f.updatedFields[roomID] = merged
	}
	for k, v := range fields {
		merged[k] = v
	}
	return nil
}

func (f *fakeRoomRepo) BumpLastMessage(_ context.Context, _ uint64, _ time.Time) error { return nil }

func (f *fakeRoomRepo) SetLastMessageAsRead(_ context.Context, roomID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastMsgReadFor = append(f.lastMsgReadFor, roomID)
	return nil
}

func (f *fakeRoomRepo) lastMsgReadCalls() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.lastMsgReadFor...)
}

type subKey struct{ roomID, userID uint64 }

type fakeSubRepo struct {
	mu         sync.Mutex
	subs       map[subKey]*model.Subscription
	minSeen    map[uint64]*time.Time
	minCalls   int
	moderators []subKey
}

func (f *fakeSubRepo) GetSubscription(_ context.Context, roomID, userID uint64) (*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subs[subKey{roomID, userID}], nil
}

func (f *fakeSubRepo) GetUserSubscriptions(_ context.Context, userID uint64) ([]*model.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*model.Subscription
	for k, sub := range f.subs {
		if k.userID == userID {
			res = append(res, sub)
		}
	}
	return res, nil
}

func (f *fakeSubRepo) CreateSubscription(_ context.Context, _ *model.Subscription) error { return nil }

func (f *fakeSubRepo) MinLastSeenInRoom(_ context.Context, roomID uint64) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minCalls++
	return f.minSeen[roomID], nil
}

func (f *fakeSubRepo) CountOtherSubscribers(_ context.Context, roomID, excludeUserID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for k, sub := range f.subs {
		if k.roomID == roomID && k.userID != excludeUserID && sub.Open {
			count++
		}
	}
	return count, nil
}

func (f *fakeSubRepo) UpdateLastSeen(_ context.Context, _, _ uint64, _ time.Time) error { return nil }

func (f *fakeSubRepo) SetModerator(_ context.Context, roomID, userID uint64, isModerator bool) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub, ok := f.subs[subKey{roomID, userID}]
	if !ok || sub.IsModerator == isModerator {
		return 0, nil
	}
	sub.IsModerator = isModerator
	f.moderators = append(f.moderators, subKey{roomID, userID})
	return 1, nil
}

func (f *fakeSubRepo) SetFavorite(_ context.Context, roomID, userID uint64, favorite bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sub, ok := f.subs[subKey{roomID, userID}]; ok {
		sub.Favorite = favorite
	}
	return nil
}

func (f *fakeSubRepo) UpdateRoomNameDenorm(_ context.Context, roomID uint64, roomName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, sub := range f.subs {
		if k.roomID == roomID {
			sub.RoomName = roomName
		}
	}
	return nil
}

func (f *fakeSubRepo) UpdatePeerRoomName(_ context.Context, _, _ uint64, _ string) error { return nil }

func (f *fakeSubRepo) setMinSeen(roomID uint64, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minSeen[roomID] = &at
}

type readUpToCall struct {
	roomID    uint64
	watermark time.Time
}

type fakeMessageRepo struct {
	mu         sync.Mutex
	unread     map[uint64][]*mongo.Message
	threadRoot map[string]*mongo.Message
	readUpTo   []readUpToCall
	setAsRead  []string
}

func (f *fakeMessageRepo) SaveMessage(_ context.Context, _ *mongo.Message) error { return nil }

func (f *fakeMessageRepo) GetMessageByID(_ context.Context, id string) (*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.threadRoot[id], nil
}

func (f *fakeMessageRepo) FindVisibleUnreadAfter(_ context.Context, roomID uint64, since time.Time) ([]*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*mongo.Message
	for _, m := range f.unread[roomID] {
		if m.TS.After(since) {
			res = append(res, m)
		}
	}
	return res, nil
}

func (f *fakeMessageRepo) FindUnreadThreadMessagesAfter(_ context.Context, threadID string, userID uint64, since time.Time) ([]*mongo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res []*mongo.Message
	for _, list := range f.unread {
		for _, m := range list {
			if m.ThreadRootID == threadID && m.SenderID != userID && m.TS.After(since) {
				res = append(res, m)
			}
		}
	}
	return res, nil
}

func (f *fakeMessageRepo) SetReadUpTo(_ context.Context, roomID uint64, watermark time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readUpTo = append(f.readUpTo, readUpToCall{roomID: roomID, watermark: watermark})
	return nil
}

func (f *fakeMessageRepo) SetAsRead(_ context.Context, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setAsRead = append(f.setAsRead, messageID)
	return nil
}

func (f *fakeMessageRepo) BumpThread(_ context.Context, _ string, _ time.Time) error { return nil }

func (f *fakeMessageRepo) UpdateSenderUsername(_ context.Context, _ uint64, _ string) (int64, error) {
	return 0, nil
}

func (f *fakeMessageRepo) readUpToCalls() []readUpToCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]readUpToCall(nil), f.readUpTo...)
}

func (f *fakeMessageRepo) setAsReadCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.setAsRead...)
}

type fakeReceiptRepo struct {
	mu        sync.Mutex
	inserted  []*mongo.ReadReceipt
	insertErr error
	byMessage map[string][]*mongo.ReadReceipt
}

func (f *fakeReceiptRepo) InsertMany(_ context.Context, receipts []*mongo.ReadReceipt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, receipts...)
	return nil
}

func (f *fakeReceiptRepo) FindByMessageID(_ context.Context, messageID string) ([]*mongo.ReadReceipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byMessage[messageID], nil
}

func (f *fakeReceiptRepo) insertedReceipts() []*mongo.ReadReceipt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*mongo.ReadReceipt(nil), f.inserted...)
}

type fakeUserRepo struct {
	users map[uint64]*model.User
}

func (f *fakeUserRepo) GetUserById(_ context.Context, id uint64) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserRepo) GetUserByIds(_ context.Context, ids []uint64) ([]*model.User, error) {
	var res []*model.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, _ *model.User) error { return nil }

func (f *fakeUserRepo) UpdateUser(_ context.Context, _ *model.User) error { return nil }

type fakeVisitorRepo struct {
	visitors map[string]*mongo.Visitor
}

func (f *fakeVisitorRepo) GetVisitorByToken(_ context.Context, token string) (*mongo.Visitor, error) {
	return f.visitors[token], nil
}

// ---- 测试夹具 ----

type receiptFixture struct {
	settings *fakeSettings
	rooms    *fakeRoomRepo
	subs     *fakeSubRepo
	messages *fakeMessageRepo
	receipts *fakeReceiptRepo
	users    *fakeUserRepo
	visitors *fakeVisitorRepo
	svc      ReadReceiptService
}

func newReceiptFixture(debounce time.Duration) *receiptFixture {
	f := &receiptFixture{
		settings: allSettingsOn(),
		rooms:    &fakeRoomRepo{rooms: map[uint64]*model.Room{}},
		subs:     &fakeSubRepo{subs: map[subKey]*model.Subscription{}, minSeen: map[uint64]*time.Time{}},
		messages: &fakeMessageRepo{unread: map[uint64][]*mongo.Message{}, threadRoot: map[string]*mongo.Message{}},
		receipts: &fakeReceiptRepo{byMessage: map[string][]*mongo.ReadReceipt{}},
		users:    &fakeUserRepo{users: map[uint64]*model.User{}},
		visitors: &fakeVisitorRepo{visitors: map[string]*mongo.Visitor{}},
	}
	f.svc = NewReadReceiptService(f.settings, f.rooms, f.subs, f.users, f.messages, f.receipts, f.visitors, debounce)
	return f
}

func (f *receiptFixture) addRoom(roomID uint64, roomType string, lastMessageAt time.Time) {
	f.rooms.rooms[roomID] = &model.Room{
		ID:            roomID,
		Type:          roomType,
		LastMessageAt: &lastMessageAt,
	}
}

func (f *receiptFixture) addSubscriber(roomID, userID uint64, open bool) {
	f.subs.subs[subKey{roomID, userID}] = &model.Subscription{
		RoomID: roomID,
		UserID: userID,
		Open:   open,
	}
}

var testBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(offsetSeconds int) time.Time {
	return testBase.Add(time.Duration(offsetSeconds) * time.Second)
}

// ---- 用例 ----

func TestMarkMessagesAsReadCaughtUpIsNoop(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeChannel, at(100))

	// 用户水位等于房间最后一条消息，追平状态
	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(100)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}

	if got := f.svc.PendingRecomputes(); got != 0 {
		t.Errorf("pending recomputes = %d, want 0", got)
	}
	if got := len(f.receipts.insertedReceipts()); got != 0 {
		t.Errorf("inserted %d receipts, want 0", got)
	}
}

func TestMarkMessagesAsReadDisabledIsNoop(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.settings.flags[consts.SettingReadReceiptEnabled] = false
	f.addRoom(1, consts.RoomTypeChannel, at(100))

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	if got := f.svc.PendingRecomputes(); got != 0 {
		t.Errorf("pending recomputes = %d, want 0", got)
	}
}

func TestMarkMessagesAsReadBurstCoalesces(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeChannel, at(100))
	f.subs.setMinSeen(1, at(60))

	// 同一房间三个用户相继读到，窗口内只能触发一次重算
	for _, userID := range []uint64{7, 8, 9} {
		if err := f.svc.MarkMessagesAsRead(context.Background(), 1, userID, at(50)); err != nil {
			t.Fatalf("MarkMessagesAsRead() error = %v", err)
		}
	}
	if got := f.svc.PendingRecomputes(); got != 1 {
		t.Errorf("pending recomputes = %d, want 1", got)
	}

	// 触发前订阅水位又前进了，重算必须读到新值
	f.subs.setMinSeen(1, at(80))

	time.Sleep(100 * time.Millisecond)

	calls := f.messages.readUpToCalls()
	if len(calls) != 1 {
		t.Fatalf("SetReadUpTo called %d times, want 1", len(calls))
	}
	if !calls[0].watermark.Equal(at(80)) {
		t.Errorf("watermark = %v, want %v", calls[0].watermark, at(80))
	}
	if got := f.svc.PendingRecomputes(); got != 0 {
		t.Errorf("pending recomputes after fire = %d, want 0", got)
	}
}

func TestMarkMessagesAsReadRoomsAreIndependent(t *testing.T) {
	f := newReceiptFixture(40 * time.Millisecond)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeChannel, at(100))
	f.addRoom(2, consts.RoomTypeChannel, at(100))
	f.subs.setMinSeen(1, at(100))
	f.subs.setMinSeen(2, at(100))

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	// 房间 2 持续被重新触发，不能顺延房间 1 的窗口
	for i := 0; i < 5; i++ {
		if err := f.svc.MarkMessagesAsRead(context.Background(), 2, 8, at(50)); err != nil {
			t.Fatalf("MarkMessagesAsRead() error = %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(120 * time.Millisecond)

	room1, room2 := 0, 0
	for _, c := range f.messages.readUpToCalls() {
		switch c.roomID {
		case 1:
			room1++
		case 2:
			room2++
		}
	}
	if room1 != 1 {
		t.Errorf("room 1 recomputed %d times, want 1", room1)
	}
	if room2 != 1 {
		t.Errorf("room 2 recomputed %d times, want 1", room2)
	}
}

func TestWatermarkHoldsBackRoomLastMessage(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	// 房间最后一条消息在 T=100，U1 读到 100，U2 只读到 80
	f.addRoom(1, consts.RoomTypeChannel, at(100))
	f.subs.setMinSeen(1, at(80))

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 1, at(100)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	calls := f.messages.readUpToCalls()
	if len(calls) != 1 || !calls[0].watermark.Equal(at(80)) {
		t.Fatalf("SetReadUpTo calls = %+v, want one call with watermark %v", calls, at(80))
	}
	if got := f.rooms.lastMsgReadCalls(); len(got) != 0 {
		t.Fatalf("SetLastMessageAsRead called with min watermark behind, calls = %v", got)
	}

	// U2 追平到 100 后再触发一轮，最后一条消息才能标记为已读
	f.subs.setMinSeen(1, at(100))
	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 2, at(80)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := f.rooms.lastMsgReadCalls(); len(got) != 1 || got[0] != 1 {
		t.Errorf("SetLastMessageAsRead calls = %v, want [1]", got)
	}
}

func TestMarkMessageAsReadBySender(t *testing.T) {
	tests := []struct {
		name          string
		openOthers    int
		closedOthers  int
		unread        bool
		wantSetAsRead int
		wantReceipts  int
	}{
		{"房间只有发送者时同步标已读", 0, 0, true, 1, 1},
		{"有其他订阅者时只落回执", 3, 0, true, 0, 1},
		{"其他订阅者都已关闭会话时同步标已读", 0, 2, true, 1, 1},
		{"消息已读则整体跳过", 0, 0, false, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newReceiptFixture(30 * time.Millisecond)
			defer f.svc.Close()

			f.addRoom(1, consts.RoomTypeChannel, at(100))
			f.addSubscriber(1, 7, true)
			for i := 0; i < tt.openOthers; i++ {
				f.addSubscriber(1, uint64(100+i), true)
			}
			for i := 0; i < tt.closedOthers; i++ {
				f.addSubscriber(1, uint64(200+i), false)
			}

			msg := &mongo.Message{ID: "m1", RoomID: 1, SenderID: 7, TS: at(100), Unread: tt.unread}
			err := f.svc.MarkMessageAsReadBySender(context.Background(), msg, f.rooms.rooms[1], 7)
			if err != nil {
				t.Fatalf("MarkMessageAsReadBySender() error = %v", err)
			}

			if got := len(f.messages.setAsReadCalls()); got != tt.wantSetAsRead {
				t.Errorf("SetAsRead called %d times, want %d", got, tt.wantSetAsRead)
			}
			if got := len(f.receipts.insertedReceipts()); got != tt.wantReceipts {
				t.Errorf("inserted %d receipts, want %d", got, tt.wantReceipts)
			}
		})
	}
}

func TestSenderReceiptCarriesVisitorToken(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeLivechat, at(100))
	f.addSubscriber(1, 7, true)
	f.addSubscriber(1, 8, true)

	msg := &mongo.Message{ID: "m1", RoomID: 1, SenderID: 7, TS: at(100), Unread: true, VisitorToken: "tok-42"}
	if err := f.svc.MarkMessageAsReadBySender(context.Background(), msg, f.rooms.rooms[1], 7); err != nil {
		t.Fatalf("MarkMessageAsReadBySender() error = %v", err)
	}

	inserted := f.receipts.insertedReceipts()
	if len(inserted) != 1 {
		t.Fatalf("inserted %d receipts, want 1", len(inserted))
	}
	if inserted[0].Token != "tok-42" {
		t.Errorf("receipt token = %q, want %q", inserted[0].Token, "tok-42")
	}
}

func TestStoreReceiptsSkipsWhenNothingToWrite(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	// 房间有新消息但对该用户可见的未读为空，不能写出零长度批次
	f.addRoom(1, consts.RoomTypeChannel, at(100))

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	if got := len(f.receipts.insertedReceipts()); got != 0 {
		t.Errorf("inserted %d receipts, want 0", got)
	}
	// 去抖重算仍然要调度
	if got := f.svc.PendingRecomputes(); got != 1 {
		t.Errorf("pending recomputes = %d, want 1", got)
	}
}

func TestStoreReceiptsDisabledByFlag(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.settings.flags[consts.SettingReadReceiptStoreUsers] = false
	f.addRoom(1, consts.RoomTypeChannel, at(100))
	f.messages.unread[1] = []*mongo.Message{{ID: "m1", RoomID: 1, TS: at(90), Unread: true}}

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	if got := len(f.receipts.insertedReceipts()); got != 0 {
		t.Errorf("inserted %d receipts, want 0", got)
	}
}

func TestInsertFailureIsSwallowed(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeChannel, at(100))
	f.messages.unread[1] = []*mongo.Message{{ID: "m1", RoomID: 1, TS: at(90), Unread: true}}
	f.receipts.insertErr = errors.New("mongo down")

	// 回执是旁路数据，存储故障不能影响已读标记主流程
	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	if got := f.svc.PendingRecomputes(); got != 1 {
		t.Errorf("pending recomputes = %d, want 1", got)
	}
}

func TestStoreThreadMessagesReadReceipts(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.messages.threadRoot["root-1"] = &mongo.Message{
		ID: "root-1", RoomID: 1, TS: at(10), Unread: true, ThreadLastAt: timePtr(at(90)),
	}
	f.messages.unread[1] = []*mongo.Message{
		{ID: "t1", RoomID: 1, SenderID: 8, TS: at(80), Unread: true, ThreadRootID: "root-1"},
		{ID: "t2", RoomID: 1, SenderID: 7, TS: at(85), Unread: true, ThreadRootID: "root-1"}, // 自己发的不落回执
		{ID: "t3", RoomID: 1, SenderID: 8, TS: at(40), Unread: true, ThreadRootID: "root-1"}, // 水位之前的不落
	}

	if err := f.svc.StoreThreadMessagesReadReceipts(context.Background(), "root-1", 7, at(50)); err != nil {
		t.Fatalf("StoreThreadMessagesReadReceipts() error = %v", err)
	}

	inserted := f.receipts.insertedReceipts()
	if len(inserted) != 1 {
		t.Fatalf("inserted %d receipts, want 1", len(inserted))
	}
	if inserted[0].MessageID != "t1" {
		t.Errorf("receipt message = %q, want %q", inserted[0].MessageID, "t1")
	}

	// 话题水位追平后是空操作
	if err := f.svc.StoreThreadMessagesReadReceipts(context.Background(), "root-1", 7, at(95)); err != nil {
		t.Fatalf("StoreThreadMessagesReadReceipts() error = %v", err)
	}
	if got := len(f.receipts.insertedReceipts()); got != 1 {
		t.Errorf("caught-up thread read inserted extra receipts, total = %d", got)
	}
}

func TestGetReceiptsResolvesIdentities(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.users.users[7] = &model.User{ID: 7, Username: strPtr("alice"), Name: strPtr("Alice")}
	f.visitors.visitors["tok-1"] = &mongo.Visitor{Token: "tok-1", Username: "guest-1", Name: "Guest"}
	f.receipts.byMessage["m1"] = []*mongo.ReadReceipt{
		{ID: "r1", RoomID: 1, UserID: 7, MessageID: "m1", TS: at(90)},
		{ID: "r2", RoomID: 1, MessageID: "m1", TS: at(91), Token: "tok-1"},
		{ID: "r3", RoomID: 1, MessageID: "m1", TS: at(92), Token: "tok-missing"},
	}

	got, err := f.svc.GetReceipts(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetReceipts() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetReceipts() returned %d receipts, want 3", len(got))
	}

	if got[0].User == nil || got[0].User.Username != "alice" || got[0].User.UserID != 7 {
		t.Errorf("user receipt identity = %+v, want alice/7", got[0].User)
	}
	if got[1].User == nil || got[1].User.Username != "guest-1" {
		t.Errorf("visitor receipt identity = %+v, want guest-1", got[1].User)
	}
	// 访客目录里找不到时回执仍返回，只是不带身份
	if got[2].User != nil {
		t.Errorf("unresolvable visitor receipt carries identity = %+v, want nil", got[2].User)
	}
}

func TestGetReceiptsDisabledByFlag(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	f.settings.flags[consts.SettingReadReceiptEnabled] = false
	f.receipts.byMessage["m1"] = []*mongo.ReadReceipt{
		{ID: "r1", RoomID: 1, UserID: 7, MessageID: "m1", TS: at(90)},
	}

	got, err := f.svc.GetReceipts(context.Background(), "m1")
	if err != nil {
		t.Fatalf("GetReceipts() error = %v", err)
	}
	// 功能关闭时查询也是静默空结果，已落库的回执不暴露
	if len(got) != 0 {
		t.Errorf("GetReceipts() returned %d receipts, want 0", len(got))
	}
}

func TestRecomputeWaitsForEveryWatermark(t *testing.T) {
	f := newReceiptFixture(30 * time.Millisecond)
	defer f.svc.Close()

	// 房间里有从未读过的订阅者，仓储层不给出最小水位，重算必须放弃
	f.addRoom(1, consts.RoomTypeChannel, at(100))

	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	time.Sleep(100 * time.Millisecond)

	if got := f.messages.readUpToCalls(); len(got) != 0 {
		t.Errorf("SetReadUpTo calls = %v, want none", got)
	}
	if got := f.rooms.lastMsgReadCalls(); len(got) != 0 {
		t.Errorf("SetLastMessageAsRead calls = %v, want none", got)
	}
}

func TestSweepIdleTimers(t *testing.T) {
	f := newReceiptFixture(10 * time.Minute)
	defer f.svc.Close()

	f.addRoom(1, consts.RoomTypeChannel, at(100))
	if err := f.svc.MarkMessagesAsRead(context.Background(), 1, 7, at(50)); err != nil {
		t.Fatalf("MarkMessagesAsRead() error = %v", err)
	}
	if got := f.svc.PendingRecomputes(); got != 1 {
		t.Fatalf("pending recomputes = %d, want 1", got)
	}

	if got := f.svc.SweepIdleTimers(time.Hour); got != 0 {
		t.Errorf("sweep removed %d fresh entries, want 0", got)
	}
	if got := f.svc.SweepIdleTimers(0); got != 1 {
		t.Errorf("sweep removed %d entries, want 1", got)
	}
	if got := f.svc.PendingRecomputes(); got != 0 {
		t.Errorf("pending recomputes after sweep = %d, want 0", got)
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func strPtr(s string) *string { return &s }

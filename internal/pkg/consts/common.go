package consts

// 房间类型
const (
	RoomTypeChannel  = "c" // 公共频道
	RoomTypePrivate  = "p" // 私有群组
	RoomTypeDirect   = "d" // 单聊
	RoomTypeLivechat = "l" // 访客会话
)

// 运行时设置项键名
const (
	SettingReadReceiptEnabled    = "Message_Read_Receipt_Enabled"
	SettingReadReceiptStoreUsers = "Message_Read_Receipt_Store_Users"
	SettingUIDisplayRoles        = "UI_DisplayRoles"
)

// 事件总线消息类型
const (
	EventTypeMessage     = "MESSAGE"
	EventTypeRoomList    = "ROOM_LIST"
	EventTypeNameChanged = "USER_NAME_CHANGED"
	EventTypeRoleChanged = "ROLE_CHANGED"
)

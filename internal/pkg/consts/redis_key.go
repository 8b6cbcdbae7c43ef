package consts

const (
	// 事件总线频道前缀
	UserChannelKey = "chat:user:"
	RoomChannelKey = "chat:room:"

	// 设置项缓存
	SettingCacheKey = "setting:value:"

	// 登录态
	TokenDenyKey = "auth:token:deny:"
)

const (
	SettingCacheTTLSeconds = 30
)

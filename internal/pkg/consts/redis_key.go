package consts

const (
	// MediaTempKey 已上传但尚未被消息引用的对象，field 为 bucket/key
	MediaTempKey = "media:temp"
	// TokenBlacklistKey 已登出 Token 的签名
	TokenBlacklistKey = "auth:blacklist:"
)

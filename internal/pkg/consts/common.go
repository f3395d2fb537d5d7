package consts

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

// 聊天媒体存储桶
const (
	BucketChatImages = "chat-images"
	BucketChatVoice  = "chat-voice"
	BucketChatVideo  = "chat-video"
	BucketAvatars    = "avatars"
)

// Buckets 允许上传的存储桶
var Buckets = []string{BucketChatImages, BucketChatVoice, BucketChatVideo, BucketAvatars}

const (
	MessageTypeText   = "text"
	MessageTypeImage  = "image"
	MessageTypeVoice  = "voice"
	MessageTypeVideo  = "video"
	MessageTypeSystem = "system"
	MessageTypeAgent  = "agent"
)

const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

const (
	ExecutionRunning   = "running"
	ExecutionCompleted = "completed"
	ExecutionFailed    = "failed"
)

const (
	TableMessages   = "messages"
	EventInsert     = "INSERT"
	EventSubscribed = "SUBSCRIBED"
)

const UserIDKey = "user_id"

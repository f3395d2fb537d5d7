package kafka

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/consts"
	"Chatwave/internal/pkg/realtime"
	"Chatwave/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
)

// canalTimeLayout canal 输出的 datetime 列格式，解析时兼容小数秒
const canalTimeLayout = "2006-01-02 15:04:05"

// MessageHandler 把 messages 表的 binlog 插入转发到实时频道
type MessageHandler struct {
	publisher   realtime.Publisher
	profileRepo repository.ProfileRepo
}

func NewMessageHandler(publisher realtime.Publisher, profileRepo repository.ProfileRepo) *MessageHandler {
	return &MessageHandler{
		publisher:   publisher,
		profileRepo: profileRepo,
	}
}

func (s *MessageHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("message relay setup")
	return nil
}

func (s *MessageHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("message relay cleanup")
	return nil
}

func (s *MessageHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	log.Info("message relay consume claim", "partition", claim.Partition())
	if err := pullMessageBatch(session, claim, s.logic); err != nil {
		log.Error("process batch error", "err", err)
		return err
	}
	return nil
}

func (s *MessageHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	canalMsg, err := ToCanalMessage(msg.Value, consts.TableMessages)
	if err != nil {
		return err
	}
	if canalMsg.Type != CanalInsert {
		return ErrSkip
	}

	for _, row := range canalMsg.Data {
		record, err := RowToMessageDTO(row)
		if err != nil {
			log.Warn("skip malformed message row", "err", err)
			continue
		}
		s.attachAuthor(ctx, record)
		if err = s.publisher.PublishInsert(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

// attachAuthor 补齐作者资料，失败时照常推送
func (s *MessageHandler) attachAuthor(ctx context.Context, record *dto.MessageDTO) {
	if s.profileRepo == nil {
		return
	}
	profile, err := s.profileRepo.GetProfileByID(ctx, record.AuthorID)
	if err != nil || profile == nil {
		return
	}
	record.Author = &dto.ProfileDTO{
		ID:          profile.ID,
		Phone:       profile.Phone,
		DisplayName: profile.DisplayName,
		AvatarURL:   profile.AvatarURL,
	}
}

// RowToMessageDTO canal 行数据转推送记录
func RowToMessageDTO(row map[string]interface{}) (*dto.MessageDTO, error) {
	id := strToUint64(row["id"])
	chatID := strToUint64(row["chat_id"])
	if id == 0 || chatID == 0 {
		return nil, fmt.Errorf("row missing id or chat_id: %v", row["id"])
	}

	createdAt, err := time.ParseInLocation(canalTimeLayout, strOf(row["created_at"]), time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	return &dto.MessageDTO{
		ID:            id,
		ChatID:        chatID,
		AuthorID:      strToUint64(row["author_id"]),
		Content:       strOf(row["content"]),
		MessageType:   strOf(row["message_type"]),
		ImageURL:      strOf(row["image_url"]),
		ImageWidth:    strToInt(row["image_width"]),
		ImageHeight:   strToInt(row["image_height"]),
		VoiceURL:      strOf(row["voice_url"]),
		VoiceDuration: strToInt(row["voice_duration"]),
		VideoURL:      strOf(row["video_url"]),
		VideoDuration: strToInt(row["video_duration"]),
		AgentID:       strToUint64(row["agent_id"]),
		ExecutionID:   strOf(row["execution_id"]),
		Reactions:     strOf(row["reactions"]),
		CreatedAt:     createdAt,
	}, nil
}

func strOf(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func strToUint64(v interface{}) uint64 {
	n, _ := strconv.ParseUint(strOf(v), 10, 64)
	return n
}

func strToInt(v interface{}) int {
	n, _ := strconv.Atoi(strOf(v))
	return n
}

package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/model"

	"github.com/jinzhu/copier"
)

func toProfileDTO(p *model.Profile) *dto.ProfileDTO {
	if p == nil {
		return nil
	}
	out := &dto.ProfileDTO{}
	_ = copier.Copy(out, p)
	return out
}

// ToMessageDTO 模型转消息明细，作者资料已预加载时一并带出
func ToMessageDTO(m *model.Message) *dto.MessageDTO {
	if m == nil {
		return nil
	}
	out := &dto.MessageDTO{}
	_ = copier.Copy(out, m)
	out.Author = toProfileDTO(m.Author)
	return out
}

func toMessageDTOs(msgs []*model.Message) []*dto.MessageDTO {
	res := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, ToMessageDTO(m))
	}
	return res
}

func toAgentDTO(a *model.AIAgent) *dto.AgentDTO {
	out := &dto.AgentDTO{}
	_ = copier.Copy(out, a)
	return out
}

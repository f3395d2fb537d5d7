package client

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/chatsync"
	"Chatwave/internal/pkg/logger"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const requestTimeout = 30 * time.Second

// APIError 服务端返回的业务错误
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// RestBackend 通过 REST 接口访问后端，实现 MessageSource 与 Uploader
type RestBackend struct {
	rc *resty.Client
}

func NewRestBackend(baseURL string, token func() string) *RestBackend {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(requestTimeout).
		SetTransport(logger.NewHTTPTransport()).
		SetJSONMarshaler(json.Marshal).
		SetJSONUnmarshaler(json.Unmarshal).
		OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
			if t := token(); t != "" {
				r.SetAuthToken(t)
			}
			return nil
		})
	return &RestBackend{rc: rc}
}

// call 发送请求并拆出 data，业务码非 200 时返回 APIError
func (s *RestBackend) call(ctx context.Context, method, path string, body, out interface{}) error {
	var env envelope
	req := s.rc.R().SetContext(ctx).SetResult(&env)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	return unwrap(resp, &env, out)
}

func unwrap(resp *resty.Response, env *envelope, out interface{}) error {
	if resp.IsError() {
		return &APIError{Code: resp.StatusCode(), Message: fmt.Sprintf("http %s", resp.Status())}
	}
	if env.Code != 200 {
		return &APIError{Code: env.Code, Message: env.Message}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

func (s *RestBackend) LoadMessages(ctx context.Context, chatID string) ([]*chatsync.Message, error) {
	var list []*dto.MessageDTO
	if err := s.call(ctx, resty.MethodGet, "/chats/"+chatID+"/messages", nil, &list); err != nil {
		return nil, err
	}
	msgs := make([]*chatsync.Message, 0, len(list))
	for _, d := range list {
		msgs = append(msgs, ToMessage(d))
	}
	return msgs, nil
}

func (s *RestBackend) InsertMessage(ctx context.Context, draft *chatsync.Draft) (*chatsync.Message, error) {
	fields := chatsync.FieldsOf(draft.Body)
	typ := chatsync.TypeText
	if draft.Body != nil {
		typ = draft.Body.Type()
	}
	req := &dto.SendMessageReq{
		Content:       draft.Content,
		MessageType:   string(typ),
		ImageURL:      fields.ImageURL,
		ImageWidth:    fields.ImageWidth,
		ImageHeight:   fields.ImageHeight,
		VoiceURL:      fields.VoiceURL,
		VoiceDuration: fields.VoiceDuration,
		VideoURL:      fields.VideoURL,
		VideoDuration: fields.VideoDuration,
	}

	var out dto.MessageDTO
	if err := s.call(ctx, resty.MethodPost, "/chats/"+draft.ChatID+"/messages", req, &out); err != nil {
		return nil, err
	}
	return ToMessage(&out), nil
}

func (s *RestBackend) HideMessage(ctx context.Context, messageID string) error {
	return s.call(ctx, resty.MethodPost, "/messages/"+messageID+"/hide", nil, nil)
}

func (s *RestBackend) DeleteMessage(ctx context.Context, messageID string) error {
	return s.call(ctx, resty.MethodDelete, "/messages/"+messageID, nil, nil)
}

func (s *RestBackend) MarkRead(ctx context.Context, chatID string) error {
	return s.call(ctx, resty.MethodPost, "/chats/"+chatID+"/read", nil, nil)
}

func (s *RestBackend) GetProfile(ctx context.Context, userID string) (*chatsync.Profile, error) {
	var out dto.ProfileDTO
	if err := s.call(ctx, resty.MethodGet, "/profiles/"+userID, nil, &out); err != nil {
		return nil, err
	}
	return toProfile(&out), nil
}

func (s *RestBackend) GetChatTitle(ctx context.Context, chatID string) (string, error) {
	var out dto.ChatTitleDTO
	if err := s.call(ctx, resty.MethodGet, "/chats/"+chatID+"/title", nil, &out); err != nil {
		return "", err
	}
	return out.Title, nil
}

// Upload multipart 上传到指定 bucket/path，返回公开 URL
func (s *RestBackend) Upload(ctx context.Context, bucket, path string, r io.Reader, size int64, contentType string) (string, error) {
	var env envelope
	name := path[strings.LastIndex(path, "/")+1:]
	resp, err := s.rc.R().
		SetContext(ctx).
		SetMultipartFormData(map[string]string{"bucket": bucket, "path": path}).
		SetMultipartField("file", name, contentType, r).
		SetResult(&env).
		Post("/media/upload")
	if err != nil {
		return "", errors.Wrap(err, "upload media")
	}

	var out dto.UploadResultDTO
	if err = unwrap(resp, &env, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", errors.New("upload returned empty url")
	}
	return out.URL, nil
}

// AddReaction 给消息追加表情
func (s *RestBackend) AddReaction(ctx context.Context, messageID, emoji string) error {
	return s.call(ctx, resty.MethodPost, "/messages/"+messageID+"/reactions", &dto.ReactionReq{Emoji: emoji}, nil)
}

// DispatchAgent 把文本交给智能体，回复经由推送到达
func (s *RestBackend) DispatchAgent(ctx context.Context, agentID, chatID, message string) (*dto.DispatchResultDTO, error) {
	cid, err := strconv.ParseUint(chatID, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "invalid chat id")
	}
	var out dto.DispatchResultDTO
	req := &dto.DispatchReq{ChatID: cid, Message: message}
	if err = s.call(ctx, resty.MethodPost, "/agents/"+agentID+"/dispatch", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout 通知服务端拉黑当前 Token
func (s *RestBackend) Logout(ctx context.Context, token string) error {
	var env envelope
	resp, err := s.rc.R().SetContext(ctx).SetAuthToken(token).SetResult(&env).Post("/auth/logout")
	if err != nil {
		return errors.Wrap(err, "logout")
	}
	return unwrap(resp, &env, nil)
}

// ToMessage 线上消息转为引擎模型
func ToMessage(d *dto.MessageDTO) *chatsync.Message {
	if d == nil {
		return nil
	}
	typ := chatsync.MessageType(d.MessageType)
	m := &chatsync.Message{
		ID:       chatsync.ConfirmedID(formatID(d.ID)),
		ChatID:   formatID(d.ChatID),
		AuthorID: formatID(d.AuthorID),
		Content:  d.Content,
		Body: chatsync.BodyFor(typ, chatsync.BodyFields{
			ImageURL:      d.ImageURL,
			ImageWidth:    d.ImageWidth,
			ImageHeight:   d.ImageHeight,
			VoiceURL:      d.VoiceURL,
			VoiceDuration: d.VoiceDuration,
			VideoURL:      d.VideoURL,
			VideoDuration: d.VideoDuration,
			AgentID:       formatOptionalID(d.AgentID),
			ExecutionID:   d.ExecutionID,
		}),
		CreatedAt: d.CreatedAt,
		Reactions: d.Reactions,
	}
	if d.Author != nil {
		m.Author = toProfile(d.Author)
	}
	return m
}

func toProfile(p *dto.ProfileDTO) *chatsync.Profile {
	return &chatsync.Profile{
		ID:          formatID(p.ID),
		DisplayName: p.DisplayName,
		Phone:       p.Phone,
		AvatarURL:   p.AvatarURL,
	}
}

func formatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func formatOptionalID(id uint64) string {
	if id == 0 {
		return ""
	}
	return formatID(id)
}

package service

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/model"
	"Chatwave/internal/pkg/mongo"
	"Chatwave/internal/pkg/n8n"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

var errBoom = errors.New("boom")

type fakeDB struct {
	mu       sync.Mutex
	nextID   uint64
	profiles map[uint64]*model.Profile
	chats    map[uint64]*model.Chat
	parts    map[uint64]map[uint64]*model.ChatParticipant
	messages map[uint64]*model.Message
	hides    map[uint64]map[uint64]bool
	agents   map[uint64]*model.AIAgent
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		nextID:   100,
		profiles: map[uint64]*model.Profile{},
		chats:    map[uint64]*model.Chat{},
		parts:    map[uint64]map[uint64]*model.ChatParticipant{},
		messages: map[uint64]*model.Message{},
		hides:    map[uint64]map[uint64]bool{},
		agents:   map[uint64]*model.AIAgent{},
	}
}

func (s *fakeDB) id() uint64 {
	s.nextID++
	return s.nextID
}

func (s *fakeDB) addProfile(id uint64, phone, name string) {
	s.profiles[id] = &model.Profile{ID: id, Phone: phone, DisplayName: name}
}

func (s *fakeDB) addChat(id uint64, isGroup bool, members map[uint64]string) {
	s.chats[id] = &model.Chat{ID: id, IsGroup: isGroup, GroupName: "team"}
	s.parts[id] = map[uint64]*model.ChatParticipant{}
	for uid, role := range members {
		s.parts[id][uid] = &model.ChatParticipant{ChatID: id, UserID: uid, Role: role}
	}
}

func (s *fakeDB) chatMessages(chatID uint64) []*model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*model.Message
	for _, m := range s.messages {
		if m.ChatID == chatID {
			res = append(res, m)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// profile repo

type fakeProfileRepo struct{ db *fakeDB }

func (s fakeProfileRepo) GetProfileByID(_ context.Context, id uint64) (*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if p, ok := s.db.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (s fakeProfileRepo) GetProfilesByIDs(_ context.Context, ids []uint64) ([]*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var res []*model.Profile
	for _, id := range ids {
		if p, ok := s.db.profiles[id]; ok {
			res = append(res, p)
		}
	}
	return res, nil
}

func (s fakeProfileRepo) GetProfileByPhone(_ context.Context, phone string) (*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.profiles {
		if p.Phone == phone {
			return p, nil
		}
	}
	return nil, nil
}

func (s fakeProfileRepo) UpdateProfile(_ context.Context, id uint64, updates map[string]interface{}) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p := s.db.profiles[id]
	if v, ok := updates["display_name"]; ok {
		p.DisplayName = v.(string)
	}
	if v, ok := updates["avatar_url"]; ok {
		p.AvatarURL = v.(string)
	}
	return nil
}

// chat repo

type fakeChatRepo struct{ db *fakeDB }

func (s fakeChatRepo) CreateChat(_ context.Context, chat *model.Chat, participants []*model.ChatParticipant, sysMsg *model.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	chat.ID = s.db.id()
	s.db.chats[chat.ID] = chat
	s.db.parts[chat.ID] = map[uint64]*model.ChatParticipant{}
	for _, p := range participants {
		p.ChatID = chat.ID
		s.db.parts[chat.ID][p.UserID] = p
	}
	if sysMsg != nil {
		sysMsg.ChatID = chat.ID
		sysMsg.ID = s.db.id()
		s.db.messages[sysMsg.ID] = sysMsg
	}
	return nil
}

func (s fakeChatRepo) GetChat(_ context.Context, chatID uint64) (*model.Chat, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.chats[chatID], nil
}

func (s fakeChatRepo) GetChatByDirectKey(_ context.Context, key string) (*model.Chat, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.chats {
		if c.DirectKey != nil && *c.DirectKey == key {
			return c, nil
		}
	}
	return nil, nil
}

func (s fakeChatRepo) UpdateGroup(_ context.Context, chatID uint64, updates map[string]interface{}) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if v, ok := updates["group_name"]; ok {
		s.db.chats[chatID].GroupName = v.(string)
	}
	return nil
}

func (s fakeChatRepo) DeleteChat(_ context.Context, chatID uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.chats, chatID)
	delete(s.db.parts, chatID)
	for id, m := range s.db.messages {
		if m.ChatID == chatID {
			delete(s.db.messages, id)
			delete(s.db.hides, id)
		}
	}
	return nil
}

func (s fakeChatRepo) GetParticipant(_ context.Context, chatID, userID uint64) (*model.ChatParticipant, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.parts[chatID][userID], nil
}

func (s fakeChatRepo) IsParticipant(_ context.Context, chatID, userID uint64) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	_, ok := s.db.parts[chatID][userID]
	return ok, nil
}

func (s fakeChatRepo) ListParticipantIDs(_ context.Context, chatID uint64) ([]uint64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var ids []uint64
	for id := range s.db.parts[chatID] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s fakeChatRepo) AddParticipants(_ context.Context, chatID uint64, userIDs []uint64, sysMsg *model.Message) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var added int64
	for _, id := range userIDs {
		if _, ok := s.db.parts[chatID][id]; ok {
			continue
		}
		s.db.parts[chatID][id] = &model.ChatParticipant{ChatID: chatID, UserID: id, Role: "member"}
		added++
	}
	if added > 0 && sysMsg != nil {
		sysMsg.ChatID = chatID
		sysMsg.ID = s.db.id()
		s.db.messages[sysMsg.ID] = sysMsg
	}
	return added, nil
}

func (s fakeChatRepo) RemoveParticipant(_ context.Context, chatID, userID uint64, sysMsg *model.Message) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, ok := s.db.parts[chatID][userID]; !ok {
		return gorm.ErrRecordNotFound
	}
	if sysMsg != nil {
		sysMsg.ChatID = chatID
		sysMsg.ID = s.db.id()
		s.db.messages[sysMsg.ID] = sysMsg
	}
	delete(s.db.parts[chatID], userID)
	return nil
}

func (s fakeChatRepo) UpdateLastRead(_ context.Context, chatID, userID uint64, at time.Time) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.parts[chatID][userID].LastReadAt = &at
	return nil
}

func (s fakeChatRepo) ListUserChats(_ context.Context, userID uint64) ([]*model.ChatSummary, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var res []*model.ChatSummary
	for id, members := range s.db.parts {
		p, ok := members[userID]
		if !ok {
			continue
		}
		sum := &model.ChatSummary{Chat: *s.db.chats[id]}
		for _, m := range s.db.messages {
			if m.ChatID == id && m.AuthorID != userID && (p.LastReadAt == nil || m.CreatedAt.After(*p.LastReadAt)) {
				sum.UnreadCount++
			}
		}
		res = append(res, sum)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s fakeChatRepo) GetPeerProfiles(_ context.Context, chatIDs []uint64, userID uint64) (map[uint64]*model.Profile, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	res := map[uint64]*model.Profile{}
	for _, cid := range chatIDs {
		for uid := range s.db.parts[cid] {
			if uid != userID {
				res[cid] = s.db.profiles[uid]
			}
		}
	}
	return res, nil
}

// message repo

type fakeMessageRepo struct {
	db        *fakeDB
	createErr error
}

func (s *fakeMessageRepo) ListVisible(_ context.Context, chatID, viewerID uint64) ([]*model.Message, error) {
	var res []*model.Message
	for _, m := range s.db.chatMessages(chatID) {
		if !s.db.hides[m.ID][viewerID] {
			res = append(res, m)
		}
	}
	return res, nil
}

func (s *fakeMessageRepo) GetMessage(_ context.Context, id uint64) (*model.Message, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if m, ok := s.db.messages[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, nil
}

func (s *fakeMessageRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	msg.ID = s.db.id()
	s.db.messages[msg.ID] = msg
	return nil
}

func (s *fakeMessageRepo) DeleteMessage(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.messages, id)
	delete(s.db.hides, id)
	return nil
}

func (s *fakeMessageRepo) HideMessage(_ context.Context, messageID, userID uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.hides[messageID] == nil {
		s.db.hides[messageID] = map[uint64]bool{}
	}
	s.db.hides[messageID][userID] = true
	return nil
}

func (s *fakeMessageRepo) AppendReaction(_ context.Context, id uint64, emoji string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.messages[id].Reactions += emoji
	return nil
}

func (s *fakeMessageRepo) GetLastMessages(_ context.Context, chatIDs []uint64) (map[uint64]*model.Message, error) {
	res := map[uint64]*model.Message{}
	for _, cid := range chatIDs {
		msgs := s.db.chatMessages(cid)
		if len(msgs) > 0 {
			res[cid] = msgs[len(msgs)-1]
		}
	}
	return res, nil
}

// agent repo

type fakeAgentRepo struct{ db *fakeDB }

func (s fakeAgentRepo) CreateAgent(_ context.Context, agent *model.AIAgent) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	agent.ID = s.db.id()
	s.db.agents[agent.ID] = agent
	return nil
}

func (s fakeAgentRepo) GetAgent(_ context.Context, id uint64) (*model.AIAgent, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.agents[id], nil
}

func (s fakeAgentRepo) ListAgentsByUser(_ context.Context, userID uint64) ([]*model.AIAgent, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var res []*model.AIAgent
	for _, a := range s.db.agents {
		if a.UserID == userID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (s fakeAgentRepo) UpdateAgent(_ context.Context, id uint64, updates map[string]interface{}) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if v, ok := updates["is_active"]; ok {
		s.db.agents[id].IsActive = v.(bool)
	}
	if v, ok := updates["agent_name"]; ok {
		s.db.agents[id].AgentName = v.(string)
	}
	return nil
}

func (s fakeAgentRepo) DeleteAgent(_ context.Context, id uint64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	delete(s.db.agents, id)
	return nil
}

// execution repo

type fakeExecRepo struct {
	mu    sync.Mutex
	execs map[string]*mongo.AgentExecution
}

func newFakeExecRepo() *fakeExecRepo {
	return &fakeExecRepo{execs: map[string]*mongo.AgentExecution{}}
}

func (s *fakeExecRepo) Create(_ context.Context, exec *mongo.AgentExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.execs[exec.ID] = exec
	return nil
}

func (s *fakeExecRepo) Complete(_ context.Context, id, output string, metadata map[string]interface{}) (*mongo.AgentExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.execs[id]
	if !ok || e.Status != "running" {
		return nil, mongo.ErrExecutionNotRunning
	}
	e.Status = "completed"
	e.OutputMessage = output
	e.Metadata = metadata
	return e, nil
}

func (s *fakeExecRepo) Fail(_ context.Context, id string, metadata map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.execs[id]
	if !ok || e.Status != "running" {
		return mongo.ErrExecutionNotRunning
	}
	e.Status = "failed"
	e.Metadata = metadata
	return nil
}

func (s *fakeExecRepo) GetByID(_ context.Context, id string) (*mongo.AgentExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.execs[id]
	if !ok {
		return nil, mongodrv.ErrNoDocuments
	}
	return e, nil
}

func (s *fakeExecRepo) ListByAgent(_ context.Context, agentID uint64, limit int64) ([]*mongo.AgentExecution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var res []*mongo.AgentExecution
	for _, e := range s.execs {
		if e.AgentID == agentID {
			res = append(res, e)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	if int64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (s *fakeExecRepo) EnsureIndexes(context.Context) error { return nil }

func (s *fakeExecRepo) only() *mongo.AgentExecution {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.execs {
		return e
	}
	return nil
}

// publisher

type fakePublisher struct {
	mu     sync.Mutex
	events []*dto.MessageDTO
	err    error
}

func (s *fakePublisher) PublishInsert(_ context.Context, msg *dto.MessageDTO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, msg)
	return s.err
}

func (s *fakePublisher) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

// media

type fakeMedia struct {
	mu      sync.Mutex
	claimed []string
}

func (s *fakeMedia) Upload(context.Context, uint64, string, string, io.Reader, int64, string) (string, error) {
	return "", nil
}

func (s *fakeMedia) Claim(_ context.Context, urls ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimed = append(s.claimed, urls...)
	return nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string]string
	temp    map[string]*dto.MediaTempMetadata
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string]string{}, temp: map[string]*dto.MediaTempMetadata{}}
}

func (s *fakeStore) Put(_ context.Context, bucket, object string, r io.Reader, _ int64, contentType string) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	data, _ := io.ReadAll(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+object] = contentType + ":" + string(data)
	return "http://cdn.local/" + bucket + "/" + object, nil
}

func (s *fakeStore) Remove(_ context.Context, bucket, object string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, bucket+"/"+object)
	return nil
}

func (s *fakeStore) MarkTemp(_ context.Context, field string, meta *dto.MediaTempMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temp[field] = meta
	return nil
}

func (s *fakeStore) ClearTemp(_ context.Context, fields ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range fields {
		delete(s.temp, f)
	}
	return nil
}

func (s *fakeStore) ListTemp(context.Context) (map[string]*dto.MediaTempMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make(map[string]*dto.MediaTempMetadata, len(s.temp))
	for k, v := range s.temp {
		res[k] = v
	}
	return res, nil
}

// workflow

type fakeWorkflow struct {
	mu       sync.Mutex
	payloads []*n8n.Payload
	targets  []n8n.Target
	reply    string
	err      error
}

func (s *fakeWorkflow) Trigger(_ context.Context, t n8n.Target, payload *n8n.Payload) (*n8n.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	s.targets = append(s.targets, t)
	if s.err != nil {
		return &n8n.Result{StatusCode: 502}, s.err
	}
	return &n8n.Result{StatusCode: 200, Message: s.reply, Raw: map[string]interface{}{"message": s.reply}}, nil
}

func contents(msgs []*model.Message) []string {
	res := make([]string, 0, len(msgs))
	for _, m := range msgs {
		res = append(res, m.Content)
	}
	return res
}

func joined(ss []string) string { return strings.Join(ss, "|") }

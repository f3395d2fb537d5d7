package mongo

import (
	"Chatwave/internal/pkg/consts"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrExecutionNotRunning 执行记录不存在或已结束
var ErrExecutionNotRunning = errors.New("execution not running")

type AgentExecutionRepo interface {
	Create(ctx context.Context, exec *AgentExecution) error
	// Complete 原子地将 running 记录置为 completed，只有第一次调用会成功
	Complete(ctx context.Context, id, output string, metadata map[string]interface{}) (*AgentExecution, error)
	Fail(ctx context.Context, id string, metadata map[string]interface{}) error
	GetByID(ctx context.Context, id string) (*AgentExecution, error)
	ListByAgent(ctx context.Context, agentID uint64, limit int64) ([]*AgentExecution, error)
	EnsureIndexes(ctx context.Context) error
}

type agentExecutionRepoImpl struct {
	col *mongo.Collection
}

func NewAgentExecutionRepo(db *mongo.Database) AgentExecutionRepo {
	return &agentExecutionRepoImpl{
		col: db.Collection("agent_executions"),
	}
}

func (s *agentExecutionRepoImpl) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "agent_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (s *agentExecutionRepoImpl) Create(ctx context.Context, exec *AgentExecution) error {
	if exec.CreatedAt.IsZero() {
		exec.CreatedAt = time.Now()
	}
	if exec.Status == "" {
		exec.Status = consts.ExecutionRunning
	}
	_, err := s.col.InsertOne(ctx, exec)
	return err
}

func (s *agentExecutionRepoImpl) Complete(ctx context.Context, id, output string, metadata map[string]interface{}) (*AgentExecution, error) {
	filter := bson.M{"_id": id, "status": consts.ExecutionRunning}
	set := bson.M{
		"status":         consts.ExecutionCompleted,
		"output_message": output,
		"completed_at":   time.Now(),
	}
	if metadata != nil {
		set["metadata"] = metadata
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var exec AgentExecution
	err := s.col.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&exec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrExecutionNotRunning
	}
	if err != nil {
		return nil, err
	}
	return &exec, nil
}

func (s *agentExecutionRepoImpl) Fail(ctx context.Context, id string, metadata map[string]interface{}) error {
	filter := bson.M{"_id": id, "status": consts.ExecutionRunning}
	update := bson.M{"$set": bson.M{
		"status":       consts.ExecutionFailed,
		"metadata":     metadata,
		"completed_at": time.Now(),
	}}
	res, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrExecutionNotRunning
	}
	return nil
}

func (s *agentExecutionRepoImpl) GetByID(ctx context.Context, id string) (*AgentExecution, error) {
	var exec AgentExecution
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&exec); err != nil {
		return nil, err
	}
	return &exec, nil
}

// ListByAgent 最近的执行记录，新的在前
func (s *agentExecutionRepoImpl) ListByAgent(ctx context.Context, agentID uint64, limit int64) ([]*AgentExecution, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.col.Find(ctx, bson.M{"agent_id": agentID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*AgentExecution, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/animathic/backend/internal/domain"
)

// DynamoDBRepository implements JobRepository and VideoRepository,
// using attributevalue.MarshalMap/UnmarshalMap; every write, including
// updates, is a whole-item PutItem.
type DynamoDBRepository struct {
	client     *dynamodb.Client
	jobsTable  string
	videoTable string
	logsTable  string
	logger     *zap.Logger
}

// NewDynamoDBRepository constructs a DynamoDBRepository over three tables:
// jobs, videos and generation logs. Users are not stored here; identity
// comes from the verified token.
func NewDynamoDBRepository(client *dynamodb.Client, jobsTable, videoTable, logsTable string, logger *zap.Logger) *DynamoDBRepository {
	return &DynamoDBRepository{client: client, jobsTable: jobsTable, videoTable: videoTable, logsTable: logsTable, logger: logger}
}

// --- JobRepository ---

func (r *DynamoDBRepository) CreateJob(ctx context.Context, job *domain.Job) error {
	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.jobsTable), Item: item}); err != nil {
		r.logger.Error("create job failed", zap.String("job_id", job.JobID), zap.Error(err))
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

func (r *DynamoDBRepository) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.jobsTable),
		Key:       map[string]types.AttributeValue{"job_id": &types.AttributeValueMemberS{Value: jobID}},
	})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if result.Item == nil {
		return nil, ErrJobNotFound
	}
	var job domain.Job
	if err := attributevalue.UnmarshalMap(result.Item, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (r *DynamoDBRepository) UpdateJob(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = time.Now().Unix()
	item, err := attributevalue.MarshalMap(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.jobsTable), Item: item}); err != nil {
		r.logger.Error("update job failed", zap.String("job_id", job.JobID), zap.Error(err))
		return fmt.Errorf("put job: %w", err)
	}
	return nil
}

func (r *DynamoDBRepository) DeleteJob(ctx context.Context, jobID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.jobsTable),
		Key:       map[string]types.AttributeValue{"job_id": &types.AttributeValueMemberS{Value: jobID}},
	})
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// --- VideoRepository ---

func (r *DynamoDBRepository) CreateVideo(ctx context.Context, userID, prompt string) (*domain.Video, error) {
	videoID, err := newULID()
	if err != nil {
		return nil, fmt.Errorf("generate video id: %w", err)
	}
	now := time.Now().Unix()
	video := &domain.Video{
		VideoID:   videoID,
		UserID:    userID,
		Prompt:    prompt,
		Status:    domain.VideoProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	item, err := attributevalue.MarshalMap(video)
	if err != nil {
		return nil, fmt.Errorf("marshal video: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.videoTable), Item: item}); err != nil {
		r.logger.Error("create video failed", zap.String("video_id", videoID), zap.Error(err))
		return nil, fmt.Errorf("put video: %w", err)
	}
	return video, nil
}

// UpdateVideo only the owning user_id may update (§4.8); ownership is
// enforced with a conditional expression against the stored user_id,
// never by trusting the caller's copy of the row.
func (r *DynamoDBRepository) UpdateVideo(ctx context.Context, video *domain.Video) error {
	video.UpdatedAt = time.Now().Unix()
	item, err := attributevalue.MarshalMap(video)
	if err != nil {
		return fmt.Errorf("marshal video: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.videoTable),
		Item:                item,
		ConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: video.UserID},
		},
	})
	if err != nil {
		return fmt.Errorf("put video: %w", err)
	}
	return nil
}

func (r *DynamoDBRepository) GetVideo(ctx context.Context, userID, videoID string) (*domain.Video, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.videoTable),
		Key:       map[string]types.AttributeValue{"video_id": &types.AttributeValueMemberS{Value: videoID}},
	})
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	if result.Item == nil {
		return nil, ErrVideoNotFound
	}
	var video domain.Video
	if err := attributevalue.UnmarshalMap(result.Item, &video); err != nil {
		return nil, fmt.Errorf("unmarshal video: %w", err)
	}
	if video.UserID != userID {
		// §8 scenario 5: cross-user access surfaces identically to
		// not-found, never revealing the row exists.
		return nil, ErrVideoNotFound
	}
	return &video, nil
}

func (r *DynamoDBRepository) ListVideos(ctx context.Context, userID string) ([]domain.Video, error) {
	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.videoTable),
		IndexName:              aws.String("user-videos-index"),
		KeyConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	var videos []domain.Video
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &videos); err != nil {
		return nil, fmt.Errorf("unmarshal videos: %w", err)
	}
	return videos, nil
}

func (r *DynamoDBRepository) DeleteVideo(ctx context.Context, userID, videoID string) error {
	if _, err := r.GetVideo(ctx, userID, videoID); err != nil {
		return err
	}
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.videoTable),
		Key:       map[string]types.AttributeValue{"video_id": &types.AttributeValueMemberS{Value: videoID}},
		ConditionExpression: aws.String("user_id = :user_id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

// LogAttempt appends a GenerationAttempt row. Always PutItem, never
// UpdateItem: generation_logs is append-only (§6 "persisted state layout").
func (r *DynamoDBRepository) LogAttempt(ctx context.Context, attempt *domain.GenerationAttempt) error {
	item, err := attributevalue.MarshalMap(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if _, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(r.logsTable), Item: item}); err != nil {
		r.logger.Error("log attempt failed", zap.String("video_id", attempt.VideoID), zap.Error(err))
		return fmt.Errorf("put attempt: %w", err)
	}
	return nil
}

// HealthCheck performs a lightweight health check on both tables.
func (r *DynamoDBRepository) HealthCheck(ctx context.Context) error {
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.jobsTable)}); err != nil {
		return fmt.Errorf("dynamodb health check (jobs): %w", err)
	}
	if _, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.videoTable)}); err != nil {
		return fmt.Errorf("dynamodb health check (videos): %w", err)
	}
	return nil
}

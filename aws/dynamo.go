package aws

import (
	"context"
	"fmt"

	"hearly/transcription-api/apperr"
	"hearly/transcription-api/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FileStore is the metadata store client for the files table, keyed by
// (user_id, file_id). All writes are keyed point operations; the table's
// per-item atomicity is what keeps concurrent polls consistent.
type FileStore struct {
	C     *dynamodb.Client
	Table string
}

func NewFileStore(cfg aws.Config, table string) *FileStore {
	return &FileStore{
		C:     dynamodb.NewFromConfig(cfg),
		Table: table,
	}
}

func fileKey(userID, fileID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"user_id": &types.AttributeValueMemberS{Value: userID},
		"file_id": &types.AttributeValueMemberS{Value: fileID},
	}
}

func (s *FileStore) GetFile(ctx context.Context, userID, fileID string) (*model.FileRecord, error) {
	out, err := s.C.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.Table),
		Key:       fileKey(userID, fileID),
	})
	if err != nil {
		return nil, apperr.FromAPI(err, "failed to load file record")
	}

	if out.Item == nil {
		return nil, apperr.New(apperr.KindNotFound, "File not found in database")
	}

	var rec model.FileRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, apperr.Wrap(apperr.KindIntegrity, "file record is malformed", err)
	}
	return &rec, nil
}

func (s *FileStore) PutFile(ctx context.Context, rec *model.FileRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "failed to marshal file record", err)
	}

	_, err = s.C.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item:      item,
	})
	if err != nil {
		return apperr.FromAPI(err, "failed to save file record")
	}
	return nil
}

// SetResult persists a terminal poll outcome. Repeated calls with the
// same values are harmless, which is what makes concurrent polls safe.
func (s *FileStore) SetResult(ctx context.Context, userID, fileID, status, language string) error {
	expr := "SET #status = :status"
	names := map[string]string{"#status": "status"}
	values := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: status},
	}

	if language != "" {
		expr += ", #language = :language"
		names["#language"] = "language"
		values[":language"] = &types.AttributeValueMemberS{Value: language}
	}

	_, err := s.C.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.Table),
		Key:                       fileKey(userID, fileID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return apperr.FromAPI(err, fmt.Sprintf("failed to update status of '%s'", fileID))
	}
	return nil
}

func (s *FileStore) DeleteFile(ctx context.Context, userID, fileID string) error {
	_, err := s.C.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.Table),
		Key:       fileKey(userID, fileID),
	})
	if err != nil {
		return apperr.FromAPI(err, "failed to delete file record")
	}
	return nil
}

// ListFiles returns every record of one user, newest upload first.
func (s *FileStore) ListFiles(ctx context.Context, userID string) ([]model.FileRecord, error) {
	out, err := s.C.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.Table),
		KeyConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, apperr.FromAPI(err, "failed to list file records")
	}

	recs := make([]model.FileRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec model.FileRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, apperr.Wrap(apperr.KindIntegrity, "file record is malformed", err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// UserStore writes profile rows at signup. Credentials stay with the
// identity provider.
type UserStore struct {
	C     *dynamodb.Client
	Table string
}

func NewUserStore(cfg aws.Config, table string) *UserStore {
	return &UserStore{
		C:     dynamodb.NewFromConfig(cfg),
		Table: table,
	}
}

func (s *UserStore) PutUser(ctx context.Context, u *model.UserProfile) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "failed to marshal user profile", err)
	}

	_, err = s.C.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.Table),
		Item:      item,
	})
	if err != nil {
		return apperr.FromAPI(err, "failed to save user profile")
	}
	return nil
}

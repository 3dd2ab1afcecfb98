package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ObjectAPI is the subset of the S3 client used here.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// TableAPI is the subset of the DynamoDB client used here.
type TableAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// AWSStorage provides AWS-backed storage using DynamoDB and S3
type AWSStorage struct {
	dynamoDB  TableAPI
	s3Client  ObjectAPI
	tableName string
	bucket    string
	region    string
}

// DynamoDBItem represents an item stored in DynamoDB
type DynamoDBItem struct {
	PK        string `dynamodbav:"PK"`
	Data      string `dynamodbav:"Data"`
	Timestamp string `dynamodbav:"Timestamp"`
}

// NewAWSStorage creates a new AWS storage instance
func NewAWSStorage(ctx context.Context, tableName, bucket, region, profile string) (*AWSStorage, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return NewAWSStorageWithClients(dynamodb.NewFromConfig(cfg), s3.NewFromConfig(cfg), tableName, bucket, region), nil
}

// NewAWSStorageWithClients builds an AWSStorage around existing clients.
func NewAWSStorageWithClients(table TableAPI, objects ObjectAPI, tableName, bucket, region string) *AWSStorage {
	return &AWSStorage{
		dynamoDB:  table,
		s3Client:  objects,
		tableName: tableName,
		bucket:    bucket,
		region:    region,
	}
}

// Bucket returns the default bucket.
func (s *AWSStorage) Bucket() string { return s.bucket }

// PutObject writes body to bucket/key. An empty bucket means the default one.
func (s *AWSStorage) PutObject(ctx context.Context, bucket, key, contentType string, body []byte) error {
	if bucket == "" {
		bucket = s.bucket
	}
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3 bucket %s: %w", bucket, err)
	}
	return nil
}

// GetObject reads bucket/key, reporting ok=false when the key does not exist.
func (s *AWSStorage) GetObject(ctx context.Context, bucket, key string) ([]byte, bool, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("getting object from S3 bucket %s: %w", bucket, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, false, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, true, nil
}

// Objects returns a Store keeping one S3 object per key under prefix.
func (s *AWSStorage) Objects(prefix string) *ObjectStore {
	return &ObjectStore{aws: s, prefix: prefix}
}

// Table returns a Store keeping one DynamoDB item per key.
func (s *AWSStorage) Table() *TableStore {
	return &TableStore{aws: s}
}

// ObjectStore is a Store over S3 objects.
type ObjectStore struct {
	aws    *AWSStorage
	prefix string
}

func (o *ObjectStore) Get(ctx context.Context, key string) (string, bool, error) {
	data, ok, err := o.aws.GetObject(ctx, "", o.prefix+key)
	if err != nil || !ok {
		return "", ok, err
	}
	return string(data), true, nil
}

func (o *ObjectStore) Set(ctx context.Context, key, value string) error {
	return o.aws.PutObject(ctx, "", o.prefix+key, "application/json", []byte(value))
}

func (o *ObjectStore) Remove(ctx context.Context, key string) error {
	_, err := o.aws.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(o.aws.bucket),
		Key:    aws.String(o.prefix + key),
	})
	if err != nil {
		return fmt.Errorf("deleting S3 object %s: %w", key, err)
	}
	return nil
}

// TableStore is a Store over DynamoDB items keyed by PK.
type TableStore struct {
	aws *AWSStorage
}

func (t *TableStore) pk(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: key},
	}
}

func (t *TableStore) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := t.aws.dynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(t.aws.tableName),
		Key:            t.pk(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return "", false, fmt.Errorf("getting item from DynamoDB: %w", err)
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}
	var item DynamoDBItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return "", false, fmt.Errorf("unmarshaling item: %w", err)
	}
	return item.Data, true, nil
}

func (t *TableStore) Set(ctx context.Context, key, value string) error {
	item := DynamoDBItem{
		PK:        key,
		Data:      value,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling item: %w", err)
	}
	_, err = t.aws.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(t.aws.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting item to DynamoDB: %w", err)
	}
	return nil
}

func (t *TableStore) Remove(ctx context.Context, key string) error {
	_, err := t.aws.dynamoDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(t.aws.tableName),
		Key:       t.pk(key),
	})
	if err != nil {
		return fmt.Errorf("deleting item from DynamoDB: %w", err)
	}
	return nil
}

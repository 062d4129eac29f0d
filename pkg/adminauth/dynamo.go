package adminauth

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI defines the interface for the DynamoDB operations the credential
// store uses. This allows us to mock the client for testing.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

var _ DynamoAPI = (*dynamodb.Client)(nil)

// DynamoStore reads administrator credentials from a DynamoDB table keyed by
// email.
type DynamoStore struct {
	db    DynamoAPI
	table string
}

// NewDynamoStore creates a credential store using the default AWS credential
// chain.
func NewDynamoStore(ctx context.Context, table string) (*DynamoStore, error) {
	if table == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &DynamoStore{
		db:    dynamodb.NewFromConfig(awsCfg),
		table: table,
	}, nil
}

// NewDynamoStoreWithAPI wires an explicit API implementation, used by tests.
func NewDynamoStoreWithAPI(api DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{db: api, table: table}
}

func (s *DynamoStore) GetByEmail(ctx context.Context, email string) (*AdminCredential, bool, error) {
	output, err := s.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"email": &types.AttributeValueMemberS{Value: email},
		},
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get admin credential: %w", err)
	}
	if len(output.Item) == 0 {
		return nil, false, nil
	}

	var cred AdminCredential
	if err := attributevalue.UnmarshalMap(output.Item, &cred); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal admin credential: %w", err)
	}
	return &cred, true, nil
}

// Package cloud wraps the AWS SDK behind the narrow interfaces used by the
// snapshot and remediation layers.
package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Each interface covers only the operations this project calls, so tests can
// satisfy them with canned structs instead of the full SDK clients.

// S3Client is the subset of S3 operations used for snapshots and remediation.
type S3Client interface {
	GetPublicAccessBlock(
		ctx context.Context,
		params *s3.GetPublicAccessBlockInput,
		optFns ...func(*s3.Options),
	) (*s3.GetPublicAccessBlockOutput, error)

	PutPublicAccessBlock(
		ctx context.Context,
		params *s3.PutPublicAccessBlockInput,
		optFns ...func(*s3.Options),
	) (*s3.PutPublicAccessBlockOutput, error)

	DeletePublicAccessBlock(
		ctx context.Context,
		params *s3.DeletePublicAccessBlockInput,
		optFns ...func(*s3.Options),
	) (*s3.DeletePublicAccessBlockOutput, error)
}

// EC2Client is the subset of EC2 operations used for security-group
// snapshots and remediation.
type EC2Client interface {
	DescribeSecurityGroups(
		ctx context.Context,
		params *ec2.DescribeSecurityGroupsInput,
		optFns ...func(*ec2.Options),
	) (*ec2.DescribeSecurityGroupsOutput, error)

	RevokeSecurityGroupIngress(
		ctx context.Context,
		params *ec2.RevokeSecurityGroupIngressInput,
		optFns ...func(*ec2.Options),
	) (*ec2.RevokeSecurityGroupIngressOutput, error)

	AuthorizeSecurityGroupIngress(
		ctx context.Context,
		params *ec2.AuthorizeSecurityGroupIngressInput,
		optFns ...func(*ec2.Options),
	) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
}

// RDSClient is the subset of RDS operations used for instance snapshots and
// public-access remediation.
type RDSClient interface {
	DescribeDBInstances(
		ctx context.Context,
		params *rds.DescribeDBInstancesInput,
		optFns ...func(*rds.Options),
	) (*rds.DescribeDBInstancesOutput, error)

	ModifyDBInstance(
		ctx context.Context,
		params *rds.ModifyDBInstanceInput,
		optFns ...func(*rds.Options),
	) (*rds.ModifyDBInstanceOutput, error)
}

// IAMClient is the subset of IAM operations used for access-key remediation.
type IAMClient interface {
	ListAccessKeys(
		ctx context.Context,
		params *iam.ListAccessKeysInput,
		optFns ...func(*iam.Options),
	) (*iam.ListAccessKeysOutput, error)

	UpdateAccessKey(
		ctx context.Context,
		params *iam.UpdateAccessKeyInput,
		optFns ...func(*iam.Options),
	) (*iam.UpdateAccessKeyOutput, error)
}

// ClientSet holds the initialised service clients. All fields are interfaces
// so tests can swap in mocks without touching the SDK.
type ClientSet struct {
	S3  S3Client
	EC2 EC2Client
	RDS RDSClient
	IAM IAMClient
}

// ClientFactory creates a ClientSet from an aws.Config.
type ClientFactory func(cfg aws.Config) *ClientSet

// NewClientSet is the production ClientFactory.
func NewClientSet(cfg aws.Config) *ClientSet {
	return &ClientSet{
		S3:  s3.NewFromConfig(cfg),
		EC2: ec2.NewFromConfig(cfg),
		RDS: rds.NewFromConfig(cfg),
		IAM: iam.NewFromConfig(cfg),
	}
}

// LoadClientSet loads the default AWS shared config for region and builds the
// production ClientSet from it.
func LoadClientSet(ctx context.Context, region string) (*ClientSet, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return NewClientSet(cfg), nil
}

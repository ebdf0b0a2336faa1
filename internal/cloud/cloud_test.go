package cloud

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockS3 struct {
	getErr     error
	putCalls   int
	deleteCall int
	lastBucket string
}

func (m *mockS3) GetPublicAccessBlock(_ context.Context, params *s3.GetPublicAccessBlockInput, _ ...func(*s3.Options)) (*s3.GetPublicAccessBlockOutput, error) {
	m.lastBucket = aws.ToString(params.Bucket)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &s3.GetPublicAccessBlockOutput{
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(false),
			IgnorePublicAcls:      aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(false),
		},
	}, nil
}

func (m *mockS3) PutPublicAccessBlock(_ context.Context, params *s3.PutPublicAccessBlockInput, _ ...func(*s3.Options)) (*s3.PutPublicAccessBlockOutput, error) {
	m.putCalls++
	m.lastBucket = aws.ToString(params.Bucket)
	return &s3.PutPublicAccessBlockOutput{}, nil
}

func (m *mockS3) DeletePublicAccessBlock(_ context.Context, params *s3.DeletePublicAccessBlockInput, _ ...func(*s3.Options)) (*s3.DeletePublicAccessBlockOutput, error) {
	m.deleteCall++
	m.lastBucket = aws.ToString(params.Bucket)
	return &s3.DeletePublicAccessBlockOutput{}, nil
}

type mockEC2 struct {
	describeErr error
	revoked     []ec2types.IpPermission
	authorized  []ec2types.IpPermission
}

func (m *mockEC2) DescribeSecurityGroups(_ context.Context, _ *ec2.DescribeSecurityGroupsInput, _ ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if m.describeErr != nil {
		return nil, m.describeErr
	}
	return &ec2.DescribeSecurityGroupsOutput{
		SecurityGroups: []ec2types.SecurityGroup{{
			GroupName: aws.String("web-sg"),
			IpPermissions: []ec2types.IpPermission{{
				IpProtocol: aws.String("tcp"),
				FromPort:   aws.Int32(22),
				ToPort:     aws.Int32(22),
				IpRanges:   []ec2types.IpRange{{CidrIp: aws.String("0.0.0.0/0")}},
			}},
		}},
	}, nil
}

func (m *mockEC2) RevokeSecurityGroupIngress(_ context.Context, params *ec2.RevokeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.RevokeSecurityGroupIngressOutput, error) {
	m.revoked = append(m.revoked, params.IpPermissions...)
	return &ec2.RevokeSecurityGroupIngressOutput{}, nil
}

func (m *mockEC2) AuthorizeSecurityGroupIngress(_ context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, _ ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	m.authorized = append(m.authorized, params.IpPermissions...)
	return &ec2.AuthorizeSecurityGroupIngressOutput{}, nil
}

type mockRDS struct {
	modified []*rds.ModifyDBInstanceInput
}

func (m *mockRDS) DescribeDBInstances(_ context.Context, _ *rds.DescribeDBInstancesInput, _ ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	return &rds.DescribeDBInstancesOutput{
		DBInstances: []rdstypes.DBInstance{{
			PubliclyAccessible: aws.Bool(true),
			StorageEncrypted:   aws.Bool(false),
			Engine:             aws.String("postgres"),
		}},
	}, nil
}

func (m *mockRDS) ModifyDBInstance(_ context.Context, params *rds.ModifyDBInstanceInput, _ ...func(*rds.Options)) (*rds.ModifyDBInstanceOutput, error) {
	m.modified = append(m.modified, params)
	return &rds.ModifyDBInstanceOutput{}, nil
}

type mockIAM struct {
	updates []*iam.UpdateAccessKeyInput
}

func (m *mockIAM) ListAccessKeys(_ context.Context, _ *iam.ListAccessKeysInput, _ ...func(*iam.Options)) (*iam.ListAccessKeysOutput, error) {
	return &iam.ListAccessKeysOutput{}, nil
}

func (m *mockIAM) UpdateAccessKey(_ context.Context, params *iam.UpdateAccessKeyInput, _ ...func(*iam.Options)) (*iam.UpdateAccessKeyOutput, error) {
	m.updates = append(m.updates, params)
	return &iam.UpdateAccessKeyOutput{}, nil
}

func testClients() (*ClientSet, *mockS3, *mockEC2, *mockRDS, *mockIAM) {
	s3m, ec2m, rdsm, iamm := &mockS3{}, &mockEC2{}, &mockRDS{}, &mockIAM{}
	return &ClientSet{S3: s3m, EC2: ec2m, RDS: rdsm, IAM: iamm}, s3m, ec2m, rdsm, iamm
}

func TestCaptureStateS3(t *testing.T) {
	clients, s3m, _, _, _ := testClients()
	svc := NewSnapshotService(clients, zap.NewNop())

	state, err := svc.CaptureState(context.Background(), "arn:aws:s3:::audit-logs")
	require.NoError(t, err)

	assert.Equal(t, "audit-logs", s3m.lastBucket)
	assert.Equal(t, "s3", state["service"])
	assert.Equal(t, true, state["public_access_block"])
	assert.Equal(t, true, state["block_public_acls"])
	assert.Equal(t, false, state["block_public_policy"])
}

func TestCaptureStateS3NoBlockConfiguration(t *testing.T) {
	clients, s3m, _, _, _ := testClients()
	s3m.getErr = errors.New("NoSuchPublicAccessBlockConfiguration")
	svc := NewSnapshotService(clients, zap.NewNop())

	state, err := svc.CaptureState(context.Background(), "arn:aws:s3:::audit-logs")
	require.NoError(t, err)
	assert.Equal(t, false, state["public_access_block"])
}

func TestCaptureStateSecurityGroup(t *testing.T) {
	clients, _, _, _, _ := testClients()
	svc := NewSnapshotService(clients, zap.NewNop())

	state, err := svc.CaptureState(context.Background(),
		"arn:aws:ec2:us-east-1:123456789012:security-group/sg-0abc")
	require.NoError(t, err)

	assert.Equal(t, "sg-0abc", state["group_id"])
	assert.Equal(t, "web-sg", state["group_name"])
	rules, ok := state["ingress_rules"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"0.0.0.0/0"}, rules[0]["cidrs"])
}

func TestCaptureStateSecurityGroupDescribeFails(t *testing.T) {
	clients, _, ec2m, _, _ := testClients()
	ec2m.describeErr = errors.New("UnauthorizedOperation")
	svc := NewSnapshotService(clients, zap.NewNop())

	_, err := svc.CaptureState(context.Background(),
		"arn:aws:ec2:us-east-1:123456789012:security-group/sg-0abc")
	require.Error(t, err)
}

func TestCaptureStateRDS(t *testing.T) {
	clients, _, _, _, _ := testClients()
	svc := NewSnapshotService(clients, zap.NewNop())

	state, err := svc.CaptureState(context.Background(),
		"arn:aws:rds:us-east-1:123456789012:db:orders-db")
	require.NoError(t, err)
	assert.Equal(t, true, state["publicly_accessible"])
	assert.Equal(t, "postgres", state["engine"])
}

func TestCaptureStateUnknownServiceRecordsARN(t *testing.T) {
	clients, _, _, _, _ := testClients()
	svc := NewSnapshotService(clients, zap.NewNop())

	state, err := svc.CaptureState(context.Background(),
		"arn:aws:lambda:us-east-1:123456789012:function:ingest")
	require.NoError(t, err)
	assert.Equal(t, "lambda", state["service"])
	assert.NotEmpty(t, state["captured_at"])
}

func TestCaptureStateMalformedARN(t *testing.T) {
	clients, _, _, _, _ := testClients()
	svc := NewSnapshotService(clients, zap.NewNop())
	_, err := svc.CaptureState(context.Background(), "not-an-arn")
	require.Error(t, err)
}

func TestInvokePutPublicAccessBlock(t *testing.T) {
	clients, s3m, _, _, _ := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	out, err := inv.Invoke(context.Background(), "put-public-access-block",
		map[string]interface{}{"bucket": "audit-logs"})
	require.NoError(t, err)
	assert.Contains(t, out, "audit-logs")
	assert.Equal(t, 1, s3m.putCalls)
}

func TestInvokeRevokeAndAuthorizeAreInverses(t *testing.T) {
	clients, _, ec2m, _, _ := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	params := map[string]interface{}{
		"group_id":  "sg-0abc",
		"cidr":      "0.0.0.0/0",
		"protocol":  "tcp",
		"from_port": float64(22),
		"to_port":   float64(22),
	}

	_, err := inv.Invoke(context.Background(), "revoke-security-group-ingress", params)
	require.NoError(t, err)
	require.Len(t, ec2m.revoked, 1)
	assert.Equal(t, int32(22), aws.ToInt32(ec2m.revoked[0].FromPort))

	_, err = inv.Invoke(context.Background(), "authorize-security-group-ingress", params)
	require.NoError(t, err)
	assert.Len(t, ec2m.authorized, 1)
}

func TestInvokeDisableRDSPublicAccess(t *testing.T) {
	clients, _, _, rdsm, _ := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	_, err := inv.Invoke(context.Background(), "disable-rds-public-access",
		map[string]interface{}{"db_instance": "orders-db"})
	require.NoError(t, err)
	require.Len(t, rdsm.modified, 1)
	assert.False(t, aws.ToBool(rdsm.modified[0].PubliclyAccessible))
	assert.True(t, aws.ToBool(rdsm.modified[0].ApplyImmediately))
}

func TestInvokeDeactivateAccessKey(t *testing.T) {
	clients, _, _, _, iamm := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	_, err := inv.Invoke(context.Background(), "deactivate-access-key",
		map[string]interface{}{"user": "ci-bot", "access_key_id": "AKIA123"})
	require.NoError(t, err)
	require.Len(t, iamm.updates, 1)
	assert.Equal(t, iamtypes.StatusTypeInactive, iamm.updates[0].Status)
}

func TestInvokeUnknownAction(t *testing.T) {
	clients, _, _, _, _ := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	_, err := inv.Invoke(context.Background(), "format-the-disk", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown remediation action")
}

func TestInvokeMissingParameter(t *testing.T) {
	clients, _, _, _, _ := testClients()
	inv := NewInvoker(clients, zap.NewNop())

	_, err := inv.Invoke(context.Background(), "put-public-access-block", map[string]interface{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket")
}

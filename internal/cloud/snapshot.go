package cloud

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/cloudmend/cloudmend-backend/util"
)

// SnapshotService captures pre-execution resource state by ARN. It backs the
// rollback points the engine creates before each task.
type SnapshotService struct {
	clients *ClientSet
	log     *zap.SugaredLogger
}

// NewSnapshotService creates a snapshot service over the given clients.
func NewSnapshotService(clients *ClientSet, logger *zap.Logger) *SnapshotService {
	return &SnapshotService{clients: clients, log: logger.Sugar()}
}

// CaptureState describes the resource named by the ARN and returns a map of
// the configuration relevant to undoing a remediation. Services without a
// dedicated capture path get a minimal record of the ARN itself.
func (s *SnapshotService) CaptureState(ctx context.Context, resourceARN string) (map[string]interface{}, error) {
	c, err := util.ParseARN(resourceARN)
	if err != nil {
		return nil, err
	}

	state := map[string]interface{}{
		"arn":         resourceARN,
		"service":     c.Service,
		"captured_at": time.Now().UTC().Format(time.RFC3339),
	}

	switch c.Service {
	case "s3":
		if err := s.captureS3(ctx, c.Resource, state); err != nil {
			return nil, err
		}
	case "ec2":
		if c.ResourceType == "security-group" {
			if err := s.captureSecurityGroup(ctx, c.Resource, state); err != nil {
				return nil, err
			}
		}
	case "rds":
		if err := s.captureDBInstance(ctx, c.Resource, state); err != nil {
			return nil, err
		}
	default:
		s.log.Debugw("no capture path for service, recording ARN only",
			"service", c.Service, "arn", resourceARN)
	}

	return state, nil
}

func (s *SnapshotService) captureS3(ctx context.Context, bucket string, state map[string]interface{}) error {
	out, err := s.clients.S3.GetPublicAccessBlock(ctx, &s3.GetPublicAccessBlockInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		// Buckets with no block configuration are fully public by default;
		// record that rather than failing the snapshot.
		state["bucket"] = bucket
		state["public_access_block"] = false
		return nil
	}

	cfg := out.PublicAccessBlockConfiguration
	state["bucket"] = bucket
	state["public_access_block"] = true
	state["block_public_acls"] = aws.ToBool(cfg.BlockPublicAcls)
	state["block_public_policy"] = aws.ToBool(cfg.BlockPublicPolicy)
	state["ignore_public_acls"] = aws.ToBool(cfg.IgnorePublicAcls)
	state["restrict_public_buckets"] = aws.ToBool(cfg.RestrictPublicBuckets)
	return nil
}

func (s *SnapshotService) captureSecurityGroup(ctx context.Context, groupID string, state map[string]interface{}) error {
	out, err := s.clients.EC2.DescribeSecurityGroups(ctx, &ec2.DescribeSecurityGroupsInput{
		GroupIds: []string{groupID},
	})
	if err != nil {
		return err
	}
	if len(out.SecurityGroups) == 0 {
		state["group_id"] = groupID
		return nil
	}

	sg := out.SecurityGroups[0]
	rules := make([]map[string]interface{}, 0, len(sg.IpPermissions))
	for _, perm := range sg.IpPermissions {
		rule := map[string]interface{}{
			"protocol":  aws.ToString(perm.IpProtocol),
			"from_port": aws.ToInt32(perm.FromPort),
			"to_port":   aws.ToInt32(perm.ToPort),
		}
		cidrs := make([]string, 0, len(perm.IpRanges))
		for _, r := range perm.IpRanges {
			cidrs = append(cidrs, aws.ToString(r.CidrIp))
		}
		rule["cidrs"] = cidrs
		rules = append(rules, rule)
	}

	state["group_id"] = groupID
	state["group_name"] = aws.ToString(sg.GroupName)
	state["ingress_rules"] = rules
	return nil
}

func (s *SnapshotService) captureDBInstance(ctx context.Context, instanceID string, state map[string]interface{}) error {
	out, err := s.clients.RDS.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
		DBInstanceIdentifier: aws.String(instanceID),
	})
	if err != nil {
		return err
	}
	if len(out.DBInstances) == 0 {
		state["db_instance"] = instanceID
		return nil
	}

	db := out.DBInstances[0]
	state["db_instance"] = instanceID
	state["publicly_accessible"] = aws.ToBool(db.PubliclyAccessible)
	state["storage_encrypted"] = aws.ToBool(db.StorageEncrypted)
	state["engine"] = aws.ToString(db.Engine)
	return nil
}

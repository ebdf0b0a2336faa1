package cloud

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// Invoker maps named remediation actions to AWS SDK calls. It backs the
// direct API-call executor; each action's inverse is itself an action so the
// same invoker serves rollbacks.
type Invoker struct {
	clients *ClientSet
	log     *zap.SugaredLogger
}

// NewInvoker creates an invoker over the given clients.
func NewInvoker(clients *ClientSet, logger *zap.Logger) *Invoker {
	return &Invoker{clients: clients, log: logger.Sugar()}
}

// Invoke dispatches the named action. Unknown actions are an error.
func (i *Invoker) Invoke(ctx context.Context, action string, params map[string]interface{}) (string, error) {
	i.log.Infow("invoking remediation action", "action", action)

	switch action {
	case "put-public-access-block":
		return i.putPublicAccessBlock(ctx, params)
	case "delete-public-access-block":
		return i.deletePublicAccessBlock(ctx, params)
	case "revoke-security-group-ingress":
		return i.securityGroupIngress(ctx, params, false)
	case "authorize-security-group-ingress":
		return i.securityGroupIngress(ctx, params, true)
	case "disable-rds-public-access":
		return i.setRDSPublicAccess(ctx, params, false)
	case "enable-rds-public-access":
		return i.setRDSPublicAccess(ctx, params, true)
	case "deactivate-access-key":
		return i.setAccessKeyStatus(ctx, params, iamtypes.StatusTypeInactive)
	case "activate-access-key":
		return i.setAccessKeyStatus(ctx, params, iamtypes.StatusTypeActive)
	default:
		return "", fmt.Errorf("unknown remediation action %q", action)
	}
}

func (i *Invoker) putPublicAccessBlock(ctx context.Context, params map[string]interface{}) (string, error) {
	bucket, err := requireString(params, "bucket")
	if err != nil {
		return "", err
	}

	_, err = i.clients.S3.PutPublicAccessBlock(ctx, &s3.PutPublicAccessBlockInput{
		Bucket: aws.String(bucket),
		PublicAccessBlockConfiguration: &s3types.PublicAccessBlockConfiguration{
			BlockPublicAcls:       aws.Bool(true),
			BlockPublicPolicy:     aws.Bool(true),
			IgnorePublicAcls:      aws.Bool(true),
			RestrictPublicBuckets: aws.Bool(true),
		},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("public access blocked on bucket %s", bucket), nil
}

func (i *Invoker) deletePublicAccessBlock(ctx context.Context, params map[string]interface{}) (string, error) {
	bucket, err := requireString(params, "bucket")
	if err != nil {
		return "", err
	}

	_, err = i.clients.S3.DeletePublicAccessBlock(ctx, &s3.DeletePublicAccessBlockInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("public access block removed from bucket %s", bucket), nil
}

func (i *Invoker) securityGroupIngress(ctx context.Context, params map[string]interface{}, authorize bool) (string, error) {
	groupID, err := requireString(params, "group_id")
	if err != nil {
		return "", err
	}
	cidr, err := requireString(params, "cidr")
	if err != nil {
		return "", err
	}
	protocol := stringOr(params, "protocol", "tcp")
	fromPort := int32Param(params, "from_port")
	toPort := int32Param(params, "to_port")

	perm := ec2types.IpPermission{
		IpProtocol: aws.String(protocol),
		FromPort:   aws.Int32(fromPort),
		ToPort:     aws.Int32(toPort),
		IpRanges:   []ec2types.IpRange{{CidrIp: aws.String(cidr)}},
	}

	if authorize {
		_, err = i.clients.EC2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       aws.String(groupID),
			IpPermissions: []ec2types.IpPermission{perm},
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("ingress %s %d-%d from %s authorized on %s", protocol, fromPort, toPort, cidr, groupID), nil
	}

	_, err = i.clients.EC2.RevokeSecurityGroupIngress(ctx, &ec2.RevokeSecurityGroupIngressInput{
		GroupId:       aws.String(groupID),
		IpPermissions: []ec2types.IpPermission{perm},
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ingress %s %d-%d from %s revoked on %s", protocol, fromPort, toPort, cidr, groupID), nil
}

func (i *Invoker) setRDSPublicAccess(ctx context.Context, params map[string]interface{}, public bool) (string, error) {
	instance, err := requireString(params, "db_instance")
	if err != nil {
		return "", err
	}

	_, err = i.clients.RDS.ModifyDBInstance(ctx, &rds.ModifyDBInstanceInput{
		DBInstanceIdentifier: aws.String(instance),
		PubliclyAccessible:   aws.Bool(public),
		ApplyImmediately:     aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("db instance %s publicly_accessible set to %t", instance, public), nil
}

func (i *Invoker) setAccessKeyStatus(ctx context.Context, params map[string]interface{}, status iamtypes.StatusType) (string, error) {
	user, err := requireString(params, "user")
	if err != nil {
		return "", err
	}
	keyID, err := requireString(params, "access_key_id")
	if err != nil {
		return "", err
	}

	_, err = i.clients.IAM.UpdateAccessKey(ctx, &iam.UpdateAccessKeyInput{
		UserName:    aws.String(user),
		AccessKeyId: aws.String(keyID),
		Status:      status,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("access key %s for %s set to %s", keyID, user, status), nil
}

func requireString(params map[string]interface{}, key string) (string, error) {
	if v, ok := params[key].(string); ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing required parameter %q", key)
}

func stringOr(params map[string]interface{}, key, fallback string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// int32Param reads a numeric parameter that may arrive as a JSON float, an
// int or an int32.
func int32Param(params map[string]interface{}, key string) int32 {
	switch v := params[key].(type) {
	case float64:
		return int32(v)
	case int:
		return int32(v)
	case int32:
		return v
	default:
		return 0
	}
}

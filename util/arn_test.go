package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseARN(t *testing.T) {
	tests := []struct {
		name string
		arn  string
		want ARNComponents
	}{
		{
			name: "s3 bucket",
			arn:  "arn:aws:s3:::my-bucket",
			want: ARNComponents{Partition: "aws", Service: "s3", Resource: "my-bucket"},
		},
		{
			name: "ec2 instance with slash resource type",
			arn:  "arn:aws:ec2:us-east-1:123456789012:instance/i-0abcd1234",
			want: ARNComponents{
				Partition: "aws", Service: "ec2", Region: "us-east-1",
				AccountID: "123456789012", ResourceType: "instance", Resource: "i-0abcd1234",
			},
		},
		{
			name: "rds with colon resource type",
			arn:  "arn:aws:rds:eu-west-1:123456789012:db:orders-prod",
			want: ARNComponents{
				Partition: "aws", Service: "rds", Region: "eu-west-1",
				AccountID: "123456789012", ResourceType: "db", Resource: "orders-prod",
			},
		},
		{
			name: "iam role",
			arn:  "arn:aws:iam::123456789012:role/deploy-role",
			want: ARNComponents{
				Partition: "aws", Service: "iam",
				AccountID: "123456789012", ResourceType: "role", Resource: "deploy-role",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseARN(tt.arn)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseARNErrors(t *testing.T) {
	_, err := ParseARN("")
	assert.Error(t, err)

	_, err = ParseARN("not-an-arn")
	assert.Error(t, err)

	_, err = ParseARN("arn:aws:s3")
	assert.Error(t, err)
}

func TestServiceFromARN(t *testing.T) {
	assert.Equal(t, "lambda", ServiceFromARN("arn:aws:lambda:us-east-1:123456789012:function:ingest"))
	assert.Equal(t, "", ServiceFromARN("garbage"))
}

// Package util provides utility functions for parsing Amazon Resource Names
// and extracting metadata from the environment.
//
//revive:disable-next-line:var-naming
package util

import (
	"fmt"
	"strings"
)

// ARNComponents holds the parsed components of an Amazon Resource Name
type ARNComponents struct {
	Partition    string
	Service      string
	Region       string
	AccountID    string
	ResourceType string
	Resource     string
}

// ParseARN parses an ARN string into its components
// Format: arn:<partition>:<service>:<region>:<account-id>:<resource>
// The resource segment may be "<type>/<id>", "<type>:<id>" or a bare id.
func ParseARN(arn string) (ARNComponents, error) {
	if arn == "" {
		return ARNComponents{}, fmt.Errorf("empty ARN")
	}

	parts := strings.SplitN(arn, ":", 6)
	if len(parts) < 6 || parts[0] != "arn" {
		return ARNComponents{}, fmt.Errorf("malformed ARN: %s", arn)
	}

	c := ARNComponents{
		Partition: parts[1],
		Service:   parts[2],
		Region:    parts[3],
		AccountID: parts[4],
		Resource:  parts[5],
	}

	// Split the resource segment into type and id when a separator is present.
	if idx := strings.IndexAny(c.Resource, "/:"); idx >= 0 {
		c.ResourceType = c.Resource[:idx]
		c.Resource = c.Resource[idx+1:]
	}

	return c, nil
}

// ServiceFromARN returns the service segment of an ARN, or "" when the ARN
// cannot be parsed. Convenience wrapper for risk scoring lookups.
func ServiceFromARN(arn string) string {
	c, err := ParseARN(arn)
	if err != nil {
		return ""
	}
	return c.Service
}

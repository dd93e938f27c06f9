// Package aws defines the typed clients used to talk to the managed
// services: S3 for blobs, DynamoDB for file metadata, Lambda/Transcribe
// for the job runner and Cognito for identity.
package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/spf13/viper"
)

// Load builds the shared SDK config from the application config. All
// clients are constructed from the same credentials and region.
func Load(ctx context.Context) (aws.Config, error) {
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(viper.GetString("aws.region")),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			viper.GetString("aws.access_key_id"),
			viper.GetString("aws.secret_access_key"),
			"",
		)),
	)
}

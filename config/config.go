// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	allowUnverified = pflag.Bool("allow-unverified-tokens", false, "Skip bearer token signature verification (local development only)")
	validLogLevels  = []string{"debug", "info", "warn", "error", "fatal"}
)

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that. Missing store credentials are a fatal configuration error
// here, never a per-request one.
func Setup() error {
	pflag.Parse()
	v.BindPFlags(pflag.CommandLine)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")

	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.frontend_origin", "HOST_FRONTEND_ORIGIN")

	v.BindEnv("aws.region", "AWS_REGION")
	v.BindEnv("aws.access_key_id", "AWS_ACCESS_KEY_ID")
	v.BindEnv("aws.secret_access_key", "AWS_SECRET_ACCESS_KEY")

	v.BindEnv("s3.bucket", "S3_BUCKET_NAME")
	v.BindEnv("s3.output_bucket", "S3_OUTPUT_BUCKET")
	v.BindEnv("s3.summaries_bucket", "S3_SUMMARIES_BUCKET")

	v.BindEnv("dynamo.files_table", "DYNAMO_FILES_TABLE")
	v.BindEnv("dynamo.users_table", "DYNAMO_USERS_TABLE")

	v.BindEnv("transcribe.lambda_function", "LAMBDA_FUNCTION_NAME")

	v.BindEnv("cognito.user_pool_id", "AWS_COGNITO_USER_POOL_ID")
	v.BindEnv("cognito.app_client_id", "AWS_COGNITO_APP_CLIENT_ID")
	v.BindEnv("cognito.client_secret", "AWS_COGNITO_CLIENT_SECRET")

	v.BindEnv("azure.oai_endpoint", "AZURE_OAI_ENDPOINT")
	v.BindEnv("azure.oai_key", "AZURE_OAI_KEY")
	v.BindEnv("azure.oai_model", "AZURE_OAI_MODEL")

	v.BindEnv("auth.allow_unverified", "AUTH_ALLOW_UNVERIFIED")

	v.BindEnv("upload.max_size", "UPLOAD_MAX_SIZE")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.frontend_origin", "http://localhost:5173")

	v.SetDefault("s3.output_bucket", "cc-transcribe-output")

	v.SetDefault("dynamo.files_table", "files")
	v.SetDefault("dynamo.users_table", "users")

	v.SetDefault("transcribe.lambda_function", "lambda-audio-transcribe")

	v.SetDefault("azure.oai_model", "gpt-4o")

	// Megabytes, converted below
	v.SetDefault("upload.max_size", 100)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(v.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file, %w", err)
		}

		// No config.toml is fine, everything can come from the environment
	}

	if *allowUnverified {
		v.Set("auth.allow_unverified", true)
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 {
		return errors.New("invalid port provided")
	}

	if v.GetString("aws.region") == "" {
		return errors.New("aws region can't be empty")
	}

	if v.GetString("s3.bucket") == "" {
		return errors.New("audio bucket name can't be empty")
	}

	if v.GetString("s3.summaries_bucket") == "" {
		return errors.New("summaries bucket name can't be empty")
	}

	if v.GetString("aws.access_key_id") == "" || v.GetString("aws.secret_access_key") == "" {
		return errors.New("aws credentials are missing")
	}

	if !v.GetBool("auth.allow_unverified") {
		if v.GetString("cognito.user_pool_id") == "" {
			return errors.New("cognito user pool id can't be empty")
		}
	} else {
		zap.L().Warn("Running with unverified bearer tokens enabled")
	}

	if v.GetString("azure.oai_endpoint") == "" || v.GetString("azure.oai_key") == "" {
		zap.L().Warn("Azure OpenAI is not configured, summarization requests will fail")
	}

	if v.GetInt64("upload.max_size") <= 0 {
		return errors.New("upload.max_size must be bigger than 0")
	}

	v.Set("upload.max_size", v.GetInt64("upload.max_size")<<20)
	return nil
}

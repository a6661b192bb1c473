package llm

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockModel adapts Amazon Bedrock foundation models to the Model
// interface via the Converse API.
//
// The full AWS credential chain is supported: explicit keys, shared
// profiles, environment variables, and IAM roles.
type BedrockModel struct {
	client  *bedrockruntime.Client
	modelID string
}

// BedrockConfig configures a Bedrock adapter.
type BedrockConfig struct {
	// ModelID is the Bedrock model identifier
	// (e.g. "anthropic.claude-3-5-sonnet-20241022-v2:0").
	ModelID string

	// Region is the AWS region (default us-east-1).
	Region string

	// Profile is an AWS shared-config profile name (optional).
	Profile string

	// AccessKeyID / SecretAccessKey / SessionToken supply explicit
	// credentials (optional).
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// EndpointURL overrides the service endpoint, e.g. for VPC endpoints
	// (optional).
	EndpointURL string
}

// NewBedrockModel creates a Bedrock adapter, loading AWS configuration
// from the environment as needed.
func NewBedrockModel(ctx context.Context, cfg BedrockConfig) (*BedrockModel, error) {
	if cfg.ModelID == "" {
		cfg.ModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var configOpts []func(*config.LoadOptions) error
	configOpts = append(configOpts, config.WithRegion(cfg.Region))
	if cfg.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				cfg.SessionToken,
			),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var clientOpts []func(*bedrockruntime.Options)
	if cfg.EndpointURL != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
		})
	}

	return &BedrockModel{
		client:  bedrockruntime.NewFromConfig(awsConfig, clientOpts...),
		modelID: cfg.ModelID,
	}, nil
}

// ModelID returns the model identifier.
func (b *BedrockModel) ModelID() string {
	return b.modelID
}

// Complete issues a single Converse call with a system and user message.
func (b *BedrockModel) Complete(ctx context.Context, system, user string, opts ...CallOption) (string, error) {
	options := BuildCallOptions(opts...)

	inferenceConfig := &types.InferenceConfiguration{}
	if options.Temperature != nil {
		inferenceConfig.Temperature = aws.Float32(float32(*options.Temperature))
	}
	maxTokens := 4096
	if options.MaxTokens != nil {
		maxTokens = *options.MaxTokens
	}
	inferenceConfig.MaxTokens = aws.Int32(int32(maxTokens))
	if options.TopP != nil {
		inferenceConfig.TopP = aws.Float32(float32(*options.TopP))
	}

	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.modelID),
		Messages: []types.Message{
			{
				Role: types.ConversationRoleUser,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: user},
				},
			},
		},
		InferenceConfig: inferenceConfig,
	}
	if system != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: system},
		}
	}

	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return "", fmt.Errorf("bedrock api error: %w", err)
	}

	var content string
	if output.Output != nil {
		if msg, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
			for _, block := range msg.Value.Content {
				if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
					content += textBlock.Value
				}
			}
		}
	}
	return content, nil
}

// Unwrap returns the underlying *bedrockruntime.Client.
func (b *BedrockModel) Unwrap() interface{} {
	return b.client
}

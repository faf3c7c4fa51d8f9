package bedrock

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	out *bedrockruntime.ConverseOutput
	err error
	in  *bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(ctx context.Context, in *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.in = in
	return f.out, f.err
}

func textOutput(stop types.StopReason, texts ...string) *bedrockruntime.ConverseOutput {
	var blocks []types.ContentBlock
	for _, t := range texts {
		blocks = append(blocks, &types.ContentBlockMemberText{Value: t})
	}
	return &bedrockruntime.ConverseOutput{
		StopReason: stop,
		Output: &types.ConverseOutputMemberMessage{Value: types.Message{
			Role:    types.ConversationRoleAssistant,
			Content: blocks,
		}},
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(nil, &fakeConverse{}, Options{ModelID: "custom"})
	assert.Equal(t, "custom", c.opts.ModelID)
	assert.Equal(t, int32(defaultMaxTokens), c.opts.MaxTokens)
	assert.Equal(t, float32(defaultTemperature), c.opts.Temperature)
	assert.Equal(t, float32(defaultTopP), c.opts.TopP)
}

func TestCompletePrefersJSONBlock(t *testing.T) {
	api := &fakeConverse{out: textOutput(types.StopReasonEndTurn, "Here you go:", `{"items":[]}`)}
	c := NewClient(nil, api, Options{})

	got, err := c.Complete(context.Background(), "sys", "I ate an apple")
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, got)
	require.Len(t, api.in.System, 1)
	require.Len(t, api.in.Messages, 1)
}

func TestCompleteErrors(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeConverse
	}{
		{name: "transport", api: &fakeConverse{err: errors.New("dial tcp")}},
		{name: "max tokens", api: &fakeConverse{out: textOutput(types.StopReasonMaxTokens, `{"items"`)}},
		{name: "empty", api: &fakeConverse{out: textOutput(types.StopReasonEndTurn)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(nil, tt.api, Options{}).Complete(context.Background(), "", "x")
			require.Error(t, err)
		})
	}
}

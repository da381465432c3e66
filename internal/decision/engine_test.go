package decision

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/address-classifier/internal/features"
	"github.com/sells-group/address-classifier/internal/model"
	"github.com/sells-group/address-classifier/pkg/anthropic"
	"github.com/sells-group/address-classifier/pkg/anthropic/mocks"
)

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Model:   DefaultModel,
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 900, OutputTokens: 40},
	}
}

func emptyContext(address string) *model.ClassificationContext {
	return &model.ClassificationContext{
		Address:                address,
		AlternateBuildingNames: []string{},
		NearbyPlaces:           []model.NearbyPlace{},
		DistanceTiers:          model.NewDistanceTiers(),
		AddressFeatures:        features.Extract(address),
	}
}

func TestDecide_SendsPolicyAndContext(t *testing.T) {
	cc := emptyContext("1801 Century Park E Ste 2050, Los Angeles, CA 90067")
	client := mocks.NewMockClient(t)

	var captured anthropic.MessageRequest
	client.On("CreateMessage", mock.Anything, mock.AnythingOfType("anthropic.MessageRequest")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(anthropic.MessageRequest)
		}).
		Return(textResponse(`{"category":"business","confidence":0.92,"reason":"The address includes a suite number."}`), nil)

	e := NewEngine(client, nil, WithModel("claude-sonnet-4-5-20250929"), WithMaxTokens(256))
	got := e.Decide(context.Background(), cc)

	assert.Equal(t, model.CategoryBusiness, got.Category)
	assert.InDelta(t, 0.92, got.Confidence, 1e-9)
	assert.Equal(t, 0, got.NearbyCount)

	assert.Equal(t, "claude-sonnet-4-5-20250929", captured.Model)
	assert.Equal(t, int64(256), captured.MaxTokens)
	require.NotNil(t, captured.Temperature)
	assert.Equal(t, 0.0, *captured.Temperature)
	require.Len(t, captured.System, 1)
	assert.Equal(t, e.Policy().Instruction, captured.System[0].Text)
	require.Len(t, captured.Messages, 1)
	assert.Equal(t, "user", captured.Messages[0].Role)

	content := captured.Messages[0].Content
	assert.True(t, strings.HasPrefix(content, "Classify this address"))
	assert.Contains(t, content, `"has_suite_or_office_token": true`)
	assert.Contains(t, content, `"main_place": null`)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	var roundTrip model.ClassificationContext
	require.NoError(t, json.Unmarshal([]byte(content[start:end+1]), &roundTrip))
	assert.Equal(t, cc.Address, roundTrip.Address)
}

func TestDecide_NearbyCount(t *testing.T) {
	cc := emptyContext("500 Market St")
	cc.NearbyPlaces = []model.NearbyPlace{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"category":"business","confidence":0.8,"reason":"Shops."}`), nil)

	got := NewEngine(client, nil).Decide(context.Background(), cc)
	assert.Equal(t, 3, got.NearbyCount)
}

func TestDecide_TransportFailure(t *testing.T) {
	cc := emptyContext("123 Main St")
	cc.NearbyPlaces = []model.NearbyPlace{{Name: "a"}}

	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(nil, errors.New("anthropic: create message: 529 overloaded"))

	got := NewEngine(client, nil).Decide(context.Background(), cc)

	assert.Equal(t, model.CategoryUnknown, got.Category)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, FailureReasonPrefix+"anthropic: create message: 529 overloaded", got.Reason)
	assert.NotContains(t, got.Reason, "Downgraded")
	assert.Equal(t, 1, got.NearbyCount)
}

func TestDecide_UnparsableReply(t *testing.T) {
	for _, text := range []string{"I think this is probably a house.", "null", "```json\nnull\n```"} {
		t.Run(text, func(t *testing.T) {
			client := mocks.NewMockClient(t)
			client.On("CreateMessage", mock.Anything, mock.Anything).
				Return(textResponse(text), nil)

			got := NewEngine(client, nil).Decide(context.Background(), emptyContext("9 Elm St"))

			assert.Equal(t, model.CategoryUnknown, got.Category)
			assert.Equal(t, 0.0, got.Confidence)
			assert.True(t, strings.HasPrefix(got.Reason, FailureReasonPrefix))
			assert.Greater(t, len(got.Reason), len(FailureReasonPrefix))
		})
	}
}

func TestDecide_NilResponse(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, nil)

	got := NewEngine(client, nil).Decide(context.Background(), emptyContext("9 Elm St"))
	assert.Equal(t, model.CategoryUnknown, got.Category)
	assert.Contains(t, got.Reason, "empty response")
}

func TestDecide_NoClient(t *testing.T) {
	got := NewEngine(nil, nil).Decide(context.Background(), emptyContext("9 Elm St"))
	assert.Equal(t, model.CategoryUnknown, got.Category)
	assert.Contains(t, got.Reason, "not configured")
}

func TestDecide_LowConfidenceDowngraded(t *testing.T) {
	client := mocks.NewMockClient(t)
	client.On("CreateMessage", mock.Anything, mock.Anything).
		Return(textResponse(`{"category":"business","confidence":0.5,"reason":"One shop is listed nearby."}`), nil)

	got := NewEngine(client, nil).Decide(context.Background(), emptyContext("42 Oak Ave"))

	assert.Equal(t, model.CategoryUnknown, got.Category)
	assert.Equal(t, 0.5, got.Confidence)
	assert.Equal(t, "One shop is listed nearby. (Downgraded to unknown: confidence 0.50 is below the 0.65 acceptance threshold.)", got.Reason)
}

func TestDecide_ResultInvariants(t *testing.T) {
	replies := []string{
		`{"category":"BUSINESS","confidence":"1.7"}`,
		`{"category":"house","confidence":0.99}`,
		`{"category":"residential","confidence":"NaN"}`,
		`{"category":"residential","confidence":-3}`,
		`{"category":null,"confidence":{"v":1}}`,
		`{}`,
	}

	for _, text := range replies {
		client := mocks.NewMockClient(t)
		client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(text), nil)

		got := NewEngine(client, nil).Decide(context.Background(), emptyContext("1 Test Way"))

		assert.True(t, got.Category.Valid(), text)
		assert.False(t, math.IsNaN(got.Confidence), text)
		assert.GreaterOrEqual(t, got.Confidence, 0.0, text)
		assert.LessOrEqual(t, got.Confidence, 1.0, text)
		if got.Confidence < 0.65 {
			assert.Equal(t, model.CategoryUnknown, got.Category, text)
		}
	}
}

func TestDecide_Scenarios(t *testing.T) {
	tests := []struct {
		name    string
		address string
		reply   string
		flag    func(model.AddressFeatures) bool
		want    model.Category
	}{
		{
			name:    "suite address",
			address: "1801 Century Park E Ste 2050, Los Angeles, CA 90067",
			reply:   `{"category":"business","confidence":0.9,"reason":"The address has a suite number in an office tower."}`,
			flag:    func(f model.AddressFeatures) bool { return f.HasSuiteOrOfficeToken },
			want:    model.CategoryBusiness,
		},
		{
			name:    "apartment address",
			address: "123 Main St Apt 4B, Springfield, IL 62701",
			reply:   `{"category":"residential","confidence":0.88,"reason":"The address includes an apartment number."}`,
			flag:    func(f model.AddressFeatures) bool { return f.HasApartmentOrUnitToken },
			want:    model.CategoryResidential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := emptyContext(tt.address)
			assert.True(t, tt.flag(cc.AddressFeatures))

			client := mocks.NewMockClient(t)
			client.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(tt.reply), nil)

			got := NewEngine(client, nil).Decide(context.Background(), cc)
			assert.Equal(t, tt.want, got.Category)
		})
	}
}

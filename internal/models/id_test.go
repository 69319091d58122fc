package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseConversationID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "valid hex id", input: "507f1f77bcf86cd799439011", valid: true},
		{name: "empty string", input: "", valid: false},
		{name: "too short", input: "507f1f77", valid: false},
		{name: "non-hex characters", input: "zzzzzzzzzzzzzzzzzzzzzzzz", valid: false},
		{name: "garbage", input: "not-an-id", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ParseConversationID(tt.input)
			assert.Equal(t, tt.valid, id.Valid())
			if tt.valid {
				assert.Equal(t, tt.input, id.Hex())
			}
		})
	}
}

func TestConversationIDFrom(t *testing.T) {
	oid := primitive.NewObjectID()
	id := ConversationIDFrom(oid)
	assert.True(t, id.Valid())
	assert.Equal(t, oid, id.ObjectID())
	assert.Equal(t, oid.Hex(), id.Hex())
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// ConversationID is the parse result of a client-supplied conversation id.
// An id that fails to parse is not an error: it behaves as if no id was
// supplied, so the turn starts a new conversation.
type ConversationID struct {
	oid   primitive.ObjectID
	valid bool
}

// ParseConversationID parses the external string form of a conversation id.
// The zero value is returned for anything that is not a well-formed id,
// including the empty string.
func ParseConversationID(s string) ConversationID {
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return ConversationID{}
	}
	return ConversationID{oid: oid, valid: true}
}

// ConversationIDFrom wraps a store-assigned ObjectID.
func ConversationIDFrom(oid primitive.ObjectID) ConversationID {
	return ConversationID{oid: oid, valid: true}
}

// Valid reports whether the id parsed to a well-formed store identifier.
func (id ConversationID) Valid() bool { return id.valid }

// ObjectID returns the underlying store identifier. Only meaningful when
// Valid() is true.
func (id ConversationID) ObjectID() primitive.ObjectID { return id.oid }

// Hex renders the id in its external string form.
func (id ConversationID) Hex() string { return id.oid.Hex() }

package domain

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDirectPairKeyIsOrderIndependent(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()

	if DirectPairKey(a, b) != DirectPairKey(b, a) {
		t.Error("pair key must not depend on argument order")
	}
	if DirectPairKey(a, b) == DirectPairKey(a, primitive.NewObjectID()) {
		t.Error("different pairs must produce different keys")
	}
}

func TestOtherParticipant(t *testing.T) {
	a := primitive.NewObjectID()
	b := primitive.NewObjectID()
	conv := &Conversation{ParticipantIDs: []primitive.ObjectID{a, b}}

	other, ok := conv.OtherParticipant(a)
	if !ok || other != b {
		t.Errorf("OtherParticipant(a) = %v, want %v", other, b)
	}
	if !conv.HasParticipant(a) || conv.HasParticipant(primitive.NewObjectID()) {
		t.Error("HasParticipant must match only listed participants")
	}
}

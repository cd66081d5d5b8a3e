package database

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectID parses a hex id. Malformed ids report false so repositories can
// answer "not found" instead of a driver error.
func ObjectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

// ObjectIDs parses every valid hex id and drops the rest.
func ObjectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := ObjectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

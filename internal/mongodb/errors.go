package mongodb

import (
	"errors"

	"github.com/dukerupert/balaguruva/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// translate maps a driver error onto the domain taxonomy.
// Missing documents become ENOTFOUND, duplicate keys ECONFLICT, timeouts
// ETIMEOUT and everything else EUNAVAILABLE.
func translate(err error, op, resource, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return domain.NotFound(op, resource, id)
	case mongo.IsDuplicateKeyError(err):
		return domain.Conflict(op, resource+" already exists")
	case mongo.IsTimeout(err):
		return &domain.Error{Code: domain.ETIMEOUT, Op: op, Message: "store did not respond in time", Err: err}
	default:
		return domain.Unavailable(err, op, "store request failed")
	}
}

// objectID parses a hex id. Malformed ids report ok=false and are treated as
// absent by callers.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

func hexIDs(oids []primitive.ObjectID) []string {
	out := make([]string, 0, len(oids))
	for _, oid := range oids {
		out = append(out, oid.Hex())
	}
	return out
}

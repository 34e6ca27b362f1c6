package mongodb

import (
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
)

// GetDocFromBsonSetUpdateOperation extracts the typed $set document from an update passed to a
// mocked UpdateOne/FindOneAndUpdate call.
func GetDocFromBsonSetUpdateOperation[T interface{}](update interface{}) (*T, error) {
	tType := reflect.TypeOf((*T)(nil)).Elem()
	set, ok := GetBsonOperation(update, "$set")
	if !ok || set == nil {
		return nil, errors.New("update called without $set operation")
	}
	switch doc := set.(type) {
	case *T:
		return doc, nil
	case T:
		return &doc, nil
	default:
		return nil, fmt.Errorf("$set document is not of the expected type %s", tType)
	}
}

// GetBsonOperation returns the value of a top level operator ($set, $push, ...) of an update document.
func GetBsonOperation(update interface{}, op string) (interface{}, bool) {
	switch u := update.(type) {
	case bson.M:
		v, ok := u[op]
		return v, ok
	case bson.D:
		for _, e := range u {
			if e.Key == op {
				return e.Value, true
			}
		}
	}
	return nil, false
}

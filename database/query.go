package database

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// ContainsCI matches documents whose field contains term, ignoring case.
// Regex metacharacters in term are matched literally.
func ContainsCI(term string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(strings.TrimSpace(term)), "$options": "i"}
}

// AnyFieldContains builds an $or of ContainsCI over fields.
func AnyFieldContains(term string, fields ...string) bson.A {
	rx := ContainsCI(term)
	or := make(bson.A, 0, len(fields))
	for _, f := range fields {
		or = append(or, bson.M{f: rx})
	}
	return or
}

// EqualsCI matches documents whose field equals term, ignoring case.
func EqualsCI(term string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(strings.TrimSpace(term)) + "$", "$options": "i"}
}

// HasPrefix matches documents whose field starts with term, case-sensitively
// so the index on the field can serve it.
func HasPrefix(term string) bson.M {
	return bson.M{"$regex": "^" + regexp.QuoteMeta(strings.TrimSpace(term))}
}

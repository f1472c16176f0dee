// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/orderly/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection the service owns, in creation order.
var Collections = []string{"users", "teams", "regions", "transferhistories"}

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	schemas := map[string]bson.M{
		"users":             usersSchema(),
		"teams":             teamsSchema(),
		"regions":           regionsSchema(),
		"transferhistories": transferHistoriesSchema(),
	}

	for _, coll := range Collections {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			continue
		}
		if err := setValidator(ctx, db, coll, schemas[coll]); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				continue
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection idempotently makes sure <name> exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	if exists, listErr := collectionExists(ctx, db, name); listErr == nil && exists {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

// setValidator uses moderate validation so legacy documents that predate a
// rule can still be updated.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandErrMatches(err error, code int32, fragments ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == code {
		return true
	}
	s := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrMatches(err, 115, "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank    = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	optionalRef = bson.M{"bsonType": bson.A{"objectId", "null"}}
	refArray    = bson.M{"bsonType": "array", "items": bson.M{"bsonType": "objectId"}}
	number      = bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}}
)

func roleEnum() bson.A {
	out := make(bson.A, 0, len(models.Roles))
	for _, r := range models.Roles {
		out = append(out, string(r))
	}
	return out
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"firstName", "lastName", "email", "password", "area", "role"},
			"properties": bson.M{
				"firstName":  nonBlank,
				"lastName":   nonBlank,
				"email":      nonBlank,
				"password":   nonBlank,
				"area":       nonBlank,
				"role":       bson.M{"enum": roleEnum()},
				"status":     bson.M{"enum": bson.A{string(models.StatusActive), string(models.StatusInactive)}},
				"managerId":  optionalRef,
				"team":       optionalRef,
				"parentTeam": optionalRef,
				"region":     optionalRef,
				"teams":      refArray,
			},
		},
	}
}

func teamsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name"},
			"properties": bson.M{
				"name":            nonBlank,
				"managerId":       optionalRef,
				"employees":       refArray,
				"teamTarget":      number,
				"teamSales":       number,
				"teamAchievement": number,
				"teamForecast":    number,
			},
		},
	}
}

func regionsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name"},
			"properties": bson.M{
				"name":      nonBlank,
				"managerId": optionalRef,
				"teams":     refArray,
			},
		},
	}
}

func transferHistoriesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"userId", "toTeam", "transferredBy"},
			"properties": bson.M{
				"userId":        bson.M{"bsonType": "objectId"},
				"fromTeam":      optionalRef,
				"toTeam":        bson.M{"bsonType": "objectId"},
				"transferredBy": bson.M{"bsonType": "objectId"},
			},
		},
	}
}

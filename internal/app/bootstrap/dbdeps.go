// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backends and long-lived services shared by the hooks.
// services is a pointer so that Startup and BuildHandler can fill it in
// for Shutdown to tear down.
type DBDeps struct {
	OrderlyMongoClient   *mongo.Client
	OrderlyMongoDatabase *mongo.Database

	services *services
}

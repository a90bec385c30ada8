package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase はURIにもMONGO_DATABASEにもDB名がない場合に使うDB名。
const DefaultMongoDatabase = "newsdesk"

// OpenMongo はMongoDBクライアントを生成し、使用するデータベースを返す。
// mongo.Connectは接続確立を待たないため、疎通確認にはPingを使用すること。
func OpenMongo(ctx context.Context, uri, dbName string) (*mongo.Client, *mongo.Database, error) {
	name, err := ResolveMongoDatabase(uri, dbName)
	if err != nil {
		return nil, nil, err
	}

	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect mongo: %w", err)
	}

	return client, client.Database(name), nil
}

// ResolveMongoDatabase は使用するDB名を決定する。
// 明示指定 > URIのパス > DefaultMongoDatabase の順で優先する。
func ResolveMongoDatabase(uri, dbName string) (string, error) {
	if dbName != "" {
		return dbName, nil
	}

	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", fmt.Errorf("failed to parse mongo uri: %w", err)
	}
	if cs.Database != "" {
		return cs.Database, nil
	}
	return DefaultMongoDatabase, nil
}

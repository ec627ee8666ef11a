package catalog

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/annel0/tome/internal/tile"
)

// MongoConfig настройки подключения к MongoDB с каталогом
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// mongoEntry строка каталога в коллекции (порядок задаётся полем order)
type mongoEntry struct {
	Entry `bson:",inline"`
	Order int `bson:"order"`
}

type metaDoc struct {
	ID          string   `bson:"_id"`
	Connections []string `bson:"connections"`
}

const metaID = "__meta__"

// MongoSource каталог, хранящийся в коллекции MongoDB
type MongoSource struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoSource подключается к MongoDB и проверяет соединение
func NewMongoSource(ctx context.Context, cfg MongoConfig) (*MongoSource, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("подключение к MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &MongoSource{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Fetch читает документ каталога в порядке поля order
func (s *MongoSource) Fetch(ctx context.Context) (Document, error) {
	var doc Document

	var meta metaDoc
	err := s.collection.FindOne(ctx, bson.M{"_id": metaID}).Decode(&meta)
	switch {
	case err == nil:
		doc.Connections = meta.Connections
	case err != mongo.ErrNoDocuments:
		return Document{}, fmt.Errorf("чтение метаданных каталога: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cursor, err := s.collection.Find(ctx, bson.M{"_id": bson.M{"$ne": metaID}}, opts)
	if err != nil {
		return Document{}, fmt.Errorf("чтение каталога: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var row mongoEntry
		if err := cursor.Decode(&row); err != nil {
			return Document{}, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		doc.Tiles = append(doc.Tiles, row.Entry)
	}
	if err := cursor.Err(); err != nil {
		return Document{}, fmt.Errorf("чтение каталога: %w", err)
	}
	return doc, nil
}

// Load читает и собирает каталог
func (s *MongoSource) Load(ctx context.Context) (*tile.Catalog, error) {
	doc, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Build(doc)
}

// Replace полностью заменяет содержимое коллекции документом
func (s *MongoSource) Replace(ctx context.Context, doc Document) error {
	if _, err := s.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("очистка каталога: %w", err)
	}

	rows := make([]interface{}, 0, len(doc.Tiles)+1)
	rows = append(rows, metaDoc{ID: metaID, Connections: doc.Connections})
	for i, e := range doc.Tiles {
		rows = append(rows, mongoEntry{Entry: e, Order: i})
	}

	if _, err := s.collection.InsertMany(ctx, rows); err != nil {
		return fmt.Errorf("запись каталога: %w", err)
	}
	return nil
}

// Close закрывает соединение
func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

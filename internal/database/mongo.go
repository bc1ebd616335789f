package database

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brincafacil/entity"
	"brincafacil/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers    = "users"
	collectionPayments = "payments"
)

// MongoDB opens a connection per call, so nothing is cached between requests.
type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	mu            sync.Mutex
	indexed       bool
	now           func() time.Time
}

func NewMongoClient(conf *config.Config) *MongoDB {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	return newMongo(connectionUri, conf.Mongo.User, conf.Mongo.Password, conf.Mongo.Database)
}

func newMongo(uri, user, password, database string) *MongoDB {
	clientOptions := options.Client().ApplyURI(uri)
	if user != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   user,
			Password:   password,
			AuthSource: database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      database,
		now:           time.Now,
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.indexed {
		if err = m.ensureIndexes(ctx, connection); err != nil {
			m.disconnect(connection)
			return nil, err
		}
		m.indexed = true
	}
	return connection, nil
}

func (m *MongoDB) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(context.Background())
}

func (m *MongoDB) ensureIndexes(ctx context.Context, connection *mongo.Client) error {
	db := connection.Database(m.database)
	_, err := db.Collection(collectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongodb create users index: %w", err)
	}
	_, err = db.Collection(collectionPayments).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongodb create payments index: %w", err)
	}
	return nil
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return entity.ErrNotFound
	}
	return fmt.Errorf("mongodb find: %w", err)
}

// UpsertAccess relies on the unique email index; two concurrent upserts may race on
// insert, the loser gets a duplicate key error and the repeated update matches the winner.
func (m *MongoDB) UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	now := m.now().UTC()
	filter := bson.D{{Key: "email", Value: rec.Email}}
	set := bson.D{
		{Key: "access_granted", Value: rec.AccessGranted},
		{Key: "last_status", Value: rec.LastStatus},
		{Key: "updated_at", Value: now},
	}
	if rec.SaleId != "" {
		set = append(set, bson.E{Key: "sale_id", Value: rec.SaleId})
	}
	update := bson.D{
		{Key: "$set", Value: set},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "source", Value: rec.Source},
			{Key: "created_at", Value: now},
		}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored entity.UserAccessRecord
	err = collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		err = collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb upsert access: %w", err)
	}
	return &stored, nil
}

func (m *MongoDB) GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	var rec entity.UserAccessRecord
	if err = collection.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&rec); err != nil {
		return nil, m.findError(err)
	}
	return &rec, nil
}

func (m *MongoDB) AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	_, err = collection.InsertOne(ctx, rec)
	if err != nil {
		return fmt.Errorf("mongodb insert payment: %w", err)
	}
	return nil
}

func (m *MongoDB) PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionPayments)
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := collection.Find(ctx, bson.D{{Key: "email", Value: email}}, opts)
	if err != nil {
		return nil, m.findError(err)
	}
	defer cursor.Close(ctx)

	var logs []*entity.PaymentLogRecord
	if err = cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("mongodb decode payments: %w", err)
	}
	return logs, nil
}

func (m *MongoDB) Close() {}

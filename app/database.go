package app

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	lock "github.com/square/mongo-lock"
)

type Database interface {
	Connect() error
	SetupLocker() error
	SetupIndexes() error
	Disconnect() error
	InsertOne(ctx context.Context, collection string, data interface{}) error
	FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error
	FindMany(ctx context.Context, collection string, filter interface{}, result interface{}) error
	UpdateOne(ctx context.Context, collection string, filter interface{}, update interface{}) error
	UpsertOne(ctx context.Context, collection string, filter interface{}, update interface{}) error

	XLock(ctx context.Context, resourceId string) (string, error)
	Unlock(lockId string) error
}

// mongoDatabase is a wrapper around the mongo database
type mongoDatabase struct {
	db       *mongo.Database
	uri      string
	database string
	timeout  time.Duration
	locker   *lock.Client
}

var (
	DB Database
)

func (d *mongoDatabase) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

// Connect connects to the database
func (d *mongoDatabase) Connect() error {
	log.Debug("[DB] Connecting to database")
	wcMajority := writeconcern.Majority()

	ctx, cancel := d.withTimeout(context.Background())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(d.uri).SetWriteConcern(wcMajority).SetTimeout(d.timeout))
	if err != nil {
		return err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return err
	}
	d.db = client.Database(d.database)

	log.Info("[DB] Connected to mongo database: ", d.database)
	return nil
}

// SetupLocker sets up the locker
func (d *mongoDatabase) SetupLocker() error {
	log.Debug("[DB] Setting up locker")

	ctx, cancel := d.withTimeout(context.Background())
	defer cancel()

	locker := lock.NewClient(d.db.Collection("locks"))
	if err := locker.CreateIndexes(ctx); err != nil {
		return err
	}
	d.locker = locker

	log.Info("[DB] Locker setup")
	return nil
}

func randomString(n int) string {
	const alphanum = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	var bytes = make([]byte, n)
	rand.Read(bytes)
	for i, b := range bytes {
		bytes[i] = alphanum[b%byte(len(alphanum))]
	}
	return string(bytes)
}

// XLock locks a resource for exclusive access, retrying until ctx is done
func (d *mongoDatabase) XLock(ctx context.Context, resourceId string) (string, error) {
	lockId := randomString(32)
	for {
		lctx, cancel := d.withTimeout(ctx)
		err := d.locker.XLock(lctx, resourceId, lockId, lock.LockDetails{TTL: 30})
		cancel()
		if err == nil {
			return lockId, nil
		}
		if err != lock.ErrAlreadyLocked {
			return "", err
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// Unlock unlocks a resource
func (d *mongoDatabase) Unlock(lockId string) error {
	ctx, cancel := d.withTimeout(context.Background())
	defer cancel()

	_, err := d.locker.Unlock(ctx, lockId)
	return err
}

// SetupIndexes creates the lookup indexes for bridge transactions
func (d *mongoDatabase) SetupIndexes() error {
	log.Debug("[DB] Setting up indexes")

	log.Debug("[DB] Setting up indexes for bridge transactions")
	ctx, cancel := d.withTimeout(context.Background())
	defer cancel()
	_, err := d.db.Collection(models.CollectionTransactions).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "from_address", Value: 1}}},
		{Keys: bson.D{{Key: "to_address", Value: 1}}},
		{Keys: bson.D{{Key: "phase", Value: 1}}},
	})
	if err != nil {
		return err
	}

	log.Debug("[DB] Setting up indexes for healthchecks")
	ctx, cancel = d.withTimeout(context.Background())
	defer cancel()
	_, err = d.db.Collection(CollectionHealthChecks).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "hostname", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	log.Info("[DB] Indexes setup")

	return nil
}

// Disconnect disconnects from the database
func (d *mongoDatabase) Disconnect() error {
	log.Debug("[DB] Disconnecting from database")
	ctx, cancel := d.withTimeout(context.Background())
	defer cancel()
	err := d.db.Client().Disconnect(ctx)
	log.Info("[DB] Disconnected from database")
	return err
}

// method for insert single value in a collection
func (d *mongoDatabase) InsertOne(ctx context.Context, collection string, data interface{}) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	_, err := d.db.Collection(collection).InsertOne(ctx, data)
	return err
}

// method for find single value in a collection
func (d *mongoDatabase) FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	return d.db.Collection(collection).FindOne(ctx, filter).Decode(result)
}

// method for find multiple values in a collection
func (d *mongoDatabase) FindMany(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	cursor, err := d.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return err
	}
	return cursor.All(ctx, result)
}

// method for update single value in a collection
func (d *mongoDatabase) UpdateOne(ctx context.Context, collection string, filter interface{}, update interface{}) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()
	res, err := d.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// method for upsert single value in a collection
func (d *mongoDatabase) UpsertOne(ctx context.Context, collection string, filter interface{}, update interface{}) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := d.db.Collection(collection).UpdateOne(ctx, filter, update, opts)
	return err
}

// InitDB creates a new database wrapper
func InitDB() {
	DB = &mongoDatabase{
		uri:      Config.MongoDB.URI,
		database: Config.MongoDB.Database,
		timeout:  time.Duration(Config.MongoDB.TimeoutMillis) * time.Millisecond,
	}

	err := DB.Connect()
	if err != nil {
		log.Fatal("[DB] Error connecting to database: ", err)
	}
	err = DB.SetupIndexes()
	if err != nil {
		log.Fatal("[DB] Error setting up indexes: ", err)
	}
	err = DB.SetupLocker()
	if err != nil {
		log.Fatal("[DB] Error setting up locker: ", err)
	}
	log.Info("[DB] Database initialized")
}

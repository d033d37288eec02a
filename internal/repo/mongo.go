package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BuzzLyutic/taskboard/internal/model"
)

// MongoStore keeps users and tasks as documents. Ownership is part of every
// task filter, so check and mutation are one server-side operation.
type MongoStore struct {
	client *mongo.Client
	tasks  *MongoTaskRepo
	users  *MongoUserRepo
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	store := NewMongoStoreFromClient(client, database)
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

func NewMongoStoreFromClient(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client: client,
		tasks:  &MongoTaskRepo{coll: db.Collection("tasks")},
		users:  &MongoUserRepo{coll: db.Collection("users")},
	}
}

func (s *MongoStore) Tasks() TaskRepository { return s.tasks }
func (s *MongoStore) Users() UserRepository { return s.users }

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = s.tasks.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("tasks_owner_created_idx"),
	})
	if err != nil {
		return fmt.Errorf("create tasks index: %w", err)
	}
	return nil
}

type MongoTaskRepo struct {
	coll *mongo.Collection
}

func (r *MongoTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	t.UpdatedAt = t.CreatedAt
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return t, mapMongoError(err)
	}
	return t, nil
}

func (r *MongoTaskRepo) ListByOwner(ctx context.Context, ownerID string) ([]model.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, mapMongoError(err)
	}

	tasks := make([]model.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *MongoTaskRepo) GetByOwner(ctx context.Context, id, ownerID string) (model.Task, error) {
	var t model.Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id, "ownerId": ownerID}).Decode(&t)
	return t, mapMongoError(err)
}

func (r *MongoTaskRepo) UpdateByOwner(ctx context.Context, id, ownerID string, c model.TaskChanges) (model.Task, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if c.Title != nil {
		set["title"] = *c.Title
	}
	if c.Description != nil {
		set["description"] = *c.Description
	}
	if c.Priority != nil {
		set["priority"] = string(*c.Priority)
	}
	if c.DueDate != nil && !c.ClearDueDate {
		set["dueDate"] = *c.DueDate
	}
	if c.Completed != nil {
		set["completed"] = *c.Completed
	}

	update := bson.M{"$set": set}
	if c.ClearDueDate {
		update["$unset"] = bson.M{"dueDate": ""}
	}

	var t model.Task
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "ownerId": ownerID},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	return t, mapMongoError(err)
}

func (r *MongoTaskRepo) DeleteByOwner(ctx context.Context, id, ownerID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id, "ownerId": ownerID})
	if err != nil {
		return mapMongoError(err)
	}
	if res.DeletedCount == 0 {
		return ErrorNotFound
	}
	return nil
}

type MongoUserRepo struct {
	coll *mongo.Collection
}

func (r *MongoUserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	u.UpdatedAt = u.CreatedAt
	if _, err := r.coll.InsertOne(ctx, u); err != nil {
		return u, mapMongoError(err)
	}
	return u, nil
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	return u, mapMongoError(err)
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.coll.FindOne(ctx, bson.M{"email": model.NormalizeEmail(email)}).Decode(&u)
	return u, mapMongoError(err)
}

func (r *MongoUserRepo) UpdateProfile(ctx context.Context, id, name, email string) (model.User, error) {
	var u model.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"name": name, "email": email, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&u)
	return u, mapMongoError(err)
}

func (r *MongoUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"password": passwordHash, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return mapMongoError(err)
	}
	if res.MatchedCount == 0 {
		return ErrorNotFound
	}
	return nil
}

func mapMongoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrorNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrorConflict
	}
	return err
}

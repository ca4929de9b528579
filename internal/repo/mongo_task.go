package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/BuzzLyutic/taskflow-api/pkg/model"
)

const tasksCollection = "tasks"

type taskDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Status      string             `bson:"status"`
	Priority    string             `bson:"priority"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	Category    string             `bson:"category"`
	UserID      string             `bson:"userId"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
	Version     int64              `bson:"version"`
}

func newTaskDocument(t model.Task) taskDocument {
	doc := taskDocument{
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Category:    t.Category,
		UserID:      t.UserID,
		// BSON dates carry millisecond precision
		CreatedAt: t.CreatedAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: t.UpdatedAt.UTC().Truncate(time.Millisecond),
	}
	if t.DueDate != nil {
		due := t.DueDate.UTC().Truncate(time.Millisecond)
		doc.DueDate = &due
	}
	return doc
}

func (d taskDocument) model() model.Task {
	return model.Task{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		Status:      model.Status(d.Status),
		Priority:    model.Priority(d.Priority),
		DueDate:     d.DueDate,
		Category:    d.Category,
		UserID:      d.UserID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		Version:     d.Version,
	}
}

// MongoTaskRepo хранит задачи в коллекции MongoDB.
type MongoTaskRepo struct {
	coll *mongo.Collection
}

func NewMongoTaskRepo(db *mongo.Database) *MongoTaskRepo {
	return &MongoTaskRepo{coll: db.Collection(tasksCollection)}
}

// EnsureIndexes creates the owner/status, owner/createdAt and dueDate indexes.
func (r *MongoTaskRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

func (r *MongoTaskRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	doc := newTaskDocument(t)
	doc.ID = primitive.NewObjectID()
	doc.Version = 1
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return model.Task{}, mapMongoError(err)
	}
	return doc.model(), nil
}

func (r *MongoTaskRepo) Get(ctx context.Context, ownerID, id string) (model.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return model.Task{}, mapMongoError(err)
	}
	return doc.model(), nil
}

func (r *MongoTaskRepo) List(ctx context.Context, ownerID string, filter model.TaskFilter) ([]model.Task, error) {
	query := bson.M{"userId": ownerID}
	if filter.Status != nil {
		query["status"] = string(*filter.Status)
	}
	if filter.Priority != nil {
		query["priority"] = string(*filter.Priority)
	}
	if filter.Category != nil {
		query["category"] = *filter.Category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := make([]model.Task, 0)
	for cur.Next(ctx) {
		var doc taskDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		tasks = append(tasks, doc.model())
	}
	return tasks, cur.Err()
}

func (r *MongoTaskRepo) Update(ctx context.Context, t model.Task) (model.Task, error) {
	owned, ok := ownedFilter(t.UserID, t.ID)
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	doc := newTaskDocument(t)
	set := bson.M{
		"title":       doc.Title,
		"description": doc.Description,
		"status":      doc.Status,
		"priority":    doc.Priority,
		"category":    doc.Category,
		"updatedAt":   doc.UpdatedAt,
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": 1}}
	if doc.DueDate != nil {
		set["dueDate"] = *doc.DueDate
	} else {
		update["$unset"] = bson.M{"dueDate": ""}
	}

	filter := bson.M{"_id": owned["_id"], "userId": owned["userId"], "version": versionMatch(t.Version)}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var out taskDocument
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		n, cerr := r.coll.CountDocuments(ctx, owned)
		if cerr != nil {
			return model.Task{}, cerr
		}
		if n > 0 {
			return model.Task{}, ErrorVersionConflict
		}
		return model.Task{}, ErrorNotFound
	}
	if err != nil {
		return model.Task{}, mapMongoError(err)
	}
	return out.model(), nil
}

// versionMatch treats a missing version field as version 0.
func versionMatch(v int64) interface{} {
	if v == 0 {
		return bson.M{"$in": bson.A{0, nil}}
	}
	return v
}

func (r *MongoTaskRepo) Delete(ctx context.Context, ownerID, id string) (model.Task, error) {
	filter, ok := ownedFilter(ownerID, id)
	if !ok {
		return model.Task{}, ErrorNotFound
	}

	var doc taskDocument
	if err := r.coll.FindOneAndDelete(ctx, filter).Decode(&doc); err != nil {
		return model.Task{}, mapMongoError(err)
	}
	return doc.model(), nil
}

func (r *MongoTaskRepo) GetStats(ctx context.Context, ownerID string) (model.TaskStats, error) {
	byStatus, err := r.countBy(ctx, ownerID, "$status")
	if err != nil {
		return model.TaskStats{}, err
	}
	byPriority, err := r.countBy(ctx, ownerID, "$priority")
	if err != nil {
		return model.TaskStats{}, err
	}
	total, err := r.coll.CountDocuments(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return model.TaskStats{}, err
	}
	return model.NewTaskStats(int(total), byStatus, byPriority), nil
}

func (r *MongoTaskRepo) countBy(ctx context.Context, ownerID, field string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": ownerID}}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.ID] = row.Count
	}
	return counts, nil
}

// ownedFilter returns false for ids that are not valid ObjectIDs; such ids can never match.
func ownedFilter(ownerID, id string) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}
	return bson.M{"_id": oid, "userId": ownerID}, true
}

func mapMongoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrorNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return ErrorConflict
	}
	return err
}

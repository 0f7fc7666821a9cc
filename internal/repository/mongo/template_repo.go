package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"udec/workout-tracker/internal/domain"
	"udec/workout-tracker/internal/repository"
)

const templateCollectionName = "workout_templates"

// mongoTemplateRepository implements repository.TemplateRepository.
// Template exercises are embedded in the template document; adding and
// removing entries are single $push/$pull updates.
type mongoTemplateRepository struct {
	collection *mongo.Collection
}

// NewMongoTemplateRepository creates a new workout template repository.
func NewMongoTemplateRepository(db *mongo.Database) repository.TemplateRepository {
	return &mongoTemplateRepository{
		collection: db.Collection(templateCollectionName),
	}
}

func (r *mongoTemplateRepository) Create(ctx context.Context, tpl *domain.WorkoutTemplate) (primitive.ObjectID, error) {
	if tpl.Name == "" || tpl.CreatedBy == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("template requires name and creator")
	}
	tpl.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tpl.CreatedAt = now
	tpl.UpdatedAt = now
	if tpl.Exercises == nil {
		tpl.Exercises = []domain.TemplateExercise{}
	}
	for i := range tpl.Exercises {
		if tpl.Exercises[i].ID == primitive.NilObjectID {
			tpl.Exercises[i].ID = primitive.NewObjectID()
		}
	}

	result, err := r.collection.InsertOne(ctx, tpl)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted template ID")
	}
	return insertedID, nil
}

func (r *mongoTemplateRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutTemplate, error) {
	var tpl domain.WorkoutTemplate
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tpl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *mongoTemplateRepository) ListPublic(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error) {
	return r.list(ctx, bson.M{"isPublic": true}, skip, limit)
}

func (r *mongoTemplateRepository) List(ctx context.Context, skip, limit int) ([]domain.WorkoutTemplate, error) {
	return r.list(ctx, bson.M{}, skip, limit)
}

func (r *mongoTemplateRepository) list(ctx context.Context, filter bson.M, skip, limit int) ([]domain.WorkoutTemplate, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	templates := []domain.WorkoutTemplate{}
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *mongoTemplateRepository) UpdateMeta(ctx context.Context, tpl *domain.WorkoutTemplate) error {
	if tpl.ID == primitive.NilObjectID {
		return errors.New("template ID is required for update")
	}
	tpl.UpdatedAt = time.Now().UTC()

	filter := bson.M{"_id": tpl.ID}
	updateDoc := bson.M{
		"$set": bson.M{
			"name":        tpl.Name,
			"description": tpl.Description,
			"isPublic":    tpl.IsPublic,
			"updatedAt":   tpl.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTemplateRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTemplateRepository) AddExercise(ctx context.Context, templateID primitive.ObjectID, te *domain.TemplateExercise) error {
	if te.ExerciseID == primitive.NilObjectID {
		return errors.New("template exercise requires an exercise ID")
	}
	if te.ID == primitive.NilObjectID {
		te.ID = primitive.NewObjectID()
	}

	filter := bson.M{"_id": templateID}
	updateDoc := bson.M{
		"$push": bson.M{"exercises": te},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoTemplateRepository) RemoveExercise(ctx context.Context, templateID, templateExerciseID primitive.ObjectID) error {
	filter := bson.M{"_id": templateID}
	updateDoc := bson.M{
		"$pull": bson.M{"exercises": bson.M{"_id": templateExerciseID}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	if result.ModifiedCount == 0 {
		// Template exists but no embedded exercise matched the id.
		return repository.ErrNotFound
	}
	return nil
}

// EnsureTemplateIndexes creates indexes for template listing.
func EnsureTemplateIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "isPublic", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

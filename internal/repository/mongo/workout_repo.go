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

const workoutCollectionName = "workouts"

// mongoWorkoutRepository implements repository.WorkoutRepository.
//
// The whole workout aggregate (exercises and sets included) lives in one
// document. Every mutation filter carries {userId, active: true}, so the
// lifecycle rule "a completed workout is immutable" and the ownership rule
// are both enforced by the database on each write, not just checked first.
type mongoWorkoutRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutRepository creates a new workout repository.
func NewMongoWorkoutRepository(db *mongo.Database) repository.WorkoutRepository {
	return &mongoWorkoutRepository{
		collection: db.Collection(workoutCollectionName),
	}
}

// Create inserts a new active workout. The partial unique index on
// (userId) where active == true turns a concurrent double-start into a
// duplicate-key error, which is mapped to ErrConflict.
func (r *mongoWorkoutRepository) Create(ctx context.Context, workout *domain.Workout) (primitive.ObjectID, error) {
	if workout.UserID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("workout requires a user ID")
	}
	workout.ID = primitive.NewObjectID()
	workout.Active = true
	workout.CompletedAt = nil
	if workout.StartedAt.IsZero() {
		workout.StartedAt = time.Now().UTC()
	}
	if workout.Exercises == nil {
		workout.Exercises = []domain.WorkoutExercise{}
	}
	for i := range workout.Exercises {
		if workout.Exercises[i].ID == primitive.NilObjectID {
			workout.Exercises[i].ID = primitive.NewObjectID()
		}
		if workout.Exercises[i].Sets == nil {
			workout.Exercises[i].Sets = []domain.ExerciseSet{}
		}
	}

	result, err := r.collection.InsertOne(ctx, workout)
	if err != nil {
		if isDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted workout ID")
	}
	return insertedID, nil
}

func (r *mongoWorkoutRepository) GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"userId": userID, "active": true}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

// GetByIDForUser scopes the lookup to the owning user. A foreign workout id
// yields ErrNotFound, indistinguishable from an unknown id.
func (r *mongoWorkoutRepository) GetByIDForUser(ctx context.Context, workoutID, userID primitive.ObjectID) (*domain.Workout, error) {
	var workout domain.Workout
	filter := bson.M{"_id": workoutID, "userId": userID}
	err := r.collection.FindOne(ctx, filter).Decode(&workout)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &workout, nil
}

func (r *mongoWorkoutRepository) ListCompletedByUser(ctx context.Context, userID primitive.ObjectID, skip, limit int) ([]domain.Workout, error) {
	filter := bson.M{"userId": userID, "active": false}
	findOptions := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetSkip(int64(skip)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	workouts := []domain.Workout{}
	if err = cursor.All(ctx, &workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

func (r *mongoWorkoutRepository) AddExercise(ctx context.Context, workoutID, userID primitive.ObjectID, we *domain.WorkoutExercise) error {
	if we.ExerciseID == primitive.NilObjectID {
		return errors.New("workout exercise requires an exercise ID")
	}
	if we.ID == primitive.NilObjectID {
		we.ID = primitive.NewObjectID()
	}
	if we.Sets == nil {
		we.Sets = []domain.ExerciseSet{}
	}

	filter := r.activeFilter(workoutID, userID)
	updateDoc := bson.M{"$push": bson.M{"exercises": we}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

// RemoveExercise pulls the embedded exercise; its sets go with it since
// they are nested inside the pulled element.
func (r *mongoWorkoutRepository) RemoveExercise(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID) error {
	filter := r.activeFilter(workoutID, userID)
	filter["exercises._id"] = workoutExerciseID
	updateDoc := bson.M{"$pull": bson.M{"exercises": bson.M{"_id": workoutExerciseID}}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) AddSet(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID, set *domain.ExerciseSet) error {
	if set.ID == primitive.NilObjectID {
		set.ID = primitive.NewObjectID()
	}

	filter := r.activeFilter(workoutID, userID)
	filter["exercises._id"] = workoutExerciseID
	updateDoc := bson.M{"$push": bson.M{"exercises.$.sets": set}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) UpdateSet(ctx context.Context, workoutID, userID, workoutExerciseID, setID primitive.ObjectID, update repository.SetUpdate) error {
	if update.Empty() {
		return nil
	}

	fields := bson.M{}
	if update.SetNumber != nil {
		fields["exercises.$[ex].sets.$[st].setNumber"] = *update.SetNumber
	}
	if update.Reps != nil {
		fields["exercises.$[ex].sets.$[st].reps"] = *update.Reps
	}
	if update.Weight != nil {
		fields["exercises.$[ex].sets.$[st].weight"] = *update.Weight
	}
	if update.Duration != nil {
		fields["exercises.$[ex].sets.$[st].duration"] = *update.Duration
	}
	if update.RestDuration != nil {
		fields["exercises.$[ex].sets.$[st].restDuration"] = *update.RestDuration
	}
	if update.Completed != nil {
		fields["exercises.$[ex].sets.$[st].completed"] = *update.Completed
	}
	if update.Notes != nil {
		fields["exercises.$[ex].sets.$[st].notes"] = *update.Notes
	}

	// The element match in the query filter guarantees MatchedCount == 0
	// means the exercise/set pair is missing, never a silent no-op.
	filter := r.activeFilter(workoutID, userID)
	filter["exercises"] = bson.M{"$elemMatch": bson.M{"_id": workoutExerciseID, "sets._id": setID}}

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{
			bson.M{"ex._id": workoutExerciseID},
			bson.M{"st._id": setID},
		},
	}
	updateOptions := options.Update().SetArrayFilters(arrayFilters)

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$set": fields}, updateOptions)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) DeleteSet(ctx context.Context, workoutID, userID, workoutExerciseID, setID primitive.ObjectID) error {
	filter := r.activeFilter(workoutID, userID)
	filter["exercises"] = bson.M{"$elemMatch": bson.M{"_id": workoutExerciseID, "sets._id": setID}}

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{"ex._id": workoutExerciseID}},
	}
	updateOptions := options.Update().SetArrayFilters(arrayFilters)
	updateDoc := bson.M{"$pull": bson.M{"exercises.$[ex].sets": bson.M{"_id": setID}}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc, updateOptions)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) SetWorkoutNotes(ctx context.Context, workoutID, userID primitive.ObjectID, notes string) error {
	filter := r.activeFilter(workoutID, userID)
	updateDoc := bson.M{"$set": bson.M{"notes": notes}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) SetExerciseNotes(ctx context.Context, workoutID, userID, workoutExerciseID primitive.ObjectID, notes string) error {
	filter := r.activeFilter(workoutID, userID)
	filter["exercises._id"] = workoutExerciseID
	updateDoc := bson.M{"$set": bson.M{"exercises.$.notes": notes}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

// Complete flips active → completed in one compare-and-set. A second
// Complete matches nothing (active is already false) and reports
// ErrConflict without ever touching completedAt again.
func (r *mongoWorkoutRepository) Complete(ctx context.Context, workoutID, userID primitive.ObjectID, completedAt time.Time) error {
	filter := r.activeFilter(workoutID, userID)
	updateDoc := bson.M{"$set": bson.M{"active": false, "completedAt": completedAt.UTC()}}

	result, err := r.collection.UpdateOne(ctx, filter, updateDoc)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

// Delete removes the aggregate document; the embedded exercises and sets
// disappear with it. Only active workouts can be cancelled.
func (r *mongoWorkoutRepository) Delete(ctx context.Context, workoutID, userID primitive.ObjectID) error {
	filter := r.activeFilter(workoutID, userID)
	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return r.mutationError(ctx, workoutID, userID)
	}
	return nil
}

func (r *mongoWorkoutRepository) activeFilter(workoutID, userID primitive.ObjectID) bson.M {
	return bson.M{"_id": workoutID, "userId": userID, "active": true}
}

// mutationError resolves a zero-match write into the right failure: the
// workout exists for this user but is completed (ErrConflict); it does not
// exist or belongs to someone else (ErrNotFound); or it is active and the
// filter failed on a missing embedded exercise/set (also ErrNotFound).
func (r *mongoWorkoutRepository) mutationError(ctx context.Context, workoutID, userID primitive.ObjectID) error {
	var w struct {
		Active bool `bson:"active"`
	}
	err := r.collection.FindOne(ctx, bson.M{"_id": workoutID, "userId": userID}).Decode(&w)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return err
	}
	if !w.Active {
		return repository.ErrConflict
	}
	return repository.ErrNotFound
}

// EnsureWorkoutIndexes creates workout indexes, most importantly the
// partial unique index that holds the single-active-workout invariant even
// under concurrent starts.
func EnsureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "startedAt", Value: -1}},
			Options: options.Index(),
		},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

package questionService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"qa-server/models"
)

// MongoStore keeps questions in a single MongoDB collection with answers
// embedded as sub-documents.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping. The caller
// owns the returned client and must Disconnect it.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMongoStore(client *mongo.Client, dbName, collectionName string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(dbName).Collection(collectionName),
	}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer cursor.Close(ctx)

	questions := []models.Question{}
	for cursor.Next(ctx) {
		var question models.Question
		if err := cursor.Decode(&question); err != nil {
			return nil, fmt.Errorf("decode question: %w", err)
		}
		normalize(&question)
		questions = append(questions, question)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questions, nil
}

func (s *MongoStore) CreateQuestion(ctx context.Context, header, description string) (*models.Question, error) {
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	question := models.Question{
		ID:                  primitive.NewObjectID(),
		QuestionHeader:      header,
		QuestionDescription: description,
		Answers:             []models.Answer{},
	}
	if _, err := s.collection.InsertOne(ctx, question); err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	return &question, nil
}

func (s *MongoStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, invalidID("question", id)
	}

	var question models.Question
	err = s.collection.FindOne(ctx, bson.M{"_id": questionID}).Decode(&question)
	if err != nil {
		return nil, notFound(err, "get question")
	}
	normalize(&question)
	return &question, nil
}

func (s *MongoStore) PatchQuestion(ctx context.Context, id string, patch QuestionPatch) error {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return invalidID("question", id)
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	update := bson.M{"$set": bson.M(patch.fields())}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": questionID}, update)
	if err != nil {
		return fmt.Errorf("patch question: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteQuestion(ctx context.Context, id string) (*models.Question, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, invalidID("question", id)
	}

	var question models.Question
	err = s.collection.FindOneAndDelete(ctx, bson.M{"_id": questionID}).Decode(&question)
	if err != nil {
		return nil, notFound(err, "delete question")
	}
	normalize(&question)
	return &question, nil
}

func (s *MongoStore) AddAnswer(ctx context.Context, questionID, text string) (*models.Answer, error) {
	qID, err := primitive.ObjectIDFromHex(questionID)
	if err != nil {
		return nil, invalidID("question", questionID)
	}
	if err := validateAnswer(text); err != nil {
		return nil, err
	}

	answer := models.Answer{ID: primitive.NewObjectID(), Answer: text}
	update := bson.M{"$push": bson.M{"answers": answer}}
	result, err := s.collection.UpdateOne(ctx, bson.M{"_id": qID}, update)
	if err != nil {
		return nil, fmt.Errorf("add answer: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrNotFound
	}
	return &answer, nil
}

func (s *MongoStore) UpdateAnswer(ctx context.Context, questionID, answerID, text string) error {
	qID, aID, err := answerIDs(questionID, answerID)
	if err != nil {
		return err
	}
	if err := validateAnswer(text); err != nil {
		return err
	}

	filter := bson.M{"_id": qID, "answers._id": aID}
	update := bson.M{"$set": bson.M{"answers.$.answer": text}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update answer: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) RemoveAnswer(ctx context.Context, questionID, answerID string) error {
	qID, aID, err := answerIDs(questionID, answerID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": qID, "answers._id": aID}
	update := bson.M{"$pull": bson.M{"answers": bson.M{"_id": aID}}}
	result, err := s.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("remove answer: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) VoteCount(ctx context.Context, id string, kind models.VoteKind) (int, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, invalidID("question", id)
	}

	opts := options.FindOne().SetProjection(bson.M{kind.Field(): 1})
	var question models.Question
	err = s.collection.FindOne(ctx, bson.M{"_id": questionID}, opts).Decode(&question)
	if err != nil {
		return 0, notFound(err, "read votes")
	}
	return question.Votes(kind), nil
}

// AddVotes increments the counter by delta inside the database and returns
// the stored value after the increment.
func (s *MongoStore) AddVotes(ctx context.Context, id string, kind models.VoteKind, delta int) (int, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, invalidID("question", id)
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{kind.Field(): 1})
	update := bson.M{"$inc": bson.M{kind.Field(): delta}}

	var question models.Question
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": questionID}, update, opts).Decode(&question)
	if err != nil {
		return 0, notFound(err, "add votes")
	}
	return question.Votes(kind), nil
}

func answerIDs(questionID, answerID string) (primitive.ObjectID, primitive.ObjectID, error) {
	qID, err := primitive.ObjectIDFromHex(questionID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, invalidID("question", questionID)
	}
	aID, err := primitive.ObjectIDFromHex(answerID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, invalidID("answer", answerID)
	}
	return qID, aID, nil
}

func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// normalize makes documents stored without an answers array encode as [].
func normalize(q *models.Question) {
	if q.Answers == nil {
		q.Answers = []models.Answer{}
	}
}

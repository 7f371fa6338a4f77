package questionService

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"qa-server/models"
)

// MemoryStore is an in-process QuestionStore with the same semantics as
// MongoStore. Questions are listed in insertion order.
type MemoryStore struct {
	mu        sync.Mutex
	order     []primitive.ObjectID
	questions map[primitive.ObjectID]*models.Question
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{questions: make(map[primitive.ObjectID]*models.Question)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) ListQuestions(ctx context.Context) ([]models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	questions := make([]models.Question, 0, len(s.order))
	for _, id := range s.order {
		questions = append(questions, clone(s.questions[id]))
	}
	return questions, nil
}

func (s *MemoryStore) CreateQuestion(ctx context.Context, header, description string) (*models.Question, error) {
	if err := validateHeader(header); err != nil {
		return nil, err
	}

	question := &models.Question{
		ID:                  primitive.NewObjectID(),
		QuestionHeader:      header,
		QuestionDescription: description,
		Answers:             []models.Answer{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[question.ID] = question
	s.order = append(s.order, question.ID)

	out := clone(question)
	return &out, nil
}

func (s *MemoryStore) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, invalidID("question", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := clone(question)
	return &out, nil
}

func (s *MemoryStore) PatchQuestion(ctx context.Context, id string, patch QuestionPatch) error {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return invalidID("question", id)
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return ErrNotFound
	}
	if patch.QuestionHeader != nil {
		question.QuestionHeader = *patch.QuestionHeader
	}
	if patch.QuestionDescription != nil {
		question.QuestionDescription = *patch.QuestionDescription
	}
	if patch.UpVote != nil {
		question.UpVote = *patch.UpVote
	}
	if patch.DownVote != nil {
		question.DownVote = *patch.DownVote
	}
	return nil
}

func (s *MemoryStore) DeleteQuestion(ctx context.Context, id string) (*models.Question, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, invalidID("question", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.questions, questionID)
	for i, qid := range s.order {
		if qid == questionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	out := clone(question)
	return &out, nil
}

func (s *MemoryStore) AddAnswer(ctx context.Context, questionID, text string) (*models.Answer, error) {
	qID, err := primitive.ObjectIDFromHex(questionID)
	if err != nil {
		return nil, invalidID("question", questionID)
	}
	if err := validateAnswer(text); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[qID]
	if !ok {
		return nil, ErrNotFound
	}
	answer := models.Answer{ID: primitive.NewObjectID(), Answer: text}
	question.Answers = append(question.Answers, answer)
	return &answer, nil
}

func (s *MemoryStore) UpdateAnswer(ctx context.Context, questionID, answerID, text string) error {
	qID, aID, err := answerIDs(questionID, answerID)
	if err != nil {
		return err
	}
	if err := validateAnswer(text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, i := s.findAnswer(qID, aID)
	if i < 0 {
		return ErrNotFound
	}
	question.Answers[i].Answer = text
	return nil
}

func (s *MemoryStore) RemoveAnswer(ctx context.Context, questionID, answerID string) error {
	qID, aID, err := answerIDs(questionID, answerID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, i := s.findAnswer(qID, aID)
	if i < 0 {
		return ErrNotFound
	}
	question.Answers = append(question.Answers[:i], question.Answers[i+1:]...)
	return nil
}

func (s *MemoryStore) VoteCount(ctx context.Context, id string, kind models.VoteKind) (int, error) {
	question, err := s.GetQuestion(ctx, id)
	if err != nil {
		return 0, err
	}
	return question.Votes(kind), nil
}

func (s *MemoryStore) AddVotes(ctx context.Context, id string, kind models.VoteKind, delta int) (int, error) {
	questionID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, invalidID("question", id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	question, ok := s.questions[questionID]
	if !ok {
		return 0, ErrNotFound
	}
	if kind == models.DownVote {
		question.DownVote += delta
	} else {
		question.UpVote += delta
	}
	return question.Votes(kind), nil
}

// findAnswer must be called with s.mu held. It returns -1 when the pair does
// not match.
func (s *MemoryStore) findAnswer(qID, aID primitive.ObjectID) (*models.Question, int) {
	question, ok := s.questions[qID]
	if !ok {
		return nil, -1
	}
	for i, a := range question.Answers {
		if a.ID == aID {
			return question, i
		}
	}
	return question, -1
}

func clone(q *models.Question) models.Question {
	out := *q
	out.Answers = append([]models.Answer{}, q.Answers...)
	return out
}

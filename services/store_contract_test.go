package questionService_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"qa-server/models"
	"qa-server/services"
)

// runStoreContract exercises the behavior every QuestionStore must share.
// newStore must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) questionService.QuestionStore) {
	t.Run("CreateWithoutHeader", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		_, err := st.CreateQuestion(ctx, "", "no header")
		var verr *questionService.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("CreateQuestion: got %v, want ValidationError", err)
		}
		if verr.Field != "questionHeader" {
			t.Errorf("field: got %q, want questionHeader", verr.Field)
		}

		qs, err := st.ListQuestions(ctx)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		if len(qs) != 0 {
			t.Errorf("list: got %d questions, want 0", len(qs))
		}
	})

	t.Run("CreateDefaults", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		q, err := st.CreateQuestion(ctx, "Q1", "")
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}
		if q.ID.IsZero() {
			t.Error("expected a generated id")
		}

		got, err := st.GetQuestion(ctx, q.ID.Hex())
		if err != nil {
			t.Fatalf("GetQuestion: %v", err)
		}
		if got.QuestionHeader != "Q1" {
			t.Errorf("header: got %q, want Q1", got.QuestionHeader)
		}
		if got.UpVote != 0 || got.DownVote != 0 {
			t.Errorf("votes: got %d/%d, want 0/0", got.UpVote, got.DownVote)
		}
		if got.Answers == nil || len(got.Answers) != 0 {
			t.Errorf("answers: got %#v, want empty slice", got.Answers)
		}
	})

	t.Run("ListInsertionOrder", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()

		for _, h := range []string{"first", "second", "third"} {
			if _, err := st.CreateQuestion(ctx, h, "d"); err != nil {
				t.Fatalf("CreateQuestion(%s): %v", h, err)
			}
		}
		qs, err := st.ListQuestions(ctx)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		if len(qs) != 3 {
			t.Fatalf("list: got %d, want 3", len(qs))
		}
		if qs[0].QuestionHeader != "first" || qs[2].QuestionHeader != "third" {
			t.Errorf("order: got %q..%q", qs[0].QuestionHeader, qs[2].QuestionHeader)
		}
	})

	t.Run("AppendEmptyAnswer", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")

		_, err := st.AddAnswer(ctx, q.ID.Hex(), "   ")
		var verr *questionService.ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("AddAnswer: got %v, want ValidationError", err)
		}
		if n := len(mustGet(t, st, q.ID.Hex()).Answers); n != 0 {
			t.Errorf("answers: got %d, want 0", n)
		}
	})

	t.Run("AppendOrder", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")

		texts := []string{"a1", "a2", "a3", "a4"}
		for _, text := range texts {
			a, err := st.AddAnswer(ctx, q.ID.Hex(), text)
			if err != nil {
				t.Fatalf("AddAnswer(%s): %v", text, err)
			}
			if a.ID.IsZero() {
				t.Errorf("answer %s: expected generated id", text)
			}
		}

		got := mustGet(t, st, q.ID.Hex()).Answers
		if len(got) != len(texts) {
			t.Fatalf("answers: got %d, want %d", len(got), len(texts))
		}
		for i, text := range texts {
			if got[i].Answer != text {
				t.Errorf("answers[%d]: got %q, want %q", i, got[i].Answer, text)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "doomed")
		keep := mustCreate(t, st, "kept")
		if _, err := st.AddAnswer(ctx, q.ID.Hex(), "gone too"); err != nil {
			t.Fatalf("AddAnswer: %v", err)
		}

		deleted, err := st.DeleteQuestion(ctx, q.ID.Hex())
		if err != nil {
			t.Fatalf("DeleteQuestion: %v", err)
		}
		if deleted.QuestionHeader != "doomed" || len(deleted.Answers) != 1 {
			t.Errorf("deleted: got %+v", deleted)
		}

		if _, err := st.GetQuestion(ctx, q.ID.Hex()); !errors.Is(err, questionService.ErrNotFound) {
			t.Errorf("GetQuestion after delete: got %v, want ErrNotFound", err)
		}
		if _, err := st.DeleteQuestion(ctx, q.ID.Hex()); !errors.Is(err, questionService.ErrNotFound) {
			t.Errorf("second delete: got %v, want ErrNotFound", err)
		}

		qs, err := st.ListQuestions(ctx)
		if err != nil {
			t.Fatalf("ListQuestions: %v", err)
		}
		if len(qs) != 1 || qs[0].ID != keep.ID {
			t.Errorf("list after delete: got %+v", qs)
		}
	})

	t.Run("UpdateAnswer", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")
		a1, _ := st.AddAnswer(ctx, q.ID.Hex(), "one")
		a2, _ := st.AddAnswer(ctx, q.ID.Hex(), "two")

		if err := st.UpdateAnswer(ctx, q.ID.Hex(), a2.ID.Hex(), "TWO"); err != nil {
			t.Fatalf("UpdateAnswer: %v", err)
		}
		got := mustGet(t, st, q.ID.Hex()).Answers
		if got[0].ID != a1.ID || got[0].Answer != "one" {
			t.Errorf("answers[0]: got %+v, want untouched", got[0])
		}
		if got[1].Answer != "TWO" {
			t.Errorf("answers[1]: got %q, want TWO", got[1].Answer)
		}

		other := mustCreate(t, st, "other")
		err := st.UpdateAnswer(ctx, other.ID.Hex(), a1.ID.Hex(), "x")
		if !errors.Is(err, questionService.ErrNotFound) {
			t.Errorf("mismatched pair: got %v, want ErrNotFound", err)
		}

		var verr *questionService.ValidationError
		if err := st.UpdateAnswer(ctx, q.ID.Hex(), a1.ID.Hex(), ""); !errors.As(err, &verr) {
			t.Errorf("empty text: got %v, want ValidationError", err)
		}
	})

	t.Run("RemoveAnswer", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")
		a1, _ := st.AddAnswer(ctx, q.ID.Hex(), "one")
		a2, _ := st.AddAnswer(ctx, q.ID.Hex(), "two")

		if err := st.RemoveAnswer(ctx, q.ID.Hex(), a1.ID.Hex()); err != nil {
			t.Fatalf("RemoveAnswer: %v", err)
		}
		got := mustGet(t, st, q.ID.Hex()).Answers
		if len(got) != 1 || got[0].ID != a2.ID {
			t.Fatalf("answers after remove: got %+v", got)
		}

		err := st.RemoveAnswer(ctx, q.ID.Hex(), a1.ID.Hex())
		if !errors.Is(err, questionService.ErrNotFound) {
			t.Errorf("second remove: got %v, want ErrNotFound", err)
		}
		if n := len(mustGet(t, st, q.ID.Hex()).Answers); n != 1 {
			t.Errorf("answers: got %d, want 1", n)
		}
	})

	t.Run("Patch", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q, err := st.CreateQuestion(ctx, "old header", "old description")
		if err != nil {
			t.Fatalf("CreateQuestion: %v", err)
		}

		desc := "new description"
		up := 7
		err = st.PatchQuestion(ctx, q.ID.Hex(), questionService.QuestionPatch{
			QuestionDescription: &desc,
			UpVote:              &up,
		})
		if err != nil {
			t.Fatalf("PatchQuestion: %v", err)
		}
		got := mustGet(t, st, q.ID.Hex())
		if got.QuestionHeader != "old header" {
			t.Errorf("header: got %q, want untouched", got.QuestionHeader)
		}
		if got.QuestionDescription != desc {
			t.Errorf("description: got %q, want %q", got.QuestionDescription, desc)
		}
		if got.UpVote != 7 || got.DownVote != 0 {
			t.Errorf("votes: got %d/%d, want 7/0", got.UpVote, got.DownVote)
		}

		empty := ""
		var verr *questionService.ValidationError
		err = st.PatchQuestion(ctx, q.ID.Hex(), questionService.QuestionPatch{QuestionHeader: &empty})
		if !errors.As(err, &verr) {
			t.Errorf("empty header patch: got %v, want ValidationError", err)
		}
		if err := st.PatchQuestion(ctx, q.ID.Hex(), questionService.QuestionPatch{}); !errors.As(err, &verr) {
			t.Errorf("empty patch: got %v, want ValidationError", err)
		}

		header := "h"
		missing := primitive.NewObjectID().Hex()
		err = st.PatchQuestion(ctx, missing, questionService.QuestionPatch{QuestionHeader: &header})
		if !errors.Is(err, questionService.ErrNotFound) {
			t.Errorf("patch missing: got %v, want ErrNotFound", err)
		}
	})

	t.Run("Votes", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")
		id := q.ID.Hex()

		if n, err := st.AddVotes(ctx, id, models.UpVote, 5); err != nil || n != 5 {
			t.Fatalf("AddVotes(5): got %d, %v", n, err)
		}
		if n, err := st.AddVotes(ctx, id, models.UpVote, 3); err != nil || n != 8 {
			t.Fatalf("AddVotes(3): got %d, %v; want 8", n, err)
		}
		if n, err := st.AddVotes(ctx, id, models.DownVote, -2); err != nil || n != -2 {
			t.Fatalf("AddVotes(down,-2): got %d, %v; want -2", n, err)
		}

		up, err := st.VoteCount(ctx, id, models.UpVote)
		if err != nil || up != 8 {
			t.Errorf("VoteCount(up): got %d, %v; want 8", up, err)
		}
		down, err := st.VoteCount(ctx, id, models.DownVote)
		if err != nil || down != -2 {
			t.Errorf("VoteCount(down): got %d, %v; want -2", down, err)
		}
	})

	t.Run("ConcurrentVotesAreNotLost", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")

		const workers = 16
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := st.AddVotes(ctx, q.ID.Hex(), models.UpVote, 1); err != nil {
					t.Errorf("AddVotes: %v", err)
				}
			}()
		}
		wg.Wait()

		if got := mustGet(t, st, q.ID.Hex()).UpVote; got != workers {
			t.Errorf("upVote: got %d, want %d", got, workers)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		id := primitive.NewObjectID().Hex()
		aid := primitive.NewObjectID().Hex()

		checks := map[string]error{}
		_, checks["GetQuestion"] = st.GetQuestion(ctx, id)
		_, checks["DeleteQuestion"] = st.DeleteQuestion(ctx, id)
		_, checks["AddAnswer"] = st.AddAnswer(ctx, id, "text")
		checks["UpdateAnswer"] = st.UpdateAnswer(ctx, id, aid, "text")
		checks["RemoveAnswer"] = st.RemoveAnswer(ctx, id, aid)
		_, checks["VoteCount"] = st.VoteCount(ctx, id, models.UpVote)
		_, checks["AddVotes"] = st.AddVotes(ctx, id, models.DownVote, 1)

		for op, err := range checks {
			if !errors.Is(err, questionService.ErrNotFound) {
				t.Errorf("%s: got %v, want ErrNotFound", op, err)
			}
		}
	})

	t.Run("InvalidID", func(t *testing.T) {
		st := newStore(t)
		ctx := context.Background()
		q := mustCreate(t, st, "Q")

		checks := map[string]error{}
		_, checks["GetQuestion"] = st.GetQuestion(ctx, "not-an-id")
		_, checks["DeleteQuestion"] = st.DeleteQuestion(ctx, "123")
		_, checks["AddAnswer"] = st.AddAnswer(ctx, "zz", "text")
		checks["UpdateAnswer"] = st.UpdateAnswer(ctx, q.ID.Hex(), "bad", "text")
		checks["RemoveAnswer"] = st.RemoveAnswer(ctx, "bad", q.ID.Hex())
		_, checks["AddVotes"] = st.AddVotes(ctx, "bad", models.UpVote, 1)

		for op, err := range checks {
			if !errors.Is(err, questionService.ErrInvalidID) {
				t.Errorf("%s: got %v, want ErrInvalidID", op, err)
			}
		}
	})
}

func mustCreate(t *testing.T, st questionService.QuestionStore, header string) *models.Question {
	t.Helper()
	q, err := st.CreateQuestion(context.Background(), header, "")
	if err != nil {
		t.Fatalf("CreateQuestion(%q): %v", header, err)
	}
	return q
}

func mustGet(t *testing.T, st questionService.QuestionStore, id string) *models.Question {
	t.Helper()
	q, err := st.GetQuestion(context.Background(), id)
	if err != nil {
		t.Fatalf("GetQuestion(%s): %v", id, err)
	}
	return q
}

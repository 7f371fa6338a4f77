package questioncontroller

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"qa-server/models"
	"qa-server/services"
)

type QuestionController struct {
	store questionService.QuestionStore
}

func New(store questionService.QuestionStore) *QuestionController {
	return &QuestionController{store: store}
}

type askRequest struct {
	QuestionHeader      string `form:"questionHeader" json:"questionHeader"`
	QuestionDescription string `form:"questionDescription" json:"questionDescription"`
}

type answerRequest struct {
	Answer string `form:"answer" json:"answer"`
}

// voteRequest carries the increment. Current is what older clients believe
// the stored value to be; it is accepted and ignored.
type voteRequest struct {
	Current *int `form:"current" json:"current"`
	Add     *int `form:"add" json:"add" binding:"required"`
}

// HandleList handles GET / and returns every question with its answers
func (c *QuestionController) HandleList(ctx *gin.Context) {
	questions, err := c.store.ListQuestions(ctx.Request.Context())
	if err != nil {
		fail(ctx, err, "")
		return
	}
	ok(ctx, gin.H{"questions": questions})
}

// HandleAsk handles POST /ask for creating a new question
func (c *QuestionController) HandleAsk(ctx *gin.Context) {
	var req askRequest
	if err := ctx.ShouldBind(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	question, err := c.store.CreateQuestion(ctx.Request.Context(), req.QuestionHeader, req.QuestionDescription)
	if err != nil {
		fail(ctx, err, "")
		return
	}
	ok(ctx, gin.H{"message": "Question saved", "question": question})
}

// HandleGet handles GET /question/:questionID
func (c *QuestionController) HandleGet(ctx *gin.Context) {
	question, err := c.store.GetQuestion(ctx.Request.Context(), ctx.Param("questionID"))
	if err != nil {
		fail(ctx, err, questionNotFound)
		return
	}
	ok(ctx, gin.H{"question": question})
}

// HandleAddAnswer handles POST /question/:questionID, appending an answer
func (c *QuestionController) HandleAddAnswer(ctx *gin.Context) {
	var req answerRequest
	if err := ctx.ShouldBind(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	answer, err := c.store.AddAnswer(ctx.Request.Context(), ctx.Param("questionID"), req.Answer)
	if err != nil {
		fail(ctx, err, questionNotFound)
		return
	}
	ok(ctx, gin.H{"message": "Answer Added", "answer": answer})
}

// HandlePatch handles PATCH /question/:questionID. Only the fields present in
// the body are replaced.
func (c *QuestionController) HandlePatch(ctx *gin.Context) {
	if err := requireIntegers(ctx, "upVote", "downVote"); err != nil {
		fail(ctx, err, "")
		return
	}
	var patch questionService.QuestionPatch
	if err := ctx.ShouldBind(&patch); err != nil {
		badRequest(ctx, err)
		return
	}

	if err := c.store.PatchQuestion(ctx.Request.Context(), ctx.Param("questionID"), patch); err != nil {
		fail(ctx, err, questionNotFound)
		return
	}
	ok(ctx, gin.H{"message": "Question Updated"})
}

// HandleDelete handles DELETE /question/:questionID; answers go with it
func (c *QuestionController) HandleDelete(ctx *gin.Context) {
	question, err := c.store.DeleteQuestion(ctx.Request.Context(), ctx.Param("questionID"))
	if err != nil {
		fail(ctx, err, questionNotFound)
		return
	}
	ok(ctx, gin.H{"message": "Question Deleted", "question": question})
}

// HandleUpdateAnswer handles PATCH /question/:questionID/answer/:answerID
func (c *QuestionController) HandleUpdateAnswer(ctx *gin.Context) {
	var req answerRequest
	if err := ctx.ShouldBind(&req); err != nil {
		badRequest(ctx, err)
		return
	}

	err := c.store.UpdateAnswer(ctx.Request.Context(), ctx.Param("questionID"), ctx.Param("answerID"), req.Answer)
	if err != nil {
		fail(ctx, err, answerNotFound)
		return
	}
	ok(ctx, gin.H{"message": "Answer Updated"})
}

// HandleRemoveAnswer handles DELETE /question/:questionID/answer/:answerID
func (c *QuestionController) HandleRemoveAnswer(ctx *gin.Context) {
	err := c.store.RemoveAnswer(ctx.Request.Context(), ctx.Param("questionID"), ctx.Param("answerID"))
	if err != nil {
		fail(ctx, err, answerNotFound)
		return
	}
	ok(ctx, gin.H{"message": "Answer Deleted"})
}

// HandleGetVotes returns the current value of one vote counter as {message: n}.
func (c *QuestionController) HandleGetVotes(kind models.VoteKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		n, err := c.store.VoteCount(ctx.Request.Context(), ctx.Param("questionID"), kind)
		if err != nil {
			fail(ctx, err, questionNotFound)
			return
		}
		ok(ctx, gin.H{"message": n})
	}
}

// HandleAddVotes increments one vote counter by add and returns the stored
// value after the increment.
func (c *QuestionController) HandleAddVotes(kind models.VoteKind) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := requireIntegers(ctx, "add"); err != nil {
			fail(ctx, err, "")
			return
		}
		var req voteRequest
		if err := ctx.ShouldBind(&req); err != nil {
			badRequest(ctx, err)
			return
		}

		n, err := c.store.AddVotes(ctx.Request.Context(), ctx.Param("questionID"), kind, *req.Add)
		if err != nil {
			fail(ctx, err, questionNotFound)
			return
		}
		ok(ctx, gin.H{"message": "Vote Updated", kind.Field(): n})
	}
}

// requireIntegers rejects integer form fields sent with an empty value, which
// gin's form binding would otherwise store as 0.
func requireIntegers(ctx *gin.Context, fields ...string) error {
	for _, field := range fields {
		if v, ok := ctx.GetPostForm(field); ok && strings.TrimSpace(v) == "" {
			return &questionService.ValidationError{Field: field, Message: field + " must be an integer"}
		}
	}
	return nil
}

// HandleHealth reports whether the store is reachable.
func (c *QuestionController) HandleHealth(ctx *gin.Context) {
	if err := c.store.Ping(ctx.Request.Context()); err != nil {
		_ = ctx.Error(err)
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterHandlers registers all routes for the question controller
func (c *QuestionController) RegisterHandlers(router gin.IRouter) {
	router.GET("/", c.HandleList)
	router.POST("/ask", c.HandleAsk)
	router.GET("/healthz", c.HandleHealth)

	question := router.Group("/question/:questionID")
	question.GET("", c.HandleGet)
	question.POST("", c.HandleAddAnswer)
	question.PATCH("", c.HandlePatch)
	question.DELETE("", c.HandleDelete)

	question.PATCH("/answer/:answerID", c.HandleUpdateAnswer)
	question.DELETE("/answer/:answerID", c.HandleRemoveAnswer)

	question.GET("/upvote", c.HandleGetVotes(models.UpVote))
	question.PUT("/upvote", c.HandleAddVotes(models.UpVote))
	question.GET("/downvote", c.HandleGetVotes(models.DownVote))
	question.PUT("/downvote", c.HandleAddVotes(models.DownVote))
}

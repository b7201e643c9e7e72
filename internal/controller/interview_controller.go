package controller

import (
	"errors"
	"strconv"

	"interview_coach_backend/internal/model"
	"interview_coach_backend/internal/service"
	"interview_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InterviewController struct {
	Service *service.InterviewService
}

func NewInterviewController(svc *service.InterviewService) *InterviewController {
	return &InterviewController{Service: svc}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func respondInterviewError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound), errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

// swagger:model CreateSessionRequest
type CreateSessionRequest struct {
	Title    string `json:"title" binding:"required"`
	Position string `json:"position"`
}

// CreateSession godoc
// @Summary 创建面试会话
// @Tags 面试会话
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param body body CreateSessionRequest true "会话信息"
// @Success 201 {object} util.Response{data=model.InterviewSession}
// @Router /api/sessions [post]
func (c *InterviewController) CreateSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.Service.CreateSession(claims.UserID, req.Title, req.Position)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// ListSessions godoc
// @Summary 获取面试会话列表
// @Tags 面试会话
// @Produce json
// @Security ApiKeyAuth
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /api/sessions [get]
func (c *InterviewController) ListSessions(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	sessions, total, err := c.Service.ListSessions(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: sessions, Total: total, Page: page, Limit: limit})
}

// GetSession godoc
// @Summary 获取面试会话详情（含作答列表）
// @Tags 面试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response{data=model.InterviewSession}
// @Router /api/sessions/{id} [get]
func (c *InterviewController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	session, err := c.Service.GetSession(claims.UserID, id)
	if err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// FinishSession godoc
// @Summary 结束面试会话
// @Tags 面试会话
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "会话ID"
// @Success 200 {object} util.Response
// @Router /api/sessions/{id}/finish [post]
func (c *InterviewController) FinishSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.Service.FinishSession(claims.UserID, id); err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// swagger:model CreateAttemptRequest
type CreateAttemptRequest struct {
	Question string `json:"question" binding:"required"`
}

// CreateAttempt godoc
// @Summary 在会话下创建一次作答
// @Tags 作答
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "会话ID"
// @Param body body CreateAttemptRequest true "题目信息"
// @Success 201 {object} util.Response{data=model.AnswerAttempt}
// @Router /api/sessions/{id}/attempts [post]
func (c *InterviewController) CreateAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	sessionID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req CreateAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	attempt, err := c.Service.CreateAttempt(claims.UserID, sessionID, req.Question)
	if err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Created(ctx, attempt)
}

// GetAttempt godoc
// @Summary 获取作答详情（含媒体列表）
// @Tags 作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=model.AnswerAttempt}
// @Router /api/attempts/{id} [get]
func (c *InterviewController) GetAttempt(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	attempt, err := c.Service.GetAttempt(claims.UserID, id)
	if err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Success(ctx, attempt)
}

// swagger:model UpdateSttRequest
type UpdateSttRequest struct {
	SttText string `json:"sttText" binding:"required"`
}

// UpdateSttText godoc
// @Summary 回填作答的语音转写文本
// @Tags 作答
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param body body UpdateSttRequest true "转写文本"
// @Success 200 {object} util.Response
// @Router /api/attempts/{id}/stt [put]
func (c *InterviewController) UpdateSttText(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateSttRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.Service.UpdateSttText(claims.UserID, id, req.SttText); err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// UploadMedia godoc
// @Summary 上传作答录制文件
// @Description 支持kind: 1=视频 2=图片 3=音频
// @Tags 作答
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param kind formData int true "媒体类型"
// @Param file formData file true "媒体文件"
// @Success 201 {object} util.Response{data=model.MediaAsset}
// @Router /api/attempts/{id}/media [post]
func (c *InterviewController) UploadMedia(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	kindVal, err := strconv.Atoi(ctx.PostForm("kind"))
	if err != nil {
		util.BadRequest(ctx, "invalid kind")
		return
	}
	kind := model.MediaKind(kindVal)
	if kind != model.MediaVideo && kind != model.MediaImage && kind != model.MediaAudio {
		util.BadRequest(ctx, "invalid kind")
		return
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	asset, err := c.Service.UploadMedia(
		ctx.Request.Context(),
		claims.UserID, id, kind,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		respondInterviewError(ctx, err)
		return
	}
	util.Created(ctx, asset)
}

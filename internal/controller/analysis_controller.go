package controller

import (
	"errors"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/service"
	"interview_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalysisController struct {
	Analysis  *service.AnalysisService
	Interview *service.InterviewService
}

func NewAnalysisController(analysisSvc *service.AnalysisService, interviewSvc *service.InterviewService) *AnalysisController {
	return &AnalysisController{Analysis: analysisSvc, Interview: interviewSvc}
}

// Trigger godoc
// @Summary 触发一次作答的多模态分析
// @Description 异步受理：返回accepted后轮询反馈接口获取结果。已有就绪结果时直接返回cached
// @Tags 分析反馈
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param force query bool false "强制重新分析"
// @Success 200 {object} util.Response "cached或in_progress"
// @Success 202 {object} util.Response "accepted"
// @Failure 404 {object} util.Response "作答不存在"
// @Router /api/attempts/{id}/analysis [post]
func (c *AnalysisController) Trigger(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	// 归属校验
	if _, err := c.Interview.GetAttempt(claims.UserID, id); err != nil {
		respondInterviewError(ctx, err)
		return
	}

	force := ctx.Query("force") == "true"
	outcome, record, err := c.Analysis.Trigger(ctx.Request.Context(), id, force)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "service temporarily unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	switch outcome {
	case service.TriggerCached:
		util.Success(ctx, gin.H{"outcome": outcome, "feedback": record})
	case service.TriggerInProgress:
		util.Success(ctx, gin.H{"outcome": outcome, "status": record.Status, "version": record.Version})
	default:
		util.Accepted(ctx, gin.H{"outcome": outcome, "status": record.Status, "version": record.Version})
	}
}

// GetFeedback godoc
// @Summary 查询作答的分析反馈
// @Description 轮询接口：status为pending/analyzing时结果尚未就绪
// @Tags 分析反馈
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Param modality query string false "只取单个模态: pose/voice/face"
// @Success 200 {object} util.Response{data=model.FeedbackRecord}
// @Failure 404 {object} util.Response "作答或反馈不存在"
// @Router /api/attempts/{id}/feedback [get]
func (c *AnalysisController) GetFeedback(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if _, err := c.Interview.GetAttempt(claims.UserID, id); err != nil {
		respondInterviewError(ctx, err)
		return
	}

	record, err := c.Analysis.Fetch(ctx.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrAttemptNotFound), errors.Is(err, util.ErrFeedbackNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrStoreUnavailable):
			util.Error(ctx, 503, "service temporarily unavailable")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	if name := ctx.Query("modality"); name != "" {
		m, ok := analysis.ParseModality(name)
		if !ok {
			util.BadRequest(ctx, "invalid modality")
			return
		}
		util.Success(ctx, gin.H{
			"attemptId": record.AttemptID,
			"status":    record.Status,
			"version":   record.Version,
			"modality":  name,
			"result":    record.Modality(m),
		})
		return
	}

	util.Success(ctx, record)
}

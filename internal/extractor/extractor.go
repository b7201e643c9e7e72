package extractor

import (
	"context"
	"errors"

	"interview_coach_backend/internal/analysis"
)

var (
	ErrExtractionFailed  = errors.New("feature extraction failed")
	ErrExtractionTimeout = errors.New("feature extraction timed out")
)

// MediaHandle 已落地到本地磁盘的媒体文件。
// Cleanup在分析结束后调用，删除临时下载产物（可为nil）。
type MediaHandle struct {
	Path    string
	Cleanup func()
}

func (h MediaHandle) Close() {
	if h.Cleanup != nil {
		h.Cleanup()
	}
}

// Extractor 把单模态媒体转为特征帧序列。实现方负责自己的临时文件清理
type Extractor interface {
	Modality() analysis.Modality
	Extract(ctx context.Context, media MediaHandle) ([]analysis.FeatureFrame, error)
}

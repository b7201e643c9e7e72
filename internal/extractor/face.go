package extractor

import (
	"context"
	"fmt"
	"math"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/pkg/logger"

	"go.uber.org/zap"
)

// 信号平滑与基线标定参数
const (
	faceSmoothAlpha    = 0.3 // EMA平滑系数
	faceBaselineWindow = 2.0 // 基线标定窗口（秒）
)

// FaceExtractor 从作答视频提取表情信号。
// 前2秒用于标定EAR/视线/嘴角基线，后续帧输出相对基线的偏移
type FaceExtractor struct {
	client *InferenceClient
	fps    float64
}

func NewFaceExtractor(client *InferenceClient, fps float64) *FaceExtractor {
	return &FaceExtractor{client: client, fps: fps}
}

func (e *FaceExtractor) Modality() analysis.Modality { return analysis.ModalityFace }

func (e *FaceExtractor) Extract(ctx context.Context, media MediaHandle) ([]analysis.FeatureFrame, error) {
	raw, err := e.client.FaceSignals(ctx, media.Path, e.fps)
	if err != nil {
		return nil, err
	}

	// 未检出人脸的帧直接丢弃，帧数不足由打分侧判定
	detected := raw[:0]
	for _, f := range raw {
		if f.Detected {
			detected = append(detected, f)
		}
	}
	// 整段视频一帧人脸都没有属于提取失败，不能静默返回空序列
	if len(detected) == 0 {
		return nil, fmt.Errorf("%w: no face detected in any frame", ErrExtractionFailed)
	}

	// EMA平滑，抑制单帧检测抖动
	smoothed := make([]FaceFrame, len(detected))
	smoothed[0] = detected[0]
	for i := 1; i < len(detected); i++ {
		prev := smoothed[i-1]
		cur := detected[i]
		smoothed[i] = FaceFrame{
			Ts:       cur.Ts,
			Detected: true,
			GazeX:    faceSmoothAlpha*cur.GazeX + (1-faceSmoothAlpha)*prev.GazeX,
			EAR:      faceSmoothAlpha*cur.EAR + (1-faceSmoothAlpha)*prev.EAR,
			MouthY:   faceSmoothAlpha*cur.MouthY + (1-faceSmoothAlpha)*prev.MouthY,
		}
	}

	// 基线：开头窗口内的均值
	start := smoothed[0].Ts
	var gazeBase, earBase, mouthBase float64
	baseCount := 0
	for _, f := range smoothed {
		if f.Ts-start > faceBaselineWindow {
			break
		}
		gazeBase += f.GazeX
		earBase += f.EAR
		mouthBase += f.MouthY
		baseCount++
	}
	gazeBase /= float64(baseCount)
	earBase /= float64(baseCount)
	mouthBase /= float64(baseCount)

	frames := make([]analysis.FeatureFrame, 0, len(smoothed))
	for _, f := range smoothed {
		frames = append(frames, analysis.FeatureFrame{
			Timestamp: f.Ts,
			Values: map[string]float64{
				analysis.KeyGazeOff: math.Abs(f.GazeX - gazeBase),
				analysis.KeyEAR:     f.EAR,
				analysis.KeyEARBase: earBase,
				// 只关心嘴角下垂（y轴向下增大）
				analysis.KeyMouthDelta: math.Max(f.MouthY-mouthBase, 0),
			},
		})
	}

	logger.Log.Debug("表情特征提取完成",
		zap.String("media", media.Path),
		zap.Int("rawFrames", len(raw)),
		zap.Int("frames", len(frames)))
	return frames, nil
}

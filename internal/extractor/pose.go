package extractor

import (
	"context"
	"fmt"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/pkg/logger"

	"go.uber.org/zap"
)

// PoseExtractor 从作答视频提取人体关键点特征
type PoseExtractor struct {
	client *InferenceClient
	fps    float64
}

func NewPoseExtractor(client *InferenceClient, fps float64) *PoseExtractor {
	return &PoseExtractor{client: client, fps: fps}
}

func (e *PoseExtractor) Modality() analysis.Modality { return analysis.ModalityPose }

func (e *PoseExtractor) Extract(ctx context.Context, media MediaHandle) ([]analysis.FeatureFrame, error) {
	poseFrames, err := e.client.PoseLandmarks(ctx, media.Path, e.fps)
	if err != nil {
		return nil, err
	}
	if len(poseFrames) == 0 {
		return nil, fmt.Errorf("%w: no pose landmarks in any frame", ErrExtractionFailed)
	}

	frames := make([]analysis.FeatureFrame, 0, len(poseFrames))
	for _, pf := range poseFrames {
		values := make(map[string]float64, 12)
		put := func(name, prefix string) {
			lm, ok := pf.Landmarks[name]
			if !ok {
				return
			}
			values[prefix+"_x"] = lm.X
			values[prefix+"_y"] = lm.Y
			values[prefix+"_v"] = lm.Visibility
		}
		put("shoulder_l", "shoulder_l")
		put("shoulder_r", "shoulder_r")
		put("nose", "nose")
		put("wrist_l", "wrist_l")
		put("wrist_r", "wrist_r")
		frames = append(frames, analysis.FeatureFrame{Timestamp: pf.Ts, Values: values})
	}

	logger.Log.Debug("姿态特征提取完成",
		zap.String("media", media.Path),
		zap.Int("frames", len(frames)))
	return frames, nil
}

package extractor

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/util"
	"interview_coach_backend/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 半音换算基准频率（A1），仅影响绝对值，不影响音高变化幅度
const pitchRefHz = 55.0

// VoiceExtractor 抽取音轨为wav后做声学信号提取
type VoiceExtractor struct {
	client  *InferenceClient
	workDir string
}

func NewVoiceExtractor(client *InferenceClient, workDir string) *VoiceExtractor {
	return &VoiceExtractor{client: client, workDir: workDir}
}

func (e *VoiceExtractor) Modality() analysis.Modality { return analysis.ModalityVoice }

func (e *VoiceExtractor) Extract(ctx context.Context, media MediaHandle) ([]analysis.FeatureFrame, error) {
	wavPath := filepath.Join(e.workDir, uuid.New().String()+".wav")
	if err := util.ExtractAudio(media.Path, wavPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer os.Remove(wavPath)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionTimeout, err)
	}

	windows, err := e.client.VoiceSignals(ctx, wavPath)
	if err != nil {
		return nil, err
	}
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: no voice signal in audio track", ErrExtractionFailed)
	}

	frames := make([]analysis.FeatureFrame, 0, len(windows))
	for _, w := range windows {
		values := map[string]float64{
			analysis.KeyVoiced:       0,
			analysis.KeyPause:        1,
			analysis.KeySyllableRate: w.SyllableRate,
		}
		if w.Voiced && w.PitchHz > 0 {
			values[analysis.KeyVoiced] = 1
			values[analysis.KeyPause] = 0
			// Hz转半音，便于与音高变化阈值比较
			values[analysis.KeyPitchSt] = 12 * math.Log2(w.PitchHz/pitchRefHz)
		}
		frames = append(frames, analysis.FeatureFrame{Timestamp: w.Ts, Values: values})
	}

	logger.Log.Debug("语音特征提取完成",
		zap.String("media", media.Path),
		zap.Int("windows", len(frames)))
	return frames, nil
}

package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"interview_coach_backend/internal/analysis"
	"interview_coach_backend/internal/config"
	"interview_coach_backend/pkg/logger"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// fakeSidecar 模拟推理边车，对所有请求返回同一份JSON
func fakeSidecar(t *testing.T, payload interface{}) *InferenceClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return NewInferenceClient(config.InferenceConfig{BaseURL: srv.URL, TimeoutSeconds: 5 * time.Second})
}

func tempMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answer.mp4")
	if err := os.WriteFile(path, []byte("stub"), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// 整段视频一帧人脸都没检出时必须报提取失败，不能静默返回空序列
func TestFaceExtractorNoFaceDetected(t *testing.T) {
	client := fakeSidecar(t, map[string]interface{}{
		"frames": []FaceFrame{
			{Ts: 0.0, Detected: false},
			{Ts: 0.1, Detected: false},
			{Ts: 0.2, Detected: false},
		},
	})
	ext := NewFaceExtractor(client, 10)

	frames, err := ext.Extract(context.Background(), MediaHandle{Path: tempMedia(t)})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, 期望 ErrExtractionFailed", err)
	}
	if frames != nil {
		t.Errorf("frames = %v, 失败时不应返回帧", frames)
	}
}

// 边车返回零帧同样算提取失败
func TestPoseExtractorEmptyFrames(t *testing.T) {
	client := fakeSidecar(t, map[string]interface{}{"frames": []PoseFrame{}})
	ext := NewPoseExtractor(client, 10)

	_, err := ext.Extract(context.Background(), MediaHandle{Path: tempMedia(t)})
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("err = %v, 期望 ErrExtractionFailed", err)
	}
}

// 正常帧应展开为按关键点命名的特征值
func TestPoseExtractorMapsLandmarks(t *testing.T) {
	client := fakeSidecar(t, map[string]interface{}{
		"frames": []PoseFrame{
			{Ts: 0.5, Landmarks: map[string]Landmark{
				"shoulder_l": {X: 0.4, Y: 0.5, Visibility: 0.9},
				"nose":       {X: 0.55, Y: 0.2, Visibility: 0.8},
			}},
		},
	})
	ext := NewPoseExtractor(client, 10)

	frames, err := ext.Extract(context.Background(), MediaHandle{Path: tempMedia(t)})
	if err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("帧数 = %d, 期望 1", len(frames))
	}
	f := frames[0]
	if f.Timestamp != 0.5 {
		t.Errorf("Timestamp = %v, 期望 0.5", f.Timestamp)
	}
	if v, ok := f.Get(analysis.KeyShoulderLY); !ok || v != 0.5 {
		t.Errorf("%s = %v (%v), 期望 0.5", analysis.KeyShoulderLY, v, ok)
	}
	if v, ok := f.Get(analysis.KeyNoseX); !ok || v != 0.55 {
		t.Errorf("%s = %v (%v), 期望 0.55", analysis.KeyNoseX, v, ok)
	}
}

package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"interview_coach_backend/internal/config"
)

// Landmark 归一化图像坐标下的关键点
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// PoseFrame 单帧人体关键点，键名: shoulder_l/shoulder_r/nose/wrist_l/wrist_r
type PoseFrame struct {
	Ts        float64             `json:"ts"`
	Landmarks map[string]Landmark `json:"landmarks"`
}

// FaceFrame 单帧人脸信号
type FaceFrame struct {
	Ts       float64 `json:"ts"`
	Detected bool    `json:"detected"`
	GazeX    float64 `json:"gazeX"`  // 视线水平位置，画面中心为0
	EAR      float64 `json:"ear"`    // 眼睛纵横比
	MouthY   float64 `json:"mouthY"` // 嘴角垂直位置
}

// VoiceWindow 一个声学分析窗的信号
type VoiceWindow struct {
	Ts           float64 `json:"ts"`
	Voiced       bool    `json:"voiced"`
	PitchHz      float64 `json:"pitchHz"`
	Energy       float64 `json:"energy"`
	SyllableRate float64 `json:"syllableRate"`
}

// InferenceClient 关键点/信号推理边车服务的HTTP客户端
type InferenceClient struct {
	baseURL string
	client  *http.Client
}

func NewInferenceClient(cfg config.InferenceConfig) *InferenceClient {
	return &InferenceClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.TimeoutSeconds},
	}
}

// PoseLandmarks 按fps抽帧做姿态关键点检测
func (c *InferenceClient) PoseLandmarks(ctx context.Context, videoPath string, fps float64) ([]PoseFrame, error) {
	var result struct {
		Frames []PoseFrame `json:"frames"`
	}
	endpoint := "/v1/pose/landmarks?fps=" + strconv.FormatFloat(fps, 'f', -1, 64)
	if err := c.postFile(ctx, endpoint, videoPath, &result); err != nil {
		return nil, err
	}
	return result.Frames, nil
}

// FaceSignals 按fps抽帧做人脸信号检测
func (c *InferenceClient) FaceSignals(ctx context.Context, videoPath string, fps float64) ([]FaceFrame, error) {
	var result struct {
		Frames []FaceFrame `json:"frames"`
	}
	endpoint := "/v1/face/signals?fps=" + strconv.FormatFloat(fps, 'f', -1, 64)
	if err := c.postFile(ctx, endpoint, videoPath, &result); err != nil {
		return nil, err
	}
	return result.Frames, nil
}

// VoiceSignals 对wav做声学信号提取
func (c *InferenceClient) VoiceSignals(ctx context.Context, wavPath string) ([]VoiceWindow, error) {
	var result struct {
		Windows []VoiceWindow `json:"windows"`
	}
	if err := c.postFile(ctx, "/v1/voice/signals", wavPath, &result); err != nil {
		return nil, err
	}
	return result.Windows, nil
}

// postFile 以multipart上传文件并解析JSON响应，流式写入避免整文件驻留内存
func (c *InferenceClient) postFile(ctx context.Context, endpoint, filePath string, out interface{}) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(writer.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+endpoint, pr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return fmt.Errorf("%w: %v", ErrExtractionTimeout, err)
		}
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: inference service status %d: %s", ErrExtractionFailed, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrExtractionFailed, err)
	}
	return nil
}

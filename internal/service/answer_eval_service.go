package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"interview_coach_backend/internal/config"
)

// AnswerEvalService 调用大模型对作答转写文本生成点评
type AnswerEvalService struct {
	config config.AIConfig
}

func NewAnswerEvalService(cfg config.AIConfig) *AnswerEvalService {
	return &AnswerEvalService{config: cfg}
}

type evalChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type evalChatResponse struct {
	Choices []struct {
		Message evalChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// CommentAnswer 生成一段针对作答内容的点评。未配置模型时返回空串
func (s *AnswerEvalService) CommentAnswer(ctx context.Context, question, sttText string) (string, error) {
	if s.config.BaseURL == "" || s.config.Model == "" {
		return "", nil
	}

	systemPrompt := "你是一位资深的面试教练。请针对候选人的作答内容给出简短点评：" +
		"先肯定亮点，再指出结构或内容上的不足，最后给一条可执行的改进建议。" +
		"控制在200字以内，使用与作答相同的语言。"

	userPrompt := fmt.Sprintf("面试题目：%s\n\n候选人作答（语音转写）：\n%s", question, sttText)

	reqBody := map[string]interface{}{
		"model": s.config.Model,
		"messages": []evalChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
	}
	jsonData, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, "POST", s.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("AI API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result evalChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", fmt.Errorf("AI API error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("AI API returned no choices")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}

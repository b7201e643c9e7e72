package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// MediaInfo 存储媒体文件信息
type MediaInfo struct {
	Duration float64 `json:"duration"` // 时长（秒）
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Format   string  `json:"format"`
	Size     int64   `json:"size"`
	HasAudio bool    `json:"hasAudio"`
	HasVideo bool    `json:"hasVideo"`
}

// GetMediaInfo 使用ffmpeg-go库探测媒体元数据
func GetMediaInfo(mediaPath string) (*MediaInfo, error) {
	fileInfo, err := os.Stat(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("媒体文件不存在: %v", err)
	}

	jsonOutput, err := ffmpeg.Probe(mediaPath)
	if err != nil {
		return nil, fmt.Errorf("获取媒体信息失败: %v", err)
	}

	var result struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
			Size     string `json:"size"`
			Format   string `json:"format_name"`
		} `json:"format"`
	}

	if err := json.Unmarshal([]byte(jsonOutput), &result); err != nil {
		return nil, fmt.Errorf("解析媒体信息失败: %v", err)
	}

	info := &MediaInfo{}
	for _, stream := range result.Streams {
		switch stream.CodecType {
		case "video":
			if !info.HasVideo {
				info.Width = stream.Width
				info.Height = stream.Height
			}
			info.HasVideo = true
		case "audio":
			info.HasAudio = true
		}
	}

	info.Duration, err = strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		info.Duration = 0
	}

	info.Size, err = strconv.ParseInt(result.Format.Size, 10, 64)
	if err != nil {
		info.Size = fileInfo.Size()
	}

	info.Format = "unknown"
	if len(result.Format.Format) > 0 {
		formatParts := strings.Split(result.Format.Format, ",")
		if len(formatParts) > 0 {
			info.Format = formatParts[0]
		}
	}

	return info, nil
}

// ExtractAudio 抽取音轨为16kHz单声道wav，供声学分析使用
func ExtractAudio(mediaPath, wavPath string) error {
	if err := os.MkdirAll(filepath.Dir(wavPath), 0755); err != nil {
		return fmt.Errorf("创建音频目录失败: %v", err)
	}

	err := ffmpeg.Input(mediaPath).
		Output(wavPath, ffmpeg.KwArgs{
			"vn": "",      // 丢弃视频流
			"ac": "1",     // 单声道
			"ar": "16000", // 采样率
			"f":  "wav",
		}).
		OverWriteOutput().
		Run()
	if err != nil {
		return fmt.Errorf("抽取音轨失败: %v", err)
	}
	return nil
}

// GetFFmpegVersion 获取FFmpeg版本信息，用于检查FFmpeg是否正确安装
func GetFFmpegVersion() (string, error) {
	cmd := exec.Command("ffmpeg", "-version", "-hide_banner")
	var out bytes.Buffer
	var errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("获取FFmpeg版本失败，请确保FFmpeg已正确安装: %v, %s", err, errOut.String())
	}

	return out.String(), nil
}

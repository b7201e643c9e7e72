package model

import (
	"testing"

	"github.com/google/uuid"
)

// 媒体记录入库前自动分配UUID主键，已有ID不覆盖
func TestMediaAssetAssignsUUID(t *testing.T) {
	asset := &MediaAsset{AttemptID: 1, Kind: MediaVideo}
	if err := asset.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate 失败: %v", err)
	}
	if asset.ID == "" {
		t.Fatal("ID 未分配")
	}
	if _, err := uuid.Parse(asset.ID); err != nil {
		t.Errorf("ID = %q 不是合法UUID: %v", asset.ID, err)
	}

	fixed := &MediaAsset{AttemptID: 1, Kind: MediaAudio}
	fixed.ID = "11111111-2222-3333-4444-555555555555"
	if err := fixed.BeforeCreate(nil); err != nil {
		t.Fatalf("BeforeCreate 失败: %v", err)
	}
	if fixed.ID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("已有ID被覆盖: %q", fixed.ID)
	}
}

package service

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/wanderlog/internal/db"
	"github.com/wanderlog/internal/storage"
	"gorm.io/gorm"
)

// BlockDescriptor 是客户端提交的单个区块描述。
// 图片区块的新字节通过独立的 multipart 字段按序号传输，不内嵌于 JSON；
// ExistingURL 指向本次编辑前已存在于该游记中的图片。
type BlockDescriptor struct {
	Type        string `json:"type"`
	Content     string `json:"content,omitempty"`
	ExistingURL string `json:"existing_url,omitempty"`
	Caption     string `json:"caption,omitempty"`
}

// Upload 携带一份待写入对象存储的上传内容。
type Upload struct {
	Filename string
	Data     []byte
}

// captureExistingImages 在旧区块集合被销毁前按 position 顺序提取既有图片标识。
// 必须在删除任何旧区块之前调用，否则沿用引用无从解析。
func captureExistingImages(blocks []db.PostBlock) []string {
	refs := make([]string, 0, len(blocks))
	for _, block := range blocks {
		if block.Type == db.BlockTypeImage && block.ImageURL != "" {
			refs = append(refs, block.ImageURL)
		}
	}
	return refs
}

// rebuildBlocks 用提交的描述序列整体重建游记的区块集合。
// 必须在事务内调用：旧集合删除与新集合插入要么全部生效要么全部回滚。
//
// position 按描述序号稠密赋值；校验失败的描述（空文本、既无新字节
// 也无可解析引用的图片）被直接跳过而非插入占位区块，因此最终位置
// 序列相对提交序号可能出现空洞。
func (s *PostService) rebuildBlocks(ctx context.Context, tx *gorm.DB, post *db.Post, input PostInput, existing []string) error {
	if err := tx.Unscoped().Where("post_id = ?", post.ID).Delete(&db.PostBlock{}).Error; err != nil {
		return err
	}

	blocks := make([]db.PostBlock, 0, len(input.Blocks))
	for index, desc := range input.Blocks {
		switch desc.Type {
		case db.BlockTypeText:
			if strings.TrimSpace(desc.Content) == "" {
				continue
			}
			blocks = append(blocks, db.PostBlock{
				PostID:      post.ID,
				Type:        db.BlockTypeText,
				Position:    index,
				TextContent: CleanEditorHTML(desc.Content),
			})
		case db.BlockTypeImage:
			if upload := input.BlockUploads[index]; upload != nil {
				imageURL, err := s.store.Save(ctx, storage.PostImageBucket, upload.Filename, bytes.NewReader(upload.Data))
				if err != nil {
					return err
				}
				blocks = append(blocks, db.PostBlock{
					PostID:       post.ID,
					Type:         db.BlockTypeImage,
					Position:     index,
					ImageURL:     imageURL,
					ImageCaption: desc.Caption,
				})
				continue
			}

			if desc.ExistingURL == "" {
				continue
			}

			matched, ok := resolveExistingImage(existing, desc.ExistingURL)
			if !ok {
				// 失配的沿用引用降级为丢弃该区块，而不是让整次编辑失败。
				log.Warn().
					Uint("post_id", post.ID).
					Str("ref", desc.ExistingURL).
					Msg("carried-over image reference did not match any existing block")
				continue
			}
			blocks = append(blocks, db.PostBlock{
				PostID:       post.ID,
				Type:         db.BlockTypeImage,
				Position:     index,
				ImageURL:     matched,
				ImageCaption: desc.Caption,
			})
		}
	}

	if len(blocks) == 0 {
		return nil
	}
	return tx.Create(&blocks).Error
}

// resolveExistingImage 在既有图片标识中解析一个沿用引用，首个命中即返回。
// 匹配基于归一化标识的相等或双向包含，容忍客户端提交绝对 URL
// 而存储端记录路径片段（或相反）的情况。
func resolveExistingImage(existing []string, ref string) (string, bool) {
	normalizedRef := normalizeImageRef(ref)
	if normalizedRef == "" {
		return "", false
	}

	for _, stored := range existing {
		normalizedStored := normalizeImageRef(stored)
		if normalizedStored == "" {
			continue
		}
		if normalizedStored == normalizedRef ||
			strings.Contains(normalizedStored, normalizedRef) ||
			strings.Contains(normalizedRef, normalizedStored) {
			return stored, true
		}
	}
	return "", false
}

// normalizeImageRef 将引用归一为规范路径：剥离 scheme 与 host，仅保留 path。
func normalizeImageRef(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Path != "" {
		return parsed.Path
	}
	return trimmed
}

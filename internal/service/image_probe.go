package service

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// probeImageSize 尽力解析图片尺寸；无法识别的格式返回 0。
// 图片本身作为不透明二进制存储，这里只读取头部元信息，不做任何变换。
func probeImageSize(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}

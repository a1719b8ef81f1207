package utils

import (
	"fmt"
	"time"
)

// DownloadFileName は保存用のファイル名を現在時刻のミリ秒で作ります。
func DownloadFileName(now time.Time, mimeType string) string {
	return fmt.Sprintf("veo-video-%d%s", now.UnixMilli(), VideoExtension(mimeType))
}

// VideoExtension は MIME タイプに対応する拡張子を返します。不明なら .mp4 です。
func VideoExtension(mimeType string) string {
	switch mimeType {
	case "video/webm":
		return ".webm"
	case "video/quicktime":
		return ".mov"
	}
	return ".mp4"
}

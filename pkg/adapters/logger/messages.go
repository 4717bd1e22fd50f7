package logger

import "github.com/ideamans/go-l10n"

func init() {
	l10n.Register("ja", l10n.LexiconMap{
		// Run level messages (info)
		"Video duration: %.2f seconds":        "動画の長さ: %.2f 秒",
		"Generating panorama, please wait...": "パノラマを生成しています。しばらくお待ちください...",
		"Processing time: %.2f seconds":       "処理時間: %.2f 秒",
		"Panorama generated: %dx%d":           "パノラマを生成しました: %dx%d",
		"Generated":                           "生成しました",
		"Generation cancelled":                "生成がキャンセルされました",
		"Output saved to %s":                  "出力を %s に保存しました",
		"Output mirrored to %s":               "出力を %s に複製しました",
		"Interrupted, shutting down...":       "中断されました。シャットダウン中...",
		"Summary saved to %s":                 "サマリーを %s に保存しました",
		"Configuration: %s":                   "設定: %s",
		"Step %d of %d":                       "ステップ %d / %d",

		// Sample stage
		"Sampling up to %d of %d frames": "最大 %d フレームをサンプリング中 (全 %d フレーム)",
		"Reached frame limit %d":         "フレーム上限 %d に達しました",
		"Sampled %d frames":              "%d フレームをサンプリングしました",
		"Sampled %d frames: %v":          "%d フレームをサンプリングしました: %v",
		"Skipping frame %d: %v":          "フレーム %d をスキップします: %v",

		// Stitch stage
		"Stitching %d frames with %s":     "%d フレームを %s で合成中",
		"Not enough frames to stitch: %d": "合成に必要なフレームが不足しています: %d",
		"Stitcher reported %s":            "スティッチャーの結果: %s",
		"Running %s with %d frames":       "%s を %d フレームで実行中",

		// Color correction and encoding
		"Correcting %dx%d composite with %d workers":        "%dx%d の合成画像を %d ワーカーで補正中",
		"Reference brightness: mean V %.1f, equalized %.1f": "基準フレームの明るさ: 平均V %.1f, 平坦化後 %.1f",
		"Encoded %dx%d image: %d bytes":                     "%dx%d の画像をエンコードしました: %d バイト",

		// Frame source
		"MP4 probe failed, falling back to ffprobe: %v": "MP4の解析に失敗したため ffprobe を使用します: %v",

		// Errors
		"Generation failed, please try again: %v": "生成に失敗しました。もう一度お試しください: %v",
		"Stitching failed: %v":                    "合成に失敗しました: %v",
		"Stitch command exited with %d: %s":       "合成コマンドが終了コード %d で終了しました: %s",
		"Stage panicked: %v":                      "ステージでパニックが発生しました: %v",
		"Completion callback panicked: %v":        "完了コールバックでパニックが発生しました: %v",
		"Failed to write output: %v":              "出力の書き込みに失敗しました: %v",
		"Failed to mirror output: %v":             "出力の複製に失敗しました: %v",
		"Failed to save run history: %v":          "実行履歴の保存に失敗しました: %v",
		"Failed to write summary: %s":             "サマリーの書き込みに失敗しました: %s",
		"Failed to close video source: %v":        "動画ソースのクローズに失敗しました: %v",
		"Failed to remove %s: %v":                 "%s の削除に失敗しました: %v",

		// Debug output
		"Failed to save debug frame %d: %v":   "デバッグフレーム %d の保存に失敗しました: %v",
		"Failed to save raw composite: %v":    "合成画像の保存に失敗しました: %v",
		"Failed to save overlay: %v":          "オーバーレイの保存に失敗しました: %v",
		"Failed to save alignment report: %v": "位置合わせレポートの保存に失敗しました: %v",
	})
}

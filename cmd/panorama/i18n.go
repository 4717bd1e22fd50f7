// Package main provides localization for the panorama CLI.
package main

import (
	"github.com/ideamans/go-l10n"
)

func init() {
	// Register Japanese translations for CLI messages.
	l10n.Register("ja", l10n.LexiconMap{
		// Flag categories
		"Configuration": "設定ファイル",
		"Output":        "出力先",
		"Sampling":      "サンプリング",
		"Stitching":     "合成",
		"Debug":         "デバッグ",
		"Logging":       "ログ",
		"Server":        "サーバー",
		"Storage":       "ストレージ",

		// Root command
		"Stitch a panning video into a single panoramic image":                                                              "パンニング動画を1枚のパノラマ画像に合成",
		"panorama samples frames from a video, stitches them into one image, equalizes its colors and writes it as a JPEG.": "panoramaは動画からフレームを抽出して1枚の画像に合成し、色を補正してJPEGとして書き出します。",
		"panorama version %s":     "panorama バージョン %s",
		"YAML configuration file": "YAML設定ファイル",

		// Commands
		"Create a panorama from a video":                                              "動画からパノラマを作成",
		"Sample frames from the video, stitch them, equalize colors and save a JPEG.": "動画からフレームを抽出して合成し、色を補正してJPEGを保存します。",
		"Show stream information for a video":                                         "動画のストリーム情報を表示",
		"Serve the HTTP API":                                                          "HTTP APIを提供",
		"List recorded runs":                                                          "実行履歴を一覧表示",

		// Output flags
		"Output JPEG file path (default: panorama_result.jpg)": "出力JPEGファイルパス（デフォルト: panorama_result.jpg）",
		"JPEG quality (1-100)":                                 "JPEG品質（1-100）",
		"Output execution summary to file (Markdown format)":   "実行サマリーをファイルに出力（Markdown形式）",
		"Also save the panorama to this path":                  "パノラマをこのパスにも保存",

		// Sampling flags
		"Maximum number of sampled frames (0 = unlimited)": "サンプリングする最大フレーム数（0 = 無制限）",
		"Sample one frame every N frames (default: 5)":     "Nフレームごとに1フレームを抽出（デフォルト: 5）",
		"Frame source (ffmpeg, opencv)":                    "フレームソース（ffmpeg, opencv）",
		"Path to ffmpeg executable":                        "ffmpeg実行ファイルのパス",

		// Stitching flags
		"Stitching backend (shift, opencv, exec)":        "合成バックエンド（shift, opencv, exec）",
		"OpenCV stitcher mode (panorama, scans)":         "OpenCVスティッチャーのモード（panorama, scans）",
		"External stitcher command for the exec backend": "execバックエンドで使う外部合成コマンド",
		"Number of parallel workers":                     "並列ワーカー数",

		// Debug flags
		"Enable debug output":        "デバッグ出力を有効化",
		"Directory for debug output": "デバッグ出力のディレクトリ",

		// Logging flags
		"Log level (debug, info, warn, error)": "ログレベル（debug, info, warn, error）",
		"Log format (console, text, json)":     "ログ形式（console, text, json）",
		"Suppress all log output":              "全てのログ出力を抑制",
		"Disable colored log output":           "ログの色付けを無効化",

		// Server flags
		"HTTP listen address (default: :8080)": "HTTP待ち受けアドレス（デフォルト: :8080）",
		"Allowed CORS origin (repeatable)":     "許可するCORSオリジン（複数指定可）",

		// History flags
		"Maximum number of runs to list": "一覧表示する最大件数",
		"Postgres URL for run history":   "実行履歴用のPostgres URL",

		// Error messages
		"Video argument is required":          "動画の引数が必要です",
		"Run history requires a database URL": "実行履歴にはデータベースURLが必要です",

		// Probe and history output
		"Frame Size":     "フレームサイズ",
		"Frame Count":    "フレーム数",
		"Frame Rate":     "フレームレート",
		"Video Duration": "動画の長さ",
		"Finished":       "終了日時",

		// Summary content
		"Panorama Summary":                    "パノラマ生成サマリー",
		"Generated at":                        "生成日時",
		"2006-01-02 15:04:05 MST":             "2006年01月02日 15:04:05 MST",
		"Result":                              "実行結果",
		"Item":                                "項目",
		"Value":                               "値",
		"Run ID":                              "実行ID",
		"Status":                              "状態",
		"Succeeded":                           "成功",
		"Failed":                              "失敗",
		"Error":                               "エラー",
		"Stitch status":                       "合成ステータス",
		"Processing time":                     "処理時間",
		"Source":                              "入力動画",
		"Video":                               "動画",
		"Codec":                               "コーデック",
		"Frames":                              "フレーム数",
		"Frame rate":                          "フレームレート",
		"Resolution":                          "解像度",
		"Video duration":                      "動画の長さ",
		"Settings":                            "設定",
		"Max frames":                          "最大フレーム数",
		"Unbounded":                           "無制限",
		"Stride":                              "抽出間隔",
		"Stitcher":                            "スティッチャー",
		"JPEG quality":                        "JPEG品質",
		"Workers":                             "ワーカー数",
		"Sampled frames":                      "サンプリングしたフレーム数",
		"Size":                                "サイズ",
		"Image":                               "画像",
		"Object URL":                          "オブジェクトURL",
		"File size":                           "ファイルサイズ",
		"Generated":                           "生成しました",
		"Generation failed, please try again": "生成に失敗しました。もう一度お試しください",
	})
}

package ffmpegsource

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/user/panorama/pkg/ports"
)

// ffprobeOutput is the subset of `ffprobe -of json` used here.
type ffprobeOutput struct {
	Streams []struct {
		CodecName     string `json:"codec_name"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		AvgFrameRate  string `json:"avg_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
}

func ffprobe(ctx context.Context, path string) (ports.VideoInfo, error) {
	bin, err := findFFprobe()
	if err != nil {
		return ports.VideoInfo{}, err
	}

	out, err := run(ctx, bin, []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-count_packets",
		"-show_entries", "stream=codec_name,width,height,r_frame_rate,avg_frame_rate,nb_frames,nb_read_packets",
		"-of", "json",
		path,
	})
	if err != nil {
		return ports.VideoInfo{}, err
	}

	return parseFFprobe(out)
}

func parseFFprobe(data []byte) (ports.VideoInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return ports.VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return ports.VideoInfo{}, fmt.Errorf("no video stream found")
	}
	s := out.Streams[0]

	count, _ := strconv.Atoi(s.NbReadPackets)
	if count == 0 {
		count, _ = strconv.Atoi(s.NbFrames)
	}

	fps := parseRate(s.AvgFrameRate)
	if fps == 0 {
		fps = parseRate(s.RFrameRate)
	}

	return ports.VideoInfo{
		FrameCount: count,
		FrameRate:  fps,
		Width:      s.Width,
		Height:     s.Height,
		Codec:      s.CodecName,
	}, nil
}

// parseRate parses an ffprobe rational such as "30000/1001".
func parseRate(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}

// Package mp4probe reads stream information from MP4 containers without
// decoding any samples.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/panorama/pkg/ports"
)

var (
	// ErrNoVideoTrack is returned when the file has no "vide" track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")

	// ErrNoSamples is returned when the video track has no samples.
	ErrNoSamples = errors.New("mp4probe: video track has no samples")
)

// Extensions lists the file extensions handled by this package.
var Extensions = []string{".mp4", ".m4v", ".mov"}

// Supports reports whether path has an MP4 family extension.
func Supports(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// ProbeFile reads stream information from an MP4 file.
func ProbeFile(path string) (ports.VideoInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeBytes reads stream information from in-memory MP4 data.
func ProbeBytes(data []byte) (ports.VideoInfo, error) {
	return ProbeReader(bytes.NewReader(data))
}

// ProbeReader reads stream information from r.
func ProbeReader(r io.ReadSeeker) (ports.VideoInfo, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	if file.IsFragmented() {
		return probeFragmented(file)
	}
	return probeProgressive(file)
}

func probeProgressive(file *mp4.File) (ports.VideoInfo, error) {
	if file.Moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("no moov box found")
	}

	trak := videoTrack(file.Moov.Traks)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
		return ports.VideoInfo{}, fmt.Errorf("no sample table found")
	}
	stbl := trak.Mdia.Minf.Stbl

	frames := int(stbl.Stsz.SampleNumber)
	if frames == 0 {
		return ports.VideoInfo{}, ErrNoSamples
	}

	var ticks uint64
	if stbl.Stts != nil {
		for i, count := range stbl.Stts.SampleCount {
			ticks += uint64(count) * uint64(stbl.Stts.SampleTimeDelta[i])
		}
	}

	info := describeTrack(trak)
	info.FrameCount = frames
	info.FrameRate = frameRate(frames, timescale(trak), ticks)
	return info, nil
}

func probeFragmented(file *mp4.File) (ports.VideoInfo, error) {
	if file.Init == nil || file.Init.Moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("no init segment found")
	}

	trak := videoTrack(file.Init.Moov.Traks)
	if trak == nil {
		return ports.VideoInfo{}, ErrNoVideoTrack
	}
	trackID := trak.Tkhd.TrackID

	var trex *mp4.TrexBox
	if file.Init.Moov.Mvex != nil {
		for _, t := range file.Init.Moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	frames := 0
	var ticks uint64
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			if !hasTrack(frag.Moof.Trafs, trackID) {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return ports.VideoInfo{}, fmt.Errorf("get samples: %w", err)
			}
			for _, s := range samples {
				frames++
				ticks += uint64(s.Dur)
			}
		}
	}
	if frames == 0 {
		return ports.VideoInfo{}, ErrNoSamples
	}

	info := describeTrack(trak)
	info.FrameCount = frames
	info.FrameRate = frameRate(frames, timescale(trak), ticks)
	return info, nil
}

func hasTrack(trafs []*mp4.TrafBox, trackID uint32) bool {
	for _, traf := range trafs {
		if traf.Tfhd != nil && traf.Tfhd.TrackID == trackID {
			return true
		}
	}
	return false
}

// videoTrack returns the first track with a "vide" handler.
func videoTrack(traks []*mp4.TrakBox) *mp4.TrakBox {
	for _, trak := range traks {
		if trak.Mdia != nil && trak.Mdia.Hdlr != nil && trak.Mdia.Hdlr.HandlerType == "vide" {
			return trak
		}
	}
	return nil
}

func timescale(trak *mp4.TrakBox) uint32 {
	if trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale > 0 {
		return trak.Mdia.Mdhd.Timescale
	}
	return 1000
}

// describeTrack fills codec and dimensions from the sample description.
func describeTrack(trak *mp4.TrakBox) ports.VideoInfo {
	info := ports.VideoInfo{Codec: "unknown"}
	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
		return info
	}

	for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
		if name := CodecName(child.Type()); name != "unknown" {
			info.Codec = name
		}
		if vse, ok := child.(*mp4.VisualSampleEntryBox); ok {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
		if info.Codec != "unknown" {
			break
		}
	}
	return info
}

// CodecName maps a sample entry four-cc to a codec name.
func CodecName(fourCC string) string {
	switch fourCC {
	case "avc1", "avc3":
		return "h264"
	case "hvc1", "hev1":
		return "hevc"
	case "av01":
		return "av1"
	case "vp08":
		return "vp8"
	case "vp09":
		return "vp9"
	case "mp4v":
		return "mpeg4"
	default:
		return "unknown"
	}
}

// frameRate returns frames per second for frames samples lasting ticks
// units of timescale.
func frameRate(frames int, timescale uint32, ticks uint64) float64 {
	if frames <= 0 || timescale == 0 || ticks == 0 {
		return 0
	}
	return float64(frames) * float64(timescale) / float64(ticks)
}

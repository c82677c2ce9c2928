package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/file"
)

// FFmpeg extracts audio tracks by shelling out to an ffmpeg binary.
// Temporary inputs and outputs live under workDir with unique names so
// concurrent extractions never alias.
type FFmpeg struct {
	ffmpegCmd string
	workDir   string
	log       zerolog.Logger
}

// NewFFmpeg creates an extractor. An empty binary name means "ffmpeg"
// resolved from PATH.
func NewFFmpeg(ffmpegCmd, workDir string, logger zerolog.Logger) *FFmpeg {
	if ffmpegCmd == "" {
		ffmpegCmd = "ffmpeg"
	}
	return &FFmpeg{
		ffmpegCmd: ffmpegCmd,
		workDir:   workDir,
		log:       logger.With().Str("component", "extractor").Logger(),
	}
}

// Extract writes the media to a scoped temporary file, demuxes its
// audio track to mp3 and returns the result as a new scoped temporary
// file. The input temporary is always removed before returning;
// releasing the returned AudioAsset is the caller's responsibility.
func (f *FFmpeg) Extract(ctx context.Context, asset MediaAsset) (*AudioAsset, error) {
	if _, err := ParseContainer(string(asset.Container)); err != nil {
		return nil, newExtractionError("check container", err)
	}
	if len(asset.Data) == 0 {
		return nil, newExtractionError("check media", errors.New("empty media input"))
	}
	if err := os.MkdirAll(f.workDir, 0o755); err != nil {
		return nil, newExtractionError("create work dir", err)
	}

	input := file.UniquePath(f.workDir, "media", string(asset.Container))
	if err := os.WriteFile(input, asset.Data, 0o600); err != nil {
		return nil, newExtractionError("write media", err)
	}
	defer os.Remove(input)

	output := file.UniquePath(f.workDir, "audio", "mp3")
	if err := f.run(ctx, input, output); err != nil {
		os.Remove(output)
		return nil, err
	}

	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		os.Remove(output)
		return nil, newExtractionError("read audio", errors.New("ffmpeg produced no audio"))
	}

	f.log.Debug().Str("audio", output).Int64("bytes", info.Size()).Msg("extracted audio track")
	return &AudioAsset{Path: output, Codec: "mp3"}, nil
}

func (f *FFmpeg) run(ctx context.Context, input, output string) error {
	cmdPath, err := exec.LookPath(f.ffmpegCmd)
	if err != nil {
		return newExtractionError("locate ffmpeg", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, cmdPath, extractAudioArgs(input, output)...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		} else if msg := lastLines(stderr.String(), 512); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return newExtractionError("run ffmpeg", err)
	}
	return nil
}

// extractAudioArgs requests best-quality audio-only extraction and
// forces overwrite of the output path.
func extractAudioArgs(input, output string) []string {
	return []string{
		"-i", input,
		"-q:a", "0",
		"-map", "a",
		output,
		"-y",
	}
}

// lastLines keeps the tail of tool output for error messages.
func lastLines(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}

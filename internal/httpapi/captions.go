package httpapi

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/caption"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
)

// DownloadFilename is the attachment name for exported documents.
const DownloadFilename = "final_subtitles.srt"

type captionBlockResponse struct {
	Index int      `json:"index"`
	Start string   `json:"start"`
	End   string   `json:"end"`
	Lines []string `json:"lines"`
}

type captionsResponse struct {
	JobID  string                 `json:"job_id"`
	Blocks []captionBlockResponse `json:"blocks"`
}

func blockResponse(b caption.Block) captionBlockResponse {
	return captionBlockResponse{
		Index: b.Index,
		Start: caption.FormatTimestamp(b.Start),
		End:   caption.FormatTimestamp(b.End),
		Lines: b.Lines,
	}
}

// loadResult resolves the job and parses its finished document. On any
// problem it writes the error response and reports ok=false.
func (s *Server) loadResult(w http.ResponseWriter, r *http.Request) (*jobs.Job, caption.Document, bool) {
	job, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found")
		return nil, caption.Document{}, false
	}
	if job.Status != jobs.StatusSuccess || job.ResultPath == "" {
		WriteError(w, http.StatusConflict, "job has no finished captions")
		return nil, caption.Document{}, false
	}

	data, err := os.ReadFile(job.ResultPath)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("job", job.ID).Msg("failed to read result file")
		WriteError(w, http.StatusInternalServerError, "failed to read captions")
		return nil, caption.Document{}, false
	}
	doc, err := caption.ParseBytes(data)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("job", job.ID).Msg("result file is corrupt")
		WriteError(w, http.StatusInternalServerError, "captions are corrupt")
		return nil, caption.Document{}, false
	}
	return job, doc, true
}

// handleGetCaptions returns the translated document for review, or the
// raw SRT as an attachment when download=1.
func (s *Server) handleGetCaptions(w http.ResponseWriter, r *http.Request) {
	job, doc, ok := s.loadResult(w, r)
	if !ok {
		return
	}

	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		w.Header().Set("Content-Type", "application/x-subrip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", DownloadFilename))
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, caption.Serialize(doc))
		return
	}

	blocks := make([]captionBlockResponse, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		blocks = append(blocks, blockResponse(b))
	}
	WriteJSON(w, http.StatusOK, captionsResponse{JobID: job.ID, Blocks: blocks})
}

type updateBlockRequest struct {
	Lines []string `json:"lines"`
}

// handleUpdateCaptionBlock replaces the text lines of one caption
// block. Indices and timing are not editable; the edited document must
// still satisfy every caption invariant.
func (s *Server) handleUpdateCaptionBlock(w http.ResponseWriter, r *http.Request) {
	index, err := PathInt(r, "index")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid block index")
		return
	}

	var req updateBlockRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.Lines) == 0 {
		WriteError(w, http.StatusBadRequest, "lines must not be empty")
		return
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	job, doc, ok := s.loadResult(w, r)
	if !ok {
		return
	}

	edited := doc.Clone()
	target := -1
	for i := range edited.Blocks {
		if edited.Blocks[i].Index == index {
			target = i
			break
		}
	}
	if target < 0 {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("caption block %d not found", index))
		return
	}
	edited.Blocks[target].Lines = append([]string(nil), req.Lines...)

	if err := edited.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("edit breaks the document: %v", err))
		return
	}
	if err := caption.WriteFile(job.ResultPath, edited); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("job", job.ID).Msg("failed to write edited captions")
		WriteError(w, http.StatusInternalServerError, "failed to save edit")
		return
	}

	WriteJSON(w, http.StatusOK, blockResponse(edited.Blocks[target]))
}

package httpapi

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/config"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/jobs"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/lang"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/media"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/internal/transcribe"
	"github.com/AlessioSantos/Subtutler-OpenAI-version/pkg/file"
)

// CredentialHeader carries the per-request speech-to-text key. It
// overrides the configured default and is never logged or stored.
const CredentialHeader = "X-Openai-Key"

// multipart boundaries and form fields ride on top of the media bytes
const uploadFormSlack = 1 << 20

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type languageOption struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type languagesResponse struct {
	Languages []languageOption `json:"languages"`
	// AutoSource is the source_lang value that requests detection.
	AutoSource string `json:"auto_source"`
}

func (s *Server) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	codes := lang.Supported()
	options := make([]languageOption, 0, len(codes))
	for _, code := range codes {
		options = append(options, languageOption{Code: string(code), Name: code.Name()})
	}
	WriteJSON(w, http.StatusOK, languagesResponse{
		Languages:  options,
		AutoSource: lang.Auto,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, s.queue.List())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.queue.Get(chi.URLParam(r, "id"))
	if !ok {
		WriteError(w, http.StatusNotFound, "job not found")
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

type enqueueResponse struct {
	Created bool      `json:"created"`
	Job     *jobs.Job `json:"job"`
}

// handleCreateJob accepts a multipart upload (file, source_lang,
// target_lang) and enqueues a pipeline job. Every input is validated
// before anything is spooled or enqueued; duplicate active uploads
// collapse onto the existing job.
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+uploadFormSlack)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds the %d byte limit", s.maxUpload))
			return
		}
		WriteErrorDetail(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll()

	// Omitted language fields fall back to the runtime defaults.
	defaults := s.settings.Get()
	sourceField := r.FormValue("source_lang")
	if strings.TrimSpace(sourceField) == "" {
		sourceField = defaults.DefaultSourceLanguage
	}
	targetField := r.FormValue("target_lang")
	if strings.TrimSpace(targetField) == "" {
		targetField = defaults.DefaultTargetLanguage
	}

	source, detect, err := lang.ParseSource(sourceField)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid source_lang: %v", err))
		return
	}
	target, err := lang.Parse(targetField)
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid target_lang: %v", err))
		return
	}

	cred := transcribe.Credential(strings.TrimSpace(r.Header.Get(CredentialHeader)))
	if cred == "" {
		cred = s.defaultCred
	}
	if cred == "" {
		WriteError(w, http.StatusBadRequest, "no transcription credential: set "+CredentialHeader+" or configure a default key")
		return
	}

	upload, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer upload.Close()

	container, err := media.ParseContainer(filepath.Ext(header.Filename))
	if err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported container %q: allowed %v", filepath.Ext(header.Filename), media.Containers()))
		return
	}
	if header.Size > s.maxUpload {
		WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds the %d byte limit", s.maxUpload))
		return
	}

	spooled, sum, err := s.spoolUpload(upload, container)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("failed to spool upload")
		WriteError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	sourceSel := string(source)
	if detect {
		sourceSel = lang.Auto
	}

	job, created := s.queue.Enqueue(jobs.EnqueueRequest{
		Source:     "upload",
		DedupeKey:  sum + "|" + sourceSel + "-" + string(target),
		Credential: cred,
		Payload: jobs.Payload{
			MediaName:    header.Filename,
			MediaPath:    spooled,
			Container:    string(container),
			OwnsMedia:    true,
			SourceLang:   sourceSel,
			TargetLang:   string(target),
			DetectSource: detect,
		},
	})
	if !created {
		// the active job owns its own spooled copy
		if err := os.Remove(spooled); err != nil && !os.IsNotExist(err) {
			hlog.FromRequest(r).Warn().Err(err).Msg("failed to remove duplicate upload spool")
		}
		WriteJSON(w, http.StatusOK, enqueueResponse{Created: false, Job: job})
		return
	}
	WriteJSON(w, http.StatusCreated, enqueueResponse{Created: true, Job: job})
}

// spoolUpload streams the upload to a unique temp file, hashing it on
// the way for the dedupe key.
func (s *Server) spoolUpload(upload io.Reader, container media.Container) (string, string, error) {
	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
		return "", "", err
	}
	path := file.UniquePath(s.tmpDir, "upload", string(container))

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", "", err
	}

	hash := sha256.New()
	_, err = io.Copy(dst, io.TeeReader(upload, hash))
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", "", err
	}
	return path, hex.EncodeToString(hash.Sum(nil)), nil
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	if s.settings == nil {
		WriteError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}
	WriteJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		WriteError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	var req config.RuntimeSettings
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	saved, err := s.settings.Update(req)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if s.apply != nil {
		s.apply(saved)
	}
	WriteJSON(w, http.StatusOK, saved)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"PellinesFM/config"
	"PellinesFM/core/station"
	"PellinesFM/logger"
	"PellinesFM/model"

	"github.com/gorilla/mux"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	station   *station.Station
	cfg       *config.Config
	startedAt time.Time
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(st *station.Station, cfg *config.Config) *APIHandler {
	return &APIHandler{
		station:   st,
		cfg:       cfg,
		startedAt: time.Now(),
	}
}

// writeJSON 输出JSON响应
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write response", logger.ErrorField(err))
	}
}

// writeError 输出结构化错误响应
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// stationError 把协调器错误映射到HTTP状态码
func stationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, station.ErrInvalidMediaType):
		writeError(w, http.StatusUnsupportedMediaType, "Invalid file type. Only audio files are allowed.")
	case errors.Is(err, station.ErrSizeExceeded):
		writeError(w, http.StatusRequestEntityTooLarge, "File exceeds the maximum upload size")
	case errors.Is(err, station.ErrTrackNotFound), errors.Is(err, station.ErrNotInPlaylist):
		writeError(w, http.StatusNotFound, "Track not found")
	case errors.Is(err, station.ErrNoActiveTrack):
		writeError(w, http.StatusNotFound, "No track currently playing")
	case errors.Is(err, station.ErrAssetMissing):
		writeError(w, http.StatusNotFound, "Audio file not available")
	default:
		logger.Error("internal error", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// StatusHandler 返回当前广播状态快照
func (h *APIHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.station.Snapshot(r.Context()))
}

// UploadTrackHandler 处理音频上传
// 表单字段: audio（音频文件）、title、artist、duration（秒，可选）
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	// 比配置上限略宽，给多部分表单本身留出余量；真正的大小校验在协调器里
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse multipart form")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	var duration float64
	if v := r.FormValue("duration"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed >= 0 {
			duration = parsed
		}
	}

	track, err := h.station.Ingest(r.Context(), file, header.Size,
		header.Header.Get("Content-Type"), header.Filename,
		r.FormValue("title"), r.FormValue("artist"), duration)
	if err != nil {
		stationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"track":   track,
		"message": "Track uploaded successfully",
	})
}

// StartLiveHandler 开始直播
func (h *APIHandler) StartLiveHandler(w http.ResponseWriter, r *http.Request) {
	var meta model.LiveMetadata
	if r.Body != nil {
		// 请求体可以为空，元数据字段全部可选
		_ = json.NewDecoder(r.Body).Decode(&meta)
	}

	merged := h.station.StartLive(r.Context(), meta)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Live broadcast started",
		"metadata": merged,
	})
}

// StopLiveHandler 结束直播
func (h *APIHandler) StopLiveHandler(w http.ResponseWriter, r *http.Request) {
	h.station.StopLive(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Live broadcast stopped",
	})
}

// SelectTrackHandler 把指定曲目设为当前播出曲目
func (h *APIHandler) SelectTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]

	track, err := h.station.SelectTrack(r.Context(), trackID)
	if err != nil {
		stationError(w, err)
		return
	}

	snap := h.station.Snapshot(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"track":    track,
		"metadata": snap.Metadata,
	})
}

// DeleteTrackHandler 删除曲目（引用、记录、字节作为一个逻辑单元）
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]

	if err := h.station.RemoveTrack(r.Context(), trackID); err != nil {
		stationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Track deleted successfully",
	})
}

// GetPlaylistHandler 返回播放列表和当前指针
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.station.PlaylistView(r.Context())
	if err != nil {
		stationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// HealthHandler 健康检查
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	snap := h.station.Snapshot(r.Context())

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime":         time.Since(h.startedAt).Seconds(),
		"listeners":      snap.Listeners,
		"isLive":         snap.IsLive,
		"currentTrack":   snap.CurrentTrack,
		"playlistLength": snap.PlaylistLength,
	})
}

package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"PellinesFM/core/station"
	"PellinesFM/logger"
)

// byteRange 一个已解析的字节区间，闭区间 [start, end]
type byteRange struct {
	start int64
	end   int64
}

// parseRange 解析 "bytes=start-end" 形式的 Range 头。
// end 可以省略（取到文件末尾）。解析失败或 start 越界返回
// ErrRangeNotSatisfiable，由调用方翻译成 416。
func parseRange(header string, size int64) (*byteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, station.ErrRangeNotSatisfiable
	}

	value := strings.TrimPrefix(header, prefix)
	// 只支持单区间；逗号分隔的多区间按无法满足处理
	if strings.Contains(value, ",") {
		return nil, station.ErrRangeNotSatisfiable
	}

	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 || parts[0] == "" {
		return nil, station.ErrRangeNotSatisfiable
	}

	start, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || start < 0 {
		return nil, station.ErrRangeNotSatisfiable
	}
	if start >= size {
		return nil, station.ErrRangeNotSatisfiable
	}

	end := size - 1
	if parts[1] != "" {
		end, err = strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return nil, station.ErrRangeNotSatisfiable
		}
		// 超出文件末尾的 end 收敛到最后一个字节
		if end >= size {
			end = size - 1
		}
	}
	if end < start {
		return nil, station.ErrRangeNotSatisfiable
	}

	return &byteRange{start: start, end: end}, nil
}

// StreamHandler 提供当前播出曲目的音频字节流，支持 Range 请求。
// 每个请求都重新解析当前曲目：曲目切换后，下一个请求自然拿到新资产，
// 已建立的连接继续读旧资产直到自己断开。
func (h *APIHandler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.station.ActiveTrack(r.Context())
	if err != nil {
		stationError(w, err)
		return
	}

	src, size, err := h.station.Store().Open(r.Context(), track.StorageKey)
	if err != nil {
		// 记录存在但字节不在了：数据完整性故障，和"没有曲目"区分开记录
		logger.Error("audio asset missing for active track",
			logger.String("trackId", track.ID),
			logger.String("key", track.StorageKey),
			logger.ErrorField(err))
		stationError(w, station.ErrAssetMissing)
		return
	}
	defer src.Close()

	contentType := track.ContentType
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "no-cache")

	h.station.AddStreamListener()
	defer h.station.RemoveStreamListener()

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		// 无 Range 头：完整响应
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, src); err != nil {
			logger.Debug("stream client disconnected", logger.ErrorField(err))
		}
		return
	}

	br, err := parseRange(rangeHeader, size)
	if err != nil {
		if errors.Is(err, station.ErrRangeNotSatisfiable) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if _, err := src.Seek(br.start, io.SeekStart); err != nil {
		logger.Error("failed to seek audio asset",
			logger.String("key", track.StorageKey),
			logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	length := br.end - br.start + 1
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", br.start, br.end, size))
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.CopyN(w, src, length); err != nil {
		logger.Debug("stream client disconnected mid-range", logger.ErrorField(err))
	}
}

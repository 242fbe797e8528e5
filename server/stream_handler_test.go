package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"PellinesFM/core/station"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const streamBody = "0123456789abcdefghijklmnopqrstuvwxyz" // 36 bytes

// newStreamingAPI 准备一个已经在播出一首已知内容曲目的服务
func newStreamingAPI(t *testing.T) (*APIHandler, *mux.Router) {
	t.Helper()

	h, st, router := newTestAPI(t)

	track, err := st.Ingest(context.Background(), strings.NewReader(streamBody),
		int64(len(streamBody)), "audio/mpeg", "onair.mp3", "On Air", "Tester", 60)
	require.NoError(t, err)
	_, err = st.SelectTrack(context.Background(), track.ID)
	require.NoError(t, err)

	return h, router
}

func doStream(router *mux.Router, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStreamFullResponse(t *testing.T) {
	_, router := newStreamingAPI(t)

	rec := doStream(router, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, fmt.Sprintf("%d", len(streamBody)), rec.Header().Get("Content-Length"))
	assert.Equal(t, streamBody, rec.Body.String())
}

func TestStreamPartialContent(t *testing.T) {
	_, router := newStreamingAPI(t)

	rec := doStream(router, "bytes=10-19")

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, fmt.Sprintf("bytes 10-19/%d", len(streamBody)), rec.Header().Get("Content-Range"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Equal(t, streamBody[10:20], rec.Body.String())
}

func TestStreamOpenEndedRange(t *testing.T) {
	_, router := newStreamingAPI(t)

	rec := doStream(router, "bytes=30-")

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, fmt.Sprintf("bytes 30-35/%d", len(streamBody)), rec.Header().Get("Content-Range"))
	assert.Equal(t, streamBody[30:], rec.Body.String())
}

func TestStreamRangeEndClampedToSize(t *testing.T) {
	_, router := newStreamingAPI(t)

	rec := doStream(router, "bytes=30-9999")

	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, fmt.Sprintf("bytes 30-35/%d", len(streamBody)), rec.Header().Get("Content-Range"))
	assert.Equal(t, "6", rec.Header().Get("Content-Length"))
}

func TestStreamRangeNotSatisfiable(t *testing.T) {
	_, router := newStreamingAPI(t)

	cases := []string{
		"bytes=999-",       // 起点越界
		"bytes=-5",         // 缺少起点
		"bytes=abc-def",    // 不是数字
		"bytes=5-2",        // 终点在起点之前
		"bytes=0-5,10-15",  // 多区间
		"items=0-5",        // 单位不对
	}
	for _, header := range cases {
		rec := doStream(router, header)
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code, "header %q", header)
		assert.Empty(t, rec.Body.String(), "416 carries no body for %q", header)
	}
}

func TestStreamReconstructsFileFromRanges(t *testing.T) {
	_, router := newStreamingAPI(t)

	var rebuilt strings.Builder
	step := 7
	for start := 0; start < len(streamBody); start += step {
		end := start + step - 1
		if end >= len(streamBody) {
			end = len(streamBody) - 1
		}
		rec := doStream(router, fmt.Sprintf("bytes=%d-%d", start, end))
		require.Equal(t, http.StatusPartialContent, rec.Code)
		rebuilt.WriteString(rec.Body.String())
	}

	assert.Equal(t, streamBody, rebuilt.String(),
		"non-overlapping ranges must reassemble the exact asset")
}

func TestStreamWithoutActiveTrack(t *testing.T) {
	_, _, router := newTestAPI(t)

	rec := doStream(router, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStreamPicksUpTrackChange(t *testing.T) {
	h, router := newStreamingAPI(t)

	second := "SECOND-TRACK-CONTENT"
	track, err := h.station.Ingest(context.Background(), strings.NewReader(second),
		int64(len(second)), "audio/mpeg", "second.mp3", "Second", "Tester", 60)
	require.NoError(t, err)
	_, err = h.station.SelectTrack(context.Background(), track.ID)
	require.NoError(t, err)

	rec := doStream(router, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second, rec.Body.String(), "a new request serves the newly selected track")
}

func TestStreamAssetMissing(t *testing.T) {
	h, router := newStreamingAPI(t)

	// 直接从存储后端删掉字节，模拟外部删除
	track, err := h.station.ActiveTrack(context.Background())
	require.NoError(t, err)
	require.NoError(t, h.station.Store().Remove(context.Background(), track.StorageKey))

	rec := doStream(router, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseRange(t *testing.T) {
	br, err := parseRange("bytes=0-0", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(0), br.start)
	assert.Equal(t, int64(0), br.end)

	br, err = parseRange("bytes=99-", 100)
	require.NoError(t, err)
	assert.Equal(t, int64(99), br.start)
	assert.Equal(t, int64(99), br.end)

	_, err = parseRange("bytes=100-", 100)
	assert.ErrorIs(t, err, station.ErrRangeNotSatisfiable)
}

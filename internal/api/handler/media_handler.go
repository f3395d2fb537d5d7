package handler

import (
	"Chatwave/internal/api/dto"
	"Chatwave/internal/pkg/response"
	"Chatwave/internal/pkg/util"
	"Chatwave/internal/service"
	"errors"
	log "log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes 单次上传的请求体上限
const maxUploadBytes = 200 << 20

type MediaHandler struct {
	mediaService service.MediaService
}

func NewMediaHandler(mediaService service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Upload multipart 上传：file、bucket、path
func (s *MediaHandler) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)

	var req dto.UploadReq
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, uploadErr(err))
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, uploadErr(err))
		return
	}

	reader, err := file.Open()
	if err != nil {
		response.Error(c, service.ErrParamInvalid)
		return
	}
	defer func() { _ = reader.Close() }()

	contentType, err := util.GetSafeContentType(reader)
	if err != nil {
		contentType = file.Header.Get("Content-Type")
		log.WarnContext(c.Request.Context(), "sniff content type failed", "err", err, "fallback", contentType)
	}

	url, err := s.mediaService.Upload(c.Request.Context(), viewerID(c), req.Bucket, req.Path, reader, file.Size, contentType)
	if err != nil {
		response.Error(c, err)
		return
	}

	log.InfoContext(c.Request.Context(), "media upload success", "bucket", req.Bucket, "path", req.Path, "type", contentType)
	response.Success(c, &dto.UploadResultDTO{URL: url})
}

func uploadErr(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return service.ErrParamInvalid
}

package controllers

import (
	"io"
	"net/http"

	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/aihub/chatdoc-go/internal/di"
	apperrors "github.com/aihub/chatdoc-go/internal/errors"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/aihub/chatdoc-go/internal/services"
	"go.uber.org/zap"
)

// UploadController 文档上传入库接口
type UploadController struct {
	BaseController
}

// UploadPDFs 接收multipart上传的一批文档并入库
// 任何一份文档失败则整批拒绝，响应中标明出错的文件
func (c *UploadController) UploadPDFs() {
	fileHeaders, err := c.GetFiles("files")
	if err != nil {
		c.JSONError(http.StatusBadRequest, "no files uploaded")
		return
	}

	maxSize := config.GetAppConfig().Server.MaxUploadSize
	files := make([]services.UploadedFile, 0, len(fileHeaders))
	for _, header := range fileHeaders {
		if header.Size > maxSize {
			c.JSONAppError(apperrors.NewClientError(apperrors.ErrCodeFileTooLarge,
				header.Filename+": file exceeds upload size limit"))
			return
		}
		file, err := header.Open()
		if err != nil {
			c.JSONError(http.StatusBadRequest, header.Filename+": failed to read file")
			return
		}
		data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
		file.Close()
		if err != nil {
			c.JSONError(http.StatusBadRequest, header.Filename+": failed to read file")
			return
		}
		if int64(len(data)) > maxSize {
			c.JSONAppError(apperrors.NewClientError(apperrors.ErrCodeFileTooLarge,
				header.Filename+": file exceeds upload size limit"))
			return
		}
		files = append(files, services.UploadedFile{Filename: header.Filename, Data: data})
	}

	var results []services.IngestedDocument
	invokeErr := di.Invoke(func(ingest *services.IngestService) {
		results, err = ingest.IngestBatch(c.Ctx.Request.Context(), files)
	})
	if invokeErr != nil {
		logger.Error("failed to resolve ingest service", zap.Error(invokeErr))
		c.JSONError(http.StatusInternalServerError, "internal server error")
		return
	}
	if err != nil {
		logger.Warn("document batch rejected", zap.Error(err))
		c.JSONAppError(err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"status":         "Success",
		"uploaded_files": results,
	})
}

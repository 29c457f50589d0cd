package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"fms/internal/service"
	"fms/internal/storage"
	"fms/pkg/apperror"
	"fms/pkg/pagination"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// fail writes err using the standard error envelope.
func fail(c *gin.Context, err error) {
	status, body := response.FromError(err)
	if status >= 500 {
		_ = c.Error(err)
	}
	c.JSON(status, body)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		fail(c, apperror.Validation("invalid request payload: %s", bindMessage(err)))
		return false
	}
	return true
}

// bindForm accepts JSON or multipart/form-data bodies.
func bindForm(c *gin.Context, req interface{}) bool {
	if !isMultipart(c) {
		return bindJSON(c, req)
	}
	if err := c.ShouldBind(req); err != nil {
		fail(c, apperror.Validation("invalid request payload: %s", bindMessage(err)))
		return false
	}
	return true
}

func bindMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return "malformed body"
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// formFiles opens the uploads sent under field. The returned func closes them.
func formFiles(c *gin.Context, field string) ([]storage.File, func(), error) {
	if !isMultipart(c) {
		return nil, func() {}, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, func() {}, apperror.Validation("invalid multipart form")
	}
	var (
		files  []storage.File
		opened []multipart.File
	)
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			closeAll()
			return nil, func() {}, apperror.Validation("cannot read upload %s", fh.Filename)
		}
		opened = append(opened, f)
		files = append(files, storage.File{Name: fh.Filename, Body: f})
	}
	return files, closeAll, nil
}

// formFile is formFiles for a single optional upload.
func formFile(c *gin.Context, field string) (*storage.File, func(), error) {
	files, done, err := formFiles(c, field)
	if err != nil || len(files) == 0 {
		return nil, done, err
	}
	return &files[0], done, nil
}

func listQuery(c *gin.Context) (service.ListQuery, pagination.Params) {
	p := pagination.Parse(c)
	return service.ListQuery{Status: c.Query("status"), Page: p.Page, Limit: p.Limit}, p
}

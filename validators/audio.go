// Package validators checks user-supplied input before it reaches the
// lifecycle manager.
package validators

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/viper"
)

var (
	ErrFileTooLarge        = errors.New("file too large")
	ErrFileNameTooLong     = errors.New("file name is too long")
	ErrFileTypeUnsupported = errors.New("unsupported file type")
	ErrNoFile              = errors.New("no file provided")
)

// Leaves room for the "{user}/{uuid}_" prefix inside the S3 key limit
const maxFileNameSize = 200

// AudioValidator rejects uploads that aren't plausibly audio before any
// bytes hit the stores. Header checks run first since they're cheap,
// then the content is sniffed to catch spoofed Content-Types.
func AudioValidator(fh *multipart.FileHeader) (int, multipart.File, error) {
	if fh == nil {
		return http.StatusBadRequest, nil, ErrNoFile
	}

	ct := fh.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "audio/") && !strings.HasPrefix(ct, "video/") {
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	if len(fh.Filename) > maxFileNameSize {
		return http.StatusBadRequest, nil, ErrFileNameTooLong
	}

	maxFileSize := viper.GetInt64("upload.max_size")
	if fh.Size > maxFileSize {
		return http.StatusRequestEntityTooLarge, nil, ErrFileTooLarge
	}

	f, err := fh.Open()
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}

	mime, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return http.StatusInternalServerError, nil, err
	}

	if !strings.HasPrefix(mime.String(), "audio/") && !strings.HasPrefix(mime.String(), "video/") {
		f.Close()
		return http.StatusBadRequest, nil, ErrFileTypeUnsupported
	}

	f.Seek(0, 0)
	return 0, f, nil
}

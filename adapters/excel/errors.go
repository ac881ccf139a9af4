package excel

import "errors"

var (
	ErrMissingFilePath  = errors.New("file path is required")
	ErrMissingSheetName = errors.New("sheet name is required")
)

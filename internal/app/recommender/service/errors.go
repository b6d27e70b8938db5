package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrUserNotFound     = errors.New("user has no rating history")
	ErrMovieNotFound    = errors.New("movie not found")
	ErrImportInProgress = errors.New("dataset import already in progress")
)
